// Package comments turns a flat comment collection into a threaded view and
// owns the per-article collection that optimistic mutations are applied to.
package comments

import (
	"sort"

	"threadhub/pkg/models"
)

// BuildTree converts an unordered flat collection into a forest of roots
// with nested Replies. Input records are never modified.
//
// Roots are ordered newest first with ties broken by input order; replies
// keep input order. A comment whose parent is missing, or whose ancestor
// chain loops back to itself, is placed among the roots. Depth on the
// returned nodes is the tree position (roots are 0).
func BuildTree(flat []models.Comment) []*models.Comment {
	index := make(map[models.CommentID]*models.Comment, len(flat))
	order := make([]*models.Comment, 0, len(flat))

	for i := range flat {
		if _, dup := index[flat[i].ID]; dup {
			continue
		}
		node := flat[i].Clone()
		node.Replies = []*models.Comment{}
		index[node.ID] = node
		order = append(order, node)
	}

	parents := resolveParents(order, index)

	roots := make([]*models.Comment, 0)
	for _, node := range order {
		parent := parents[node.ID]
		if parent == nil {
			roots = append(roots, node)
			continue
		}
		if !containsID(parent.Replies, node.ID) {
			parent.Replies = append(parent.Replies, node)
		}
	}

	sort.SliceStable(roots, func(i, j int) bool {
		return roots[i].CreatedAt.After(roots[j].CreatedAt)
	})

	Walk(roots, func(c *models.Comment, depth int) bool {
		c.Depth = depth
		return true
	})

	return roots
}

// resolveParents picks the effective parent of every node, in input order.
// A node whose chain of effective parents returns to itself is cut loose
// and becomes a root, which keeps the result acyclic without dropping
// anything.
func resolveParents(order []*models.Comment, index map[models.CommentID]*models.Comment) map[models.CommentID]*models.Comment {
	parents := make(map[models.CommentID]*models.Comment, len(order))
	resolved := make(map[models.CommentID]bool, len(order))

	rawParent := func(c *models.Comment) *models.Comment {
		if c.ParentID == nil {
			return nil
		}
		return index[models.ConfirmedID(*c.ParentID)]
	}

	for _, node := range order {
		parent := rawParent(node)
		cur := parent
		for steps := 0; cur != nil && steps <= len(order); steps++ {
			if cur.ID == node.ID {
				parent = nil
				break
			}
			if resolved[cur.ID] {
				cur = parents[cur.ID]
			} else {
				cur = rawParent(cur)
			}
		}
		parents[node.ID] = parent
		resolved[node.ID] = true
	}

	return parents
}

func containsID(list []*models.Comment, id models.CommentID) bool {
	for _, c := range list {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Walk visits the forest in pre-order. Returning false from fn skips the
// node's replies.
func Walk(roots []*models.Comment, fn func(c *models.Comment, depth int) bool) {
	var visit func(nodes []*models.Comment, depth int)
	visit = func(nodes []*models.Comment, depth int) {
		for _, c := range nodes {
			if fn(c, depth) {
				visit(c.Replies, depth+1)
			}
		}
	}
	visit(roots, 0)
}

// CountAll returns the number of nodes reachable in the tree built from flat
func CountAll(flat []models.Comment) int {
	return countNodes(BuildTree(flat))
}

func countNodes(nodes []*models.Comment) int {
	total := 0
	for _, c := range nodes {
		total += 1 + countNodes(c.Replies)
	}
	return total
}

// Flatten returns the forest as a flat pre-order list with Replies cleared
func Flatten(roots []*models.Comment) []models.Comment {
	flat := make([]models.Comment, 0)
	Walk(roots, func(c *models.Comment, _ int) bool {
		cp := c.Clone()
		cp.Replies = nil
		flat = append(flat, *cp)
		return true
	})
	return flat
}

// Find returns the node with the given id from a built tree
func Find(roots []*models.Comment, id models.CommentID) *models.Comment {
	var found *models.Comment
	Walk(roots, func(c *models.Comment, _ int) bool {
		if found != nil {
			return false
		}
		if c.ID == id {
			found = c
			return false
		}
		return true
	})
	return found
}
