package repository

import (
	"context"
	"database/sql"
	"errors"

	"threadhub/pkg/database"
	"threadhub/pkg/models"
)

// CommentRow is a comment joined with its reaction counters
type CommentRow struct {
	models.CommentRecord
	Reactions models.ReactionState
}

// CommentRepository handles comment persistence
type CommentRepository interface {
	Create(ctx context.Context, comment *models.CommentRecord) error
	GetByID(ctx context.Context, id int64) (*models.CommentRecord, error)
	// ListByArticle returns every comment of an article, newest first, with
	// reaction counters and viewerID's own reaction.
	ListByArticle(ctx context.Context, articleID int64, viewerID string) ([]CommentRow, error)
	// Depth returns how many ancestors id has
	Depth(ctx context.Context, id int64) (int, error)
	// DeleteCascade removes id and all of its descendants and returns
	// the removed ids.
	DeleteCascade(ctx context.Context, id int64) ([]int64, error)
}

type commentRepository struct {
	db *database.DB
}

// NewCommentRepository creates a new SQL comment repository
func NewCommentRepository(db *database.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a comment and fills in its id
func (r *commentRepository) Create(ctx context.Context, comment *models.CommentRecord) error {
	query := r.db.Rebind(`
		INSERT INTO comments (article_id, parent_id, user_id, author_name, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	err := r.db.QueryRowContext(ctx, query,
		comment.ArticleID,
		nullInt64(comment.ParentID),
		comment.UserID,
		comment.AuthorName,
		comment.Content,
		dbTime{comment.CreatedAt},
	).Scan(&comment.ID)

	return mapDBError(err, "create_comment")
}

// GetByID retrieves a comment by ID
func (r *commentRepository) GetByID(ctx context.Context, id int64) (*models.CommentRecord, error) {
	query := r.db.Rebind(`
		SELECT id, article_id, parent_id, user_id, author_name, content, created_at
		FROM comments
		WHERE id = ?
	`)

	c := &models.CommentRecord{}
	var parent sql.NullInt64
	var created dbTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID,
		&c.ArticleID,
		&parent,
		&c.UserID,
		&c.AuthorName,
		&c.Content,
		&created,
	)
	if err != nil {
		return nil, mapDBError(err, "get_comment_by_id")
	}
	c.ParentID = int64Ptr(parent)
	c.CreatedAt = created.Time
	return c, nil
}

// ListByArticle retrieves comments for an article with reaction counters
func (r *commentRepository) ListByArticle(ctx context.Context, articleID int64, viewerID string) ([]CommentRow, error) {
	query := r.db.Rebind(`
		SELECT
			c.id, c.article_id, c.parent_id, c.user_id, c.author_name, c.content, c.created_at,
			COALESCE(SUM(CASE WHEN r.reaction = 'like' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN r.reaction = 'dislike' THEN 1 ELSE 0 END), 0),
			COALESCE(MAX(CASE WHEN r.user_id = ? THEN r.reaction END), 'none')
		FROM comments c
		LEFT JOIN reactions r ON r.target_kind = 'comment' AND r.target_id = c.id
		WHERE c.article_id = ?
		GROUP BY c.id, c.article_id, c.parent_id, c.user_id, c.author_name, c.content, c.created_at
		ORDER BY c.created_at DESC, c.id DESC
	`)

	rows, err := r.db.QueryContext(ctx, query, viewerID, articleID)
	if err != nil {
		return nil, mapDBError(err, "list_comments")
	}
	defer rows.Close()

	list := []CommentRow{}
	for rows.Next() {
		var row CommentRow
		var parent sql.NullInt64
		var created dbTime
		var reaction string
		if err := rows.Scan(
			&row.ID,
			&row.ArticleID,
			&parent,
			&row.UserID,
			&row.AuthorName,
			&row.Content,
			&created,
			&row.Reactions.LikeCount,
			&row.Reactions.DislikeCount,
			&reaction,
		); err != nil {
			return nil, mapDBError(err, "scan_comment")
		}
		row.ParentID = int64Ptr(parent)
		row.CreatedAt = created.Time
		row.Reactions.UserReaction = models.Reaction(reaction).Normalize()
		list = append(list, row)
	}
	if err := rows.Err(); err != nil {
		return nil, mapDBError(err, "list_comments")
	}
	return list, nil
}

// Depth walks the parent chain of id
func (r *commentRepository) Depth(ctx context.Context, id int64) (int, error) {
	query := r.db.Rebind(`SELECT parent_id FROM comments WHERE id = ?`)

	depth := 0
	seen := map[int64]bool{id: true}
	cur := id
	for {
		var parent sql.NullInt64
		if err := r.db.QueryRowContext(ctx, query, cur).Scan(&parent); err != nil {
			if depth > 0 && errors.Is(err, sql.ErrNoRows) {
				// Dangling parent: the chain ends here.
				return depth - 1, nil
			}
			return 0, mapDBError(err, "comment_depth")
		}
		if !parent.Valid || seen[parent.Int64] {
			return depth, nil
		}
		seen[parent.Int64] = true
		cur = parent.Int64
		depth++
	}
}

// DeleteCascade removes a comment subtree and its reactions
func (r *commentRepository) DeleteCascade(ctx context.Context, id int64) ([]int64, error) {
	var removed []int64

	err := r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		collect := r.db.Rebind(`
			WITH RECURSIVE subtree(id) AS (
				SELECT id FROM comments WHERE id = ?
				UNION
				SELECT c.id FROM comments c JOIN subtree s ON c.parent_id = s.id
			)
			SELECT id FROM subtree
		`)

		rows, err := tx.QueryContext(ctx, collect, id)
		if err != nil {
			return mapDBError(err, "collect_subtree")
		}
		for rows.Next() {
			var cid int64
			if err := rows.Scan(&cid); err != nil {
				rows.Close()
				return mapDBError(err, "collect_subtree")
			}
			removed = append(removed, cid)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return mapDBError(err, "collect_subtree")
		}
		if len(removed) == 0 {
			return models.ErrNotFound
		}

		delReactions := r.db.Rebind(`DELETE FROM reactions WHERE target_kind = 'comment' AND target_id = ?`)
		delComment := r.db.Rebind(`DELETE FROM comments WHERE id = ?`)
		for _, cid := range removed {
			if _, err := tx.ExecContext(ctx, delReactions, cid); err != nil {
				return mapDBError(err, "delete_reactions")
			}
			if _, err := tx.ExecContext(ctx, delComment, cid); err != nil {
				return mapDBError(err, "delete_comment")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}
