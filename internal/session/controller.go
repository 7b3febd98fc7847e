// Package session binds one article's comment store and reaction toggles to
// the comment backend and the current identity.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"threadhub/internal/comments"
	"threadhub/internal/reaction"
	"threadhub/pkg/logger"
	"threadhub/pkg/models"
	"threadhub/pkg/utils"
)

// Backend is the comment and reaction collaborator
type Backend interface {
	FetchComments(ctx context.Context, articleID int64, viewerID string) ([]models.Comment, error)
	CreateComment(ctx context.Context, cred models.Credential, articleID int64, content string, parentID *int64) (*models.CreateResult, error)
	DeleteComment(ctx context.Context, cred models.Credential, commentID int64) error
	reaction.Backend
}

// ReactionReader is implemented by backends that can report the counters of
// a target; Load uses it to seed the article's own reaction
type ReactionReader interface {
	FetchReaction(ctx context.Context, target models.Target, viewerID string) (models.ReactionState, error)
}

// Identity supplies the signed-in user
type Identity interface {
	Credential() (models.Credential, error)
}

// Policy bounds what the controller accepts before any network call
type Policy struct {
	MaxDepth         int `yaml:"max_depth" mapstructure:"max_depth"`
	MinContentLength int `yaml:"min_content_length" mapstructure:"min_content_length"`
	MaxContentLength int `yaml:"max_content_length" mapstructure:"max_content_length"`
}

// DefaultPolicy returns the stock limits
func DefaultPolicy() Policy {
	return Policy{
		MaxDepth:         models.DefaultMaxDepth,
		MinContentLength: 1,
		MaxContentLength: models.MaxCommentLength,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.MaxDepth <= 0 {
		p.MaxDepth = d.MaxDepth
	}
	if p.MinContentLength <= 0 {
		p.MinContentLength = d.MinContentLength
	}
	if p.MaxContentLength <= 0 {
		p.MaxContentLength = d.MaxContentLength
	}
	return p
}

const rootComposer = "root"

// Controller is the only component that talks to the backend for an
// article's discussion. It is safe for use from multiple goroutines.
type Controller struct {
	articleID int64
	backend   Backend
	identity  Identity
	policy    Policy
	store     *comments.Store
	article   *reaction.Toggle

	mu      sync.Mutex
	toggles map[int64]*reaction.Toggle
	busy    map[string]bool
}

// New creates a controller for articleID
func New(articleID int64, backend Backend, identity Identity, policy Policy) *Controller {
	policy = policy.withDefaults()
	c := &Controller{
		articleID: articleID,
		backend:   backend,
		identity:  identity,
		policy:    policy,
		toggles:   make(map[int64]*reaction.Toggle),
		busy:      make(map[string]bool),
	}
	c.store = comments.NewStore(articleID, storeOps{c: c}, comments.WithMaxDepth(policy.MaxDepth))
	c.article = reaction.New(models.Target{Kind: models.TargetArticle, ID: articleID}, backend, models.ReactionState{})
	return c
}

// ArticleID returns the article the controller serves
func (c *Controller) ArticleID() int64 {
	return c.articleID
}

// Policy returns the effective limits
func (c *Controller) Policy() Policy {
	return c.policy
}

// Load fetches the article's comments and replaces the local collection.
// The viewer id is only sent when someone is signed in.
func (c *Controller) Load(ctx context.Context) error {
	viewerID := ""
	if cred, err := c.identity.Credential(); err == nil && cred.Valid() {
		viewerID = cred.UserID
	}

	flat, err := c.backend.FetchComments(ctx, c.articleID, viewerID)
	if err != nil {
		appErr := models.Classify(err)
		c.log("load", "", appErr)
		return appErr
	}

	c.store.Load(flat)

	c.mu.Lock()
	c.toggles = make(map[int64]*reaction.Toggle)
	for _, cm := range c.store.Comments() {
		if !cm.ID.IsPending() {
			c.toggles[cm.ID.Confirmed] = c.newToggle(cm.ID.Confirmed, cm.Reactions())
		}
	}
	c.mu.Unlock()

	if reader, ok := c.backend.(ReactionReader); ok {
		state, err := reader.FetchReaction(ctx, models.Target{Kind: models.TargetArticle, ID: c.articleID}, viewerID)
		if err != nil {
			logger.Warnf("session: article %d reactions unavailable: %v", c.articleID, err)
		} else {
			c.article.Reset(state)
		}
	}

	logger.Infof("session: article %d loaded with %d comments", c.articleID, c.store.Count())
	return nil
}

// SeedArticleReaction sets the article's reaction counters, as reported by
// whatever loaded the article itself.
func (c *Controller) SeedArticleReaction(state models.ReactionState) {
	c.article.Reset(state)
}

// Tree returns the threaded view of the current collection
func (c *Controller) Tree() []*models.Comment {
	return c.store.Tree()
}

// Count returns the number of comments in the thread
func (c *Controller) Count() int {
	return c.store.Count()
}

// Comment returns a copy of one comment
func (c *Controller) Comment(id models.CommentID) (models.Comment, bool) {
	return c.store.Get(id)
}

// Viewer returns the signed-in user, if any
func (c *Controller) Viewer() (models.Credential, bool) {
	cred, err := c.credential()
	return cred, err == nil
}

// CanReply reports whether a reply affordance should be offered for id
func (c *Controller) CanReply(id models.CommentID) bool {
	if _, err := c.credential(); err != nil {
		return false
	}
	cm, ok := c.store.Get(id)
	if !ok || cm.ID.IsPending() {
		return false
	}
	return cm.Depth < c.policy.MaxDepth
}

// ValidateContent trims content and checks it against the policy
func (c *Controller) ValidateContent(content string) (string, error) {
	return utils.ValidateContent(content, c.policy.MinContentLength, c.policy.MaxContentLength)
}

// AddComment posts a top-level comment
func (c *Controller) AddComment(ctx context.Context, content string) (*models.Comment, error) {
	content, err := c.ValidateContent(content)
	if err != nil {
		return nil, err
	}
	cred, err := c.credential()
	if err != nil {
		return nil, err
	}
	if !c.acquire(rootComposer) {
		return nil, models.ErrInFlight
	}
	defer c.release(rootComposer)

	cm, err := c.store.AddRootComment(withCredential(ctx, cred), content, cred.Author())
	if err != nil {
		c.log("add", "", err)
		return nil, err
	}
	c.track(cm)
	return cm, nil
}

// Reply posts a reply under parentID
func (c *Controller) Reply(ctx context.Context, parentID models.CommentID, content string) (*models.Comment, error) {
	content, err := c.ValidateContent(content)
	if err != nil {
		return nil, err
	}
	cred, err := c.credential()
	if err != nil {
		return nil, err
	}
	key := "reply:" + parentID.String()
	if !c.acquire(key) {
		return nil, models.ErrInFlight
	}
	defer c.release(key)

	cm, err := c.store.AddReply(withCredential(ctx, cred), parentID, content, cred.Author())
	if err != nil {
		c.log("reply", parentID.String(), err)
		return nil, err
	}
	c.track(cm)
	return cm, nil
}

// Delete removes a comment and its replies once the backend agrees
func (c *Controller) Delete(ctx context.Context, id models.CommentID) ([]models.CommentID, error) {
	cred, err := c.credential()
	if err != nil {
		return nil, err
	}
	key := "delete:" + id.String()
	if !c.acquire(key) {
		return nil, models.ErrInFlight
	}
	defer c.release(key)

	removed, err := c.store.DeleteComment(withCredential(ctx, cred), id)
	if err != nil {
		c.log("delete", id.String(), err)
		return nil, err
	}

	c.mu.Lock()
	for _, r := range removed {
		if !r.IsPending() {
			delete(c.toggles, r.Confirmed)
		}
	}
	c.mu.Unlock()
	return removed, nil
}

// ReactToComment toggles desired on a comment
func (c *Controller) ReactToComment(ctx context.Context, id models.CommentID, desired models.Reaction) (models.ReactionState, error) {
	cm, ok := c.store.Get(id)
	if !ok {
		return models.ReactionState{}, models.ErrNotFound
	}
	if id.IsPending() {
		return cm.Reactions(), models.ErrPending
	}
	cred, err := c.credential()
	if err != nil {
		return cm.Reactions(), err
	}

	c.mu.Lock()
	tg, ok := c.toggles[id.Confirmed]
	if !ok {
		tg = c.newToggle(id.Confirmed, cm.Reactions())
		c.toggles[id.Confirmed] = tg
	}
	c.mu.Unlock()

	state, err := tg.Toggle(ctx, cred, desired)
	if err != nil && !errors.Is(err, models.ErrInFlight) {
		c.log("react", id.String(), err)
	}
	return state, err
}

// ReactToArticle toggles desired on the article itself
func (c *Controller) ReactToArticle(ctx context.Context, desired models.Reaction) (models.ReactionState, error) {
	cred, err := c.credential()
	if err != nil {
		return c.article.State(), err
	}
	state, err := c.article.Toggle(ctx, cred, desired)
	if err != nil && !errors.Is(err, models.ErrInFlight) {
		c.log("react", fmt.Sprintf("article:%d", c.articleID), err)
	}
	return state, err
}

// ArticleReaction returns the article's current reaction state
func (c *Controller) ArticleReaction() models.ReactionState {
	return c.article.State()
}

func (c *Controller) newToggle(id int64, initial models.ReactionState) *reaction.Toggle {
	tg := reaction.New(models.Target{Kind: models.TargetComment, ID: id}, c.backend, initial)
	cid := models.ConfirmedID(id)
	tg.OnChange(func(s models.ReactionState) {
		// The comment may have been deleted meanwhile.
		_ = c.store.SetReaction(cid, s)
	})
	return tg
}

func (c *Controller) track(cm *models.Comment) {
	if cm == nil || cm.ID.IsPending() {
		return
	}
	c.mu.Lock()
	if _, ok := c.toggles[cm.ID.Confirmed]; !ok {
		c.toggles[cm.ID.Confirmed] = c.newToggle(cm.ID.Confirmed, cm.Reactions())
	}
	c.mu.Unlock()
}

func (c *Controller) credential() (models.Credential, error) {
	cred, err := c.identity.Credential()
	if err != nil {
		if models.KindOf(err) == models.KindUnauthenticated {
			return models.Credential{}, err
		}
		return models.Credential{}, models.NewError(models.KindUnauthenticated, models.ErrUnauthenticated.Message, err)
	}
	if !cred.Valid() {
		return models.Credential{}, models.ErrUnauthenticated
	}
	return cred, nil
}

func (c *Controller) acquire(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy[key] {
		return false
	}
	c.busy[key] = true
	return true
}

func (c *Controller) release(key string) {
	c.mu.Lock()
	delete(c.busy, key)
	c.mu.Unlock()
}

func (c *Controller) log(op, commentID string, err error) {
	appErr := models.Classify(err)
	logger.WithFields(map[string]interface{}{
		"component":  "session",
		"op":         op,
		"article_id": c.articleID,
		"comment_id": commentID,
		"kind":       string(appErr.Kind),
	}).WithError(err).Warn(fmt.Sprintf("%s failed", op))
}
