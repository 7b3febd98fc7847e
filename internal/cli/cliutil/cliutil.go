// Package cliutil holds what the command groups share: the API client,
// the identity read from the saved token, and plain-text rendering.
package cliutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"threadhub/internal/api"
	"threadhub/internal/identity"
	"threadhub/internal/session"
	"threadhub/pkg/models"
	"threadhub/pkg/utils"
)

// Config keys
const (
	KeyBaseURL  = "server.base_url"
	KeyTimeout  = "server.timeout"
	KeyToken    = "user.token"
	KeyUserID   = "user.id"
	KeyUsername = "user.username"
	KeyMaxDepth = "comments.max_depth"
)

// SetDefaults registers the CLI's default configuration
func SetDefaults() {
	viper.SetDefault(KeyBaseURL, "http://localhost:8080/api/v1")
	viper.SetDefault(KeyTimeout, 10*time.Second)
	viper.SetDefault(KeyMaxDepth, models.DefaultMaxDepth)
}

// ConfigDir returns ~/.threadhub
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".threadhub"
	}
	return filepath.Join(home, ".threadhub")
}

// SaveConfig writes the current settings to the active config file, or to
// ~/.threadhub/config.yaml when none was loaded
func SaveConfig() (string, error) {
	path := viper.ConfigFileUsed()
	if path == "" {
		dir := ConfigDir()
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", dir, err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to save config: %w", err)
	}
	return path, nil
}

// Client returns an API client for the configured server
func Client() *api.Client {
	return api.NewClient(viper.GetString(KeyBaseURL), api.WithTimeout(viper.GetDuration(KeyTimeout)))
}

// Identity returns the identity provider backed by the saved token
func Identity() *identity.TokenProvider {
	return identity.NewTokenProvider(viper.GetString(KeyToken))
}

// Controller loads the discussion of articleID
func Controller(ctx context.Context, articleID int64) (*session.Controller, error) {
	policy := session.DefaultPolicy()
	policy.MaxDepth = viper.GetInt(KeyMaxDepth)

	ctrl := session.New(articleID, Client(), Identity(), policy)
	loadCtx, cancel := utils.WithLongTimeout(ctx)
	defer cancel()
	if err := ctrl.Load(loadCtx); err != nil {
		return nil, Explain(err)
	}
	return ctrl, nil
}

// ParseCommentID accepts a numeric comment id
func ParseCommentID(s string) (models.CommentID, error) {
	id, err := models.ParseCommentID(s)
	if err != nil || id.IsPending() || id.Confirmed <= 0 {
		return models.CommentID{}, fmt.Errorf("invalid comment id %q", s)
	}
	return id, nil
}

// Explain turns a typed error into a message for the terminal
func Explain(err error) error {
	if err == nil {
		return nil
	}
	appErr := models.Classify(err)
	switch appErr.Kind {
	case models.KindUnauthenticated:
		return fmt.Errorf("%s (run 'threadhub auth login')", appErr.UserMessage())
	case models.KindNetworkFailure:
		return fmt.Errorf("%s at %s", appErr.UserMessage(), viper.GetString(KeyBaseURL))
	default:
		return fmt.Errorf("%s", appErr.UserMessage())
	}
}

// RenderTree prints the thread with indentation per depth
func RenderTree(w io.Writer, roots []*models.Comment, now time.Time) {
	if len(roots) == 0 {
		fmt.Fprintln(w, "No comments yet.")
		return
	}
	walk(w, roots, 0, now)
}

func walk(w io.Writer, nodes []*models.Comment, depth int, now time.Time) {
	indent := strings.Repeat("  ", depth)
	for _, c := range nodes {
		when := utils.TimeAgoFrom(c.CreatedAt, now)
		if c.ID.IsPending() {
			when = "sending…"
		}
		fmt.Fprintf(w, "%s[%s] %s · %s  +%d/-%d%s\n",
			indent, c.ID, c.Creator.DisplayName, when, c.LikeCount, c.DislikeCount, reactionMark(c.CurrentUserReaction))
		for _, line := range strings.Split(c.Content, "\n") {
			fmt.Fprintf(w, "%s  %s\n", indent, line)
		}
		walk(w, c.Replies, depth+1, now)
	}
}

func reactionMark(r models.Reaction) string {
	switch r {
	case models.ReactionLike:
		return "  (you liked)"
	case models.ReactionDislike:
		return "  (you disliked)"
	default:
		return ""
	}
}

// RenderEvent prints one live event
func RenderEvent(w io.Writer, e models.CommentEvent) {
	at := e.Timestamp.Local().Format("15:04:05")
	switch e.Type {
	case models.EventCommentCreated:
		kind := "comment"
		if e.ParentID != nil {
			kind = fmt.Sprintf("reply to %d", *e.ParentID)
		}
		fmt.Fprintf(w, "%s  + %s %d by %s: %s\n", at, kind, e.CommentID, e.AuthorName, utils.Truncate(e.Content, 60))
	case models.EventCommentDeleted:
		fmt.Fprintf(w, "%s  - comment %d deleted (%d removed)\n", at, e.CommentID, len(e.Removed))
	case models.EventReaction:
		if e.Target != nil && e.Reactions != nil {
			fmt.Fprintf(w, "%s  * %s %d now +%d/-%d\n", at, e.Target.Kind, e.Target.ID, e.Reactions.LikeCount, e.Reactions.DislikeCount)
		}
	default:
		fmt.Fprintf(w, "%s  ? %s\n", at, e.Type)
	}
}
