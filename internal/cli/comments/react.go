package comments

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"threadhub/internal/cli/cliutil"
	"threadhub/internal/session"
	"threadhub/pkg/models"
	"threadhub/pkg/utils"
)

var reactCmd = &cobra.Command{
	Use:   "react <comment-id|article> <like|dislike|none>",
	Short: "Like, dislike or clear your reaction on a comment or the article",
	Long: `Set your reaction. Reacting with the reaction you already have removes it,
so "react 12 like" twice leaves comment 12 without your like. "none" removes
whatever reaction you have.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := articleID(cmd)
		if err != nil {
			return err
		}
		desired, err := models.ParseReaction(args[1])
		if err != nil {
			return err
		}

		ctrl, err := cliutil.Controller(cmd.Context(), id)
		if err != nil {
			return err
		}

		ctx, cancel := utils.WithTimeout(cmd.Context())
		defer cancel()

		label, state, err := react(ctx, ctrl, args[0], desired)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: +%d/-%d (you: %s)\n", label, state.LikeCount, state.DislikeCount, state.UserReaction)
		return nil
	},
}

// react applies desired to the article or to the comment named by arg
func react(ctx context.Context, ctrl *session.Controller, arg string, desired models.Reaction) (string, models.ReactionState, error) {
	if arg == "article" {
		state, err := ctrl.ReactToArticle(ctx, desired)
		return "article", state, cliutil.Explain(err)
	}

	id, err := cliutil.ParseCommentID(arg)
	if err != nil {
		return "", models.ReactionState{}, err
	}
	state, err := ctrl.ReactToComment(ctx, id, desired)
	return "comment " + id.String(), state, cliutil.Explain(err)
}

func init() {
	CommentsCmd.AddCommand(reactCmd)
}
