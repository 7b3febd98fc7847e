package comments

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"threadhub/internal/cli/cliutil"
	"threadhub/pkg/utils"
)

var addCmd = &cobra.Command{
	Use:   "add <content>",
	Short: "Post a top-level comment",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := articleID(cmd)
		if err != nil {
			return err
		}

		ctrl, err := cliutil.Controller(cmd.Context(), id)
		if err != nil {
			return err
		}

		ctx, cancel := utils.WithTimeout(cmd.Context())
		defer cancel()

		created, err := ctrl.AddComment(ctx, strings.Join(args, " "))
		if err != nil {
			return cliutil.Explain(err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Comment %s posted\n", created.ID)
		return nil
	},
}

var replyCmd = &cobra.Command{
	Use:   "reply <comment-id> <content>",
	Short: "Reply to a comment",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := articleID(cmd)
		if err != nil {
			return err
		}
		parent, err := cliutil.ParseCommentID(args[0])
		if err != nil {
			return err
		}

		ctrl, err := cliutil.Controller(cmd.Context(), id)
		if err != nil {
			return err
		}

		ctx, cancel := utils.WithTimeout(cmd.Context())
		defer cancel()

		created, err := ctrl.Reply(ctx, parent, strings.Join(args[1:], " "))
		if err != nil {
			return cliutil.Explain(err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Reply %s posted under %s\n", created.ID, parent)
		return nil
	},
}

func init() {
	CommentsCmd.AddCommand(addCmd)
	CommentsCmd.AddCommand(replyCmd)
}
