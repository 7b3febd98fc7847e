package comments

import (
	"fmt"

	"github.com/spf13/cobra"

	"threadhub/internal/cli/cliutil"
	"threadhub/pkg/utils"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <comment-id>",
	Short: "Delete a comment and all of its replies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := articleID(cmd)
		if err != nil {
			return err
		}
		target, err := cliutil.ParseCommentID(args[0])
		if err != nil {
			return err
		}

		ctrl, err := cliutil.Controller(cmd.Context(), id)
		if err != nil {
			return err
		}

		ctx, cancel := utils.WithTimeout(cmd.Context())
		defer cancel()

		removed, err := ctrl.Delete(ctx, target)
		if err != nil {
			return cliutil.Explain(err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s (%d comments removed)\n", target, len(removed))
		return nil
	},
}

func init() {
	CommentsCmd.AddCommand(deleteCmd)
}
