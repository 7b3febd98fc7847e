package comments

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"threadhub/internal/cli/cliutil"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the discussion thread",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := articleID(cmd)
		if err != nil {
			return err
		}

		ctrl, err := cliutil.Controller(cmd.Context(), id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Article %d · %d comments\n\n", id, ctrl.Count())
		cliutil.RenderTree(out, ctrl.Tree(), time.Now())
		return nil
	},
}

func init() {
	CommentsCmd.AddCommand(listCmd)
}
