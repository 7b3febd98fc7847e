package comments

import (
	"fmt"

	"github.com/spf13/cobra"
)

var CommentsCmd = &cobra.Command{
	Use:     "comments",
	Aliases: []string{"c"},
	Short:   "Article discussion commands",
	Long:    "List, post, reply to, delete and react to the comments of an article",
}

func init() {
	CommentsCmd.PersistentFlags().Int64P("article", "a", 0, "Article id")
	_ = CommentsCmd.MarkPersistentFlagRequired("article")
}

func articleID(cmd *cobra.Command) (int64, error) {
	id, _ := cmd.Flags().GetInt64("article")
	if id <= 0 {
		return 0, fmt.Errorf("--article must be a positive id")
	}
	return id, nil
}
