package comments

import (
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"threadhub/internal/cli/cliutil"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the article's discussion live",
	Long:  "Print comment, deletion and reaction events as they happen. Press Ctrl+C to stop.",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := articleID(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		stream, err := cliutil.Client().Subscribe(ctx, id, cliutil.Identity().Token())
		if err != nil {
			return cliutil.Explain(err)
		}
		go func() {
			<-ctx.Done()
			stream.Close()
		}()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Watching article %d (Ctrl+C to stop)\n", id)
		for {
			event, err := stream.Next()
			if err != nil {
				if errors.Is(err, io.EOF) || ctx.Err() != nil {
					return nil
				}
				return cliutil.Explain(err)
			}
			cliutil.RenderEvent(out, event)
		}
	},
}

func init() {
	CommentsCmd.AddCommand(watchCmd)
}
