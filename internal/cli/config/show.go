package config

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"threadhub/internal/cli/cliutil"
	"threadhub/internal/identity"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display current threadhub CLI configuration and session status",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "threadhub Configuration:")
		if path := viper.ConfigFileUsed(); path != "" {
			fmt.Fprintf(out, "  File: %s\n", path)
		}
		fmt.Fprintln(out, "")
		fmt.Fprintf(out, "Server:\n")
		fmt.Fprintf(out, "  Base URL: %s\n", viper.GetString(cliutil.KeyBaseURL))
		fmt.Fprintf(out, "  Timeout: %s\n", viper.GetDuration(cliutil.KeyTimeout))
		fmt.Fprintf(out, "Comments:\n")
		fmt.Fprintf(out, "  Max depth: %d\n", viper.GetInt(cliutil.KeyMaxDepth))
		fmt.Fprintln(out, "")

		printSession(out, viper.GetString(cliutil.KeyUsername), viper.GetString(cliutil.KeyToken), time.Now())
	},
}

var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long:  "Set server.base_url, server.timeout or comments.max_depth and save the config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case cliutil.KeyBaseURL, cliutil.KeyTimeout, cliutil.KeyMaxDepth:
		default:
			return fmt.Errorf("unknown setting %q", args[0])
		}
		viper.Set(args[0], args[1])
		path, err := cliutil.SaveConfig()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s saved to %s\n", args[0], path)
		return nil
	},
}

func printSession(out io.Writer, username, token string, now time.Time) {
	if token == "" {
		fmt.Fprintf(out, "User: Not logged in\n")
		fmt.Fprintf(out, "  Run 'threadhub auth login' to authenticate\n")
		return
	}

	fmt.Fprintf(out, "User:\n")
	if username != "" {
		fmt.Fprintf(out, "  Username: %s\n", username)
	}
	if len(token) > 20 {
		fmt.Fprintf(out, "  Token: %s...\n", token[:20])
	} else {
		fmt.Fprintf(out, "  Token: %s\n", token)
	}

	claims, err := identity.ParseUnverified(token)
	switch {
	case err != nil:
		fmt.Fprintf(out, "  Status: ✗ Unreadable token\n")
	case claims.ExpiresAt != nil && !claims.ExpiresAt.After(now):
		fmt.Fprintf(out, "  Status: ✗ Expired %s\n", claims.ExpiresAt.Time.Local().Format(time.RFC822))
	case claims.ExpiresAt != nil:
		fmt.Fprintf(out, "  Status: ✓ Logged in until %s\n", claims.ExpiresAt.Time.Local().Format(time.RFC822))
	default:
		fmt.Fprintf(out, "  Status: ✓ Logged in\n")
	}
}

func init() {
	ConfigCmd.AddCommand(showCmd)
	ConfigCmd.AddCommand(setCmd)
}
