package auth

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"threadhub/internal/cli/cliutil"
	"threadhub/internal/identity"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Save a bearer token issued elsewhere",
	Long:  "Paste a token obtained from another client; it is read without echo",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := readSecret("Token")
		if err != nil {
			return err
		}

		claims, err := identity.ParseUnverified(token)
		if err != nil {
			return err
		}

		viper.Set(cliutil.KeyToken, token)
		viper.Set(cliutil.KeyUserID, claims.UserID)
		viper.Set(cliutil.KeyUsername, claims.DisplayName)
		if _, err := cliutil.SaveConfig(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Token saved for %s\n", claims.DisplayName)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved token",
	RunE: func(cmd *cobra.Command, args []string) error {
		viper.Set(cliutil.KeyToken, "")
		viper.Set(cliutil.KeyUserID, "")
		viper.Set(cliutil.KeyUsername, "")
		if _, err := cliutil.SaveConfig(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Logged out")
		return nil
	},
}

func init() {
	AuthCmd.AddCommand(tokenCmd)
	AuthCmd.AddCommand(logoutCmd)
}
