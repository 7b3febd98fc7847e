package auth

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"threadhub/internal/cli/cliutil"
	"threadhub/pkg/utils"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to threadhub",
	Long:  "Authenticate with your username and password and save the session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		username = prompt("Username", username)

		password, err := readSecret("Password")
		if err != nil {
			return err
		}

		ctx, cancel := utils.WithTimeout(cmd.Context())
		defer cancel()

		resp, err := cliutil.Client().Login(ctx, username, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", cliutil.Explain(err))
		}

		viper.Set(cliutil.KeyToken, resp.Token)
		viper.Set(cliutil.KeyUserID, resp.User.ID)
		viper.Set(cliutil.KeyUsername, resp.User.Username)
		path, err := cliutil.SaveConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "✓ Login successful!")
		fmt.Fprintf(out, "  User: %s (%s)\n", resp.User.DisplayName, resp.User.Username)
		fmt.Fprintf(out, "  Token saved to %s\n", path)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringP("username", "u", "", "Username")
	AuthCmd.AddCommand(loginCmd)
}
