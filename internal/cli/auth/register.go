package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"threadhub/internal/cli/cliutil"
	"threadhub/pkg/models"
	"threadhub/pkg/utils"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new account",
	Long:  "Create a new threadhub account with username, display name, and password",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		displayName, _ := cmd.Flags().GetString("display-name")
		username = prompt("Username", username)
		displayName = prompt("Display name", displayName)

		password, err := readSecret("Password")
		if err != nil {
			return err
		}
		confirm, err := readSecret("Confirm password")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		ctx, cancel := utils.WithTimeout(cmd.Context())
		defer cancel()

		err = cliutil.Client().Register(ctx, models.RegisterRequest{
			Username:    username,
			DisplayName: displayName,
			Password:    password,
		})
		if err != nil {
			return fmt.Errorf("registration failed: %w", cliutil.Explain(err))
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "✓ Account created successfully!")
		fmt.Fprintf(out, "  Username: %s\n", username)
		fmt.Fprintln(out, "\nNext: threadhub auth login --username "+username)
		return nil
	},
}

func init() {
	registerCmd.Flags().StringP("username", "u", "", "Username")
	registerCmd.Flags().String("display-name", "", "Name shown next to your comments")
	AuthCmd.AddCommand(registerCmd)
}
