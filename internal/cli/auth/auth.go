package auth

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  "Register, login, and manage the saved session token",
}

func init() {
	// Commands added in register.go, login.go and token.go
}

// prompt reads a line from stdin when value is empty
func prompt(label, value string) string {
	if value != "" {
		return value
	}
	fmt.Printf("%s: ", label)
	fmt.Scanln(&value)
	return strings.TrimSpace(value)
}

// readSecret reads without echo when stdin is a terminal
func readSecret(label string) (string, error) {
	fmt.Printf("%s: ", label)
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		var line string
		_, err := fmt.Fscanln(os.Stdin, &line)
		return strings.TrimSpace(line), err
	}
	secret, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(string(secret)), nil
}
