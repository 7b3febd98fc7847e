package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"threadhub/internal/cli/auth"
	"threadhub/internal/cli/cliutil"
	"threadhub/internal/cli/comments"
	"threadhub/internal/cli/config"
	"threadhub/pkg/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "threadhub",
	Short:         "threadhub - article discussions from the terminal",
	Long:          "Read and join the threaded comment discussions of articles.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.threadhub/config.yaml)")
	rootCmd.PersistentFlags().String("server", "", "API base URL, e.g. http://localhost:8080/api/v1")
	_ = viper.BindPFlag(cliutil.KeyBaseURL, rootCmd.PersistentFlags().Lookup("server"))

	rootCmd.AddCommand(auth.AuthCmd)
	rootCmd.AddCommand(comments.CommentsCmd)
	rootCmd.AddCommand(config.ConfigCmd)
}

func initConfig() error {
	cliutil.SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(cliutil.ConfigDir())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("THREADHUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || (cfgFile != "" && os.IsNotExist(err)) {
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", viper.ConfigFileUsed(), err)
	}
	return nil
}

func main() {
	logger.Init(logger.Config{Level: "warn", Format: "text", Output: "stderr"})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
