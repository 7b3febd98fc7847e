package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"

	"threadhub/internal/tui"
	"threadhub/internal/tui/config"
	"threadhub/pkg/logger"
)

func main() {
	configPath := flag.StringP("config", "c", "", "path to the TUI config file")
	article := flag.Int64P("article", "a", 0, "article to open (overrides ui.article)")
	server := flag.StringP("server", "s", "", "API base URL (overrides server.base_url)")
	logFile := flag.String("log", "", "write logs to this file instead of discarding them")
	flag.Parse()

	// The alternate screen owns stdout
	output := "discard"
	if *logFile != "" {
		output = *logFile
	}
	logger.Init(logger.Config{Level: "info", Format: "text", Output: output})

	cfg, path, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		fmt.Println("Using default configuration...")
		cfg = config.Default()
	}
	if *article > 0 {
		cfg.UI.Article = *article
	}
	if *server != "" {
		cfg.Server.BaseURL = strings.TrimRight(*server, "/")
	}

	app := tui.New(cfg, path)

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
