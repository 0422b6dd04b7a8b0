// Package main provides the parley CLI entrypoint.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/storage"
)

var version = "0.1.0"

func main() {
	// Piped output gets plain text.
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}

	rootCmd := &cobra.Command{
		Use:   "parley",
		Short: "Conversation sessions against an agent-invocation service",
		Long: `parley: conversation sessions against an agent-invocation service.

Usage modes:
  parley             Start an interactive chat session
  parley chat        Same as above
  parley threads     Inspect saved conversations`,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd)
		},
	}

	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(threadsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openStore opens the sqlite store in the configured data directory.
func openStore() (*storage.Storage, error) {
	store, err := storage.New(config.Env().DataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}
