// Package cli implements the melo command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vannyda/melo/internal/config"
	"github.com/vannyda/melo/internal/logging"
	"github.com/vannyda/melo/internal/provider"
	"github.com/vannyda/melo/internal/resolver"
	"github.com/vannyda/melo/internal/ytdlp"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "melo",
	Short: "Stream and play music from the command line",
	Long: `Melo finds, resolves, and plays music streams: keyword search,
internet radio, playlists, lyrics, and local downloads.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logging.Init(cfg.Log)
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	defer logging.Sync()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newYtdlp builds the helper client from config.
func newYtdlp() *ytdlp.Client {
	return ytdlp.New(cfg.Ytdlp.Python, cfg.Ytdlp.Script)
}

// newProvider builds the search provider from config.
func newProvider() *provider.Provider {
	return provider.New(provider.NewPool(cfg.APIKeys), newYtdlp())
}

// newResolver builds the stream resolver from config.
func newResolver() *resolver.Resolver {
	return resolver.New(newYtdlp(), cfg.Mirrors, cfg.RelayURL)
}
