package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/abhisek/parley/internal/config"
	"github.com/abhisek/parley/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "English conversation coach for your terminal",
	Long: "Parley - practice spoken English with an AI partner: free conversation, " +
		"guided phrase-building lessons and role-play scenarios, with a feedback report at the end.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides PARLEY_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ~/.config/parley/config.yaml)")
	rootCmd.PersistentFlags().String("backend", "", "Backend URL; switches to remote mode")
	rootCmd.PersistentFlags().Bool("mute", false, "Disable spoken replies")
	rootCmd.PersistentFlags().String("language", "", "Practice language: en, pt or bilingual")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(lessonsCmd)
	rootCmd.AddCommand(speakCmd)
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the layered configuration and applies command-line
// flags on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DBPath = p
	}
	if u, _ := cmd.Flags().GetString("backend"); u != "" {
		cfg.Backend.Mode = config.BackendRemote
		cfg.Backend.URL = u
	}
	if mute, _ := cmd.Flags().GetBool("mute"); mute {
		cfg.Audio.Mute = true
	}
	if lang, _ := cmd.Flags().GetString("language"); lang != "" {
		cfg.Practice.Language = lang
	}
	return cfg, cfg.Validate()
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then PARLEY_DB env var or the config file, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}

// openStore opens the database selected by resolveDBPath.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
