package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/tcmdx/internal/config"
	"github.com/abhisek/tcmdx/internal/logging"
	"github.com/abhisek/tcmdx/internal/store"
)

var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "tcmdx",
	Short: "TCM consultation engine",
	Long: `tcmdx runs a multi-turn traditional Chinese medicine consultation: symptoms
are extracted from each message, matched against diagnostic pattern tables along
the eight-principle decision tree, and answered with a follow-up question, a
suspected pattern, or a confirmed pattern with lifestyle advice.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		console, _ := cmd.Flags().GetBool("console-log")
		l, err := logging.New(logging.Options{Verbose: verbose, Console: console})
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides TCMDX_DB env var)")
	rootCmd.PersistentFlags().StringP("config", "c", "tcmdx.yaml", "Path to YAML config file")
	rootCmd.PersistentFlags().String("rules", "", "Knowledge base: YAML file or CSV directory (default: embedded)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("console-log", false, "Human-readable log output instead of JSON")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(consultCmd)
	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads --config and applies --rules.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if r, _ := cmd.Flags().GetString("rules"); r != "" {
		cfg.Rules.Path = r
	}
	return cfg, nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured store path (which TCMDX_DB overrides), then the
// default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.Store.Path != "" {
		return cfg.Store.Path, store.EnsureDir(cfg.Store.Path)
	}
	return store.DefaultDBPath()
}

// openStore opens the configured database.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
