package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"bigfiles/internal/config"

	"github.com/mordilloSan/go-logger/logger"
	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagDB      string
	flagDriver  string
	flagVerbose bool

	// cfg is the merged configuration, loaded before every command runs.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "bigfiles",
	Short: "Catalog files into a local index and find duplicates and large files",
	Long: `bigfiles walks a directory tree into a SQLite catalog, then answers two
questions from it: which files are probably duplicates (same name and size)
and which files are the largest.

Run without a subcommand for the interactive browser.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context())
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ./"+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "catalog database path (default ./bigfiles.db)")
	rootCmd.PersistentFlags().StringVar(&flagDriver, "driver", "", "sqlite driver: sqlite3 (cgo) or sqlite (pure Go)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	path, optional := flagConfig, false
	if path == "" {
		path, optional = config.DefaultFile, true
	}
	loaded, err := config.Load(path, optional)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		loaded.DB = flagDB
	}
	if flags.Changed("driver") {
		loaded.Driver = flagDriver
	}
	if flags.Changed("verbose") {
		loaded.Verbose = flagVerbose
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	levels := []logger.Level{logger.InfoLevel, logger.WarnLevel, logger.ErrorLevel}
	if cfg.Verbose {
		levels = logger.AllLevels()
	}
	logger.Init(logger.Config{Levels: levels})
	return nil
}
