package cmd

import (
	"fmt"
	"os"
	"time"

	"bigfiles/internal/index"

	"github.com/spf13/cobra"
)

var (
	flagPrune    string
	flagExclude  []string
	flagProgress bool
)

var indexCmd = &cobra.Command{
	Use:   "index <path>",
	Short: "Catalog every file under a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prune := cfg.Prune
		if cmd.Flags().Changed("prune") {
			prune = flagPrune
		}
		policy, err := index.ParsePrunePolicy(prune)
		if err != nil {
			return err
		}
		exclude := cfg.Exclude
		if cmd.Flags().Changed("exclude") {
			exclude = flagExclude
		}

		st, err := openCatalog()
		if err != nil {
			return err
		}
		defer st.Close()

		icfg := index.Config{
			Exclude: exclude,
			Prune:   policy,
		}
		if flagProgress {
			icfg.CountFirst = true
			icfg.OnProgress = func(indexed, total int) {
				fmt.Fprintf(os.Stderr, "\r  %d / %d files", indexed, total)
			}
		}

		fmt.Printf("Indexing %s...\n", args[0])
		start := time.Now()

		stats, err := index.New(st, icfg).Index(cmd.Context(), args[0])
		elapsed := time.Since(start)
		if flagProgress {
			fmt.Fprintln(os.Stderr)
		}

		if stats != nil {
			fmt.Printf("\nDone in %s\n", elapsed.Round(time.Millisecond))
			fmt.Printf("  Files:    %d indexed, %d skipped\n", stats.FilesIndexed, stats.FilesSkipped)
			if len(stats.Warnings) > 0 {
				fmt.Printf("  Warnings: %d (paths that could not be read)\n", len(stats.Warnings))
			}
			if policy == index.PruneSweep {
				fmt.Printf("  Pruned:   %d stale records\n", stats.Pruned)
			}
		}
		if err != nil {
			return fmt.Errorf("indexing %s: %w", args[0], err)
		}
		fmt.Println("Indexing completed.")
		return nil
	},
}

func init() {
	indexCmd.Flags().StringVar(&flagPrune, "prune", "keep", "stale record policy: keep or sweep")
	indexCmd.Flags().StringSliceVar(&flagExclude, "exclude", nil, "directory names or globs to skip (repeatable)")
	indexCmd.Flags().BoolVar(&flagProgress, "progress", false, "count files first and show progress")
	rootCmd.AddCommand(indexCmd)
}
