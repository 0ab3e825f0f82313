package cmd

import (
	"fmt"
	"os"

	"bigfiles/internal/query"
	"bigfiles/internal/render"

	"github.com/spf13/cobra"
)

var (
	flagPaths bool
	flagLimit int
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "List files sharing the same name and size",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openExistingCatalog()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		engine := query.New(st)
		groups, err := engine.FindDuplicates(ctx)
		if err != nil {
			return err
		}

		var paths [][]string
		if flagPaths {
			paths = make([][]string, len(groups))
			for i, g := range groups {
				if paths[i], err = engine.DuplicatePaths(ctx, g); err != nil {
					return err
				}
			}
		}
		return render.Duplicates(os.Stdout, groups, paths)
	},
}

var largefilesCmd = &cobra.Command{
	Use:   "largefiles",
	Short: "List the largest files in the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit := cfg.Limit
		if cmd.Flags().Changed("limit") {
			limit = flagLimit
		}

		st, err := openExistingCatalog()
		if err != nil {
			return err
		}
		defer st.Close()

		files, err := query.New(st).FindLargest(cmd.Context(), limit)
		if err != nil {
			return err
		}
		return render.Largest(os.Stdout, files)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog totals and the most common extensions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openExistingCatalog()
		if err != nil {
			return err
		}
		defer st.Close()

		engine := query.New(st)
		status, err := engine.Status(cmd.Context())
		if err != nil {
			return err
		}
		sum, err := engine.Summary(cmd.Context(), query.DefaultTopExtensions)
		if err != nil {
			return err
		}

		fmt.Printf("Catalog: %s (%s)\n", st.Path(), st.Driver())
		if status.LastRoot != "" {
			fmt.Printf("Last indexed: %s at %s\n", status.LastRoot, status.LastIndexed)
		}
		return render.Summary(os.Stdout, sum)
	},
}

func init() {
	duplicatesCmd.Flags().BoolVar(&flagPaths, "paths", false, "list the paths in every group")
	largefilesCmd.Flags().IntVarP(&flagLimit, "limit", "n", query.DefaultLimit, "number of files to list")
	rootCmd.AddCommand(duplicatesCmd, largefilesCmd, statsCmd)
}
