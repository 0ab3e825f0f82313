package cmd

import (
	"fmt"

	"bigfiles/internal/query"
	"bigfiles/internal/report"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var (
	flagRaw    bool
	flagGroups int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a Markdown report of duplicates, large files and extensions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openExistingCatalog()
		if err != nil {
			return err
		}
		defer st.Close()

		opts := report.Options{Largest: cfg.Limit, Groups: flagGroups}
		md, err := report.Build(cmd.Context(), query.New(st), opts)
		if err != nil {
			return err
		}
		if flagRaw {
			fmt.Print(md)
			return nil
		}

		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(120),
		)
		if err != nil {
			return fmt.Errorf("markdown renderer: %w", err)
		}
		out, err := r.Render(md)
		if err != nil {
			return fmt.Errorf("render report: %w", err)
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	reportCmd.Flags().BoolVar(&flagRaw, "raw", false, "print Markdown without terminal styling")
	reportCmd.Flags().IntVar(&flagGroups, "groups", report.DefaultOptions.Groups, "duplicate groups to list with paths")
	rootCmd.AddCommand(reportCmd)
}
