package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var flagYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every record from the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !flagYes {
			return errors.New("reset deletes every record; pass --yes to confirm")
		}
		st, err := openExistingCatalog()
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := st.Count(cmd.Context())
		if err != nil {
			return err
		}
		if err := st.DeleteAll(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("Removed %d records from %s\n", n, st.Path())
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&flagYes, "yes", false, "confirm deleting every record")
	rootCmd.AddCommand(resetCmd)
}
