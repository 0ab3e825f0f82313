package cmd

import (
	"fmt"
	"os"

	"bigfiles/internal/store"
)

// openCatalog opens the configured store, creating it if needed.
func openCatalog() (*store.SQLiteStore, error) {
	st, err := store.Open(cfg.Driver, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", cfg.DB, err)
	}
	return st, nil
}

// openExistingCatalog opens the configured store for queries. It refuses to
// create an empty catalog.
func openExistingCatalog() (*store.SQLiteStore, error) {
	if _, err := os.Stat(cfg.DB); os.IsNotExist(err) {
		return nil, fmt.Errorf("catalog not found at %s\nRun 'bigfiles index <path>' first to build it", cfg.DB)
	}
	return openCatalog()
}
