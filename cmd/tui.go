package cmd

import (
	"context"
	"os"

	"bigfiles/internal/index"
	"bigfiles/internal/tui"

	"github.com/mordilloSan/go-logger/logger"
)

func runTUI(ctx context.Context) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	prune, err := index.ParsePrunePolicy(cfg.Prune)
	if err != nil {
		return err
	}

	st, err := openCatalog()
	if err != nil {
		return err
	}
	defer st.Close()

	// The alternate screen owns stdout; indexing warnings are shown in the view.
	logger.Init(logger.Config{Levels: []logger.Level{logger.ErrorLevel}})

	return tui.Run(ctx, st, tui.Config{
		Root:    wd,
		Limit:   cfg.Limit,
		Exclude: cfg.Exclude,
		Prune:   prune,
	})
}
