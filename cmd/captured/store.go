package main

import (
	"context"

	"github.com/watchloop/observatory/internal/config"
	"github.com/watchloop/observatory/internal/storage"
)

// openStore opens the database at the configured default path for the
// read/maintenance subcommands (ocr, list, search, cleanup, export),
// none of which need the full orchestrator.
func openStore(ctx context.Context) (*storage.Store, error) {
	cfg := config.Load()
	return storage.Open(ctx, cfg.Storage.DatabasePath)
}
