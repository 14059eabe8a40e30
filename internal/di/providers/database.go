package providers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/chrisbillows/readwise-local-plus/internal/config"
	"github.com/chrisbillows/readwise-local-plus/internal/logger"
	"github.com/chrisbillows/readwise-local-plus/internal/store/sqlite"
)

// StoreHandle wraps the SQLite store for lifecycle management.
type StoreHandle struct {
	Store *sqlite.Store
}

// Shutdown closes the database.
func (h *StoreHandle) Shutdown() error {
	return h.Store.Close()
}

// ProvideStore opens the SQLite store, creating the data directory if needed.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(filepath.Dir(cfg.Data.DatabasePath), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s, err := sqlite.Open(cfg.Data.DatabasePath, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	log.Info("Database opened", "path", cfg.Data.DatabasePath)

	return &StoreHandle{Store: s}, nil
}
