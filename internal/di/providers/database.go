package providers

import (
	"context"
	"log/slog"

	"github.com/samber/do/v2"

	"librarycatalog/internal/config"
	"librarycatalog/internal/store"
)

// StoreHandle wraps the catalog backend with shutdown capability.
type StoreHandle struct {
	store.Catalog
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the backend named by STORE_DRIVER.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	catalog, err := store.Open(context.Background(), *cfg, log)
	if err != nil {
		return nil, err
	}
	return &StoreHandle{Catalog: catalog}, nil
}
