package app

import (
	"log/slog"

	"tickstore/internal/cache"
	"tickstore/internal/domain"
	"tickstore/internal/infra"
	"tickstore/internal/infra/fsindex"
	"tickstore/internal/infra/parquet"
	"tickstore/internal/infra/storage"
	"tickstore/internal/service"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config  *infra.Config
	Store   *storage.Catalog // nil unless catalog persistence is enabled
	Cache   *cache.Cache     // nil when caching is disabled
	Loader  *service.Loader
	Catalog *service.Catalog
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger,
// ledger, services)
func (b *Bootstrap) Initialize(configPath string) error {
	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Catalog ledger (optional)
	var store domain.CatalogStore
	if cfg.Catalog.Persist {
		ledger, err := storage.NewCatalog(cfg.Catalog.DBPath)
		if err != nil {
			return err
		}
		b.Store = ledger
		store = ledger
		slog.Info("catalog ledger initialized")
	}

	// 4. Data directory index and reader
	index, err := fsindex.New(cfg.Data.Dir, cfg.Data.Extension, logger)
	if err != nil {
		return err
	}
	reader := parquet.NewReader(logger)

	// 5. Services
	if cfg.Cache.Enabled {
		b.Cache = cache.New(infra.GlobalMetrics)
	}
	b.Loader = service.NewLoader(index, reader, b.Cache, cfg.Data.DecodeConcurrency, logger)
	b.Catalog = service.NewCatalog(index, reader, store, cfg.Data.DecodeConcurrency, logger)

	slog.Info("tickstore initialized",
		slog.String("dir", cfg.Data.Dir),
		slog.String("extension", cfg.Data.Extension),
		slog.Bool("cache", cfg.Cache.Enabled))

	return nil
}
