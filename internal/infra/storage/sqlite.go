package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"tickstore/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Catalog persists symbol summaries and catalog bookkeeping between
// runs. This is NOT the response cache: consolidated series are never
// written to disk, only their health metadata.
type Catalog struct {
	db *gorm.DB
}

// NewCatalog creates a SQLite-backed catalog ledger. An empty path
// resolves to the OS user config directory.
func NewCatalog(dbPath string) (*Catalog, error) {
	if dbPath == "" {
		resolved, err := defaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve DB path: %w", err)
		}
		dbPath = resolved
	}

	// Ensure directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto Migration
	if err := db.AutoMigrate(&domain.SymbolRecord{}, &domain.CatalogMeta{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Catalog{db: db}, nil
}

// defaultDBPath resolves the database file path based on OS
func defaultDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "tickstore", "data", "catalog.db"), nil
}

// ======================================================================================
// Symbol Operations
// ======================================================================================

// UpsertSymbol creates or updates a symbol's summary record
func (c *Catalog) UpsertSymbol(rec *domain.SymbolRecord) error {
	return c.db.Save(rec).Error
}

// GetSymbol retrieves a symbol record
func (c *Catalog) GetSymbol(symbol string) (*domain.SymbolRecord, error) {
	var rec domain.SymbolRecord
	err := c.db.First(&rec, "symbol = ?", symbol).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	return &rec, err
}

// ListSymbols retrieves all symbol records
func (c *Catalog) ListSymbols() ([]domain.SymbolRecord, error) {
	var recs []domain.SymbolRecord
	err := c.db.Order("symbol").Find(&recs).Error
	return recs, err
}

// DeleteSymbol removes a symbol record from the ledger
func (c *Catalog) DeleteSymbol(symbol string) error {
	return c.db.Where("symbol = ?", symbol).Delete(&domain.SymbolRecord{}).Error
}

// ======================================================================================
// Meta Operations
// ======================================================================================

// SaveMeta saves a catalog-level bookkeeping entry
func (c *Catalog) SaveMeta(key, value string) error {
	meta := domain.CatalogMeta{
		Key:   key,
		Value: value,
	}
	return c.db.Save(&meta).Error
}

// LoadMetaMap loads all bookkeeping entries as a map
func (c *Catalog) LoadMetaMap() (map[string]string, error) {
	var metas []domain.CatalogMeta
	if err := c.db.Find(&metas).Error; err != nil {
		return nil, err
	}

	result := make(map[string]string)
	for _, m := range metas {
		result[m.Key] = m.Value
	}
	return result, nil
}
