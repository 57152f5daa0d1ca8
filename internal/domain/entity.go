package domain

import (
	"time"
)

// SymbolRecord persists the latest catalog summary for a symbol, so
// dataset health can be inspected between runs without a re-scan
type SymbolRecord struct {
	Symbol         string    `gorm:"primaryKey" json:"symbol"`
	FileCount      int       `json:"file_count"`
	TickCount      int       `json:"tick_count" gorm:"index"`
	TotalBytes     int64     `json:"total_bytes"`
	FirstTick      time.Time `json:"first_tick"`
	LastTick       time.Time `json:"last_tick"`
	TickRatePerSec float64   `json:"tick_rate_per_sec"`
	DescribedAt    time.Time `json:"described_at"` // Last successful describe pass
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CatalogMeta represents catalog-level bookkeeping (Key-Value)
type CatalogMeta struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
