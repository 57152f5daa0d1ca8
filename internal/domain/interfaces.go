package domain

// TickReader defines the columnar file decode capability. The services
// treat the codec as an opaque collaborator.
type TickReader interface {
	Decode(path string) (*TickSeries, error)
}

// FileResolver defines how symbols map to their backing data files
type FileResolver interface {
	Resolve(symbol string) ([]FileHandle, error)
	ListSymbols() ([]string, error)
}

// CatalogStore defines the optional persistence ledger for symbol summaries
type CatalogStore interface {
	UpsertSymbol(rec *SymbolRecord) error
	GetSymbol(symbol string) (*SymbolRecord, error)
	ListSymbols() ([]SymbolRecord, error)
	SaveMeta(key, value string) error
}
