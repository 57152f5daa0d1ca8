package fsindex

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tickstore/internal/domain"
)

// Index maps symbol names to their partitioned data files by scanning a
// directory of {SYMBOL}_{partition-suffix}{ext} files. The directory is
// re-read on every call; it may change between requests.
type Index struct {
	dir string
	ext string
	log *slog.Logger
}

// New creates an index over dir. It fails with DirectoryNotFoundError
// when the directory does not exist.
func New(dir, ext string, log *slog.Logger) (*Index, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, &domain.DirectoryNotFoundError{Dir: dir}
	}

	if ext == "" {
		ext = ".parquet"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if log == nil {
		log = slog.Default()
	}

	return &Index{dir: dir, ext: ext, log: log}, nil
}

// Resolve returns the handles backing a symbol, sorted by filename.
// The partition suffix is a fixed-width date-time string, so
// lexicographic order is chronological order.
func (ix *Index) Resolve(symbol string) ([]domain.FileHandle, error) {
	pattern := filepath.Join(ix.dir, symbol+"_*"+ix.ext)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	handles := make([]domain.FileHandle, 0, len(matches))
	for _, path := range matches {
		name := filepath.Base(path)
		sym, partition, perr := parseName(name, ix.ext)
		if perr != nil || sym != symbol {
			ix.log.Warn("skipping unparsable data file", slog.String("file", name))
			continue
		}

		info, serr := os.Stat(path)
		if serr != nil {
			ix.log.Warn("skipping unreadable data file", slog.String("file", name), slog.Any("error", serr))
			continue
		}

		handles = append(handles, domain.FileHandle{
			Path:         path,
			Symbol:       sym,
			PartitionKey: partition,
			Size:         info.Size(),
		})
	}

	return handles, nil
}

// ListSymbols returns the distinct leading tokens across all matched
// files, sorted alphabetically. Files whose names do not follow the
// naming convention are excluded with a diagnostic.
func (ix *Index) ListSymbols() ([]string, error) {
	entries, err := os.ReadDir(ix.dir)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ix.ext) {
			continue
		}

		sym, _, perr := parseName(entry.Name(), ix.ext)
		if perr != nil {
			ix.log.Warn("skipping unparsable data file", slog.String("file", entry.Name()))
			continue
		}
		seen[sym] = true
	}

	symbols := make([]string, 0, len(seen))
	for sym := range seen {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	return symbols, nil
}

// parseName splits a data file name into its symbol and partition
// suffix. Names need at least two underscore-separated parts.
func parseName(name, ext string) (symbol, partition string, err error) {
	stem := strings.TrimSuffix(name, ext)
	parts := strings.SplitN(stem, "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", &domain.FilenameParseError{Name: name}
	}
	return parts[0], parts[1], nil
}
