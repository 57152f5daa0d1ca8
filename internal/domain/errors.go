package domain

import "errors"

// RecoverableError defines an interface for per-file errors that a
// multi-file operation may skip instead of aborting
type RecoverableError interface {
	error
	IsRecoverable() bool
}

// IsRecoverable checks if an error may be skipped by a multi-file operation
func IsRecoverable(err error) bool {
	var re RecoverableError
	if errors.As(err, &re) {
		return re.IsRecoverable()
	}
	return false
}

// DecodeError represents a per-file decode failure. Recoverable: the
// loader skips the file and continues with the remaining ones.
type DecodeError struct {
	Path string // File that failed to decode
	Err  error  // Underlying error
}

func (e *DecodeError) Error() string {
	return "decode " + e.Path + ": " + e.Err.Error()
}

func (e *DecodeError) IsRecoverable() bool {
	return true
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewDecodeError creates a decode error for a file
func NewDecodeError(path string, err error) *DecodeError {
	return &DecodeError{Path: path, Err: err}
}

// FilenameParseError represents a data file whose name does not follow
// the SYMBOL_<partition-suffix> convention. Recoverable: the index
// excludes the file from every symbol.
type FilenameParseError struct {
	Name string
}

func (e *FilenameParseError) Error() string {
	return "unrecognized data file name: " + e.Name
}

func (e *FilenameParseError) IsRecoverable() bool {
	return true
}

// NoDataError is returned when a symbol has zero usable files, either
// because none exist or because every file failed to decode
type NoDataError struct {
	Symbol string
}

func (e *NoDataError) Error() string {
	return "no data found for symbol " + e.Symbol
}

func (e *NoDataError) IsRecoverable() bool {
	return false
}

func (e *NoDataError) Unwrap() error {
	return ErrNoData
}

// DirectoryNotFoundError is returned at index construction when the
// configured data directory does not exist
type DirectoryNotFoundError struct {
	Dir string
}

func (e *DirectoryNotFoundError) Error() string {
	return "data directory not found: " + e.Dir
}

func (e *DirectoryNotFoundError) IsRecoverable() bool {
	return false
}

func (e *DirectoryNotFoundError) Unwrap() error {
	return ErrDirectoryNotFound
}

var (
	// ErrNoData is the sentinel wrapped by NoDataError
	ErrNoData = errors.New("no data found")

	// ErrDirectoryNotFound is the sentinel wrapped by DirectoryNotFoundError
	ErrDirectoryNotFound = errors.New("data directory not found")

	// ErrEmptyKey is returned when a cache lookup is attempted with an empty symbol
	ErrEmptyKey = errors.New("empty cache key")
)
