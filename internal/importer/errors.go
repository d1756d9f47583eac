package importer

import "errors"

// Run-level failures. Any of these aborts the remaining work and rolls back
// every write made inside the run; partial state is never visible to readers
// of the store. Callers classify with errors.Is.
var (
	// ErrSourceNotFound means the catalog file does not exist.
	ErrSourceNotFound = errors.New("source file not found")

	// ErrSourceUnreadable means the source could not be opened or read.
	ErrSourceUnreadable = errors.New("source not readable")

	// ErrInvalidHeader means the first record is missing or does not have
	// the expected column count. Nothing is written in this case.
	ErrInvalidHeader = errors.New("invalid header row")

	// ErrNoProductsResolved means the product phase left no handles to
	// attach variants to, typically because every data row was corrupted.
	ErrNoProductsResolved = errors.New("no products resolved")

	// ErrMalformedRecord means a buffered record could not be projected
	// onto the flush statement's column set.
	ErrMalformedRecord = errors.New("malformed batch record")

	// ErrStorageWrite wraps any failure talking to the store after the
	// transaction has begun.
	ErrStorageWrite = errors.New("storage write failed")
)
