package catalog

import "errors"

var (
	// ErrLoad is returned when the schema or the API config cannot be parsed.
	ErrLoad = errors.New("catalog load failed")
	// ErrOperationNotFound is returned by Lookup for unknown operation names.
	ErrOperationNotFound = errors.New("operation not found")
	// ErrTypeNotFound is returned by LookupType for unknown type names.
	ErrTypeNotFound = errors.New("type not found")
)
