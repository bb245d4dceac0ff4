package contract

import (
	"errors"
	"io"
)

// ErrMalformedDocument indicates an uploaded document could not be parsed.
// Uploads failing with it are rejected before any session state changes.
var ErrMalformedDocument = errors.New("malformed document upload")

// DocumentParser port: turns an uploaded document into paragraph strings.
// Format-specific parsing lives behind this interface.
type DocumentParser interface {
	Parse(r io.Reader) ([]string, error)
}
