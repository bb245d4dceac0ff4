package tasks

import (
	"errors"
	"io"
)

// ErrMalformedTable indicates an uploaded table could not be parsed.
var ErrMalformedTable = errors.New("malformed table upload")

// TableParser port: turns an uploaded spreadsheet into ordered rows.
type TableParser interface {
	Parse(r io.Reader) ([]Row, error)
}
