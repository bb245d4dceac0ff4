package parse

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bryanwahyu/contract-sentinel/internal/domain/tasks"
)

// CSVTableParser reads a CSV table whose first record names the fields.
// Numeric cells become float64 so cost estimates keep their numeric shape.
// It implements the tasks.TableParser port.
type CSVTableParser struct{}

var _ tasks.TableParser = CSVTableParser{}

func (CSVTableParser) Parse(r io.Reader) ([]tasks.Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: table has no header row", tasks.ErrMalformedTable)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tasks.ErrMalformedTable, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	// Header-only input is a valid, empty table; never return a nil slice.
	rows := []tasks.Row{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", tasks.ErrMalformedTable, err)
		}
		row := make(tasks.Row, len(header))
		for i, field := range header {
			if i >= len(record) {
				break
			}
			row[field] = cellValue(record[i])
		}
		rows = append(rows, row)
	}
}

func cellValue(s string) any {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	return s
}
