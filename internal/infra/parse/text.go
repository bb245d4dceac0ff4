package parse

import (
	"fmt"
	"io"
	"strings"

	"github.com/bryanwahyu/contract-sentinel/internal/domain/contract"
)

// TextDocumentParser reads a plain-text document and splits it into
// paragraphs on blank lines. It implements the contract.DocumentParser port.
type TextDocumentParser struct{}

var _ contract.DocumentParser = TextDocumentParser{}

func (TextDocumentParser) Parse(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contract.ErrMalformedDocument, err)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	var paragraphs []string
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			paragraphs = append(paragraphs, block)
		}
	}
	if len(paragraphs) == 0 {
		return nil, fmt.Errorf("%w: document has no text", contract.ErrMalformedDocument)
	}
	return paragraphs, nil
}
