package contracts

import (
	"encoding/json"
	"fmt"

	domai "github.com/bryanwahyu/contract-sentinel/internal/domain/ai"
	"github.com/bryanwahyu/contract-sentinel/internal/domain/contract"
)

// decodeKeywords validates the {"keywords": [...]} envelope of a keyword
// extraction payload.
func decodeKeywords(raw string) ([]string, error) {
	var envelope map[string]any
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, fmt.Errorf("%w: keywords payload is not a JSON object: %v", domai.ErrUpstream, err)
	}
	if _, ok := envelope["keywords"]; !ok {
		return nil, fmt.Errorf(`%w: keywords payload is missing the "keywords" key`, domai.ErrUpstream)
	}
	return contract.Section(envelope).Keywords(), nil
}
