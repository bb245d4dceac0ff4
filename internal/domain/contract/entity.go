package contract

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Section is one addressable unit of a structured contract document. The
// reasoning service decides its exact shape, so it stays loosely typed: a
// "text" key carries the original wording, a "keywords" key carries derived
// annotations, and any other key may hold a nested sub-section or a list of
// sub-sections.
type Section map[string]any

// StructuredDocument is the hierarchical representation produced by
// structure extraction. "content" is the mandatory envelope key.
type StructuredDocument struct {
	Content []Section `json:"content"`
}

// Text returns the section's own original text, if present.
func (s Section) Text() string {
	if v, ok := s["text"].(string); ok {
		return v
	}
	return ""
}

// Keywords returns the derived keyword annotations. Money sums may come back
// as numbers, so every entry is stringified.
func (s Section) Keywords() []string {
	raw, ok := s["keywords"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if str, ok := v.(string); ok {
			out = append(out, str)
		} else {
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}

// CollectTexts returns the section's own text followed by the text of every
// nested sub-section, however deep the nesting goes. Keys are walked in
// sorted order so the result is deterministic; callers that need a canonical
// set dedupe and sort afterwards anyway. Empty texts are skipped.
func (s Section) CollectTexts() []string {
	var out []string
	if t := s.Text(); t != "" {
		out = append(out, t)
	}
	keys := make([]string, 0, len(s))
	for k := range s {
		if k == "text" || k == "keywords" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, collectFromValue(s[k])...)
	}
	return out
}

func collectFromValue(v any) []string {
	switch vv := v.(type) {
	case map[string]any:
		return Section(vv).CollectTexts()
	case []any:
		var out []string
		for _, item := range vv {
			out = append(out, collectFromValue(item)...)
		}
		return out
	default:
		return nil
	}
}

// DecodeDocument parses raw extraction output and validates the "content"
// envelope. It fails fast rather than wrapping a bare payload.
func DecodeDocument(raw string) (*StructuredDocument, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, fmt.Errorf("structured document is not a JSON object: %w", err)
	}
	content, ok := envelope["content"]
	if !ok {
		return nil, fmt.Errorf(`structured document is missing the "content" key`)
	}
	var doc StructuredDocument
	if err := json.Unmarshal(content, &doc.Content); err != nil {
		return nil, fmt.Errorf(`"content" is not a list of sections: %w`, err)
	}
	return &doc, nil
}
