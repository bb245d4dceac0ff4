package contract

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestDecodeDocumentValidEnvelope(t *testing.T) {
	raw := `{"content":[{"text":"Budget must not exceed $500.","keywords":["$500","budget"]}]}`
	doc, err := DecodeDocument(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Content) != 1 {
		t.Fatalf("expected 1 section, got %d", len(doc.Content))
	}
	if got := doc.Content[0].Text(); got != "Budget must not exceed $500." {
		t.Fatalf("text: %q", got)
	}
	if got := doc.Content[0].Keywords(); !reflect.DeepEqual(got, []string{"$500", "budget"}) {
		t.Fatalf("keywords: %v", got)
	}
}

func TestDecodeDocumentMissingContentKey(t *testing.T) {
	if _, err := DecodeDocument(`{"sections":[]}`); err == nil {
		t.Fatalf("expected error for missing content key")
	}
}

func TestDecodeDocumentNotAnObject(t *testing.T) {
	if _, err := DecodeDocument(`["just","a","list"]`); err == nil {
		t.Fatalf("expected error for non-object payload")
	}
}

func TestKeywordsStringifiesNumbers(t *testing.T) {
	var s Section
	if err := json.Unmarshal([]byte(`{"keywords":["budget",500]}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := s.Keywords()
	if !reflect.DeepEqual(got, []string{"budget", "500"}) {
		t.Fatalf("keywords: %v", got)
	}
}

func TestCollectTextsRecursesNestedSections(t *testing.T) {
	raw := `{
		"text": "General provisions.",
		"keywords": ["general"],
		"payment": {"text": "Payment within 30 days.", "late": {"text": "Late fee is 2%."}},
		"scope": [
			{"text": "Only construction work."},
			{"text": "No subcontracting.", "detail": [{"text": "Except with written consent."}]}
		]
	}`
	var s Section
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got := s.CollectTexts()
	want := []string{
		"General provisions.",
		"Payment within 30 days.",
		"Late fee is 2%.",
		"Only construction work.",
		"No subcontracting.",
		"Except with written consent.",
	}
	if len(got) != len(want) {
		t.Fatalf("collected %d texts, want %d: %v", len(got), len(want), got)
	}
	seen := make(map[string]bool, len(got))
	for _, text := range got {
		seen[text] = true
	}
	for _, text := range want {
		if !seen[text] {
			t.Fatalf("missing nested text %q in %v", text, got)
		}
	}
	if got[0] != "General provisions." {
		t.Fatalf("own text must come first, got %q", got[0])
	}
}

func TestCollectTextsSkipsEmptyAndKeywords(t *testing.T) {
	var s Section
	if err := json.Unmarshal([]byte(`{"keywords":["a","b"],"sub":{"text":""}}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := s.CollectTexts(); len(got) != 0 {
		t.Fatalf("expected no texts, got %v", got)
	}
}
