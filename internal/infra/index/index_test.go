package index

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/bryanwahyu/contract-sentinel/internal/domain/contract"
)

// stubEmbedder maps exact payloads to fixed vectors.
type stubEmbedder struct {
	vectors map[string][]float32
}

func (e *stubEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, ok := e.vectors[text]
		if !ok {
			return nil, fmt.Errorf("no stub vector for %q", text)
		}
		out[i] = v
	}
	return out, nil
}

func (e *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	v, ok := e.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no stub vector for %q", text)
	}
	return v, nil
}

func payload(t *testing.T, s contract.Section) string {
	t.Helper()
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal section: %v", err)
	}
	return string(data)
}

func TestQueryRanksByCosineSimilarity(t *testing.T) {
	budget := contract.Section{"text": "Budget must not exceed $500."}
	safety := contract.Section{"text": "Hard hats are mandatory on site."}
	schedule := contract.Section{"text": "Work ends before December."}

	embedder := &stubEmbedder{vectors: map[string][]float32{
		payload(t, budget):   {1, 0, 0},
		payload(t, safety):   {0, 1, 0},
		payload(t, schedule): {0, 0, 1},
		"equipment cost":     {0.9, 0.1, 0.1},
	}}

	retriever, err := NewBuilder(embedder).Build(context.Background(), &contract.StructuredDocument{
		Content: []contract.Section{budget, safety, schedule},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	hits, err := retriever.Query(context.Background(), "equipment cost", 2)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Text() != budget.Text() {
		t.Fatalf("nearest hit: %q", hits[0].Text())
	}
}

func TestQueryReturnsAllWhenKExceedsUnits(t *testing.T) {
	only := contract.Section{"text": "Sole condition."}
	embedder := &stubEmbedder{vectors: map[string][]float32{
		payload(t, only): {1, 1},
		"anything":       {1, 0},
	}}

	retriever, err := NewBuilder(embedder).Build(context.Background(), &contract.StructuredDocument{
		Content: []contract.Section{only},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	hits, err := retriever.Query(context.Background(), "anything", 4)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
}

func TestHitsCarryKeywordsAndNestedParts(t *testing.T) {
	section := contract.Section{
		"text":     "Budget must not exceed $500.",
		"keywords": []any{"$500"},
		"sub":      map[string]any{"text": "Includes equipment purchases."},
	}
	embedder := &stubEmbedder{vectors: map[string][]float32{
		payload(t, section): {1, 0},
		"budget":            {1, 0},
	}}

	retriever, err := NewBuilder(embedder).Build(context.Background(), &contract.StructuredDocument{
		Content: []contract.Section{section},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	hits, err := retriever.Query(context.Background(), "budget", 1)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	texts := hits[0].CollectTexts()
	if len(texts) != 2 || texts[0] != "Budget must not exceed $500." || texts[1] != "Includes equipment purchases." {
		t.Fatalf("hit lost nested parts: %v", texts)
	}
	if kw := hits[0].Keywords(); len(kw) != 1 || kw[0] != "$500" {
		t.Fatalf("hit lost keywords: %v", kw)
	}
}

func TestEmptyDocumentBuildsEmptyIndex(t *testing.T) {
	retriever, err := NewBuilder(&stubEmbedder{vectors: map[string][]float32{"q": {1}}}).
		Build(context.Background(), &contract.StructuredDocument{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	hits, err := retriever.Query(context.Background(), "q", 4)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %d", len(hits))
	}
}
