package index

import (
	"container/heap"
	"context"
	"encoding/json"
	"fmt"
	"math"

	domai "github.com/bryanwahyu/contract-sentinel/internal/domain/ai"
	"github.com/bryanwahyu/contract-sentinel/internal/domain/analysis"
	"github.com/bryanwahyu/contract-sentinel/internal/domain/contract"
)

// Builder constructs ephemeral section indexes for analysis runs.
type Builder struct {
	embedder domai.Embedder
}

func NewBuilder(embedder domai.Embedder) *Builder {
	return &Builder{embedder: embedder}
}

var _ analysis.IndexBuilder = (*Builder)(nil)

// unit pairs a normalized embedding with the originating section's serialized
// JSON, so a retrieval hit yields the text and keywords, not just a score.
type unit struct {
	payload string
	vector  []float32
}

// Index is a brute-force in-memory nearest-neighbor structure over a
// document's sections. At contract scale (tens of sections) exact cosine
// search is effectively free; the index lives only for one analysis run.
type Index struct {
	embedder domai.Embedder
	units    []unit
}

// Build flattens the document into one indexed unit per top-level section of
// "content" (nested sub-sections travel inside their parent's serialized
// JSON) and embeds each unit. It implements the analysis.IndexBuilder port.
func (b *Builder) Build(ctx context.Context, doc *contract.StructuredDocument) (analysis.Retriever, error) {
	idx := &Index{embedder: b.embedder}
	if doc == nil || len(doc.Content) == 0 {
		return idx, nil
	}
	payloads := make([]string, 0, len(doc.Content))
	for _, section := range doc.Content {
		data, err := json.Marshal(section)
		if err != nil {
			return nil, fmt.Errorf("serialize section: %w", err)
		}
		payloads = append(payloads, string(data))
	}
	vectors, err := b.embedder.EmbedDocuments(ctx, payloads)
	if err != nil {
		return nil, fmt.Errorf("%w: embed sections: %v", domai.ErrUpstream, err)
	}
	if len(vectors) != len(payloads) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", domai.ErrUpstream, len(payloads), len(vectors))
	}
	idx.units = make([]unit, len(payloads))
	for i, p := range payloads {
		idx.units[i] = unit{payload: p, vector: normalize(vectors[i])}
	}
	return idx, nil
}

// Query returns the k nearest sections to the probe text by cosine
// similarity. All k results are treated as relevant; no score threshold is
// applied.
func (idx *Index) Query(ctx context.Context, probe string, k int) ([]contract.Section, error) {
	if k <= 0 || len(idx.units) == 0 {
		return nil, nil
	}
	qv, err := idx.embedder.EmbedQuery(ctx, probe)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", domai.ErrUpstream, err)
	}
	query := normalize(qv)

	// Min-heap keeps only the running top-k.
	h := &minHeap{}
	heap.Init(h)
	for i, u := range idx.units {
		if len(u.vector) != len(query) {
			continue
		}
		score := dotProduct(query, u.vector)
		if h.Len() < k {
			heap.Push(h, scored{idx: i, score: score})
		} else if score > (*h)[0].score {
			(*h)[0] = scored{idx: i, score: score}
			heap.Fix(h, 0)
		}
	}

	out := make([]contract.Section, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		hit := heap.Pop(h).(scored)
		var section contract.Section
		if err := json.Unmarshal([]byte(idx.units[hit.idx].payload), &section); err != nil {
			return nil, fmt.Errorf("decode indexed section: %w", err)
		}
		out[i] = section
	}
	return out, nil
}

// Len reports the number of indexed units.
func (idx *Index) Len() int { return len(idx.units) }

type scored struct {
	idx   int
	score float64
}

type minHeap []scored

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return h[i].score < h[j].score }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(scored)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// normalize scales v to unit length so dot product equals cosine similarity.
func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	out := make([]float32, len(v))
	if norm == 0 {
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
