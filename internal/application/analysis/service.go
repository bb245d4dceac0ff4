package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	domai "github.com/bryanwahyu/contract-sentinel/internal/domain/ai"
	"github.com/bryanwahyu/contract-sentinel/internal/domain/analysis"
	"github.com/bryanwahyu/contract-sentinel/internal/domain/contract"
	"github.com/bryanwahyu/contract-sentinel/internal/domain/tasks"
	"github.com/bryanwahyu/contract-sentinel/internal/infra/cache"
	"github.com/bryanwahyu/contract-sentinel/internal/middleware"
)

const defaultTopK = 4

// Service runs compliance analysis over the current session's document and
// table. Rows are processed strictly sequentially: a row's answer is fully
// aggregated and cached before the next row starts.
type Service struct {
	Builder analysis.IndexBuilder
	Judge   domai.Judge
	Cache   *cache.Store
	TopK    int // retrieval depth per field value; defaultTopK when zero
}

// Run builds a fresh section index over doc, then analyzes each table row,
// emitting the append-only event log through emit. Per-row upstream failures
// are surfaced as error events and do not abort the run; only emitter
// failures (client gone) do. The run always ends with the end-of-stream
// sentinel unless the emitter itself failed.
func (s *Service) Run(ctx context.Context, doc *contract.StructuredDocument, table []tasks.Row, emit analysis.Emitter) error {
	retriever, err := s.Builder.Build(ctx, doc)
	if err != nil {
		return err
	}

	for _, row := range table {
		if err := s.runRow(ctx, retriever, row, emit); err != nil {
			return err
		}
	}
	return emit(analysis.Event{Kind: analysis.EventEnd, Payload: analysis.EndToken})
}

// runRow walks one row through retrieval, dedup, cache lookup, streaming
// judgment and emission. The returned error is an emitter error only.
func (s *Service) runRow(ctx context.Context, retriever analysis.Retriever, row tasks.Row, emit analysis.Emitter) error {
	rowJSON, err := json.Marshal(row)
	if err != nil {
		rowJSON = []byte("{}")
	}
	if err := emit(analysis.Event{Kind: analysis.EventRow, Payload: string(rowJSON)}); err != nil {
		return err
	}

	conditions, err := s.retrieve(ctx, retriever, row)
	if err != nil {
		return emitRowFailure(emit, err)
	}

	key := CompositeKey(conditions, row)
	if answer, ok := s.Cache.Get(key); ok {
		middleware.IncrementCacheHits()
		// Replay verbatim. The cache-hit path emits no delimiter.
		return emit(analysis.Event{Kind: analysis.EventAnswer, Payload: answer})
	}
	middleware.IncrementCacheMisses()

	answer, err := s.judge(ctx, row, conditions)
	if err != nil {
		// Nothing was cached for this row; a later run retries it cleanly.
		return emitRowFailure(emit, err)
	}
	if err := s.Cache.Put(key, answer); err != nil {
		return emitRowFailure(emit, err)
	}

	if err := emit(analysis.Event{Kind: analysis.EventAnswer, Payload: answer}); err != nil {
		return err
	}
	return emit(analysis.Event{Kind: analysis.EventDelimiter, Payload: analysis.DelimiterToken})
}

// retrieve queries the index once per field value and collects the text of
// every hit, including the text of nested sub-sections, into a deduplicated,
// lexicographically sorted condition list.
func (s *Service) retrieve(ctx context.Context, retriever analysis.Retriever, row tasks.Row) ([]string, error) {
	k := s.TopK
	if k <= 0 {
		k = defaultTopK
	}
	seen := make(map[string]struct{})
	for _, probe := range row.FieldValues() {
		hits, err := retriever.Query(ctx, probe, k)
		if err != nil {
			return nil, err
		}
		for _, hit := range hits {
			for _, text := range hit.CollectTexts() {
				seen[text] = struct{}{}
			}
		}
	}
	conditions := make([]string, 0, len(seen))
	for text := range seen {
		conditions = append(conditions, text)
	}
	sort.Strings(conditions)
	return conditions, nil
}

// judge streams the compliance judgment for one row and reassembles the
// chunks into the full answer. A mid-stream failure discards the partial
// accumulation entirely.
func (s *Service) judge(ctx context.Context, row tasks.Row, conditions []string) (string, error) {
	stream, err := s.Judge.JudgeCompliance(ctx, row.Canonical(), conditions)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var b strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return b.String(), nil
		}
		if err != nil {
			return "", err
		}
		b.WriteString(chunk)
	}
}

// CompositeKey builds the cache key for a row's compliance answer from the
// canonical condition list and the row's own canonical representation. Two
// retrieval runs returning the same condition set in any order produce the
// same key.
func CompositeKey(conditions []string, row tasks.Row) string {
	return strings.Join(conditions, "\n") + "\n||\n" + row.Canonical()
}

// emitRowFailure reports a failed row and closes it with a delimiter so the
// next row starts on a clean boundary.
func emitRowFailure(emit analysis.Emitter, cause error) error {
	payload := fmt.Sprintf("error: %v", cause)
	if err := emit(analysis.Event{Kind: analysis.EventError, Payload: payload}); err != nil {
		return err
	}
	return emit(analysis.Event{Kind: analysis.EventDelimiter, Payload: analysis.DelimiterToken})
}
