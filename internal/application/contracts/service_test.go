package contracts

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	domai "github.com/bryanwahyu/contract-sentinel/internal/domain/ai"
	"github.com/bryanwahyu/contract-sentinel/internal/infra/cache"
	"github.com/bryanwahyu/contract-sentinel/internal/infra/parse"
	"github.com/bryanwahyu/contract-sentinel/internal/session"
)

// fakeExtractor returns scripted payloads and counts upstream calls.
type fakeExtractor struct {
	structure     string
	structureErr  error
	keywords      string
	structureCall int
	keywordCalls  int
}

func (f *fakeExtractor) ExtractStructure(ctx context.Context, text string) (string, error) {
	f.structureCall++
	if f.structureErr != nil {
		return "", f.structureErr
	}
	return f.structure, nil
}

func (f *fakeExtractor) ExtractKeywords(ctx context.Context, text string) (string, error) {
	f.keywordCalls++
	return f.keywords, nil
}

func newService(t *testing.T, extractor *fakeExtractor) *Service {
	t.Helper()
	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.json"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	return &Service{
		Extractor: extractor,
		Cache:     store,
		Parser:    parse.TextDocumentParser{},
		Session:   session.NewManager(),
	}
}

func TestExtractStructureIsIdempotent(t *testing.T) {
	extractor := &fakeExtractor{structure: `{"content":[{"text":"Budget must not exceed $500."}]}`}
	svc := newService(t, extractor)

	doc1, _, err := svc.ExtractStructure(context.Background(), "Budget must not exceed $500.")
	if err != nil {
		t.Fatalf("first extract: %v", err)
	}
	doc2, _, err := svc.ExtractStructure(context.Background(), "Budget must not exceed $500.")
	if err != nil {
		t.Fatalf("second extract: %v", err)
	}

	if extractor.structureCall != 1 {
		t.Fatalf("upstream called %d times, want 1", extractor.structureCall)
	}
	if doc1.Content[0].Text() != doc2.Content[0].Text() {
		t.Fatalf("cache replay diverged")
	}
}

func TestExtractStructureRejectsMissingEnvelope(t *testing.T) {
	extractor := &fakeExtractor{structure: `{"sections":[]}`}
	svc := newService(t, extractor)

	_, _, err := svc.ExtractStructure(context.Background(), "some text")
	if !errors.Is(err, domai.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if svc.Cache.Len() != 0 {
		t.Fatalf("malformed payload was cached")
	}

	// A later call must retry upstream, not replay the failure.
	if _, _, err := svc.ExtractStructure(context.Background(), "some text"); err == nil {
		t.Fatalf("expected error on retry with same payload")
	}
	if extractor.structureCall != 2 {
		t.Fatalf("upstream called %d times, want 2", extractor.structureCall)
	}
}

func TestUploadDocumentInstallsSessionDocument(t *testing.T) {
	extractor := &fakeExtractor{structure: `{"content":[{"text":"Budget must not exceed $500."}]}`}
	svc := newService(t, extractor)

	doc, raw, err := svc.UploadDocument(context.Background(), strings.NewReader("Budget must not exceed $500."))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if raw != extractor.structure {
		t.Fatalf("raw payload %q", raw)
	}
	if len(doc.Content) != 1 {
		t.Fatalf("structured doc lost content")
	}

	// Document installed, table still missing.
	if _, _, err := svc.Session.Snapshot(); !errors.Is(err, session.ErrNoTable) {
		t.Fatalf("snapshot: %v", err)
	}
}

func TestUploadDocumentFailureLeavesSessionUnchanged(t *testing.T) {
	extractor := &fakeExtractor{structureErr: domai.ErrUpstream}
	svc := newService(t, extractor)

	if _, _, err := svc.UploadDocument(context.Background(), strings.NewReader("some contract")); err == nil {
		t.Fatalf("expected upstream error")
	}
	if _, _, err := svc.Session.Snapshot(); !errors.Is(err, session.ErrNoDocument) {
		t.Fatalf("failed upload installed a document: %v", err)
	}
}

func TestUploadDocumentRejectsEmptyUpload(t *testing.T) {
	extractor := &fakeExtractor{structure: `{"content":[]}`}
	svc := newService(t, extractor)

	if _, _, err := svc.UploadDocument(context.Background(), strings.NewReader("   \n\n  ")); err == nil {
		t.Fatalf("expected validation error for empty document")
	}
	if extractor.structureCall != 0 {
		t.Fatalf("upstream called for an unparseable upload")
	}
}

func TestKeywordsMemoizedInProcess(t *testing.T) {
	extractor := &fakeExtractor{keywords: `{"keywords":["budget",500]}`}
	svc := newService(t, extractor)

	first, err := svc.Keywords(context.Background(), "Budget is $500.")
	if err != nil {
		t.Fatalf("keywords: %v", err)
	}
	if len(first) != 2 || first[0] != "budget" || first[1] != "500" {
		t.Fatalf("keywords: %v", first)
	}

	if _, err := svc.Keywords(context.Background(), "Budget is $500."); err != nil {
		t.Fatalf("second keywords: %v", err)
	}
	if extractor.keywordCalls != 1 {
		t.Fatalf("upstream called %d times, want 1", extractor.keywordCalls)
	}
	// The durable cache is reserved for structuring and judgment results.
	if svc.Cache.Len() != 0 {
		t.Fatalf("keywords leaked into durable cache")
	}
}

func TestKeywordsRejectsMissingEnvelope(t *testing.T) {
	extractor := &fakeExtractor{keywords: `{"terms":[]}`}
	svc := newService(t, extractor)

	if _, err := svc.Keywords(context.Background(), "text"); !errors.Is(err, domai.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}
