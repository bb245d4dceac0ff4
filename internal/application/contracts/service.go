package contracts

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	domai "github.com/bryanwahyu/contract-sentinel/internal/domain/ai"
	"github.com/bryanwahyu/contract-sentinel/internal/domain/contract"
	"github.com/bryanwahyu/contract-sentinel/internal/infra/cache"
	"github.com/bryanwahyu/contract-sentinel/internal/middleware"
	"github.com/bryanwahyu/contract-sentinel/internal/session"
)

// ArtifactStore port: archive of uploaded and derived artifacts.
type ArtifactStore interface {
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Service implements the document upload and structure extraction use-cases.
type Service struct {
	Extractor domai.Extractor
	Cache     *cache.Store
	Parser    contract.DocumentParser
	Session   *session.Manager
	Artifacts ArtifactStore // optional; nil disables archiving

	// keywordMemo caches keyword extractions for the process lifetime only;
	// the durable cache is reserved for structuring and judgment results.
	keywordMemo sync.Map
}

// UploadDocument parses an uploaded document, extracts its structure and
// installs it as the session's current document. A failed parse or
// extraction leaves the session unchanged.
func (s *Service) UploadDocument(ctx context.Context, r io.Reader) (*contract.StructuredDocument, string, error) {
	paragraphs, err := s.Parser.Parse(r)
	if err != nil {
		return nil, "", err
	}
	text := strings.Join(paragraphs, "\n")

	doc, raw, err := s.ExtractStructure(ctx, text)
	if err != nil {
		return nil, "", err
	}
	s.Session.SetDocument(doc)
	uploadID := uuid.New().String()
	s.archive(ctx, fmt.Sprintf("documents/%s/raw.txt", uploadID), []byte(text), "text/plain")
	s.archive(ctx, fmt.Sprintf("documents/%s/structured.json", uploadID), []byte(raw), "application/json")
	return doc, raw, nil
}

// ExtractStructure returns the structured form of rawText. The durable cache
// is keyed by the exact input text, so identical documents never pay a second
// upstream call, across process restarts included. Only payloads that pass
// envelope validation are ever cached.
func (s *Service) ExtractStructure(ctx context.Context, rawText string) (*contract.StructuredDocument, string, error) {
	raw, hit, err := s.Cache.GetOrCompute(rawText, func() (string, error) {
		payload, err := s.Extractor.ExtractStructure(ctx, rawText)
		if err != nil {
			return "", err
		}
		if _, err := contract.DecodeDocument(payload); err != nil {
			return "", fmt.Errorf("%w: %v", domai.ErrUpstream, err)
		}
		return payload, nil
	})
	if err != nil {
		return nil, "", err
	}
	if hit {
		middleware.IncrementCacheHits()
	} else {
		middleware.IncrementCacheMisses()
	}
	doc, err := contract.DecodeDocument(raw)
	if err != nil {
		// A cached entry that no longer decodes means the snapshot was
		// tampered with; surface it rather than re-extracting silently.
		return nil, "", fmt.Errorf("%w: cached document: %v", domai.ErrUpstream, err)
	}
	return doc, raw, nil
}

// Keywords selects the insightful terms, keywords and money sums of a text.
// Results are memoized in-process only.
func (s *Service) Keywords(ctx context.Context, text string) ([]string, error) {
	if v, ok := s.keywordMemo.Load(text); ok {
		return v.([]string), nil
	}
	raw, err := s.Extractor.ExtractKeywords(ctx, text)
	if err != nil {
		return nil, err
	}
	keywords, err := decodeKeywords(raw)
	if err != nil {
		return nil, err
	}
	s.keywordMemo.Store(text, keywords)
	return keywords, nil
}

func (s *Service) archive(ctx context.Context, key string, data []byte, contentType string) {
	if s.Artifacts == nil {
		return
	}
	if _, err := s.Artifacts.UploadBytes(ctx, key, data, contentType); err != nil {
		log.Printf("warning: failed to archive %s: %v", key, err)
	}
}
