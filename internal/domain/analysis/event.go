package analysis

import (
	"context"

	"github.com/bryanwahyu/contract-sentinel/internal/domain/contract"
)

// Stream tokens. Clients treat EndToken as the authoritative completion
// signal, not stream closure. DelimiterToken keeps the original trailing
// space; it is a literal protocol token, not prose.
const (
	DelimiterToken = ":newline: "
	EndToken       = "[END]"

	// AmbiguousMarker prefixes an answer whose compliance could not be
	// determined from the available information.
	AmbiguousMarker = "ambiguous"
)

// EventKind discriminates analysis stream events.
type EventKind int

const (
	EventRow EventKind = iota
	EventAnswer
	EventError
	EventDelimiter
	EventEnd
)

// Event is one append-only entry of the analysis run's output log.
type Event struct {
	Kind    EventKind
	Payload string
}

// Emitter receives events in order. An error aborts the run.
type Emitter func(Event) error

// Retriever answers nearest-neighbor queries over a built section index.
type Retriever interface {
	Query(ctx context.Context, probe string, k int) ([]contract.Section, error)
}

// IndexBuilder constructs an ephemeral Retriever for one analysis run.
type IndexBuilder interface {
	Build(ctx context.Context, doc *contract.StructuredDocument) (Retriever, error)
}
