package ai

import "context"

// Extractor port: structuring calls against the reasoning service. Both
// operations return the raw JSON payload; callers validate the envelope.
type Extractor interface {
	ExtractStructure(ctx context.Context, text string) (string, error)
	ExtractKeywords(ctx context.Context, text string) (string, error)
}

// Judge port: compliance judgment as a chunked stream.
type Judge interface {
	JudgeCompliance(ctx context.Context, task string, conditions []string) (AnswerStream, error)
}

// AnswerStream yields incremental answer chunks. Recv returns io.EOF when the
// upstream stream completes normally.
type AnswerStream interface {
	Recv() (string, error)
	Close() error
}

// Embedder port: maps text to a fixed-length vector, deterministic for
// identical input.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
