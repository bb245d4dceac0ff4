package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"

	domai "github.com/bryanwahyu/contract-sentinel/internal/domain/ai"
	"github.com/bryanwahyu/contract-sentinel/internal/infra/ai/prompt"
)

const (
	defaultModel          = "gpt-4o"
	defaultEmbeddingModel = "text-embedding-3-small"
)

// Client implements the ai.Extractor, ai.Judge and ai.Embedder ports on top
// of the OpenAI API.
type Client struct {
	*openai.Client
	Model          string
	EmbeddingModel string
}

func NewClient(apiKey, model, embeddingModel string) *Client {
	if model == "" {
		model = defaultModel
	}
	if embeddingModel == "" {
		embeddingModel = defaultEmbeddingModel
	}
	return &Client{Client: openai.NewClient(apiKey), Model: model, EmbeddingModel: embeddingModel}
}

var (
	_ domai.Extractor = (*Client)(nil)
	_ domai.Judge     = (*Client)(nil)
	_ domai.Embedder  = (*Client)(nil)
)

// ExtractStructure runs the structuring prompt in JSON mode and returns the
// raw JSON payload. Envelope validation happens in the caller.
func (c *Client) ExtractStructure(ctx context.Context, text string) (string, error) {
	return c.jsonCompletion(ctx, prompt.Structure(text))
}

// ExtractKeywords runs the keyword selection prompt in JSON mode.
func (c *Client) ExtractKeywords(ctx context.Context, text string) (string, error) {
	return c.jsonCompletion(ctx, prompt.Keywords(text))
}

func (c *Client) jsonCompletion(ctx context.Context, userPrompt string) (string, error) {
	resp, err := c.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.Model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %v", domai.ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: chat completion returned no choices", domai.ErrUpstream)
	}
	return resp.Choices[0].Message.Content, nil
}

// JudgeCompliance opens a streaming judgment call for one task row against
// its retrieved conditions.
func (c *Client) JudgeCompliance(ctx context.Context, task string, conditions []string) (domai.AnswerStream, error) {
	stream, err := c.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt.Compliance(task, strings.Join(conditions, "\n"))},
		},
		Stream: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open judgment stream: %v", domai.ErrUpstream, err)
	}
	return &answerStream{stream: stream}, nil
}

type answerStream struct {
	stream *openai.ChatCompletionStream
}

func (a *answerStream) Recv() (string, error) {
	resp, err := a.stream.Recv()
	if errors.Is(err, io.EOF) {
		return "", io.EOF
	}
	if err != nil {
		return "", fmt.Errorf("%w: judgment stream: %v", domai.ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Delta.Content, nil
}

func (a *answerStream) Close() error { return a.stream.Close() }

// EmbedDocuments embeds a batch of section payloads for indexing.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.EmbeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: embeddings: %v", domai.ErrUpstream, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", domai.ErrUpstream, len(texts), len(resp.Data))
	}
	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", domai.ErrUpstream, d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

// EmbedQuery embeds a single retrieval probe.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
