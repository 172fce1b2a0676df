package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

var ErrProviderUnavailable = errors.New("text generation provider unavailable")

// Completion is one request to the text-generation provider.
type Completion struct {
	System      string
	Prompt      string
	Model       string
	MaxTokens   int
	Temperature float64
}

type Provider interface {
	Complete(ctx context.Context, req Completion) (string, error)
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type openAIProvider struct {
	llm llms.Model
}

func NewOpenAIProvider(cfg OpenAIConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, ErrProviderUnavailable
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return &openAIProvider{llm: llm}, nil
}

func (p *openAIProvider) Complete(ctx context.Context, req Completion) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.System),
		llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt),
	}

	opts := []llms.CallOption{
		llms.WithMaxTokens(req.MaxTokens),
		llms.WithTemperature(req.Temperature),
		llms.WithJSONMode(),
	}
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}

	resp, err := p.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion")
	}
	return resp.Choices[0].Content, nil
}
