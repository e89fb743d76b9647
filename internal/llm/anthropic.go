package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const AnthropicDefaultModel = "claude-sonnet-4-0"

type anthropicProvider struct {
	client anthropic.Client
	model  string
}

func newAnthropic(cfg ProviderConfig) *anthropicProvider {
	model := cfg.Model
	if model == "" {
		model = AnthropicDefaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// retries belong to the scorer's attempt budget
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &anthropicProvider{client: anthropic.NewClient(opts...), model: model}
}

func (p *anthropicProvider) Model() string { return p.model }

func (p *anthropicProvider) Complete(ctx context.Context, req Request) (Response, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(maxTokens(req)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return Response{}, p.wrapError(err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if content, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(content.Text)
		}
	}
	if text.Len() == 0 {
		return Response{}, ErrEmptyResponse
	}

	return Response{
		Text:      text.String(),
		Model:     string(message.Model),
		TokensIn:  message.Usage.InputTokens,
		TokensOut: message.Usage.OutputTokens,
	}, nil
}

func (p *anthropicProvider) wrapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 401:
			return fmt.Errorf("anthropic authentication failed (%d): %w", apiErr.StatusCode, err)
		case 429:
			return fmt.Errorf("anthropic rate limit exceeded: %w", err)
		default:
			return fmt.Errorf("anthropic api error (%d): %w", apiErr.StatusCode, err)
		}
	}
	return fmt.Errorf("anthropic request failed: %w", err)
}
