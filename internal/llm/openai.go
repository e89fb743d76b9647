package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const OpenAIDefaultModel = "gpt-4o-mini"

type openAIProvider struct {
	client *openai.Client
	model  string
}

func newOpenAI(cfg ProviderConfig) *openAIProvider {
	model := cfg.Model
	if model == "" {
		model = OpenAIDefaultModel
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &openAIProvider{client: openai.NewClientWithConfig(clientConfig), model: model}
}

func (p *openAIProvider) Model() string { return p.model }

func (p *openAIProvider) Complete(ctx context.Context, req Request) (Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chat := openai.ChatCompletionRequest{
		Model:     p.model,
		Messages:  messages,
		MaxTokens: maxTokens(req),
	}
	if req.Temperature != nil {
		chat.Temperature = float32(*req.Temperature)
	}
	if req.JSON {
		chat.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chat)
	if err != nil {
		return Response{}, p.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, ErrNoResponseChoice
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return Response{}, ErrEmptyResponse
	}

	return Response{
		Text:      content,
		Model:     resp.Model,
		TokensIn:  int64(resp.Usage.PromptTokens),
		TokensOut: int64(resp.Usage.CompletionTokens),
	}, nil
}

func (p *openAIProvider) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("openai api error (%d): %w", apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("openai request error (%d): %w", reqErr.HTTPStatusCode, err)
	}
	return fmt.Errorf("openai request failed: %w", err)
}
