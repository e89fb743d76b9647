package llm

import (
	"context"
	"errors"
	"fmt"
	"math"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const GoogleDefaultModel = "gemini-2.0-flash"

type googleProvider struct {
	client *genai.Client
	model  string
}

func newGoogle(ctx context.Context, cfg ProviderConfig) (*googleProvider, error) {
	model := cfg.Model
	if model == "" {
		model = GoogleDefaultModel
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}

	return &googleProvider{client: client, model: model}, nil
}

func (p *googleProvider) Model() string { return p.model }

func (p *googleProvider) Complete(ctx context.Context, req Request) (Response, error) {
	genConfig := &genai.GenerateContentConfig{}
	if req.System != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature != nil {
		genConfig.Temperature = genai.Ptr(float32(*req.Temperature))
	}
	tokens := maxTokens(req)
	if tokens > math.MaxInt32 {
		tokens = math.MaxInt32
	}
	genConfig.MaxOutputTokens = int32(tokens) // #nosec G115 -- bounded above
	if req.JSON {
		genConfig.ResponseMIMEType = "application/json"
	}

	resp, err := p.client.Models.GenerateContent(
		ctx,
		p.model,
		[]*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)},
		genConfig,
	)
	if err != nil {
		return Response{}, p.wrapError(err)
	}

	text := resp.Text()
	if text == "" {
		return Response{}, ErrEmptyResponse
	}

	out := Response{Text: text, Model: p.model}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if resp.UsageMetadata != nil {
		out.TokensIn = int64(resp.UsageMetadata.PromptTokenCount)
		out.TokensOut = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

func (p *googleProvider) wrapError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("google api error (%d): %w", apiErr.Code, err)
	}
	return fmt.Errorf("google request failed: %w", err)
}
