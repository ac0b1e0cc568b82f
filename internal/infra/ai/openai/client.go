package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/medverify/internal/domain/judge"
	"github.com/bryanwahyu/medverify/internal/domain/verification"
	"github.com/bryanwahyu/medverify/internal/infra/ai/prompt"
)

const maxTokens = 2048

// Client implements the judge seam on the OpenAI chat API.
type Client struct {
	*openai.Client
	Model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

func (c *Client) JudgeFaithfulness(ctx context.Context, ex verification.Exchange, citationContext string) (*judge.FaithfulnessVerdict, error) {
	raw, err := c.complete(ctx, prompt.GetFaithfulnessSystemPrompt(), prompt.GetFaithfulnessUserPrompt(ex, citationContext))
	if err != nil {
		return nil, err
	}
	return prompt.ParseFaithfulness(raw)
}

func (c *Client) JudgeCompliance(ctx context.Context, ex verification.Exchange) (*judge.ComplianceVerdict, error) {
	raw, err := c.complete(ctx, prompt.GetComplianceSystemPrompt(), prompt.GetComplianceUserPrompt(ex))
	if err != nil {
		return nil, err
	}
	return prompt.ParseCompliance(raw)
}

func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	model := c.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %v", judge.ErrQuotaExceeded, err)
		}
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", judge.ErrParse)
	}
	return resp.Choices[0].Message.Content, nil
}
