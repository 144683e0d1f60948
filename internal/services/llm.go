package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sashabaranov/go-openai"
)

// ErrEmptyCompletion is returned when a provider answers without any text.
var ErrEmptyCompletion = errors.New("language model returned no text")

// GenerateOptions tunes a single completion request.
type GenerateOptions struct {
	Temperature float32
	MaxTokens   int
}

// LanguageModel produces a text completion for a single user prompt.
type LanguageModel interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// ModelError carries the HTTP status of a failed provider call, when known.
type ModelError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ModelError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API error (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s API error: %v", e.Provider, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// Permanent reports whether retrying the same request cannot succeed.
func (e *ModelError) Permanent() bool {
	switch e.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// OpenAIModel talks to the OpenAI chat completions API.
type OpenAIModel struct {
	client *openai.Client
	model  string
}

func NewOpenAIModel(apiKey, model string) *OpenAIModel {
	return &OpenAIModel{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (m *OpenAIModel) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	resp, err := m.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: m.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: opts.Temperature,
			MaxTokens:   opts.MaxTokens,
		},
	)
	if err != nil {
		modelErr := &ModelError{Provider: "openai", Err: err}
		var apiErr *openai.APIError
		var reqErr *openai.RequestError
		switch {
		case errors.As(err, &apiErr):
			modelErr.StatusCode = apiErr.HTTPStatusCode
		case errors.As(err, &reqErr):
			modelErr.StatusCode = reqErr.HTTPStatusCode
		}
		return "", modelErr
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}

// AnthropicModel talks to the Anthropic Messages API.
type AnthropicModel struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicModel(apiKey, model string) *AnthropicModel {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicModel{
		client: &client,
		model:  model,
	}
}

func (m *AnthropicModel) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	response, err := m.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(m.model),
		MaxTokens: int64(opts.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		modelErr := &ModelError{Provider: "anthropic", Err: err}
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			modelErr.StatusCode = apiErr.StatusCode
		}
		return "", modelErr
	}

	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", ErrEmptyCompletion
	}
	return text.String(), nil
}

// NewLanguageModel builds the configured provider. It returns nil when the
// provider has no API key.
func NewLanguageModel(provider, openAIKey, openAIModel, anthropicKey, anthropicModel string) (LanguageModel, error) {
	switch provider {
	case "openai":
		if openAIKey == "" {
			return nil, nil
		}
		return NewOpenAIModel(openAIKey, openAIModel), nil
	case "anthropic":
		if anthropicKey == "" {
			return nil, nil
		}
		return NewAnthropicModel(anthropicKey, anthropicModel), nil
	default:
		return nil, fmt.Errorf("unknown language model provider %q", provider)
	}
}
