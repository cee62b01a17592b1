// Package blurb generates the short personality description attached to
// a Wrapped snapshot, using an OpenAI-compatible chat completion API.
package blurb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyCompletion is returned when the model responds with no choices.
var ErrEmptyCompletion = errors.New("completion returned no choices")

// Taste summarizes the listening data the description is derived from.
type Taste struct {
	Tracks  []string
	Artists []string
	Genres  []string
}

// Generator produces a personality description from listening data.
type Generator interface {
	Describe(ctx context.Context, taste Taste) (string, error)
}

// OpenAIGenerator implements Generator against any OpenAI-compatible
// chat completion endpoint.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator for the given endpoint, key,
// and model.
func NewOpenAIGenerator(baseURL, apiKey, model string) *OpenAIGenerator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Describe asks the model for a short, playful description of someone
// with the given taste.
func (g *OpenAIGenerator) Describe(ctx context.Context, taste Taste) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: Prompt(taste),
			},
		},
		Temperature: 0.2,
		TopP:        0.7,
		MaxTokens:   60,
	})
	if err != nil {
		return "", fmt.Errorf("creating completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Prompt builds the completion prompt for the given taste.
func Prompt(taste Taste) string {
	return fmt.Sprintf(
		"Describe how someone who listens to the tracks %s by the artists %s, mostly in the genres %s, "+
			"tends to act, think, and dress. Be playful, not mean. Keep your response under 50 tokens.",
		strings.Join(taste.Tracks, ", "),
		strings.Join(taste.Artists, ", "),
		strings.Join(taste.Genres, ", "),
	)
}

var _ Generator = (*OpenAIGenerator)(nil)
