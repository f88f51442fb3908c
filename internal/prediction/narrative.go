package prediction

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"finsight/pkg/contracts/domain"
)

const narrativeMaxTokens = 512

const narrativeSystemPrompt = "You are a financial risk analyst. " +
	"Given computed risk metrics, write a concise two-sentence assessment " +
	"in plain language. Do not invent numbers."

// Narrator generates a short natural-language assessment of a computed
// prediction. It is optional: the engine works without one, and any
// failure degrades to the heuristic result.
type Narrator interface {
	Narrate(ctx context.Context, kind domain.PredictionKind, riskScore, confidence float64) (string, error)
}

// OpenAINarrator calls the chat completions API.
type OpenAINarrator struct {
	client *openai.Client
	model  string
}

// NewOpenAINarrator creates a narrator using the given API key and model.
func NewOpenAINarrator(apiKey, model string) *OpenAINarrator {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAINarrator{client: openai.NewClient(apiKey), model: model}
}

func (n *OpenAINarrator) Narrate(ctx context.Context, kind domain.PredictionKind, riskScore, confidence float64) (string, error) {
	user := fmt.Sprintf(
		"Prediction type: %s. Risk score: %.3f (%s). Confidence: %.3f (%s).",
		kind, riskScore, domain.RiskLevel(riskScore),
		confidence, domain.ConfidenceLevel(confidence))

	resp, err := n.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     n.model,
		MaxTokens: narrativeMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: narrativeSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
