package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Rephraser turns the driver's template reply into the final message shown
// to the patient. Implementations must preserve every fact in the draft.
type Rephraser interface {
	Rephrase(ctx context.Context, draft, userMessage string) (string, error)
}

// PassthroughRephraser returns the draft untouched. Used when no language
// model is configured.
type PassthroughRephraser struct{}

func (PassthroughRephraser) Rephrase(_ context.Context, draft, _ string) (string, error) {
	return draft, nil
}

const rephrasePrompt = `You are the front-desk assistant of a medical clinic.
Rewrite the reply below in a warm, concise, professional tone.
Keep every fact exactly as given: names, dates, times, doctors, instructions.
Do not add offers, questions, or information that is not in the reply.
Return only the rewritten reply, no preamble.

Patient said: %q
Reply to rewrite: %q`

// GeminiRephraser polishes replies with a Gemini model.
type GeminiRephraser struct {
	client *genai.Client
	model  string
}

// NewGeminiRephraser creates a rephraser, or an error when the client cannot
// be built. Callers fall back to PassthroughRephraser when the API key is
// absent.
func NewGeminiRephraser(ctx context.Context, apiKey, modelID string) (*GeminiRephraser, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("conversation: gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("conversation: create gemini client: %w", err)
	}
	return &GeminiRephraser{client: client, model: modelID}, nil
}

// Rephrase asks the model for a polished version of the draft. Any failure
// falls back to the draft so the conversation never stalls on the model.
func (g *GeminiRephraser) Rephrase(ctx context.Context, draft, userMessage string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.4)

	resp, err := model.GenerateContent(ctx, genai.Text(fmt.Sprintf(rephrasePrompt, userMessage, draft)))
	if err != nil {
		return draft, fmt.Errorf("conversation: rephrase: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return draft, nil
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return draft, nil
	}
	return out, nil
}

// Close releases the underlying client.
func (g *GeminiRephraser) Close() error {
	return g.client.Close()
}
