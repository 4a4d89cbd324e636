package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const extractionPrompt = `You are an information extraction system for a clinic
scheduling assistant. Extract the patient's details from the input text.

Return ONLY a JSON object, no markdown, no explanation, with exactly these
keys: "name", "dob", "doctor", "location", "phone", "email".
Use null for any field not present in the text.
"dob" is the patient's date of birth in DD-MM-YYYY format.
"doctor" is the requested doctor's full name including the "Dr." title.

Input:
%s`

// GeminiExtractor implements Extractor using Google's Gemini API.
type GeminiExtractor struct {
	client  *genai.Client
	modelID string
}

// NewGeminiExtractor creates a Gemini-backed extractor.
func NewGeminiExtractor(ctx context.Context, apiKey, modelID string) (*GeminiExtractor, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("extract: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("extract: failed to create gemini client: %w", err)
	}
	return &GeminiExtractor{client: client, modelID: modelID}, nil
}

// Extract prompts Gemini for strict JSON and decodes the structured fields.
func (e *GeminiExtractor) Extract(ctx context.Context, utterance string) (PatientInfo, error) {
	model := e.client.GenerativeModel(e.modelID)
	model.SetTemperature(0)

	resp, err := model.GenerateContent(ctx, genai.Text(fmt.Sprintf(extractionPrompt, utterance)))
	if err != nil {
		return PatientInfo{}, fmt.Errorf("extract: gemini completion failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return PatientInfo{}, errors.New("extract: gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	info, err := decodeInfo(sb.String())
	if err != nil {
		return PatientInfo{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return info, nil
}

// Close releases the underlying API client.
func (e *GeminiExtractor) Close() error {
	return e.client.Close()
}

// decodeInfo parses the model output, tolerating markdown code fences the
// model sometimes adds despite instructions.
func decodeInfo(raw string) (PatientInfo, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return PatientInfo{}, errors.New("no JSON object in model output")
	}

	var info PatientInfo
	if err := json.Unmarshal([]byte(raw[start:end+1]), &info); err != nil {
		return PatientInfo{}, err
	}
	info.normalize()
	return info, nil
}
