package triage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"grievance/internal/model"

	"go.uber.org/zap"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiAnalyzer calls the Gemini generateContent REST endpoint and
// parses the structured verdict out of the model's text reply.
type GeminiAnalyzer struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

func NewGeminiAnalyzer(apiKey string, log *zap.Logger) *GeminiAnalyzer {
	return &GeminiAnalyzer{
		apiKey:  apiKey,
		model:   defaultGeminiModel,
		baseURL: "https://generativelanguage.googleapis.com/v1beta",
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

// SetBaseURL overrides the API endpoint, used by tests.
func (a *GeminiAnalyzer) SetBaseURL(u string) {
	a.baseURL = u
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (a *GeminiAnalyzer) Analyze(ctx context.Context, in Input) (model.Verdict, error) {
	if a.apiKey == "" {
		return model.Verdict{}, fmt.Errorf("gemini API key not configured")
	}

	req := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: buildPrompt(in)}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      0.4,
			MaxOutputTokens:  500,
			ResponseMimeType: "application/json",
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return model.Verdict{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", a.baseURL, a.model, a.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return model.Verdict{}, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return model.Verdict{}, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Verdict{}, fmt.Errorf("gemini returned status %d", resp.StatusCode)
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return model.Verdict{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return model.Verdict{}, fmt.Errorf("empty response from gemini")
	}

	verdict, err := ParseVerdict(gr.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return model.Verdict{}, err
	}
	return Normalize(verdict, in.ServiceType), nil
}

// ParseVerdict extracts a verdict from the model's text reply, stripping
// markdown code fences the model sometimes adds despite instructions.
func ParseVerdict(text string) (model.Verdict, error) {
	clean := strings.TrimSpace(text)
	if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```json")
		clean = strings.TrimPrefix(clean, "```")
		clean = strings.TrimSuffix(clean, "```")
		clean = strings.TrimSpace(clean)
	}

	var v model.Verdict
	if err := json.Unmarshal([]byte(clean), &v); err != nil {
		return model.Verdict{}, fmt.Errorf("malformed verdict: %w", err)
	}
	return v, nil
}

func buildPrompt(in Input) string {
	text := in.ComplaintText
	if text == "" {
		text = "No description provided"
	}
	return fmt.Sprintf(`You are an AI system assisting India Post in analyzing citizen complaints.

SERVICE TYPE:
%s

COMPLAINT TYPE:
%s

COMPLAINT DESCRIPTION:
%q

Respond ONLY with a valid JSON object in this exact format.
Do not add explanations, markdown, or extra text.

{
  "ai_category": "",
  "department": "",
  "sentiment_score": 0,
  "priority_level": "LOW | MEDIUM | HIGH | CRITICAL",
  "auto_response": ""
}`, in.ServiceType, in.ComplaintType, text)
}
