package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// Service proxies the Google Translate v2 REST endpoint so the citizen
// portal can show complaint text in regional languages. Responses are
// cached; a failed upstream call falls back to the original text so the
// portal never blanks out on a translation outage.
type Service struct {
	apiKey  string
	baseURL string
	client  *http.Client
	cache   *expirable.LRU[string, string]
	log     *zap.Logger
}

func New(apiKey string, log *zap.Logger) *Service {
	return &Service{
		apiKey:  apiKey,
		baseURL: "https://translation.googleapis.com/language/translate/v2",
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   expirable.NewLRU[string, string](1024, nil, time.Hour),
		log:     log,
	}
}

// SetBaseURL overrides the API endpoint, used by tests.
func (s *Service) SetBaseURL(u string) {
	s.baseURL = u
}

type translateRequest struct {
	Q      string `json:"q"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type translateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

// Translate renders text into the target language. On any upstream
// failure the original text comes back with a nil error.
func (s *Service) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if text == "" || targetLang == "" || targetLang == "en" {
		return text, nil
	}

	key := targetLang + "\x00" + text
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	translated, err := s.call(ctx, text, targetLang)
	if err != nil {
		s.log.Warn("translation failed, returning original text",
			zap.String("target", targetLang),
			zap.Error(err),
		)
		return text, nil
	}

	s.cache.Add(key, translated)
	return translated, nil
}

func (s *Service) call(ctx context.Context, text, targetLang string) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("translate API key not configured")
	}

	body, err := json.Marshal(translateRequest{Q: text, Target: targetLang, Format: "text"})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s?key=%s", s.baseURL, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate returned status %d", resp.StatusCode)
	}

	var tr translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(tr.Data.Translations) == 0 {
		return "", fmt.Errorf("empty response from translate")
	}
	return tr.Data.Translations[0].TranslatedText, nil
}
