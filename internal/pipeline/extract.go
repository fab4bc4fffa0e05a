package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/genai"

	"github.com/dvloznov/ledger-assistant/internal/domain"
	"github.com/dvloznov/ledger-assistant/internal/logger"
)

// GeminiExtractor extracts candidate transactions from free-form text using
// the Gemini API. It implements Extractor.
type GeminiExtractor struct {
	client *genai.Client
	model  string
}

// NewGeminiExtractor creates an extractor. The API key is taken from the
// environment by the genai client (GEMINI_API_KEY / GOOGLE_API_KEY).
func NewGeminiExtractor(ctx context.Context, model string) (*GeminiExtractor, error) {
	if model == "" {
		model = DefaultModelName
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("extract: create genai client: %w", err)
	}

	return &GeminiExtractor{client: client, model: model}, nil
}

// Extract sends the message to the model and parses the structured response.
// Transport failures are retried a bounded number of times with exponential
// backoff and then reported as domain.ErrExtractionTransport. A response that
// is not parseable as the expected schema is NOT an error: it yields a nil
// candidate with confidence 0, which the orchestrator turns into a
// clarification request. Extraction is never retried because the content
// looks wrong.
func (e *GeminiExtractor) Extract(ctx context.Context, rawText string, receivedAt time.Time, recent []string) (*Candidate, float64, error) {
	prompt := buildExtractionPrompt(rawText, receivedAt, recent)

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	var resp *genai.GenerateContentResponse
	operation := func() error {
		var err error
		resp, err = e.client.Models.GenerateContent(ctx, e.model, contents, nil)
		return err
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxExtractionAttempts-1)
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrExtractionTransport, err)
	}

	rawResponse := resp.Text()
	if rawResponse == "" {
		logger.FromContext(ctx).Warn().Msg("Model returned an empty response")
		return nil, 0, nil
	}

	cand, ok := decodeCandidate(cleanModelJSON(rawResponse))
	if !ok {
		logger.FromContext(ctx).Warn().
			Str("raw_response", truncate(rawResponse, 500)).
			Msg("Model response did not match the extraction schema")
		return nil, 0, nil
	}

	return cand, deriveConfidence(cand), nil
}

// decodeCandidate parses the cleaned model payload against the strict output
// contract. Anything that does not match the expected shape is rejected, not
// coerced.
func decodeCandidate(clean string) (*Candidate, bool) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(clean), &obj); err != nil {
		return nil, false
	}

	isTx, err := getBoolField(obj, "is_transaction")
	if err != nil {
		return nil, false
	}

	amount, err := getOptionalNumberField(obj, "amount")
	if err != nil {
		return nil, false
	}
	direction, err := getOptionalStringField(obj, "direction")
	if err != nil {
		return nil, false
	}
	if direction != nil && !domain.Direction(*direction).Valid() {
		return nil, false
	}
	category, err := getOptionalStringField(obj, "category")
	if err != nil {
		return nil, false
	}
	description, err := getOptionalStringField(obj, "description")
	if err != nil {
		return nil, false
	}
	date, err := getOptionalStringField(obj, "date")
	if err != nil {
		return nil, false
	}
	confidence, err := getOptionalNumberField(obj, "confidence")
	if err != nil {
		return nil, false
	}

	return &Candidate{
		IsTransaction: isTx,
		Amount:        amount,
		Direction:     direction,
		Category:      category,
		Description:   description,
		Date:          date,
		Confidence:    confidence,
		Raw:           []byte(clean),
	}, true
}

// deriveConfidence uses the model's self-reported certainty when present,
// else a heuristic over how many optional fields were populated.
func deriveConfidence(c *Candidate) float64 {
	if !c.IsTransaction {
		return 0
	}
	if c.Confidence != nil {
		v := *c.Confidence
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}

	populated := 0
	if c.Amount != nil {
		populated++
	}
	if c.Direction != nil {
		populated++
	}
	if c.Category != nil {
		populated++
	}
	if c.Date != nil {
		populated++
	}
	return float64(populated) / 4
}

// cleanModelJSON strips Markdown fences and surrounding junk if the model
// ignored the raw-JSON instruction, keeping only the outermost object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

func getBoolField(m map[string]interface{}, key string) (bool, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return false, fmt.Errorf("missing required field %q", key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("field %q has type %T, want bool", key, v)
	}
	return b, nil
}

func getOptionalStringField(m map[string]interface{}, key string) (*string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil, nil
		}
		return &s, nil
	default:
		return nil, fmt.Errorf("field %q has type %T, want string or null", key, v)
	}
}

func getOptionalNumberField(m map[string]interface{}, key string) (*float64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case float64:
		f := val
		return &f, nil
	default:
		return nil, fmt.Errorf("field %q has type %T, want number or null", key, v)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
