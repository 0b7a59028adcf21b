// Package classifier talks to a remote OpenAI-compatible vision model that
// labels skin images.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carepoint/backend/internal/apperror"
	"github.com/carepoint/backend/internal/domain"
	"github.com/carepoint/backend/pkg/utils"
)

const serviceName = "classifier"

// FallbackConfidence is reported by Fallback results.
const FallbackConfidence = 0.5

var prompts = map[domain.Mode]string{
	domain.ModeSkinCancer: "You are a dermatology screening assistant. Look at the skin image and decide " +
		"whether the lesion looks Benign or Malignant. Reply with JSON only: " +
		`{"prediction": "Benign" | "Malignant", "confidence": <number between 0 and 1>}`,
	domain.ModeEczema: "You are a dermatology screening assistant. Look at the skin image and decide " +
		"whether it shows Eczema. Reply with JSON only: " +
		`{"prediction": "Eczema" | "No Eczema", "confidence": <number between 0 and 1>}`,
}

// Client posts images to a chat-completions endpoint
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a new classifier client
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}
}

type chatMessagePart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string            `json:"role"`
	Content []chatMessagePart `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type verdict struct {
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
}

// Classify sends a base64-encoded image to the remote model. Non-2xx
// responses and labels outside the mode's set are external service errors.
func (c *Client) Classify(ctx context.Context, mode domain.Mode, base64Image string) (domain.DetectionResult, error) {
	if !mode.Valid() {
		return domain.DetectionResult{}, apperror.NewInputError(fmt.Sprintf("unknown mode %q", mode))
	}
	if base64Image == "" {
		return domain.DetectionResult{}, apperror.NewInputError("image is empty")
	}

	body, err := json.Marshal(c.buildRequest(mode, base64Image))
	if err != nil {
		return domain.DetectionResult{}, fmt.Errorf("classifier: failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.DetectionResult{}, fmt.Errorf("classifier: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.DetectionResult{}, apperror.NewTimeoutError("classify image", err)
		}
		return domain.DetectionResult{}, apperror.NewExternalServiceError(serviceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.DetectionResult{}, apperror.NewExternalServiceError(serviceName,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return domain.DetectionResult{}, apperror.NewExternalServiceError(serviceName, fmt.Errorf("decode response: %w", err))
	}
	if len(chat.Choices) == 0 {
		return domain.DetectionResult{}, apperror.NewExternalServiceError(serviceName, errors.New("response has no choices"))
	}

	v, err := parseVerdict(chat.Choices[0].Message.Content)
	if err != nil {
		return domain.DetectionResult{}, apperror.NewExternalServiceError(serviceName, err)
	}
	if !mode.HasLabel(v.Prediction) {
		return domain.DetectionResult{}, apperror.NewExternalServiceError(serviceName,
			fmt.Errorf("label %q is not valid for mode %s", v.Prediction, mode))
	}

	return domain.DetectionResult{
		ID:         uuid.NewString(),
		Mode:       mode,
		Prediction: v.Prediction,
		Confidence: utils.RoundTo(utils.Clamp(v.Confidence, 0, 1), 4),
		Source:     domain.SourceRemote,
		Timestamp:  c.now(),
	}, nil
}

// Health checks that the endpoint answers the models listing.
func (c *Client) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/models", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("classifier: failed to create health request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("classifier: health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("classifier: health check returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) buildRequest(mode domain.Mode, base64Image string) chatRequest {
	dataURL := base64Image
	if !strings.HasPrefix(dataURL, "data:") {
		dataURL = "data:image/jpeg;base64," + base64Image
	}
	return chatRequest{
		Model: c.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []chatMessagePart{
				{Type: "text", Text: prompts[mode]},
				{Type: "image_url", ImageURL: &chatImageURL{URL: dataURL}},
			},
		}},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": "json_object"},
	}
}

// parseVerdict accepts the JSON object either bare or wrapped in a code fence.
func parseVerdict(content string) (verdict, error) {
	content = strings.TrimSpace(content)
	if start := strings.Index(content, "{"); start >= 0 {
		if end := strings.LastIndex(content, "}"); end > start {
			content = content[start : end+1]
		}
	}
	var v verdict
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return verdict{}, fmt.Errorf("parse model answer: %w", err)
	}
	return v, nil
}

// Fallback is the degraded result callers may return when the classifier is
// unavailable: the mode's negative label at 0.5 confidence.
func Fallback(mode domain.Mode, cause error) domain.DetectionResult {
	_, negative := mode.Labels()
	res := domain.DetectionResult{
		ID:         uuid.NewString(),
		Mode:       mode,
		Prediction: negative,
		Confidence: FallbackConfidence,
		Source:     domain.SourceFallback,
		Degraded:   true,
		Timestamp:  time.Now(),
	}
	if cause != nil {
		res.Error = cause.Error()
	}
	return res
}
