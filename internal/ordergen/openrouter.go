// Package ordergen produces new delivery orders, either from a language
// model behind the OpenRouter chat completions API or from a local
// pseudo-random catalog.
package ordergen

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

	"aerosense/internal/models"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel             = "anthropic/claude-3-haiku"

	systemPrompt = "Generate a realistic drone delivery order. Return only JSON with fields: " +
		"packageType, weight (e.g. '2.5 kg'), pickup, delivery. Make it varied and realistic."
	userPrompt = "Generate a new delivery order"
)

var (
	ErrNoChoices       = errors.New("response contained no choices")
	ErrIncompleteDraft = errors.New("generated order is missing fields")
)

type OpenRouterOption func(*OpenRouter)

func WithHTTPClient(hc *http.Client) OpenRouterOption {
	return func(o *OpenRouter) { o.httpClient = hc }
}

func WithBaseURL(u string) OpenRouterOption {
	return func(o *OpenRouter) {
		if u != "" {
			o.baseURL = strings.TrimSuffix(u, "/")
		}
	}
}

func WithModel(m string) OpenRouterOption {
	return func(o *OpenRouter) {
		if m != "" {
			o.model = m
		}
	}
}

// WithLocations lists the known place names in the prompt so that the
// model picks pickups and deliveries the engine can resolve.
func WithLocations(names []string) OpenRouterOption {
	return func(o *OpenRouter) { o.locations = names }
}

// OpenRouter asks a chat model for a new order.
type OpenRouter struct {
	baseURL    string
	apiKey     string
	model      string
	locations  []string
	httpClient *http.Client
}

func NewOpenRouter(apiKey string, opts ...OpenRouterOption) *OpenRouter {
	o := &OpenRouter{
		baseURL:    defaultOpenRouterBaseURL,
		apiKey:     apiKey,
		model:      DefaultModel,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (o *OpenRouter) prompt() string {
	if len(o.locations) == 0 {
		return systemPrompt
	}
	return systemPrompt + " Use only these locations for pickup and delivery: " +
		strings.Join(o.locations, ", ") + "."
}

// Generate requests one completion and decodes its content as an order
// draft.
func (o *OpenRouter) Generate(ctx context.Context) (models.OrderDraft, error) {
	body, err := json.Marshal(chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: o.prompt()},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return models.OrderDraft{}, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return models.OrderDraft{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return models.OrderDraft{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return models.OrderDraft{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return models.OrderDraft{}, fmt.Errorf("decoding response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return models.OrderDraft{}, ErrNoChoices
	}
	return parseDraft(cr.Choices[0].Message.Content)
}

// parseDraft decodes the model output, tolerating a surrounding markdown
// code fence.
func parseDraft(content string) (models.OrderDraft, error) {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	var d models.OrderDraft
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return models.OrderDraft{}, fmt.Errorf("decoding order: %w", err)
	}
	if err := checkDraft(d); err != nil {
		return models.OrderDraft{}, err
	}
	return d, nil
}

func checkDraft(d models.OrderDraft) error {
	for name, v := range map[string]string{
		"packageType": d.PackageType,
		"weight":      d.Weight,
		"pickup":      d.Pickup,
		"delivery":    d.Delivery,
	} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s", ErrIncompleteDraft, name)
		}
	}
	return nil
}
