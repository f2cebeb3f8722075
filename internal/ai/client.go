package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Default endpoints for OpenAI-compatible providers.
const (
	OpenAIBaseURL     = "https://api.openai.com/v1"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

var (
	// ErrMissingAPIKey is returned when a hosted provider is called without a key.
	ErrMissingAPIKey = errors.New("API key is missing (set OPENAI_API_KEY or api_key in config)")
	// ErrEmptyResponse is returned when the provider answers without any choice.
	ErrEmptyResponse = errors.New("malformed response: no choices returned")
)

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	api     *openai.Client
	apiKey  string
	baseURL string
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest is one chat call. A nil Temperature leaves it to the provider.
type GenerateRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Choice struct {
	Message Message `json:"message"`
}

type GenerateResponse struct {
	ID        string   `json:"id"`
	Choices   []Choice `json:"choices"`
	Usage     Usage    `json:"usage"`
	RequestID string   `json:"-"`
}

// APIError represents a structured API error response.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
	RequestID  string `json:"-"`
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "api error: status=%d", e.StatusCode)
	if e.Code != "" {
		fmt.Fprintf(&b, " code=%s", e.Code)
	}
	if e.RequestID != "" {
		fmt.Fprintf(&b, " request_id=%s", e.RequestID)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, " message=%s", e.Message)
	}
	return b.String()
}

// NewOpenAIClient returns a client for the OpenAI API.
func NewOpenAIClient(apiKey string, httpTimeout time.Duration) *Client {
	return NewClientWithBaseURL(apiKey, httpTimeout, OpenAIBaseURL)
}

// NewOpenRouterClient returns a client for OpenRouter, which speaks the same protocol.
func NewOpenRouterClient(apiKey string, httpTimeout time.Duration) *Client {
	return NewClientWithBaseURL(apiKey, httpTimeout, OpenRouterBaseURL)
}

// NewClientWithBaseURL allows injecting a custom base URL (used in tests and
// for self-hosted OpenAI-compatible gateways). A zero httpTimeout keeps the
// transport default.
func NewClientWithBaseURL(apiKey string, httpTimeout time.Duration, baseURL string) *Client {
	if baseURL == "" {
		baseURL = OpenAIBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	hc := &http.Client{Timeout: httpTimeout}
	if strings.HasPrefix(baseURL, OpenRouterBaseURL) {
		hc.Transport = attributionTransport{base: http.DefaultTransport}
	}
	cfg.HTTPClient = hc
	return &Client{
		api:     openai.NewClientWithConfig(cfg),
		apiKey:  apiKey,
		baseURL: baseURL,
	}
}

func (c *Client) ValidateModel(model string) error {
	if model == "" {
		return errors.New("model cannot be empty")
	}
	return nil
}

// Generate sends one chat completion request. It never retries.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if err := c.ValidateModel(req.Model); err != nil {
		return nil, err
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}
	creq := openai.ChatCompletionRequest{
		Model:     req.Model,
		Messages:  make([]openai.ChatCompletionMessage, len(req.Messages)),
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature != nil {
		creq.Temperature = float32(*req.Temperature)
		// go-openai omits a zero temperature, which the API reads as 1.
		if creq.Temperature == 0 {
			creq.Temperature = math.SmallestNonzeroFloat32
		}
	}
	for i, m := range req.Messages {
		creq.Messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := c.api.CreateChatCompletion(ctx, creq)
	if err != nil {
		return nil, c.classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	out := &GenerateResponse{
		ID: resp.ID,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		RequestID: extractRequestID(resp.Header()),
	}
	for _, ch := range resp.Choices {
		out.Choices = append(out.Choices, Choice{Message: Message{Role: ch.Message.Role, Content: ch.Message.Content}})
	}
	return out, nil
}

// classify maps go-openai failures onto this package's typed errors.
func (c *Client) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		e := &APIError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
		switch code := apiErr.Code.(type) {
		case string:
			e.Code = code
		case nil:
		default:
			e.Code = fmt.Sprint(code)
		}
		return classifyAPIError(e)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		e := &APIError{StatusCode: reqErr.HTTPStatusCode}
		if reqErr.Err != nil {
			e.Message = reqErr.Err.Error()
		}
		return classifyAPIError(e)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return &UnreachableError{Host: c.baseURL, Err: uerr.Err}
	}
	return fmt.Errorf("chat completion: %w", err)
}

// classifyAPIError maps generic APIError to typed errors for better UX.
func classifyAPIError(apiErr *APIError) error {
	sc := apiErr.StatusCode
	msg := apiErr.Message
	code := apiErr.Code
	if sc == http.StatusUnauthorized || sc == http.StatusForbidden || code == "invalid_api_key" {
		return &AuthError{APIError: apiErr}
	}
	if code == "insufficient_quota" || code == "quota_exceeded" || containsAnyFold(msg, "quota", "billing") {
		return &QuotaExceededError{APIError: apiErr}
	}
	if sc == http.StatusTooManyRequests {
		return &RateLimitError{APIError: apiErr}
	}
	if sc == http.StatusNotFound {
		if code == "model_not_found" || containsAllFold(msg, "model", "not", "found") || containsAllFold(msg, "model", "does not exist") {
			return &ModelNotFoundError{APIError: apiErr}
		}
		return apiErr
	}
	if sc == http.StatusBadRequest {
		return &BadRequestError{APIError: apiErr}
	}
	if sc >= 500 && sc <= 599 {
		return &ServerError{APIError: apiErr}
	}
	return apiErr
}

func containsAllFold(s string, subs ...string) bool {
	for _, sub := range subs {
		if !containsFold(s, sub) {
			return false
		}
	}
	return true
}

func containsAnyFold(s string, subs ...string) bool {
	for _, sub := range subs {
		if containsFold(s, sub) {
			return true
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	if s == "" || sub == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// extractRequestID pulls a best-effort request ID from common headers.
func extractRequestID(h http.Header) string {
	if h == nil {
		return ""
	}
	keys := []string{"X-Request-Id", "OpenAI-Request-ID", "Openrouter-Request-ID", "X-Amzn-Requestid"}
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// attributionTransport adds the app attribution headers OpenRouter asks for.
type attributionTransport struct {
	base http.RoundTripper
}

func (t attributionTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("HTTP-Referer", "https://github.com/HARSHAVARDHAN5696/genai-business-report")
	r.Header.Set("X-Title", "AI Business Report")
	return t.base.RoundTrip(r)
}
