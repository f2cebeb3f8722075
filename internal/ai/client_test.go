package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

type ipv4Server struct {
	URL string
	srv *http.Server
	ln  net.Listener
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	s := &ipv4Server{
		URL: "http://" + ln.Addr().String(),
		srv: srv,
		ln:  ln,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	return s
}

func (s *ipv4Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

// chatServer answers /chat/completions with the given status. Non-2xx
// statuses get an OpenAI-style error envelope.
func chatServer(t *testing.T, status int, errCode, errMsg string, hits *int32, seen *map[string]any) *ipv4Server {
	t.Helper()
	return newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Request-Id", "req_123")
		w.WriteHeader(status)
		if status >= 200 && status < 300 {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": "cmpl-1",
				"choices": []any{
					map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": "1. Revenue grew.\n2. West leads.\n3. Costs flat."}},
				},
				"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": errMsg, "type": "error", "code": errCode}})
	}))
}

func userPrompt(s string) []Message { return []Message{{Role: "user", Content: s}} }

func temperature(v float64) *float64 { return &v }

func TestGenerateSuccessSendsTemperature(t *testing.T) {
	var seen map[string]any
	srv := chatServer(t, http.StatusOK, "", "", nil, &seen)
	defer srv.Close()

	c := NewClientWithBaseURL("sk-test", 2*time.Second, srv.URL)
	resp, err := c.Generate(context.Background(), GenerateRequest{Model: "gpt-3.5-turbo", Messages: userPrompt("hi"), Temperature: temperature(0.3)})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(resp.Choices) != 1 || !strings.HasPrefix(resp.Choices[0].Message.Content, "1. Revenue") {
		t.Fatalf("unexpected choices: %+v", resp.Choices)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Fatalf("usage = %+v", resp.Usage)
	}
	if resp.RequestID != "req_123" {
		t.Fatalf("request id = %q", resp.RequestID)
	}
	if seen["model"] != "gpt-3.5-turbo" {
		t.Fatalf("model sent = %v", seen["model"])
	}
	temp, _ := seen["temperature"].(float64)
	if temp < 0.29 || temp > 0.31 {
		t.Fatalf("temperature sent = %v, want 0.3", seen["temperature"])
	}
	msgs, _ := seen["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("messages sent = %v", seen["messages"])
	}
}

func TestGenerateSendsZeroTemperature(t *testing.T) {
	var seen map[string]any
	srv := chatServer(t, http.StatusOK, "", "", nil, &seen)
	defer srv.Close()

	c := NewClientWithBaseURL("sk-test", 2*time.Second, srv.URL)
	if _, err := c.Generate(context.Background(), GenerateRequest{Model: "gpt-3.5-turbo", Messages: userPrompt("hi"), Temperature: temperature(0)}); err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	temp, ok := seen["temperature"].(float64)
	if !ok || temp > 0.0001 {
		t.Fatalf("temperature sent = %v, want ~0", seen["temperature"])
	}

	seen = nil
	if _, err := c.Generate(context.Background(), GenerateRequest{Model: "gpt-3.5-turbo", Messages: userPrompt("hi")}); err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if _, ok := seen["temperature"]; ok {
		t.Fatalf("unset temperature was sent: %v", seen["temperature"])
	}
}

func TestGenerateAuthError(t *testing.T) {
	srv := chatServer(t, http.StatusUnauthorized, "invalid_api_key", "Incorrect API key provided", nil, nil)
	defer srv.Close()
	c := NewClientWithBaseURL("sk-bad", 2*time.Second, srv.URL)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "gpt-3.5-turbo", Messages: userPrompt("hi")})
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
	if ae.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d", ae.StatusCode)
	}
}

func TestGenerateRateLimitIsNotRetried(t *testing.T) {
	var hits int32
	srv := chatServer(t, http.StatusTooManyRequests, "rate_limit_exceeded", "slow down", &hits, nil)
	defer srv.Close()
	c := NewClientWithBaseURL("sk-test", 2*time.Second, srv.URL)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "gpt-3.5-turbo", Messages: userPrompt("hi")})
	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %T: %v", err, err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("requests = %d, want exactly 1", n)
	}
}

func TestGenerateQuotaAndModelErrors(t *testing.T) {
	cases := []struct {
		status int
		code   string
		msg    string
		check  func(error) bool
	}{
		{http.StatusTooManyRequests, "insufficient_quota", "You exceeded your current quota", func(err error) bool { var e *QuotaExceededError; return errors.As(err, &e) }},
		{http.StatusNotFound, "model_not_found", "The model `nope` does not exist", func(err error) bool { var e *ModelNotFoundError; return errors.As(err, &e) }},
		{http.StatusBadRequest, "", "invalid request", func(err error) bool { var e *BadRequestError; return errors.As(err, &e) }},
		{http.StatusBadGateway, "", "upstream", func(err error) bool { var e *ServerError; return errors.As(err, &e) }},
	}
	for _, tc := range cases {
		srv := chatServer(t, tc.status, tc.code, tc.msg, nil, nil)
		c := NewClientWithBaseURL("sk-test", 2*time.Second, srv.URL)
		_, err := c.Generate(context.Background(), GenerateRequest{Model: "gpt-3.5-turbo", Messages: userPrompt("hi")})
		srv.Close()
		if !tc.check(err) {
			t.Fatalf("status %d: unexpected error %T: %v", tc.status, err, err)
		}
	}
}

func TestGenerateMissingAPIKey(t *testing.T) {
	c := NewClientWithBaseURL("", time.Second, "http://127.0.0.1:1")
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "gpt-3.5-turbo", Messages: userPrompt("hi")})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestGenerateEmptyChoices(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "cmpl-2", "choices": []any{}})
	}))
	defer srv.Close()
	c := NewClientWithBaseURL("sk-test", 2*time.Second, srv.URL)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "gpt-3.5-turbo", Messages: userPrompt("hi")})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestGenerateUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test: cannot open local listener (%v)", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	c := NewClientWithBaseURL("sk-test", 2*time.Second, "http://"+addr)
	_, err = c.Generate(context.Background(), GenerateRequest{Model: "gpt-3.5-turbo", Messages: userPrompt("hi")})
	var ue *UnreachableError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnreachableError, got %T: %v", err, err)
	}
	if !strings.Contains(ue.Error(), addr) {
		t.Fatalf("error should name the host: %v", ue)
	}
}

func TestGenerateValidation(t *testing.T) {
	c := NewOpenAIClient("sk-test", time.Second)
	if _, err := c.Generate(context.Background(), GenerateRequest{Messages: userPrompt("hi")}); err == nil {
		t.Fatalf("expected error for empty model")
	}
	if _, err := c.Generate(context.Background(), GenerateRequest{Model: "gpt-3.5-turbo"}); err == nil || err.Error() != "messages cannot be empty" {
		t.Fatalf("expected 'messages cannot be empty', got %v", err)
	}
}

func TestRuntimeRegistry(t *testing.T) {
	for _, p := range []string{"openai", "OpenRouter", "ollama", "local", ""} {
		if _, ok := GetRuntime(p, RuntimeConfig{APIKey: "k"}); !ok {
			t.Fatalf("provider %q not registered", p)
		}
	}
	if _, err := ParseProvider("bogus"); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
	if m, ok := DefaultModelFor(ProviderOpenAI); !ok || m != "gpt-3.5-turbo" {
		t.Fatalf("default openai model = %q", m)
	}
}

func TestEstimateCostAndCatalog(t *testing.T) {
	cost, ok := EstimateCostUSD("gpt-3.5-turbo", 1000, 1000)
	if !ok || cost <= 0 {
		t.Fatalf("cost = %v ok=%v", cost, ok)
	}
	if _, ok := EstimateCostUSD("unknown-model", 1, 1); ok {
		t.Fatalf("unknown model should not be priced")
	}
	cat := Catalog()
	for i := 1; i < len(cat); i++ {
		if cat[i-1].Provider > cat[i].Provider {
			t.Fatalf("catalog not sorted by provider at %d", i)
		}
	}
}
