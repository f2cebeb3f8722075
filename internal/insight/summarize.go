package insight

import (
	"context"
	"errors"
	"fmt"

	"github.com/HARSHAVARDHAN5696/genai-business-report/internal/ai"
)

// DefaultTemperature is the sampling temperature for summaries.
const DefaultTemperature = 0.3

// SummaryError is the single user-facing failure of a summarization call.
type SummaryError struct {
	Err error
}

func (e *SummaryError) Error() string {
	return fmt.Sprintf("Error generating insights: %v", e.Err)
}

func (e *SummaryError) Unwrap() error { return e.Err }

// Result carries the summary text and the metadata of the call that produced it.
type Result struct {
	Text      string
	Model     string
	RequestID string
	Usage     ai.Usage
}

// Summarizer sends one prompt to a chat runtime per call.
type Summarizer struct {
	rt          ai.Runtime
	model       string
	temperature float64
}

// NewSummarizer builds a Summarizer for the provider named in cfg. An empty
// model falls back to the provider default.
func NewSummarizer(cfg ai.Config) (*Summarizer, error) {
	rt, err := ai.NewRuntime(cfg)
	if err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		p, _ := ai.ParseProvider(cfg.Provider)
		model, _ = ai.DefaultModelFor(p)
	}
	return NewSummarizerWithRuntime(rt, model, cfg.Temperature), nil
}

// NewSummarizerWithRuntime wraps an existing runtime. A negative temperature
// uses DefaultTemperature; zero is sent as zero.
func NewSummarizerWithRuntime(rt ai.Runtime, model string, temperature float64) *Summarizer {
	if temperature < 0 {
		temperature = DefaultTemperature
	}
	return &Summarizer{rt: rt, model: model, temperature: temperature}
}

// Model reports the model name used for requests.
func (s *Summarizer) Model() string { return s.model }

// Summarize sends prompt as a single user message and returns the first
// choice's content verbatim. It makes exactly one request; every failure is
// returned as a *SummaryError.
func (s *Summarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	res, err := s.SummarizeResult(ctx, prompt)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// SummarizeResult is Summarize with request metadata.
func (s *Summarizer) SummarizeResult(ctx context.Context, prompt string) (*Result, error) {
	if s == nil || s.rt == nil {
		return nil, &SummaryError{Err: errors.New("no model runtime configured")}
	}
	temp := s.temperature
	resp, err := s.rt.Generate(ctx, ai.GenerateRequest{
		Model:       s.model,
		Messages:    []ai.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return nil, &SummaryError{Err: err}
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, &SummaryError{Err: ai.ErrEmptyResponse}
	}
	return &Result{
		Text:      resp.Choices[0].Message.Content,
		Model:     s.model,
		RequestID: resp.RequestID,
		Usage:     resp.Usage,
	}, nil
}
