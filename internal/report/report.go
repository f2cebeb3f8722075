// Package report runs one upload through loading, classification, chart
// rendering and summarization.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/HARSHAVARDHAN5696/genai-business-report/internal/ai"
	"github.com/HARSHAVARDHAN5696/genai-business-report/internal/analysis"
	"github.com/HARSHAVARDHAN5696/genai-business-report/internal/insight"
	"github.com/HARSHAVARDHAN5696/genai-business-report/internal/render"
	"github.com/HARSHAVARDHAN5696/genai-business-report/internal/utils"
)

// State is a step of the report pipeline.
type State string

const (
	StateNoFile           State = "no_file"
	StateFileLoaded       State = "file_loaded"
	StateEmptyFile        State = "empty_file"
	StateUnreadable       State = "unreadable"
	StateClassified       State = "classified"
	StateChartsRendered   State = "charts_rendered"
	StateSummaryRequested State = "summary_requested"
	StateSummaryShown     State = "summary_shown"
	StateSummaryFailed    State = "summary_failed"
	StateSummarySkipped   State = "summary_skipped"
)

// Options tunes a Generator. Zero values use the package defaults.
type Options struct {
	Load          analysis.LoadOptions
	PreviewRows   int
	PromptRows    int
	MaxBarCharts  int
	MaxLineCharts int
	Render        render.Options
	// SkipSummary leaves the report without a summarization call.
	SkipSummary bool
}

// DefaultPreviewRows is the preview size when Options.PreviewRows is zero.
const DefaultPreviewRows = 5

func (o Options) withDefaults() Options {
	if o.PreviewRows <= 0 {
		o.PreviewRows = DefaultPreviewRows
	}
	if o.PromptRows <= 0 {
		o.PromptRows = insight.DefaultPromptRows
	}
	if o.MaxBarCharts < 0 {
		o.MaxBarCharts = 0
	} else if o.MaxBarCharts == 0 {
		o.MaxBarCharts = analysis.DefaultMaxBarCharts
	}
	if o.MaxLineCharts < 0 {
		o.MaxLineCharts = 0
	} else if o.MaxLineCharts == 0 {
		o.MaxLineCharts = analysis.DefaultMaxLineCharts
	}
	return o
}

// Summarizer produces the insight text for a prompt.
type Summarizer interface {
	SummarizeResult(ctx context.Context, prompt string) (*insight.Result, error)
}

// ColumnInfo describes one loaded column.
type ColumnInfo struct {
	Name    string        `json:"name"`
	Kind    analysis.Kind `json:"kind"`
	Missing int           `json:"missing"`
}

// Preview is the first rows of the dataset as display strings.
type Preview struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// RenderedChart is an aggregated chart plus its PNG image.
type RenderedChart struct {
	analysis.Chart
	PNG []byte `json:"-"`
}

// Report is the outcome of one pipeline run.
type Report struct {
	ID             string                  `json:"id"`
	Source         string                  `json:"source"`
	CreatedAt      time.Time               `json:"created_at"`
	Rows           int                     `json:"rows"`
	Columns        []ColumnInfo            `json:"columns"`
	Preview        Preview                 `json:"preview"`
	Classification analysis.Classification `json:"classification"`
	Charts         []RenderedChart         `json:"charts"`
	Prompt         string                  `json:"-"`
	PromptTokens   int                     `json:"prompt_tokens"`
	Model          string                  `json:"model,omitempty"`
	RequestID      string                  `json:"request_id,omitempty"`
	Usage          *ai.Usage               `json:"usage,omitempty"`
	CostUSD        float64                 `json:"estimated_cost_usd,omitempty"`
	Insights       string                  `json:"insights,omitempty"`
	// SummaryError is set when the summarization call failed. Charts stay.
	SummaryError *insight.SummaryError `json:"-"`
	SummaryText  string                `json:"summary_error,omitempty"`
	Warnings     []string              `json:"warnings,omitempty"`
	State        State                 `json:"state"`
	Trace        []State               `json:"-"`
}

func (r *Report) enter(s State) {
	r.State = s
	r.Trace = append(r.Trace, s)
}

// Generator runs the pipeline. It holds no per-upload state.
type Generator struct {
	opt Options
	sum Summarizer
	now func() time.Time
}

// NewGenerator returns a Generator. A nil summarizer skips the summary step.
func NewGenerator(sum Summarizer, opt Options) *Generator {
	return &Generator{opt: opt.withDefaults(), sum: sum, now: time.Now}
}

// Options returns the effective options.
func (g *Generator) Options() Options { return g.opt }

// Run loads r and executes every step in order. Empty and unreadable input
// stop the run with analysis.ErrEmptyInput or analysis.ErrUnreadableInput
// before any chart or network call; the partial report in the terminal state
// is returned alongside the error. A failed summary is kept on the report.
func (g *Generator) Run(ctx context.Context, name string, r io.Reader) (*Report, error) {
	rep := &Report{ID: uuid.NewString(), Source: name, CreatedAt: g.now().UTC()}
	rep.enter(StateNoFile)

	ds, err := analysis.Load(r, name, g.opt.Load)
	if err != nil {
		if errors.Is(err, analysis.ErrEmptyInput) {
			rep.enter(StateEmptyFile)
		} else {
			rep.enter(StateUnreadable)
		}
		return rep, err
	}
	rep.enter(StateFileLoaded)
	return g.run(ctx, rep, ds)
}

// RunDataset executes the pipeline on an already loaded dataset.
func (g *Generator) RunDataset(ctx context.Context, ds *analysis.Dataset) (*Report, error) {
	rep := &Report{ID: uuid.NewString(), Source: ds.Name, CreatedAt: g.now().UTC()}
	rep.enter(StateNoFile)
	rep.enter(StateFileLoaded)
	return g.run(ctx, rep, ds)
}

func (g *Generator) run(ctx context.Context, rep *Report, ds *analysis.Dataset) (*Report, error) {
	rep.Rows = ds.Rows()
	for _, c := range ds.Columns() {
		info := ColumnInfo{Name: c.Name, Kind: c.Kind}
		for i := 0; i < c.Len(); i++ {
			if c.IsMissing(i) {
				info.Missing++
			}
		}
		rep.Columns = append(rep.Columns, info)
	}
	rep.Preview = Preview{Header: ds.Names(), Rows: ds.Head(g.opt.PreviewRows)}

	rep.Classification = analysis.Classify(ds)
	rep.enter(StateClassified)

	charts, err := analysis.BuildCharts(ds, rep.Classification, g.opt.MaxBarCharts, g.opt.MaxLineCharts)
	if err != nil {
		return nil, fmt.Errorf("build charts: %w", err)
	}
	for _, ch := range charts {
		img, err := render.Render(ch, g.opt.Render)
		if err != nil {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("chart %q not rendered: %v", ch.Title, err))
			continue
		}
		rep.Charts = append(rep.Charts, RenderedChart{Chart: ch, PNG: img})
	}
	rep.enter(StateChartsRendered)

	prompt, err := insight.BuildPrompt(ds, g.opt.PromptRows)
	if err != nil {
		return nil, err
	}
	rep.Prompt = prompt
	rep.PromptTokens = utils.CountTokens(prompt)

	if g.opt.SkipSummary || g.sum == nil {
		rep.enter(StateSummarySkipped)
		return rep, nil
	}
	rep.enter(StateSummaryRequested)
	res, err := g.sum.SummarizeResult(ctx, prompt)
	if err != nil {
		var se *insight.SummaryError
		if !errors.As(err, &se) {
			se = &insight.SummaryError{Err: err}
		}
		rep.SummaryError = se
		rep.SummaryText = se.Error()
		rep.enter(StateSummaryFailed)
		return rep, nil
	}
	rep.Insights = res.Text
	rep.Model = res.Model
	rep.RequestID = res.RequestID
	if res.Usage != (ai.Usage{}) {
		u := res.Usage
		rep.Usage = &u
		if cost, ok := ai.EstimateCostUSD(res.Model, u.PromptTokens, u.CompletionTokens); ok {
			rep.CostUSD = cost
		}
	}
	rep.enter(StateSummaryShown)
	return rep, nil
}
