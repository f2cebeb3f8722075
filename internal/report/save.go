package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/HARSHAVARDHAN5696/genai-business-report/internal/utils"
)

// Saved lists the files written by Save.
type Saved struct {
	Charts   []string
	JSON     string
	Insights string
}

// Save writes the chart PNGs, report.json and, when a summary exists or
// failed, insights.md into dir.
func (r *Report) Save(dir string) (*Saved, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	out := &Saved{}
	for i, ch := range r.Charts {
		name := fmt.Sprintf("%02d_%s_%s.png", i+1, ch.Spec.Kind, slug(ch.Title))
		p := filepath.Join(dir, name)
		if err := utils.SafeWriteFile(p, ch.PNG); err != nil {
			return nil, fmt.Errorf("write chart %s: %w", name, err)
		}
		out.Charts = append(out.Charts, p)
	}

	b, err := utils.PrettyJSON(r)
	if err != nil {
		return nil, err
	}
	out.JSON = filepath.Join(dir, "report.json")
	if err := utils.SafeWriteFile(out.JSON, b); err != nil {
		return nil, fmt.Errorf("write report.json: %w", err)
	}

	var md string
	switch {
	case r.Insights != "":
		md = r.Insights
	case r.SummaryError != nil:
		md = r.SummaryError.Error()
	default:
		return out, nil
	}
	out.Insights = filepath.Join(dir, "insights.md")
	body := fmt.Sprintf("# Business insights: %s\n\n%s\n", r.Source, strings.TrimSpace(md))
	if err := utils.SafeWriteFile(out.Insights, []byte(body)); err != nil {
		return nil, fmt.Errorf("write insights.md: %w", err)
	}
	return out, nil
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('_')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "_")
}
