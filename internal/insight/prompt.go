// Package insight assembles the summarization prompt for a dataset and relays
// it to a chat model.
package insight

import (
	"fmt"
	"strings"

	"github.com/HARSHAVARDHAN5696/genai-business-report/internal/analysis"
)

// DefaultPromptRows caps how many data rows are embedded in the prompt.
const DefaultPromptRows = 100

const promptTemplate = `You are a business analyst. Read the following dataset (first %d rows) and provide a 3-point summary of key business insights.
Data:
%s`

// BuildPrompt renders the fixed prompt with the header and at most maxRows
// rows of ds serialized as CSV. A non-positive maxRows uses DefaultPromptRows.
func BuildPrompt(ds *analysis.Dataset, maxRows int) (string, error) {
	if ds == nil {
		return "", fmt.Errorf("build prompt: nil dataset")
	}
	if maxRows <= 0 {
		maxRows = DefaultPromptRows
	}
	var b strings.Builder
	if err := ds.WriteCSV(&b, maxRows); err != nil {
		return "", fmt.Errorf("build prompt: %w", err)
	}
	return fmt.Sprintf(promptTemplate, maxRows, b.String()), nil
}
