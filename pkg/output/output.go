// Package output renders StepRecord tables and recommendation comparisons.
// One Formatter per format replaces ad hoc branching on a format flag.
package output

import (
	"fmt"
	"io"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/models"
)

// Formatter renders the analyzer's two kinds of output in one format.
type Formatter interface {
	WriteRecords(w io.Writer, records []models.StepRecord) error
	WriteRecommendations(w io.Writer, set *models.RecommendationSet, base models.Base, current map[string]models.StepResources) error
	Name() string
}

// New returns the formatter for a format flag value.
func New(format string) (Formatter, error) {
	switch format {
	case "", "table", "text":
		return &tableFormatter{}, nil
	case "csv":
		return &csvFormatter{}, nil
	case "json":
		return &jsonFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want table, csv or json)", format)
	}
}

// millicores renders a CPU value the way the collection pipeline always
// has: integer millicores with the m suffix.
func millicores(v int64) string {
	return fmt.Sprintf("%dm", v)
}

// orNA substitutes the sentinel for empty lookup results.
func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}
