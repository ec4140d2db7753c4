package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/models"
)

// jsonFormatter emits machine-readable output: numeric statistics as JSON
// numbers, identifiers as strings, "N/A" for unresolved lookups.
type jsonFormatter struct{}

func (f *jsonFormatter) Name() string { return "json" }

func (f *jsonFormatter) WriteRecords(w io.Writer, records []models.StepRecord) error {
	out := make([]models.StepRecord, len(records))
	copy(out, records)
	for i := range out {
		out[i].Component = orNA(out[i].Component)
		out[i].Application = orNA(out[i].Application)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// recommendationDoc is the JSON shape of one analysis inspection.
type recommendationDoc struct {
	Task            string                          `json:"task"`
	Source          string                          `json:"source,omitempty"`
	Base            models.Base                     `json:"base"`
	MarginPct       int                             `json:"margin_pct"`
	Days            int                             `json:"days"`
	GeneratedAt     time.Time                       `json:"generated_at"`
	Recommendations []models.StepRecommendation     `json:"recommendations"`
	Current         map[string]models.StepResources `json:"current,omitempty"`
}

func (f *jsonFormatter) WriteRecommendations(w io.Writer, set *models.RecommendationSet, base models.Base, current map[string]models.StepResources) error {
	doc := recommendationDoc{
		Task:            set.Task,
		Source:          set.Source,
		Base:            base,
		MarginPct:       set.MarginPct,
		Days:            set.Days,
		GeneratedAt:     set.GeneratedAt,
		Recommendations: set.ByBase[base],
		Current:         current,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
