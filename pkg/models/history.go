package models

import "time"

// AnalysisRun is the stored identity of one completed analysis: enough to
// trend recommendations for a task over time without reopening artifacts.
type AnalysisRun struct {
	ID          string
	Task        string
	MarginPct   int
	Days        int
	GeneratedAt time.Time
	Artifact    string
	CreatedAt   time.Time
}
