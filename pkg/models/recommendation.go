package models

import "time"

// Base identifies which collected statistic a recommendation is built on.
type Base string

const (
	BaseMax    Base = "max"
	BaseP95    Base = "p95"
	BaseP90    Base = "p90"
	BaseMedian Base = "median"
)

// Bases lists all base statistics in display order. Every analysis
// computes recommendations for all of them so switching the base never
// requires recollecting data.
var Bases = []Base{BaseMax, BaseP95, BaseP90, BaseMedian}

// ResourceKind distinguishes the two recommended resources.
type ResourceKind string

const (
	KindMemory ResourceKind = "memory"
	KindCPU    ResourceKind = "cpu"
)

// ResourceRecommendation is the recommendation for one resource of one
// step. RawValue is the margin-adjusted, capped base value (MB for memory,
// millicores for CPU); RoundedValue is the quantized platform value and is
// always >= RawValue.
type ResourceRecommendation struct {
	Kind         ResourceKind `json:"kind"`
	Base         Base         `json:"base"`
	MarginPct    int          `json:"margin_pct"`
	RawValue     float64      `json:"raw_value"`
	RoundedValue float64      `json:"rounded_value"`
	Kubernetes   string       `json:"kubernetes"`
	Coverage     int          `json:"coverage"`
	ClusterCount int          `json:"cluster_count"`
}

// StepRecommendation groups the memory and CPU recommendations for one
// step together with the cross-cluster observed maxima of every base
// statistic that fed them.
type StepRecommendation struct {
	Step   string                 `json:"step"`
	Memory ResourceRecommendation `json:"memory"`
	CPU    ResourceRecommendation `json:"cpu"`

	MemMaxMB    float64 `json:"mem_max_mb"`
	MemP95MB    float64 `json:"mem_p95_mb"`
	MemP90MB    float64 `json:"mem_p90_mb"`
	MemMedianMB float64 `json:"mem_median_mb"`

	CPUMaxMilli    int64 `json:"cpu_max_millicores"`
	CPUP95Milli    int64 `json:"cpu_p95_millicores"`
	CPUP90Milli    int64 `json:"cpu_p90_millicores"`
	CPUMedianMilli int64 `json:"cpu_median_millicores"`
}

// RecommendationSet is the full output of one analysis run: every step's
// recommendation under every base statistic, plus the table it was derived
// from. Sets are immutable once written to the cache; a new margin or a
// forced re-analysis produces a new set, never an overwrite.
type RecommendationSet struct {
	Task        string                        `json:"task"`
	Source      string                        `json:"source,omitempty"`
	MarginPct   int                           `json:"margin_pct"`
	Days        int                           `json:"days"`
	GeneratedAt time.Time                     `json:"generated_at"`
	ByBase      map[Base][]StepRecommendation `json:"by_base"`
	Records     []StepRecord                  `json:"records"`
}

// StepResources holds a step's configured requests and limits in
// Kubernetes quantity format, "" when the task definition leaves one unset.
type StepResources struct {
	MemoryRequest string `json:"memory_request"`
	CPURequest    string `json:"cpu_request"`
	MemoryLimit   string `json:"memory_limit"`
	CPULimit      string `json:"cpu_limit"`
}
