package models

// StepRecord is one row of the cross-cluster usage table: observed memory
// and CPU statistics for one (cluster, task, step). Records are immutable
// once the per-cluster driver emits them; the orchestrator only
// concatenates them.
type StepRecord struct {
	Cluster string `json:"cluster"`
	Task    string `json:"task"`
	Step    string `json:"step"`

	// Memory statistics in MB (bytes / 1024 / 1024).
	MemMaxMB    float64 `json:"mem_max_mb"`
	MemP95MB    float64 `json:"mem_p95_mb"`
	MemP90MB    float64 `json:"mem_p90_mb"`
	MemMedianMB float64 `json:"mem_median_mb"`

	// Pod holding the memory maximum, with its resolved ownership labels.
	// "N/A" marks a failed component/application lookup, "" an empty run.
	MemMaxPod       string `json:"mem_max_pod"`
	MemMaxNamespace string `json:"mem_max_namespace"`
	Component       string `json:"component"`
	Application     string `json:"application"`

	// CPU statistics in millicores.
	CPUMaxMilli    int64 `json:"cpu_max_millicores"`
	CPUP95Milli    int64 `json:"cpu_p95_millicores"`
	CPUP90Milli    int64 `json:"cpu_p90_millicores"`
	CPUMedianMilli int64 `json:"cpu_median_millicores"`

	CPUMaxPod       string `json:"cpu_max_pod"`
	CPUMaxNamespace string `json:"cpu_max_namespace"`
}

// Empty reports whether the record carries no measurements at all, the
// shape a step gets when its task never ran in a cluster.
func (r StepRecord) Empty() bool {
	return r.MemMaxMB == 0 && r.CPUMaxMilli == 0 && r.MemMaxPod == "" && r.CPUMaxPod == ""
}
