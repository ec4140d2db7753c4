// Package recommender turns a cross-cluster StepRecord table into rounded
// resource recommendations with a safety margin.
package recommender

import (
	"math"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/models"
)

// stepMaxima holds the cross-cluster maximum of every base statistic for
// one step, plus the row counts feeding the coverage figures.
type stepMaxima struct {
	memMax, memP95, memP90, memMedian float64
	cpuMax, cpuP95, cpuP90, cpuMedian int64

	memContributing int // clusters with a non-zero memory value
	cpuContributing int
	clusterRows     int // clusters with any row for this step
}

// ComputeAll groups the table by step and computes recommendations for
// every base statistic in one pass, so a later "what if p95" question
// never requires recollecting data. Steps appear in first-seen row order.
// Steps with no non-zero memory observation anywhere are skipped entirely.
func ComputeAll(records []models.StepRecord, marginPct int) map[models.Base][]models.StepRecommendation {
	order, maxima := collectMaxima(records)

	result := make(map[models.Base][]models.StepRecommendation, len(models.Bases))
	for _, base := range models.Bases {
		recs := make([]models.StepRecommendation, 0, len(order))
		for _, step := range order {
			m := maxima[step]
			if m.memMax == 0 {
				continue
			}
			recs = append(recs, recommendStep(step, m, base, marginPct))
		}
		result[base] = recs
	}
	return result
}

// Compute returns the recommendations for a single base statistic.
func Compute(records []models.StepRecord, base models.Base, marginPct int) []models.StepRecommendation {
	return ComputeAll(records, marginPct)[base]
}

func collectMaxima(records []models.StepRecord) ([]string, map[string]*stepMaxima) {
	var order []string
	maxima := make(map[string]*stepMaxima)

	for _, rec := range records {
		m, ok := maxima[rec.Step]
		if !ok {
			m = &stepMaxima{}
			maxima[rec.Step] = m
			order = append(order, rec.Step)
		}

		m.clusterRows++
		if rec.MemMaxMB > 0 {
			m.memContributing++
		}
		if rec.CPUMaxMilli > 0 {
			m.cpuContributing++
		}

		m.memMax = math.Max(m.memMax, rec.MemMaxMB)
		m.memP95 = math.Max(m.memP95, rec.MemP95MB)
		m.memP90 = math.Max(m.memP90, rec.MemP90MB)
		m.memMedian = math.Max(m.memMedian, rec.MemMedianMB)

		m.cpuMax = maxInt64(m.cpuMax, rec.CPUMaxMilli)
		m.cpuP95 = maxInt64(m.cpuP95, rec.CPUP95Milli)
		m.cpuP90 = maxInt64(m.cpuP90, rec.CPUP90Milli)
		m.cpuMedian = maxInt64(m.cpuMedian, rec.CPUMedianMilli)
	}
	return order, maxima
}

func recommendStep(step string, m *stepMaxima, base models.Base, marginPct int) models.StepRecommendation {
	memBase := m.memBase(base)
	cpuBase := float64(m.cpuBase(base))

	// Margin on top of the base, but never beyond the single worst
	// observation ever seen for this step.
	memRaw := math.Min(m.memMax, memBase*(1+float64(marginPct)/100))
	cpuRaw := math.Min(float64(m.cpuMax), cpuBase*(1+float64(marginPct)/100))

	memRounded := RoundMemoryMB(memRaw)
	cpuRounded := RoundCPUMilli(cpuRaw)

	return models.StepRecommendation{
		Step: step,
		Memory: models.ResourceRecommendation{
			Kind:         models.KindMemory,
			Base:         base,
			MarginPct:    marginPct,
			RawValue:     memRaw,
			RoundedValue: memRounded,
			Kubernetes:   MemoryK8s(memRounded),
			Coverage:     m.memContributing,
			ClusterCount: m.clusterRows,
		},
		CPU: models.ResourceRecommendation{
			Kind:         models.KindCPU,
			Base:         base,
			MarginPct:    marginPct,
			RawValue:     cpuRaw,
			RoundedValue: float64(cpuRounded),
			Kubernetes:   CPUK8s(cpuRounded),
			Coverage:     m.cpuContributing,
			ClusterCount: m.clusterRows,
		},
		MemMaxMB:       m.memMax,
		MemP95MB:       m.memP95,
		MemP90MB:       m.memP90,
		MemMedianMB:    m.memMedian,
		CPUMaxMilli:    m.cpuMax,
		CPUP95Milli:    m.cpuP95,
		CPUP90Milli:    m.cpuP90,
		CPUMedianMilli: m.cpuMedian,
	}
}

// memBase picks the base statistic, falling back to the maximum when a
// percentile was never observed (all-zero), mirroring how the collection
// side degrades failed statistics to zero.
func (m *stepMaxima) memBase(base models.Base) float64 {
	v := m.memMax
	switch base {
	case models.BaseP95:
		v = m.memP95
	case models.BaseP90:
		v = m.memP90
	case models.BaseMedian:
		v = m.memMedian
	}
	if v == 0 {
		v = m.memMax
	}
	return v
}

func (m *stepMaxima) cpuBase(base models.Base) int64 {
	v := m.cpuMax
	switch base {
	case models.BaseP95:
		v = m.cpuP95
	case models.BaseP90:
		v = m.cpuP90
	case models.BaseMedian:
		v = m.cpuMedian
	}
	if v == 0 {
		v = m.cpuMax
	}
	return v
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
