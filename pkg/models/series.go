package models

import (
	"sort"
	"time"
)

// Point is a single sample from a range query.
type Point struct {
	Timestamp time.Time
	Value     float64
}

// Series is one labeled time series returned by a range query.
type Series struct {
	Labels map[string]string
	Points []Point
}

// Pod returns the pod label, or "" when the backend did not set one.
func (s Series) Pod() string {
	return s.Labels["pod"]
}

// Namespace returns the namespace label, or "" when not set.
func (s Series) Namespace() string {
	return s.Labels["namespace"]
}

// MaxValue returns the largest sample value in the series, 0 when empty.
func (s Series) MaxValue() float64 {
	max := 0.0
	for _, p := range s.Points {
		if p.Value > max {
			max = p.Value
		}
	}
	return max
}

// PodSet is the deduplicated set of pods discovered for one
// (task, cluster, window) triple. It is built once by discovery and then
// acts as the membership oracle for everything the aggregator attributes:
// a statistic must never be credited to a pod outside this set.
type PodSet struct {
	namespaces map[string]string // pod name -> namespace
}

// NewPodSet returns an empty pod set.
func NewPodSet() *PodSet {
	return &PodSet{namespaces: make(map[string]string)}
}

// Add records a pod and its namespace. Re-adding an existing pod is a no-op
// so that overlapping discovery series do not duplicate members.
func (p *PodSet) Add(pod, namespace string) {
	if pod == "" {
		return
	}
	if _, ok := p.namespaces[pod]; !ok {
		p.namespaces[pod] = namespace
	}
}

// Contains reports whether pod was part of the original discovery.
func (p *PodSet) Contains(pod string) bool {
	_, ok := p.namespaces[pod]
	return ok
}

// Namespace returns the namespace recorded for pod, "" if unknown.
func (p *PodSet) Namespace(pod string) string {
	return p.namespaces[pod]
}

// Names returns all pod names in sorted order, for deterministic batching.
func (p *PodSet) Names() []string {
	names := make([]string, 0, len(p.namespaces))
	for name := range p.namespaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of pods in the set.
func (p *PodSet) Len() int {
	return len(p.namespaces)
}
