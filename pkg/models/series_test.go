package models

import (
	"reflect"
	"testing"
	"time"
)

func TestSeriesMaxValue(t *testing.T) {
	now := time.Now()
	s := Series{
		Labels: map[string]string{"pod": "p1", "namespace": "ns1"},
		Points: []Point{
			{Timestamp: now, Value: 10},
			{Timestamp: now.Add(time.Minute), Value: 42},
			{Timestamp: now.Add(2 * time.Minute), Value: 7},
		},
	}
	if got := s.MaxValue(); got != 42 {
		t.Errorf("MaxValue() = %v, want 42", got)
	}
	if got := (Series{}).MaxValue(); got != 0 {
		t.Errorf("empty series MaxValue() = %v, want 0", got)
	}
}

func TestPodSetDeduplicates(t *testing.T) {
	set := NewPodSet()
	set.Add("pod-b", "ns1")
	set.Add("pod-a", "ns2")
	set.Add("pod-b", "other-ns") // duplicate, first namespace wins
	set.Add("", "ns3")           // nameless series is dropped

	if set.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", set.Len())
	}
	if !set.Contains("pod-a") || !set.Contains("pod-b") {
		t.Error("expected both pods to be members")
	}
	if set.Contains("pod-c") {
		t.Error("pod-c should not be a member")
	}
	if got := set.Namespace("pod-b"); got != "ns1" {
		t.Errorf("Namespace(pod-b) = %q, want the first-seen ns1", got)
	}
	if got := set.Names(); !reflect.DeepEqual(got, []string{"pod-a", "pod-b"}) {
		t.Errorf("Names() = %v, want sorted [pod-a pod-b]", got)
	}
}

func TestStepRecordEmpty(t *testing.T) {
	if !(StepRecord{Cluster: "c1", Task: "t", Step: "s"}).Empty() {
		t.Error("a record with no measurements should be empty")
	}
	if (StepRecord{MemMaxMB: 100, MemMaxPod: "p1"}).Empty() {
		t.Error("a record with a memory maximum is not empty")
	}
}
