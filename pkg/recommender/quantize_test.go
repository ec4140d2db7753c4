package recommender

import (
	"testing"
)

func TestRoundMemoryMB(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"floor applies to tiny values", 1, 64},
		{"floor applies to zero", 0, 64},
		{"exact multiple stays", 128, 128},
		{"rounds up within 64Mi ladder", 129, 192},
		{"just below the floor", 63.2, 64},
		{"fraction above a multiple rounds up", 64.5, 128},
		{"just below 1Gi", 1000, 1024},
		{"exactly 1Gi", 1024, 1024},
		{"above 1Gi rounds to whole Gi", 1100, 2048},
		{"rounding down would undershoot", 3300, 4096},
		{"near a Gi boundary from above", 2049, 3072},
		{"whole Gi stays", 4096, 4096},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundMemoryMB(tt.in)
			if got != tt.want {
				t.Errorf("RoundMemoryMB(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if got < tt.in {
				t.Errorf("RoundMemoryMB(%v) = %v rounded below the input", tt.in, got)
			}
		})
	}
}

func TestRoundCPUMilli(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{0, 50},
		{1, 50},
		{50, 50},
		{51, 100},
		{149.2, 150},
		{150, 150},
		{1000, 1000},
		{1001, 1050},
	}

	for _, tt := range tests {
		got := RoundCPUMilli(tt.in)
		if got != tt.want {
			t.Errorf("RoundCPUMilli(%v) = %v, want %v", tt.in, got, tt.want)
		}
		if float64(got) < tt.in {
			t.Errorf("RoundCPUMilli(%v) = %v rounded below the input", tt.in, got)
		}
	}
}

func TestKubernetesRendering(t *testing.T) {
	if got := MemoryK8s(512); got != "512Mi" {
		t.Errorf("MemoryK8s(512) = %q, want 512Mi", got)
	}
	if got := MemoryK8s(4096); got != "4Gi" {
		t.Errorf("MemoryK8s(4096) = %q, want 4Gi", got)
	}
	if got := CPUK8s(150); got != "150m" {
		t.Errorf("CPUK8s(150) = %q, want 150m", got)
	}
	if got := CPUK8s(50); got != "50m" {
		t.Errorf("CPUK8s(50) = %q, want 50m", got)
	}
}
