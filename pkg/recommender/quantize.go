package recommender

import (
	"math"

	"k8s.io/apimachinery/pkg/api/resource"
)

// Platform-friendly quanta. Memory below 1Gi moves in 64Mi increments and
// whole Gi above; CPU moves in 50m increments. Both have floors so a tiny
// observation still yields a schedulable value.
const (
	MinMemoryMB  = 64
	MemoryStepMB = 64
	GiBInMB      = 1024
	MinCPUMilli  = 50
	CPUStepMilli = 50
)

// RoundMemoryMB rounds a raw MB value up to the standard ladder:
// 64Mi increments below 1Gi, whole Gi at or above. Never rounds below the
// input and never below the 64Mi floor.
func RoundMemoryMB(mb float64) float64 {
	if mb < MinMemoryMB {
		return MinMemoryMB
	}

	if mb < GiBInMB {
		whole := int64(math.Ceil(mb))
		rounded := ((whole + MemoryStepMB - 1) / MemoryStepMB) * MemoryStepMB
		if rounded < MinMemoryMB {
			rounded = MinMemoryMB
		}
		return float64(rounded)
	}

	gi := math.Round(mb / GiBInMB)
	if gi*GiBInMB < mb {
		gi++
	}
	return gi * GiBInMB
}

// RoundCPUMilli rounds raw millicores up to the next 50m increment, with a
// 50m floor.
func RoundCPUMilli(milli float64) int64 {
	if milli < MinCPUMilli {
		return MinCPUMilli
	}
	whole := int64(math.Ceil(milli))
	return ((whole + CPUStepMilli - 1) / CPUStepMilli) * CPUStepMilli
}

// MemoryK8s renders a rounded MB value as a Kubernetes quantity, e.g.
// "512Mi" or "4Gi".
func MemoryK8s(roundedMB float64) string {
	return resource.NewQuantity(int64(roundedMB)*1024*1024, resource.BinarySI).String()
}

// CPUK8s renders millicores as a Kubernetes quantity, e.g. "150m".
func CPUK8s(milli int64) string {
	return resource.NewMilliQuantity(milli, resource.DecimalSI).String()
}
