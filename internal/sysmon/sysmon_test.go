package sysmon

import "testing"

func TestSample_ReturnsValidRanges(t *testing.T) {
	t.Parallel()
	for i := 0; i < 2; i++ {
		s := Sample()
		if s.CPUPercent < 0 || s.CPUPercent > 100 {
			t.Errorf("CPUPercent out of range: %f", s.CPUPercent)
		}
		if s.MemPercent < 0 || s.MemPercent > 100 {
			t.Errorf("MemPercent out of range: %f", s.MemPercent)
		}
	}
}

func TestClamp(t *testing.T) {
	t.Parallel()
	tests := []struct{ in, want float64 }{{-1, 0}, {0, 0}, {42.5, 42.5}, {100, 100}, {101, 100}}
	for _, tt := range tests {
		if got := clamp(tt.in); got != tt.want {
			t.Errorf("clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
