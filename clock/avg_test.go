package clock

import (
	"math"
	"testing"
)

func TestNewMovingAverageValidation(t *testing.T) {
	tests := []struct {
		name    string
		window  int
		wantErr bool
	}{
		{"positive", 60, false},
		{"one", 1, false},
		{"zero", 0, true},
		{"negative", -5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMovingAverage(tt.window)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewMovingAverage(%d) error = nil, want error", tt.window)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewMovingAverage(%d) error = %v", tt.window, err)
			}
			if m.Window() != tt.window {
				t.Errorf("Window() = %d, want %d", m.Window(), tt.window)
			}
		})
	}
}

func TestMovingAverageEmpty(t *testing.T) {
	m, err := NewMovingAverage(4)
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Average(); got != 0 {
		t.Errorf("Average() on empty buffer = %v, want 0", got)
	}
	if got := m.Count(); got != 0 {
		t.Errorf("Count() on empty buffer = %d, want 0", got)
	}
}

// TestMovingAverageMatchesMean verifies that for any push sequence,
// including wraparound past the window, the reported average equals the
// arithmetic mean of the last min(count, window) samples.
func TestMovingAverageMatchesMean(t *testing.T) {
	tests := []struct {
		name    string
		window  int
		samples []float64
	}{
		{"partial fill", 4, []float64{1, 2, 3}},
		{"exact fill", 4, []float64{1, 2, 3, 4}},
		{"single wraparound", 4, []float64{1, 2, 3, 4, 5}},
		{"many wraparounds", 3, []float64{10, 20, 30, 40, 50, 60, 70, 80}},
		{"window one", 1, []float64{5, 7, 9}},
		{"constant", 8, []float64{2, 2, 2, 2, 2, 2, 2, 2, 2, 2}},
		{"negative values", 4, []float64{-1, -2, 3, -4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMovingAverage(tt.window)
			if err != nil {
				t.Fatal(err)
			}
			for i, v := range tt.samples {
				m.Push(v)

				lo := 0
				if i+1 > tt.window {
					lo = i + 1 - tt.window
				}
				var sum float64
				for _, s := range tt.samples[lo : i+1] {
					sum += s
				}
				want := sum / float64(i+1-lo)

				if got := m.Average(); math.Abs(got-want) > 1e-9 {
					t.Fatalf("after %d pushes: Average() = %v, want %v", i+1, got, want)
				}
				if wantCount := i + 1 - lo; m.Count() != wantCount {
					t.Fatalf("after %d pushes: Count() = %d, want %d", i+1, m.Count(), wantCount)
				}
			}
		})
	}
}

func TestMovingAverageReset(t *testing.T) {
	m, err := NewMovingAverage(3)
	if err != nil {
		t.Fatal(err)
	}
	m.Push(1)
	m.Push(2)
	m.Reset()

	if got := m.Count(); got != 0 {
		t.Errorf("Count() after Reset = %d, want 0", got)
	}
	if got := m.Average(); got != 0 {
		t.Errorf("Average() after Reset = %v, want 0", got)
	}

	m.Push(6)
	if got := m.Average(); got != 6 {
		t.Errorf("Average() after Reset and Push = %v, want 6", got)
	}
}
