// Copyright 2026 The MapaSalud Authors
// SPDX-License-Identifier: Apache-2.0

package coords

import (
	"math"
	"testing"
)

func f(v float64) *float64 { return &v }

func TestClassify(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name string
		lat  *float64
		lng  *float64
		want Defect
	}{
		{"both missing", nil, nil, Missing},
		{"latitude missing", nil, f(-3.7), Missing},
		{"longitude missing", f(40.0), nil, Missing},
		{"nan latitude", f(math.NaN()), f(-3.7), Missing},
		{"nan longitude", f(40.0), f(math.NaN()), Missing},
		{"zero island", f(0.0), f(0.0), Zero},
		{"zero within tolerance", f(1e-12), f(-1e-12), Zero},
		{"zero latitude only is out of bounds", f(0.0), f(-3.7), OutOfBounds},
		{"default placeholder", f(1.0), f(1.0), Default},
		{"default within tolerance", f(1.0 + 1e-12), f(1.0), Default},
		{"extreme magnitude", f(4044270000000000.0), f(0.0), Extreme},
		{"extreme negative", f(-1e6), f(2.0), Extreme},
		{"extreme longitude", f(40.0), f(1001.0), Extreme},
		{"positive infinity", f(math.Inf(1)), f(-3.7), Extreme},
		{"madrid", f(40.0), f(-3.7), Valid},
		{"barcelona", f(41.3851), f(2.1734), Valid},
		{"north of spain", f(50.0), f(-3.7), OutOfBounds},
		{"canarias is out of the peninsular box", f(28.1235), f(-15.4366), OutOfBounds},
		{"south boundary inclusive", f(35.0), f(0.0), Valid},
		{"north boundary inclusive", f(44.0), f(0.0), Valid},
		{"west boundary inclusive", f(40.0), f(-10.0), Valid},
		{"east boundary inclusive", f(40.0), f(5.0), Valid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.lat, tt.lng); got != tt.want {
				t.Errorf("Classify(%v, %v) = %s, want %s", tt.lat, tt.lng, got, tt.want)
			}
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := NewClassifier()

	lat, lng := f(0.0), f(0.0)
	first := c.Classify(lat, lng)

	for i := 0; i < 10; i++ {
		if got := c.Classify(lat, lng); got != first {
			t.Fatalf("Classify() changed between calls: %s then %s", first, got)
		}
	}
}

func TestClassifyCustomThresholds(t *testing.T) {
	c := &Classifier{
		Bounds:       Bounds{MinLat: 36.8, MaxLat: 42.2, MinLng: -9.6, MaxLng: -6.1},
		ExtremeLimit: 100,
	}

	if got := c.Classify(f(38.7223), f(-9.1393)); got != Valid {
		t.Errorf("lisboa should be valid under portugal bounds, got %s", got)
	}

	if got := c.Classify(f(40.0), f(-3.7)); got != OutOfBounds {
		t.Errorf("madrid should be out of portugal bounds, got %s", got)
	}

	if got := c.Classify(f(101.0), f(-8.0)); got != Extreme {
		t.Errorf("lowered extreme limit should flag 101, got %s", got)
	}
}

func TestDefectString(t *testing.T) {
	for _, d := range Defects {
		if d.String() == "unknown" {
			t.Errorf("defect %d has no name", d)
		}
	}

	if !Missing.IsDefective() || Valid.IsDefective() {
		t.Error("IsDefective() misclassifies terminal states")
	}
}
