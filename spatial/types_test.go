// Copyright 2026 The MapaSalud Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"math"
	"testing"
)

func TestHaversineDistance(t *testing.T) {
	tests := []struct {
		name string
		a    Point
		b    Point
		want float64 // meters
		tol  float64
	}{
		{
			name: "same point",
			a:    Point{Lat: 40.4168, Lng: -3.7038},
			b:    Point{Lat: 40.4168, Lng: -3.7038},
			want: 0,
			tol:  0.001,
		},
		{
			name: "madrid to barcelona",
			a:    Point{Lat: 40.4168, Lng: -3.7038},
			b:    Point{Lat: 41.3851, Lng: 2.1734},
			want: 504600,
			tol:  2000,
		},
		{
			name: "short hop within a city",
			a:    Point{Lat: 40.4168, Lng: -3.7038},
			b:    Point{Lat: 40.4178, Lng: -3.7038},
			want: 111,
			tol:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.HaversineDistance(&tt.b)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("HaversineDistance() = %f, want %f ± %f", got, tt.want, tt.tol)
			}
		})
	}
}

func TestPointString(t *testing.T) {
	p := Point{Lat: 40.4168, Lng: -3.7038}
	if got, want := p.String(), "POINT(-3.703800 40.416800)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
