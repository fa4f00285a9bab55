// Copyright 2026 The MapaSalud Authors
// SPDX-License-Identifier: Apache-2.0

// Package coords diagnoses why a facility coordinate pair is unusable.
package coords

import "math"

// Defect is the categorical diagnosis of a coordinate pair.
type Defect int

const (
	// Valid coordinates, inside the configured bounds.
	Valid Defect = iota
	// Missing latitude or longitude (absent or NaN).
	Missing
	// Zero is the (0.0, 0.0) null-island pair.
	Zero
	// Extreme magnitudes that no real coordinate can have (e.g. 4.04427e15).
	Extreme
	// Default is the (1.0, 1.0) placeholder some upstream forms write.
	Default
	// OutOfBounds is a numerically sane pair outside the country rectangle.
	OutOfBounds
)

func (d Defect) String() string {
	switch d {
	case Valid:
		return "valid"
	case Missing:
		return "missing"
	case Zero:
		return "zero"
	case Extreme:
		return "extreme"
	case Default:
		return "default"
	case OutOfBounds:
		return "out_of_bounds"
	default:
		return "unknown"
	}
}

// IsDefective reports whether the pair needs correction.
func (d Defect) IsDefective() bool {
	return d != Valid
}

// Defects lists every classification in report order.
var Defects = []Defect{Valid, Missing, Zero, Extreme, Default, OutOfBounds}

// Bounds is the geographic rectangle used to flag implausible coordinates.
type Bounds struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// Contains reports whether the point falls inside the rectangle, borders included.
func (b Bounds) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat &&
		lng >= b.MinLng && lng <= b.MaxLng
}

// SpainBounds covers peninsular Spain with margin. Canarias falls outside;
// facilities there come back as OutOfBounds and get resolved via the
// correction table.
var SpainBounds = Bounds{
	MinLat: 35,
	MaxLat: 44,
	MinLng: -10,
	MaxLng: 5,
}

const (
	// Tolerance when comparing against the 0.0 and 1.0 sentinel pairs.
	sentinelTolerance = 1e-9

	// DefaultExtremeLimit flags magnitudes no geographic coordinate reaches.
	DefaultExtremeLimit = 1000
)

// Classifier classifies coordinate pairs against a bounding rectangle.
// The zero value is not useful; use NewClassifier.
type Classifier struct {
	Bounds       Bounds
	ExtremeLimit float64
}

// NewClassifier returns a classifier with the Spain defaults.
func NewClassifier() *Classifier {
	return &Classifier{
		Bounds:       SpainBounds,
		ExtremeLimit: DefaultExtremeLimit,
	}
}

func near(v, sentinel float64) bool {
	return math.Abs(v-sentinel) < sentinelTolerance
}

// Classify diagnoses a coordinate pair. Rules are evaluated in priority
// order and the first match wins. Nil stands for a value absent from the
// source table. The function is total: any input maps to some Defect.
func (c *Classifier) Classify(lat, lng *float64) Defect {
	if lat == nil || lng == nil || math.IsNaN(*lat) || math.IsNaN(*lng) {
		return Missing
	}

	la, ln := *lat, *lng

	if near(la, 0) && near(ln, 0) {
		return Zero
	}

	if math.IsInf(la, 0) || math.IsInf(ln, 0) ||
		math.Abs(la) > c.ExtremeLimit || math.Abs(ln) > c.ExtremeLimit {
		return Extreme
	}

	if near(la, 1) && near(ln, 1) {
		return Default
	}

	if !c.Bounds.Contains(la, ln) {
		return OutOfBounds
	}

	return Valid
}
