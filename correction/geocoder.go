// Copyright 2026 The MapaSalud Authors
// SPDX-License-Identifier: Apache-2.0

package correction

// GeocodingResult represents a geocoding result from any provider.
type GeocodingResult struct {
	Latitude    float64
	Longitude   float64
	Confidence  string // high, medium, low
	Provider    string
	DisplayName string
}

// Geocoder interface for different geocoding providers. Every call
// consumes one unit of the external quota; callers guard it with the
// correction-table lookup and the run budget.
type Geocoder interface {
	Geocode(query string) (*GeocodingResult, error)
}
