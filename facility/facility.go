// Copyright 2026 The MapaSalud Authors
// SPDX-License-Identifier: Apache-2.0

// Package facility models healthcare facility records and their table I/O.
package facility

import (
	"strings"
)

// Facility is a healthcare location record. Latitude and longitude stay
// nil until the source table provides a parseable value; validation is
// the coords package's job.
type Facility struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Lat         *float64 `json:"latitude"`
	Lng         *float64 `json:"longitude"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	Specialties []string `json:"specialization"`
	Capacity    string   `json:"capacity"`
	Phone       string   `json:"phone"`
	Type        string   `json:"type"`
}

// HasCoordinates reports whether both coordinate fields are present.
func (f *Facility) HasCoordinates() bool {
	return f.Lat != nil && f.Lng != nil
}

// GeocodeQuery builds the free-text query used against the geocoding
// backend: "address, city, Spain", falling back to the facility name when
// the address fields are empty.
func (f *Facility) GeocodeQuery() string {
	parts := make([]string, 0, 3)

	for _, s := range []string{f.Address, f.City} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}

	if len(parts) == 0 {
		if name := strings.TrimSpace(f.Name); name != "" {
			parts = append(parts, name)
		}
	}

	if len(parts) == 0 {
		return ""
	}

	return strings.Join(parts, ", ") + ", Spain"
}

// columnAliases maps the header names seen in the wild to the fixed
// internal schema. Headers are matched after lowercasing and replacing
// spaces with underscores.
var columnAliases = map[string]string{
	"id":                "facility_id",
	"facility_id":       "facility_id",
	"name":              "facility_name",
	"facility_name":     "facility_name",
	"public_name":       "facility_name",
	"latitude":          "latitude",
	"address_latitude":  "latitude",
	"longitude":         "longitude",
	"address_longitude": "longitude",
	"address":           "address",
	"city":              "city",
	"address_city":      "city",
	"specialization":    "specialization",
	"capacity":          "capacity",
	"phone":             "phone",
	"type":              "type",
}

// canonicalColumns is the fixed schema every table is normalized to.
var canonicalColumns = []string{
	"facility_id",
	"facility_name",
	"latitude",
	"longitude",
	"address",
	"city",
	"specialization",
	"capacity",
	"phone",
	"type",
}

// NormalizeColumn resolves a raw header name to its canonical column
// name. Unknown columns map to "" and are ignored by the reader.
func NormalizeColumn(header string) string {
	h := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(header)), " ", "_")

	return columnAliases[h]
}

// splitSpecialties breaks a comma-separated specialization list.
func splitSpecialties(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	ret := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ret = append(ret, p)
		}
	}

	return ret
}
