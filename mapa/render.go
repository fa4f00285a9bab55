// Copyright 2026 The MapaSalud Authors
// SPDX-License-Identifier: Apache-2.0

// Package mapa renders the corrected facility table as a standalone
// Leaflet map and serves it locally.
package mapa

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"sort"

	"github.com/aruidiaz/mapasalud/coords"
	"github.com/aruidiaz/mapasalud/correction"
	"github.com/aruidiaz/mapasalud/facility"
	"github.com/aruidiaz/mapasalud/utils"
	h3 "github.com/uber/h3-go/v4"
)

// groupResolution is the H3 resolution used to merge co-located
// facilities into a single marker. Res 12 cells are ~300m² so only
// facilities at effectively the same address share a marker.
const groupResolution = 12

// marker is one map pin, possibly covering several facilities.
type marker struct {
	Cell       string               `json:"cell"`
	Lat        float64              `json:"lat"`
	Lng        float64              `json:"lng"`
	Facilities []*facility.Facility `json:"facilities"`
}

// Stats is the overview shown on the map and served as JSON.
type Stats struct {
	Total    int            `json:"total"`
	Mapped   int            `json:"mapped"`
	Markers  int            `json:"markers"`
	Skipped  int            `json:"skipped"`
	Defects  map[string]int `json:"defects,omitempty"`
	Outcomes map[string]int `json:"outcomes,omitempty"`
}

// buildMarkers keeps only facilities that carry coordinates inside the
// country rectangle and folds same-cell facilities into one marker.
func buildMarkers(facilities []*facility.Facility, bounds coords.Bounds) ([]marker, error) {
	groups := make(map[h3.Cell][]*facility.Facility)

	for _, f := range facilities {
		if !f.HasCoordinates() || !bounds.Contains(*f.Lat, *f.Lng) {
			continue
		}

		cell, err := h3.LatLngToCell(h3.NewLatLng(*f.Lat, *f.Lng), groupResolution)
		if err != nil {
			return nil, fmt.Errorf("computing cell for %q: %w", f.Name, err)
		}

		groups[cell] = append(groups[cell], f)
	}

	markers := make([]marker, 0, len(groups))

	for cell, members := range groups {
		var lat, lng float64
		for _, f := range members {
			lat += *f.Lat
			lng += *f.Lng
		}

		markers = append(markers, marker{
			Cell:       cell.String(),
			Lat:        lat / float64(len(members)),
			Lng:        lng / float64(len(members)),
			Facilities: members,
		})
	}

	// Map output must be stable across runs.
	sort.Slice(markers, func(i, j int) bool { return markers[i].Cell < markers[j].Cell })

	return markers, nil
}

func buildStats(total, mapped, markerCount int, report *correction.Report) Stats {
	stats := Stats{
		Total:   total,
		Mapped:  mapped,
		Markers: markerCount,
		Skipped: total - mapped,
	}

	if report != nil {
		stats.Defects = report.DefectCounts()
		stats.Outcomes = report.OutcomeCounts()
	}

	return stats
}

// templateData is what the page template consumes.
type templateData struct {
	Stats        Stats
	TotalPretty  string
	MappedPretty string
	MarkersJSON  template.JS
}

// Render writes a self-contained Leaflet HTML page for the given
// facilities. The report is optional; when present its counters are
// shown in the stats overlay.
func Render(w io.Writer, facilities []*facility.Facility, report *correction.Report) error {
	markers, err := buildMarkers(facilities, coords.SpainBounds)
	if err != nil {
		return err
	}

	mapped := 0
	for _, m := range markers {
		mapped += len(m.Facilities)
	}

	log.Printf("Rendering map: %d facilities, %d mapped, %d markers",
		len(facilities), mapped, len(markers))

	payload, err := json.Marshal(markers)
	if err != nil {
		return fmt.Errorf("encoding markers: %w", err)
	}

	data := templateData{
		Stats:        buildStats(len(facilities), mapped, len(markers), report),
		TotalPretty:  utils.FormatInt(int64(len(facilities))),
		MappedPretty: utils.FormatInt(int64(mapped)),
		MarkersJSON:  template.JS(payload),
	}

	if err := pageTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("rendering map: %w", err)
	}

	return nil
}
