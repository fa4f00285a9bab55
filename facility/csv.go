// Copyright 2026 The MapaSalud Authors
// SPDX-License-Identifier: Apache-2.0

package facility

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Errors returned while reading the raw facility table. A missing or
// malformed table is fatal for the run; there is no partial processing.
var (
	ErrEmptyTable  = errors.New("facility table has no rows")
	ErrNoNameField = errors.New("facility table has no recognizable name column")
)

// Read parses a comma-separated facility table. Column headers are
// normalized against the known aliases; unknown columns are ignored.
// Text fields go through mojibake repair.
func Read(r io.Reader) ([]*Facility, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyTable
		}

		return nil, fmt.Errorf("reading facility table header: %w", err)
	}

	// canonical column name -> field index
	cols := make(map[string]int, len(header))

	for i, h := range header {
		if canonical := NormalizeColumn(h); canonical != "" {
			if _, dup := cols[canonical]; !dup {
				cols[canonical] = i
			}
		}
	}

	if _, ok := cols["facility_name"]; !ok {
		return nil, ErrNoNameField
	}

	field := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}

		return strings.TrimSpace(record[i])
	}

	var facilities []*Facility

	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("reading facility table line %d: %w", line, err)
		}

		f := &Facility{
			ID:          field(record, "facility_id"),
			Name:        FixMojibake(field(record, "facility_name")),
			Lat:         parseCoordinate(field(record, "latitude")),
			Lng:         parseCoordinate(field(record, "longitude")),
			Address:     FixMojibake(field(record, "address")),
			City:        FixMojibake(field(record, "city")),
			Specialties: splitSpecialties(FixMojibake(field(record, "specialization"))),
			Capacity:    field(record, "capacity"),
			Phone:       field(record, "phone"),
			Type:        FixMojibake(field(record, "type")),
		}

		facilities = append(facilities, f)
	}

	if len(facilities) == 0 {
		return nil, ErrEmptyTable
	}

	return facilities, nil
}

// ReadFile reads the facility table at path.
func ReadFile(path string) ([]*Facility, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("opening facility table: %w", err)
	}
	defer f.Close()

	facilities, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return facilities, nil
}

// Write serializes facilities to a comma-separated table using the
// canonical schema. Coordinates are left empty when absent; nothing is
// ever fabricated to fill the column.
func Write(w io.Writer, facilities []*Facility) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(canonicalColumns); err != nil {
		return fmt.Errorf("writing facility table header: %w", err)
	}

	for _, f := range facilities {
		record := []string{
			f.ID,
			f.Name,
			formatCoordinate(f.Lat),
			formatCoordinate(f.Lng),
			f.Address,
			f.City,
			strings.Join(f.Specialties, ", "),
			f.Capacity,
			f.Phone,
			f.Type,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing facility %q: %w", f.Name, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// WriteFile writes the facility table to path, creating parent
// directories as needed.
func WriteFile(path string, facilities []*Facility) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("creating facility table: %w", err)
	}

	werr := Write(f, facilities)

	return errors.Join(werr, f.Close())
}

func parseCoordinate(s string) *float64 {
	if s == "" {
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Unparseable coordinate text is the same as no coordinate.
		return nil
	}

	return &v
}

func formatCoordinate(v *float64) string {
	if v == nil {
		return ""
	}

	return strconv.FormatFloat(*v, 'f', -1, 64)
}
