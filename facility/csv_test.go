// Copyright 2026 The MapaSalud Authors
// SPDX-License-Identifier: Apache-2.0

package facility

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadNormalizesAliasedColumns(t *testing.T) {
	in := strings.Join([]string{
		"id,name,address_latitude,address_longitude,address,address_city,specialization,capacity,phone,type",
		`17,Hospital X,40.4,-3.7,Calle Mayor 1,Madrid,"Cardiología, Pediatría",120,+34911111111,Hospital`,
		"18,Clinica Y,,,Av. del Puerto 2,Valencia,,,,",
	}, "\n")

	facilities, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}

	if len(facilities) != 2 {
		t.Fatalf("expected 2 facilities, got %d", len(facilities))
	}

	f := facilities[0]
	if f.ID != "17" || f.Name != "Hospital X" || f.City != "Madrid" {
		t.Errorf("unexpected first facility: %+v", f)
	}

	if !f.HasCoordinates() || *f.Lat != 40.4 || *f.Lng != -3.7 {
		t.Errorf("coordinates not parsed: %+v", f)
	}

	if diff := cmp.Diff([]string{"Cardiología", "Pediatría"}, f.Specialties); diff != "" {
		t.Errorf("specialties mismatch (-want +got):\n%s", diff)
	}

	if facilities[1].HasCoordinates() {
		t.Errorf("empty coordinates should stay nil: %+v", facilities[1])
	}
}

func TestReadRejectsTableWithoutName(t *testing.T) {
	_, err := Read(strings.NewReader("foo,bar\n1,2\n"))
	if !errors.Is(err, ErrNoNameField) {
		t.Fatalf("expected ErrNoNameField, got %v", err)
	}
}

func TestReadRejectsEmptyTable(t *testing.T) {
	for _, in := range []string{"", "name,latitude,longitude\n"} {
		if _, err := Read(strings.NewReader(in)); !errors.Is(err, ErrEmptyTable) {
			t.Errorf("input %q: expected ErrEmptyTable, got %v", in, err)
		}
	}
}

func TestReadUnparseableCoordinateIsMissing(t *testing.T) {
	in := "name,latitude,longitude\nHospital X,not-a-number,-3.7\n"

	facilities, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}

	if facilities[0].Lat != nil {
		t.Errorf("garbage latitude should be nil, got %v", *facilities[0].Lat)
	}

	if facilities[0].Lng == nil {
		t.Error("valid longitude should be kept")
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	lat, lng := 40.4, -3.7
	facilities := []*Facility{
		{
			ID: "17", Name: "Hospital X", Lat: &lat, Lng: &lng,
			Address: "Calle Mayor 1", City: "Madrid",
			Specialties: []string{"Cardiología"},
			Capacity:    "120", Phone: "+34911111111", Type: "Hospital",
		},
		{ID: "18", Name: "Clinica Y", City: "Valencia"},
	}

	path := filepath.Join(t.TempDir(), "data", "facilities.csv")
	if err := WriteFile(path, facilities); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}

	if diff := cmp.Diff(facilities, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteNeverFabricatesCoordinates(t *testing.T) {
	var buf bytes.Buffer

	if err := Write(&buf, []*Facility{{Name: "Clinica Y"}}); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}

	if !strings.Contains(lines[1], "Clinica Y,,,") {
		t.Errorf("missing coordinates should serialize as empty fields: %q", lines[1])
	}
}
