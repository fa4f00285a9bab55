// Copyright 2026 The MapaSalud Authors
// SPDX-License-Identifier: Apache-2.0

// Package correction repairs defective facility coordinates: it keeps
// the durable correction table, wraps the geocoding backend, and runs
// the per-facility resolution state machine.
package correction

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/aruidiaz/mapasalud/utils"
)

// storeHeader is the on-disk column set. The semicolon separator
// distinguishes the correction table from the comma-separated primary
// data and is relied upon by external tooling; do not change it.
var storeHeader = []string{"Nombre_Original", "Latitud_Corregida", "Longitud_Corregida"}

// Record is one resolved correction: the original facility name is the
// join key against the raw table.
type Record struct {
	Name string
	Lat  float64
	Lng  float64
}

// Store is the durable name -> corrected coordinates table. It is owned
// by a single Checker for the duration of a run; it is not safe for
// concurrent use.
type Store struct {
	path    string
	records map[string]Record // keyed by folded name, latest write wins
	existed bool
}

// LoadStore reads the correction table at path. A missing file is not
// an error: it yields an empty store that will be created on Save.
// Malformed lines are logged and skipped, never fatal.
func LoadStore(path string) (*Store, error) {
	s := &Store{
		path:    path,
		records: make(map[string]Record),
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}

		return nil, fmt.Errorf("opening correction table: %w", err)
	}
	defer f.Close()

	s.existed = true

	if err := s.read(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return s, nil
}

func (s *Store) read(r io.Reader) error {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil // empty file behaves like a missing one
		}

		return fmt.Errorf("reading correction header: %w", err)
	}

	// Column positions by name: older files may carry extra manual
	// curation columns, which are ignored.
	idx := map[string]int{}
	for i, h := range header {
		idx[h] = i
	}

	name, okName := idx["Nombre_Original"]
	lat, okLat := idx["Latitud_Corregida"]
	lng, okLng := idx["Longitud_Corregida"]

	if !okName || !okLat || !okLng {
		return fmt.Errorf("correction table missing required columns, got %v", header)
	}

	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			log.Printf("Skipping malformed correction line %d: %s", line, err)

			continue
		}

		if name >= len(record) || lat >= len(record) || lng >= len(record) {
			log.Printf("Skipping short correction line %d", line)

			continue
		}

		la, errLat := strconv.ParseFloat(record[lat], 64)
		ln, errLng := strconv.ParseFloat(record[lng], 64)

		if record[name] == "" || errLat != nil || errLng != nil {
			log.Printf("Skipping malformed correction line %d: %q", line, record)

			continue
		}

		s.records[utils.LowerASCIIFolding(record[name])] = Record{
			Name: record[name],
			Lat:  la,
			Lng:  ln,
		}
	}

	return nil
}

// Existed reports whether the table file was present when loaded.
func (s *Store) Existed() bool {
	return s.existed
}

// Len returns the number of corrections held.
func (s *Store) Len() int {
	return len(s.records)
}

// Lookup finds a prior correction for a facility name. Names are
// compared case- and accent-insensitively.
func (s *Store) Lookup(name string) (Record, bool) {
	r, ok := s.records[utils.LowerASCIIFolding(name)]

	return r, ok
}

// Upsert records a correction in memory. The name is the unique key;
// a later write for the same name replaces the earlier one.
func (s *Store) Upsert(name string, lat, lng float64) {
	s.records[utils.LowerASCIIFolding(name)] = Record{
		Name: name,
		Lat:  lat,
		Lng:  lng,
	}
}

// Save rewrites the whole table atomically: the records are written to
// a temporary file in the same directory and renamed over the target,
// so a crash mid-write never leaves a corrupt table behind. Records are
// sorted by name to keep diffs small when the file is version-controlled.
func (s *Store) Save() (err error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating correction table directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".corrections-*.csv")
	if err != nil {
		return fmt.Errorf("creating temporary correction table: %w", err)
	}

	defer func() {
		if err != nil {
			err = errors.Join(err, os.Remove(tmp.Name()))
		}
	}()

	if err = s.write(tmp); err != nil {
		err = errors.Join(err, tmp.Close())

		return err
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary correction table: %w", err)
	}

	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing correction table: %w", err)
	}

	s.existed = true

	return nil
}

func (s *Store) write(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(storeHeader); err != nil {
		return fmt.Errorf("writing correction header: %w", err)
	}

	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		r := s.records[k]
		record := []string{
			r.Name,
			strconv.FormatFloat(r.Lat, 'f', -1, 64),
			strconv.FormatFloat(r.Lng, 'f', -1, 64),
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing correction for %q: %w", r.Name, err)
		}
	}

	cw.Flush()

	return cw.Error()
}
