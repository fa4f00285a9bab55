// Copyright 2026 The MapaSalud Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/aruidiaz/mapasalud/correction"
	"github.com/aruidiaz/mapasalud/facility"
	"github.com/aruidiaz/mapasalud/mapa"
	"github.com/spf13/cobra"
)

var mapOptions = struct {
	input       string
	corrections string
	output      string
}{}

// loadForMap reads the facility table and layers the known coordinate
// corrections on top, without touching the network or the files.
func loadForMap(input, corrections string) ([]*facility.Facility, *correction.Report, error) {
	facilities, err := facility.ReadFile(input)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %q: %w", input, err)
	}

	store, err := correction.LoadStore(corrections)
	if err != nil {
		return nil, nil, fmt.Errorf("loading corrections: %w", err)
	}

	checker := correction.NewChecker(store, nil, correction.Options{DryRun: true})

	return checker.Run(facilities)
}

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Genera el mapa HTML de centros sanitarios",
	RunE: func(_ *cobra.Command, _ []string) error {
		facilities, report, err := loadForMap(mapOptions.input, mapOptions.corrections)
		if err != nil {
			return err
		}

		if dir := filepath.Dir(mapOptions.output); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}
		}

		file, err := os.Create(mapOptions.output)
		if err != nil {
			return fmt.Errorf("creating %q: %w", mapOptions.output, err)
		}

		if err := mapa.Render(file, facilities, report); err != nil {
			_ = file.Close()

			return err
		}

		if err := file.Close(); err != nil {
			return fmt.Errorf("closing %q: %w", mapOptions.output, err)
		}

		log.Printf("Map saved as %s", mapOptions.output)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(mapCmd)

	mapCmd.Flags().StringVar(
		&mapOptions.input,
		"in",
		"data/facilities_corrected.csv",
		"Tabla de centros a mostrar",
	)
	mapCmd.Flags().StringVar(
		&mapOptions.corrections,
		"corrections",
		"data/facilities_corrected_coords.csv",
		"Tabla de correcciones de coordenadas",
	)
	mapCmd.Flags().StringVar(
		&mapOptions.output,
		"out",
		"facilities_map.html",
		"Archivo HTML de salida",
	)
}
