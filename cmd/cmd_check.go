// Copyright 2026 The MapaSalud Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aruidiaz/mapasalud/correction"
	"github.com/aruidiaz/mapasalud/facility"
	"github.com/spf13/cobra"
)

var checkOptions = struct {
	input       string
	output      string
	corrections string
	budget      int
	timeout     time.Duration
	dryRun      bool
}{}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Detecta y corrige coordenadas defectuosas",
	Long: `
Clasifica las coordenadas de cada centro, aplica las correcciones conocidas y
geocodifica los defectos restantes contra Google Maps. Sin una clave de Google
Maps el comando solo reporta los defectos, sin corregirlos.
`,
	RunE: func(_ *cobra.Command, _ []string) error {
		facilities, err := facility.ReadFile(checkOptions.input)
		if err != nil {
			return fmt.Errorf("reading %q: %w", checkOptions.input, err)
		}

		store, err := correction.LoadStore(checkOptions.corrections)
		if err != nil {
			return fmt.Errorf("loading corrections: %w", err)
		}

		if !store.Existed() {
			log.Printf("No corrections file at %s, starting empty", checkOptions.corrections)
		}

		var geocoder correction.Geocoder
		if key := correction.ResolveMapsAPIKey(context.Background()); key != "" {
			geocoder = correction.NewGoogleMapsGeocoder(key, checkOptions.timeout)
		}

		checker := correction.NewChecker(store, geocoder, correction.Options{
			Budget: checkOptions.budget,
			DryRun: checkOptions.dryRun,
		})

		corrected, report, err := checker.Run(facilities)
		if err != nil {
			return err
		}

		report.Log()

		if checkOptions.dryRun {
			return nil
		}

		if err := facility.WriteFile(checkOptions.output, corrected); err != nil {
			return fmt.Errorf("writing %q: %w", checkOptions.output, err)
		}

		log.Printf("Wrote corrected table to %s", checkOptions.output)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(
		&checkOptions.input,
		"in",
		"data/raw_facilities.csv",
		"Tabla de centros a revisar",
	)
	checkCmd.Flags().StringVar(
		&checkOptions.output,
		"out",
		"data/facilities_corrected.csv",
		"Tabla de centros corregida",
	)
	checkCmd.Flags().StringVar(
		&checkOptions.corrections,
		"corrections",
		"data/facilities_corrected_coords.csv",
		"Tabla de correcciones de coordenadas",
	)
	checkCmd.Flags().IntVar(
		&checkOptions.budget,
		"budget",
		correction.DefaultBudget,
		"Máximo de llamadas de geocodificación por ejecución",
	)
	checkCmd.Flags().DurationVar(
		&checkOptions.timeout,
		"timeout",
		10*time.Second,
		"Tiempo máximo por petición de geocodificación",
	)
	checkCmd.Flags().BoolVar(
		&checkOptions.dryRun,
		"dry-run",
		false,
		"No persiste ningun cambio",
	)
}
