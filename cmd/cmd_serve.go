// Copyright 2026 The MapaSalud Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/aruidiaz/mapasalud/mapa"
	"github.com/spf13/cobra"
)

var serveOptions = struct {
	input       string
	corrections string
	listen      string
}{}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Sirve el mapa y sus datos en HTTP local",
	RunE: func(_ *cobra.Command, _ []string) error {
		facilities, report, err := loadForMap(serveOptions.input, serveOptions.corrections)
		if err != nil {
			return err
		}

		return mapa.NewServer(facilities, report).Run(serveOptions.listen)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(
		&serveOptions.input,
		"in",
		"data/facilities_corrected.csv",
		"Tabla de centros a mostrar",
	)
	serveCmd.Flags().StringVar(
		&serveOptions.corrections,
		"corrections",
		"data/facilities_corrected_coords.csv",
		"Tabla de correcciones de coordenadas",
	)
	serveCmd.Flags().StringVar(
		&serveOptions.listen,
		"listen",
		"127.0.0.1:8080",
		"Dirección donde escuchar",
	)
}
