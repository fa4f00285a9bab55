// Copyright 2026 The MapaSalud Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aruidiaz/mapasalud/metabase"
	"github.com/spf13/cobra"
)

var fetchOptions = struct {
	questionID          int
	output              string
	timeout             time.Duration
	enableHTTPTrace     bool
	enableHTTPBodyTrace bool
}{}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Descarga el listado de centros desde Metabase",
	Long: `
Ejecuta la pregunta configurada en Metabase y guarda el resultado como CSV.
Requiere METABASE_URL y, o bien METABASE_API_KEY, o bien METABASE_USERNAME y
METABASE_PASSWORD (por variable de entorno o archivo .env).
`,
	RunE: func(_ *cobra.Command, _ []string) error {
		client, err := metabase.NewClient(&metabase.Options{
			BaseURL:             os.Getenv("METABASE_URL"),
			APIKey:              os.Getenv("METABASE_API_KEY"),
			Username:            os.Getenv("METABASE_USERNAME"),
			Password:            os.Getenv("METABASE_PASSWORD"),
			UserAgent:           fmt.Sprintf("mapasalud/%s (+https://github.com/aruidiaz/mapasalud)", Version),
			Timeout:             fetchOptions.timeout,
			EnableHTTPTrace:     fetchOptions.enableHTTPTrace,
			EnableHTTPBodyTrace: fetchOptions.enableHTTPBodyTrace,
		})
		if err != nil {
			return err
		}

		table, err := client.FetchQuestion(fetchOptions.questionID)
		if err != nil {
			return err
		}

		if err := client.Logout(); err != nil {
			log.Printf("Logging out: %v", err)
		}

		if err := table.WriteCSV(fetchOptions.output); err != nil {
			return err
		}

		log.Printf("Wrote %d rows to %s", len(table.Rows), fetchOptions.output)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().IntVar(
		&fetchOptions.questionID,
		"question",
		0,
		"Id de la pregunta (card) de Metabase a ejecutar",
	)
	_ = fetchCmd.MarkFlagRequired("question")
	fetchCmd.Flags().StringVar(
		&fetchOptions.output,
		"out",
		"data/raw_facilities.csv",
		"Archivo CSV de salida",
	)
	fetchCmd.Flags().DurationVar(
		&fetchOptions.timeout,
		"timeout",
		30*time.Second,
		"Tiempo máximo por petición HTTP",
	)
	fetchCmd.Flags().BoolVar(
		&fetchOptions.enableHTTPTrace,
		"trace-http",
		false,
		"Display HTTP requests-responses",
	)
	fetchCmd.Flags().BoolVar(
		&fetchOptions.enableHTTPBodyTrace,
		"trace-http-body",
		false,
		"Display HTTP requests-responses bodies",
	)
}
