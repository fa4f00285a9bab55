// Copyright 2026 The MapaSalud Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var rootCmd = &cobra.Command{
	Use:   "mapasalud",
	Short: "mapa de centros sanitarios de España",
	Long: `
mapasalud descarga el listado de centros sanitarios desde Metabase, detecta y
corrige coordenadas defectuosas, y genera un mapa interactivo con el resultado.
`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// Credentials live in .env during local runs; a missing file
		// just means the environment is already set up.
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("Loading .env: %v", err)
		}
	},
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
