// Copyright 2026 The MapaSalud Authors
// SPDX-License-Identifier: Apache-2.0

package mapa

import (
	"bytes"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aruidiaz/mapasalud/coords"
	"github.com/aruidiaz/mapasalud/correction"
	"github.com/aruidiaz/mapasalud/facility"
)

// Server serves the rendered map and its data locally.
type Server struct {
	facilities []*facility.Facility
	report     *correction.Report
	engine     *gin.Engine
}

// NewServer wires the routes. The report is optional.
func NewServer(facilities []*facility.Facility, report *correction.Report) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		facilities: facilities,
		report:     report,
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", s.mapView)
	r.GET("/api/facilities", s.listFacilities)
	r.GET("/api/stats", s.getStats)

	s.engine = r

	return s
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run blocks serving HTTP on the given address.
func (s *Server) Run(addr string) error {
	log.Printf("Serving map on http://%s/", addr)

	if err := s.engine.Run(addr); err != nil {
		return fmt.Errorf("serving map: %w", err)
	}

	return nil
}

func (s *Server) mapView(ctx *gin.Context) {
	var buf bytes.Buffer
	if err := Render(&buf, s.facilities, s.report); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) listFacilities(ctx *gin.Context) {
	markers, err := buildMarkers(s.facilities, coords.SpainBounds)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, markers)
}

func (s *Server) getStats(ctx *gin.Context) {
	markers, err := buildMarkers(s.facilities, coords.SpainBounds)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	mapped := 0
	for _, m := range markers {
		mapped += len(m.Facilities)
	}

	ctx.JSON(http.StatusOK, buildStats(len(s.facilities), mapped, len(markers), s.report))
}
