// Copyright 2026 The MapaSalud Authors
// SPDX-License-Identifier: Apache-2.0

package correction

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func withGeocodeServer(t *testing.T, handler http.HandlerFunc) *GoogleMapsGeocoder {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	old := googleGeocodeURL
	googleGeocodeURL = srv.URL
	t.Cleanup(func() { googleGeocodeURL = old })

	return NewGoogleMapsGeocoder("test-key", 2*time.Second)
}

func TestGoogleMapsGeocoderOK(t *testing.T) {
	g := withGeocodeServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("address"); got != "Calle Mayor 1, Madrid, Spain" {
			t.Errorf("unexpected address param: %q", got)
		}

		if got := r.URL.Query().Get("region"); got != "es" {
			t.Errorf("expected region bias es, got %q", got)
		}

		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("api key not sent, got %q", got)
		}

		fmt.Fprint(w, `{
			"status": "OK",
			"results": [{
				"geometry": {
					"location": {"lat": 40.4168, "lng": -3.7038},
					"location_type": "ROOFTOP"
				},
				"formatted_address": "Calle Mayor 1, 28013 Madrid, Spain"
			}]
		}`)
	})

	result, err := g.Geocode("Calle Mayor 1, Madrid, Spain")
	if err != nil {
		t.Fatalf("Geocode() error: %v", err)
	}

	if result.Latitude != 40.4168 || result.Longitude != -3.7038 {
		t.Errorf("unexpected coordinates: %+v", result)
	}

	if result.Confidence != "high" || result.Provider != "google_maps" {
		t.Errorf("unexpected result metadata: %+v", result)
	}
}

func TestGoogleMapsGeocoderZeroResults(t *testing.T) {
	g := withGeocodeServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"status": "ZERO_RESULTS", "results": []}`)
	})

	_, err := g.Geocode("nowhere at all")
	if err == nil {
		t.Fatal("expected error for ZERO_RESULTS")
	}

	var geoErr *GeocodingError
	if !errors.As(err, &geoErr) || geoErr.Type != ErrorTypeNotFound {
		t.Errorf("expected not-found classification, got %v", err)
	}
}

func TestGoogleMapsGeocoderQuotaExceeded(t *testing.T) {
	g := withGeocodeServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"status": "OVER_QUERY_LIMIT", "results": []}`)
	})

	_, err := g.Geocode("anywhere")
	if err == nil {
		t.Fatal("expected error for OVER_QUERY_LIMIT")
	}

	if !IsQuotaExceededError(err) {
		t.Errorf("expected quota classification, got %v", err)
	}
}

func TestGoogleMapsGeocoderHTTPError(t *testing.T) {
	g := withGeocodeServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := g.Geocode("anywhere")
	if !IsQuotaExceededError(err) {
		t.Errorf("403 should classify as quota/access, got %v", err)
	}
}

func TestGoogleMapsGeocoderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{"status": "OK", "results": []}`)
	}))
	t.Cleanup(srv.Close)

	old := googleGeocodeURL
	googleGeocodeURL = srv.URL
	t.Cleanup(func() { googleGeocodeURL = old })

	g := NewGoogleMapsGeocoder("test-key", 20*time.Millisecond)

	_, err := g.Geocode("anywhere")
	if err == nil {
		t.Fatal("expected timeout error")
	}

	if !IsTimeoutError(err) {
		t.Errorf("expected timeout classification, got %v", err)
	}
}

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{http.StatusTooManyRequests, ErrorTypeRateLimit},
		{http.StatusForbidden, ErrorTypeQuotaExceeded},
		{http.StatusBadRequest, ErrorTypeInvalidRequest},
		{http.StatusNotFound, ErrorTypeNotFound},
		{http.StatusServiceUnavailable, ErrorTypeNetworkError},
		{http.StatusTeapot, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			if got := ClassifyHTTPError(tt.status); got.Type != tt.want {
				t.Errorf("ClassifyHTTPError(%d).Type = %d, want %d", tt.status, got.Type, tt.want)
			}
		})
	}
}
