// Copyright 2026 The MapaSalud Authors
// SPDX-License-Identifier: Apache-2.0

package facility

import "testing"

func TestFixMojibake(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "clean text untouched",
			in:   "Hospital Universitario La Paz",
			want: "Hospital Universitario La Paz",
		},
		{
			name: "clean accented text untouched",
			in:   "Clínica Málaga",
			want: "Clínica Málaga",
		},
		{
			name: "latin-1 double encoding",
			in:   "MÃ¡laga",
			want: "Málaga",
		},
		{
			name: "n with tilde",
			in:   "EspaÃ±a",
			want: "España",
		},
		{
			name: "legit tilde a survives",
			in:   "São Paulo", // not Spanish, but must not be mangled
			want: "São Paulo",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FixMojibake(tt.in); got != tt.want {
				t.Errorf("FixMojibake(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
