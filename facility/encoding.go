// Copyright 2026 The MapaSalud Authors
// SPDX-License-Identifier: Apache-2.0

package facility

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Upstream exports sometimes arrive as UTF-8 that was decoded once as
// Latin-1 or Windows-1252, turning "Málaga" into "MÃ¡laga". The repair
// re-encodes through the suspected legacy charset and keeps the result
// only when it yields clean UTF-8.

// mojibake markers: bytes 0xC2-0xC3 decoded as Latin-1 text.
const mojibakeMarkers = "ÃÂâ"

// FixMojibake repairs double-encoded UTF-8 text. Strings without the
// telltale marker runes are returned untouched.
func FixMojibake(s string) string {
	if !strings.ContainsAny(s, mojibakeMarkers) {
		return s
	}

	for _, cm := range []*charmap.Charmap{charmap.ISO8859_1, charmap.Windows1252} {
		repaired, err := cm.NewEncoder().String(s)
		if err != nil {
			continue
		}

		if utf8.ValidString(repaired) && !strings.ContainsAny(repaired, mojibakeMarkers) {
			return repaired
		}
	}

	return s
}
