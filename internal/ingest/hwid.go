package ingest

import "strings"

// SanitizeHwid filters a hardware-id tag taken from the URL path:
// [A-Za-z0-9_-] is kept verbatim, ':' and '.' map to '_', everything else is
// dropped. An empty result is treated as absent.
func SanitizeHwid(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case r == ':', r == '.':
			b.WriteByte('_')
		}
	}
	return b.String()
}
