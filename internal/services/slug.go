package services

import "strings"

// slugify turns an event title into its URL slug: lowercased, with runs of
// anything outside [a-z0-9] collapsed into single hyphens. "GopherCon
// Nairobi 2026!" becomes "gophercon-nairobi-2026".
func slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	hyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			hyphen = false
		default:
			if !hyphen && b.Len() > 0 {
				b.WriteByte('-')
				hyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
