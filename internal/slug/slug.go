// Package slug derives URL-safe identifiers from titles and file names.
package slug

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnum    = regexp.MustCompile(`[^a-z0-9]+`)
	dateStamped = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})-(.+)$`)
)

// Make converts an arbitrary string into a lowercase, hyphen-separated slug.
// Combining marks are stripped after NFD decomposition so accented characters
// reduce to their ASCII base form.
func Make(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	folded = nonAlnum.ReplaceAllString(folded, "-")
	return strings.Trim(folded, "-")
}

// FromFilename splits a `YYYY-MM-DD-title.ext` file name into its date stamp
// and slug. When the name carries no date stamp, the zero time is returned and
// the slug is derived from the whole base name.
func FromFilename(name string) (time.Time, string) {
	base := name
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}

	m := dateStamped.FindStringSubmatch(base)
	if m == nil {
		return time.Time{}, Make(base)
	}

	date, err := time.Parse("2006-01-02", m[1]+"-"+m[2]+"-"+m[3])
	if err != nil {
		return time.Time{}, Make(base)
	}
	return date, Make(m[4])
}
