package worksheets

import (
	"strings"
	"unicode"

	"github.com/flanksource/worksheets/sanitize"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	defaultFilename = "worksheet"
	maxSlugLength   = 60
)

// Filename derives the download name of a worksheet from its title:
// accents are stripped, everything else that is not a letter or digit
// becomes a single dash.
func Filename(title string) string {
	return Slug(title) + ".pdf"
}

// Slug lowercases title and keeps only ASCII letters and digits separated
// by dashes, "worksheet" when nothing is left
func Slug(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, sanitize.Entities(title))
	if err != nil {
		plain = title
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(plain) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			if b.Len() >= maxSlugLength {
				break
			}
			continue
		}
		dash = true
	}

	if b.Len() == 0 {
		return defaultFilename
	}
	return b.String()
}
