// Package sanitize cleans free text produced by the upstream text generator
// before it reaches the page.
package sanitize

import "strings"

// entities is the fixed set of references that are decoded. Anything else
// shaped like &...; is left alone.
var entities = []string{
	"&quot;", `"`,
	"&apos;", "'",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&ldquo;", "“",
	"&rdquo;", "”",
	"&lsquo;", "‘",
	"&rsquo;", "’",
	"&#39;", "'",
	"&#34;", `"`,
	"&#8216;", "‘",
	"&#8217;", "’",
	"&#8220;", "“",
	"&#8221;", "”",
}

var replacer = strings.NewReplacer(entities...)

// Entities replaces the supported character references with their literal
// characters. Decoding is repeated until nothing changes, so double escaped
// input such as "&amp;quot;" ends up as a plain quote and the result is a
// fixed point.
func Entities(s string) string {
	if s == "" || !strings.Contains(s, "&") {
		return s
	}
	for {
		decoded := replacer.Replace(s)
		// every replacement shortens the string, so this terminates
		if decoded == s {
			return decoded
		}
		s = decoded
	}
}

// Supported returns the entity references that Entities decodes
func Supported() []string {
	out := make([]string, 0, len(entities)/2)
	for i := 0; i < len(entities); i += 2 {
		out = append(out, entities[i])
	}
	return out
}
