package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntities(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"plain", "2+2=?", "2+2=?"},
		{"quotes", "&quot;Olá&quot; e &apos;tchau&apos;", `"Olá" e 'tchau'`},
		{"angle brackets", "3 &lt; 4 &gt; 2", "3 < 4 > 2"},
		{"ampersand", "Tom &amp; Jerry", "Tom & Jerry"},
		{"numeric", "it&#39;s &#34;ok&#34;", `it's "ok"`},
		{"curly", "&ldquo;a&rdquo; &lsquo;b&rsquo;", "“a” ‘b’"},
		{"curly numeric", "&#8220;a&#8221; &#8216;b&#8217;", "“a” ‘b’"},
		{"double escaped", "&amp;quot;x&amp;quot;", `"x"`},
		{"unknown entity kept", "&nbsp;&copy;&#169;", "&nbsp;&copy;&#169;"},
		{"bare ampersand", "a & b", "a & b"},
		{"unterminated", "&quot", "&quot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Entities(tt.input))
		})
	}
}

func TestEntitiesIdempotent(t *testing.T) {
	inputs := []string{
		"&amp;lt;b&amp;gt;",
		"&amp;amp;amp;",
		"Questão &quot;1&quot; &copy; &unknown;",
		strings.Join(Supported(), " "),
	}
	for _, s := range Supported() {
		inputs = append(inputs, s, "&amp;"+strings.TrimPrefix(s, "&"))
	}

	for _, input := range inputs {
		once := Entities(input)
		assert.Equal(t, once, Entities(once), "input %q", input)
	}
}

func TestEntitiesKeepsOtherCharacters(t *testing.T) {
	input := "Pinte o círculo! (ação) #42 ; & é"
	assert.Equal(t, input, Entities(input))

	// characters around a decoded entity survive untouched
	assert.Equal(t, "ab\"cd", Entities("ab&quot;cd"))
}
