package notion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var normalizeCases = []struct {
	name string
	in   string
	want string
}{
	{"empty", "", ""},
	{"no links", "plain prose only", "plain prose only"},
	{"full-width parens glued", "watch（http://x?t=5s）now", "watch [5s](http://x?t=5s) now"},
	{"ascii parens after space", "see (https://example.com/page).", "see [https://example.com/page](https://example.com/page)."},
	{"bare seconds param", "jump (https://youtu.be/abc?t=83)", "jump [83s](https://youtu.be/abc?t=83)"},
	{"at start", "（https://y.com/w?t=90s）", "[90s](https://y.com/w?t=90s)"},
	{"non-numeric t", "x (https://y.com/w?t=abc)", "x [https://y.com/w?t=abc](https://y.com/w?t=abc)"},
	{"markdown link untouched", "before [12s](http://x?t=12s) after", "before [12s](http://x?t=12s) after"},
	{"clock label before link", "[1:23] [83s](https://y.com/w?t=83s) intro", "[83s](https://y.com/w?t=83s) intro"},
	{"two-digit clock label", "[12:30][750s](https://y.com/w?t=750s)", "[750s](https://y.com/w?t=750s)"},
	{"repeated seconds links", "[83s](https://a) [83s](https://b) text", "[83s](https://b) text"},
	{"linked clock label", "a [1:23](https://y.com/w?t=83s) [83s](https://y.com/w?t=83s)", "a [83s](https://y.com/w?t=83s)"},
	{"clock without following link", "[12:30] meeting notes", "[12:30] meeting notes"},
	{"clock after link kept", "[83s](https://y.com/w?t=83s) [1:23] after", "[83s](https://y.com/w?t=83s) [1:23] after"},
	{"separated by prose", "[1:23] intro [83s](https://y.com/w?t=83s)", "[1:23] intro [83s](https://y.com/w?t=83s)"},
	{"adjacent bare urls collapse", "text(https://y.com/w?t=10)(https://y.com/w?t=10s)", "text [10s](https://y.com/w?t=10s)"},
	{"full-width after bracket kept", "[a]（https://y.com）", "[a]（https://y.com）"},
}

func TestNormalizeLinks(t *testing.T) {
	for _, tt := range normalizeCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLinks(tt.in))
		})
	}
}

func TestNormalizeLinksIdempotent(t *testing.T) {
	for _, tt := range normalizeCases {
		t.Run(tt.name, func(t *testing.T) {
			once := NormalizeLinks(tt.in)
			assert.Equal(t, once, NormalizeLinks(once))
		})
	}
}

func FuzzNormalizeLinksIdempotent(f *testing.F) {
	for _, tt := range normalizeCases {
		f.Add(tt.in)
	}
	f.Add("[1:23](https://y?t=5) [5s](https://u)(https://b)")
	f.Add("- 要点 （https://www.youtube.com/watch?v=abc&t=61s）说明")
	f.Fuzz(func(t *testing.T, s string) {
		once := NormalizeLinks(s)
		if twice := NormalizeLinks(once); twice != once {
			t.Errorf("not idempotent:\n in: %q\n 1x: %q\n 2x: %q", s, once, twice)
		}
	})
}

func TestLinkLabel(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=abc&t=61s", "61s"},
		{"https://www.youtube.com/watch?v=abc&t=61", "61s"},
		{"https://www.youtube.com/watch?v=abc&t=-5", "https://www.youtube.com/watch?v=abc&t=-5"},
		{"https://www.youtube.com/watch?v=abc", "https://www.youtube.com/watch?v=abc"},
		{"http://%zz", "http://%zz"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, linkLabel(tt.url), tt.url)
	}
}
