package notion

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var timestampLabelRe = regexp.MustCompile(`^\d+s$`)

// DedupeTimestamps removes a plain restatement of a timestamp label right after
// the linked timestamp carrying it, e.g. "[83s](u) 83s more" keeps " more".
func DedupeTimestamps(segs []Segment) []Segment {
	out := make([]Segment, 0, len(segs))
	for _, seg := range segs {
		if n := len(out); n > 0 {
			prev := out[n-1]
			if prev.Kind == LinkedText && timestampLabelRe.MatchString(prev.Content) {
				if rewritten, ok := stripLeadingLabel(seg.Content, prev.Content); ok {
					if rewritten == "" {
						continue
					}
					seg.Content = rewritten
				}
			}
		}
		out = append(out, seg)
	}
	return out
}

// stripLeadingLabel removes label from the start of content (after any leading
// whitespace) when it stands as its own token. The leading whitespace survives;
// whitespace between the label and the rest collapses into it.
func stripLeadingLabel(content, label string) (string, bool) {
	body := strings.TrimLeftFunc(content, unicode.IsSpace)
	if !strings.HasPrefix(body, label) {
		return "", false
	}
	rest := body[len(label):]
	if r, _ := utf8.DecodeRuneInString(rest); rest != "" && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
		return "", false
	}
	leading := content[:len(content)-len(body)]
	return leading + strings.TrimLeftFunc(rest, unicode.IsSpace), true
}
