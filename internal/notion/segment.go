package notion

import (
	"regexp"
	"strings"
)

// MaxTextLength is the longest content, in runes, a single rich-text item may carry.
const MaxTextLength = 1900

var markdownLinkRe = regexp.MustCompile(`\[([^\[\]]*)\]\(([^()\s]+)\)`)

// ParseRichText splits text into plain and linked segments. Every segment is at
// most MaxTextLength runes long and none is empty.
func ParseRichText(text string) []Segment {
	text = NormalizeLinks(text)
	if text == "" {
		return nil
	}

	var segs []Segment
	last := 0
	for _, loc := range markdownLinkRe.FindAllStringSubmatchIndex(text, -1) {
		segs = appendPlain(segs, text[last:loc[0]])
		last = loc[1]

		label := strings.TrimSpace(text[loc[2]:loc[3]])
		if label == "" {
			continue
		}
		linkURL := strings.TrimSpace(text[loc[4]:loc[5]])
		for _, chunk := range chunkRunes(label, MaxTextLength) {
			segs = append(segs, Link(chunk, linkURL))
		}
	}
	segs = appendPlain(segs, text[last:])

	return dropEmpty(DedupeTimestamps(segs))
}

func appendPlain(segs []Segment, s string) []Segment {
	for _, chunk := range chunkRunes(s, MaxTextLength) {
		segs = append(segs, Plain(chunk))
	}
	return segs
}

// chunkRunes slices s into consecutive pieces of at most n runes.
func chunkRunes(s string, n int) []string {
	if s == "" {
		return nil
	}
	runes := []rune(s)
	if len(runes) <= n {
		return []string{s}
	}
	chunks := make([]string, 0, len(runes)/n+1)
	for len(runes) > 0 {
		size := min(n, len(runes))
		chunks = append(chunks, string(runes[:size]))
		runes = runes[size:]
	}
	return chunks
}

func dropEmpty(segs []Segment) []Segment {
	out := segs[:0]
	for _, s := range segs {
		if s.Content != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
