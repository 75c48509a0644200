package notion

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// bareURLRe matches a URL wrapped in ASCII or full-width parentheses.
	// Matches preceded by ']' are Markdown links and are left alone.
	bareURLRe = regexp.MustCompile(`[(（](https?://[^\s()（）\[\]]+)[)）]`)

	// timestampParamRe matches the value of a t= query parameter: "83" or "83s".
	timestampParamRe = regexp.MustCompile(`^(\d+)s?$`)

	// decorationRe matches one timestamp decoration unit: a clock label such as
	// [1:23] or [12:34] (optionally linked), or a linked seconds label [83s](url).
	// Group 2 is set only for the linked seconds form.
	decorationRe = regexp.MustCompile(`\[\d+:\d{2}\](?:\([^()\s]+\))?|\[(\d+s)\]\(([^()\s]+)\)`)
)

// NormalizeLinks rewrites parenthesized bare URLs into Markdown links and drops
// timestamp decorations that restate the link following them. It is idempotent.
func NormalizeLinks(text string) string {
	if text == "" {
		return text
	}
	return collapseTimestampRuns(rewriteBareURLs(text))
}

// rewriteBareURLs turns "(https://…)" and "（https://…）" into "[label](url)".
func rewriteBareURLs(text string) string {
	locs := bareURLRe.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + 16*len(locs))
	last := 0
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		if start > 0 && prev == ']' {
			continue
		}
		rawURL := text[loc[2]:loc[3]]

		b.WriteString(text[last:start])
		if start > 0 && !unicode.IsSpace(prev) {
			b.WriteByte(' ')
		}
		b.WriteByte('[')
		b.WriteString(linkLabel(rawURL))
		b.WriteString("](")
		b.WriteString(rawURL)
		b.WriteByte(')')
		if next, _ := utf8.DecodeRuneInString(text[end:]); end < len(text) && (unicode.IsLetter(next) || unicode.IsDigit(next)) {
			b.WriteByte(' ')
		}
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

// linkLabel returns "<N>s" for URLs carrying a t=<N> or t=<N>s parameter and the
// raw URL otherwise.
func linkLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if m := timestampParamRe.FindStringSubmatch(u.Query().Get("t")); m != nil {
		return m[1] + "s"
	}
	return rawURL
}

// collapseTimestampRuns deletes clock labels and seconds links that sit, separated
// only by whitespace, right before a genuine [Ns](url) link.
func collapseTimestampRuns(text string) string {
	locs := decorationRe.FindAllStringSubmatchIndex(text, -1)
	if len(locs) < 2 {
		return text
	}

	var b strings.Builder
	last := 0
	for i := 0; i < len(locs); {
		j := i
		for j+1 < len(locs) && strings.TrimSpace(text[locs[j][1]:locs[j+1][0]]) == "" {
			j++
		}
		keep := -1
		for k := j; k > i; k-- {
			if locs[k][2] >= 0 {
				keep = k
				break
			}
		}
		if keep > 0 {
			b.WriteString(text[last:locs[i][0]])
			last = locs[keep][0]
		}
		i = j + 1
	}
	b.WriteString(text[last:])
	return b.String()
}
