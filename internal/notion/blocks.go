package notion

import (
	"strings"
	"unicode"
)

// FallbackText replaces a summary that yields no usable content.
const FallbackText = "(No summary available)"

// bulletMarkers are tested in order against each trimmed summary line.
var bulletMarkers = []string{"- ", "* ", "• "}

// BuildBlocks converts summaries into a heading per video followed by its body
// blocks, in input order. It never fails: degenerate summaries produce one
// fallback paragraph.
func BuildBlocks(entries []SummaryEntry) []Block {
	blocks := make([]Block, 0, len(entries)*4)
	for _, e := range entries {
		blocks = append(blocks, headingBlock(e))
		blocks = append(blocks, bodyBlocks(e.SummaryText)...)
	}
	return blocks
}

func headingBlock(e SummaryEntry) Block {
	var segs []Segment
	for _, chunk := range chunkRunes(e.VideoTitle, MaxTextLength) {
		segs = append(segs, Link(chunk, e.VideoURL))
	}
	segs = appendPlain(segs, "\nSubscription: "+e.ChannelTitle)
	return Block{Type: Heading, Segments: segs}
}

func bodyBlocks(summary string) []Block {
	var blocks []Block
	for _, line := range strings.FieldsFunc(summary, isLineBreak) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kind, content := classifyLine(line)
		segs := ParseRichText(NormalizeLinks(content))
		if len(segs) == 0 {
			continue
		}
		blocks = append(blocks, Block{Type: kind, Segments: segs})
	}
	if len(blocks) > 0 {
		return blocks
	}

	segs := ParseRichText(strings.TrimSpace(summary))
	if len(segs) == 0 {
		segs = []Segment{Plain(FallbackText)}
	}
	return []Block{{Type: Paragraph, Segments: segs}}
}

// isLineBreak reports whether r ends a line. A lone \r counts.
func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// classifyLine reports whether a trimmed line is a bullet item and returns its
// content with any marker removed.
func classifyLine(line string) (BlockType, string) {
	for _, marker := range bulletMarkers {
		if strings.HasPrefix(line, marker) {
			return BulletItem, strings.TrimLeftFunc(line[len(marker):], unicode.IsSpace)
		}
	}
	return Paragraph, line
}
