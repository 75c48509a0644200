package notion

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBlocksHeading(t *testing.T) {
	blocks := BuildBlocks([]SummaryEntry{{
		VideoTitle:   "Go 1.26 release",
		VideoURL:     "https://www.youtube.com/watch?v=abc",
		ChannelTitle: "Gophers",
		SummaryText:  "One paragraph.",
	}})
	require.Len(t, blocks, 2)

	h := blocks[0]
	assert.Equal(t, Heading, h.Type)
	assert.Equal(t, []Segment{
		Link("Go 1.26 release", "https://www.youtube.com/watch?v=abc"),
		Plain("\nSubscription: Gophers"),
	}, h.Segments)

	assert.Equal(t, Paragraph, blocks[1].Type)
	assert.Equal(t, []Segment{Plain("One paragraph.")}, blocks[1].Segments)
}

func TestBuildBlocksHeadingWithoutURL(t *testing.T) {
	blocks := BuildBlocks([]SummaryEntry{{VideoTitle: "T", ChannelTitle: "C", SummaryText: "x"}})
	assert.Equal(t, []Segment{Plain("T"), Plain("\nSubscription: C")}, blocks[0].Segments)
}

func TestBuildBlocksBullets(t *testing.T) {
	summary := strings.Join([]string{
		"- point one [1s](http://u?t=1s)",
		"  * star item",
		"• dot item",
		"-not a bullet",
		"",
		"Closing words.",
	}, "\n")
	blocks := BuildBlocks([]SummaryEntry{{VideoTitle: "T", SummaryText: summary}})
	require.Len(t, blocks, 6)

	body := blocks[1:]
	wantTypes := []BlockType{BulletItem, BulletItem, BulletItem, Paragraph, Paragraph}
	for i, want := range wantTypes {
		assert.Equal(t, want, body[i].Type, "block %d", i)
	}

	assert.Equal(t, []Segment{Plain("point one "), Link("1s", "http://u?t=1s")}, body[0].Segments)
	assert.Equal(t, "star item", body[1].Segments[0].Content)
	assert.Equal(t, "dot item", body[2].Segments[0].Content)
	assert.Equal(t, "-not a bullet", body[3].Segments[0].Content)
}

func TestBuildBlocksLineBreaks(t *testing.T) {
	summary := "- first\r- second\r\nthird\u2028fourth"
	blocks := BuildBlocks([]SummaryEntry{{VideoTitle: "T", SummaryText: summary}})
	require.Len(t, blocks, 5)

	body := blocks[1:]
	assert.Equal(t, []BlockType{BulletItem, BulletItem, Paragraph, Paragraph},
		[]BlockType{body[0].Type, body[1].Type, body[2].Type, body[3].Type})
	for i, want := range []string{"first", "second", "third", "fourth"} {
		assert.Equal(t, []Segment{Plain(want)}, body[i].Segments)
	}
}

func TestBuildBlocksFallback(t *testing.T) {
	for _, summary := range []string{"", "   \n\n  ", "[ ](http://x)"} {
		blocks := BuildBlocks([]SummaryEntry{{VideoTitle: "T", SummaryText: summary}})
		require.Len(t, blocks, 2, "summary %q", summary)
		assert.Equal(t, Paragraph, blocks[1].Type)
		assert.Equal(t, []Segment{Plain(FallbackText)}, blocks[1].Segments)
	}
}

func TestBuildBlocksOrderAndContiguity(t *testing.T) {
	blocks := BuildBlocks([]SummaryEntry{
		{VideoTitle: "first", SummaryText: "a\nb"},
		{VideoTitle: "second", SummaryText: "- c"},
	})
	require.Len(t, blocks, 5)

	var types []BlockType
	for _, b := range blocks {
		types = append(types, b.Type)
	}
	assert.Equal(t, []BlockType{Heading, Paragraph, Paragraph, Heading, BulletItem}, types)
	assert.Equal(t, "first", blocks[0].Segments[0].Content)
	assert.Equal(t, "second", blocks[3].Segments[0].Content)
}

func TestBuildBlocksEmpty(t *testing.T) {
	assert.Empty(t, BuildBlocks(nil))
}

func TestBuildBlocksLongTitle(t *testing.T) {
	title := strings.Repeat("t", MaxTextLength*2+1)
	blocks := BuildBlocks([]SummaryEntry{{VideoTitle: title, VideoURL: "http://v", SummaryText: "x"}})
	segs := blocks[0].Segments
	require.Len(t, segs, 4)
	for _, s := range segs[:3] {
		assert.Equal(t, LinkedText, s.Kind)
	}
}

func TestBlockWireJSON(t *testing.T) {
	b := Block{Type: BulletItem, Segments: []Segment{Plain("see "), Link("5s", "http://x?t=5s")}}
	data, err := json.Marshal(b)
	require.NoError(t, err)

	want := `{
		"object": "block",
		"type": "bulleted_list_item",
		"bulleted_list_item": {"rich_text": [
			{"type": "text", "text": {"content": "see ", "link": null}},
			{"type": "text", "text": {"content": "5s", "link": {"url": "http://x?t=5s"}}}
		]}
	}`
	assert.JSONEq(t, want, string(data))
}

func TestBlockWireHeading(t *testing.T) {
	wb := Block{Type: Heading, Segments: []Segment{Plain("h")}}.Wire()
	assert.Equal(t, "heading_2", wb.Type)
	require.NotNil(t, wb.Heading2)
	assert.Nil(t, wb.Paragraph)
	assert.Nil(t, wb.BulletedListItem)
}
