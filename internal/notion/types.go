package notion

import "encoding/json"

// SegmentKind distinguishes the two rich-text variants Notion accepts from us.
type SegmentKind int

const (
	PlainText SegmentKind = iota
	LinkedText
)

// Segment is the smallest unit of rich text. LinkedText segments always carry a
// non-empty URL; PlainText segments never do.
type Segment struct {
	Kind    SegmentKind
	Content string
	URL     string
}

// Plain returns a PlainText segment.
func Plain(content string) Segment {
	return Segment{Kind: PlainText, Content: content}
}

// Link returns a LinkedText segment, or a PlainText one when url is empty.
func Link(content, url string) Segment {
	if url == "" {
		return Plain(content)
	}
	return Segment{Kind: LinkedText, Content: content, URL: url}
}

// BlockType is the Notion block type name; the values double as wire names.
type BlockType string

const (
	Heading    BlockType = "heading_2"
	Paragraph  BlockType = "paragraph"
	BulletItem BlockType = "bulleted_list_item"
)

// Block is one structural unit of the output document.
type Block struct {
	Type     BlockType
	Segments []Segment
}

// SummaryEntry is one video's summary as handed over by the digest pipeline.
type SummaryEntry struct {
	VideoTitle   string `json:"video_title" jsonschema:"Video title, rendered as the section heading"`
	VideoURL     string `json:"video_url,omitempty" jsonschema:"Canonical watch URL; the heading links to it when set"`
	ChannelTitle string `json:"channel_title,omitempty" jsonschema:"Channel display name"`
	SummaryText  string `json:"summary_text" jsonschema:"Markdown-ish summary: bullet lines, paragraphs, [Ns](url) timestamp links"`
}

// PublishResult reports the outcome of one Publish call. PageID and PageURL stay
// set when the page was created but a later append failed.
type PublishResult struct {
	Success bool   `json:"success"`
	PageID  string `json:"page_id,omitempty"`
	PageURL string `json:"page_url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// --- Wire types (Notion API JSON) ---

// WireLink is the link object of a text rich-text item.
type WireLink struct {
	URL string `json:"url"`
}

// WireText is the text object of a rich-text item.
type WireText struct {
	Content string    `json:"content"`
	Link    *WireLink `json:"link"`
}

// WireRichText is one rich-text item.
type WireRichText struct {
	Type string   `json:"type"`
	Text WireText `json:"text"`
}

// WireRichTextBody is the per-type payload of a text block.
type WireRichTextBody struct {
	RichText []WireRichText `json:"rich_text"`
}

// WireBlock is a block as serialized for the Notion API. Exactly one of the
// typed bodies is set, matching Type.
type WireBlock struct {
	Object           string            `json:"object"`
	Type             string            `json:"type"`
	Heading2         *WireRichTextBody `json:"heading_2,omitempty"`
	Paragraph        *WireRichTextBody `json:"paragraph,omitempty"`
	BulletedListItem *WireRichTextBody `json:"bulleted_list_item,omitempty"`
}

// Wire converts the segment to its Notion rich-text form.
func (s Segment) Wire() WireRichText {
	rt := WireRichText{Type: "text", Text: WireText{Content: s.Content}}
	if s.Kind == LinkedText {
		rt.Text.Link = &WireLink{URL: s.URL}
	}
	return rt
}

// Wire converts the block to its Notion form.
func (b Block) Wire() WireBlock {
	body := &WireRichTextBody{RichText: make([]WireRichText, 0, len(b.Segments))}
	for _, s := range b.Segments {
		body.RichText = append(body.RichText, s.Wire())
	}
	wb := WireBlock{Object: "block", Type: string(b.Type)}
	switch b.Type {
	case Heading:
		wb.Heading2 = body
	case BulletItem:
		wb.BulletedListItem = body
	default:
		wb.Type = string(Paragraph)
		wb.Paragraph = body
	}
	return wb
}

// MarshalJSON renders the segment in Notion wire form.
func (s Segment) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Wire())
}

// MarshalJSON renders the block in Notion wire form.
func (b Block) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Wire())
}

// WireBlocks converts a block list for transport or preview output.
func WireBlocks(blocks []Block) []WireBlock {
	out := make([]WireBlock, len(blocks))
	for i, b := range blocks {
		out[i] = b.Wire()
	}
	return out
}
