package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_ytdigest/internal/notion"
)

func TestReadSummary(t *testing.T) {
	got, err := readSummary("-", strings.NewReader("from stdin"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", got)

	path := filepath.Join(t.TempDir(), "s.md")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0o600))
	got, err = readSummary(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "from file", got)

	_, err = readSummary(filepath.Join(t.TempDir(), "missing.md"), nil)
	assert.Error(t, err)
}

func TestWritePreview(t *testing.T) {
	var buf bytes.Buffer
	entry := notion.SummaryEntry{VideoTitle: "Talk", VideoURL: "https://www.youtube.com/watch?v=x", ChannelTitle: "Chan"}
	require.NoError(t, writePreview(&buf, entry, "- first（https://www.youtube.com/watch?v=x&t=5s）point\nclosing line"))

	var blocks []notion.WireBlock
	require.NoError(t, json.Unmarshal(buf.Bytes(), &blocks))
	require.Len(t, blocks, 3)
	assert.Equal(t, "heading_2", blocks[0].Type)
	assert.Equal(t, "bulleted_list_item", blocks[1].Type)
	assert.Equal(t, "paragraph", blocks[2].Type)

	rt := blocks[1].BulletedListItem.RichText
	require.Len(t, rt, 3)
	assert.Equal(t, "first ", rt[0].Text.Content)
	assert.Equal(t, "5s", rt[1].Text.Content)
	require.NotNil(t, rt[1].Text.Link)
	assert.Equal(t, "https://www.youtube.com/watch?v=x&t=5s", rt[1].Text.Link.URL)
	assert.Equal(t, " point", rt[2].Text.Content)
	assert.NotContains(t, buf.String(), "\\u0026", "HTML escaping disabled")
}
