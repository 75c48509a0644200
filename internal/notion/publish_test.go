package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	method   string
	path     string
	children int
}

// fakeNotion serves the two endpoints the publisher uses. failAppend selects
// the 1-based append call that answers 400.
type fakeNotion struct {
	mu         sync.Mutex
	calls      []recordedCall
	failCreate bool
	failAppend int
	appends    int
}

func (f *fakeNotion) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Children []json.RawMessage `json:"children"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{method: r.Method, path: r.URL.Path, children: len(body.Children)})

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/pages":
		if f.failCreate {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"code":"unauthorized"}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":"page-1","url":"https://notion.so/page-1"}`)
	case r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, "/blocks/"):
		f.appends++
		if f.appends == f.failAppend {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"code":"validation_error","message":"body failed validation"}`)
			return
		}
		_, _ = io.WriteString(w, `{"object":"list"}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestPublisher(t *testing.T, f *fakeNotion) *Publisher {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{APIKey: "k", DatabaseID: "db", BaseURL: srv.URL})
	require.NoError(t, err)
	return NewPublisher(c)
}

func paragraphs(n int) []Block {
	blocks := make([]Block, n)
	for i := range blocks {
		blocks[i] = Block{Type: Paragraph, Segments: []Segment{Plain(fmt.Sprintf("p%d", i))}}
	}
	return blocks
}

func TestPublishBatches(t *testing.T) {
	f := &fakeNotion{}
	res := newTestPublisher(t, f).Publish(context.Background(), "digest", paragraphs(250))

	assert.Equal(t, PublishResult{Success: true, PageID: "page-1", PageURL: "https://notion.so/page-1"}, res)
	assert.Equal(t, []recordedCall{
		{http.MethodPost, "/pages", 100},
		{http.MethodPatch, "/blocks/page-1/children", 100},
		{http.MethodPatch, "/blocks/page-1/children", 50},
	}, f.calls)
}

func TestPublishSingleBatch(t *testing.T) {
	f := &fakeNotion{}
	res := newTestPublisher(t, f).Publish(context.Background(), "digest", paragraphs(100))
	assert.True(t, res.Success)
	assert.Len(t, f.calls, 1)
}

func TestPublishEmpty(t *testing.T) {
	f := &fakeNotion{}
	res := newTestPublisher(t, f).Publish(context.Background(), "digest", nil)
	assert.True(t, res.Success)
	assert.Equal(t, []recordedCall{{http.MethodPost, "/pages", 0}}, f.calls)
}

func TestPublishAppendFailureKeepsPage(t *testing.T) {
	f := &fakeNotion{failAppend: 1}
	res := newTestPublisher(t, f).Publish(context.Background(), "digest", paragraphs(250))

	assert.False(t, res.Success)
	assert.Equal(t, "page-1", res.PageID)
	assert.Equal(t, "https://notion.so/page-1", res.PageURL)
	assert.Contains(t, res.Error, "body failed validation")
	assert.Len(t, f.calls, 2, "no further appends after a failure")
}

func TestPublishCreateFailure(t *testing.T) {
	f := &fakeNotion{failCreate: true}
	res := newTestPublisher(t, f).Publish(context.Background(), "digest", paragraphs(3))

	assert.False(t, res.Success)
	assert.Empty(t, res.PageID)
	assert.Empty(t, res.PageURL)
	assert.Equal(t, `{"code":"unauthorized"}`, res.Error)
}

func TestPublishTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(Config{APIKey: "k", DatabaseID: "db", BaseURL: url})
	require.NoError(t, err)
	res := NewPublisher(c).Publish(context.Background(), "digest", paragraphs(1))

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestSplitBatches(t *testing.T) {
	assert.Nil(t, splitBatches(nil, 100))
	got := splitBatches(paragraphs(201), 100)
	require.Len(t, got, 3)
	assert.Len(t, got[2], 1)
}
