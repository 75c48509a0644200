package notion

import (
	"context"
	"errors"
	"log/slog"
)

// MaxChildrenPerRequest is the Notion API ceiling on children per create or
// append call.
const MaxChildrenPerRequest = 100

// PageWriter is the subset of the Notion API the publisher drives.
type PageWriter interface {
	CreatePage(ctx context.Context, title string, children []Block) (Page, error)
	AppendChildren(ctx context.Context, blockID string, children []Block) error
}

// Publisher commits a block list as one Notion page: a create call carrying the
// first batch, then sequential append calls for the rest.
type Publisher struct {
	api PageWriter
}

// NewPublisher returns a Publisher writing through api.
func NewPublisher(api PageWriter) *Publisher {
	return &Publisher{api: api}
}

// Publish creates the page and appends the remaining blocks batch by batch.
// The first failure ends the call; batches already appended stay on the page,
// and the result keeps the page identifiers so the caller can find it.
func (p *Publisher) Publish(ctx context.Context, title string, blocks []Block) PublishResult {
	batches := splitBatches(blocks, MaxChildrenPerRequest)

	var first []Block
	if len(batches) > 0 {
		first = batches[0]
	}
	page, err := p.api.CreatePage(ctx, title, first)
	if err != nil {
		slog.Error("notion: page create failed", slog.String("title", title), slog.Any("error", err))
		return PublishResult{Error: errorMessage(err)}
	}
	slog.Info("notion: page created",
		slog.String("page_id", page.ID),
		slog.Int("blocks", len(first)),
		slog.Int("batches", len(batches)),
	)

	for i := 1; i < len(batches); i++ {
		if err := p.api.AppendChildren(ctx, page.ID, batches[i]); err != nil {
			slog.Error("notion: append failed",
				slog.String("page_id", page.ID),
				slog.Int("batch", i),
				slog.Any("error", err),
			)
			return PublishResult{PageID: page.ID, PageURL: page.URL, Error: errorMessage(err)}
		}
	}
	return PublishResult{Success: true, PageID: page.ID, PageURL: page.URL}
}

// errorMessage prefers the raw API response body over the wrapped error text.
func errorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Body != "" {
		return apiErr.Body
	}
	return err.Error()
}

func splitBatches(blocks []Block, size int) [][]Block {
	var out [][]Block
	for len(blocks) > 0 {
		n := min(size, len(blocks))
		out = append(out, blocks[:n])
		blocks = blocks[n:]
	}
	return out
}
