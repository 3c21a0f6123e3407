package fetch

import (
	"context"

	"github.com/nao1215/stacksniffer/internal/model"
)

// PageSource produces the page to analyze for a target URL.
// *Client is the network implementation; tests use in-memory sources.
type PageSource interface {
	Fetch(ctx context.Context, target string) (*model.FetchedPage, error)
}

// Prober requests auxiliary paths relative to a base URL.
type Prober interface {
	Probe(ctx context.Context, base string, paths []string) []model.Probe
}

// StaticSource is a PageSource that always returns the same page.
type StaticSource struct {
	Page *model.FetchedPage
	Err  error
}

// Fetch returns a copy of the configured page with URL defaulted to target.
func (s StaticSource) Fetch(_ context.Context, target string) (*model.FetchedPage, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Page == nil {
		return &model.FetchedPage{URL: target}, nil
	}
	page := *s.Page
	if page.URL == "" {
		page.URL = target
	}
	return &page, nil
}
