package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/stacksniffer/internal/model"
)

// Fetch retrieves target and returns the final page after redirects.
// Non-2xx responses are returned as pages, not errors; only transport
// failures wrap ErrRequestFailed.
func (c *Client) Fetch(ctx context.Context, target string) (*model.FetchedPage, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, target)
	}

	method := http.MethodGet
	if c.headOnly {
		method = http.MethodHead
	}

	resp, body, err := c.do(ctx, c.httpClient, method, u.String(), c.maxBodySize)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRequestFailed, target, err)
	}

	return &model.FetchedPage{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Headers:    model.HeadersFromHTTP(resp.Header),
		Body:       body,
	}, nil
}

// Probe requests each path relative to base and returns one probe per path,
// in input order. Probes do not follow redirects, and paths that are not on
// the base host are not requested. A probe that fails at the
// transport level is recorded with status 0; Probe itself never fails.
func (c *Client) Probe(ctx context.Context, base string, paths []string) []model.Probe {
	probes := make([]model.Probe, len(paths))
	for i, p := range paths {
		probes[i].Path = p
	}
	if len(paths) == 0 {
		return probes
	}

	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Host == "" {
		c.logger.Debug("skipping probes for unparsable base", "base", base)
		return probes
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.probeConcurrency)

	for i, p := range paths {
		g.Go(func() error {
			if !model.IsLocalPath(p) {
				c.logger.Debug("skipping probe outside the target", "path", p)
				return nil
			}
			ref, err := url.Parse(p)
			if err != nil {
				c.logger.Debug("invalid probe path", "path", p, "error", err)
				return nil
			}
			resolved := baseURL.ResolveReference(ref)
			if resolved.Host != baseURL.Host {
				c.logger.Debug("skipping probe outside the target", "path", p)
				return nil
			}
			target := resolved.String()

			resp, body, err := c.do(gctx, c.probeClient, http.MethodGet, target, int64(model.MaxSnippetSize))
			if err != nil {
				c.logger.Debug("probe failed", "path", p, "error", err)
				return nil
			}
			probes[i].StatusCode = resp.StatusCode
			probes[i].Body = body
			c.logger.Debug("probe done", "path", p, "status", resp.StatusCode)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // probe goroutines never return errors

	return probes
}

// do performs one paced request and reads at most limit body bytes.
func (c *Client) do(ctx context.Context, client *http.Client, method, target string, limit int64) (*http.Response, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if method == http.MethodHead {
		return resp, "", nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read body: %w", err)
	}
	return resp, string(data), nil
}
