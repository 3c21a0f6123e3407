package extract

import (
	"net/textproto"
	"strings"

	"github.com/nao1215/stacksniffer/internal/model"
)

// headerSetCookie is the canonical name of the header carrying cookies.
const headerSetCookie = "Set-Cookie"

// Extract returns every evidence item observable in page, in discovery order.
// A nil page yields no evidence.
func Extract(page *model.FetchedPage) []model.EvidenceItem {
	if page == nil {
		return nil
	}

	items := make([]model.EvidenceItem, 0, len(page.Headers)+len(page.Probes)+8)
	items = append(items, headerItems(page.Headers)...)

	doc := parseHTML(page.Body)
	items = append(items, doc.meta...)
	items = append(items, doc.scripts...)

	items = append(items, cookieItems(page.Headers)...)

	if strings.TrimSpace(page.Body) != "" {
		items = append(items, model.EvidenceItem{
			Source:   model.SourceBodyText,
			Key:      "body",
			Value:    model.Truncate(page.Body, model.MaxBodyTextSize),
			Location: "body",
		})
	}

	items = append(items, probeItems(page.Probes)...)
	return items
}

// headerItems emits one item per header line. Names are canonicalized so
// that "server" and "SERVER" produce the same evidence.
func headerItems(headers []model.Header) []model.EvidenceItem {
	items := make([]model.EvidenceItem, 0, len(headers))
	for _, h := range headers {
		name := canonicalHeader(h.Name)
		if name == "" || name == headerSetCookie {
			continue
		}
		items = append(items, model.EvidenceItem{
			Source:   model.SourceHeader,
			Key:      name,
			Value:    strings.TrimSpace(h.Value),
			Location: "header:" + name,
		})
	}
	return items
}

// cookieItems emits one cookie_name item per cookie set by the response.
func cookieItems(headers []model.Header) []model.EvidenceItem {
	var items []model.EvidenceItem
	for _, h := range headers {
		if canonicalHeader(h.Name) != headerSetCookie {
			continue
		}
		for _, name := range CookieNames(h.Value) {
			items = append(items, model.EvidenceItem{
				Source:   model.SourceCookieName,
				Key:      name,
				Value:    name,
				Location: "cookie:" + name,
			})
		}
	}
	return items
}

// probeItems emits one well_known_file item per probe answered with 2xx.
// Failed probes (status 0) and error statuses are not evidence.
func probeItems(probes []model.Probe) []model.EvidenceItem {
	var items []model.EvidenceItem
	for _, p := range probes {
		if !p.OK() {
			continue
		}
		items = append(items, model.EvidenceItem{
			Source:   model.SourceWellKnownFile,
			Key:      p.Path,
			Value:    model.Truncate(p.Body, model.MaxSnippetSize),
			Location: "probe:" + p.Path,
		})
	}
	return items
}

func canonicalHeader(name string) string {
	return textproto.CanonicalMIMEHeaderKey(strings.TrimSpace(name))
}
