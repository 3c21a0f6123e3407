package extract

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/stacksniffer/internal/model"
)

// metaKeyAttrs are the attributes naming a <meta> tag, in preference order.
var metaKeyAttrs = []string{"name", "property", "http-equiv"}

// document holds the evidence found in an HTML body.
type document struct {
	meta    []model.EvidenceItem
	scripts []model.EvidenceItem
}

// parseHTML walks the body and collects meta tags and script references.
// The HTML parser recovers from malformed markup, so any body yields a
// document; an unparsable body yields an empty one.
func parseHTML(body string) document {
	var d document
	if strings.TrimSpace(body) == "" {
		return d
	}

	root, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return d
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			d.processElement(n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return d
}

// processElement handles a single HTML element node.
func (d *document) processElement(n *html.Node) {
	switch n.Data {
	case "meta":
		content, ok := lookupAttr(n, "content")
		if !ok {
			return
		}
		for _, attr := range metaKeyAttrs {
			key := strings.TrimSpace(getAttr(n, attr))
			if key == "" {
				continue
			}
			d.meta = append(d.meta, model.EvidenceItem{
				Source:   model.SourceMetaTag,
				Key:      key,
				Value:    strings.TrimSpace(content),
				Location: "meta[" + attr + "=" + key + "]",
			})
			return
		}

	case "script":
		src := strings.TrimSpace(getAttr(n, "src"))
		if src == "" {
			return
		}
		d.scripts = append(d.scripts, model.EvidenceItem{
			Source:   model.SourceScriptSrc,
			Key:      "src",
			Value:    src,
			Location: "script[" + strconv.Itoa(len(d.scripts)+1) + "]",
		})
	}
}

// getAttr returns the value of the named attribute, or "".
func getAttr(n *html.Node, name string) string {
	v, _ := lookupAttr(n, name)
	return v
}

// lookupAttr returns the value of the named attribute and whether it exists.
// Attribute names are lower-cased by the parser.
func lookupAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}
