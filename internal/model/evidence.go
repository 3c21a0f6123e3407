package model

// SourceKind identifies where a piece of evidence was observed.
type SourceKind string

// Evidence source kinds.
const (
	// SourceHeader is a response header (key = header name).
	SourceHeader SourceKind = "header"
	// SourceMetaTag is an HTML <meta> tag (key = name, value = content).
	SourceMetaTag SourceKind = "meta_tag"
	// SourceScriptSrc is the src attribute of a <script> tag.
	SourceScriptSrc SourceKind = "script_src"
	// SourceCookieName is the name of a cookie set by the server.
	SourceCookieName SourceKind = "cookie_name"
	// SourceWellKnownFile is a successful response for an auxiliary path.
	SourceWellKnownFile SourceKind = "well_known_file"
	// SourceBodyText is the raw response body.
	SourceBodyText SourceKind = "body_text"
)

// SourceKinds lists every source kind in extraction order.
var SourceKinds = []SourceKind{
	SourceHeader,
	SourceMetaTag,
	SourceScriptSrc,
	SourceCookieName,
	SourceBodyText,
	SourceWellKnownFile,
}

// Valid reports whether k is a known source kind.
func (k SourceKind) Valid() bool {
	for _, known := range SourceKinds {
		if k == known {
			return true
		}
	}
	return false
}

// String returns the source kind name.
func (k SourceKind) String() string {
	return string(k)
}

// IsSnippet reports whether values of this kind hold raw content that should
// not be printed verbatim by default.
func (k SourceKind) IsSnippet() bool {
	return k == SourceWellKnownFile || k == SourceBodyText
}

// EvidenceItem is one discrete observable fact extracted from a page.
// Items are values; nothing modifies them after the extractor creates them.
type EvidenceItem struct {
	// Source is the kind of artifact the item came from.
	Source SourceKind `json:"source"`

	// Key is the artifact name (header name, meta name, "src", cookie name, path).
	Key string `json:"key"`

	// Value is the artifact content.
	Value string `json:"value"`

	// Location describes where the item was found, e.g. "header:Server".
	Location string `json:"location"`
}

// EvidenceKey is the identity of an evidence item for deduplication.
type EvidenceKey struct {
	Source SourceKind
	Key    string
	Value  string
}

// Identity returns the deduplication key of the item.
func (e EvidenceItem) Identity() EvidenceKey {
	return EvidenceKey{Source: e.Source, Key: e.Key, Value: e.Value}
}
