// Package extract turns a fetched page into an ordered list of evidence items.
//
// Extraction is a pure function of the page: no network access, no catalog
// knowledge. Items are emitted in a fixed discovery order:
//
//  1. response headers (one item per header line, Set-Cookie excluded)
//  2. HTML <meta> tags
//  3. HTML <script src> references
//  4. cookie names from Set-Cookie headers
//  5. the response body as body_text
//  6. successful auxiliary probes as well_known_file items
//
// Set-Cookie headers only contribute cookie names, so cookie values never
// reach a report. Malformed HTML never aborts extraction; whatever the
// parser recovers is used.
package extract
