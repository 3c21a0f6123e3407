// Package catalog provides the signature catalog: the declarative table that
// maps technology names to match rules.
//
// The catalog is pure data. Rules are loaded once at start-up from YAML (the
// built-in signatures.yaml plus optional user files), validated, compiled and
// then shared read-only by every analysis run. A malformed rule aborts the
// load; there is no such thing as a partially loaded catalog.
//
// # Rule schema
//
//	technologies:
//	  - name: WordPress
//	    category: cms
//	    rules:
//	      - source: meta_tag     # header, meta_tag, script_src, cookie_name, well_known_file, body_text
//	        key: generator       # optional: only evidence with this key (case-insensitive)
//	        match: value         # key or value (default value)
//	        kind: substring      # exact, substring or regex
//	        pattern: wordpress
//
// exact and substring comparisons are case-insensitive. regex patterns are
// compiled once at load time with case-insensitive matching unless the
// pattern sets its own flags.
//
// # Usage
//
//	cat, err := catalog.New("my-signatures.yaml")
//	if err != nil {
//	    // configuration error; do not run
//	}
//	rules := cat.RulesFor(model.SourceHeader)
package catalog
