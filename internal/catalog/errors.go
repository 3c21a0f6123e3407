package catalog

import "errors"

// Catalog load errors. Every load failure wraps ErrInvalidCatalog and, where
// applicable, one of the more specific errors below.
var (
	// ErrInvalidCatalog is returned when a catalog source cannot be loaded.
	ErrInvalidCatalog = errors.New("invalid signature catalog")

	// ErrMissingTechnology is returned when a technology has no name.
	ErrMissingTechnology = errors.New("technology name is required")

	// ErrUnknownSource is returned for a rule with an unknown source kind.
	ErrUnknownSource = errors.New("unknown evidence source")

	// ErrUnknownField is returned for a rule whose match field is neither key nor value.
	ErrUnknownField = errors.New("unknown match field: must be key or value")

	// ErrUnknownPatternKind is returned for a rule with an unknown pattern kind.
	ErrUnknownPatternKind = errors.New("unknown pattern kind: must be exact, substring or regex")

	// ErrEmptyPattern is returned for a rule without a pattern.
	ErrEmptyPattern = errors.New("pattern is required")

	// ErrInvalidRegex is returned when a regex pattern does not compile.
	ErrInvalidRegex = errors.New("regex does not compile")
)

// ErrInvalidProbePath is returned for a well_known_file rule whose path is not
// a path on the target: it must start with a single "/" and carry no scheme
// or host.
var ErrInvalidProbePath = errors.New("well-known file path must be a path on the target starting with /")
