// Package log builds the slog loggers used by stacksniffer.
//
// Every logger is wrapped in a SecureHandler that masks attributes which may
// carry target secrets: cookies and session identifiers seen while fetching,
// credentials supplied in the config file, and raw response bodies or probe
// snippets. Long string values are shortened so that a stray body never
// floods the log.
//
//	logger := log.New(os.Stderr, log.Options{Verbose: true})
//	logger.Debug("probe done", "path", "/robots.txt", "snippet", body) // snippet is masked
package log
