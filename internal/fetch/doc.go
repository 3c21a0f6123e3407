// Package fetch retrieves target pages and auxiliary paths over HTTP(S).
//
// It is the only package that talks to the network. The analysis core
// consumes its output, model.FetchedPage, through the PageSource interface
// and never imports net/http.
//
// Requests are paced by a token bucket (golang.org/x/time/rate), probes run
// in parallel under a bounded errgroup, and all traffic may be routed through
// a SOCKS5 proxy such as a local Tor daemon.
package fetch
