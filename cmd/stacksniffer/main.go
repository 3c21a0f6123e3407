// Package main provides the entry point for the stacksniffer CLI.
//
// stacksniffer requests a web site over HTTP(S) and reports the observable
// evidence of its technology stack: response headers, meta tags, script
// sources, cookie names and well-known files. It never exploits anything
// and never declares a verdict.
//
// Usage:
//
//	stacksniffer scan <url>
//	stacksniffer scan --list <file>
//
// See --help for all available options.
package main

func main() {
	Execute()
}
