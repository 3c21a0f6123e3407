// Package model defines the data structures shared by the stacksniffer
// packages.
//
// This package contains the following main types:
//   - FetchedPage: The already-fetched target page plus auxiliary probe results
//   - EvidenceItem: One observable fact extracted from a FetchedPage
//   - Report: Technologies together with the evidence that supports them
//
// The types live in their own package so that the fetch layer, the analysis
// core and the output layer can share them without import cycles. All of them
// serialize to JSON for report output and history storage.
package model
