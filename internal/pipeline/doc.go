// Package pipeline runs a scan of one target through a sequence of steps.
//
// A default scan is fetch, probe, analyze, save. Each step is a Step that
// receives the shared Scan state and may modify it. The analysis itself is
// pure; the surrounding steps carry the I/O.
//
// BatchProcessor runs the same pipeline for many targets concurrently,
// bounded by errgroup.SetLimit, and can stream results through a callback.
package pipeline
