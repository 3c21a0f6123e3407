// Package database stores scan history in SQLite.
//
// Every completed scan is saved as one row holding the report JSON and the
// SHA3 digest of its findings. The history command reads the rows back to
// list targets and to compare the two most recent scans of a target.
//
// The driver is modernc.org/sqlite, a CGO-free implementation, so the
// database is a single file under the XDG data directory.
package database
