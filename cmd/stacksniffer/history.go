package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/stacksniffer/internal/config"
	"github.com/nao1215/stacksniffer/internal/database"
	"github.com/nao1215/stacksniffer/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "Show stored scans and how a site's stack changed",
		Long: `History reads the scan reports stored by 'stacksniffer scan'.

Without arguments it lists every scanned target. With a target it lists the
scans of that target. --diff compares the two most recent scans and shows
which technologies appeared or disappeared.

Examples:
  # List scanned targets
  stacksniffer history

  # List scans of a target
  stacksniffer history example.com

  # Compare the latest two scans
  stacksniffer history --diff example.com

  # Compare the latest scan with a specific one
  stacksniffer history --diff --with-scan-id 3 example.com

  # Print a stored report
  stacksniffer history --show 5

  # Forget a target
  stacksniffer history --delete example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Bool("diff", false,
		"Compare the most recent scans of the target")
	cmd.Flags().Int64P("with-scan-id", "i", 0,
		"Compare the latest scan with this scan ID instead of the previous one")
	cmd.Flags().Int64("show", 0,
		"Print the stored report with this scan ID")
	cmd.Flags().Bool("delete", false,
		"Delete every stored scan of the target")

	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output a stored report in Markdown format (with --show)")
	cmd.Flags().Bool("show-snippets", false,
		"Print well-known file and body snippets verbatim (with --show)")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the scan history database")

	return cmd
}

// historyOptions holds the parsed flags of the history command.
type historyOptions struct {
	target       string
	diff         bool
	withScanID   int64
	showID       int64
	deleteTarget bool
	json         bool
	markdown     bool
	showSnippets bool
	dbDir        string
}

func parseHistoryFlags(cmd *cobra.Command, args []string) (*historyOptions, error) {
	opts := &historyOptions{}
	flags := cmd.Flags()
	var err error

	if opts.diff, err = flags.GetBool("diff"); err != nil {
		return nil, err
	}
	if opts.withScanID, err = flags.GetInt64("with-scan-id"); err != nil {
		return nil, err
	}
	if opts.showID, err = flags.GetInt64("show"); err != nil {
		return nil, err
	}
	if opts.deleteTarget, err = flags.GetBool("delete"); err != nil {
		return nil, err
	}
	if opts.json, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if opts.markdown, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if opts.showSnippets, err = flags.GetBool("show-snippets"); err != nil {
		return nil, err
	}
	if opts.dbDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}

	if opts.json && opts.markdown {
		return nil, config.ErrConflictingReportFormats
	}
	if opts.withScanID != 0 && !opts.diff {
		return nil, errors.New("--with-scan-id requires --diff")
	}

	if len(args) == 1 {
		// Stored targets are normalized, so normalize the lookup key too.
		opts.target, err = config.NormalizeTarget(args[0])
		if err != nil {
			return nil, err
		}
	}
	if (opts.diff || opts.deleteTarget) && opts.target == "" {
		return nil, errors.New("a target is required (run 'stacksniffer history' to list targets)")
	}
	return opts, nil
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseHistoryFlags(cmd, args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	db, err := database.Open(opts.dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if errors.Is(err, database.ErrDatabaseNotFound) {
		fmt.Fprintln(out, "No scan history found.")
		fmt.Fprintln(out, "\nUse 'stacksniffer scan <url>' to scan a site.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()

	switch {
	case opts.showID != 0:
		return showStoredReport(ctx, db, opts, out)
	case opts.deleteTarget:
		n, err := db.DeleteTarget(ctx, opts.target)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted %d scan(s) of %s\n", n, opts.target)
		return nil
	case opts.diff:
		return diffScans(ctx, db, opts, out)
	case opts.target != "":
		return listScans(ctx, db, opts, out)
	default:
		return listTargets(ctx, db, opts, out)
	}
}

// listTargets lists all targets that have stored scans.
func listTargets(ctx context.Context, db *database.HistoryDB, opts *historyOptions, out io.Writer) error {
	targets, err := db.ListTargets(ctx)
	if err != nil {
		return err
	}
	if opts.json {
		return writeJSON(out, targets)
	}

	if len(targets) == 0 {
		fmt.Fprintln(out, "No scanned targets found in the database.")
		fmt.Fprintln(out, "\nUse 'stacksniffer scan <url>' to scan a site.")
		return nil
	}

	fmt.Fprintf(out, "Scanned targets (%d):\n\n", len(targets))
	fmt.Fprintf(out, "  %-40s  %-6s  %s\n", "Target", "Scans", "Last Scan")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 70))
	for _, t := range targets {
		fmt.Fprintf(out, "  %-40s  %-6d  %s\n", t.Target, t.Scans, t.LastScan.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintln(out, "\nUse 'stacksniffer history <url>' to see the scans of a target.")
	return nil
}

// listScans lists the stored scans of one target.
func listScans(ctx context.Context, db *database.HistoryDB, opts *historyOptions, out io.Writer) error {
	scans, err := db.ListScans(ctx, opts.target)
	if err != nil {
		return err
	}
	if opts.json {
		return writeJSON(out, scans)
	}

	if len(scans) == 0 {
		fmt.Fprintf(out, "No scan history found for %s\n", opts.target)
		return nil
	}

	fmt.Fprintf(out, "Scan history for %s (%d scans):\n\n", opts.target, len(scans))
	fmt.Fprintf(out, "  %-6s  %-20s  %-12s  %s\n", "ID", "Date", "Technologies", "Digest")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 60))
	for _, s := range scans {
		fmt.Fprintf(out, "  %-6d  %-20s  %-12d  %s\n",
			s.ID,
			s.ScannedAt.Local().Format("2006-01-02 15:04:05"),
			s.Technologies,
			shortDigest(s.Digest),
		)
	}
	fmt.Fprintln(out, "\nUse 'stacksniffer history --diff <url>' to compare the latest two scans.")
	fmt.Fprintln(out, "Use 'stacksniffer history --show <id>' to print a stored report.")
	return nil
}

// diffScans compares two scans of the target.
func diffScans(ctx context.Context, db *database.HistoryDB, opts *historyOptions, out io.Writer) error {
	var (
		cmp *database.Comparison
		err error
	)
	if opts.withScanID != 0 {
		cmp, err = compareWithScan(ctx, db, opts.target, opts.withScanID)
	} else {
		cmp, err = db.CompareLatest(ctx, opts.target)
	}
	if err != nil {
		return err
	}

	if opts.json {
		return writeJSON(out, cmp)
	}

	fmt.Fprintf(out, "Comparing scans of %s\n\n", opts.target)
	fmt.Fprintf(out, "  Previous: #%d  %s\n", cmp.Older.ID, cmp.Older.ScannedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  Current:  #%d  %s\n\n", cmp.Newer.ID, cmp.Newer.ScannedAt.Local().Format("2006-01-02 15:04:05"))

	if cmp.Diff.Identical {
		fmt.Fprintln(out, "No changes: both scans produced the same evidence.")
		return nil
	}

	for _, tech := range cmp.Diff.Added {
		fmt.Fprintf(out, "  + %s\n", tech)
	}
	for _, tech := range cmp.Diff.Removed {
		fmt.Fprintf(out, "  - %s\n", tech)
	}
	for _, tech := range cmp.Diff.Kept {
		fmt.Fprintf(out, "    %s\n", tech)
	}
	if !cmp.Diff.Changed() {
		fmt.Fprintln(out, "\nSame technologies, different evidence.")
	}
	return nil
}

// compareWithScan compares the latest scan of target with scan id.
func compareWithScan(ctx context.Context, db *database.HistoryDB, target string, id int64) (*database.Comparison, error) {
	scans, err := db.ListScans(ctx, target)
	if err != nil {
		return nil, err
	}
	if len(scans) == 0 {
		return nil, fmt.Errorf("%w: %s", database.ErrReportNotFound, target)
	}

	older, err := db.GetScan(ctx, id)
	if err != nil {
		return nil, err
	}
	if older.Target != target {
		return nil, fmt.Errorf("scan ID %d belongs to %s, not %s", id, older.Target, target)
	}
	if older.ID == scans[0].ID {
		return nil, fmt.Errorf("scan ID %d is the latest scan of %s", id, target)
	}
	return db.Compare(ctx, older.ID, scans[0].ID)
}

// showStoredReport prints a stored report with the report writers.
func showStoredReport(ctx context.Context, db *database.HistoryDB, opts *historyOptions, out io.Writer) error {
	r, err := db.GetReport(ctx, opts.showID)
	if err != nil {
		return err
	}

	format := report.FormatText
	switch {
	case opts.json:
		format = report.FormatJSON
	case opts.markdown:
		format = report.FormatMarkdown
	}
	w, err := report.NewWriter(out, format,
		report.WithShowSnippets(opts.showSnippets),
		report.WithIndent("  "),
	)
	if err != nil {
		return err
	}
	_, err = w.Write(r)
	return err
}

// writeJSON writes v as indented JSON.
func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// shortDigest abbreviates a hex digest for tables.
func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
