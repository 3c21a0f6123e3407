package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/stacksniffer/internal/catalog"
	"github.com/spf13/cobra"
)

// NewSignaturesCmd creates the signatures command.
func NewSignaturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signatures",
		Short: "List or validate signature catalogs",
		Long: `Signatures prints the technologies of the signature catalog. Extra
catalog files given with --signatures are merged into the built-in catalog
first, the same way 'stacksniffer scan' does it.

With --validate, each file is checked on its own and nothing is listed.

Examples:
  # List the built-in catalog
  stacksniffer signatures

  # Show every rule
  stacksniffer signatures --rules

  # List the well-known paths that scan probes
  stacksniffer signatures --probes

  # Check catalog files before using them
  stacksniffer signatures --validate my-signatures.yaml`,
		Args: cobra.NoArgs,
		RunE: runSignaturesCmd,
	}

	cmd.Flags().StringSliceP("signatures", "s", nil,
		"Extra signature catalog files merged into the built-in catalog")
	cmd.Flags().StringSlice("validate", nil,
		"Validate catalog files without merging them")
	cmd.Flags().Bool("rules", false,
		"Print every rule of each technology")
	cmd.Flags().Bool("probes", false,
		"Print the well-known paths probed by scan")

	return cmd
}

// runSignaturesCmd executes the signatures command.
func runSignaturesCmd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	out := cmd.OutOrStdout()

	validate, err := flags.GetStringSlice("validate")
	if err != nil {
		return err
	}
	if len(validate) > 0 {
		return validateCatalogs(out, validate)
	}

	files, err := flags.GetStringSlice("signatures")
	if err != nil {
		return err
	}
	showRules, err := flags.GetBool("rules")
	if err != nil {
		return err
	}
	showProbes, err := flags.GetBool("probes")
	if err != nil {
		return err
	}

	cat, err := catalog.New(files...)
	if err != nil {
		return err
	}

	if showProbes {
		for _, p := range cat.ProbePaths() {
			fmt.Fprintln(out, p)
		}
		return nil
	}

	writeCatalog(out, cat, showRules)
	return nil
}

// validateCatalogs checks every file and reports all failures at once.
func validateCatalogs(out io.Writer, files []string) error {
	var errs []error
	for _, file := range files {
		if err := catalog.Validate(file); err != nil {
			fmt.Fprintf(out, "  [NG] %s\n", file)
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(out, "  [OK] %s\n", file)
	}
	return errors.Join(errs...)
}

// writeCatalog prints the technologies of cat as a table.
func writeCatalog(out io.Writer, cat *catalog.Catalog, showRules bool) {
	techs := cat.Technologies()
	fmt.Fprintf(out, "Signature catalog: %d technologies, %d rules\n\n", len(techs), cat.RuleCount())
	fmt.Fprintf(out, "  %-28s  %-16s  %s\n", "Technology", "Category", "Rules")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 56))

	for _, tech := range techs {
		category := tech.Category
		if category == "" {
			category = "-"
		}
		fmt.Fprintf(out, "  %-28s  %-16s  %d\n", tech.Name, category, len(tech.Rules))
		if showRules {
			for _, rule := range tech.Rules {
				fmt.Fprintf(out, "      %s\n", rule)
			}
		}
	}
}
