package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for stacksniffer.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stacksniffer",
		Short: "Collect technology stack evidence from a web site",
		Long: `stacksniffer probes a web site over HTTP(S) and collects the evidence an
analyst needs to infer its technology stack: response headers, HTML meta
tags, script references, cookie names and a few well-known files.

Every reported technology is backed by the raw signals that matched it.
stacksniffer does not exploit, authenticate, or scan for vulnerabilities.`,
		Version:       currentBuild().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewSignaturesCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}
