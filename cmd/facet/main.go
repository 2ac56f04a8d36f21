package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information - will be set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var debugFlag bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "facet",
		Short: "Entity field type system tooling",
		Long: `Facet maps entity field values between their application-level
representation and a relational store: coercion, validation,
cross-entity references, and filesystem-node resolution, driven by a
declarative type registry.`,
	}

	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(typesCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(initCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
