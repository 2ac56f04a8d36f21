package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/facet-orm/facet/internal/orm/fieldtype"
	"github.com/facet-orm/facet/internal/orm/refs"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the registered field types",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := fieldtype.Builtin()
		if err := refs.Register(registry); err != nil {
			return err
		}

		names := registry.List()
		sort.Strings(names)

		heading := color.New(color.FgCyan, color.Bold)
		heading.Println("Registered field types")
		for _, name := range names {
			t, err := registry.Resolve(name)
			if err != nil {
				return err
			}
			generated := ""
			if t.HasFactory() {
				generated = "  (server-generated default)"
			}
			fmt.Printf("  %-14s%s\n", name, generated)
		}
		return nil
	},
}
