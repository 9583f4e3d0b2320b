// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/biosearch/internal/registry"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the registered data sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		all := registry.All()
		if asJSON {
			return json.NewEncoder(os.Stdout).Encode(all)
		}
		fmt.Printf("%-18s  %-20s  %-16s  %s\n", "ID", "Name", "Category", "Description")
		for _, s := range all {
			fmt.Printf("%-18s  %-20s  %-16s  %s\n", s.ID, s.Name, s.Category, s.Description)
		}
		return nil
	},
}

func init() {
	sourcesCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(sourcesCmd)
}
