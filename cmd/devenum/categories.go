package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/srg/devenum/internal/catdb"
)

var categoriesFormat string

// categoriesCmd represents the categories command
var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the known device categories",
	Long: `Prints the DirectShow categories devenum knows by name. Any of the alias,
the name or the GUID can be passed where a category is expected; GUIDs of
other categories are accepted as well.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if categoriesFormat != "table" && categoriesFormat != "json" {
			return fmt.Errorf("invalid format '%s': must be one of [table json]", categoriesFormat)
		}
		cmd.SilenceUsage = true

		entries := catdb.All()
		out := cmd.OutOrStdout()
		if categoriesFormat == "json" {
			type row struct {
				Alias    string `json:"alias"`
				Name     string `json:"name"`
				Category string `json:"category"`
			}
			rows := make([]row, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, row{Alias: e.Alias, Name: e.Name, Category: e.Category.String()})
			}
			return writeJSON(out, rows)
		}

		rows := make([][]cell, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []cell{plain(e.Alias), plain(e.Name), plain(e.Category.String())})
		}
		return writeTable(out, false, []string{"ALIAS", "NAME", "GUID"}, rows)
	},
}

func init() {
	categoriesCmd.Flags().StringVarP(&categoriesFormat, "format", "f", "table", "Output format (table, json)")
}
