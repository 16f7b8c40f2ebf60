package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"parlacorpus/internal/config"
	"parlacorpus/internal/dataset"
	"parlacorpus/internal/schema"
)

func newSchemaCommand() *cobra.Command {
	var checkPath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:         "schema",
		Short:       "Print the dashboard column contract or check a CSV against it",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(checkPath) != "" {
				path, err := config.ExpandPath(strings.TrimSpace(checkPath))
				if err != nil {
					return err
				}
				return checkDataset(cmd, path)
			}
			if jsonOutput {
				return writeJSON(cmd, contractJSON(schema.Dashboard))
			}
			rows := make([][]string, 0, len(schema.Dashboard.Columns))
			for _, col := range schema.Dashboard.Columns {
				rows = append(rows, []string{col.Name, string(col.Kind), string(col.Source), formatAliases(col.Aliases)})
			}
			printTable(cmd, []string{"Column", "Kind", "Source", "Aliases"}, rows, nil)
			return nil
		},
	}

	cmd.Flags().StringVar(&checkPath, "check", "", "Check this CSV file against the contract")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the contract as JSON")
	return cmd
}

func checkDataset(cmd *cobra.Command, path string) error {
	ds, err := dataset.Load(path)
	var schemaErr *dataset.SchemaError
	if errors.As(err, &schemaErr) {
		rows := make([][]string, 0, len(schemaErr.Problems))
		for _, p := range schemaErr.Problems {
			rows = append(rows, []string{p.Column, p.Reason})
		}
		printTable(cmd, []string{"Column", "Problem"}, rows, nil)
		return fmt.Errorf("%s does not match the %s schema (%d problems)", path, schema.Dashboard.Name, len(schemaErr.Problems))
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s matches the %s schema (%d records)\n", path, schema.Dashboard.Name, ds.Len())
	return nil
}

type columnOutput struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Source  string   `json:"source"`
	Aliases []string `json:"aliases,omitempty"`
}

func contractJSON(c schema.Contract) map[string]any {
	columns := make([]columnOutput, 0, len(c.Columns))
	for _, col := range c.Columns {
		columns = append(columns, columnOutput{
			Name:    col.Name,
			Kind:    string(col.Kind),
			Source:  string(col.Source),
			Aliases: col.Aliases,
		})
	}
	return map[string]any{"name": c.Name, "columns": columns}
}

func formatAliases(aliases []string) string {
	quoted := make([]string, len(aliases))
	for i, a := range aliases {
		quoted[i] = fmt.Sprintf("%q", a)
	}
	return strings.Join(quoted, ", ")
}
