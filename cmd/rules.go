package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/tcmdx/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the loaded knowledge base",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, table, err := loadRules(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if cat, _ := cmd.Flags().GetString("category"); cat != "" {
			rows := table.Rows(rules.Category(cat))
			if len(rows) == 0 {
				return fmt.Errorf("category %q has no rows", cat)
			}
			for _, r := range rows {
				fmt.Fprintf(out, "%s\n  core:      %s\n  secondary: %s\n",
					r.Pattern, strings.Join(r.Core, "、"), strings.Join(r.Secondary, "、"))
			}
			return nil
		}

		if sym, _ := cmd.Flags().GetBool("symptoms"); sym {
			for _, s := range table.Symptoms() {
				fmt.Fprintf(out, "%-6s %s", s.Code, s.Name)
				for _, d := range s.Dimensions {
					fmt.Fprintf(out, "  %s[%s]", d.Name, strings.Join(d.Options, "/"))
				}
				fmt.Fprintln(out)
			}
			return nil
		}

		fmt.Fprintf(out, "%-20s  %s\n", "Category", "Rows")
		fmt.Fprintln(out, strings.Repeat("─", 28))
		for _, c := range rules.KnownCategories() {
			fmt.Fprintf(out, "%-20s  %4d\n", c, len(table.Rows(c)))
		}
		fmt.Fprintln(out, strings.Repeat("─", 28))
		fmt.Fprintf(out, "Symptoms: %d  Skipped rows: %d\n", len(table.Symptoms()), table.Skipped())
		return nil
	},
}

func init() {
	rulesCmd.Flags().String("category", "", "Print the rows of one category")
	rulesCmd.Flags().Bool("symptoms", false, "Print the symptom vocabulary")
}
