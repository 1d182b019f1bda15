package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/tcmdx/internal/diagnosis"
	"github.com/abhisek/tcmdx/internal/terms"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <symptom>...",
	Short: "Run the decision tree on a list of symptom terms (no LLM)",
	Example: `  tcmdx diagnose 恶寒 无汗 头痛 鼻塞
  tcmdx diagnose --json 胸闷 易怒`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, table, err := loadRules(cmd)
		if err != nil {
			return err
		}
		svc := diagnosis.NewService(table, cfg.Rules.Axes)

		var names []string
		for _, a := range args {
			// Accept "恶寒,发热" as well as separate arguments.
			names = append(names, strings.FieldsFunc(a, func(r rune) bool {
				return r == ',' || r == '，' || r == '、'
			})...)
		}
		set := terms.NewSet(names...)
		res := svc.Diagnose(set)

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Symptoms  []string            `json:"symptoms"`
				Walk      *diagnosis.Walk     `json:"walk"`
				Directive diagnosis.Directive `json:"directive"`
			}{set.Names(), res.Walk, res.Directive})
		}

		w := res.Walk
		fmt.Fprintf(out, "Symptoms:  %s\n", strings.Join(set.Names(), "、"))
		for _, ax := range w.Axes {
			fmt.Fprintf(out, "  %-22s %s %d / %s %d\n", ax.Key, ax.First, ax.FirstScore, ax.Second, ax.SecondScore)
		}
		fmt.Fprintf(out, "Branch:    %s → %s\n", w.Branch, w.Route)
		fmt.Fprintf(out, "Status:    %s\n", res.Directive.Status)
		if w.Selected != nil {
			fmt.Fprintf(out, "Pattern:   %s (%s, %d)\n", w.Selected.Pattern, w.Selected.Category, w.Selected.Score)
			fmt.Fprintf(out, "Evidence:  %s\n", w.Selected.Evidence)
			if len(w.Selected.MissingCore) > 0 {
				fmt.Fprintf(out, "Missing:   %s\n", strings.Join(w.Selected.MissingCore, "、"))
			}
		}

		if ranked := w.Ranked(); len(ranked) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Candidates")
			fmt.Fprintln(out, strings.Repeat("─", 48))
			for _, r := range ranked {
				fmt.Fprintf(out, "%-20s  %-18s  %4d\n", r.Pattern, r.Category, r.Score)
			}
		}

		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			fmt.Fprintln(out)
			fmt.Fprintln(out, res.Directive.System())
		}
		return nil
	},
}

func init() {
	diagnoseCmd.Flags().Bool("json", false, "Print the full walk as JSON")
}
