package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/tcmdx/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats [user-id]",
	Short: "Show consultation turn statistics",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		var userID string
		if len(args) == 1 {
			userID = args[0]
		}
		turns, err := s.Events().QueryTurns(cmd.Context(), userID, store.QueryOpts{})
		if err != nil {
			return fmt.Errorf("query turns: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(turns) == 0 {
			fmt.Fprintln(out, "No turns recorded yet.")
			return nil
		}

		byStatus := map[string]int{}
		patterns := map[string]int{}
		users := map[string]bool{}
		updated := 0
		for _, t := range turns {
			byStatus[t.Status]++
			users[t.UserID] = true
			if t.HasUpdate {
				updated++
			}
			if t.Pattern != "" {
				patterns[t.Pattern]++
			}
		}

		fmt.Fprintf(out, "Turns: %d  Conversations: %d  With new information: %d\n\n", len(turns), len(users), updated)
		fmt.Fprintf(out, "%-12s  %6s\n", "Status", "Turns")
		fmt.Fprintln(out, strings.Repeat("─", 20))
		for _, st := range []string{"UNKNOWN", "SUSPECTED", "CONFIRMED"} {
			fmt.Fprintf(out, "%-12s  %6d\n", st, byStatus[st])
		}

		if len(patterns) > 0 {
			names := make([]string, 0, len(patterns))
			for p := range patterns {
				names = append(names, p)
			}
			sort.Slice(names, func(i, j int) bool {
				if patterns[names[i]] != patterns[names[j]] {
					return patterns[names[i]] > patterns[names[j]]
				}
				return names[i] < names[j]
			})
			fmt.Fprintln(out)
			fmt.Fprintf(out, "%-20s  %6s\n", "Pattern", "Turns")
			fmt.Fprintln(out, strings.Repeat("─", 28))
			for _, p := range names {
				fmt.Fprintf(out, "%-20s  %6d\n", p, patterns[p])
			}
		}

		if userID != "" {
			fmt.Fprintln(out)
			for _, t := range turns {
				fmt.Fprintf(out, "%s  %-9s  %-16s %3d  %s\n",
					t.Timestamp.Local().Format("2006-01-02 15:04:05"), t.Status, t.Pattern, t.Score, strings.Join(t.Terms, "、"))
			}
		}
		return nil
	},
}
