package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset <user-id>",
	Short: "Delete the stored context of a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		existed, err := s.Conversations().Reset(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !existed {
			fmt.Fprintf(cmd.OutOrStdout(), "No stored conversation for %s.\n", args[0])
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Conversation %s reset.\n", args[0])
		return nil
	},
}
