package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ashureev/collabmatch/internal/dialogue"
	"github.com/ashureev/collabmatch/internal/match"
)

func (a *app) lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup NAME",
		Short: "Show an influencer's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			inf, err := match.NewEngine(s).LookupInfluencer(cmd.Context(), args[0])
			if errors.Is(err, match.ErrNotFound) {
				return errors.New(dialogue.FormatNotFound(args[0]))
			}
			if err != nil {
				return fmt.Errorf("lookup: %w", err)
			}
			return a.print(cmd.OutOrStdout(), inf, dialogue.FormatProfile(inf))
		},
	}
}
