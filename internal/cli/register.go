package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ashureev/collabmatch/internal/registry"
)

type registered struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

func (a *app) registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Add an influencer or a brand",
	}
	cmd.AddCommand(a.registerInfluencerCmd(), a.registerBrandCmd())
	return cmd
}

func (a *app) registerInfluencerCmd() *cobra.Command {
	var in registry.InfluencerInput
	cmd := &cobra.Command{
		Use:   "influencer",
		Short: "Register an influencer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := registry.NewService(s, a.log).RegisterInfluencer(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("register influencer: %w", err)
			}
			res := registered{ID: id, Message: "Influencer registered!"}
			return a.print(cmd.OutOrStdout(), res, fmt.Sprintf("%s (id %d)", res.Message, id))
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Influencer name (required)")
	cmd.Flags().StringVar(&in.Niche, "niche", "", "Content niche (required)")
	cmd.Flags().Int64Var(&in.Followers, "followers", 0, "Follower count")
	cmd.Flags().StringVar(&in.Platform, "platform", "", "Platform, e.g. Instagram (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("niche")
	_ = cmd.MarkFlagRequired("platform")
	return cmd
}

func (a *app) registerBrandCmd() *cobra.Command {
	var in registry.BrandInput
	cmd := &cobra.Command{
		Use:   "brand",
		Short: "Register a brand",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := registry.NewService(s, a.log).RegisterBrand(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("register brand: %w", err)
			}
			res := registered{ID: id, Message: "Brand registered!"}
			return a.print(cmd.OutOrStdout(), res, fmt.Sprintf("%s (id %d)", res.Message, id))
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Brand name (required)")
	cmd.Flags().StringVar(&in.Niche, "niche", "", "Target niche (required)")
	cmd.Flags().Int64Var(&in.Budget, "budget", 0, "Campaign budget in dollars")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("niche")
	return cmd
}
