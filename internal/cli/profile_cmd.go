package cli

import (
	"fmt"

	"github.com/alexanderramin/pathways/internal/cli/formatter"
	"github.com/alexanderramin/pathways/internal/domain"
	"github.com/spf13/cobra"
)

func newProfileCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your profile and followed pathways",
	}

	cmd.AddCommand(
		newProfileInitCmd(app),
		newProfileShowCmd(app),
		newProfileFollowCmd(app),
		newProfileUnfollowCmd(app),
	)

	return cmd
}

func newProfileInitCmd(app *App) *cobra.Command {
	var (
		name      string
		specialty string
		follow    []string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a profile for --user",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := &domain.UserProfile{
				ID:          app.UserID,
				DisplayName: name,
				Specialty:   specialty,
				PathwayRefs: follow,
			}
			if err := app.Profiles.Init(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created profile %s for %s.\n", p.ID, p.DisplayName)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&specialty, "specialty", "", "medical specialty, used to pick between similar pathways")
	cmd.Flags().StringSliceVar(&follow, "follow", nil, "pathway ids or names to follow")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newProfileShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the profile for --user",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Profiles.Get(cmd.Context(), app.UserID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProfile(p))
			return nil
		},
	}
}

func newProfileFollowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "follow <pathway>",
		Short: "Follow a pathway by id or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Profiles.Follow(cmd.Context(), app.UserID, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Following %s.\n", args[0])
			return nil
		},
	}
}

func newProfileUnfollowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "unfollow <pathway>",
		Short: "Stop following a pathway; custom milestones and settings are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Profiles.Unfollow(cmd.Context(), app.UserID, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unfollowed %s.\n", args[0])
			return nil
		},
	}
}
