package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/pathways/internal/cli/formatter"
	"github.com/alexanderramin/pathways/internal/contract"
	"github.com/alexanderramin/pathways/internal/domain"
	"github.com/spf13/cobra"
)

func newMilestoneCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "milestone",
		Aliases: []string{"ms"},
		Short:   "Track and arrange milestones on a followed pathway",
	}

	cmd.AddCommand(
		newMilestoneToggleCmd(app),
		newMilestoneHideCmd(app),
		newMilestoneUnhideCmd(app),
		newMilestoneRenameCmd(app),
		newMilestoneReorderCmd(app),
		newMilestoneAddCmd(app),
		newMilestoneDeleteCmd(app),
	)

	return cmd
}

func pathwayFlag(cmd *cobra.Command, dst *string) {
	cmd.Flags().StringVarP(dst, "pathway", "p", "", "pathway id (required)")
	_ = cmd.MarkFlagRequired("pathway")
}

func newMilestoneToggleCmd(app *App) *cobra.Command {
	var (
		pathwayID string
		custom    bool
	)

	cmd := &cobra.Command{
		Use:   "toggle <milestone>",
		Short: "Advance a milestone: pending → in progress → completed → pending",
		Long: `Advance a milestone one step. Catalog milestones cycle pending, in
progress, completed. Custom milestones (--custom, by id) flip between pending
and completed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := contract.ToggleRequest{UserID: app.UserID, PathwayID: pathwayID}
			if custom {
				req.CustomID = args[0]
			} else {
				req.MilestoneName = strings.Join(args, " ")
			}
			// The first load of a process only records the progress band, so
			// load before toggling to let the second one report crossings.
			if _, err := loadCard(cmd, app, pathwayID); err != nil {
				return err
			}
			res, err := app.Milestones.Toggle(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", formatter.StatusIcon(res.Status), formatter.StatusLabel(res.Status))

			card, err := loadCard(cmd, app, pathwayID)
			if err != nil || card == nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.RenderProgress(card.Progress.PercentComplete, 20))
			for _, th := range card.Crossed {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Celebration(card.Title, th))
			}
			return nil
		},
	}

	pathwayFlag(cmd, &pathwayID)
	cmd.Flags().BoolVar(&custom, "custom", false, "argument is a custom milestone id")
	return cmd
}

func loadCard(cmd *cobra.Command, app *App, pathwayID string) (*contract.PathwayCard, error) {
	req := contract.NewDashboardRequest(app.UserID)
	req.PathwayID = pathwayID
	resp, err := app.Dashboard.Load(cmd.Context(), req)
	if err != nil {
		return nil, err
	}
	return resp.Card(pathwayID), nil
}

func newMilestoneHideCmd(app *App) *cobra.Command {
	var pathwayID string

	cmd := &cobra.Command{
		Use:   "hide <milestone>",
		Short: "Hide a catalog milestone from the card and from next steps",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			err := app.Milestones.Hide(cmd.Context(), contract.VisibilityRequest{
				UserID: app.UserID, PathwayID: pathwayID, Name: name,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Hid %s.\n", name)
			return nil
		},
	}

	pathwayFlag(cmd, &pathwayID)
	return cmd
}

func newMilestoneUnhideCmd(app *App) *cobra.Command {
	var (
		pathwayID string
		all       bool
	)

	cmd := &cobra.Command{
		Use:   "unhide [milestone]",
		Short: "Restore a hidden milestone, or all of them with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := contract.VisibilityRequest{UserID: app.UserID, PathwayID: pathwayID}
			if all {
				if err := app.Milestones.UnhideAll(cmd.Context(), req); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Restored all hidden milestones.")
				return nil
			}
			if len(args) == 0 {
				return errors.New("name a milestone or pass --all")
			}
			req.Name = strings.Join(args, " ")
			if err := app.Milestones.Unhide(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s.\n", req.Name)
			return nil
		},
	}

	pathwayFlag(cmd, &pathwayID)
	cmd.Flags().BoolVar(&all, "all", false, "restore every hidden milestone")
	return cmd
}

func newMilestoneRenameCmd(app *App) *cobra.Command {
	var (
		pathwayID string
		custom    bool
	)

	cmd := &cobra.Command{
		Use:   "rename <milestone> <new name>",
		Short: "Set your own display name; renaming back to the catalog name clears it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := app.Milestones.Rename(cmd.Context(), contract.RenameRequest{
				UserID:    app.UserID,
				PathwayID: pathwayID,
				ItemID:    args[0],
				Custom:    custom,
				Name:      args[1],
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s.\n", args[0], args[1])
			return nil
		},
	}

	cmd.Flags().StringVarP(&pathwayID, "pathway", "p", "", "pathway id (required for catalog milestones)")
	cmd.Flags().BoolVar(&custom, "custom", false, "first argument is a custom milestone id")
	return cmd
}

func newMilestoneReorderCmd(app *App) *cobra.Command {
	var pathwayID string

	cmd := &cobra.Command{
		Use:   "reorder <milestone> <target>",
		Short: "Move a milestone to the target's position within the same category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := app.Milestones.Reorder(cmd.Context(), contract.ReorderRequest{
				UserID:    app.UserID,
				PathwayID: pathwayID,
				ActiveID:  args[0],
				OverID:    args[1],
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s.\n", args[0], args[1])
			return nil
		},
	}

	pathwayFlag(cmd, &pathwayID)
	return cmd
}

func newMilestoneAddCmd(app *App) *cobra.Command {
	var (
		pathwayRef string
		name       string
		category   string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a custom milestone to a pathway",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				if !app.interactive() {
					return errors.New("--name is required when not running in a terminal")
				}
				if category == "" {
					category = string(domain.CategoryCustom)
				}
				if err := customMilestoneForm(&name, &category).Run(); err != nil {
					return err
				}
			}
			cm, err := app.Milestones.AddCustom(cmd.Context(), contract.AddCustomRequest{
				UserID:     app.UserID,
				PathwayRef: pathwayRef,
				Name:       name,
				Category:   category,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s\n", cm.Name, formatter.Dim("("+cm.ID+")"))
			return nil
		},
	}

	pathwayFlag(cmd, &pathwayRef)
	cmd.Flags().StringVar(&name, "name", "", "milestone name (prompted when omitted)")
	cmd.Flags().StringVar(&category, "category", "", "category, e.g. Exam or Document (default Custom)")
	return cmd
}

func newMilestoneDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <custom-id>",
		Short: "Delete a custom milestone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := app.Milestones.DeleteCustom(cmd.Context(), contract.DeleteCustomRequest{
				UserID: app.UserID, CustomID: args[0],
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", args[0])
			return nil
		},
	}
}
