package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/pathways/internal/catalog"
	"github.com/alexanderramin/pathways/internal/cli/formatter"
	"github.com/alexanderramin/pathways/internal/contract"
	"github.com/alexanderramin/pathways/internal/intelligence"
	"github.com/spf13/cobra"
)

var errNoAI = errors.New("AI features are not configured")

func newPathwayCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pathway",
		Aliases: []string{"pw"},
		Short:   "Browse and maintain the pathway catalog",
	}

	cmd.AddCommand(
		newPathwayListCmd(app),
		newPathwayShowCmd(app),
		newPathwaySearchCmd(app),
		newPathwaySeedCmd(app),
		newPathwayMatchCmd(app),
		newPathwayRefreshCmd(app),
	)

	return cmd
}

func newPathwayListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog pathways",
		RunE: func(cmd *cobra.Command, args []string) error {
			pathways, err := app.Pathways.List(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPathwayList(pathways))
			return nil
		},
	}
}

// userSpecialty is the --user profile's specialty, or "" without a profile.
func userSpecialty(ctx context.Context, app *App) string {
	p, err := app.Profiles.Get(ctx, app.UserID)
	if err != nil {
		return ""
	}
	return p.Specialty
}

func newPathwayShowCmd(app *App) *cobra.Command {
	var specialty string

	cmd := &cobra.Command{
		Use:   "show <pathway>",
		Short: "Show a pathway's requirements; names and aliases resolve like profile references",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if specialty == "" {
				specialty = userSpecialty(ctx, app)
			}
			res, err := app.Pathways.Resolve(ctx, strings.Join(args, " "), specialty)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatResolution(res))
			return nil
		},
	}

	cmd.Flags().StringVar(&specialty, "specialty", "", "specialty hint for ambiguous names (default: profile specialty)")
	return cmd
}

func newPathwaySearchCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := app.Pathways.Search(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSearch(resp))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum results")
	return cmd
}

func newPathwaySeedCmd(app *App) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a YAML catalog into the store (default: built-in catalog)",
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := catalog.LoadSeedOrDefault(file)
			if err != nil {
				return err
			}
			n, err := app.Pathways.Seed(cmd.Context(), seed)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d pathways.\n", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog YAML file")
	return cmd
}

func newPathwayMatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "match <description>",
		Short: "Suggest pathways for a free-text career goal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Intent == nil {
				return errNoAI
			}
			stop := formatter.StartSpinner(cmd.ErrOrStderr(), "Matching pathways...")
			res, err := app.Intent.Match(cmd.Context(), strings.Join(args, " "))
			stop()
			if err != nil {
				return aiError(err)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatMatches(res))
			return nil
		},
	}
}

func newPathwayRefreshCmd(app *App) *cobra.Command {
	var specialty string

	cmd := &cobra.Command{
		Use:   "refresh <pathway>",
		Short: "Regenerate a pathway's milestones with the AI model",
		Long: `Asks the model for an up-to-date milestone list and merges it into the
catalog pathway. Existing requirements are never removed. For a pathway that
is not in the catalog, the generated milestones are added to your own
custom milestones instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Drafts == nil {
				return errNoAI
			}
			ctx := cmd.Context()
			ref := strings.Join(args, " ")
			if specialty == "" {
				specialty = userSpecialty(ctx, app)
			}
			res, err := app.Pathways.Resolve(ctx, ref, specialty)
			if err != nil {
				return err
			}

			stop := formatter.StartSpinner(cmd.ErrOrStderr(), "Generating milestones...")
			out, err := app.Drafts.Refresh(ctx, intelligence.RefreshRequest{Pathway: res.Pathway, Specialty: specialty})
			stop()
			if err != nil {
				return aiError(err)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRefresh(out))

			if !res.Pathway.IsSynthetic() {
				return nil
			}
			added, err := addGeneratedAsCustom(ctx, app, ref, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d custom milestones to %s.\n", added, ref)
			return nil
		},
	}

	cmd.Flags().StringVar(&specialty, "specialty", "", "specialty context for the model (default: profile specialty)")
	return cmd
}

// addGeneratedAsCustom stores generated items the user does not already
// have as custom milestones under ref.
func addGeneratedAsCustom(ctx context.Context, app *App, ref string, res *intelligence.RefreshResult) (int, error) {
	p, err := app.Profiles.Get(ctx, app.UserID)
	if err != nil {
		return 0, err
	}
	have := map[string]bool{}
	for _, cm := range p.CustomFor(ref, res.Pathway.ID) {
		have[strings.ToLower(cm.Name)] = true
	}

	added := 0
	for _, r := range res.Generated {
		if have[strings.ToLower(r.Name)] {
			continue
		}
		_, err := app.Milestones.AddCustom(ctx, contract.AddCustomRequest{
			UserID:     app.UserID,
			PathwayRef: ref,
			Name:       r.Name,
			Category:   string(r.Category),
		})
		if err != nil {
			return added, fmt.Errorf("adding %q: %w", r.Name, err)
		}
		have[strings.ToLower(r.Name)] = true
		added++
	}
	return added, nil
}

// aiError replaces model failures with the message a user should see,
// keeping the cause for errors.Is.
func aiError(err error) error {
	return fmt.Errorf("%s: %w", intelligence.UserMessage(err), err)
}
