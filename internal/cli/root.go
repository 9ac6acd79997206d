package cli

import (
	"context"
	"os"

	"github.com/alexanderramin/pathways/internal/intelligence"
	"github.com/alexanderramin/pathways/internal/service"
	"github.com/spf13/cobra"
)

// App holds the services used by CLI commands.
type App struct {
	Profiles   service.ProfileService
	Pathways   service.PathwayService
	Dashboard  service.DashboardService
	Milestones service.MilestoneService

	// AI collaborators. A disabled model still yields working services
	// that fall back or return llm.ErrDisabled.
	Intent    intelligence.IntentService
	Drafts    intelligence.MilestoneDraftService
	Assistant intelligence.AssistantService

	// Serve runs the HTTP API until ctx is cancelled.
	Serve func(ctx context.Context, addr string) error
	Addr  string

	// IsInteractive reports whether stdin is a terminal. Forms are only
	// shown when it returns true.
	IsInteractive func() bool

	// UserID is bound to the --user flag.
	UserID string
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "pathways" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "pathways",
		Short:         "Track progress along medical career pathways",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultUser := app.UserID
	if defaultUser == "" {
		defaultUser = envOr("PATHWAYS_USER", "me")
	}
	root.PersistentFlags().StringVarP(&app.UserID, "user", "u", defaultUser, "user profile id")

	root.AddCommand(
		newProfileCmd(app),
		newPathwayCmd(app),
		newDashboardCmd(app),
		newMilestoneCmd(app),
		newAskCmd(app),
		newTUICmd(app),
		newServeCmd(app),
	)

	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
