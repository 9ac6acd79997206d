package cli

import (
	"fmt"

	"github.com/alexanderramin/pathways/internal/cli/formatter"
	"github.com/alexanderramin/pathways/internal/contract"
	"github.com/spf13/cobra"
)

func newDashboardCmd(app *App) *cobra.Command {
	var pathwayID string

	cmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash"},
		Short:   "Show progress on every followed pathway",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := contract.NewDashboardRequest(app.UserID)
			req.PathwayID = pathwayID
			resp, err := app.Dashboard.Load(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatDashboard(resp))
			return nil
		},
	}

	cmd.Flags().StringVarP(&pathwayID, "pathway", "p", "", "show a single pathway")
	return cmd
}
