package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/pathways/internal/cli/formatter"
	"github.com/alexanderramin/pathways/internal/intelligence"
	"github.com/spf13/cobra"
)

func newAskCmd(app *App) *cobra.Command {
	var pathwayID string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the assistant about a followed pathway",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Assistant == nil {
				return errNoAI
			}
			card, err := loadCard(cmd, app, pathwayID)
			if err != nil {
				return err
			}
			if card == nil {
				return fmt.Errorf("not following %s", pathwayID)
			}

			out := cmd.OutOrStdout()
			streamed := false
			answer, err := app.Assistant.Chat(cmd.Context(), intelligence.ChatRequest{
				Card:     *card,
				Question: strings.Join(args, " "),
			}, func(delta string) {
				streamed = true
				fmt.Fprint(out, delta)
			})
			if err != nil {
				if streamed {
					fmt.Fprintln(out)
				}
				return aiError(err)
			}
			if !streamed {
				fmt.Fprint(out, answer.Text)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, formatter.Dim("answered by "+answer.Model))
			return nil
		},
	}

	pathwayFlag(cmd, &pathwayID)
	return cmd
}
