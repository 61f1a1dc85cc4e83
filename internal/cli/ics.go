package cli

import (
	"io"

	"github.com/spf13/cobra"

	"cartelera/internal/ics"
	"cartelera/internal/site"
)

func newICSCmd(app *App) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "ics <page> [query]",
		Short: "Export the events a filter query selects as iCalendar",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := ""
			if len(args) == 2 {
				q = args[1]
			}
			_, _, p, err := app.bootAt(cmd.Context(), args[0], q)
			if err != nil {
				return err
			}
			clock, err := app.clock()
			if err != nil {
				return err
			}
			cal, err := ics.Export(p.Engine.Visible(), ics.Options{
				ProdID:       app.cfg.ICS.ProdID,
				Timezone:     app.cfg.ICSTimezone(),
				Location:     app.cfg.Location(),
				CalendarName: app.cfg.ICS.CalendarName,
				Stamp:        clock(),
			})
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = io.WriteString(cmd.OutOrStdout(), cal)
				return err
			}
			return site.WriteAtomic(out, []byte(cal))
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "Write the calendar here instead of stdout")
	return cmd
}
