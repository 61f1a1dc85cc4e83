package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	appLog "cartelera/internal/log"
	"cartelera/internal/web"
)

func newServeCmd(app *App) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site with pre-rendered filter URLs, JSON and iCalendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				app.cfg.Listen = listen
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			appLog.Info("effective config",
				"listen", app.cfg.Listen,
				"timezone", app.cfg.Timezone,
				"site_dir", app.cfg.SiteDir,
				"page", app.cfg.Page,
				"refresh", app.cfg.RefreshCron,
			)

			clock, err := app.clock()
			if err != nil {
				return err
			}
			if err := web.NewServer(app.cfg, clock).Run(ctx); err != nil {
				return err
			}
			appLog.Info("cartelera exiting")
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}
