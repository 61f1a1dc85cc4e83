package cli

import (
	"github.com/spf13/cobra"

	"cartelera/internal/capture"
	appLog "cartelera/internal/log"
)

func newCaptureCmd(app *App) *cobra.Command {
	var opts capture.Options
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Screenshot the listing at a filter query with headless Chromium",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.URL == "" {
				opts.URL = "http://" + app.cfg.Listen + "/"
			}
			if opts.Width <= 0 {
				opts.Width = app.cfg.Capture.Width
			}
			if opts.Height <= 0 {
				opts.Height = app.cfg.Capture.Height
			}
			opts.Timeout = app.cfg.CaptureTimeout()
			if err := capture.CapturePNG(cmd.Context(), opts); err != nil {
				return err
			}
			appLog.Info("capture written", "url", opts.TargetURL(), "output", opts.OutputPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.URL, "url", "", "Listing URL (default: the configured listen address)")
	cmd.Flags().StringVar(&opts.Query, "query", "", "Filter query to open, e.g. '?teatro&2024-06-20'")
	cmd.Flags().StringVarP(&opts.OutputPath, "output", "o", "cartelera.png", "PNG output path")
	cmd.Flags().IntVar(&opts.Width, "width", 0, "Viewport width (default from config)")
	cmd.Flags().IntVar(&opts.Height, "height", 0, "Viewport height (default from config)")
	return cmd
}
