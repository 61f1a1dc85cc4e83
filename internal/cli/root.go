package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cartelera/internal/config"
	"cartelera/internal/dateutil"
	"cartelera/internal/dom"
	"cartelera/internal/dom/htmldoc"
	appLog "cartelera/internal/log"
	"cartelera/internal/page"
	"cartelera/internal/site"
)

// DefaultConfigPath is read when --config is not given. Unlike an explicit
// path, a missing default file is not created.
const DefaultConfigPath = "cartelera.yaml"

type App struct {
	ConfigPath string
	LogLevel   string
	Now        string

	cfg *config.Config
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "cartelera",
		Short:        "Event listing filter: prune, query, export and preview",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Drop past events and sessions from a built page
  cartelera prune out/index.html -o out/index.html

  # Which events does a filter URL show?
  cartelera query out/index.html '?teatro&2024-06-20'

  # Calendar feed of the same selection
  cartelera ics out/index.html '?teatro' -o agenda.ics

  # Preview server with pre-rendered filter URLs
  cartelera serve --listen :8080
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.loadConfig(cmd)
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("CARTELERA_CONFIG", ""), "Path to config file (created with defaults if missing)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("CARTELERA_LOG_LEVEL", ""), "Log level (debug|info|warn|error); overrides config")
	cmd.PersistentFlags().StringVar(&app.Now, "now", "", `Judge staleness at this moment ("YYYY-MM-DD" or "YYYY-MM-DD HH:MM") instead of the wall clock`)

	cmd.AddCommand(newPruneCmd(app))
	cmd.AddCommand(newQueryCmd(app))
	cmd.AddCommand(newICSCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newCaptureCmd(app))

	return cmd
}

func (app *App) loadConfig(cmd *cobra.Command) error {
	path := app.ConfigPath
	if path == "" {
		if _, err := os.Stat(DefaultConfigPath); err == nil {
			path = DefaultConfigPath
		}
	}
	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg = loaded
	}

	level := cfg.LogLevel
	if app.LogLevel != "" {
		level = app.LogLevel
	}
	appLog.SetLevel(appLog.ParseLevel(level))
	appLog.SetOutput(cmd.ErrOrStderr())

	app.cfg = cfg
	appLog.Debug("effective config",
		"config", path,
		"timezone", cfg.Timezone,
		"site_dir", cfg.SiteDir,
		"page", cfg.Page,
		"log_level", level,
	)
	return nil
}

// clock is the wall clock in the configured zone, or the --now moment.
func (app *App) clock() (dateutil.Clock, error) {
	loc := app.cfg.Location()
	if app.Now == "" {
		return dateutil.SystemClock(loc), nil
	}
	stamp := dateutil.NormalizeStamp(app.Now)
	if stamp == "" {
		return nil, fmt.Errorf("--now: %q is not a date or date-time", app.Now)
	}
	layout := dateutil.DateLayout
	if dateutil.HasTime(stamp) {
		layout = dateutil.StampLayout
	}
	t, err := time.ParseInLocation(layout, stamp, loc)
	if err != nil {
		return nil, fmt.Errorf("--now: %w", err)
	}
	return dateutil.FixedClock(t), nil
}

// loadPage reads a page argument (path or URL) into a document.
func (app *App) loadPage(ctx context.Context, location string) (*htmldoc.Document, error) {
	res, err := site.NewLoader(app.cfg.CacheDir).Load(ctx, location)
	if err != nil {
		return nil, err
	}
	doc, err := htmldoc.ParseString(string(res.Body))
	if err != nil {
		return nil, err
	}
	doc.SetDateInputSupport(app.cfg.SupportsDateInput())
	return doc, nil
}

// bootAt loads location and boots it as if opened at ?q.
func (app *App) bootAt(ctx context.Context, location, q string) (*htmldoc.Document, *dom.MemoryHistory, *page.Page, error) {
	clock, err := app.clock()
	if err != nil {
		return nil, nil, nil, err
	}
	doc, err := app.loadPage(ctx, location)
	if err != nil {
		return nil, nil, nil, err
	}
	hist := dom.NewMemoryHistory(pageHref(q))
	p := page.Boot(doc, hist, page.Options{
		Controls:              app.cfg.FilterControls(),
		Clock:                 clock,
		RecurrenceHorizonDays: app.cfg.RecurrenceHorizonDays,
	})
	return doc, hist, p, nil
}

// pageHref is the address the headless page is opened at.
func pageHref(q string) string {
	q = strings.TrimSpace(q)
	if q != "" && !strings.HasPrefix(q, "?") {
		q = "?" + q
	}
	return "http://localhost/" + q
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
