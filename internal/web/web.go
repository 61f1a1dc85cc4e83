package web

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"cartelera/internal/config"
	"cartelera/internal/dateutil"
	"cartelera/internal/dom"
	"cartelera/internal/dom/htmldoc"
	"cartelera/internal/form"
	"cartelera/internal/ics"
	appLog "cartelera/internal/log"
	"cartelera/internal/model"
	"cartelera/internal/page"
	"cartelera/internal/query"
	"cartelera/internal/site"
	"cartelera/internal/stale"
)

// ErrNotReady is returned while no page has been loaded yet.
var ErrNotReady = errors.New("web: page not loaded")

// Server renders the listing at any query, exports it as JSON or
// iCalendar and serves the rest of the built site.
type Server struct {
	cfg    *config.Config
	clock  dateutil.Clock
	loader *site.Loader
	mux    *http.ServeMux

	// The pruned page, refreshed on the cron schedule. Requests parse
	// their own document from these bytes.
	pageMu    sync.RWMutex
	pageCache *pageCache
}

// pageCache holds the last pruned page and when it was built.
type pageCache struct {
	body      []byte
	report    stale.Report
	updatedAt time.Time
}

// NewServer constructs a new Server. A nil clock reads the wall clock in
// the configured timezone.
func NewServer(cfg *config.Config, clock dateutil.Clock) *Server {
	if clock == nil {
		clock = dateutil.SystemClock(cfg.Location())
	}
	s := &Server{
		cfg:    cfg,
		clock:  clock,
		loader: site.NewLoader(cfg.CacheDir),
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials disable auth.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Cartelera", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// PageLocation is where the listing is loaded from: a URL as is, a path
// relative to the site directory otherwise.
func (s *Server) PageLocation() string {
	if site.IsRemote(s.cfg.Page) || filepath.IsAbs(s.cfg.Page) {
		return s.cfg.Page
	}
	return filepath.Join(s.cfg.SiteDir, s.cfg.Page)
}

// Refresh reloads the page and prunes it against the clock.
func (s *Server) Refresh(ctx context.Context) error {
	res, err := s.loader.Load(ctx, s.PageLocation())
	if err != nil {
		refreshTotal.WithLabelValues("error").Inc()
		return err
	}
	doc, err := htmldoc.Parse(bytes.NewReader(res.Body))
	if err != nil {
		refreshTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("web: refresh: %w", err)
	}
	ids := s.cfg.FilterControls()
	f := form.Resolve(doc, ids.Ini)
	rep := stale.New(doc, f, stale.Controls{Ini: ids.Ini, Total: ids.Total}, s.clock).Run()
	body, err := doc.Bytes()
	if err != nil {
		refreshTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("web: refresh: render: %w", err)
	}

	s.pageMu.Lock()
	s.pageCache = &pageCache{body: body, report: rep, updatedAt: time.Now()}
	s.pageMu.Unlock()

	refreshTotal.WithLabelValues("ok").Inc()
	prunedEvents.Set(float64(len(rep.RemovedEvents)))
	listedEvents.Set(float64(rep.Remaining))
	appLog.Info("page refreshed",
		"location", res.Location,
		"from_cache", res.FromCache,
		"removed", len(rep.RemovedEvents),
		"remaining", rep.Remaining,
	)
	return nil
}

// Run refreshes once, schedules further refreshes and serves until ctx is
// canceled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		// Keep serving: the next scheduled refresh may succeed.
		appLog.Error("initial page refresh failed", err, "location", s.PageLocation())
	}

	c := cron.New(cron.WithLocation(s.cfg.Location()))
	if _, err := c.AddFunc(s.cfg.RefreshCron, func() {
		if err := s.Refresh(ctx); err != nil {
			appLog.Error("scheduled page refresh failed", err)
		}
	}); err != nil {
		return fmt.Errorf("web: refresh schedule %q: %w", s.cfg.RefreshCron, err)
	}
	c.Start()
	defer c.Stop()

	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen, "refresh", s.cfg.RefreshCron)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/agenda.ics", s.handleICS)
	// Everything else is the listing itself or a static file of the site.
	s.mux.Handle("/", s.siteHandler())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// booted is one request's view of the listing.
type booted struct {
	doc  *htmldoc.Document
	hist *dom.MemoryHistory
	page *page.Page
}

// boot runs the page bootstrap at the request's query over a private copy
// of the cached page.
func (s *Server) boot(r *http.Request) (*booted, error) {
	s.pageMu.RLock()
	pc := s.pageCache
	s.pageMu.RUnlock()
	if pc == nil {
		return nil, ErrNotReady
	}

	start := time.Now()
	doc, err := htmldoc.Parse(bytes.NewReader(pc.body))
	if err != nil {
		return nil, err
	}
	doc.SetDateInputSupport(s.cfg.SupportsDateInput())
	hist := dom.NewMemoryHistory(requestHref(r))
	p := page.Boot(doc, hist, page.Options{
		Controls:              s.cfg.FilterControls(),
		Clock:                 s.clock,
		RecurrenceHorizonDays: s.cfg.RecurrenceHorizonDays,
		SkipPrune:             true,
	})
	filterDuration.Observe(time.Since(start).Seconds())
	return &booted{doc: doc, hist: hist, page: p}, nil
}

// canonicalHref is where the filter pass pushed history to, or "" when
// the request already carried the canonical query.
func (b *booted) canonicalHref() string {
	if b.hist.Len() == 1 {
		return ""
	}
	return b.hist.Href()
}

func (s *Server) siteHandler() http.Handler {
	files := http.FileServer(http.Dir(s.cfg.SiteDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" && r.URL.Path != "/index.html" {
			files.ServeHTTP(w, r)
			return
		}
		s.handleIndex(w, r)
	})
}

// handleIndex renders the listing at the request's query. A query that is
// not in canonical form is redirected to the one the page would push.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	b, err := s.boot(r)
	if err != nil {
		s.bootFailed(w, "index", err)
		return
	}
	if href := b.canonicalHref(); href != "" {
		canonicalRedirects.Inc()
		requestsTotal.WithLabelValues("index", "302").Inc()
		http.Redirect(w, r, r.URL.Path+dom.SearchOf(href), http.StatusFound)
		return
	}
	body, err := b.doc.Bytes()
	if err != nil {
		appLog.Error("render failed", err)
		requestsTotal.WithLabelValues("index", "500").Inc()
		writeError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	requestsTotal.WithLabelValues("index", "200").Inc()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	Query     string      `json:"query"`
	Canonical string      `json:"canonical"`
	State     query.State `json:"state"`
	Total     int         `json:"total"`
	Events    []eventDTO  `json:"events"`
}

// eventDTO is a JSON-friendly view of a listed event.
type eventDTO struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	URL      string       `json:"url,omitempty"`
	Tags     []string     `json:"tags"`
	Sessions []sessionDTO `json:"sessions"`
}

type sessionDTO struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
	RRule string `json:"rrule,omitempty"`
}

// handleEvents lists the events visible at the request's query.
//
// GET /api/events?<tag>&<date>&<date>
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	b, err := s.boot(r)
	if err != nil {
		s.bootFailed(w, "events", err)
		return
	}
	eng := b.page.Engine
	st := eng.State()
	visible := eng.Visible()

	resp := eventsResponse{
		Query:     dom.SearchOf(requestHref(r)),
		Canonical: query.Serialize(st),
		State:     st,
		Total:     len(b.doc.QueryAll(model.EventSelector)),
		Events:    make([]eventDTO, 0, len(visible)),
	}
	for _, ev := range visible {
		dto := eventDTO{
			ID:       ev.ID,
			Title:    ev.Title,
			URL:      ev.URL,
			Tags:     append([]string{}, ev.Tags...),
			Sessions: make([]sessionDTO, 0, len(ev.Sessions)),
		}
		for _, se := range ev.Sessions {
			dto.Sessions = append(dto.Sessions, sessionDTO{Start: se.Start, End: se.End, RRule: se.RRule})
		}
		resp.Events = append(resp.Events, dto)
	}

	appLog.Debug("api events request", "query", resp.Query, "canonical", resp.Canonical, "events", len(resp.Events))
	requestsTotal.WithLabelValues("events", "200").Inc()
	writeJSON(w, http.StatusOK, resp)
}

// handleICS exports the events visible at the request's query.
func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	b, err := s.boot(r)
	if err != nil {
		s.bootFailed(w, "ics", err)
		return
	}
	out, err := ics.Export(b.page.Engine.Visible(), ics.Options{
		ProdID:       s.cfg.ICS.ProdID,
		Timezone:     s.cfg.ICSTimezone(),
		Location:     s.cfg.Location(),
		CalendarName: s.cfg.ICS.CalendarName,
		UIDDomain:    r.Host,
		Stamp:        s.clock(),
	})
	if err != nil {
		appLog.Error("ics export failed", err)
		requestsTotal.WithLabelValues("ics", "500").Inc()
		writeError(w, http.StatusInternalServerError, "failed to export calendar")
		return
	}
	requestsTotal.WithLabelValues("ics", "200").Inc()
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="agenda.ics"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

func (s *Server) bootFailed(w http.ResponseWriter, route string, err error) {
	if errors.Is(err, ErrNotReady) {
		requestsTotal.WithLabelValues(route, "503").Inc()
		writeError(w, http.StatusServiceUnavailable, "page not loaded yet")
		return
	}
	appLog.Error("page boot failed", err, "route", route)
	requestsTotal.WithLabelValues(route, "500").Inc()
	writeError(w, http.StatusInternalServerError, "failed to load page")
}

// requestHref rebuilds the absolute URL the browser would show.
func requestHref(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	href := scheme + "://" + r.Host + r.URL.Path
	if r.URL.RawQuery != "" {
		href += "?" + r.URL.RawQuery
	}
	return href
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// LastReport returns the reconciliation report of the last refresh.
func (s *Server) LastReport() (stale.Report, bool) {
	s.pageMu.RLock()
	defer s.pageMu.RUnlock()
	if s.pageCache == nil {
		return stale.Report{}, false
	}
	return s.pageCache.report, true
}
