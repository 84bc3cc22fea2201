package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rotisserie/eris"

	"github.com/spektr-org/vitasicura/copilot"
	"github.com/spektr-org/vitasicura/dashboard"
	"github.com/spektr-org/vitasicura/dataset"
	"github.com/spektr-org/vitasicura/engine"
	"github.com/spektr-org/vitasicura/render"
)

// ============================================================================
// WEB — HTTP dashboard
// ============================================================================
// Every request re-renders its page from the loader's cached tables and the
// query string; the only server-side state is the copilot chat history,
// keyed by a session cookie.
//
// Routes (per page slug, home = "/"):
//   GET  /<slug>                  HTML page, filters as query parameters
//   GET  /<slug>/chart/:index     chart PNG, ETag from data version + query
//   GET  /<slug>/export.xlsx      page tables as a workbook
//   GET  /api/pages/:slug         page model as JSON ("home" for the overview)
//   GET  /api/clients?q=          fuzzy client search
//   POST /brief                   executive briefing on the home page
//   POST /contatti/copilot        copilot question about the selected client
//   POST /contatti/copilot/reset  clear the chat history
// ============================================================================

//go:embed templates/*.html
var templateFS embed.FS

// SessionCookie carries the copilot chat session id.
const SessionCookie = "vs_session"

// Server is the HTTP dashboard.
type Server struct {
	loader     *dataset.Loader
	advisor    *copilot.Advisor
	sessions   *copilot.Sessions
	thresholds dashboard.Thresholds
	chartSize  render.Size
	log        *slog.Logger
	tmpl       *template.Template
	router     *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithChartSize sets the PNG size of rendered charts.
func WithChartSize(size render.Size) Option {
	return func(s *Server) { s.chartSize = size }
}

// WithSessions shares a chat session store.
func WithSessions(sessions *copilot.Sessions) Option {
	return func(s *Server) { s.sessions = sessions }
}

// New builds the server and its routes.
func New(loader *dataset.Loader, advisor *copilot.Advisor, th dashboard.Thresholds, opts ...Option) *Server {
	s := &Server{
		loader:     loader,
		advisor:    advisor,
		thresholds: th,
		chartSize:  render.DefaultSize,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessions == nil {
		s.sessions = copilot.NewSessions()
	}

	s.tmpl = template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html"))
	s.router = s.routes()
	return s
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))

	for _, route := range dashboard.Routes {
		slug := route.Slug
		r.GET(route.Path(), s.handlePage(slug))
		if slug == dashboard.SlugHome {
			continue
		}
		r.GET(route.Path()+"/chart/:index", s.handleChart(slug))
		r.GET(route.Path()+"/export.xlsx", s.handleExport(slug))
	}

	r.POST("/brief", s.handleBrief)
	r.POST("/"+dashboard.SlugContacts+"/copilot", s.handleCopilot)
	r.POST("/"+dashboard.SlugContacts+"/copilot/reset", s.handleCopilotReset)

	api := r.Group("/api")
	api.GET("/pages/:slug", s.handlePageJSON)
	api.GET("/clients", s.handleClients)
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("dashboard listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return eris.Wrapf(err, "listening on %s", addr)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("dashboard shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// requestLogger logs one line per request.
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// ── Templates ─────────────────────────────────────────────────────────────────

var templateFuncs = template.FuncMap{
	"pagePath": func(slug string) string { return "/" + slug },
	"lines":    func(s string) []string { return strings.Split(s, "\n") },
	"numeric":  func(col engine.Column) bool { return col.Align == "right" },
}
