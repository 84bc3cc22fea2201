package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zeebo/xxh3"

	"github.com/spektr-org/vitasicura/copilot"
	"github.com/spektr-org/vitasicura/dashboard"
	"github.com/spektr-org/vitasicura/render"
)

// pageView is the template model of one HTML page.
type pageView struct {
	Routes       []dashboard.Route
	Page         *dashboard.Page
	Base         string
	Query        string
	ChartURLs    []string
	ExportURL    string
	Briefing     string
	Synthesis    string
	CopilotReady bool
	Model        string
	QuickActions []copilot.QuickAction
	History      []copilot.Turn
	ClientParam  string
}

// datasets loads (or reuses) the cached tables.
func (s *Server) datasets(c *gin.Context) (dashboard.Datasets, bool) {
	ds, err := dashboard.Load(s.loader)
	if err != nil {
		s.log.Error("loading datasets", "error", err)
		c.String(http.StatusInternalServerError, "dati non disponibili: %v", err)
		return dashboard.Datasets{}, false
	}
	return ds, true
}

func (s *Server) renderPage(c *gin.Context, slug string, params url.Values) (*dashboard.Page, dashboard.Datasets, bool) {
	ds, ok := s.datasets(c)
	if !ok {
		return nil, ds, false
	}
	page, err := dashboard.Render(slug, ds, params, s.thresholds)
	if err != nil {
		c.String(http.StatusNotFound, err.Error())
		return nil, ds, false
	}
	return page, ds, true
}

func (s *Server) handlePage(slug string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.writePage(c, slug, c.Request.URL.Query(), "")
	}
}

// writePage renders the HTML view of slug; briefing is shown on the home page.
func (s *Server) writePage(c *gin.Context, slug string, params url.Values, briefing string) {
	page, ds, ok := s.renderPage(c, slug, params)
	if !ok {
		return
	}

	base := "/" + slug
	query := params.Encode()
	v := pageView{
		Routes:       dashboard.Routes,
		Page:         page,
		Base:         base,
		Query:        query,
		Briefing:     briefing,
		CopilotReady: s.advisor.Configured(),
		Model:        s.advisor.Model(),
		ClientParam:  params.Get(dashboard.ParamClient),
	}
	for i := range page.Charts {
		v.ChartURLs = append(v.ChartURLs, withQuery(fmt.Sprintf("%s/chart/%d", base, i), query))
	}
	if len(page.Tables) > 0 {
		v.ExportURL = withQuery(base+"/export.xlsx", query)
	}
	if slug == dashboard.SlugHome {
		v.Synthesis = dashboard.ComputeOverview(ds, s.thresholds).Synthesis(s.thresholds)
	}
	if page.Client != nil {
		v.QuickActions = copilot.QuickActions
		if id, err := c.Cookie(SessionCookie); err == nil && s.sessions.Valid(id) {
			v.History = s.sessions.History(id)
		}
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(c.Writer, "page.html", v); err != nil {
		s.log.Error("executing template", "page", slug, "error", err)
	}
}

func withQuery(path, query string) string {
	if query == "" {
		return path
	}
	return path + "?" + query
}

// ── Charts & export ───────────────────────────────────────────────────────────

func (s *Server) handleChart(slug string) gin.HandlerFunc {
	return func(c *gin.Context) {
		index, err := strconv.Atoi(c.Param("index"))
		if err != nil || index < 0 {
			c.Status(http.StatusNotFound)
			return
		}
		ds, ok := s.datasets(c)
		if !ok {
			return
		}

		params := c.Request.URL.Query()
		etag := fmt.Sprintf(`"%x-%x-%d"`, ds.Version, xxh3.HashString(slug+"?"+params.Encode()), index)
		c.Header("ETag", etag)
		c.Header("Cache-Control", "no-cache")
		if match := c.GetHeader("If-None-Match"); match != "" && strings.Contains(match, etag) {
			c.Status(http.StatusNotModified)
			return
		}

		page, err := dashboard.Render(slug, ds, params, s.thresholds)
		if err != nil || index >= len(page.Charts) {
			c.Status(http.StatusNotFound)
			return
		}

		var buf bytes.Buffer
		err = render.ChartPNG(&buf, page.Charts[index], s.chartSize)
		switch {
		case errors.Is(err, render.ErrEmptyChart):
			c.Status(http.StatusNoContent)
			return
		case err != nil:
			s.log.Error("rendering chart", "page", slug, "index", index, "error", err)
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Data(http.StatusOK, "image/png", buf.Bytes())
	}
}

func (s *Server) handleExport(slug string) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _, ok := s.renderPage(c, slug, c.Request.URL.Query())
		if !ok {
			return
		}
		var buf bytes.Buffer
		if err := render.WriteXLSX(&buf, page.Tables...); err != nil {
			if errors.Is(err, render.ErrNothingToExport) {
				c.Status(http.StatusNoContent)
				return
			}
			s.log.Error("exporting tables", "page", slug, "error", err)
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="vitasicura-%s.xlsx"`, slug))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	}
}

// ── JSON API ──────────────────────────────────────────────────────────────────

func (s *Server) handlePageJSON(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "home" {
		slug = dashboard.SlugHome
	}
	page, _, ok := s.renderPage(c, slug, c.Request.URL.Query())
	if !ok {
		return
	}
	c.JSON(http.StatusOK, page)
}

// DefaultSearchLimit caps /api/clients results.
const DefaultSearchLimit = 20

func (s *Server) handleClients(c *gin.Context) {
	ds, ok := s.datasets(c)
	if !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultSearchLimit)))
	if err != nil || limit <= 0 {
		limit = DefaultSearchLimit
	}
	matches := dashboard.SearchClients(dashboard.ClientOptions(ds), c.Query("q"), limit)
	c.JSON(http.StatusOK, gin.H{"clients": matches})
}

// ── Copilot ───────────────────────────────────────────────────────────────────

func (s *Server) handleBrief(c *gin.Context) {
	ds, ok := s.datasets(c)
	if !ok {
		return
	}
	o := dashboard.ComputeOverview(ds, s.thresholds)
	text := s.advisor.Ask(c.Request.Context(), copilot.BriefingPrompt(o.Briefing()))
	s.writePage(c, dashboard.SlugHome, url.Values{}, text)
}

// session returns the caller's chat session, opening one when needed.
func (s *Server) session(c *gin.Context) string {
	if id, err := c.Cookie(SessionCookie); err == nil && s.sessions.Valid(id) {
		return id
	}
	id := s.sessions.Start()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id, 0, "/", "", false, true)
	return id
}

func contactsURL(client string) string {
	if client == "" {
		return "/" + dashboard.SlugContacts
	}
	return "/" + dashboard.SlugContacts + "?" + url.Values{dashboard.ParamClient: {client}}.Encode()
}

// handleCopilot answers a free-text question or a quick action about the
// selected client, then redirects back to the contacts page.
func (s *Server) handleCopilot(c *gin.Context) {
	client := c.PostForm(dashboard.ParamClient)
	id, ok := dashboard.ParseClientSelection(client)
	if !ok {
		c.String(http.StatusBadRequest, "seleziona un cliente")
		return
	}

	question := strings.TrimSpace(c.PostForm("question"))
	if action := c.PostForm("action"); action != "" {
		prompt, known := copilot.QuickActionPrompt(action)
		if !known {
			c.String(http.StatusBadRequest, "azione sconosciuta %q", action)
			return
		}
		question = prompt
	}
	if question == "" {
		c.Redirect(http.StatusSeeOther, contactsURL(client))
		return
	}

	ds, ok := s.datasets(c)
	if !ok {
		return
	}
	profile, found := dashboard.SelectedClient(ds, id)
	if !found {
		c.String(http.StatusNotFound, "cliente %d non trovato", id)
		return
	}

	session := s.session(c)
	s.advisor.Chat(c.Request.Context(), s.sessions, session, profile, question)
	c.Redirect(http.StatusSeeOther, contactsURL(client))
}

func (s *Server) handleCopilotReset(c *gin.Context) {
	if id, err := c.Cookie(SessionCookie); err == nil {
		s.sessions.Reset(id)
	}
	c.Redirect(http.StatusSeeOther, contactsURL(c.PostForm(dashboard.ParamClient)))
}
