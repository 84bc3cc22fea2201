package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/spektr-org/vitasicura/copilot"
	"github.com/spektr-org/vitasicura/dashboard"
	"github.com/spektr-org/vitasicura/render"
	"github.com/spektr-org/vitasicura/schema"
	"github.com/spektr-org/vitasicura/tui"
	"github.com/spektr-org/vitasicura/web"
)

// ── serve ─────────────────────────────────────────────────────────────────────

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := state.cfg
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		advisor := copilot.New(cfg.AdvisorConfig(), copilot.WithLogger(state.log))
		if !advisor.Configured() {
			state.log.Warn("copilot disabled: no API key found", "key", cfg.Copilot.KeyName)
		}
		srv := web.New(state.loader, advisor, cfg.Thresholds,
			web.WithLogger(state.log),
			web.WithChartSize(render.Size{Width: cfg.Server.ChartWidth, Height: cfg.Server.ChartHeight}),
			web.WithSessions(copilot.NewSessionsWithLimit(cfg.Server.MaxSessions)),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx, cfg.Server.Addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
}

// ── tui ───────────────────────────────────────────────────────────────────────

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse the dashboard in the terminal",
	RunE: func(*cobra.Command, []string) error {
		ds, err := dashboard.Load(state.loader)
		if err != nil {
			return err
		}
		return tui.New(ds, state.cfg.Thresholds).Run()
	},
}

// ── kpi ───────────────────────────────────────────────────────────────────────

var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "Print the home page KPIs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ds, err := dashboard.Load(state.loader)
		if err != nil {
			return err
		}
		th := state.cfg.Thresholds
		o := dashboard.ComputeOverview(ds, th)

		out := cmd.OutOrStdout()
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"KPI", "Valore"})
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, m := range dashboard.HomePage(ds, th).Metrics {
			table.Append([]string{m.Label, m.Value})
		}
		table.Render()

		if o.ValueAtRisk > 0 {
			color.New(color.FgRed, color.Bold).Fprintf(out, "\n€ %s di valore a rischio churn\n", humanize.Comma(int64(o.ValueAtRisk)))
		}
		fmt.Fprintf(out, "\n%s\n", o.Synthesis(th))
		return nil
	},
}

// ── validate ──────────────────────────────────────────────────────────────────

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load every dataset and report its shape",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		tables, err := state.loader.LoadAll()
		if err != nil {
			color.New(color.FgRed).Fprintln(out, "✗ datasets not valid")
			return err
		}

		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"Dataset", "Righe", "Colonne", "Codifica", "Checksum"})
		for _, name := range schema.Names() {
			t := tables[name]
			table.Append([]string{
				name,
				humanize.Comma(int64(t.Len())),
				fmt.Sprintf("%d", len(t.Columns)),
				t.Encoding,
				fmt.Sprintf("%016x", t.Checksum),
			})
		}
		table.Render()
		color.New(color.FgGreen).Fprintf(out, "✓ %d datasets loaded from %s\n", len(tables), state.cfg.Data.Dir)
		return nil
	},
}

// ── brief ─────────────────────────────────────────────────────────────────────

var briefCmd = &cobra.Command{
	Use:   "brief",
	Short: "Ask the advisor for today's executive briefing",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ds, err := dashboard.Load(state.loader)
		if err != nil {
			return err
		}
		advisor := copilot.New(state.cfg.AdvisorConfig(), copilot.WithLogger(state.log))
		o := dashboard.ComputeOverview(ds, state.cfg.Thresholds)

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		fmt.Fprintln(cmd.OutOrStdout(), advisor.Ask(ctx, copilot.BriefingPrompt(o.Briefing())))
		return nil
	},
}

// ── export ────────────────────────────────────────────────────────────────────

var (
	exportPage    string
	exportFormat  string
	exportOut     string
	exportFilters []string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the tables of a page to XLSX or CSV",
	Example: `  vitasicura export --page premio
  vitasicura export --page contatti --filter azione="Cross-sell Casa" --format csv
  vitasicura export --page profili --filter zona=Sud --filter persona=Famiglia,Senior`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ds, err := dashboard.Load(state.loader)
		if err != nil {
			return err
		}
		slug := exportPage
		if slug == "home" {
			slug = dashboard.SlugHome
		}
		params, err := filterParams(exportFilters)
		if err != nil {
			return err
		}
		page, err := dashboard.Render(slug, ds, params, state.cfg.Thresholds)
		if err != nil {
			return err
		}

		path := exportOut
		if path == "" {
			name := slug
			if name == "" {
				name = "home"
			}
			path = filepath.Join(state.cfg.Export.Dir, "vitasicura-"+name+"."+exportFormat)
		}
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "failed to create %s", path)
		}
		defer f.Close()

		switch exportFormat {
		case "xlsx":
			err = render.WriteXLSX(f, page.Tables...)
		case "csv":
			if len(page.Tables) == 0 {
				err = render.ErrNothingToExport
				break
			}
			err = render.WriteCSV(f, page.Tables[0])
		default:
			err = eris.Errorf("unknown format %q (want xlsx or csv)", exportFormat)
		}
		if err != nil {
			f.Close()
			os.Remove(path)
			return err
		}
		state.log.Info("page exported", "page", exportPage, "path", path, "tables", len(page.Tables))
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportPage, "page", dashboard.SlugPricing, "Page slug: home, profili, territorio, contatti, premio")
	f.StringVar(&exportFormat, "format", "xlsx", "Output format: xlsx (all tables) or csv (first table)")
	f.StringVarP(&exportOut, "out", "o", "", "Output file (default <export dir>/vitasicura-<page>.<format>)")
	f.StringArrayVar(&exportFilters, "filter", nil, "Page filter as key=value; repeat the flag for several personas")
}

// filterParams turns repeated key=value flags into page parameters. Values
// are taken verbatim; only persona, the one multi-select, is also split on
// commas.
func filterParams(entries []string) (url.Values, error) {
	params := url.Values{}
	for _, e := range entries {
		key, value, ok := strings.Cut(e, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, eris.Errorf("filter %q must be formatted as key=value", e)
		}
		if key == dashboard.ParamPersona {
			for _, p := range strings.Split(value, ",") {
				params.Add(key, strings.TrimSpace(p))
			}
			continue
		}
		params.Add(key, value)
	}
	return params, nil
}

// ── config ────────────────────────────────────────────────────────────────────

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Run: func(cmd *cobra.Command, _ []string) {
		state.cfg.Print(cmd.OutOrStdout())
	},
}
