package tui

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/spektr-org/vitasicura/dashboard"
	"github.com/spektr-org/vitasicura/engine"
)

// Dashboard renders the dashboard pages in the terminal. The page list sits
// on the left; metrics, notes and one table of the selected page on the
// right. "[" and "]" cycle through the page's tables, Tab moves focus,
// q or Esc quits.
type Dashboard struct {
	app     *tview.Application
	list    *tview.List
	metrics *tview.TextView
	notes   *tview.TextView
	table   *tview.Table

	ds dashboard.Datasets
	th dashboard.Thresholds

	page       *dashboard.Page
	tableIndex int
}

// New builds the terminal layout over already-loaded datasets.
func New(ds dashboard.Datasets, th dashboard.Thresholds) *Dashboard {
	d := &Dashboard{ds: ds, th: th}

	d.metrics = tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	d.metrics.SetBorder(true).SetTitleAlign(tview.AlignLeft)
	d.notes = tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	d.notes.SetBorder(true).SetTitle("Note").SetTitleAlign(tview.AlignLeft)
	d.table = tview.NewTable().SetFixed(1, 0).SetSelectable(true, false)
	d.table.SetBorder(true).SetTitleAlign(tview.AlignLeft)

	d.list = tview.NewList().ShowSecondaryText(false)
	d.list.SetBorder(true).SetTitle("Vita Sicura")
	for _, r := range dashboard.Routes {
		slug := r.Slug
		d.list.AddItem(r.Icon+" "+r.Title, "", 0, func() {
			d.Show(slug)
		})
	}
	d.list.SetChangedFunc(func(i int, _, _ string, _ rune) {
		if i >= 0 && i < len(dashboard.Routes) {
			d.Show(dashboard.Routes[i].Slug)
		}
	})

	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(d.metrics, 8, 0, false).
		AddItem(d.notes, 6, 0, false).
		AddItem(d.table, 0, 1, true)
	layout := tview.NewFlex().
		AddItem(d.list, 34, 0, true).
		AddItem(right, 0, 1, false)

	d.app = tview.NewApplication().SetRoot(layout, true)
	d.app.SetInputCapture(d.handleKey)

	d.Show(dashboard.SlugHome)
	return d
}

func (d *Dashboard) handleKey(ev *tcell.EventKey) *tcell.EventKey {
	switch {
	case ev.Key() == tcell.KeyEscape, ev.Rune() == 'q':
		d.app.Stop()
		return nil
	case ev.Key() == tcell.KeyTab:
		if d.list.HasFocus() {
			d.app.SetFocus(d.table)
		} else {
			d.app.SetFocus(d.list)
		}
		return nil
	case ev.Rune() == ']':
		d.cycleTable(1)
		return nil
	case ev.Rune() == '[':
		d.cycleTable(-1)
		return nil
	}
	return ev
}

// Run blocks until the user quits.
func (d *Dashboard) Run() error {
	return d.app.Run()
}

// Show renders the page with no filters.
func (d *Dashboard) Show(slug string) error {
	page, err := dashboard.Render(slug, d.ds, url.Values{}, d.th)
	if err != nil {
		return err
	}
	d.page = page
	d.tableIndex = 0

	d.metrics.SetTitle(" " + page.Title + " ")
	d.metrics.SetText(metricsText(page.Metrics))
	d.notes.SetText(tview.Escape(strings.Join(page.Notes, "\n\n")))
	d.fillTable()
	return nil
}

func (d *Dashboard) cycleTable(step int) {
	if d.page == nil || len(d.page.Tables) == 0 {
		return
	}
	n := len(d.page.Tables)
	d.tableIndex = ((d.tableIndex+step)%n + n) % n
	d.fillTable()
}

func (d *Dashboard) fillTable() {
	d.table.Clear()
	if d.page == nil || len(d.page.Tables) == 0 {
		d.table.SetTitle(" — ")
		return
	}
	t := d.page.Tables[d.tableIndex]
	d.table.SetTitle(fmt.Sprintf(" %s (%d/%d) ", t.Title, d.tableIndex+1, len(d.page.Tables)))
	fillTable(d.table, t)
}

// fillTable copies a page table into a tview table, header row first.
func fillTable(tbl *tview.Table, t *engine.TableData) {
	for c, col := range t.Columns {
		tbl.SetCell(0, c, tview.NewTableCell(col.Label).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false).
			SetAlign(align(col)))
	}
	for r, row := range t.Rows {
		for c, cell := range row {
			col := engine.Column{}
			if c < len(t.Columns) {
				col = t.Columns[c]
			}
			tbl.SetCell(r+1, c, tview.NewTableCell(tview.Escape(cell)).SetAlign(align(col)))
		}
	}
}

func align(col engine.Column) int {
	if col.Align == "right" {
		return tview.AlignRight
	}
	return tview.AlignLeft
}

func metricsText(metrics []engine.Metric) string {
	var sb strings.Builder
	for _, m := range metrics {
		fmt.Fprintf(&sb, "[yellow]%s[-]  %s\n", tview.Escape(m.Label), tview.Escape(m.Value))
	}
	return sb.String()
}
