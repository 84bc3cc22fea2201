package dashboard

import (
	"math"
	"strconv"

	"github.com/spektr-org/vitasicura/copilot"
	"github.com/spektr-org/vitasicura/engine"
	"github.com/spektr-org/vitasicura/schema"
)

// ContactsFilter is the view-state of the "who to contact now" page.
type ContactsFilter struct {
	Action   string // "" = every next best action
	ClientID *int64
}

// TopContacts is how many clients the action table lists.
const TopContacts = 30

// ContactsView joins client names onto the NBA scores (left join on codice_cliente).
func ContactsView(ds Datasets) engine.RecordView {
	return withNames(ds.NBA, ds.Clients)
}

// FilterContacts applies the contacts view-state.
func FilterContacts(ds Datasets, f ContactsFilter) engine.RecordView {
	view := ContactsView(ds)
	view = engine.ApplyFilters(view, engine.Filters{}.With("next_best_action", only(f.Action)...))
	if f.ClientID != nil {
		view = whereClient(view, *f.ClientID)
	}
	return view
}

// ContactsPage renders "Chi contattare adesso".
func ContactsPage(ds Datasets, f ContactsFilter, th Thresholds) *Page {
	all := ContactsView(ds)
	view := FilterContacts(ds, f)

	page := &Page{
		Slug:  SlugContacts,
		Title: "🎯 CHI CONTATTARE ADESSO?",
		Caption: "Indicazioni operative su quali clienti contattare e perché, combinando valore economico, " +
			"rischio di abbandono e opportunità commerciali. I clienti a rischio churn hanno una probabilità " +
			"stimata di abbandono ≥ " + strconv.FormatFloat(th.Churn*100, 'f', 0, 64) + "%.",
		Controls: []Control{
			{Name: ParamAction, Label: "Next Best Action", AllLabel: "Tutte", Options: engine.UniqueValues(all, "next_best_action"), Selected: selected(f.Action)},
			{Name: ParamClient, Label: "Cliente", AllLabel: "Tutti", Options: engine.UniqueValues(all, LabelColumn), Selected: clientSelection(all, f.ClientID)},
		},
	}

	expected := engine.AvgMeasure(view, "valore_atteso_euro")
	churnShare := engine.ShareWhere(view, engine.MeasureAtLeast("churn_score_model", th.Churn))
	clv := engine.AvgMeasure(view, "clv_stimato")
	page.Metrics = []engine.Metric{
		metric("CLIENTI", engine.Thousands(float64(view.Len())), float64(view.Len())),
		metric("VALORE ECONOMICO STIMATO (€)", engine.EuroSuffix(expected), expected),
		metric("CLIENTI A RISCHIO CHURN", engine.Percent(churnShare), churnShare),
		metric("VALORE MEDIO CLIENTE (€)", engine.EuroSuffix(clv), clv),
	}

	// Action distribution over every NBA row, not the filtered context
	counts, means := actionDistribution(all)
	if chart := engine.BuildChart(engine.Query{Title: "Numero clienti", XAxis: "Numero clienti", YAxis: "Azione"}, counts); chart != nil {
		chart.Horizontal = true
		page.Charts = append(page.Charts, chart)
	}
	if chart := engine.BuildChart(engine.Query{Title: "Valore economico stimato (€)", XAxis: "Valore economico stimato (€)", YAxis: "Azione"}, means); chart != nil {
		chart.Horizontal = true
		page.Charts = append(page.Charts, chart)
	}
	page.Tables = append(page.Tables, actionTable(counts))

	top := engine.Head(engine.SortByMeasure(view, "valore_atteso_euro", true), TopContacts)
	page.Tables = append(page.Tables, engine.BuildRecordTable("Clienti su cui agire ora", top,
		columnSpecs(schema.NBA,
			LabelColumn, "next_best_action", "valore_atteso_euro", "churn_score_model",
			"engagement_score", "mesi_da_ultima_visita", "clv_stimato",
		)))

	if f.ClientID == nil || view.Len() == 0 {
		page.Notes = append(page.Notes, "Seleziona un cliente dalla tabella per attivare Vita, il tuo Consulente AI.")
		return page
	}
	p := profileAt(view, 0)
	page.Client = &p
	return page
}

// actionDistribution groups rows by next_best_action. counts holds the
// number of rows with a client id per action (desc); means holds total
// expected value divided by that count (desc).
func actionDistribution(view engine.RecordView) (counts, means []engine.Group) {
	counts = engine.GroupAndAggregate(view, engine.Query{
		GroupBy:     []string{"next_best_action"},
		Measure:     schema.ClientIDColumn,
		Aggregation: "count_valid",
		SortBy:      "value_desc",
	})

	means = make([]engine.Group, len(counts))
	for i, g := range counts {
		m := g
		m.Value = meanExpected(g)
		means[i] = m
	}
	engine.SortGroups(means, "value_desc")
	return counts, means
}

// meanExpected is total expected value over the group's client count.
func meanExpected(g engine.Group) float64 {
	if g.Value == 0 {
		return math.NaN()
	}
	return engine.SumMeasure(g.View, "valore_atteso_euro") / g.Value
}

func actionTable(counts []engine.Group) *engine.TableData {
	tbl := &engine.TableData{
		Title: "Come si distribuiscono le azioni consigliate",
		Columns: []engine.Column{
			{Key: "next_best_action", Label: "Azione", Type: "text", Align: "left"},
			{Key: "n_clienti", Label: "Numero clienti", Type: "number", Align: "right"},
			{Key: "valore_medio", Label: "Valore economico stimato (€)", Type: "currency", Align: "right"},
		},
	}
	for _, g := range counts {
		tbl.Rows = append(tbl.Rows, []string{g.Label, engine.Thousands(g.Value), engine.Euro(meanExpected(g))})
	}
	return tbl
}

// profileAt builds the copilot decision basis from row i of a contacts view.
func profileAt(view engine.RecordView, i int) copilot.ClientProfile {
	id, _ := strconv.ParseInt(view.Dimension(i, schema.ClientIDColumn), 10, 64)
	return copilot.ClientProfile{
		ClientID:         id,
		Label:            view.Dimension(i, LabelColumn),
		Action:           view.Dimension(i, "next_best_action"),
		ExpectedValue:    view.Measure(i, "valore_atteso_euro"),
		Churn:            view.Measure(i, "churn_score_model"),
		CLV:              view.Measure(i, "clv_stimato"),
		Engagement:       view.Measure(i, "engagement_score"),
		MonthsSinceVisit: view.Measure(i, "mesi_da_ultima_visita"),
	}
}

// SelectedClient returns the copilot profile for a client on the contacts page.
func SelectedClient(ds Datasets, id int64) (copilot.ClientProfile, bool) {
	view := FilterContacts(ds, ContactsFilter{ClientID: &id})
	if view.Len() == 0 {
		return copilot.ClientProfile{}, false
	}
	return profileAt(view, 0), true
}
