package dashboard

import (
	"fmt"

	"github.com/spektr-org/vitasicura/engine"
	"github.com/spektr-org/vitasicura/schema"
)

// ProfilesFilter is the view-state of the client profiles page.
// Zero values mean "all".
type ProfilesFilter struct {
	ClientID *int64
	Response string   // Alta | Media | Bassa
	Zone     string
	Personas []string // nil = all personas
}

// ResponseColumn is the derived response-probability dimension.
const ResponseColumn = "probabilita_risposta"

// ResponseLevels maps cluster_risposta to the consultant-facing level.
var ResponseLevels = map[string]string{
	"high_responder":     "Alta",
	"moderate_responder": "Media",
	"low_responder":      "Bassa",
}

// responseOptions is the fixed display order of response levels.
var responseOptions = []string{"Alta", "Media", "Bassa"}

var withResponse = engine.NewDerivation().
	Dimension(ResponseColumn, func(v engine.RecordView, i int) string {
		return ResponseLevels[v.Dimension(i, "cluster_risposta")]
	})

// profileColumns are averaged per persona.
var profileColumns = []engine.ColumnSpec{
	{Key: "clv_stimato", Label: "Valore medio cliente (€)", Format: schema.FormatEuro},
	{Key: "potenziale_crescita", Label: "Potenziale di crescita", Format: schema.FormatFloat1},
	{Key: "engagement_score", Label: "Engagement (0–100)", Format: schema.FormatFloat1},
	{Key: "satisfaction_score", Label: "Soddisfazione", Format: schema.FormatFloat1},
	{Key: "reclami_totali", Label: "Reclami medi", Format: schema.FormatFloat2},
	{Key: "num_polizze_totali", Label: "N° polizze medie", Format: schema.FormatFloat1},
}

// FilterProfiles applies the profiles view-state to the clients dataset.
// Rows lacking persona, response level or zone never match, even with no
// selection, because "all" means every known value.
func FilterProfiles(ds Datasets, f ProfilesFilter) engine.RecordView {
	view := withResponse.Bind(labelled.Bind(ds.Clients))
	if f.ClientID != nil {
		view = whereClient(view, *f.ClientID)
	}

	filters := engine.Filters{}.
		With(ResponseColumn, only(f.Response)...).
		With("zona_di_residenza", only(f.Zone)...).
		With("persona_label", f.Personas...)
	for _, dim := range []string{ResponseColumn, "zona_di_residenza", "persona_label"} {
		if !filters.HasFilter(dim) {
			view = engine.Present(view, dim)
		}
	}
	return engine.ApplyFilters(view, filters)
}

// ProfilesPage renders "Conosciamo il cliente".
func ProfilesPage(ds Datasets, f ProfilesFilter) *Page {
	view := FilterProfiles(ds, f)

	page := &Page{
		Slug:    SlugProfiles,
		Title:   "👥 CONOSCIAMO IL CLIENTE",
		Caption: "Chi sono i tuoi clienti, che valore hanno per Vita Sicura e come si comportano nel tempo.",
		Controls: []Control{
			{Name: ParamClient, Label: "👤 Cliente", AllLabel: "Tutti", Options: ClientOptions(ds), Selected: clientSelection(labelled.Bind(ds.Clients), f.ClientID)},
			{Name: ParamResponse, Label: "📈 Probabilità di risposta", AllLabel: "Tutte", Options: responseOptions, Selected: selected(f.Response)},
			{Name: ParamZone, Label: "🏘️ Area geografica", AllLabel: "Tutte", Options: engine.UniqueValues(ds.Clients, "zona_di_residenza"), Selected: selected(f.Zone)},
			{Name: ParamPersona, Label: "🎭 Profilo cliente", AllLabel: "Tutti", Options: engine.UniqueValues(ds.Clients, "persona_label"), Selected: f.Personas, Multi: true},
		},
	}

	clv := engine.AvgMeasure(view, "clv_stimato")
	eng := engine.AvgMeasure(view, "engagement_score")
	complaints := engine.AvgMeasure(view, "reclami_totali")
	page.Metrics = []engine.Metric{
		metric("CLIENTI", engine.Thousands(float64(view.Len())), float64(view.Len())),
		metric("VALORE MEDIO CLIENTE (€)", engine.EuroSuffix(clv), clv),
		metric("ENGAGEMENT", engine.Fixed(eng, 1), eng),
		metric("RECLAMI MEDI", engine.Fixed(complaints, 2), complaints),
	}

	// Persona distribution and mean CLV per persona
	dist := engine.Query{
		GroupBy:     []string{"persona_label"},
		Aggregation: "count",
		SortBy:      "value_desc",
		Visualize:   "bar",
		Title:       "Dove sono i clienti",
		XAxis:       "Clienti nel profilo",
		YAxis:       "Persona",
	}
	clvQ := engine.Query{
		GroupBy:     []string{"persona_label"},
		Measure:     "clv_stimato",
		Aggregation: "avg",
		SortBy:      "value_desc",
		Visualize:   "bar",
		Title:       "Dove si genera valore",
		XAxis:       "Valore medio per cliente (€)",
		YAxis:       "Persona",
	}
	for _, q := range []engine.Query{dist, clvQ} {
		if chart := engine.BuildChart(q, engine.GroupAndAggregate(view, q)); chart != nil {
			chart.Horizontal = true
			page.Charts = append(page.Charts, chart)
		}
	}

	// Profile of means, personas in label order
	personas := engine.GroupAndAggregate(view, engine.Query{
		GroupBy:     []string{"persona_label"},
		Aggregation: "count",
		SortBy:      "label_asc",
	})
	page.Tables = append(page.Tables,
		engine.BuildProfileTable("Come si comportano i diversi profili di clienti", "Profilo cliente", personas, profileColumns))

	// Operational table
	ops := engine.BuildRecordTable("Clienti con maggiore potenziale",
		engine.SortByMeasure(view, "clv_stimato", true),
		columnSpecs(schema.Clients,
			"codice_cliente", "nome", "cognome", "persona_label", "cluster_risposta", "zona_di_residenza",
			"clv_stimato", "potenziale_crescita", "engagement_score", "satisfaction_score", "reclami_totali",
		))
	page.Tables = append(page.Tables, ops)

	if view.Len() == 0 {
		page.Notes = append(page.Notes, "Nessun cliente corrisponde ai filtri selezionati.")
	}
	return page
}

// clientSelection returns the label of the selected client, if any.
// view must carry the client label dimension.
func clientSelection(view engine.RecordView, id *int64) []string {
	if id == nil {
		return nil
	}
	match := whereClient(view, *id)
	if match.Len() == 0 {
		return []string{fmt.Sprintf("ID %d", *id)}
	}
	return []string{match.Dimension(0, LabelColumn)}
}
