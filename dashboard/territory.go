package dashboard

import (
	"strings"

	"github.com/spektr-org/vitasicura/engine"
	"github.com/spektr-org/vitasicura/schema"
)

// Need areas for the territory page.
const (
	LineCasa   = "Casa"
	LineSalute = "Salute"
)

// TerritoryFilter is the view-state of the territory page.
type TerritoryFilter struct {
	Line         string // LineCasa (default) or LineSalute
	Municipality string // "" = every municipality
}

// Territory page constants.
const (
	TopTowns          = 10
	TopTownsTable     = 30
	ScatterMinScore   = 0.05
	PropertyValueCut  = 300000
	PotentialScoreCut = 0.6
)

// lineColumns resolves the score/gap columns and label for a need area.
func lineColumns(line string) (score, gap, label string) {
	if strings.EqualFold(line, LineSalute) {
		return "potential_score_salute", "protection_gap_salute", "Potenziale Salute"
	}
	return "potential_score_casa", "protection_gap_casa", "Potenziale Casa"
}

// quadrantLabels are placed in data coordinates around the decision guides.
var quadrantLabels = []engine.Annotation{
	{X: 560000, Y: 0.82, Text: "Priorità commerciale"},
	{X: 140000, Y: 0.82, Text: "Bisogno alto · approccio selettivo"},
	{X: 560000, Y: 0.22, Text: "Valore alto · potenziale limitato"},
	{X: 140000, Y: 0.22, Text: "Monitoraggio"},
}

// FilterTerritory applies the municipality filter.
func FilterTerritory(ds Datasets, f TerritoryFilter) engine.RecordView {
	return engine.ApplyFilters(ds.Territory, engine.Filters{}.With("luogo_di_residenza", only(f.Municipality)...))
}

// TerritoryPage renders "Dove investire ora".
func TerritoryPage(ds Datasets, f TerritoryFilter) *Page {
	score, gap, label := lineColumns(f.Line)
	line := LineCasa
	if score == "potential_score_salute" {
		line = LineSalute
	}
	view := FilterTerritory(ds, f)

	page := &Page{
		Slug:  SlugTerritory,
		Title: "🗺️ Dove investire ora — Priorità territoriali",
		Caption: "Capire dove concentrare l’attività commerciale combinando bisogno assicurativo, " +
			"potenziale di mercato e capacità economica per Casa e Salute.",
		Controls: []Control{
			{Name: ParamLine, Label: "🏠 Area di bisogno", Options: []string{LineCasa, LineSalute}, Selected: []string{line}},
			{Name: ParamMunicipality, Label: "🏘️ Comune", AllLabel: "Tutte", Options: engine.UniqueValues(ds.Territory, "luogo_di_residenza"), Selected: selected(f.Municipality)},
		},
	}

	clients := engine.SumMeasure(view, "n_clienti")
	meanScore := engine.AvgMeasure(view, score)
	property := engine.AvgMeasure(view, "valore_immobiliare_medio")
	page.Metrics = []engine.Metric{
		metric("COMUNI", engine.Thousands(float64(view.Len())), float64(view.Len())),
		metric("CLIENTI", engine.Thousands(clients), clients),
		metric(strings.ToUpper(label)+" MEDIO", engine.Fixed(meanScore, 2), meanScore),
		metric("VALORE IMMOBILIARE MEDIO (€)", engine.EuroSuffix(property), property),
	}

	page.Charts = append(page.Charts,
		topTownsChart(view, score, gap, label),
		combinedPotentialChart(view),
		needVsCapacityChart(view, score, gap, label),
	)

	cfg := schema.MustLookup(schema.Territory)
	top := engine.Head(engine.SortByMeasure(view, score, true), TopTownsTable)
	specs := columnSpecs(schema.Territory,
		"luogo_di_residenza", "n_clienti", "penetrazione_casa", "penetrazione_salute",
		"protection_gap_casa", "protection_gap_salute", "valore_immobiliare_medio",
		"potential_score_casa", "potential_score_salute",
	)
	page.Tables = append(page.Tables, engine.BuildRecordTable("Comuni prioritari ordinati per "+cfg.Label(score), top, specs))
	return page
}

// topTownsChart shows the top municipalities by the selected score, shaded by protection gap.
func topTownsChart(view engine.RecordView, score, gap, label string) *engine.ChartConfig {
	top := engine.Head(engine.SortByMeasure(view, score, true), TopTowns)
	series := engine.RecordSeries(top, label, "luogo_di_residenza", score)
	for i := range series.Data {
		series.Data[i].Weight = top.Measure(i, gap)
	}
	return &engine.ChartConfig{
		ChartType:  "bar",
		Title:      "Comuni con maggiore opportunità commerciale per " + label,
		XAxis:      label + " (indice sintetico)",
		YAxis:      "Comune",
		Series:     []engine.ChartSeries{series},
		Colors:     []string{"#4C78A8"},
		ShowGrid:   true,
		Horizontal: true,
	}
}

// combinedPotentialChart stacks Casa and Salute for the municipalities with
// the highest combined potential.
func combinedPotentialChart(view engine.RecordView) *engine.ChartConfig {
	groups := engine.GroupAndAggregate(view, engine.Query{
		GroupBy:     []string{"luogo_di_residenza"},
		Aggregation: "count",
	})
	for i := range groups {
		groups[i].Value = engine.SumMeasure(groups[i].View, "potential_score_casa") +
			engine.SumMeasure(groups[i].View, "potential_score_salute")
	}
	engine.SortGroups(groups, "value_desc")
	if len(groups) > TopTowns {
		groups = groups[:TopTowns]
	}

	casa := engine.ChartSeries{Name: LineCasa, Color: "#4C78A8"}
	salute := engine.ChartSeries{Name: LineSalute, Color: "#72B7B2"}
	for _, g := range groups {
		casa.Data = append(casa.Data, engine.ChartPoint{Label: g.Label, Value: engine.RoundTo2(engine.SumMeasure(g.View, "potential_score_casa"))})
		salute.Data = append(salute.Data, engine.ChartPoint{Label: g.Label, Value: engine.RoundTo2(engine.SumMeasure(g.View, "potential_score_salute"))})
	}
	return &engine.ChartConfig{
		ChartType:  "stacked_bar",
		Title:      "Potenziale complessivo (Casa + Salute)",
		XAxis:      "Potenziale complessivo (Casa + Salute)",
		YAxis:      "Comune",
		Series:     []engine.ChartSeries{casa, salute},
		Colors:     []string{"#4C78A8", "#72B7B2"},
		ShowLegend: true,
		ShowGrid:   true,
		Horizontal: true,
	}
}

// needVsCapacityChart plots property value against the selected score for
// towns above the noise floor, with the decision guides and quadrant labels.
func needVsCapacityChart(view engine.RecordView, score, gap, label string) *engine.ChartConfig {
	plotted := engine.Where(view, engine.MeasureAbove(score, ScatterMinScore))
	series := engine.ScatterSeries(plotted, label, "luogo_di_residenza", "valore_immobiliare_medio", score, "n_clienti", gap)
	series.Color = "#4C78A8"
	return &engine.ChartConfig{
		ChartType: "scatter",
		Title:     "Dove concentrare l’azione: bisogno vs capacità economica",
		XAxis:     "Valore immobiliare medio (€)",
		YAxis:     label,
		Series:    []engine.ChartSeries{series},
		Colors:    []string{"#4C78A8"},
		ShowGrid:  true,
		Guides: []engine.Guide{
			{Axis: "x", Value: PropertyValueCut},
			{Axis: "y", Value: PotentialScoreCut},
		},
		Annotations: quadrantLabels,
	}
}
