package dashboard

import (
	"github.com/spektr-org/vitasicura/engine"
	"github.com/spektr-org/vitasicura/schema"
)

// PricingFilter is the view-state of the premium optimisation page.
type PricingFilter struct {
	ClientID *int64
	Product  string
	Action   string
}

// DeltaColumn is loss_ratio_post − loss_ratio_pred; negative means improved.
const DeltaColumn = "delta_loss_ratio"

// MaxPlottedLossRatio drops extreme loss ratios from the before/after histogram.
const MaxPlottedLossRatio = 10

// Histogram colours.
const (
	colorBefore   = "#4C78A8"
	colorAfter    = "#F58518"
	colorImproved = "#2ecc71"
	colorWorsened = "#e74c3c"
)

var withDelta = engine.NewDerivation().
	Measure(DeltaColumn, func(v engine.RecordView, i int) float64 {
		return v.Measure(i, "loss_ratio_post") - v.Measure(i, "loss_ratio_pred")
	})

// PricingView joins client names onto the pricing output and derives the delta.
func PricingView(ds Datasets) engine.RecordView {
	return withDelta.Bind(withNames(ds.Pricing, ds.Clients))
}

// FilterPricing applies the pricing view-state.
func FilterPricing(ds Datasets, f PricingFilter) engine.RecordView {
	view := PricingView(ds)
	if f.ClientID != nil {
		view = whereClient(view, *f.ClientID)
	}
	return engine.ApplyFilters(view, engine.Filters{}.
		With("prodotto", only(f.Product)...).
		With("pricing_action", only(f.Action)...))
}

// PricingPage renders "Come ottimizzare il premio per il cliente".
func PricingPage(ds Datasets, f PricingFilter) *Page {
	all := PricingView(ds)
	view := FilterPricing(ds, f)

	page := &Page{
		Slug:  SlugPricing,
		Title: "💰 Come ottimizzare il premio per il cliente",
		Caption: "Valutazione dell’impatto delle azioni di pricing suggerite, per trovare il giusto equilibrio " +
			"tra sostenibilità tecnica e valore per il cliente.",
		Controls: []Control{
			{Name: ParamClient, Label: "👤 Cliente", AllLabel: "Tutti", Options: engine.UniqueValues(all, LabelColumn), Selected: clientSelection(all, f.ClientID)},
			{Name: ParamProduct, Label: "📦 Prodotto", AllLabel: "Tutti", Options: engine.UniqueValues(all, "prodotto"), Selected: selected(f.Product)},
			{Name: ParamAction, Label: "⚖️ Azione pricing", AllLabel: "Tutte", Options: engine.UniqueValues(all, "pricing_action"), Selected: selected(f.Action)},
		},
	}

	improved := engine.ShareWhere(view, engine.MeasureBelow(DeltaColumn, 0))
	meanDelta := engine.AvgMeasure(view, DeltaColumn)
	worsened := engine.ShareWhere(view, engine.MeasureAbove(DeltaColumn, 0))
	page.Metrics = []engine.Metric{
		metric("CLIENTI MIGLIORATIVI", engine.Percent(improved), improved),
		metric("IMPATTO MEDIO", engine.Fixed(meanDelta, 2), meanDelta),
		metric("CLIENTI PEGGIORATIVI", engine.Percent(worsened), worsened),
	}

	if chart := beforeAfterHistogram(view); chart != nil {
		page.Charts = append(page.Charts, chart)
	}
	if chart := deltaHistogram(view); chart != nil {
		page.Charts = append(page.Charts, chart)
	}
	page.Notes = append(page.Notes, "Verde = miglioramento del Loss Ratio dopo il pricing · Rosso = peggioramento")

	page.Tables = append(page.Tables, engine.BuildRecordTable("Proposte di pricing — vista consulente",
		engine.SortByMeasure(view, DeltaColumn, false),
		columnSpecs(schema.Pricing,
			"nome", "cognome", "prodotto", "premio_totale_annuo", "pricing_action",
			"loss_ratio_pred", "loss_ratio_post", DeltaColumn,
		)))
	return page
}

// beforeAfterHistogram bins loss ratios ≤ MaxPlottedLossRatio before and after
// pricing on shared edges.
func beforeAfterHistogram(view engine.RecordView) *engine.ChartConfig {
	keep := func(vals []float64) []float64 {
		out := vals[:0]
		for _, v := range vals {
			if v <= MaxPlottedLossRatio {
				out = append(out, v)
			}
		}
		return out
	}
	before := keep(engine.Values(view, "loss_ratio_pred"))
	after := keep(engine.Values(view, "loss_ratio_post"))

	edges := engine.HistogramEdges(engine.DefaultBins, before, after)
	if edges == nil {
		return nil
	}
	series := []engine.ChartSeries{
		engine.HistogramSeries("Prima", colorBefore, engine.Histogram(before, edges)),
		engine.HistogramSeries("Dopo", colorAfter, engine.Histogram(after, edges)),
	}
	return &engine.ChartConfig{
		ChartType:  "histogram",
		Title:      "Impatto del pricing sul Loss Ratio",
		XAxis:      "Loss Ratio (0–10)",
		YAxis:      "Numero clienti",
		Series:     series,
		Colors:     []string{colorBefore, colorAfter},
		ShowLegend: true,
		ShowGrid:   true,
	}
}

// deltaHistogram bins the delta, splitting improved (<0) from the rest so
// the two can be coloured apart.
func deltaHistogram(view engine.RecordView) *engine.ChartConfig {
	var neg, rest []float64
	for _, d := range engine.Values(view, DeltaColumn) {
		if d < 0 {
			neg = append(neg, d)
		} else {
			rest = append(rest, d)
		}
	}
	edges := engine.HistogramEdges(engine.DefaultBins, neg, rest)
	if edges == nil {
		return nil
	}
	return &engine.ChartConfig{
		ChartType: "histogram",
		Title:     "Δ Loss Ratio (Dopo − Prima)",
		XAxis:     "Δ Loss Ratio (Dopo − Prima)",
		YAxis:     "Numero clienti",
		Series: []engine.ChartSeries{
			engine.HistogramSeries("Miglioramento", colorImproved, engine.Histogram(neg, edges)),
			engine.HistogramSeries("Peggioramento", colorWorsened, engine.Histogram(rest, edges)),
		},
		Colors:     []string{colorImproved, colorWorsened},
		ShowLegend: true,
		ShowGrid:   true,
	}
}
