package dashboard

import (
	"fmt"
	"math"
	"strings"

	"github.com/spektr-org/vitasicura/copilot"
	"github.com/spektr-org/vitasicura/engine"
)

// Overview holds the four headline KPIs of the home page.
type Overview struct {
	PriorityClients    int     `json:"priorityClients"`
	ValueAtRisk        float64 `json:"valueAtRisk"`
	PricingImprovement float64 `json:"pricingImprovement"` // 0..100, NaN when no pricing rows
	HighPotentialTowns int     `json:"highPotentialTowns"`
}

// ComputeOverview derives the home KPIs from the NBA, pricing and territory datasets.
//
//   - priority clients: priority_score strictly above its quantile
//   - value at risk: sum of clv_stimato where churn_score_model >= churn threshold
//   - pricing improvement: share of rows where loss_ratio_post < loss_ratio_pred
//   - high-potential towns: potential_score_casa >= threshold
func ComputeOverview(ds Datasets, th Thresholds) Overview {
	var o Overview

	if q := engine.Quantile(ds.NBA, "priority_score", th.PriorityQuantile); !math.IsNaN(q) {
		o.PriorityClients = engine.CountWhere(ds.NBA, engine.MeasureAbove("priority_score", q))
	}

	atRisk := engine.Where(ds.NBA, engine.MeasureAtLeast("churn_score_model", th.Churn))
	o.ValueAtRisk = engine.SumMeasure(atRisk, "clv_stimato")

	o.PricingImprovement = engine.ShareWhere(ds.Pricing, func(v engine.RecordView, i int) bool {
		return v.Measure(i, "loss_ratio_post") < v.Measure(i, "loss_ratio_pred")
	})

	o.HighPotentialTowns = engine.CountWhere(ds.Territory, engine.MeasureAtLeast("potential_score_casa", th.HighPotential))
	return o
}

// Briefing converts the overview into the copilot's briefing context.
func (o Overview) Briefing() copilot.Briefing {
	share := o.PricingImprovement
	if math.IsNaN(share) {
		share = 0
	}
	return copilot.Briefing{
		PriorityClients:         o.PriorityClients,
		ValueAtRisk:             o.ValueAtRisk,
		PricingImprovementShare: share,
		HighPotentialTowns:      o.HighPotentialTowns,
	}
}

// Synthesis is the static "what the AI suggests today" box.
func (o Overview) Synthesis(th Thresholds) string {
	var sb strings.Builder
	sb.WriteString("Cosa suggerisce l’AI oggi\n")
	fmt.Fprintf(&sb, "- Concentrarsi su clienti ad alto valore con rischio churn ≥ %.0f%%\n", th.Churn*100)
	fmt.Fprintf(&sb, "- Contattare circa %d clienti prioritari\n", o.PriorityClients)
	fmt.Fprintf(&sb, "- Proteggere oltre %s di valore potenziale\n\n", engine.Euro(o.ValueAtRisk))
	sb.WriteString("A supporto del consulente\n")
	fmt.Fprintf(&sb, "- Il pricing migliora la sostenibilità tecnica nel %s dei casi\n", engine.Percent(o.PricingImprovement))
	fmt.Fprintf(&sb, "- %d comuni mostrano elevato potenziale commerciale", o.HighPotentialTowns)
	return sb.String()
}

// HomePage renders the overview page.
func HomePage(ds Datasets, th Thresholds) *Page {
	o := ComputeOverview(ds, th)
	return &Page{
		Slug:  SlugHome,
		Title: "Vita Sicura — Overview",
		Metrics: []engine.Metric{
			metric("📞 Clienti da contattare", engine.Thousands(float64(o.PriorityClients)), float64(o.PriorityClients)),
			metric("💰 Valore economico a rischio", engine.Euro(o.ValueAtRisk), o.ValueAtRisk),
			metric("📉 Pricing migliorativo", engine.Percent(o.PricingImprovement), o.PricingImprovement),
			metric("🗺️ Comuni prioritari", engine.Thousands(float64(o.HighPotentialTowns)), float64(o.HighPotentialTowns)),
		},
		Notes: []string{
			o.Synthesis(th),
			"✅ AI pronta. Seleziona uno stream per passare all’azione.",
		},
	}
}
