// Package vitasicura is the Vita Sicura insurance BI dashboard.
//
// The analytics CSVs produced upstream (client clusters, next best action
// scores, pricing simulations, territorial potential) are loaded by the
// dataset package, shaped into pages by dashboard on top of the engine
// primitives, and served by web (HTTP) or tui (terminal):
//
//	loader := dataset.NewLoader("data/analytics")
//	ds, err := dashboard.Load(loader)
//	page, err := dashboard.Render(dashboard.SlugContacts, ds, url.Values{"azione": {"Cross-sell Casa"}}, dashboard.DefaultThresholds())
//
// The copilot package talks to the LLM. It never returns an error to the
// caller; failures come back as user-facing text.
package vitasicura
