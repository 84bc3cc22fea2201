package dashboard

import (
	"errors"
	"net/url"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/spektr-org/vitasicura/dataset"
	"github.com/spektr-org/vitasicura/engine"
	"github.com/spektr-org/vitasicura/schema"
)

// ── Fixtures ──────────────────────────────────────────────────────────────────

var fixtures = map[string]string{
	schema.Clients: "codice_cliente,nome,cognome,persona_label,cluster_risposta,zona_di_residenza,clv_stimato,potenziale_crescita,engagement_score,satisfaction_score,reclami_totali,num_polizze_totali\n" +
		"1,mario,rossi,Famiglia,high_responder,Nord,12000,3.5,70,8,0,3\n" +
		"2,ANNA,bianchi,Senior,low_responder,Sud,8000,1.5,40,6,2,1\n" +
		"3,luca,de luca,Famiglia,moderate_responder,Sud,10000,2.5,60,7,1,2\n" +
		"4,sara,neri,,unknown_responder,Nord,5000,1,30,5,4,1\n",
	schema.NBA: "codice_cliente,next_best_action,priority_score,churn_score_model,clv_stimato,valore_atteso_euro,engagement_score,mesi_da_ultima_visita\n" +
		"1,Cross-sell Casa,0.9,0.8,12000,500,70,3\n" +
		"2,Retention call,0.4,0.2,8000,120,40,14\n" +
		"3,Cross-sell Casa,0.5,0.7,10000,300,60,6\n" +
		"4,Retention call,0.1,0.9,5000,80,30,20\n" +
		",Upsell Vita,0.3,0.1,2000,50,20,1\n",
	schema.Pricing: "codice_cliente,prodotto,premio_totale_annuo,pricing_action,loss_ratio_pred,loss_ratio_post\n" +
		"1,Casa,900,increase,0.8,0.6\n" +
		"2,Salute,600,decrease,0.5,0.7\n" +
		"3,Casa,700,keep,0.4,0.4\n" +
		"4,Casa,1000,increase,12,9\n",
	schema.Territory: "luogo_di_residenza,n_clienti,penetrazione_casa,penetrazione_salute,protection_gap_casa,protection_gap_salute,valore_immobiliare_medio,potential_score_casa,potential_score_salute\n" +
		"Milano,120,1,0,0,1,450000,0.8,0.5\n" +
		"Roma,80,0,1,1,0,250000,0.6,0.7\n" +
		"Napoli,50,0,0,1,1,150000,0.3,0.04\n",
}

func fixtureDatasets(t *testing.T) Datasets {
	t.Helper()
	tables := make(map[string]*dataset.Table, len(fixtures))
	for name, body := range fixtures {
		tbl, err := dataset.Parse(name, []byte(body))
		assert.NilError(t, err, name)
		tables[name] = tbl
	}
	return FromTables(tables)
}

func metricValues(p *Page) map[string]string {
	out := make(map[string]string, len(p.Metrics))
	for _, m := range p.Metrics {
		out[m.Label] = m.Value
	}
	return out
}

func ptr(id int64) *int64 { return &id }

// ── Datasets ──────────────────────────────────────────────────────────────────

func TestVersionTracksContent(t *testing.T) {
	a := fixtureDatasets(t)
	b := fixtureDatasets(t)
	assert.Equal(t, a.Version, b.Version)

	changed, err := dataset.Parse(schema.Territory, []byte(fixtures[schema.Territory]+"Torino,10,0,0,0,0,200000,0.1,0.1\n"))
	assert.NilError(t, err)
	tables := map[string]*dataset.Table{schema.Territory: changed}
	for _, name := range []string{schema.Clients, schema.NBA, schema.Pricing} {
		tbl, err := dataset.Parse(name, []byte(fixtures[name]))
		assert.NilError(t, err)
		tables[name] = tbl
	}
	assert.Assert(t, FromTables(tables).Version != a.Version)
}

// ── Home ──────────────────────────────────────────────────────────────────────

func TestComputeOverview(t *testing.T) {
	o := ComputeOverview(fixtureDatasets(t), DefaultThresholds())

	// 0.9 quantile of {0.1,0.3,0.4,0.5,0.9} is 0.74; only 0.9 lies above it.
	assert.Equal(t, o.PriorityClients, 1)
	// churn ≥ 0.7: clients 1, 3, 4
	assert.Equal(t, o.ValueAtRisk, 27000.0)
	assert.Equal(t, o.PricingImprovement, 50.0)
	assert.Equal(t, o.HighPotentialTowns, 2)
}

func TestHomePageMetrics(t *testing.T) {
	p := HomePage(fixtureDatasets(t), DefaultThresholds())
	m := metricValues(p)
	assert.Equal(t, m["📞 Clienti da contattare"], "1")
	assert.Equal(t, m["💰 Valore economico a rischio"], "€ 27,000")
	assert.Equal(t, m["📉 Pricing migliorativo"], "50%")
	assert.Equal(t, m["🗺️ Comuni prioritari"], "2")
	assert.Assert(t, is.Contains(p.Notes[0], "rischio churn ≥ 70%"))
}

func TestOverviewEmptyPricingIsNotAvailable(t *testing.T) {
	ds := fixtureDatasets(t)
	ds.Pricing = engine.NewSubView(ds.Pricing, nil)
	p := HomePage(ds, DefaultThresholds())
	assert.Equal(t, metricValues(p)["📉 Pricing migliorativo"], engine.Missing)
	assert.Equal(t, ComputeOverview(ds, DefaultThresholds()).Briefing().PricingImprovementShare, 0.0)
}

// ── Clients ───────────────────────────────────────────────────────────────────

func TestClientLabel(t *testing.T) {
	assert.Equal(t, ClientLabel("mario", "DE LUCA", "7"), "Mario De Luca — ID 7")
	assert.Equal(t, ClientLabel("anna", "d'amico", ""), "Anna D'Amico — ID <NA>")
}

func TestParseClientSelection(t *testing.T) {
	id, ok := ParseClientSelection("Mario Rossi — ID 17")
	assert.Assert(t, ok)
	assert.Equal(t, id, int64(17))

	id, ok = ParseClientSelection(" 42 ")
	assert.Assert(t, ok)
	assert.Equal(t, id, int64(42))

	_, ok = ParseClientSelection("Mario Rossi — ID <NA>")
	assert.Assert(t, !ok)
}

func TestClientOptionsSorted(t *testing.T) {
	opts := ClientOptions(fixtureDatasets(t))
	assert.DeepEqual(t, opts, []string{
		"Anna Bianchi — ID 2",
		"Luca De Luca — ID 3",
		"Mario Rossi — ID 1",
		"Sara Neri — ID 4",
	})
}

func TestSearchClients(t *testing.T) {
	labels := ClientOptions(fixtureDatasets(t))

	assert.DeepEqual(t, SearchClients(labels, "rossi", 10), []string{"Mario Rossi — ID 1"})
	// one typo away
	assert.DeepEqual(t, SearchClients(labels, "bianci", 10), []string{"Anna Bianchi — ID 2"})
	assert.DeepEqual(t, SearchClients(labels, "luca", 10), []string{"Luca De Luca — ID 3"})
	assert.Equal(t, len(SearchClients(labels, "", 2)), 2)
	assert.Equal(t, len(SearchClients(labels, "zzzzzzzz", 10)), 0)
}

// ── Profiles ──────────────────────────────────────────────────────────────────

func TestProfilesAllExcludesMissingValues(t *testing.T) {
	p := ProfilesPage(fixtureDatasets(t), ProfilesFilter{})
	m := metricValues(p)

	// client 4 has no persona and an unmapped response cluster
	assert.Equal(t, m["CLIENTI"], "3")
	assert.Equal(t, m["VALORE MEDIO CLIENTE (€)"], "10,000 €")
	assert.Equal(t, m["ENGAGEMENT"], "56.7")
	assert.Equal(t, m["RECLAMI MEDI"], "1.00")
}

func TestProfilesFilters(t *testing.T) {
	ds := fixtureDatasets(t)

	assert.Equal(t, FilterProfiles(ds, ProfilesFilter{Zone: "Sud"}).Len(), 2)
	assert.Equal(t, FilterProfiles(ds, ProfilesFilter{Response: "Alta"}).Len(), 1)
	assert.Equal(t, FilterProfiles(ds, ProfilesFilter{Personas: []string{"Famiglia"}}).Len(), 2)
	assert.Equal(t, FilterProfiles(ds, ProfilesFilter{Personas: []string{"Famiglia"}, Zone: "Nord"}).Len(), 1)
	assert.Equal(t, FilterProfiles(ds, ProfilesFilter{ClientID: ptr(2)}).Len(), 1)
	assert.Equal(t, FilterProfiles(ds, ProfilesFilter{ClientID: ptr(99)}).Len(), 0)
}

func TestProfilesTables(t *testing.T) {
	p := ProfilesPage(fixtureDatasets(t), ProfilesFilter{})
	assert.Equal(t, len(p.Tables), 2)

	profile := p.Tables[0]
	assert.Equal(t, len(profile.Rows), 2)
	assert.Equal(t, profile.Rows[0][0], "Famiglia")
	assert.Equal(t, profile.Rows[1][0], "Senior")

	ops := p.Tables[1]
	assert.Equal(t, len(ops.Rows), 3)
	assert.Equal(t, ops.Rows[0][0], "1") // highest CLV first
}

func TestProfilesEmptySelectionAddsNote(t *testing.T) {
	p := ProfilesPage(fixtureDatasets(t), ProfilesFilter{Zone: "Centro"})
	assert.Equal(t, metricValues(p)["CLIENTI"], "0")
	assert.Equal(t, metricValues(p)["VALORE MEDIO CLIENTE (€)"], engine.Missing)
	assert.Equal(t, len(p.Charts), 0)
	assert.Assert(t, len(p.Notes) == 1)
}

// ── Contacts ──────────────────────────────────────────────────────────────────

func TestContactsMetrics(t *testing.T) {
	p := ContactsPage(fixtureDatasets(t), ContactsFilter{}, DefaultThresholds())
	m := metricValues(p)
	assert.Equal(t, m["CLIENTI"], "5")
	assert.Equal(t, m["VALORE ECONOMICO STIMATO (€)"], "210 €")
	assert.Equal(t, m["CLIENTI A RISCHIO CHURN"], "60%")
	assert.Equal(t, m["VALORE MEDIO CLIENTE (€)"], "7,400 €")
	assert.Assert(t, p.Client == nil)
	assert.Equal(t, len(p.Notes), 1)
}

func TestContactsActionDistributionIgnoresFilter(t *testing.T) {
	p := ContactsPage(fixtureDatasets(t), ContactsFilter{Action: "Retention call"}, DefaultThresholds())
	assert.Equal(t, metricValues(p)["CLIENTI"], "2")

	dist := p.Tables[0]
	assert.Equal(t, len(dist.Rows), 3)
	assert.DeepEqual(t, dist.Rows[0], []string{"Cross-sell Casa", "2", "€ 400"})
	assert.DeepEqual(t, dist.Rows[1], []string{"Retention call", "2", "€ 100"})
	// no identified clients behind this action
	assert.DeepEqual(t, dist.Rows[2], []string{"Upsell Vita", "0", engine.Missing})
}

func TestContactsTopTableSortedByExpectedValue(t *testing.T) {
	p := ContactsPage(fixtureDatasets(t), ContactsFilter{}, DefaultThresholds())
	top := p.Tables[1]
	assert.Equal(t, len(top.Rows), 5)
	assert.Equal(t, top.Rows[0][0], "Mario Rossi — ID 1")
	assert.Equal(t, top.Rows[1][0], "Luca De Luca — ID 3")
	assert.Equal(t, top.Rows[4][0], "  — ID <NA>")
}

func TestContactsSelectedClientBuildsProfile(t *testing.T) {
	p := ContactsPage(fixtureDatasets(t), ContactsFilter{ClientID: ptr(3)}, DefaultThresholds())
	assert.Assert(t, p.Client != nil)
	assert.Equal(t, p.Client.Label, "Luca De Luca — ID 3")
	assert.Equal(t, p.Client.Action, "Cross-sell Casa")
	assert.Equal(t, p.Client.ExpectedValue, 300.0)
	assert.Equal(t, p.Client.Churn, 0.7)
	assert.Equal(t, len(p.Notes), 0)

	_, ok := SelectedClient(fixtureDatasets(t), 99)
	assert.Assert(t, !ok)
}

// ── Pricing ───────────────────────────────────────────────────────────────────

func TestPricingMetrics(t *testing.T) {
	p := PricingPage(fixtureDatasets(t), PricingFilter{})
	m := metricValues(p)
	assert.Equal(t, m["CLIENTI MIGLIORATIVI"], "50%")
	assert.Equal(t, m["IMPATTO MEDIO"], "-0.75")
	assert.Equal(t, m["CLIENTI PEGGIORATIVI"], "25%")
}

func TestPricingTableSortedByDelta(t *testing.T) {
	p := PricingPage(fixtureDatasets(t), PricingFilter{Product: "Casa"})
	tbl := p.Tables[0]
	assert.Equal(t, len(tbl.Rows), 3)
	assert.Equal(t, tbl.Rows[0][0], "sara") // delta −3
	assert.Equal(t, tbl.Rows[0][7], "-3.00")
	assert.Equal(t, tbl.Rows[2][7], "+0.00")
}

func TestPricingHistograms(t *testing.T) {
	p := PricingPage(fixtureDatasets(t), PricingFilter{})
	assert.Equal(t, len(p.Charts), 2)

	// loss ratios above 10 are left out of the before/after comparison
	var before int
	for _, pt := range p.Charts[0].Series[0].Data {
		before += int(pt.Value)
	}
	assert.Equal(t, before, 3)

	var improved, rest int
	for _, pt := range p.Charts[1].Series[0].Data {
		improved += int(pt.Value)
	}
	for _, pt := range p.Charts[1].Series[1].Data {
		rest += int(pt.Value)
	}
	assert.Equal(t, improved, 2)
	assert.Equal(t, rest, 2)
}

func TestPricingEmptySelection(t *testing.T) {
	p := PricingPage(fixtureDatasets(t), PricingFilter{Action: "nessuna"})
	assert.Equal(t, metricValues(p)["CLIENTI MIGLIORATIVI"], engine.Missing)
	assert.Equal(t, len(p.Charts), 0)
}

// ── Territory ─────────────────────────────────────────────────────────────────

func TestTerritoryMetrics(t *testing.T) {
	p := TerritoryPage(fixtureDatasets(t), TerritoryFilter{})
	m := metricValues(p)
	assert.Equal(t, m["COMUNI"], "3")
	assert.Equal(t, m["CLIENTI"], "250")
	assert.Equal(t, m["POTENZIALE CASA MEDIO"], "0.57")
	assert.Equal(t, m["VALORE IMMOBILIARE MEDIO (€)"], "283,333 €")

	p = TerritoryPage(fixtureDatasets(t), TerritoryFilter{Line: LineSalute})
	assert.Equal(t, metricValues(p)["POTENZIALE SALUTE MEDIO"], "0.41")
}

func TestTerritoryCharts(t *testing.T) {
	p := TerritoryPage(fixtureDatasets(t), TerritoryFilter{Line: LineSalute})
	assert.Equal(t, len(p.Charts), 3)

	top := p.Charts[0]
	assert.Equal(t, top.Series[0].Data[0].Label, "Roma")
	assert.Equal(t, top.Series[0].Data[0].Weight, 0.0)

	stacked := p.Charts[1]
	assert.Equal(t, stacked.ChartType, "stacked_bar")
	assert.Equal(t, len(stacked.Series), 2)
	assert.Equal(t, stacked.Series[0].Data[2].Label, "Napoli")

	// Napoli's Salute score is below the scatter noise floor
	scatter := p.Charts[2]
	assert.Equal(t, len(scatter.Series[0].Data), 2)
	assert.Equal(t, len(scatter.Guides), 2)
	assert.Equal(t, len(scatter.Annotations), 4)
}

func TestTerritoryMunicipalityFilter(t *testing.T) {
	p := TerritoryPage(fixtureDatasets(t), TerritoryFilter{Municipality: "Roma"})
	assert.Equal(t, metricValues(p)["COMUNI"], "1")
	tbl := p.Tables[0]
	assert.Equal(t, len(tbl.Rows), 1)
	assert.DeepEqual(t, tbl.Rows[0][:4], []string{"Roma", "80", "No", "Sì"})
}

// ── Routing ───────────────────────────────────────────────────────────────────

func TestRenderEveryRoute(t *testing.T) {
	ds := fixtureDatasets(t)
	for _, r := range Routes {
		p, err := Render(r.Slug, ds, url.Values{}, DefaultThresholds())
		assert.NilError(t, err, r.Slug)
		assert.Equal(t, p.Slug, r.Slug)
	}

	_, err := Render("sconosciuta", ds, nil, DefaultThresholds())
	var unknown *UnknownPageError
	assert.Assert(t, errors.As(err, &unknown))
	assert.Equal(t, unknown.Slug, "sconosciuta")
}

func TestRenderFiltersIgnoreCase(t *testing.T) {
	ds := fixtureDatasets(t)
	th := DefaultThresholds()

	p, err := Render(SlugContacts, ds, url.Values{ParamAction: {"cross-sell casa"}}, th)
	assert.NilError(t, err)
	assert.Equal(t, metricValues(p)["CLIENTI"], "2")

	p, err = Render(SlugProfiles, ds, url.Values{ParamZone: {"sud"}}, th)
	assert.NilError(t, err)
	assert.Equal(t, metricValues(p)["CLIENTI"], "2")
	assert.Assert(t, p.Controls[2].IsSelected("Sud"))

	p, err = Render(SlugProfiles, ds, url.Values{ParamPersona: {"famiglia", "SENIOR"}}, th)
	assert.NilError(t, err)
	assert.Equal(t, metricValues(p)["CLIENTI"], "3")

	p, err = Render(SlugTerritory, ds, url.Values{ParamMunicipality: {"ROMA"}}, th)
	assert.NilError(t, err)
	assert.Equal(t, metricValues(p)["COMUNI"], "1")

	assert.Equal(t, FilterPricing(ds, PricingFilter{Product: "casa", Action: "INCREASE"}).Len(), 2)
}

func TestParseFilters(t *testing.T) {
	params := url.Values{
		ParamClient:   {"Mario Rossi — ID 1"},
		ParamZone:     {"Tutte"},
		ParamResponse: {"Alta"},
		ParamPersona:  {"Famiglia", "Senior", "tutti"},
	}
	f := ParseProfilesFilter(params)
	assert.Assert(t, f.ClientID != nil)
	assert.Equal(t, *f.ClientID, int64(1))
	assert.Equal(t, f.Zone, "")
	assert.Equal(t, f.Response, "Alta")
	assert.DeepEqual(t, f.Personas, []string{"Famiglia", "Senior"})

	c := ParseContactsFilter(url.Values{ParamClient: {"nessuno"}})
	assert.Assert(t, c.ClientID == nil)
}
