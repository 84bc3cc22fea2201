package tui

import (
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/spektr-org/vitasicura/dashboard"
	"github.com/spektr-org/vitasicura/dataset"
	"github.com/spektr-org/vitasicura/schema"
)

func fixtureDatasets(t *testing.T) dashboard.Datasets {
	t.Helper()
	raw := map[string]string{
		schema.Clients: "codice_cliente,nome,cognome,persona_label,cluster_risposta,zona_di_residenza,clv_stimato,potenziale_crescita,engagement_score,satisfaction_score,reclami_totali,num_polizze_totali\n" +
			"1,mario,rossi,Famiglia,high_responder,Nord,12000,3.5,70,8,0,3\n",
		schema.NBA: "codice_cliente,next_best_action,priority_score,churn_score_model,clv_stimato,valore_atteso_euro,engagement_score,mesi_da_ultima_visita\n" +
			"1,Cross-sell Casa,0.9,0.8,12000,500,70,3\n",
		schema.Pricing: "codice_cliente,prodotto,premio_totale_annuo,pricing_action,loss_ratio_pred,loss_ratio_post\n" +
			"1,Casa,900,increase,0.8,0.6\n",
		schema.Territory: "luogo_di_residenza,n_clienti,penetrazione_casa,penetrazione_salute,protection_gap_casa,protection_gap_salute,valore_immobiliare_medio,potential_score_casa,potential_score_salute\n" +
			"Milano,120,1,0,0,1,450000,0.8,0.5\n",
	}
	tables := map[string]*dataset.Table{}
	for name, body := range raw {
		tbl, err := dataset.Parse(name, []byte(body))
		assert.NilError(t, err)
		tables[name] = tbl
	}
	return dashboard.FromTables(tables)
}

func TestHomeShownOnStart(t *testing.T) {
	d := New(fixtureDatasets(t), dashboard.DefaultThresholds())
	text := d.metrics.GetText(true)
	assert.Assert(t, is.Contains(text, "Valore economico a rischio"))
	assert.Assert(t, is.Contains(text, "€ 12,000"))
	assert.Equal(t, d.table.GetRowCount(), 0)
}

func TestShowPageFillsTable(t *testing.T) {
	d := New(fixtureDatasets(t), dashboard.DefaultThresholds())
	assert.NilError(t, d.Show(dashboard.SlugPricing))

	assert.Equal(t, d.table.GetCell(0, 0).Text, "Nome")
	assert.Equal(t, d.table.GetCell(1, 0).Text, "mario")
	assert.Equal(t, d.table.GetRowCount(), 2)
}

func TestCycleTables(t *testing.T) {
	d := New(fixtureDatasets(t), dashboard.DefaultThresholds())
	assert.NilError(t, d.Show(dashboard.SlugContacts))
	first := d.table.GetCell(0, 0).Text

	d.cycleTable(1)
	assert.Equal(t, d.tableIndex, 1)
	assert.Assert(t, d.table.GetCell(0, 0).Text != first)

	d.cycleTable(1)
	assert.Equal(t, d.tableIndex, 0)
	d.cycleTable(-1)
	assert.Equal(t, d.tableIndex, 1)
}

func TestShowUnknownPage(t *testing.T) {
	d := New(fixtureDatasets(t), dashboard.DefaultThresholds())
	assert.ErrorContains(t, d.Show("altrove"), "unknown page")
}
