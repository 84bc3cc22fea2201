package schema

// registry holds the four datasets in load order.
var registry = []Config{
	{
		Name:        Clients,
		Description: "Clienti con persona, cluster di risposta e metriche di valore",
		Required: []string{
			"codice_cliente", "nome", "cognome", "persona_label", "cluster_risposta",
			"zona_di_residenza", "clv_stimato", "potenziale_crescita", "engagement_score",
			"satisfaction_score", "reclami_totali", "num_polizze_totali",
		},
		Columns: []ColumnMeta{
			{Key: "codice_cliente", Label: "ID Cliente", Format: FormatText},
			{Key: "nome", Label: "Nome"},
			{Key: "cognome", Label: "Cognome"},
			{Key: "persona_label", Label: "Profilo cliente"},
			{Key: "cluster_risposta", Label: "Probabilità di risposta"},
			{Key: "zona_di_residenza", Label: "Zona"},
			{Key: "clv_stimato", Label: "Valore cliente (€)", Format: FormatEuro},
			{Key: "potenziale_crescita", Label: "Potenziale", Format: FormatFloat1},
			{Key: "engagement_score", Label: "Engagement (0–100)", Format: FormatFloat1},
			{Key: "satisfaction_score", Label: "Soddisfazione", Format: FormatFloat1},
			{Key: "reclami_totali", Label: "Reclami", Format: FormatInt},
			{Key: "num_polizze_totali", Label: "N° polizze", Format: FormatInt},
		},
	},
	{
		Name:        NBA,
		Description: "Next best action, priorità e rischio churn per cliente",
		Required: []string{
			"codice_cliente", "next_best_action", "priority_score", "churn_score_model",
			"clv_stimato", "valore_atteso_euro", "engagement_score", "mesi_da_ultima_visita",
		},
		Columns: []ColumnMeta{
			{Key: "codice_cliente", Label: "ID Cliente", Format: FormatText},
			{Key: "cliente_label", Label: "Cliente"},
			{Key: "next_best_action", Label: "Azione consigliata"},
			{Key: "priority_score", Label: "Priorità", Format: FormatFloat2},
			{Key: "valore_atteso_euro", Label: "Valore economico stimato (€)", Format: FormatEuro},
			{Key: "churn_score_model", Label: "Rischio churn (%)", Format: FormatPercent},
			{Key: "engagement_score", Label: "Engagement (0–100)", Format: FormatFloat1},
			{Key: "mesi_da_ultima_visita", Label: "Ultimo contatto (mesi)", Format: FormatInt},
			{Key: "clv_stimato", Label: "Valore cliente (CLV €)", Format: FormatEuro},
		},
	},
	{
		Name:        Pricing,
		Description: "Azioni di pricing simulate con loss ratio prima e dopo",
		Required: []string{
			"codice_cliente", "prodotto", "premio_totale_annuo", "pricing_action",
			"loss_ratio_pred", "loss_ratio_post",
		},
		Columns: []ColumnMeta{
			{Key: "nome", Label: "Nome"},
			{Key: "cognome", Label: "Cognome"},
			{Key: "prodotto", Label: "Prodotto"},
			{Key: "premio_totale_annuo", Label: "Premio annuo (€)", Format: FormatEuro},
			{Key: "pricing_action", Label: "Azione di pricing"},
			{Key: "loss_ratio_pred", Label: "Loss Ratio prima", Format: FormatFloat2},
			{Key: "loss_ratio_post", Label: "Loss Ratio dopo", Format: FormatFloat2},
			{Key: "delta_loss_ratio", Label: "Δ Loss Ratio", Format: FormatSigned2},
		},
	},
	{
		Name:        Territory,
		Description: "Potenziale commerciale e protection gap per comune",
		Required: []string{
			"luogo_di_residenza", "n_clienti", "penetrazione_casa", "penetrazione_salute",
			"protection_gap_casa", "protection_gap_salute", "valore_immobiliare_medio",
			"potential_score_casa", "potential_score_salute",
		},
		Columns: []ColumnMeta{
			{Key: "luogo_di_residenza", Label: "Comune"},
			{Key: "n_clienti", Label: "Clienti attuali", Format: FormatInt},
			{Key: "penetrazione_casa", Label: "Penetrazione Casa", Format: FormatFlag},
			{Key: "penetrazione_salute", Label: "Penetrazione Salute", Format: FormatFlag},
			{Key: "protection_gap_casa", Label: "Bisogno Casa non coperto", Format: FormatFlag},
			{Key: "protection_gap_salute", Label: "Bisogno Salute non coperto", Format: FormatFlag},
			{Key: "valore_immobiliare_medio", Label: "Valore immobiliare medio (€)", Format: FormatEuro},
			{Key: "NDVI_mean", Label: "Indice verde (NDVI)", Format: FormatFloat2},
			{Key: "potential_score_casa", Label: "Potenziale Casa", Format: FormatFloat2},
			{Key: "potential_score_salute", Label: "Potenziale Salute", Format: FormatFloat2},
		},
	},
}

// Names returns every registered dataset name in load order.
func Names() []string {
	names := make([]string, len(registry))
	for i, c := range registry {
		names[i] = c.Name
	}
	return names
}

// Lookup returns the registry entry for name.
func Lookup(name string) (Config, bool) {
	for _, c := range registry {
		if c.Name == name {
			return c, true
		}
	}
	return Config{}, false
}

// MustLookup is Lookup for names known at compile time.
func MustLookup(name string) Config {
	c, ok := Lookup(name)
	if !ok {
		panic("schema: unknown dataset " + name)
	}
	return c
}

// Required returns the required columns for name, or nil for an unregistered dataset.
func Required(name string) []string {
	c, ok := Lookup(name)
	if !ok {
		return nil
	}
	out := make([]string, len(c.Required))
	copy(out, c.Required)
	return out
}
