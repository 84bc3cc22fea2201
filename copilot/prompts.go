package copilot

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// ============================================================================
// PROMPTS — Fixed-structure prompts built from pre-computed figures
// ============================================================================
// Context blocks are plain interpolation of scalars already shown on screen.
// Instruction blocks list the required sections and the length constraint.
// Nothing here computes a metric.
// ============================================================================

// Briefing carries the home-page KPIs the executive briefing is built from.
type Briefing struct {
	PriorityClients         int
	ValueAtRisk             float64 // euro
	PricingImprovementShare float64 // 0..100
	HighPotentialTowns      int
}

// BriefingPrompt builds the executive briefing prompt: four required
// sections and an 8–10 line limit.
func BriefingPrompt(b Briefing) string {
	var sb strings.Builder
	sb.WriteString("Sei un AI senior advisor per una compagnia assicurativa.\n\n")
	sb.WriteString("Usa SOLO il contesto seguente:\n\n")
	sb.WriteString("DATI RIASSUNTIVI:\n\n")
	fmt.Fprintf(&sb, "- Clienti prioritari: %d\n", b.PriorityClients)
	fmt.Fprintf(&sb, "- Valore economico a rischio: € %s\n", euros(b.ValueAtRisk))
	fmt.Fprintf(&sb, "- Pricing migliorativo: %.0f%%\n", b.PricingImprovementShare)
	fmt.Fprintf(&sb, "- Comuni ad alto potenziale: %d\n\n", b.HighPotentialTowns)
	sb.WriteString("OBIETTIVO:\n")
	sb.WriteString("Supportare un consulente assicurativo nelle decisioni operative quotidiane.\n\n")
	sb.WriteString("Scrivi un briefing operativo che includa:\n")
	sb.WriteString("1. Priorità principale\n")
	sb.WriteString("2. Rischio chiave\n")
	sb.WriteString("3. Opportunità economica\n")
	sb.WriteString("4. Azione immediata consigliata\n\n")
	sb.WriteString("Stile:\n")
	sb.WriteString("- chiaro\n")
	sb.WriteString("- professionale\n")
	sb.WriteString("- orientato all’azione\n")
	sb.WriteString("- max 8–10 righe\n")
	return sb.String()
}

// ClientProfile is the decision basis shown for the selected NBA client.
type ClientProfile struct {
	ClientID         int64   `json:"clientId"`
	Label            string  `json:"label"`
	Action           string  `json:"action"`
	ExpectedValue    float64 `json:"expectedValue"`
	Churn            float64 `json:"churn"` // 0..1
	CLV              float64 `json:"clv"`
	Engagement       float64 `json:"engagement"`
	MonthsSinceVisit float64 `json:"monthsSinceVisit"`
}

// Summary renders the client recap block shown above the chat.
func (p ClientProfile) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Cliente: %s\n", p.Label)
	fmt.Fprintf(&sb, "Azione consigliata: %s\n", p.Action)
	fmt.Fprintf(&sb, "Valore economico stimato: %s €\n", euros(p.ExpectedValue))
	fmt.Fprintf(&sb, "Rischio di abbandono stimato: %.0f%%\n", p.Churn*100)
	fmt.Fprintf(&sb, "Valore cliente (CLV): %s €\n", euros(p.CLV))
	fmt.Fprintf(&sb, "Livello di engagement: %.1f/100\n", p.Engagement)
	fmt.Fprintf(&sb, "Ultimo contatto: %.0f mesi fa", p.MonthsSinceVisit)
	return sb.String()
}

// CallPrepPrompt builds the call-preparation prompt for one client and one
// consultant question.
func CallPrepPrompt(p ClientProfile, question string) string {
	var sb strings.Builder
	sb.WriteString("Agisci come un consulente senior di una compagnia assicurativa.\n\n")
	sb.WriteString("Il tuo obiettivo è supportare un collega nella preparazione di una chiamata con un cliente,\n")
	sb.WriteString("utilizzando esclusivamente le informazioni fornite di seguito.\n\n")
	sb.WriteString("PROFILO CLIENTE:\n")
	fmt.Fprintf(&sb, "- Azione consigliata: %s\n", p.Action)
	fmt.Fprintf(&sb, "- Valore economico stimato: %s €\n", euros(p.ExpectedValue))
	fmt.Fprintf(&sb, "- Rischio di abbandono stimato: %.0f%%\n", p.Churn*100)
	fmt.Fprintf(&sb, "- Valore cliente (CLV): %s €\n", euros(p.CLV))
	fmt.Fprintf(&sb, "- Livello di engagement: %.1f/100\n", p.Engagement)
	fmt.Fprintf(&sb, "- Ultimo contatto: %.0f mesi fa\n\n", p.MonthsSinceVisit)
	sb.WriteString("LINEE GUIDA:\n")
	sb.WriteString("- Non ricalcolare né stimare nuovi dati\n")
	sb.WriteString("- Spiegare in modo chiaro il perché dell’azione suggerita\n")
	sb.WriteString("- Fornire indicazioni pratiche e concrete per una chiamata reale\n")
	sb.WriteString("- Linguaggio professionale, semplice, orientato all’azione\n")
	sb.WriteString("- Lunghezza massima: 8–10 righe\n\n")
	sb.WriteString("DOMANDA:\n")
	sb.WriteString(question)
	sb.WriteString("\n")
	return sb.String()
}

// QuickAction is a canned consultant question.
type QuickAction struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Prompt string `json:"prompt"`
}

// QuickActions are offered next to the free-text input.
var QuickActions = []QuickAction{
	{
		ID:     "call",
		Label:  "📞 Prepara la chiamata",
		Prompt: "Preparami una sintesi operativa per la chiamata con questo cliente: obiettivo, messaggio chiave e proposta da fare.",
	},
	{
		ID:     "risk",
		Label:  "⚠️ Gestire il rischio",
		Prompt: "Quali sono i principali rischi o criticità da considerare durante la conversazione con questo cliente?",
	},
}

// QuickActionPrompt returns the canned question for id.
func QuickActionPrompt(id string) (string, bool) {
	for _, qa := range QuickActions {
		if qa.ID == id {
			return qa.Prompt, true
		}
	}
	return "", false
}

func euros(v float64) string {
	if math.IsNaN(v) {
		return "n/d"
	}
	return humanize.Comma(int64(math.Round(v)))
}
