package dashboard

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/spektr-org/vitasicura/engine"
	"github.com/spektr-org/vitasicura/schema"
)

// ── Client labels ─────────────────────────────────────────────────────────────

// LabelColumn is the derived "Nome Cognome — ID n" dimension.
const LabelColumn = "cliente_label"

// labelSep separates the display name from the id in a client label.
const labelSep = " — ID "

// ClientLabel renders "Nome Cognome — ID n" with title-cased names.
// A missing id renders as <NA>.
func ClientLabel(nome, cognome, id string) string {
	if id == "" {
		id = "<NA>"
	}
	return titleCase(nome) + " " + titleCase(cognome) + labelSep + id
}

// ParseClientSelection extracts the id from a client label ("… — ID 17")
// or a bare id ("17").
func ParseClientSelection(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "ID "); i >= 0 {
		s = s[i+len("ID "):]
	}
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// titleCase upper-cases the first letter of every word and lower-cases the
// rest, where a word starts after any non-letter.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

// labelled adds the client label dimension to any view carrying nome,
// cognome and codice_cliente.
var labelled = engine.NewDerivation().
	Dimension(LabelColumn, func(v engine.RecordView, i int) string {
		return ClientLabel(v.Dimension(i, "nome"), v.Dimension(i, "cognome"), v.Dimension(i, schema.ClientIDColumn))
	})

// withNames left-joins client names onto a client-level dataset and labels it.
func withNames(base, clients engine.RecordView) engine.RecordView {
	return labelled.Bind(engine.NewJoinView(base, clients, schema.ClientIDColumn, "nome", "cognome"))
}

// whereClient keeps rows for one client id.
func whereClient(view engine.RecordView, id int64) engine.RecordView {
	want := strconv.FormatInt(id, 10)
	return engine.Where(view, func(v engine.RecordView, i int) bool {
		return v.Dimension(i, schema.ClientIDColumn) == want
	})
}

// only wraps a single-choice selection for engine.Filters.With; "" selects nothing.
func only(value string) []string {
	if value == "" {
		return nil
	}
	return []string{value}
}

// ── Client search ─────────────────────────────────────────────────────────────

// ClientOptions returns the sorted distinct client labels of the clients dataset.
func ClientOptions(ds Datasets) []string {
	return engine.UniqueValues(labelled.Bind(ds.Clients), LabelColumn)
}

// SearchClients ranks labels against a free-text query. Substring matches
// come first; otherwise a label matches when one of its words is within a
// small edit distance of the query. At most limit labels are returned.
func SearchClients(labels []string, query string, limit int) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		if limit > 0 && len(labels) > limit {
			return labels[:limit]
		}
		return labels
	}

	maxDist := len([]rune(q)) / 3
	if maxDist < 1 {
		maxDist = 1
	}

	type hit struct {
		label string
		score int
	}
	var hits []hit
	for _, label := range labels {
		lower := strings.ToLower(label)
		if strings.Contains(lower, q) {
			hits = append(hits, hit{label, 0})
			continue
		}
		best := -1
		for _, word := range strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }) {
			d := levenshtein.ComputeDistance(q, word)
			if best < 0 || d < best {
				best = d
			}
		}
		if best >= 0 && best <= maxDist {
			hits = append(hits, hit{label, best})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score < hits[j].score
		}
		return hits[i].label < hits[j].label
	})

	out := make([]string, 0, len(hits))
	for _, h := range hits {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, h.label)
	}
	return out
}
