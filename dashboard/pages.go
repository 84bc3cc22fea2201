package dashboard

import (
	"fmt"
	"net/url"
	"strings"
)

// Page slugs. The home page has the empty slug.
const (
	SlugHome      = ""
	SlugProfiles  = "profili"
	SlugTerritory = "territorio"
	SlugContacts  = "contatti"
	SlugPricing   = "premio"
)

// Query parameter names shared by every surface.
const (
	ParamClient       = "cliente"
	ParamResponse     = "risposta"
	ParamZone         = "zona"
	ParamPersona      = "persona"
	ParamAction       = "azione"
	ParamProduct      = "prodotto"
	ParamLine         = "area"
	ParamMunicipality = "comune"
)

// Route names a page for navigation.
type Route struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Icon  string `json:"icon"`
}

// Path is the URL path of the page.
func (r Route) Path() string { return "/" + r.Slug }

// Routes lists every page in navigation order.
var Routes = []Route{
	{Slug: SlugHome, Title: "Home", Icon: "🎛️"},
	{Slug: SlugProfiles, Title: "Profili cliente", Icon: "👥"},
	{Slug: SlugTerritory, Title: "Territorio", Icon: "🗺️"},
	{Slug: SlugContacts, Title: "Chi contattare adesso", Icon: "🎯"},
	{Slug: SlugPricing, Title: "Ottimizzazione del premio", Icon: "💰"},
}

// UnknownPageError is returned for a slug outside Routes.
type UnknownPageError struct {
	Slug string
}

func (e *UnknownPageError) Error() string {
	return fmt.Sprintf("unknown page %q", e.Slug)
}

// Render builds the page named by slug from URL-style parameters.
// Unset or "all" parameters mean no restriction.
func Render(slug string, ds Datasets, params url.Values, th Thresholds) (*Page, error) {
	switch slug {
	case SlugHome:
		return HomePage(ds, th), nil
	case SlugProfiles:
		return ProfilesPage(ds, ParseProfilesFilter(params)), nil
	case SlugTerritory:
		return TerritoryPage(ds, ParseTerritoryFilter(params)), nil
	case SlugContacts:
		return ContactsPage(ds, ParseContactsFilter(params), th), nil
	case SlugPricing:
		return PricingPage(ds, ParsePricingFilter(params)), nil
	}
	return nil, &UnknownPageError{Slug: slug}
}

// ── Parameter parsing ─────────────────────────────────────────────────────────

// allValues are selections meaning "no restriction".
var allValues = map[string]bool{"": true, "tutti": true, "tutte": true, "all": true}

func single(params url.Values, name string) string {
	v := strings.TrimSpace(params.Get(name))
	if allValues[strings.ToLower(v)] {
		return ""
	}
	return v
}

func clientParam(params url.Values) *int64 {
	v := single(params, ParamClient)
	if v == "" {
		return nil
	}
	id, ok := ParseClientSelection(v)
	if !ok {
		return nil
	}
	return &id
}

// ParseProfilesFilter reads the profiles view-state.
func ParseProfilesFilter(params url.Values) ProfilesFilter {
	f := ProfilesFilter{
		ClientID: clientParam(params),
		Response: single(params, ParamResponse),
		Zone:     single(params, ParamZone),
	}
	for _, p := range params[ParamPersona] {
		if p = strings.TrimSpace(p); !allValues[strings.ToLower(p)] {
			f.Personas = append(f.Personas, p)
		}
	}
	return f
}

// ParseTerritoryFilter reads the territory view-state.
func ParseTerritoryFilter(params url.Values) TerritoryFilter {
	return TerritoryFilter{
		Line:         single(params, ParamLine),
		Municipality: single(params, ParamMunicipality),
	}
}

// ParseContactsFilter reads the contacts view-state.
func ParseContactsFilter(params url.Values) ContactsFilter {
	return ContactsFilter{
		Action:   single(params, ParamAction),
		ClientID: clientParam(params),
	}
}

// ParsePricingFilter reads the pricing view-state.
func ParsePricingFilter(params url.Values) PricingFilter {
	return PricingFilter{
		ClientID: clientParam(params),
		Product:  single(params, ParamProduct),
		Action:   single(params, ParamAction),
	}
}
