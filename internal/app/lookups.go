package app

import (
	"fmt"

	"github.com/odyssey-erp/blanketorder/internal/blanketorder"
	"github.com/odyssey-erp/blanketorder/internal/form"
	"github.com/odyssey-erp/blanketorder/internal/frappe"
)

// Lookups are the collaborators whose source depends on LOOKUP_BACKEND.
type Lookups struct {
	Rates   blanketorder.ExchangeRates
	Terms   blanketorder.TermsRenderer
	Fetcher form.Fetcher
	Mapper  form.Mapper
}

// SelectLookups returns local for the local backend and routes everything
// through remote for the frappe backend. Mapped documents always need a
// remote site; without one Mapper stays nil and the form reports it.
func SelectLookups(cfg *Config, local Lookups, remote *frappe.Client) (Lookups, error) {
	out := local
	if remote != nil {
		out.Mapper = remote
	}
	switch cfg.LookupBackend {
	case BackendLocal, "":
		return out, nil
	case BackendFrappe:
		if remote == nil {
			return Lookups{}, fmt.Errorf("app: %s backend without a frappe client", BackendFrappe)
		}
		out.Rates = remote
		out.Terms = remote
		out.Fetcher = remote
		return out, nil
	}
	return Lookups{}, fmt.Errorf("app: unknown lookup backend %q", cfg.LookupBackend)
}
