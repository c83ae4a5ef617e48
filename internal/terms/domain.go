// Package terms renders terms-and-conditions templates against a document.
package terms

import "errors"

var (
	// ErrNotFound is returned for an unknown template.
	ErrNotFound = errors.New("terms: template not found")
	// ErrDisabled is returned for a template switched off for new documents.
	ErrDisabled = errors.New("terms: template disabled")
)

// Template is one terms_and_conditions row.
type Template struct {
	Name     string `json:"name"`
	Terms    string `json:"terms"`
	Disabled bool   `json:"disabled"`
	Selling  bool   `json:"selling"`
	Buying   bool   `json:"buying"`
}

// Filter narrows List to templates valid for a side of the trade.
type Filter struct {
	Selling bool
	Buying  bool
}

// FilterFromQuery reads the {selling: 1} or {buying: 1} filters a link query
// carries.
func FilterFromQuery(filters map[string]any) Filter {
	truthy := func(v any) bool {
		switch t := v.(type) {
		case bool:
			return t
		case int:
			return t != 0
		case float64:
			return t != 0
		case string:
			return t == "1" || t == "true"
		}
		return false
	}
	return Filter{Selling: truthy(filters["selling"]), Buying: truthy(filters["buying"])}
}
