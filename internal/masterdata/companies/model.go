package companies

// Company is the slice of a company record the forms need.
type Company struct {
	Name            string `json:"name"`
	Abbr            string `json:"abbr"`
	DefaultCurrency string `json:"default_currency"`
}
