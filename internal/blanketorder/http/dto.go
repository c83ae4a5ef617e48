package blanketorderhttp

import (
	"github.com/odyssey-erp/blanketorder/internal/blanketorder"
	"github.com/odyssey-erp/blanketorder/internal/form"
)

type openRequest struct {
	Document blanketorder.Document `json:"document"`
}

type setValueRequest struct {
	Value any `json:"value"`
}

type addRowRequest struct {
	Values map[string]any `json:"values" validate:"required"`
}

type stateResponse struct {
	ID       string                `json:"id"`
	Row      string                `json:"row,omitempty"`
	State    form.State            `json:"state"`
	Document blanketorder.Document `json:"document"`
}

type queryResponse struct {
	Field   string     `json:"field"`
	Query   form.Query `json:"query"`
	Options []string   `json:"options,omitempty"`
}
