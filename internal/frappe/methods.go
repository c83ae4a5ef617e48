package frappe

import (
	"context"

	"github.com/odyssey-erp/blanketorder/internal/form"
)

const (
	methodMakeMappedDoc = "frappe.model.mapper.make_mapped_doc"
	methodExchangeRate  = "erpnext.setup.utils.get_exchange_rate"
	methodTerms         = "erpnext.setup.doctype.terms_and_conditions.terms_and_conditions.get_terms_and_conditions"
	methodGetValue      = "frappe.client.get_value"
)

// MakeMappedDoc runs a mapping method for source and saves the draft it
// returns, yielding the new document's identity.
func (c *Client) MakeMappedDoc(ctx context.Context, method, source string) (form.MappedDoc, error) {
	var draft map[string]any
	if err := c.Call(ctx, methodMakeMappedDoc, map[string]any{"method": method, "source_name": source}, &draft); err != nil {
		return form.MappedDoc{}, err
	}
	var saved struct {
		Doctype string `json:"doctype"`
		Name    string `json:"name"`
	}
	if err := c.Call(ctx, "frappe.client.insert", map[string]any{"doc": draft}, &saved); err != nil {
		return form.MappedDoc{}, err
	}
	return form.MappedDoc{Doctype: saved.Doctype, Name: saved.Name}, nil
}

// ExchangeRate asks the site for the rate converting from into to.
func (c *Client) ExchangeRate(ctx context.Context, transactionDate, from, to, args string) (float64, error) {
	var rate any
	err := c.Call(ctx, methodExchangeRate, map[string]any{
		"transaction_date": transactionDate,
		"from_currency":    from,
		"to_currency":      to,
		"args":             args,
	}, &rate)
	if err != nil {
		return 0, err
	}
	return form.Flt(rate), nil
}

// Terms renders a terms template on the site.
func (c *Client) Terms(ctx context.Context, template string, doc map[string]any) (string, error) {
	var terms string
	err := c.Call(ctx, methodTerms, map[string]any{"template_name": template, "doc": doc}, &terms)
	return terms, err
}

// FetchValue reads one field of a record on the site.
func (c *Client) FetchValue(ctx context.Context, doctype, name, field string) (any, error) {
	var values map[string]any
	err := c.Call(ctx, methodGetValue, map[string]any{
		"doctype":   doctype,
		"filters":   name,
		"fieldname": field,
	}, &values)
	if err != nil {
		return nil, err
	}
	return values[field], nil
}
