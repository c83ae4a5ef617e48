package blanketorder

import (
	"context"

	"github.com/odyssey-erp/blanketorder/internal/form"
)

// Button labels. They double as button keys.
const (
	LabelViewOrders          = "View Orders"
	LabelCreateSalesOrder    = "Create Sales Order"
	LabelCreatePurchaseOrder = "Create Purchase Order"
)

func (c *Controller) refresh(ctx context.Context, f *form.Form) {
	f.Trigger("set_dynamic_labels")
	c.hideCompany(f)
	c.orderActions(f, "customer", SalesOrder, LabelCreateSalesOrder, MakeSalesOrder)
	c.orderActions(f, "supplier", PurchaseOrder, LabelCreatePurchaseOrder, MakePurchaseOrder)
}

// refreshLegacy has no purchase order actions and leaves the currency labels
// alone until the currency changes.
func (c *Controller) refreshLegacy(ctx context.Context, f *form.Form) {
	c.hideCompany(f)
	c.orderActions(f, "customer", SalesOrder, LabelCreateSalesOrder, MakeSalesOrder)
}

// hideCompany hides the company field when only one company exists and
// defaults the document to it.
func (c *Controller) hideCompany(f *form.Form) {
	company, only := c.svc.Companies.Only()
	if !only {
		return
	}
	if f.String("company") == "" {
		f.SetValue("company", company)
	}
	f.SetHidden("company", true)
}

// orderActions adds the list and create buttons of one side of the trade to a
// submitted document that names a party on that side.
func (c *Controller) orderActions(f *form.Form, partyField, target, createLabel, method string) {
	if f.String(partyField) == "" || f.DocStatus() != form.DocStatusSubmitted {
		return
	}
	f.AddCustomButton(LabelViewOrders, func() {
		f.SetRoute(form.Route{
			View:    "List",
			Doctype: target,
			Filters: map[string]any{"blanket_order": f.Name()},
		})
	}, "")
	f.AddCustomButton(createLabel, func() {
		f.OpenMappedDoc(method)
	}, "").SetPrimary()
}
