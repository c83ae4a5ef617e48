// Package blanketorder binds the Blanket Order form: party and address
// lookups, currency conversion, terms templates, order-type filters and the
// actions that turn a submitted blanket order into sales or purchase orders.
package blanketorder

import (
	_ "embed"
	"sync"

	"github.com/odyssey-erp/blanketorder/internal/form"
)

// Doctype names used by the controller.
const (
	Doctype       = "Blanket Order"
	ItemDoctype   = "Blanket Order Item"
	SalesOrder    = "Sales Order"
	PurchaseOrder = "Purchase Order"
	ItemsTable    = "items"
)

// Mapping methods run by the create-order buttons.
const (
	MakeSalesOrder    = "erpnext.manufacturing.doctype.blanket_order.blanket_order.make_sales_order"
	MakePurchaseOrder = "erpnext.manufacturing.doctype.blanket_order.blanket_order.make_purchase_order"
)

// OrderType decides which side of the trade the blanket order covers.
type OrderType string

const (
	OrderTypeSelling    OrderType = "Selling"
	OrderTypePurchasing OrderType = "Purchasing"
)

// PartyType names the doctype of a counterparty.
type PartyType string

const (
	PartyCustomer PartyType = "Customer"
	PartySupplier PartyType = "Supplier"
)

// RateArgs tells the exchange-rate lookup which price list side applies.
type RateArgs string

const (
	RateForSelling RateArgs = "for_selling"
	RateForBuying  RateArgs = "for_buying"
)

// RateArgsFor maps an order type to the exchange-rate side. Anything other
// than Selling, including an unset type, buys.
func RateArgsFor(t OrderType) RateArgs {
	if t == OrderTypeSelling {
		return RateForSelling
	}
	return RateForBuying
}

//go:embed meta.yaml
var metaYAML []byte

var (
	metaOnce sync.Once
	meta     *form.Meta
	metaErr  error
)

// Meta returns the Blanket Order doctype metadata.
func Meta() (*form.Meta, error) {
	metaOnce.Do(func() {
		meta, metaErr = form.ParseMeta(metaYAML)
	})
	return meta, metaErr
}

// Document is the transport representation of a Blanket Order.
type Document struct {
	Name             string    `json:"name" validate:"required,max=140"`
	DocStatus        int       `json:"docstatus" validate:"gte=0,lte=2"`
	BlanketOrderType OrderType `json:"blanket_order_type" validate:"omitempty,oneof=Selling Purchasing"`
	Customer         string    `json:"customer,omitempty"`
	CustomerName     string    `json:"customer_name,omitempty"`
	Supplier         string    `json:"supplier,omitempty"`
	SupplierName     string    `json:"supplier_name,omitempty"`
	OrderNo          string    `json:"order_no,omitempty"`
	OrderDate        string    `json:"order_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	FromDate         string    `json:"from_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ToDate           string    `json:"to_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Company          string    `json:"company" validate:"required"`
	PostingDate      string    `json:"posting_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CustomerAddress  string    `json:"customer_address,omitempty"`
	SupplierAddress  string    `json:"supplier_address,omitempty"`
	AddressDisplay   string    `json:"address_display,omitempty"`
	ContactPerson    string    `json:"contact_person,omitempty"`
	ContactDisplay   string    `json:"contact_display,omitempty"`
	ContactEmail     string    `json:"contact_email,omitempty"`
	ContactMobile    string    `json:"contact_mobile,omitempty"`
	ContactPhone     string    `json:"contact_phone,omitempty"`
	Currency         string    `json:"currency,omitempty" validate:"omitempty,iso4217"`
	ConversionRate   float64   `json:"conversion_rate" validate:"gte=0"`
	TCName           string    `json:"tc_name,omitempty"`
	Terms            string    `json:"terms,omitempty"`
	Items            []Item    `json:"items" validate:"dive"`
}

// Item is one row of the items table.
type Item struct {
	Name       string  `json:"name,omitempty"`
	ItemCode   string  `json:"item_code" validate:"required"`
	ItemName   string  `json:"item_name,omitempty"`
	Qty        float64 `json:"qty" validate:"gte=0"`
	Rate       float64 `json:"rate" validate:"gte=0"`
	BaseRate   float64 `json:"base_rate"`
	OrderedQty float64 `json:"ordered_qty"`
	Terms      string  `json:"terms,omitempty"`
}

// FormOptions converts the document into the values a form is opened with.
func (d Document) FormOptions() form.Options {
	values := map[string]any{
		"blanket_order_type": string(d.BlanketOrderType),
		"customer":           d.Customer,
		"customer_name":      d.CustomerName,
		"supplier":           d.Supplier,
		"supplier_name":      d.SupplierName,
		"order_no":           d.OrderNo,
		"order_date":         d.OrderDate,
		"from_date":          d.FromDate,
		"to_date":            d.ToDate,
		"company":            d.Company,
		"posting_date":       d.PostingDate,
		"customer_address":   d.CustomerAddress,
		"supplier_address":   d.SupplierAddress,
		"address_display":    d.AddressDisplay,
		"contact_person":     d.ContactPerson,
		"contact_display":    d.ContactDisplay,
		"contact_email":      d.ContactEmail,
		"contact_mobile":     d.ContactMobile,
		"contact_phone":      d.ContactPhone,
		"currency":           d.Currency,
		"conversion_rate":    d.ConversionRate,
		"tc_name":            d.TCName,
		"terms":              d.Terms,
	}
	rows := make([]map[string]any, 0, len(d.Items))
	for _, it := range d.Items {
		rows = append(rows, map[string]any{
			"name":        it.Name,
			"item_code":   it.ItemCode,
			"item_name":   it.ItemName,
			"qty":         it.Qty,
			"rate":        it.Rate,
			"base_rate":   it.BaseRate,
			"ordered_qty": it.OrderedQty,
			"terms":       it.Terms,
		})
	}
	return form.Options{
		Name:      d.Name,
		DocStatus: form.DocStatus(d.DocStatus),
		Values:    values,
		Tables:    map[string][]map[string]any{ItemsTable: rows},
	}
}

// DocumentFromState reads a document back out of a form snapshot.
func DocumentFromState(st form.State) Document {
	s := func(k string) string { return form.Cstr(st.Values[k]) }
	d := Document{
		Name:             st.Name,
		DocStatus:        int(st.DocStatus),
		BlanketOrderType: OrderType(s("blanket_order_type")),
		Customer:         s("customer"),
		CustomerName:     s("customer_name"),
		Supplier:         s("supplier"),
		SupplierName:     s("supplier_name"),
		OrderNo:          s("order_no"),
		OrderDate:        s("order_date"),
		FromDate:         s("from_date"),
		ToDate:           s("to_date"),
		Company:          s("company"),
		PostingDate:      s("posting_date"),
		CustomerAddress:  s("customer_address"),
		SupplierAddress:  s("supplier_address"),
		AddressDisplay:   s("address_display"),
		ContactPerson:    s("contact_person"),
		ContactDisplay:   s("contact_display"),
		ContactEmail:     s("contact_email"),
		ContactMobile:    s("contact_mobile"),
		ContactPhone:     s("contact_phone"),
		Currency:         s("currency"),
		ConversionRate:   form.Flt(st.Values["conversion_rate"]),
		TCName:           s("tc_name"),
		Terms:            s("terms"),
	}
	for _, r := range st.Tables[ItemsTable] {
		d.Items = append(d.Items, Item{
			Name:       r.Name,
			ItemCode:   form.Cstr(r.Values["item_code"]),
			ItemName:   form.Cstr(r.Values["item_name"]),
			Qty:        form.Flt(r.Values["qty"]),
			Rate:       form.Flt(r.Values["rate"]),
			BaseRate:   form.Flt(r.Values["base_rate"]),
			OrderedQty: form.Flt(r.Values["ordered_qty"]),
			Terms:      form.Cstr(r.Values["terms"]),
		})
	}
	return d
}
