package blanketorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/odyssey-erp/blanketorder/internal/form"
)

// RPC method names, used for instrumentation and error reporting.
const (
	methodPartyDetails   = "erpnext.accounts.party.get_party_details"
	methodAddressDisplay = "frappe.contacts.doctype.address.address.get_address_display"
	methodContactDetails = "erpnext.stock.doctype.delivery_note.delivery_note.get_contact_details"
	methodExchangeRate   = "erpnext.setup.utils.get_exchange_rate"
	methodTerms          = "erpnext.setup.doctype.terms_and_conditions.terms_and_conditions.get_terms_and_conditions"
)

// RefreshMode selects how the refresh event renders the form.
type RefreshMode string

const (
	// RefreshMerged runs label refresh, company hiding and both the sales and
	// the purchase order actions.
	RefreshMerged RefreshMode = "merged"
	// RefreshLegacy keeps only company hiding and the sales order actions, the
	// behaviour shipped while refresh was registered twice.
	RefreshLegacy RefreshMode = "legacy"
)

// ParseRefreshMode validates a configured refresh mode; empty means merged.
func ParseRefreshMode(s string) (RefreshMode, error) {
	switch RefreshMode(s) {
	case "", RefreshMerged:
		return RefreshMerged, nil
	case RefreshLegacy:
		return RefreshLegacy, nil
	}
	return "", fmt.Errorf("blanketorder: unknown refresh mode %q", s)
}

// ErrMissingService is returned when the controller is built without a collaborator.
var ErrMissingService = errors.New("blanketorder: missing service")

// Controller holds the Blanket Order form event handlers.
type Controller struct {
	svc  Services
	mode RefreshMode
}

// NewController validates the collaborators and builds a controller.
func NewController(svc Services, mode RefreshMode) (*Controller, error) {
	missing := []struct {
		name string
		nil_ bool
	}{
		{"parties", svc.Parties == nil},
		{"addresses", svc.Addresses == nil},
		{"contacts", svc.Contacts == nil},
		{"companies", svc.Companies == nil},
		{"rates", svc.Rates == nil},
		{"terms", svc.Terms == nil},
	}
	for _, m := range missing {
		if m.nil_ {
			return nil, fmt.Errorf("%w: %s", ErrMissingService, m.name)
		}
	}
	if mode == "" {
		mode = RefreshMerged
	}
	return &Controller{svc: svc, mode: mode}, nil
}

// Mode reports the refresh mode in effect.
func (c *Controller) Mode() RefreshMode { return c.mode }

// Bind registers the controller's handlers on f.
func (c *Controller) Bind(f *form.Form) {
	f.On("onload", func(ctx context.Context, f *form.Form) {
		f.Trigger("set_tc_name_filter")
	})
	f.On("setup", c.setup)
	f.On("customer", c.partyChanged(PartyCustomer, "customer"))
	f.On("supplier", c.partyChanged(PartySupplier, "supplier"))
	f.On("customer_address", c.addressChanged("customer_address"))
	f.On("supplier_address", c.addressChanged("supplier_address"))
	f.On("contact_person", c.contactChanged)
	f.On("company", c.companyChanged)
	if c.mode == RefreshLegacy {
		f.On("refresh", c.refreshLegacy)
	} else {
		f.On("refresh", c.refresh)
	}
	f.On("tc_name", c.termsChanged)
	f.On("set_dynamic_labels", c.setDynamicLabels)
	f.On("currency", c.currencyChanged)
	f.On("onload_post_render", func(ctx context.Context, f *form.Form) {
		f.Grid(ItemsTable).SetMultipleAdd("item_code", "qty")
	})
	f.On("set_tc_name_filter", c.setTermsFilter)
	f.On("blanket_order_type", func(ctx context.Context, f *form.Form) {
		f.Trigger("set_tc_name_filter")
	})
}

func (c *Controller) setup(ctx context.Context, f *form.Form) {
	f.AddFetch("customer", "customer_name", "customer_name")
	f.AddFetch("supplier", "supplier_name", "supplier_name")
}

func (c *Controller) partyChanged(partyType PartyType, field string) form.Handler {
	addressField := field + "_address"
	return func(ctx context.Context, f *form.Form) {
		party := f.String(field)
		if party == "" {
			return
		}
		form.Call(f, methodPartyDetails, func(ctx context.Context) (PartyDetails, error) {
			return c.svc.Parties.PartyDetails(ctx, partyType, party)
		}, func(r form.Response[PartyDetails]) {
			if r.Exc != nil {
				return
			}
			d := r.Message
			f.SetValue(addressField, d.Address)
			f.SetValue("address_display", d.AddressDisplay)
			f.SetValue("contact_person", d.ContactPerson)
			f.SetValue("contact_display", d.ContactDisplay)
			f.SetValue("contact_email", d.ContactEmail)
			f.SetValue("contact_mobile", d.ContactMobile)
			f.SetValue("contact_phone", d.ContactPhone)
		})
	}
}

func (c *Controller) addressChanged(field string) form.Handler {
	return func(ctx context.Context, f *form.Form) {
		address := f.String(field)
		if address == "" {
			f.SetValue("address_display", "")
			return
		}
		form.Call(f, methodAddressDisplay, func(ctx context.Context) (string, error) {
			return c.svc.Addresses.AddressDisplay(ctx, address)
		}, func(r form.Response[string]) {
			if r.Exc != nil {
				return
			}
			f.SetValue("address_display", r.Message)
		})
	}
}

func (c *Controller) contactChanged(ctx context.Context, f *form.Form) {
	contact := f.String("contact_person")
	if contact == "" {
		for _, field := range []string{"contact_display", "contact_email", "contact_mobile", "contact_phone"} {
			f.SetValue(field, "")
		}
		return
	}
	form.Call(f, methodContactDetails, func(ctx context.Context) (ContactDetails, error) {
		return c.svc.Contacts.ContactDetails(ctx, contact)
	}, func(r form.Response[ContactDetails]) {
		if r.Exc != nil {
			return
		}
		f.SetValue("contact_display", r.Message.Display)
		f.SetValue("contact_email", r.Message.Email)
		f.SetValue("contact_mobile", r.Message.Mobile)
		f.SetValue("contact_phone", r.Message.Phone)
	})
}

func (c *Controller) companyChanged(ctx context.Context, f *form.Form) {
	f.SetValue("currency", c.svc.Companies.Currency(f.String("company")))
}

func (c *Controller) setDynamicLabels(ctx context.Context, f *form.Form) {
	companyCurrency := c.svc.Companies.Currency(f.String("company"))
	currency := f.String("currency")
	f.SetDescription("conversion_rate", "1 "+currency+" = [?] "+companyCurrency)
	f.SetCurrencyLabels([]string{"rate"}, currency, ItemsTable)
}

func (c *Controller) currencyChanged(ctx context.Context, f *form.Form) {
	companyCurrency := c.svc.Companies.Currency(f.String("company"))
	args := RateArgsFor(OrderType(f.String("blanket_order_type")))
	date := f.String("posting_date")
	from := f.String("currency")
	form.Call(f, methodExchangeRate, func(ctx context.Context) (float64, error) {
		return c.svc.Rates.ExchangeRate(ctx, date, from, companyCurrency, string(args))
	}, func(r form.Response[float64]) {
		if r.Exc != nil {
			return
		}
		f.SetValue("conversion_rate", form.Flt(r.Message))
		f.Trigger("set_dynamic_labels")
	})
}

func (c *Controller) termsChanged(ctx context.Context, f *form.Form) {
	template := f.String("tc_name")
	if template == "" {
		return
	}
	doc := f.AsDict()
	form.Call(f, methodTerms, func(ctx context.Context) (string, error) {
		return c.svc.Terms.Terms(ctx, template, doc)
	}, func(r form.Response[string]) {
		if r.Exc != nil {
			f.Logger().Debug("terms not applied", slog.String("tc_name", template))
			return
		}
		f.SetValue("terms", r.Message)
	})
}

func (c *Controller) setTermsFilter(ctx context.Context, f *form.Form) {
	switch OrderType(f.String("blanket_order_type")) {
	case OrderTypeSelling:
		f.SetReqd("customer", true)
		f.SetReqd("supplier", false)
		f.SetValue("supplier", "")
		f.SetQuery("tc_name", func(*form.Form) form.Query {
			return form.Query{Filters: map[string]any{"selling": 1}}
		})
	case OrderTypePurchasing:
		f.SetReqd("supplier", true)
		f.SetReqd("customer", false)
		f.SetValue("customer", "")
		f.SetQuery("tc_name", func(*form.Form) form.Query {
			return form.Query{Filters: map[string]any{"buying": 1}}
		})
	}
}
