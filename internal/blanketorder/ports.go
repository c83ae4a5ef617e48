package blanketorder

import "context"

// PartyDetails are the address and contact defaults of a counterparty.
type PartyDetails struct {
	Address        string `json:"address,omitempty"`
	AddressDisplay string `json:"address_display,omitempty"`
	ContactPerson  string `json:"contact_person,omitempty"`
	ContactDisplay string `json:"contact_display,omitempty"`
	ContactEmail   string `json:"contact_email,omitempty"`
	ContactMobile  string `json:"contact_mobile,omitempty"`
	ContactPhone   string `json:"contact_phone,omitempty"`
}

// ContactDetails describe a contact person.
type ContactDetails struct {
	Display string `json:"contact_display,omitempty"`
	Email   string `json:"contact_email,omitempty"`
	Mobile  string `json:"contact_mobile,omitempty"`
	Phone   string `json:"contact_phone,omitempty"`
}

// PartyResolver returns the defaults of a customer or supplier.
type PartyResolver interface {
	PartyDetails(ctx context.Context, partyType PartyType, party string) (PartyDetails, error)
}

// AddressFormatter renders an address for display.
type AddressFormatter interface {
	AddressDisplay(ctx context.Context, address string) (string, error)
}

// ContactResolver returns the details of a contact.
type ContactResolver interface {
	ContactDetails(ctx context.Context, contact string) (ContactDetails, error)
}

// CompanyDirectory answers company questions from memory, without a round trip.
type CompanyDirectory interface {
	Currency(company string) string
	Only() (string, bool)
}

// ExchangeRates returns the rate converting one unit of from into to.
type ExchangeRates interface {
	ExchangeRate(ctx context.Context, transactionDate, from, to, args string) (float64, error)
}

// TermsRenderer renders a terms-and-conditions template against a document.
type TermsRenderer interface {
	Terms(ctx context.Context, template string, doc map[string]any) (string, error)
}

// Services groups the collaborators the controller calls.
type Services struct {
	Parties   PartyResolver
	Addresses AddressFormatter
	Contacts  ContactResolver
	Companies CompanyDirectory
	Rates     ExchangeRates
	Terms     TermsRenderer
}
