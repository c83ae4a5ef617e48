package party

import (
	"context"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/odyssey-erp/blanketorder/internal/blanketorder"
)

// Service implements the party lookups the Blanket Order form calls.
type Service struct {
	repo  Repository
	plain *bluemonday.Policy
}

// NewService builds the service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, plain: bluemonday.StrictPolicy()}
}

// PartyDetails returns the primary address and contact of a party. A party
// without either yields empty fields.
func (s *Service) PartyDetails(ctx context.Context, partyType blanketorder.PartyType, party string) (blanketorder.PartyDetails, error) {
	var out blanketorder.PartyDetails
	address, ok, err := s.repo.PrimaryAddress(ctx, string(partyType), party)
	if err != nil {
		return out, err
	}
	if ok {
		out.Address = address
		if out.AddressDisplay, err = s.AddressDisplay(ctx, address); err != nil {
			return out, err
		}
	}
	contact, ok, err := s.repo.PrimaryContact(ctx, string(partyType), party)
	if err != nil {
		return out, err
	}
	if ok {
		details, err := s.ContactDetails(ctx, contact)
		if err != nil {
			return out, err
		}
		out.ContactPerson = contact
		out.ContactDisplay = details.Display
		out.ContactEmail = details.Email
		out.ContactMobile = details.Mobile
		out.ContactPhone = details.Phone
	}
	return out, nil
}

// AddressDisplay renders an address one line per part, separated by <br>.
// Parts are stripped of markup.
func (s *Service) AddressDisplay(ctx context.Context, name string) (string, error) {
	a, err := s.repo.Address(ctx, name)
	if err != nil {
		return "", err
	}
	lines := []string{a.AddressLine1, a.AddressLine2, a.City, a.State, a.Pincode, a.Country}
	if a.Phone != "" {
		lines = append(lines, "Phone: "+a.Phone)
	}
	if a.Email != "" {
		lines = append(lines, "Email: "+a.Email)
	}
	var b strings.Builder
	for _, l := range lines {
		l = strings.TrimSpace(s.plain.Sanitize(l))
		if l == "" {
			continue
		}
		b.WriteString(l)
		b.WriteString("<br>")
	}
	return b.String(), nil
}

// ContactDetails returns the display fields of a contact.
func (s *Service) ContactDetails(ctx context.Context, name string) (blanketorder.ContactDetails, error) {
	c, err := s.repo.Contact(ctx, name)
	if err != nil {
		return blanketorder.ContactDetails{}, err
	}
	display := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if display == "" {
		display = c.Name
	}
	return blanketorder.ContactDetails{
		Display: display,
		Email:   c.Email,
		Mobile:  c.Mobile,
		Phone:   c.Phone,
	}, nil
}

// FetchValue resolves a field of a linked customer or supplier for fetch rules.
func (s *Service) FetchValue(ctx context.Context, doctype, name, field string) (any, error) {
	src, ok := fetchable[doctype]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnsupportedField, doctype, field)
	}
	column, ok := src.fields[field]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnsupportedField, doctype, field)
	}
	return s.repo.Value(ctx, src.table, column, name)
}
