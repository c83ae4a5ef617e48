// Package party resolves customer and supplier defaults: primary address,
// primary contact and the display strings forms show for them.
package party

import "errors"

var (
	// ErrNotFound is returned for an unknown address, contact or party.
	ErrNotFound = errors.New("party: not found")
	// ErrUnsupportedField is returned when a fetch asks for a field outside
	// the allow list.
	ErrUnsupportedField = errors.New("party: unsupported fetch field")
)

// Address is one address record.
type Address struct {
	Name         string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	Pincode      string
	Country      string
	Phone        string
	Email        string
}

// Contact is one contact record.
type Contact struct {
	Name      string
	FirstName string
	LastName  string
	Email     string
	Mobile    string
	Phone     string
}

// fetchable lists the linked fields a form may copy, per doctype, with the
// table and column backing each.
var fetchable = map[string]struct {
	table  string
	fields map[string]string
}{
	"Customer": {table: "customers", fields: map[string]string{"customer_name": "customer_name"}},
	"Supplier": {table: "suppliers", fields: map[string]string{"supplier_name": "supplier_name"}},
}
