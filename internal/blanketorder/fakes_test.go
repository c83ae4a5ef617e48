package blanketorder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/blanketorder/internal/form"
)

type rateCall struct {
	date, from, to, args string
}

type mapCall struct {
	method, source string
}

// fakes implements every collaborator of the controller. Request funcs run
// off the form loop, so recorded calls are guarded.
type fakes struct {
	mu sync.Mutex

	currencies map[string]string
	only       string

	party   func(PartyType, string) (PartyDetails, error)
	address func(string) (string, error)
	contact func(string) (ContactDetails, error)
	rate    func(rateCall) (float64, error)
	terms   func(string, map[string]any) (string, error)
	fetch   func(doctype, name, field string) (any, error)
	mapped  func(mapCall) (form.MappedDoc, error)

	partyCalls []string
	rateCalls  []rateCall
	termsCalls []string
	termsDocs  []map[string]any
	mapCalls   []mapCall
}

func newFakes() *fakes {
	return &fakes{currencies: map[string]string{"ACME": "INR", "Globex": "USD"}}
}

func (x *fakes) services() Services {
	return Services{Parties: x, Addresses: x, Contacts: x, Companies: x, Rates: x, Terms: x}
}

func (x *fakes) PartyDetails(ctx context.Context, partyType PartyType, party string) (PartyDetails, error) {
	x.mu.Lock()
	x.partyCalls = append(x.partyCalls, string(partyType)+":"+party)
	x.mu.Unlock()
	if x.party == nil {
		return PartyDetails{}, nil
	}
	return x.party(partyType, party)
}

func (x *fakes) AddressDisplay(ctx context.Context, address string) (string, error) {
	if x.address == nil {
		return address, nil
	}
	return x.address(address)
}

func (x *fakes) ContactDetails(ctx context.Context, contact string) (ContactDetails, error) {
	if x.contact == nil {
		return ContactDetails{Display: contact}, nil
	}
	return x.contact(contact)
}

func (x *fakes) Currency(company string) string { return x.currencies[company] }

func (x *fakes) Only() (string, bool) { return x.only, x.only != "" }

func (x *fakes) ExchangeRate(ctx context.Context, date, from, to, args string) (float64, error) {
	call := rateCall{date: date, from: from, to: to, args: args}
	x.mu.Lock()
	x.rateCalls = append(x.rateCalls, call)
	x.mu.Unlock()
	if x.rate == nil {
		return 1, nil
	}
	return x.rate(call)
}

func (x *fakes) Terms(ctx context.Context, template string, doc map[string]any) (string, error) {
	x.mu.Lock()
	x.termsCalls = append(x.termsCalls, template)
	x.termsDocs = append(x.termsDocs, doc)
	x.mu.Unlock()
	if x.terms == nil {
		return "", nil
	}
	return x.terms(template, doc)
}

func (x *fakes) FetchValue(ctx context.Context, doctype, name, field string) (any, error) {
	if x.fetch == nil {
		return nil, nil
	}
	return x.fetch(doctype, name, field)
}

func (x *fakes) MakeMappedDoc(ctx context.Context, method, source string) (form.MappedDoc, error) {
	call := mapCall{method: method, source: source}
	x.mu.Lock()
	x.mapCalls = append(x.mapCalls, call)
	x.mu.Unlock()
	if x.mapped == nil {
		return form.MappedDoc{Doctype: SalesOrder, Name: "SO-0001"}, nil
	}
	return x.mapped(call)
}

func (x *fakes) rates() []rateCall {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]rateCall(nil), x.rateCalls...)
}

func (x *fakes) parties() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]string(nil), x.partyCalls...)
}

func (x *fakes) termsRequests() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]string(nil), x.termsCalls...)
}

func (x *fakes) mappings() []mapCall {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]mapCall(nil), x.mapCalls...)
}

func testDoc() Document {
	return Document{
		Name:             "MFG-BLR-2024-00001",
		BlanketOrderType: OrderTypeSelling,
		Customer:         "CUST-001",
		Company:          "ACME",
		PostingDate:      "2024-03-01",
		FromDate:         "2024-03-01",
		ToDate:           "2024-12-31",
		Currency:         "INR",
		ConversionRate:   1,
		Items: []Item{
			{Name: "row-1", ItemCode: "ITEM-A", Qty: 10, Rate: 4},
		},
	}
}

func openForm(t *testing.T, x *fakes, mode RefreshMode, doc Document) *form.Form {
	t.Helper()
	ctrl, err := NewController(x.services(), mode)
	require.NoError(t, err)
	rt := Runtime{Controller: ctrl, Fetcher: x, Mapper: x}
	f, err := rt.Open(context.Background(), doc)
	require.NoError(t, err)
	t.Cleanup(f.Close)
	return f
}

func settled(t *testing.T, f *form.Form) form.State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.Settle(ctx))
	st, err := f.State(ctx)
	require.NoError(t, err)
	return st
}

func do(t *testing.T, f *form.Form, fn func(f *form.Form)) {
	t.Helper()
	require.NoError(t, f.Do(context.Background(), fn))
}
