package blanketorderhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/blanketorder/internal/blanketorder"
	"github.com/odyssey-erp/blanketorder/internal/form"
	"github.com/odyssey-erp/blanketorder/internal/terms"
	_ "github.com/odyssey-erp/blanketorder/testing"
)

type stubServices struct{}

func (stubServices) PartyDetails(ctx context.Context, pt blanketorder.PartyType, party string) (blanketorder.PartyDetails, error) {
	return blanketorder.PartyDetails{Address: party + "-Billing", AddressDisplay: "Main St<br>"}, nil
}

func (stubServices) AddressDisplay(ctx context.Context, address string) (string, error) {
	return "Main St<br>", nil
}

func (stubServices) ContactDetails(ctx context.Context, contact string) (blanketorder.ContactDetails, error) {
	return blanketorder.ContactDetails{Display: contact}, nil
}

func (stubServices) Currency(company string) string { return "INR" }

func (stubServices) Only() (string, bool) { return "", false }

func (stubServices) ExchangeRate(ctx context.Context, date, from, to, args string) (float64, error) {
	return 80, nil
}

func (stubServices) Terms(ctx context.Context, template string, doc map[string]any) (string, error) {
	return "<p>" + template + "</p>", nil
}

func (stubServices) MakeMappedDoc(ctx context.Context, method, source string) (form.MappedDoc, error) {
	return form.MappedDoc{Doctype: blanketorder.SalesOrder, Name: "SO-0007"}, nil
}

type stubTerms struct{ filter terms.Filter }

func (s *stubTerms) List(ctx context.Context, filter terms.Filter) ([]terms.Template, error) {
	s.filter = filter
	return []terms.Template{{Name: "Standard"}, {Name: "Retail"}}, nil
}

type gauge struct{ v float64 }

func (g *gauge) Set(v float64) { g.v = v }

type fixture struct {
	router http.Handler
	store  *Store
	gauge  *gauge
	terms  *stubTerms
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	svc := stubServices{}
	ctrl, err := blanketorder.NewController(blanketorder.Services{
		Parties: svc, Addresses: svc, Contacts: svc, Companies: svc, Rates: svc, Terms: svc,
	}, blanketorder.RefreshMerged)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rt := blanketorder.Runtime{Controller: ctrl, Mapper: svc, Logger: logger}

	g := &gauge{}
	store := NewStore(time.Minute, g)
	t.Cleanup(store.CloseAll)
	lister := &stubTerms{}
	h := NewHandler(logger, rt, store, lister)
	h.settleTimeout = time.Second
	r := chi.NewRouter()
	r.Route("/blanket-orders/forms", h.MountRoutes)
	return &fixture{router: r, store: store, gauge: g, terms: lister}
}

func (fx *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/blanket-orders/forms"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) stateResponse {
	t.Helper()
	var resp stateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func sampleDoc(docstatus int) blanketorder.Document {
	return blanketorder.Document{
		Name:             "MFG-BLR-2024-00001",
		DocStatus:        docstatus,
		BlanketOrderType: blanketorder.OrderTypeSelling,
		Customer:         "CUST-001",
		Company:          "ACME",
		PostingDate:      "2024-03-01",
		Currency:         "INR",
		ConversionRate:   1,
		Items:            []blanketorder.Item{{Name: "row-1", ItemCode: "ITEM-A", Qty: 5, Rate: 2}},
	}
}

func (fx *fixture) open(t *testing.T, doc blanketorder.Document) stateResponse {
	t.Helper()
	rec := fx.do(t, http.MethodPost, "/", openRequest{Document: doc})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeState(t, rec)
}

func TestOpenReturnsState(t *testing.T) {
	fx := newFixture(t)
	resp := fx.open(t, sampleDoc(0))

	require.NotEmpty(t, resp.ID)
	assert.Equal(t, blanketorder.Doctype, resp.State.Doctype)
	assert.True(t, resp.State.Fields["customer"].Reqd)
	assert.Equal(t, "1 INR = [?] INR", resp.State.Fields["conversion_rate"].Description)
	assert.Equal(t, "CUST-001", resp.Document.Customer)
	assert.Equal(t, 1, fx.store.Len())
	assert.Equal(t, 1.0, fx.gauge.v)
}

func TestOpenValidatesDocument(t *testing.T) {
	fx := newFixture(t)
	doc := sampleDoc(0)
	doc.Company = ""
	doc.Currency = "rupees"
	rec := fx.do(t, http.MethodPost, "/", openRequest{Document: doc})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	fields := body["fields"].(map[string]any)
	assert.Equal(t, "required", fields["openRequest.Document.Company"])
	assert.Equal(t, "iso4217", fields["openRequest.Document.Currency"])
}

func TestSetFieldRunsHandlers(t *testing.T) {
	fx := newFixture(t)
	id := fx.open(t, sampleDoc(0)).ID

	rec := fx.do(t, http.MethodPut, "/"+id+"/fields/currency", setValueRequest{Value: "USD"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeState(t, rec)
	assert.Equal(t, 80.0, resp.State.Values["conversion_rate"])
	assert.Equal(t, "Rate (USD)", resp.State.Columns[blanketorder.ItemsTable]["rate"].Label)
	assert.Equal(t, 0, resp.State.Pending)

	rec = fx.do(t, http.MethodPut, "/"+id+"/fields/tc_name", setValueRequest{Value: "Standard"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<p>Standard</p>", decodeState(t, rec).Document.Terms)
}

func TestSetUnknownFieldRejected(t *testing.T) {
	fx := newFixture(t)
	id := fx.open(t, sampleDoc(0)).ID
	rec := fx.do(t, http.MethodPut, "/"+id+"/fields/credit_limit", setValueRequest{Value: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRowEditsUpdateBaseRate(t *testing.T) {
	fx := newFixture(t)
	doc := sampleDoc(0)
	doc.ConversionRate = 7.5
	id := fx.open(t, doc).ID

	rec := fx.do(t, http.MethodPut, "/"+id+"/items/row-1/rate", setValueRequest{Value: 10})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeState(t, rec)
	assert.Equal(t, 75.0, resp.Document.Items[0].BaseRate)

	rec = fx.do(t, http.MethodPut, "/"+id+"/items/nope/rate", setValueRequest{Value: 10})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddRow(t *testing.T) {
	fx := newFixture(t)
	id := fx.open(t, sampleDoc(0)).ID

	rec := fx.do(t, http.MethodPost, "/"+id+"/items", addRowRequest{Values: map[string]any{"item_code": "ITEM-B", "qty": 3}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeState(t, rec)
	require.NotEmpty(t, resp.Row)
	require.Len(t, resp.Document.Items, 2)
	assert.Equal(t, resp.Row, resp.Document.Items[1].Name)

	rec = fx.do(t, http.MethodPost, "/"+id+"/items", map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestButtonsNavigateOnce(t *testing.T) {
	fx := newFixture(t)
	resp := fx.open(t, sampleDoc(1))
	_, ok := resp.State.Button(blanketorder.LabelCreateSalesOrder)
	require.True(t, ok)

	path := "/" + resp.ID + "/buttons/" + url.PathEscape(blanketorder.LabelViewOrders)
	rec := fx.do(t, http.MethodPost, path, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st := decodeState(t, rec).State
	require.NotNil(t, st.Route)
	assert.Equal(t, "List", st.Route.View)
	assert.Equal(t, blanketorder.SalesOrder, st.Route.Doctype)

	rec = fx.do(t, http.MethodGet, "/"+resp.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decodeState(t, rec).State.Route)

	rec = fx.do(t, http.MethodPost, "/"+resp.ID+"/buttons/"+url.PathEscape(blanketorder.LabelCreateSalesOrder), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, &form.Route{View: "Form", Doctype: blanketorder.SalesOrder, Name: "SO-0007"}, decodeState(t, rec).State.Route)

	rec = fx.do(t, http.MethodPost, "/"+resp.ID+"/buttons/Missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRefreshKeepsButtonsSingle(t *testing.T) {
	fx := newFixture(t)
	id := fx.open(t, sampleDoc(1)).ID
	fx.do(t, http.MethodPost, "/"+id+"/refresh", nil)
	rec := fx.do(t, http.MethodPost, "/"+id+"/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeState(t, rec).State.Buttons, 2)
}

func TestQueryListsTermsOptions(t *testing.T) {
	fx := newFixture(t)
	id := fx.open(t, sampleDoc(0)).ID

	rec := fx.do(t, http.MethodGet, "/"+id+"/queries/tc_name", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp queryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1.0, resp.Query.Filters["selling"])
	assert.Equal(t, []string{"Standard", "Retail"}, resp.Options)
	assert.Equal(t, terms.Filter{Selling: true}, fx.terms.filter)

	rec = fx.do(t, http.MethodGet, "/"+id+"/queries/customer", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCloseSession(t *testing.T) {
	fx := newFixture(t)
	id := fx.open(t, sampleDoc(0)).ID

	rec := fx.do(t, http.MethodDelete, "/"+id, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0.0, fx.gauge.v)

	rec = fx.do(t, http.MethodGet, "/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
