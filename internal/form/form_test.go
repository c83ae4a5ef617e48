package form

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMeta = `
doctype: Quote
fields:
  - fieldname: party
    fieldtype: Link
    label: Party
    options: Customer
  - fieldname: party_name
    fieldtype: Data
    label: Party Name
  - fieldname: currency
    fieldtype: Link
    label: Currency
    options: Currency
  - fieldname: rate
    fieldtype: Float
    label: Rate
  - fieldname: lines
    fieldtype: Table
    options: Quote Line
children:
  lines:
    doctype: Quote Line
    fields:
      - fieldname: price
        fieldtype: Currency
        label: Price
      - fieldname: total
        fieldtype: Currency
        label: Total
`

type fetcherFunc func(ctx context.Context, doctype, name, field string) (any, error)

func (fn fetcherFunc) FetchValue(ctx context.Context, doctype, name, field string) (any, error) {
	return fn(ctx, doctype, name, field)
}

type upper struct{}

func (upper) Translate(s string) string { return "T:" + s }

func newTestForm(t *testing.T, opts Options) *Form {
	t.Helper()
	meta, err := ParseMeta([]byte(testMeta))
	require.NoError(t, err)
	opts.Meta = meta
	if opts.Name == "" {
		opts.Name = "Q-1"
	}
	f := New(opts)
	t.Cleanup(f.Close)
	return f
}

func run(t *testing.T, f *Form, fn func(f *Form)) {
	t.Helper()
	require.NoError(t, f.Do(context.Background(), fn))
}

func settle(t *testing.T, f *Form) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.Settle(ctx))
	st, err := f.State(ctx)
	require.NoError(t, err)
	return st
}

func TestParseMetaRejectsMissingDoctype(t *testing.T) {
	_, err := ParseMeta([]byte("fields: []"))
	require.Error(t, err)

	_, err = ParseMeta([]byte("doctype: X\nchildren:\n  lines: {}\n"))
	require.Error(t, err)
}

func TestMetaLookups(t *testing.T) {
	meta, err := ParseMeta([]byte(testMeta))
	require.NoError(t, err)

	doctype, ok := meta.LinkDoctype("party")
	require.True(t, ok)
	assert.Equal(t, "Customer", doctype)
	_, ok = meta.LinkDoctype("rate")
	assert.False(t, ok)
	assert.Equal(t, "Quote Line", meta.Child("lines").Doctype)
	assert.Nil(t, meta.Child("missing"))
}

func TestSetValueFiresOnlyOnChange(t *testing.T) {
	f := newTestForm(t, Options{Values: map[string]any{"currency": "USD"}})
	var fired int
	f.On("currency", func(ctx context.Context, f *Form) { fired++ })

	run(t, f, func(f *Form) {
		f.SetValue("currency", "USD")
		f.SetValue("currency", "EUR")
		f.SetValue("rate", nil)
		f.SetValue("rate", "")
	})
	assert.Equal(t, 1, fired)
}

func TestOnKeepsLastHandler(t *testing.T) {
	f := newTestForm(t, Options{})
	var got string
	f.On("refresh", func(ctx context.Context, f *Form) { got = "first" })
	f.On("refresh", func(ctx context.Context, f *Form) { got = "second" })
	run(t, f, func(f *Form) { f.Refresh() })
	assert.Equal(t, "second", got)
}

func TestNumericCoercion(t *testing.T) {
	assert.Equal(t, 1234.5, Flt("1,234.5"))
	assert.Equal(t, 0.0, Flt("abc"))
	assert.Equal(t, 0.0, Flt(nil))
	assert.Equal(t, 3.0, Flt(3))
	assert.Equal(t, 75.0, Multiply(10, 7.5))
	assert.Equal(t, 0.3, Multiply(0.1, 3))
	assert.Equal(t, "7.5", Cstr(7.5))
	assert.Equal(t, "", Cstr(nil))
}

func TestCallLastResponseWins(t *testing.T) {
	f := newTestForm(t, Options{})
	slow := make(chan struct{})
	run(t, f, func(f *Form) {
		Call(f, "slow", func(ctx context.Context) (float64, error) {
			<-slow
			return 1, nil
		}, func(r Response[float64]) { f.SetValue("rate", r.Message) })
		Call(f, "fast", func(ctx context.Context) (float64, error) {
			return 2, nil
		}, func(r Response[float64]) { f.SetValue("rate", r.Message) })
	})
	require.Eventually(t, func() bool {
		var rate float64
		err := f.Do(context.Background(), func(f *Form) { rate = f.Float("rate") })
		return err == nil && rate == 2
	}, time.Second, 5*time.Millisecond)

	close(slow)
	st := settle(t, f)
	assert.Equal(t, 1.0, st.Values["rate"])
	assert.Equal(t, 0, st.Pending)
}

func TestCallErrorSurfacesMessage(t *testing.T) {
	f := newTestForm(t, Options{Translator: upper{}})
	var seen error
	run(t, f, func(f *Form) {
		Call(f, "boom", func(ctx context.Context) (string, error) {
			return "", errors.New("exploded")
		}, func(r Response[string]) { seen = r.Exc })
	})
	st := settle(t, f)
	require.Len(t, st.Messages, 1)
	assert.Equal(t, Message{Title: "T:Error", Text: "exploded", Indicator: "red"}, st.Messages[0])
	assert.EqualError(t, seen, "exploded")
}

func TestCallbackPanicStillReleases(t *testing.T) {
	f := newTestForm(t, Options{})
	run(t, f, func(f *Form) {
		Call(f, "panics", func(ctx context.Context) (int, error) { return 1, nil }, func(Response[int]) {
			panic("bad callback")
		})
	})
	st := settle(t, f)
	assert.Equal(t, 0, st.Pending)
}

func TestDoRecoversPanic(t *testing.T) {
	f := newTestForm(t, Options{})
	err := f.Do(context.Background(), func(f *Form) { panic("oops") })
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "oops", pe.Value)

	run(t, f, func(f *Form) {})
}

func TestClosedFormRejectsWork(t *testing.T) {
	meta, err := ParseMeta([]byte(testMeta))
	require.NoError(t, err)
	f := New(Options{Meta: meta, Name: "Q-2"})
	f.Close()
	f.Close()
	assert.ErrorIs(t, f.Do(context.Background(), func(f *Form) {}), ErrClosed)
}

func TestFetchRuleCopiesAndIgnoresStale(t *testing.T) {
	gate := make(chan struct{})
	fetcher := fetcherFunc(func(ctx context.Context, doctype, name, field string) (any, error) {
		if name == "C-1" {
			<-gate
		}
		return doctype + "/" + name + "/" + field, nil
	})
	f := newTestForm(t, Options{Fetcher: fetcher})
	f.AddFetch("party", "customer_name", "party_name")

	run(t, f, func(f *Form) {
		f.SetValue("party", "C-1")
		f.SetValue("party", "C-2")
	})
	require.Eventually(t, func() bool {
		var name string
		err := f.Do(context.Background(), func(f *Form) { name = f.String("party_name") })
		return err == nil && name != ""
	}, time.Second, 5*time.Millisecond)
	close(gate)
	st := settle(t, f)
	assert.Equal(t, "Customer/C-2/customer_name", st.Values["party_name"])

	run(t, f, func(f *Form) { f.SetValue("party", "") })
	st = settle(t, f)
	assert.Equal(t, "", st.Values["party_name"])
}

func TestRowsAndRowEvents(t *testing.T) {
	f := newTestForm(t, Options{
		Tables: map[string][]map[string]any{"lines": {{"name": "L1", "price": 2, "parent": "Q-1"}}},
	})
	f.OnRow("Quote Line", "price", func(ctx context.Context, f *Form, row *Row) {
		_ = f.SetRowValue(row.Parentfield, row.Name, "total", row.Float("price")*3)
	})

	run(t, f, func(f *Form) {
		require.NoError(t, f.SetRowValue("lines", "L1", "price", 5))
		_, err := f.AddChild("nope", nil)
		assert.ErrorIs(t, err, ErrUnknownTable)
		assert.ErrorIs(t, f.SetRowValue("lines", "missing", "price", 1), ErrRowNotFound)
	})
	st := settle(t, f)
	require.Len(t, st.Tables["lines"], 1)
	row := st.Tables["lines"][0]
	assert.Equal(t, 1, row.Idx)
	assert.Equal(t, 15.0, row.Values["total"])
	assert.NotContains(t, row.Values, "parent")
}

func TestButtonsReplaceByKeyAndClearOnRefresh(t *testing.T) {
	f := newTestForm(t, Options{Translator: upper{}})
	var clicked string
	run(t, f, func(f *Form) {
		f.AddCustomButton("Go", func() { clicked = "first" }, "")
		f.AddCustomButton("Go", func() { clicked = "second" }, "").SetPrimary()
		f.AddCustomButton("Go", func() {}, "Make")
	})
	st := settle(t, f)
	require.Len(t, st.Buttons, 2)
	assert.Equal(t, ButtonState{Key: "Go", Label: "T:Go", Primary: true}, st.Buttons[0])
	assert.Equal(t, "Make/Go", st.Buttons[1].Key)

	run(t, f, func(f *Form) { require.NoError(t, f.ClickButton("Go")) })
	assert.Equal(t, "second", clicked)

	run(t, f, func(f *Form) {
		assert.ErrorIs(t, f.ClickButton("Stop"), ErrButtonNotFound)
		f.Refresh()
	})
	assert.Empty(t, settle(t, f).Buttons)
}

func TestCurrencyLabelsAndDescription(t *testing.T) {
	f := newTestForm(t, Options{})
	run(t, f, func(f *Form) {
		f.SetCurrencyLabels([]string{"price", "unknown"}, "EUR", "lines")
		f.SetDescription("rate", "1 EUR = [?] USD")
		f.SetHidden("party", true)
	})
	st := settle(t, f)
	assert.Equal(t, "Price (EUR)", st.Columns["lines"]["price"].Label)
	assert.Equal(t, "Total", st.Columns["lines"]["total"].Label)
	assert.Equal(t, "1 EUR = [?] USD", st.Fields["rate"].Description)
	assert.True(t, st.Fields["party"].Hidden)
}

func TestOpenMappedDocWithoutMapper(t *testing.T) {
	f := newTestForm(t, Options{})
	run(t, f, func(f *Form) { f.OpenMappedDoc("make_order") })
	st := settle(t, f)
	require.Len(t, st.Messages, 1)
	assert.Contains(t, st.Messages[0].Text, "not configured")
	assert.Nil(t, st.Route)
}

func TestAsDict(t *testing.T) {
	f := newTestForm(t, Options{
		DocStatus: DocStatusSubmitted,
		Values:    map[string]any{"party": "C-1"},
		Tables:    map[string][]map[string]any{"lines": {{"name": "L1", "price": 2}}},
	})
	var doc map[string]any
	run(t, f, func(f *Form) { doc = f.AsDict() })
	assert.Equal(t, "Quote", doc["doctype"])
	assert.Equal(t, "Q-1", doc["name"])
	assert.Equal(t, 1, doc["docstatus"])
	assert.Equal(t, "C-1", doc["party"])
	lines := doc["lines"].([]map[string]any)
	require.Len(t, lines, 1)
	assert.Equal(t, 2.0, lines[0]["price"])
	assert.Equal(t, "Quote Line", lines[0]["doctype"])
}

func TestQueryEvaluatedOnRead(t *testing.T) {
	f := newTestForm(t, Options{Values: map[string]any{"currency": "USD"}})
	run(t, f, func(f *Form) {
		f.SetQuery("party", func(f *Form) Query {
			return Query{Filters: map[string]any{"default_currency": f.String("currency")}}
		})
		f.SetValue("currency", "EUR")
	})
	st := settle(t, f)
	assert.Equal(t, Query{Filters: map[string]any{"default_currency": "EUR"}}, st.Queries["party"])
}
