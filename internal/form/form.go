// Package form is the host runtime for document forms: it owns a document's
// field values, field properties, link query filters, custom buttons and grid
// settings, and dispatches lifecycle and change events to registered handlers.
//
// All handlers and continuations of a form run on that form's own event loop.
// Methods documented as loop-bound must only be called from a handler, a
// continuation, or a function passed to Do.
package form

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Handler reacts to a document level event.
type Handler func(ctx context.Context, f *Form)

// RowHandler reacts to a change on a child row.
type RowHandler func(ctx context.Context, f *Form, row *Row)

// Fetcher resolves a field of a linked record, backing fetch rules.
type Fetcher interface {
	FetchValue(ctx context.Context, doctype, name, field string) (any, error)
}

// MappedDoc identifies a document created by mapping.
type MappedDoc struct {
	Doctype string `json:"doctype"`
	Name    string `json:"name"`
}

// Mapper creates a new document pre-populated from a source document.
type Mapper interface {
	MakeMappedDoc(ctx context.Context, method, sourceName string) (MappedDoc, error)
}

// Translator translates user-facing strings.
type Translator interface {
	Translate(s string) string
}

// Observer receives instrumentation callbacks.
type Observer interface {
	EventHandled(doctype, event string, d time.Duration)
	CallCompleted(method string, d time.Duration, err error)
}

// Options configures a form.
type Options struct {
	Meta       *Meta
	Name       string
	DocStatus  DocStatus
	Values     map[string]any
	Tables     map[string][]map[string]any
	Logger     *slog.Logger
	Fetcher    Fetcher
	Mapper     Mapper
	Translator Translator
	Observer   Observer
}

type fetchRule struct {
	link   string
	source string
	target string
}

// Form is one open document together with its rendering state.
type Form struct {
	meta   *Meta
	name   string
	status DocStatus
	values map[string]any
	tables map[string][]*Row

	fields  map[string]*FieldState
	columns map[string]map[string]*FieldState
	queries map[string]func(f *Form) Query
	buttons []*Button
	grids   map[string]*Grid
	fetches []fetchRule

	events    map[string]Handler
	rowEvents map[string]map[string]RowHandler

	route    *Route
	messages []Message

	logger     *slog.Logger
	fetcher    Fetcher
	mapper     Mapper
	translator Translator
	observer   Observer

	ctx    context.Context
	cancel context.CancelFunc
	loop   *loop
}

// New builds a form and starts its event loop. Close releases it.
func New(opts Options) *Form {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	f := &Form{
		meta:       opts.Meta,
		name:       opts.Name,
		status:     opts.DocStatus,
		values:     make(map[string]any, len(opts.Values)),
		tables:     make(map[string][]*Row),
		fields:     make(map[string]*FieldState),
		columns:    make(map[string]map[string]*FieldState),
		queries:    make(map[string]func(f *Form) Query),
		grids:      make(map[string]*Grid),
		events:     make(map[string]Handler),
		rowEvents:  make(map[string]map[string]RowHandler),
		logger:     logger.With(slog.String("doctype", opts.Meta.Doctype), slog.String("docname", opts.Name)),
		fetcher:    opts.Fetcher,
		mapper:     opts.Mapper,
		translator: opts.Translator,
		observer:   opts.Observer,
		ctx:        ctx,
		cancel:     cancel,
		loop:       newLoop(),
	}
	for k, v := range opts.Values {
		f.values[k] = normalize(v)
	}
	for table, rows := range opts.Tables {
		child := f.meta.Child(table)
		for _, values := range rows {
			f.appendRow(table, child, values)
		}
	}
	f.initFieldStates()
	go f.loop.run()
	return f
}

func (f *Form) initFieldStates() {
	for _, fd := range f.meta.Fields {
		f.fields[fd.Fieldname] = newFieldState(fd)
	}
	for table, child := range f.meta.Children {
		cols := make(map[string]*FieldState, len(child.Fields))
		for _, fd := range child.Fields {
			cols[fd.Fieldname] = newFieldState(fd)
		}
		f.columns[table] = cols
	}
}

// Doctype returns the form's doctype.
func (f *Form) Doctype() string { return f.meta.Doctype }

// Meta returns the doctype metadata.
func (f *Form) Meta() *Meta { return f.meta }

// Name returns the document name.
func (f *Form) Name() string { return f.name }

// DocStatus returns the document's submission state.
func (f *Form) DocStatus() DocStatus { return f.status }

// Logger returns the form scoped logger.
func (f *Form) Logger() *slog.Logger { return f.logger }

// Open runs the load lifecycle: setup, onload, refresh, onload_post_render.
func (f *Form) Open(ctx context.Context) error {
	return f.Do(ctx, func(f *Form) {
		f.Trigger("setup")
		f.Trigger("onload")
		f.Refresh()
		f.Trigger("onload_post_render")
	})
}

// Do runs fn on the form's loop and waits for it.
func (f *Form) Do(ctx context.Context, fn func(f *Form)) error {
	return f.loop.do(ctx, func() { fn(f) })
}

// Settle waits until no asynchronous call is in flight.
func (f *Form) Settle(ctx context.Context) error {
	var idle chan struct{}
	if err := f.loop.do(ctx, func() { idle = f.loop.idle() }); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.loop.stopped:
		return ErrClosed
	case <-idle:
		return nil
	}
}

// Close stops the event loop and cancels in-flight calls' context.
func (f *Form) Close() {
	f.cancel()
	f.loop.stop()
}

// On registers the handler for a document event. Registering a name twice
// keeps only the last handler. Loop-bound after Open.
func (f *Form) On(event string, h Handler) {
	f.events[event] = h
}

// OnRow registers a handler for a field change on rows of a child doctype.
func (f *Form) OnRow(childDoctype, field string, h RowHandler) {
	byField, ok := f.rowEvents[childDoctype]
	if !ok {
		byField = make(map[string]RowHandler)
		f.rowEvents[childDoctype] = byField
	}
	byField[field] = h
}

// Trigger runs the handler registered for event, if any. Loop-bound.
func (f *Form) Trigger(event string) {
	h, ok := f.events[event]
	if !ok {
		return
	}
	start := time.Now()
	h(f.ctx, f)
	if f.observer != nil {
		f.observer.EventHandled(f.meta.Doctype, event, time.Since(start))
	}
}

// Refresh re-renders the form: custom buttons are cleared and refresh fires.
func (f *Form) Refresh() {
	f.buttons = nil
	f.Trigger("refresh")
}

// Get returns the raw value of a field.
func (f *Form) Get(field string) any {
	switch field {
	case "name":
		return f.name
	case "docstatus":
		return float64(f.status)
	}
	return f.values[field]
}

// String returns a field value rendered as a string.
func (f *Form) String(field string) string { return Cstr(f.Get(field)) }

// Float returns a field value coerced to a float.
func (f *Form) Float(field string) float64 { return Flt(f.Get(field)) }

// SetValue writes a field and, when the value actually changed, applies fetch
// rules and fires the field's change event. Loop-bound.
func (f *Form) SetValue(field string, v any) {
	v = normalize(v)
	if same(f.values[field], v) {
		f.values[field] = v
		return
	}
	f.values[field] = v
	f.applyFetches(field)
	f.Trigger(field)
}

// same treats nil and the empty string as one value, as the desk does.
func same(a, b any) bool {
	if isEmpty(a) && isEmpty(b) {
		return true
	}
	return a == b
}

func isEmpty(v any) bool {
	return v == nil || v == ""
}

// AddFetch copies target from the record linked by link whenever link changes.
func (f *Form) AddFetch(link, source, target string) {
	f.fetches = append(f.fetches, fetchRule{link: link, source: source, target: target})
}

func (f *Form) applyFetches(field string) {
	for _, rule := range f.fetches {
		if rule.link != field {
			continue
		}
		name := f.String(field)
		if name == "" {
			f.SetValue(rule.target, "")
			continue
		}
		doctype, found := f.meta.LinkDoctype(field)
		if !found || f.fetcher == nil {
			continue
		}
		Call(f, "frappe.client.get_value", func(ctx context.Context) (any, error) {
			return f.fetcher.FetchValue(ctx, doctype, name, rule.source)
		}, func(r Response[any]) {
			if r.Exc != nil || f.String(rule.link) != name {
				return
			}
			f.SetValue(rule.target, r.Message)
		})
	}
}

// Msgprint queues a message for the user.
func (f *Form) Msgprint(m Message) {
	f.messages = append(f.messages, m)
}

// Translate passes s through the form's translator.
func (f *Form) Translate(s string) string {
	if f.translator == nil {
		return s
	}
	return f.translator.Translate(s)
}

func (f *Form) surface(method string, err error) {
	f.logger.Warn("remote call failed", slog.String("method", method), slog.Any("error", err))
	f.Msgprint(Message{Title: f.Translate("Error"), Text: err.Error(), Indicator: "red"})
}

func (f *Form) observeCall(method string, d time.Duration, err error) {
	if f.observer != nil {
		f.observer.CallCompleted(method, d, err)
	}
}

func newRowName() string {
	return uuid.NewString()
}
