package form

import "context"

// Query holds the filters a link field's picker applies.
type Query struct {
	Filters map[string]any `json:"filters"`
}

// SetQuery registers the filter provider for a link field. The provider is
// evaluated every time the picker reads it.
func (f *Form) SetQuery(field string, fn func(f *Form) Query) {
	f.queries[field] = fn
}

// Query evaluates the filter provider of a link field.
func (f *Form) Query(field string) (Query, bool) {
	fn, ok := f.queries[field]
	if !ok || fn == nil {
		return Query{}, false
	}
	return fn(f), true
}

// Button is a custom action shown on the form toolbar.
type Button struct {
	Key     string
	Label   string
	Group   string
	Primary bool
	action  func()
}

// SetPrimary styles the button as the primary action.
func (b *Button) SetPrimary() *Button {
	b.Primary = true
	return b
}

// AddCustomButton adds a toolbar button. label is the untranslated text and,
// combined with group, the key used to click it. Loop-bound.
func (f *Form) AddCustomButton(label string, action func(), group string) *Button {
	key := label
	if group != "" {
		key = group + "/" + label
	}
	for i, b := range f.buttons {
		if b.Key == key {
			f.buttons = append(f.buttons[:i], f.buttons[i+1:]...)
			break
		}
	}
	b := &Button{
		Key:    key,
		Label:  f.Translate(label),
		action: action,
	}
	if group != "" {
		b.Group = f.Translate(group)
	}
	f.buttons = append(f.buttons, b)
	return b
}

// Buttons returns the buttons currently shown.
func (f *Form) Buttons() []*Button {
	return f.buttons
}

// ClickButton runs the action of the button with key. Loop-bound.
func (f *Form) ClickButton(key string) error {
	for _, b := range f.buttons {
		if b.Key == key {
			if b.action != nil {
				b.action()
			}
			return nil
		}
	}
	return ErrButtonNotFound
}

// Grid holds the settings of a child-table grid.
type Grid struct {
	MultipleAddLink string `json:"multiple_add_link,omitempty"`
	MultipleAddQty  string `json:"multiple_add_qty,omitempty"`
}

// SetMultipleAdd lets the grid add several rows at once by picking link
// values and entering a quantity for each.
func (g *Grid) SetMultipleAdd(link, qty string) {
	g.MultipleAddLink = link
	g.MultipleAddQty = qty
}

// Grid returns the grid of a child table.
func (f *Form) Grid(table string) *Grid {
	g, ok := f.grids[table]
	if !ok {
		g = &Grid{}
		f.grids[table] = g
	}
	return g
}

// Route is a navigation request for the client.
type Route struct {
	View    string         `json:"view"`
	Doctype string         `json:"doctype"`
	Name    string         `json:"name,omitempty"`
	Filters map[string]any `json:"filters,omitempty"`
}

// SetRoute asks the client to navigate.
func (f *Form) SetRoute(r Route) {
	f.route = &r
}

// TakeRoute returns and clears the pending navigation.
func (f *Form) TakeRoute() *Route {
	r := f.route
	f.route = nil
	return r
}

// Message is a notice for the user.
type Message struct {
	Title     string `json:"title,omitempty"`
	Text      string `json:"text"`
	Indicator string `json:"indicator,omitempty"`
}

// OpenMappedDoc creates a document mapped from this one through method and
// navigates to it once created. Loop-bound.
func (f *Form) OpenMappedDoc(method string) {
	if f.mapper == nil {
		f.surface(method, ErrNoMapper)
		return
	}
	source := f.name
	Call(f, method, func(ctx context.Context) (MappedDoc, error) {
		return f.mapper.MakeMappedDoc(ctx, method, source)
	}, func(r Response[MappedDoc]) {
		if r.Exc != nil {
			return
		}
		f.SetRoute(Route{View: "Form", Doctype: r.Message.Doctype, Name: r.Message.Name})
	})
}
