package form

import (
	"context"
	"errors"
)

// RowState is the transport form of a child row.
type RowState struct {
	Name   string         `json:"name"`
	Idx    int            `json:"idx"`
	Values map[string]any `json:"values"`
}

// ButtonState is the transport form of a custom button.
type ButtonState struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Group   string `json:"group,omitempty"`
	Primary bool   `json:"primary"`
}

// State is a point-in-time copy of everything the client renders.
type State struct {
	Doctype   string                           `json:"doctype"`
	Name      string                           `json:"name"`
	DocStatus DocStatus                        `json:"docstatus"`
	Values    map[string]any                   `json:"values"`
	Tables    map[string][]RowState            `json:"tables"`
	Fields    map[string]FieldState            `json:"fields"`
	Columns   map[string]map[string]FieldState `json:"columns"`
	Queries   map[string]Query                 `json:"queries"`
	Buttons   []ButtonState                    `json:"buttons"`
	Grids     map[string]Grid                  `json:"grids"`
	Route     *Route                           `json:"route,omitempty"`
	Messages  []Message                        `json:"messages,omitempty"`
	Pending   int                              `json:"pending"`
}

// Button returns the button with key.
func (s State) Button(key string) (ButtonState, bool) {
	for _, b := range s.Buttons {
		if b.Key == key {
			return b, true
		}
	}
	return ButtonState{}, false
}

// Snapshot copies the form state. Loop-bound.
func (f *Form) Snapshot() State {
	st := State{
		Doctype:   f.meta.Doctype,
		Name:      f.name,
		DocStatus: f.status,
		Values:    make(map[string]any, len(f.values)),
		Tables:    make(map[string][]RowState, len(f.tables)),
		Fields:    make(map[string]FieldState, len(f.fields)),
		Columns:   make(map[string]map[string]FieldState, len(f.columns)),
		Queries:   make(map[string]Query, len(f.queries)),
		Buttons:   make([]ButtonState, 0, len(f.buttons)),
		Grids:     make(map[string]Grid, len(f.grids)),
		Pending:   f.loop.pending,
	}
	for k, v := range f.values {
		st.Values[k] = v
	}
	for table, rows := range f.tables {
		out := make([]RowState, 0, len(rows))
		for _, r := range rows {
			values := make(map[string]any, len(r.values))
			for k, v := range r.values {
				values[k] = v
			}
			out = append(out, RowState{Name: r.Name, Idx: r.Idx, Values: values})
		}
		st.Tables[table] = out
	}
	for k, v := range f.fields {
		st.Fields[k] = *v
	}
	for table, cols := range f.columns {
		out := make(map[string]FieldState, len(cols))
		for k, v := range cols {
			out[k] = *v
		}
		st.Columns[table] = out
	}
	for k := range f.queries {
		if q, ok := f.Query(k); ok {
			st.Queries[k] = q
		}
	}
	for _, b := range f.buttons {
		st.Buttons = append(st.Buttons, ButtonState{Key: b.Key, Label: b.Label, Group: b.Group, Primary: b.Primary})
	}
	for k, g := range f.grids {
		st.Grids[k] = *g
	}
	if f.route != nil {
		r := *f.route
		st.Route = &r
	}
	st.Messages = append(st.Messages, f.messages...)
	return st
}

// AsDict renders the document as a plain map the way server side code sees
// it, with child tables as lists of row maps. Loop-bound.
func (f *Form) AsDict() map[string]any {
	doc := make(map[string]any, len(f.values)+3)
	for k, v := range f.values {
		doc[k] = v
	}
	doc["doctype"] = f.meta.Doctype
	doc["name"] = f.name
	doc["docstatus"] = int(f.status)
	for table, rows := range f.tables {
		list := make([]map[string]any, 0, len(rows))
		for _, r := range rows {
			row := make(map[string]any, len(r.values)+3)
			for k, v := range r.values {
				row[k] = v
			}
			row["name"] = r.Name
			row["idx"] = r.Idx
			row["doctype"] = r.Doctype
			list = append(list, row)
		}
		doc[table] = list
	}
	return doc
}

// State settles in-flight calls, bounded by ctx, and returns a snapshot.
// A ctx that expires while calls are pending still yields the current state.
func (f *Form) State(ctx context.Context) (State, error) {
	if err := f.Settle(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return State{}, err
	}
	var st State
	err := f.Do(context.Background(), func(f *Form) { st = f.Snapshot() })
	return st, err
}
