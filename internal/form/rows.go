package form

import "time"

// Row is one record of a child table.
type Row struct {
	Name        string
	Idx         int
	Doctype     string
	Parentfield string
	values      map[string]any
}

// Get returns the raw value of a row field.
func (r *Row) Get(field string) any { return r.values[field] }

// String returns a row field rendered as a string.
func (r *Row) String(field string) string { return Cstr(r.values[field]) }

// Float returns a row field coerced to a float.
func (r *Row) Float(field string) float64 { return Flt(r.values[field]) }

func (f *Form) appendRow(table string, child *Meta, values map[string]any) *Row {
	row := &Row{
		Idx:         len(f.tables[table]) + 1,
		Parentfield: table,
		values:      make(map[string]any, len(values)),
	}
	if child != nil {
		row.Doctype = child.Doctype
	}
	for k, v := range values {
		switch k {
		case "name":
			row.Name = Cstr(v)
		case "idx", "doctype", "parent", "parentfield", "parenttype":
		default:
			row.values[k] = normalize(v)
		}
	}
	if row.Name == "" {
		row.Name = newRowName()
	}
	f.tables[table] = append(f.tables[table], row)
	return row
}

// Rows returns the rows of a child table in order.
func (f *Form) Rows(table string) []*Row {
	return f.tables[table]
}

// Row looks up a child row by name.
func (f *Form) Row(table, name string) (*Row, bool) {
	for _, r := range f.tables[table] {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// AddChild appends a row to a child table. Loop-bound.
func (f *Form) AddChild(table string, values map[string]any) (*Row, error) {
	child := f.meta.Child(table)
	if child == nil {
		return nil, ErrUnknownTable
	}
	return f.appendRow(table, child, values), nil
}

// SetRowValue writes a field of a child row and, on change, fires the row
// event registered for the child doctype and field. Loop-bound.
func (f *Form) SetRowValue(table, name, field string, v any) error {
	row, ok := f.Row(table, name)
	if !ok {
		return ErrRowNotFound
	}
	v = normalize(v)
	if same(row.values[field], v) {
		row.values[field] = v
		return nil
	}
	row.values[field] = v
	if h, ok := f.rowEvents[row.Doctype][field]; ok {
		start := time.Now()
		h(f.ctx, f, row)
		if f.observer != nil {
			f.observer.EventHandled(row.Doctype, field, time.Since(start))
		}
	}
	return nil
}
