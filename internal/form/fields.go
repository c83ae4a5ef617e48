package form

// DocStatus is the submission state of a document.
type DocStatus int

const (
	DocStatusDraft     DocStatus = 0
	DocStatusSubmitted DocStatus = 1
	DocStatusCancelled DocStatus = 2
)

// FieldState holds the render-time properties of one field.
type FieldState struct {
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Reqd        bool   `json:"reqd"`
	Hidden      bool   `json:"hidden"`
	ReadOnly    bool   `json:"read_only"`
}

func newFieldState(fd Field) *FieldState {
	return &FieldState{
		Label:       fd.Label,
		Description: fd.Description,
		Reqd:        fd.Reqd,
		Hidden:      fd.Hidden,
		ReadOnly:    fd.ReadOnly,
	}
}

func (f *Form) field(name string) *FieldState {
	st, ok := f.fields[name]
	if !ok {
		st = &FieldState{Label: name}
		f.fields[name] = st
	}
	return st
}

// SetReqd marks a field mandatory or optional.
func (f *Form) SetReqd(field string, reqd bool) { f.field(field).Reqd = reqd }

// SetHidden toggles a field's visibility.
func (f *Form) SetHidden(field string, hidden bool) { f.field(field).Hidden = hidden }

// SetReadOnly toggles a field's editability.
func (f *Form) SetReadOnly(field string, readOnly bool) { f.field(field).ReadOnly = readOnly }

// SetDescription replaces a field's help text.
func (f *Form) SetDescription(field, description string) { f.field(field).Description = description }

// SetLabel replaces a field's label.
func (f *Form) SetLabel(field, label string) { f.field(field).Label = label }

// FieldState returns a copy of a field's properties.
func (f *Form) FieldState(field string) FieldState {
	if st, ok := f.fields[field]; ok {
		return *st
	}
	return FieldState{Label: field}
}

// ColumnState returns a copy of a child-table column's properties.
func (f *Form) ColumnState(table, field string) FieldState {
	if st, ok := f.columns[table][field]; ok {
		return *st
	}
	return FieldState{Label: field}
}

// SetCurrencyLabels suffixes the metadata label of each column of table with
// the currency, e.g. "Rate (USD)".
func (f *Form) SetCurrencyLabels(fields []string, currency, table string) {
	cols, ok := f.columns[table]
	if !ok {
		return
	}
	child := f.meta.Child(table)
	for _, name := range fields {
		st, ok := cols[name]
		if !ok {
			continue
		}
		base := name
		if fd, found := child.Field(name); found && fd.Label != "" {
			base = fd.Label
		}
		label := f.Translate(base)
		if currency != "" {
			label += " (" + currency + ")"
		}
		st.Label = label
	}
}
