package form

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// FieldType enumerates the doctype field types the runtime distinguishes.
type FieldType string

const (
	FieldData     FieldType = "Data"
	FieldLink     FieldType = "Link"
	FieldSelect   FieldType = "Select"
	FieldDate     FieldType = "Date"
	FieldFloat    FieldType = "Float"
	FieldCurrency FieldType = "Currency"
	FieldText     FieldType = "Text Editor"
	FieldTable    FieldType = "Table"
	FieldCheck    FieldType = "Check"
)

// Field describes one doctype field.
type Field struct {
	Fieldname   string    `yaml:"fieldname"`
	Fieldtype   FieldType `yaml:"fieldtype"`
	Label       string    `yaml:"label"`
	Options     string    `yaml:"options"`
	Description string    `yaml:"description"`
	Reqd        bool      `yaml:"reqd"`
	Hidden      bool      `yaml:"hidden"`
	ReadOnly    bool      `yaml:"read_only"`
}

// Meta is the static description of a doctype and its child tables.
type Meta struct {
	Doctype  string           `yaml:"doctype"`
	Fields   []Field          `yaml:"fields"`
	Children map[string]*Meta `yaml:"children"`

	index map[string]int
}

// ParseMeta decodes doctype metadata from YAML.
func ParseMeta(data []byte) (*Meta, error) {
	var meta Meta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("form: parse meta: %w", err)
	}
	if meta.Doctype == "" {
		return nil, fmt.Errorf("form: parse meta: doctype missing")
	}
	meta.build()
	for table, child := range meta.Children {
		if child == nil || child.Doctype == "" {
			return nil, fmt.Errorf("form: parse meta: child table %q has no doctype", table)
		}
		child.build()
	}
	return &meta, nil
}

func (m *Meta) build() {
	m.index = make(map[string]int, len(m.Fields))
	for i, f := range m.Fields {
		m.index[f.Fieldname] = i
	}
}

// Field looks up a field by name.
func (m *Meta) Field(name string) (Field, bool) {
	if m == nil {
		return Field{}, false
	}
	i, ok := m.index[name]
	if !ok {
		return Field{}, false
	}
	return m.Fields[i], true
}

// Child returns the metadata of the child doctype behind a table field.
func (m *Meta) Child(table string) *Meta {
	if m == nil {
		return nil
	}
	return m.Children[table]
}

// LinkDoctype returns the doctype a Link field points to.
func (m *Meta) LinkDoctype(field string) (string, bool) {
	f, ok := m.Field(field)
	if !ok || f.Fieldtype != FieldLink || f.Options == "" {
		return "", false
	}
	return f.Options, true
}
