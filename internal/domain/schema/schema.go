package schema

import "fmt"

// Kind is the declared value type of a schema field.
type Kind string

// Field value kinds.
const (
	String  Kind = "string"
	Date    Kind = "date"
	Boolean Kind = "boolean"
	Number  Kind = "number"
)

// IsValid reports whether the kind is one of the declared value types.
func (k Kind) IsValid() bool {
	switch k {
	case String, Date, Boolean, Number:
		return true
	}
	return false
}

// Field is a single declared document field.
type Field struct {
	name       string
	kind       Kind
	multivalue bool
}

// NewField validates and creates a field definition.
func NewField(name string, kind Kind, multivalue bool) (Field, error) {
	if name == "" {
		return Field{}, fmt.Errorf("field name is required")
	}
	if !kind.IsValid() {
		return Field{}, fmt.Errorf("invalid kind %q for field %q", kind, name)
	}
	return Field{name: name, kind: kind, multivalue: multivalue}, nil
}

// Name returns the field name.
func (f Field) Name() string { return f.name }

// Kind returns the declared value type.
func (f Field) Kind() Kind { return f.kind }

// Multivalue reports whether the field holds an ordered sequence of values.
func (f Field) Multivalue() bool { return f.multivalue }

// Schema is the declared field set for indexed documents.
// Field order is preserved from the declaration.
type Schema struct {
	fields map[string]Field
	order  []string
}

// New creates a schema from an ordered field list.
// Duplicate field names are rejected.
func New(fields []Field) (Schema, error) {
	s := Schema{fields: make(map[string]Field, len(fields)), order: make([]string, 0, len(fields))}
	for _, f := range fields {
		if _, dup := s.fields[f.name]; dup {
			return Schema{}, fmt.Errorf("duplicate field %q", f.name)
		}
		s.fields[f.name] = f
		s.order = append(s.order, f.name)
	}
	return s, nil
}

// MustNew creates a schema or panics. Intended for fixtures and the
// composition root, where a bad schema is a programming error.
func MustNew(fields []Field) Schema {
	s, err := New(fields)
	if err != nil {
		panic(err)
	}
	return s
}

// Field looks up a field definition by name.
func (s Schema) Field(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// HasField reports whether the schema declares the named field.
func (s Schema) HasField(name string) bool {
	_, ok := s.fields[name]
	return ok
}

// FieldNames returns the declared field names in declaration order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Len returns the number of declared fields.
func (s Schema) Len() int { return len(s.order) }
