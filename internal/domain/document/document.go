package document

import (
	"github.com/alphagov/rummager/internal/domain"
	"github.com/alphagov/rummager/internal/domain/schema"
)

// DefaultType is the engine type discriminator for ordinary content documents.
const DefaultType = "edition"

// IdentityField is the immutable document identity field.
const IdentityField = "link"

// Document is one indexed content item, restricted to the declared schema.
// Immutable once built except for explicit single-field amendment via Set.
type Document struct {
	schema  schema.Schema
	docType string
	fields  map[string]any
}

// FromWire builds a document from an inbound wire payload.
// Fields not declared in the schema are dropped silently. Values for
// multivalue fields are always coerced to sequences; values for
// single-value fields are always scalars (a sequence input contributes
// its first element). A "_type" key sets the type discriminator.
func FromWire(raw map[string]any, s schema.Schema) Document {
	d := Document{schema: s, docType: DefaultType, fields: make(map[string]any)}

	if t, ok := raw["_type"].(string); ok && t != "" {
		d.docType = t
	}

	for key, value := range raw {
		def, ok := s.Field(key)
		if !ok {
			continue
		}
		if v := coerce(value, def); v != nil {
			d.fields[key] = v
		}
	}
	return d
}

// ToWire emits only the fields that have been set, each in its declared
// shape. Unset fields are omitted entirely.
func (d Document) ToWire() map[string]any {
	out := make(map[string]any, len(d.fields))
	for _, name := range d.schema.FieldNames() {
		if v, ok := d.fields[name]; ok {
			out[name] = v
		}
	}
	return out
}

// ExportForIndex emits the wire shape plus the engine metadata needed to
// build an index command.
func (d Document) ExportForIndex() map[string]any {
	out := d.ToWire()
	out["_type"] = d.docType
	return out
}

// Set overwrites a single field. It rejects fields that are not in the
// schema and rejects modification of the identity field.
func (d *Document) Set(field string, value any) error {
	def, ok := d.schema.Field(field)
	if !ok {
		return &domain.UnknownFieldError{Field: field}
	}
	if field == IdentityField {
		return &domain.ImmutableFieldError{Field: field}
	}
	if v := coerce(value, def); v != nil {
		d.fields[field] = v
	} else {
		delete(d.fields, field)
	}
	return nil
}

// HasField reports whether the field is declared in the document's schema.
func (d Document) HasField(field string) bool {
	return d.schema.HasField(field)
}

// Field returns the value for a set field.
func (d Document) Field(name string) (any, bool) {
	v, ok := d.fields[name]
	return v, ok
}

// Link returns the document identity.
func (d Document) Link() string {
	if v, ok := d.fields[IdentityField].(string); ok {
		return v
	}
	return ""
}

// Type returns the engine type discriminator.
func (d Document) Type() string { return d.docType }

// coerce normalizes a wire value into the field's declared shape.
func coerce(value any, def schema.Field) any {
	if def.Multivalue() {
		if seq, ok := value.([]any); ok {
			return seq
		}
		return []any{value}
	}
	if seq, ok := value.([]any); ok {
		if len(seq) == 0 {
			return nil
		}
		return seq[0]
	}
	return value
}
