package entity

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/hanpama/jobgraph/internal/store"
)

// Object is a store record projected through its EntitySchema. Only declared
// scalar fields are carried; relation fields are resolved on demand by the
// caller.
type Object struct {
	Schema *EntitySchema
	ID     int64

	names  []string
	values map[string]any
}

// Shape projects rec into an Object. Attributes the record does not expose
// are recorded as null. ID-typed attributes are carried as decimal strings.
func (es *EntitySchema) Shape(rec store.Record) *Object {
	if rec == nil {
		return nil
	}
	obj := &Object{
		Schema: es,
		ID:     rec.RecordID(),
		values: make(map[string]any, len(es.fields)),
	}
	for _, f := range es.fields {
		if f.Type.IsRelation() {
			continue
		}
		v, _ := rec.Attr(f.Name)
		if f.Type.Kind == KindID {
			v = idString(v)
		}
		obj.names = append(obj.names, f.Name)
		obj.values[f.Name] = v
	}
	return obj
}

func idString(v any) any {
	switch id := v.(type) {
	case int64:
		return strconv.FormatInt(id, 10)
	case int:
		return strconv.Itoa(id)
	}
	return v
}

// ShapeAll projects every record in order.
func (es *EntitySchema) ShapeAll(recs []store.Record) []*Object {
	out := make([]*Object, 0, len(recs))
	for _, rec := range recs {
		out = append(out, es.Shape(rec))
	}
	return out
}

// Get returns the value of a shaped field.
func (o *Object) Get(name string) (any, bool) {
	v, ok := o.values[name]
	return v, ok
}

// Names returns the shaped field names in schema order.
func (o *Object) Names() []string {
	out := make([]string, len(o.names))
	copy(out, o.names)
	return out
}

// MarshalJSON encodes the object with keys in schema order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range o.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(o.values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
