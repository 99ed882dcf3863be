package entity

import (
	"fmt"
	"strings"

	"github.com/roach88/qtree/internal/querytree"
	"github.com/roach88/qtree/internal/value"
)

// Record is a dynamic entity, such as a decoded JSON object or a SQL row.
// Owner properties are nested records.
type Record = map[string]any

// RecordResolver resolves properties of Records.
//
// Without a schema any path resolves and its kind is decided per record
// (value.KindAny). With a schema, unknown paths fail resolution and
// properties carry their declared kind.
type RecordResolver struct {
	name   string
	schema map[string]value.Kind
}

// NewRecordResolver creates a resolver. schema maps property paths
// ("Age", "Address.City") to kinds and may be nil.
func NewRecordResolver(name string, schema map[string]value.Kind) *RecordResolver {
	return &RecordResolver{name: name, schema: schema}
}

// Entity implements Resolver.
func (r *RecordResolver) Entity() string {
	return r.name
}

// Resolve implements Resolver.
func (r *RecordResolver) Resolve(prop querytree.Property) (Getter[Record], error) {
	path := prop.String()
	kind := value.KindAny

	if r.schema != nil {
		declared, ok := r.lookupSchema(path)
		if !ok {
			return Getter[Record]{}, fmt.Errorf("no field %q in schema", path)
		}
		kind = declared
	}

	owner, name := prop.Owner, prop.Name
	return Getter[Record]{
		Path: path,
		Kind: kind,
		Get: func(rec Record) value.Value {
			if owner != "" {
				nested, ok := lookupKey(rec, owner).(map[string]any)
				if !ok {
					return value.Null{}
				}
				rec = nested
			}
			return value.FromAny(lookupKey(rec, name))
		},
	}, nil
}

func (r *RecordResolver) lookupSchema(path string) (value.Kind, bool) {
	if k, ok := r.schema[path]; ok {
		return k, true
	}
	for p, k := range r.schema {
		if strings.EqualFold(p, path) {
			return k, true
		}
	}
	return value.KindNull, false
}

// lookupKey reads a key exactly, then case-insensitively.
func lookupKey(rec Record, key string) any {
	if v, ok := rec[key]; ok {
		return v
	}
	for k, v := range rec {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return nil
}
