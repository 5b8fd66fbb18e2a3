package rushdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"
)

// SearchQuery is the filter accepted by every search endpoint.
// It is sent to the server as-is.
type SearchQuery struct {
	Where     Where          `json:"where,omitempty" yaml:"where,omitempty"`
	Labels    []string       `json:"labels,omitempty" yaml:"labels,omitempty"`
	Skip      *int           `json:"skip,omitempty" yaml:"skip,omitempty"`
	Limit     *int           `json:"limit,omitempty" yaml:"limit,omitempty"`
	OrderBy   *OrderBy       `json:"orderBy,omitempty" yaml:"orderBy,omitempty"`
	Aggregate map[string]any `json:"aggregate,omitempty" yaml:"aggregate,omitempty"`
}

// WithSkip returns a copy of q with skip set.
func (q SearchQuery) WithSkip(n int) SearchQuery {
	q.Skip = &n
	return q
}

// WithLimit returns a copy of q with limit set.
func (q SearchQuery) WithLimit(n int) SearchQuery {
	q.Limit = &n
	return q
}

// WithLabels returns a copy of q restricted to records carrying labels.
func (q SearchQuery) WithLabels(labels ...string) SearchQuery {
	q.Labels = append([]string(nil), labels...)
	return q
}

// Clone returns a copy of q that shares no slices or pointers with it.
// Clause values and aggregate entries are copied shallowly.
func (q SearchQuery) Clone() SearchQuery {
	c := q
	if q.Where != nil {
		c.Where = slices.Clone(q.Where)
	}
	c.Labels = slices.Clone(q.Labels)
	if q.Skip != nil {
		c = c.WithSkip(*q.Skip)
	}
	if q.Limit != nil {
		c = c.WithLimit(*q.Limit)
	}
	if q.OrderBy != nil {
		o := *q.OrderBy
		o.Fields = slices.Clone(q.OrderBy.Fields)
		c.OrderBy = &o
	}
	if q.Aggregate != nil {
		c.Aggregate = maps.Clone(q.Aggregate)
	}
	return c
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Valid reports whether d is asc or desc.
func (d Direction) Valid() bool {
	return d == Asc || d == Desc
}

// FieldOrder sorts by one field.
type FieldOrder struct {
	Field     string
	Direction Direction
}

// OrderBy is either a single direction applied to the default sort key, or an
// ordered list of field directions.
type OrderBy struct {
	Direction Direction
	Fields    []FieldOrder
}

// Order sorts by the default key in direction d.
func Order(d Direction) *OrderBy {
	return &OrderBy{Direction: d}
}

// SortBy sorts by field in direction d. Chain Then for secondary keys.
func SortBy(field string, d Direction) *OrderBy {
	return &OrderBy{Fields: []FieldOrder{{Field: field, Direction: d}}}
}

// Then appends a secondary sort key.
func (o *OrderBy) Then(field string, d Direction) *OrderBy {
	o.Fields = append(o.Fields, FieldOrder{Field: field, Direction: d})
	return o
}

// MarshalJSON encodes a field list as an object and a bare direction as a
// string.
func (o OrderBy) MarshalJSON() ([]byte, error) {
	if len(o.Fields) == 0 {
		return json.Marshal(string(o.Direction))
	}
	clauses := make([]Clause, len(o.Fields))
	for i, f := range o.Fields {
		clauses[i] = Clause{Key: f.Field, Value: string(f.Direction)}
	}
	return marshalClauses(clauses)
}

// UnmarshalJSON accepts "asc", "desc" or a field→direction object.
func (o *OrderBy) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var d string
		if err := json.Unmarshal(data, &d); err != nil {
			return err
		}
		*o = OrderBy{Direction: Direction(d)}
		return o.validate()
	}
	clauses, err := unmarshalClauses(data)
	if err != nil {
		return err
	}
	return o.fromClauses(clauses)
}

// UnmarshalYAML accepts a scalar direction or a field→direction mapping.
func (o *OrderBy) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*o = OrderBy{Direction: Direction(node.Value)}
		return o.validate()
	}
	clauses, err := yamlClauses(node)
	if err != nil {
		return err
	}
	return o.fromClauses(clauses)
}

func (o *OrderBy) fromClauses(clauses []Clause) error {
	fields := make([]FieldOrder, 0, len(clauses))
	for _, c := range clauses {
		d, ok := c.Value.(string)
		if !ok {
			return fmt.Errorf("rushdb: orderBy %q: direction must be a string", c.Key)
		}
		fields = append(fields, FieldOrder{Field: c.Key, Direction: Direction(d)})
	}
	*o = OrderBy{Fields: fields}
	return o.validate()
}

func (o *OrderBy) validate() error {
	if len(o.Fields) == 0 {
		if !o.Direction.Valid() {
			return fmt.Errorf("rushdb: orderBy: invalid direction %q", o.Direction)
		}
		return nil
	}
	for _, f := range o.Fields {
		if !f.Direction.Valid() {
			return fmt.Errorf("rushdb: orderBy %q: invalid direction %q", f.Field, f.Direction)
		}
	}
	return nil
}
