package rushdb

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"strings"
	"time"
)

// Reserved record fields.
const (
	FieldRecordID  = "__id"
	FieldLabel     = "__label"
	FieldPropTypes = "__proptypes"
)

// Record is a node returned by the API: reserved fields plus user fields.
// Two records are equal when their ids are equal.
type Record struct {
	data   map[string]any
	client *Client
}

// NewRecord wraps data without binding it to a client.
func NewRecord(data map[string]any) *Record {
	if data == nil {
		data = map[string]any{}
	}
	return &Record{data: data}
}

func (c *Client) newRecord(data map[string]any) *Record {
	r := NewRecord(data)
	r.client = c
	return r
}

// ID returns the record id, or "" if the payload has none.
func (r *Record) ID() string {
	id, _ := r.data[FieldRecordID].(string)
	return id
}

// Label returns the record label.
func (r *Record) Label() string {
	label, _ := r.data[FieldLabel].(string)
	return label
}

// PropTypes returns the field→type map reported by the server.
func (r *Record) PropTypes() map[string]string {
	out := map[string]string{}
	switch v := r.data[FieldPropTypes].(type) {
	case map[string]any:
		for k, t := range v {
			if s, ok := t.(string); ok {
				out[k] = s
			}
		}
	case map[string]string:
		maps.Copy(out, v)
	}
	return out
}

// Get returns a field value.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.data[key]
	return v, ok
}

// Fields returns a copy of the user fields, without reserved "__" keys.
func (r *Record) Fields() map[string]any {
	out := make(map[string]any, len(r.data))
	for k, v := range r.data {
		if !strings.HasPrefix(k, "__") {
			out[k] = v
		}
	}
	return out
}

// Data returns a copy of the full payload including reserved keys.
func (r *Record) Data() map[string]any {
	return maps.Clone(r.data)
}

// Timestamp returns the creation time in milliseconds encoded in the id.
func (r *Record) Timestamp() (int64, error) {
	return Timestamp(r.ID())
}

// Date returns the creation time encoded in the id.
func (r *Record) Date() (time.Time, error) {
	return Date(r.ID())
}

// Equal reports whether both records have the same non-empty id.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	id := r.ID()
	return id != "" && id == other.ID()
}

// String returns "Label: name" using the first of name, title or email, or
// "Label (id)".
func (r *Record) String() string {
	if r.ID() == "" {
		return fmt.Sprintf("Record with %d fields", len(r.data))
	}
	for _, key := range []string{"name", "title", "email"} {
		if v, ok := r.data[key]; ok && v != nil && v != "" {
			return fmt.Sprintf("%s: %v", r.Label(), v)
		}
	}
	return fmt.Sprintf("%s (%s)", r.Label(), r.ID())
}

// MarshalJSON encodes the full payload.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.data)
}

// UnmarshalJSON decodes a payload into an unbound record.
func (r *Record) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if m == nil {
		m = map[string]any{}
	}
	r.data = m
	return nil
}

func (r *Record) bound() (*Client, error) {
	if r.client == nil {
		return nil, ErrUnboundRecord
	}
	return r.client, nil
}

// Set replaces all user fields of the record on the server.
func (r *Record) Set(ctx context.Context, data map[string]any, opts ...CallOption) (*MutationResult, error) {
	c, err := r.bound()
	if err != nil {
		return nil, err
	}
	return c.Records.Set(ctx, r.ID(), data, opts...)
}

// Update merges fields into the record on the server.
func (r *Record) Update(ctx context.Context, data map[string]any, opts ...CallOption) (*MutationResult, error) {
	c, err := r.bound()
	if err != nil {
		return nil, err
	}
	return c.Records.Update(ctx, r.ID(), data, opts...)
}

// Attach creates relationships from this record to target.
func (r *Record) Attach(ctx context.Context, target any, options *AttachOptions, opts ...CallOption) (*MutationResult, error) {
	c, err := r.bound()
	if err != nil {
		return nil, err
	}
	return c.Records.Attach(ctx, r, target, options, opts...)
}

// Detach removes relationships from this record to target.
func (r *Record) Detach(ctx context.Context, target any, options *DetachOptions, opts ...CallOption) (*MutationResult, error) {
	c, err := r.bound()
	if err != nil {
		return nil, err
	}
	return c.Records.Detach(ctx, r, target, options, opts...)
}

// Delete deletes the record.
func (r *Record) Delete(ctx context.Context, opts ...CallOption) (*MutationResult, error) {
	c, err := r.bound()
	if err != nil {
		return nil, err
	}
	return c.Records.DeleteByID(ctx, []string{r.ID()}, opts...)
}
