package rushdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Clause is a single key/value pair of a where-clause or operator object.
type Clause struct {
	Key   string
	Value any
}

// Where is an ordered where-clause. Each key is a field name (implicit
// equality or operator object), a logical operator ($and, $or) holding a list
// of nested clauses, or a related-record label holding a nested clause that
// is evaluated one relationship hop away.
//
// Where keeps clause order through JSON and YAML encoding:
//
//	where := rushdb.Where{
//	    {"name", rushdb.StartsWith("Jo")},
//	    {"age", rushdb.Gte(18).And(rushdb.Lt(65))},
//	    {"COMPANY", rushdb.Where{{"name", "Acme"}}},
//	}
type Where []Clause

// Condition is an ordered operator object such as {"$gte": 1, "$lt": 10}.
type Condition []Clause

// ClauseKind classifies a where-clause entry.
type ClauseKind int

const (
	KindEquality ClauseKind = iota
	KindOperator
	KindLogical
	KindRelated
)

func (k ClauseKind) String() string {
	switch k {
	case KindEquality:
		return "equality"
	case KindOperator:
		return "operator"
	case KindLogical:
		return "logical"
	case KindRelated:
		return "related"
	}
	return fmt.Sprintf("ClauseKind(%d)", int(k))
}

// Operator keys.
const (
	OpAnd        = "$and"
	OpOr         = "$or"
	OpNot        = "$not"
	OpXor        = "$xor"
	OpNor        = "$nor"
	OpGt         = "$gt"
	OpGte        = "$gte"
	OpLt         = "$lt"
	OpLte        = "$lte"
	OpNe         = "$ne"
	OpStartsWith = "$startsWith"
	OpEndsWith   = "$endsWith"
	OpContains   = "$contains"
	OpIn         = "$in"
	OpNin        = "$nin"
	OpExists     = "$exists"

	// FieldID matches the record id at clause level.
	FieldID = "$id"
)

var logicalOps = map[string]bool{
	OpAnd: true,
	OpOr:  true,
	OpNot: true,
	OpXor: true,
	OpNor: true,
}

// IsLabelKey reports whether key follows the related-record label convention:
// its first rune is an upper-case letter.
func IsLabelKey(key string) bool {
	r, _ := utf8.DecodeRuneInString(key)
	return r != utf8.RuneError && unicode.IsUpper(r)
}

// IsOperatorKey reports whether key is an operator ($-prefixed).
func IsOperatorKey(key string) bool {
	return strings.HasPrefix(key, "$")
}

// IsLogicalKey reports whether key is a boolean composition operator.
func IsLogicalKey(key string) bool {
	return logicalOps[key]
}

// Classify returns the kind of a where-clause entry from its key and value.
func Classify(key string, value any) ClauseKind {
	if IsLogicalKey(key) {
		return KindLogical
	}
	switch v := value.(type) {
	case Condition:
		return KindOperator
	case Where:
		return KindRelated
	case map[string]any:
		if isOperatorMap(v) && !IsLabelKey(key) {
			return KindOperator
		}
		return KindRelated
	}
	return KindEquality
}

func isOperatorMap(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		if !IsOperatorKey(k) || IsLogicalKey(k) {
			return false
		}
	}
	return true
}

// NewWhere returns an empty clause, encoded as {}.
func NewWhere() Where { return Where{} }

// Len returns the number of entries.
func (w Where) Len() int { return len(w) }

// Set returns w with key set to value. An existing entry keeps its position
// in a copy, so w itself is never modified; a new key is appended.
func (w Where) Set(key string, value any) Where {
	for i := range w {
		if w[i].Key == key {
			out := slices.Clone(w)
			out[i].Value = value
			return out
		}
	}
	return append(w, Clause{Key: key, Value: value})
}

// Field sets a field condition: a scalar for equality or a Condition.
func (w Where) Field(name string, cond any) Where {
	return w.Set(name, cond)
}

// Related sets a nested clause for records related through label.
func (w Where) Related(label string, sub Where) Where {
	return w.Set(label, sub)
}

// Get returns the value stored under key.
func (w Where) Get(key string) (any, bool) {
	for _, c := range w {
		if c.Key == key {
			return c.Value, true
		}
	}
	return nil, false
}

// Keys returns the clause keys in order.
func (w Where) Keys() []string {
	keys := make([]string, len(w))
	for i, c := range w {
		keys[i] = c.Key
	}
	return keys
}

// And returns {"$and": [clauses...]}.
func And(clauses ...Where) Where {
	return Where{{Key: OpAnd, Value: clauses}}
}

// Or returns {"$or": [clauses...]}.
func Or(clauses ...Where) Where {
	return Where{{Key: OpOr, Value: clauses}}
}

// Gt matches values greater than v.
func Gt(v any) Condition { return Condition{{OpGt, v}} }

// Gte matches values greater than or equal to v.
func Gte(v any) Condition { return Condition{{OpGte, v}} }

// Lt matches values less than v.
func Lt(v any) Condition { return Condition{{OpLt, v}} }

// Lte matches values less than or equal to v.
func Lte(v any) Condition { return Condition{{OpLte, v}} }

// Ne matches values not equal to v.
func Ne(v any) Condition { return Condition{{OpNe, v}} }

func StartsWith(s string) Condition { return Condition{{OpStartsWith, s}} }
func EndsWith(s string) Condition   { return Condition{{OpEndsWith, s}} }
func Contains(s string) Condition   { return Condition{{OpContains, s}} }

// In matches any of values.
func In[T any](values ...T) Condition { return Condition{{OpIn, values}} }

// Nin matches none of values.
func Nin[T any](values ...T) Condition { return Condition{{OpNin, values}} }

// Exists matches records that have (or lack) the field.
func Exists(exists bool) Condition { return Condition{{OpExists, exists}} }

// And merges the operators of others into c, e.g. Gte(1).And(Lt(10)).
func (c Condition) And(others ...Condition) Condition {
	out := make(Condition, len(c), len(c)+len(others))
	copy(out, c)
	for _, o := range others {
		for _, cl := range o {
			out = out.set(cl.Key, cl.Value)
		}
	}
	return out
}

// set writes into c; And only calls it on its own copy.
func (c Condition) set(key string, value any) Condition {
	for i := range c {
		if c[i].Key == key {
			c[i].Value = value
			return c
		}
	}
	return append(c, Clause{Key: key, Value: value})
}

// Get returns the operand of op.
func (c Condition) Get(op string) (any, bool) {
	for _, cl := range c {
		if cl.Key == op {
			return cl.Value, true
		}
	}
	return nil, false
}

// MarshalJSON encodes the clause as a JSON object in insertion order.
func (w Where) MarshalJSON() ([]byte, error) {
	return marshalClauses(w)
}

// MarshalJSON encodes the operators as a JSON object in insertion order.
func (c Condition) MarshalJSON() ([]byte, error) {
	return marshalClauses(c)
}

func marshalClauses(clauses []Clause) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range clauses {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(c.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal %q: %w", c.Key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping key order. Numbers decode as
// json.Number so they re-encode unchanged.
func (w *Where) UnmarshalJSON(data []byte) error {
	clauses, err := unmarshalClauses(data)
	if err != nil {
		return err
	}
	*w = Where(clauses)
	return nil
}

// UnmarshalJSON decodes a JSON operator object keeping key order.
func (c *Condition) UnmarshalJSON(data []byte) error {
	clauses, err := unmarshalClauses(data)
	if err != nil {
		return err
	}
	*c = Condition(clauses)
	return nil
}

func unmarshalClauses(data []byte) ([]Clause, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("rushdb: where-clause must be a JSON object, got %v", tok)
	}
	clauses, err := decodeObject(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("rushdb: trailing data after where-clause")
	}
	return clauses, nil
}

// decodeObject reads object members up to and including the closing brace.
func decodeObject(dec *json.Decoder) ([]Clause, error) {
	clauses := []Clause{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("rushdb: unexpected object key %v", tok)
		}
		val, err := decodeValue(dec, key)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, Clause{Key: key, Value: val})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return clauses, nil
}

func decodeValue(dec *json.Decoder, key string) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	d, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch d {
	case '{':
		clauses, err := decodeObject(dec)
		if err != nil {
			return nil, err
		}
		return objectValue(key, clauses), nil
	case '[':
		var items []any
		for dec.More() {
			v, err := decodeValue(dec, itemKey(key))
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arrayValue(key, items), nil
	}
	return nil, fmt.Errorf("rushdb: unexpected delimiter %v", d)
}

// objectValue picks the Go type of a nested object from its position:
// operator objects become Condition, everything else an ordered Where.
func objectValue(key string, clauses []Clause) any {
	if IsLabelKey(key) || IsLogicalKey(key) || len(clauses) == 0 {
		return Where(clauses)
	}
	for _, c := range clauses {
		if !IsOperatorKey(c.Key) || IsLogicalKey(c.Key) {
			return Where(clauses)
		}
	}
	return Condition(clauses)
}

// itemKey is the key array items are decoded under. Operands of a logical
// operator are clauses even when every key starts with $.
func itemKey(key string) string {
	if IsLogicalKey(key) {
		return key
	}
	return ""
}

// arrayValue turns the operand list of a logical operator into []Where.
func arrayValue(key string, items []any) any {
	if !IsLogicalKey(key) {
		if items == nil {
			return []any{}
		}
		return items
	}
	out := make([]Where, 0, len(items))
	for _, it := range items {
		w, ok := it.(Where)
		if !ok {
			return items
		}
		out = append(out, w)
	}
	return out
}

// UnmarshalYAML decodes a YAML mapping keeping key order.
func (w *Where) UnmarshalYAML(node *yaml.Node) error {
	clauses, err := yamlClauses(node)
	if err != nil {
		return err
	}
	*w = Where(clauses)
	return nil
}

// UnmarshalYAML decodes a YAML operator mapping keeping key order.
func (c *Condition) UnmarshalYAML(node *yaml.Node) error {
	clauses, err := yamlClauses(node)
	if err != nil {
		return err
	}
	*c = Condition(clauses)
	return nil
}

func yamlClauses(node *yaml.Node) ([]Clause, error) {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("rushdb: line %d: where-clause must be a mapping", node.Line)
	}
	clauses := make([]Clause, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val, err := yamlValue(node.Content[i+1], key)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, Clause{Key: key, Value: val})
	}
	return clauses, nil
}

func yamlValue(node *yaml.Node, key string) (any, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return yamlValue(node.Alias, key)
	case yaml.MappingNode:
		clauses, err := yamlClauses(node)
		if err != nil {
			return nil, err
		}
		return objectValue(key, clauses), nil
	case yaml.SequenceNode:
		items := make([]any, 0, len(node.Content))
		for _, n := range node.Content {
			v, err := yamlValue(n, itemKey(key))
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return arrayValue(key, items), nil
	default:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// QueryError reports a where-clause that cannot be built unambiguously.
type QueryError struct {
	// Path locates the offending entry, e.g. "$and[1].COMPANY.name".
	Path   string
	Reason string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("rushdb: invalid where-clause at %s: %s", e.Path, e.Reason)
}

// Validate checks that every entry is unambiguous under the key convention:
// upper-case keys name related labels and must hold a nested clause, field
// keys must hold a scalar or operator object, and logical operators hold
// lists of clauses.
//
// The server is the authority on the grammar. Find does not call Validate.
func (w Where) Validate() error {
	return validateClauses(w, "")
}

func validateClauses(w Where, path string) error {
	for _, c := range w {
		p := joinPath(path, c.Key)
		if err := validateEntry(c.Key, c.Value, p); err != nil {
			return err
		}
	}
	return nil
}

func validateEntry(key string, value any, path string) error {
	switch {
	case key == "":
		return &QueryError{Path: path, Reason: "empty key"}

	case IsLogicalKey(key):
		subs, ok := logicalOperands(value)
		if !ok {
			if key == OpAnd || key == OpOr {
				return &QueryError{Path: path, Reason: key + " takes a list of where-clauses"}
			}
			sub, isWhere := asWhere(value)
			if !isWhere {
				return &QueryError{Path: path, Reason: key + " takes a where-clause or a list of where-clauses"}
			}
			return validateClauses(sub, path)
		}
		for i, sub := range subs {
			if err := validateClauses(sub, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil

	case key == FieldID:
		if _, isWhere := value.(Where); isWhere {
			return &QueryError{Path: path, Reason: "$id takes a value or operator object"}
		}
		return nil

	case IsOperatorKey(key):
		return &QueryError{Path: path, Reason: "operator " + key + " is not allowed at clause level"}

	case IsLabelKey(key):
		sub, ok := asWhere(value)
		if !ok {
			return &QueryError{Path: path, Reason: fmt.Sprintf("%q is a related-label key but holds a field condition", key)}
		}
		return validateClauses(sub, path)

	default:
		switch v := value.(type) {
		case Where:
			return &QueryError{Path: path, Reason: fmt.Sprintf("field %q holds a nested where-clause; related labels must start with an upper-case letter", key)}
		case map[string]any:
			if !isOperatorMap(v) {
				return &QueryError{Path: path, Reason: fmt.Sprintf("field %q holds a nested where-clause; related labels must start with an upper-case letter", key)}
			}
		}
		return nil
	}
}

// logicalOperands returns the nested clauses of a list operand.
func logicalOperands(value any) ([]Where, bool) {
	switch v := value.(type) {
	case []Where:
		return v, true
	case []any:
		out := make([]Where, 0, len(v))
		for _, it := range v {
			if c, isCond := it.(Condition); isCond {
				out = append(out, Where(c))
				continue
			}
			w, ok := asWhere(it)
			if !ok {
				return nil, false
			}
			out = append(out, w)
		}
		return out, true
	case []map[string]any:
		out := make([]Where, 0, len(v))
		for _, m := range v {
			w, _ := asWhere(m)
			out = append(out, w)
		}
		return out, true
	}
	return nil, false
}

// asWhere accepts a Where or an unordered map as a nested clause.
func asWhere(value any) (Where, bool) {
	switch v := value.(type) {
	case Where:
		return v, true
	case map[string]any:
		w := make(Where, 0, len(v))
		for k, val := range v {
			w = append(w, Clause{Key: k, Value: val})
		}
		return w, true
	}
	return nil, false
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
