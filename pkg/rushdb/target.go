package rushdb

import "fmt"

// ExtractIDs reduces a relationship target to an ordered list of record ids.
//
// Accepted shapes: a string id, []string, a record-shaped map with "__id",
// []map[string]any, a Record or *Record, []*Record, []Record, and []any whose
// elements are any of the single-value shapes. Anything else returns a
// *ValidationError wrapping ErrInvalidTarget.
func ExtractIDs(target any) ([]string, error) {
	switch t := target.(type) {
	case string, map[string]any, Record, *Record:
		id, err := extractID(t, -1)
		if err != nil {
			return nil, err
		}
		return []string{id}, nil
	case []string:
		return collectIDs(len(t), func(i int) any { return t[i] })
	case []map[string]any:
		return collectIDs(len(t), func(i int) any { return t[i] })
	case []*Record:
		return collectIDs(len(t), func(i int) any { return t[i] })
	case []Record:
		return collectIDs(len(t), func(i int) any { return t[i] })
	case []any:
		return collectIDs(len(t), func(i int) any { return t[i] })
	}
	return nil, invalidTarget(-1, fmt.Sprintf("unsupported type %T", target))
}

func collectIDs(n int, at func(int) any) ([]string, error) {
	if n == 0 {
		return nil, invalidTarget(-1, "empty target list")
	}
	ids := make([]string, 0, n)
	for i := range n {
		id, err := extractID(at(i), i)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// extractID resolves one element. index is -1 for a single target.
func extractID(v any, index int) (string, error) {
	var id string
	switch t := v.(type) {
	case string:
		id = t
	case map[string]any:
		raw, ok := t[FieldRecordID]
		if !ok {
			return "", invalidTarget(index, "map has no "+FieldRecordID+" field")
		}
		s, ok := raw.(string)
		if !ok {
			return "", invalidTarget(index, fmt.Sprintf("%s is %T, not a string", FieldRecordID, raw))
		}
		id = s
	case Record:
		id = t.ID()
	case *Record:
		if t == nil {
			return "", invalidTarget(index, "nil record")
		}
		id = t.ID()
	default:
		return "", invalidTarget(index, fmt.Sprintf("unsupported element type %T", v))
	}
	if id == "" {
		return "", invalidTarget(index, "empty record id")
	}
	return id, nil
}

func invalidTarget(index int, reason string) error {
	field := "target"
	if index >= 0 {
		field = fmt.Sprintf("target[%d]", index)
	}
	return &ValidationError{Field: field, Reason: reason, err: ErrInvalidTarget}
}
