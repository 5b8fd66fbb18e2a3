package rushdb

// RelationDirection is the direction of a relationship relative to the
// source record.
type RelationDirection string

const (
	DirectionIn  RelationDirection = "in"
	DirectionOut RelationDirection = "out"
)

// Relationship is a typed edge between two records.
type Relationship struct {
	SourceID    string `json:"sourceId"`
	SourceLabel string `json:"sourceLabel"`
	TargetID    string `json:"targetId"`
	TargetLabel string `json:"targetLabel"`
	Type        string `json:"type"`
}

// AttachOptions configure Records.Attach.
type AttachOptions struct {
	Direction RelationDirection `json:"direction,omitempty"`
	Type      string            `json:"type,omitempty"`
}

// DetachOptions configure Records.Detach. Types restricts the relationship
// types removed; empty removes all.
type DetachOptions struct {
	Direction RelationDirection `json:"direction,omitempty"`
	Types     []string          `json:"-"`
}

// typeOrTypes encodes a single type as a string, several as a list.
func (o *DetachOptions) typeOrTypes() any {
	switch len(o.Types) {
	case 0:
		return nil
	case 1:
		return o.Types[0]
	}
	return o.Types
}
