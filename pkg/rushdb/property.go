package rushdb

// PropertyType is the value type of a property.
type PropertyType string

const (
	PropertyBoolean  PropertyType = "boolean"
	PropertyDatetime PropertyType = "datetime"
	PropertyNull     PropertyType = "null"
	PropertyNumber   PropertyType = "number"
	PropertyString   PropertyType = "string"
)

// Property describes a field shared by records.
type Property struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Type     PropertyType `json:"type"`
	Metadata string       `json:"metadata,omitempty"`
}

// PropertyValues are the distinct values of a property with numeric bounds
// for number properties.
type PropertyValues struct {
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Values []any    `json:"values"`
}
