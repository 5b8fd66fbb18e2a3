package rushdb

import "regexp"

// PlanType is the subscription plan encoded in a prefixed API key.
type PlanType string

const (
	PlanInitial      PlanType = "initial"
	PlanExtended     PlanType = "extended"
	PlanFullFeatured PlanType = "fullFeatured"
)

var planPrefixes = map[string]PlanType{
	"in": PlanInitial,
	"ex": PlanExtended,
	"ff": PlanFullFeatured,
}

// TokenSettings are the deployment flags carried by a prefixed API key of
// the form "<plan>_<bits>_<raw>", e.g. "ff_1010_abc".
type TokenSettings struct {
	PlanType   PlanType `json:"planType"`
	CustomDB   bool     `json:"customDB"`
	ManagedDB  bool     `json:"managedDB"`
	SelfHosted bool     `json:"selfHosted"`
}

var tokenPattern = regexp.MustCompile(`^([a-z]{2})_([01]{4}\d*)_(.+)$`)

// ParseToken extracts settings from a prefixed API key. It returns the raw
// key without the prefix. For keys that are not prefixed, or whose plan
// prefix is unknown, ok is false and raw is the input.
func ParseToken(token string) (settings TokenSettings, raw string, ok bool) {
	m := tokenPattern.FindStringSubmatch(token)
	if m == nil {
		return TokenSettings{}, token, false
	}
	plan, known := planPrefixes[m[1]]
	if !known {
		return TokenSettings{}, token, false
	}
	bits := m[2]
	return TokenSettings{
		PlanType:   plan,
		CustomDB:   bits[0] == '1',
		ManagedDB:  bits[1] == '1',
		SelfHosted: bits[2] == '1',
	}, m[3], true
}
