package provider

import "fmt"

// Type tags the outreach platform a campaign credential belongs to. Stored on
// the campaign row; selects the concrete adapter.
type Type string

const (
	TypeInstantly Type = "instantly"
	TypeSmartlead Type = "smartlead"
)

func (t Type) Valid() bool {
	switch t {
	case TypeInstantly, TypeSmartlead:
		return true
	}
	return false
}

// Factory builds a Provider for a campaign credential. Injected into the
// orchestrator so tests can substitute stub providers.
type Factory func(typ Type, apiKey string) (Provider, error)

// New is the default Factory.
func New(typ Type, apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("provider %q: api key is required", typ)
	}
	switch typ {
	case TypeInstantly:
		return NewInstantly(apiKey, ""), nil
	case TypeSmartlead:
		return NewSmartlead(apiKey, ""), nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownType, typ)
	}
}
