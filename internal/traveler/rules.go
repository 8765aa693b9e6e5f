package traveler

import "tripgate/internal/domain"

// Category names the four data families an arrival card draws from.
type Category string

const (
	CategoryPassport Category = "passport"
	CategoryPersonal Category = "personal"
	CategoryTravel   Category = "travel"
	CategoryFunds    Category = "funds"
)

// Categories in validation-report order.
var Categories = []Category{CategoryPassport, CategoryPersonal, CategoryTravel, CategoryFunds}

// RuleSet is a destination's declarative required-field table, consumed
// opaquely. The builder never knows which destination it is validating for.
type RuleSet interface {
	RequiredFields(category Category) []string
}

// RuleSource resolves the rule set for a destination.
type RuleSource interface {
	For(dest domain.DestinationID) (RuleSet, error)
}

// StaticRuleSet is a RuleSet backed by a plain map. Destination config is
// loaded into one of these per destination.
type StaticRuleSet struct {
	Fields map[Category][]string
}

func (s StaticRuleSet) RequiredFields(category Category) []string {
	return s.Fields[category]
}

// StaticRuleSource serves per-destination StaticRuleSets with a fallback
// default for destinations without explicit config.
type StaticRuleSource struct {
	Destinations map[domain.DestinationID]StaticRuleSet
	Default      StaticRuleSet
}

func (s StaticRuleSource) For(dest domain.DestinationID) (RuleSet, error) {
	if rs, ok := s.Destinations[dest]; ok {
		return rs, nil
	}
	return s.Default, nil
}

// DefaultRuleSet covers the fields every supported arrival card asks for
// today. Per-destination tables override it as they are onboarded.
func DefaultRuleSet() StaticRuleSet {
	return StaticRuleSet{Fields: map[Category][]string{
		CategoryPassport: {"number", "surname", "given_names", "nationality", "sex", "date_of_birth", "expiry_date"},
		CategoryPersonal: {"email", "phone", "occupation", "country_of_residence"},
		CategoryTravel:   {"arrival_date", "departure_date", "flight_no", "purpose_of_visit", "accommodation_address"},
		CategoryFunds:    {"items"},
	}}
}
