package models

// EntityKind classifies a domain entity found in a problem statement.
type EntityKind string

const (
	// EntityAsset is a piece of equipment named word-plus-number, e.g. "Chiller 6".
	EntityAsset EntityKind = "asset"
	// EntitySensor is a sensor or measured variable, e.g. "supply temperature".
	EntitySensor EntityKind = "sensor"
	// EntitySite is a facility identifier; "site MAIN" is recorded as "MAIN".
	EntitySite EntityKind = "site"
	// EntityTimeRange is an absolute or relative time window, e.g. "last week".
	EntityTimeRange EntityKind = "time_range"
)

// Valid returns true if the kind is a known value.
func (k EntityKind) Valid() bool {
	switch k {
	case EntityAsset, EntitySensor, EntitySite, EntityTimeRange:
		return true
	default:
		return false
	}
}

// EntityMention is an entity as written in the problem statement.
// Mentions are advisory and never alter a compiled plan.
type EntityMention struct {
	Kind EntityKind `json:"kind" yaml:"kind"`
	Text string     `json:"text" yaml:"text"`
}
