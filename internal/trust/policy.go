// Package trust keeps a bounded reputation score per teammate and decides
// whose reports are worth acting on.
package trust

// Policy is the table of trust deltas and thresholds. The defaults are a
// reference tuning, not fixed truths; every value can be overridden from
// configuration.
type Policy struct {
	Default         float64 `yaml:"default"`
	IgnoreThreshold float64 `yaml:"ignore_threshold"` // At or below: stop listening
	MetaMinTrust    float64 `yaml:"meta_min_trust"`   // Sender trust needed to relay "I don't trust X"
	DegradedColour  string  `yaml:"degraded_colour"`

	FoundDegraded    float64 `yaml:"found_degraded"`
	FoundUnknown     float64 `yaml:"found_unknown"`
	FoundKnown       float64 `yaml:"found_known"`
	ClosedRoomClaim  float64 `yaml:"closed_room_claim"`
	OpeningConfirmed float64 `yaml:"opening_confirmed"`
	DropAmbiguous    float64 `yaml:"drop_ambiguous"`
	DropExact        float64 `yaml:"drop_exact"`
	MetaDistrust     float64 `yaml:"meta_distrust"`
	FalseSighting    float64 `yaml:"false_sighting"`
}

// DefaultPolicy returns the reference delta table.
func DefaultPolicy() Policy {
	return Policy{
		Default:         0.5,
		IgnoreThreshold: 0.2,
		MetaMinTrust:    0.5,
		DegradedColour:  "#000000",

		FoundDegraded:    -0.1,
		FoundUnknown:     -0.1,
		FoundKnown:       0.1,
		ClosedRoomClaim:  -0.1,
		OpeningConfirmed: 0.1,
		DropAmbiguous:    -0.1,
		DropExact:        0.1,
		MetaDistrust:     -0.1,
		FalseSighting:    -0.1,
	}
}
