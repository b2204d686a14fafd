// Package rules models the structured targeting configuration attached to a
// flag. The rule set is a closed variant type: today the only recognized case
// is a percentage rollout. Unrecognized keys in stored rules objects are
// preserved on round-trip so that flags written by a newer server version do
// not lose data when read back by this one.
package rules

import (
	"encoding/json"
	"errors"
)

// rolloutField is the JSON key of the single recognized rule case.
const rolloutField = "rolloutPercentage"

// ErrRolloutOutOfRange is returned when a rollout percentage falls outside [0,100].
var ErrRolloutOutOfRange = errors.New("rolloutPercentage must be between 0 and 100")

// Rules is the parsed rules object of a flag.
//
// RolloutPercentage is nil when the stored object carries no rollout rule.
// A Rules value with a nil RolloutPercentage and no extra keys is structurally
// empty and equivalent to having no rules at all.
type Rules struct {
	RolloutPercentage *float64

	// extra holds unrecognized keys verbatim.
	extra map[string]json.RawMessage
}

// NewRollout builds a rules object containing a single rollout rule.
func NewRollout(percentage float64) *Rules {
	return &Rules{RolloutPercentage: &percentage}
}

// Empty reports whether the rules object carries no keys at all.
func (r *Rules) Empty() bool {
	return r == nil || (r.RolloutPercentage == nil && len(r.extra) == 0)
}

// Recognized reports whether the rules object contains a rule shape this
// server knows how to evaluate.
func (r *Rules) Recognized() bool {
	return r != nil && r.RolloutPercentage != nil
}

// Validate checks the recognized rule cases against their constraints.
// Unrecognized keys are not an error; the engine decides how to treat them.
func (r *Rules) Validate() error {
	if r == nil {
		return nil
	}
	if r.RolloutPercentage != nil {
		if p := *r.RolloutPercentage; p < 0 || p > 100 {
			return ErrRolloutOutOfRange
		}
	}
	return nil
}

// UnmarshalJSON parses a stored rules object, splitting recognized rule cases
// from unrecognized keys.
func (r *Rules) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Rules{}
	for key, value := range raw {
		if key == rolloutField {
			var p float64
			if err := json.Unmarshal(value, &p); err != nil {
				return err
			}
			r.RolloutPercentage = &p
			continue
		}
		if r.extra == nil {
			r.extra = make(map[string]json.RawMessage)
		}
		r.extra[key] = value
	}
	return nil
}

// MarshalJSON writes the rules object back out, recognized cases and
// preserved unknown keys merged into one object.
func (r *Rules) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(r.extra)+1)
	for key, value := range r.extra {
		out[key] = value
	}
	if r.RolloutPercentage != nil {
		b, err := json.Marshal(*r.RolloutPercentage)
		if err != nil {
			return nil, err
		}
		out[rolloutField] = b
	}
	return json.Marshal(out)
}
