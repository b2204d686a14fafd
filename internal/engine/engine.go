// Package engine implements flag decision logic. Evaluate is a pure function
// over a flag definition and a caller context; it performs no I/O and holds no
// state, so it is safe under arbitrary concurrent invocation.
package engine

import (
	"math/rand/v2"

	"github.com/forestbush/bushel/internal/rollout"
	"github.com/forestbush/bushel/internal/store"
)

// Reason explains which rule produced a decision.
type Reason string

const (
	ReasonNotFound Reason = "not_found"
	ReasonDisabled Reason = "disabled"
	ReasonEnabled  Reason = "enabled"
	ReasonRollout  Reason = "rollout"
	ReasonError    Reason = "error"
)

// unknownRuleDefault is the decision applied when a flag carries a rules
// object with no recognized rule shape. The flag is globally enabled at that
// point, so unrecognized rules fail open rather than silently disabling it.
const unknownRuleDefault = true

// Result is an evaluation decision. It is an immutable value, safe to
// serialize and cache verbatim.
type Result struct {
	Key     string `json:"key"`
	Enabled bool   `json:"enabled"`
	Reason  Reason `json:"reason"`
}

// RandomSource supplies the bucket value for anonymous rollout evaluation.
// Injected so tests can pin the sequence; production uses SystemRandom.
type RandomSource interface {
	// Float64 returns a uniform value in [0,1).
	Float64() float64
}

type systemRandom struct{}

func (systemRandom) Float64() float64 { return rand.Float64() }

// SystemRandom returns the process-wide random source.
func SystemRandom() RandomSource { return systemRandom{} }

// ErrorResult is the fail-open decision returned when evaluation could not
// consult the store.
func ErrorResult(key string) Result {
	return Result{Key: key, Enabled: false, Reason: ReasonError}
}

// Evaluate computes the decision for a flag definition and caller context.
// flag is nil when the key does not exist in the store.
//
// Decision order, first match wins:
//  1. flag absent            -> not_found, disabled
//  2. flag globally off      -> disabled (rules never consulted)
//  3. no rules or empty      -> enabled
//  4. rollout rule           -> bucket the caller; enabled when bucket < p
//  5. unrecognized rules     -> fail open per unknownRuleDefault
//
// With a callerID the rollout bucket is deterministic (sticky) for the
// lifetime of the flag key. Without one the bucket is drawn from rnd each
// call: anonymous rollout evaluation is deliberately non-sticky.
func Evaluate(flag *store.Flag, key, callerID string, rnd RandomSource, salt string) Result {
	if flag == nil {
		return Result{Key: key, Enabled: false, Reason: ReasonNotFound}
	}
	if !flag.Enabled {
		return Result{Key: flag.Key, Enabled: false, Reason: ReasonDisabled}
	}
	if flag.Rules.Empty() {
		return Result{Key: flag.Key, Enabled: true, Reason: ReasonEnabled}
	}

	if flag.Rules.Recognized() {
		p := *flag.Rules.RolloutPercentage
		var in bool
		if callerID != "" {
			var err error
			in, err = rollout.InRollout(callerID, flag.Key, p, salt)
			if err != nil {
				// A stored rollout outside [0,100] should never get past
				// validation; treat it like an unrecognized rule.
				return Result{Key: flag.Key, Enabled: unknownRuleDefault, Reason: ReasonEnabled}
			}
		} else {
			in = rnd.Float64()*100 < p
		}
		return Result{Key: flag.Key, Enabled: in, Reason: ReasonRollout}
	}

	return Result{Key: flag.Key, Enabled: unknownRuleDefault, Reason: ReasonEnabled}
}
