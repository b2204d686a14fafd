// Package rollout provides deterministic caller bucketing for percentage
// rollouts. A caller is hashed together with the flag key and a process-wide
// salt into a bucket in [0,100); the same (caller, flag, salt) triple always
// lands in the same bucket, so a caller's decision is stable while the flag's
// configuration is unchanged, and raising a rollout percentage only ever adds
// callers.
package rollout

import (
	"errors"

	"github.com/cespare/xxhash/v2"
)

// ErrInvalidPercentage is returned when a rollout percentage is outside [0,100].
var ErrInvalidPercentage = errors.New("rollout percentage must be between 0 and 100")

// Bucket returns a deterministic bucket in [0,100) for the given caller and
// flag. Returns -1 when callerID is empty (no identity to bucket on).
func Bucket(callerID, flagKey, salt string) int {
	if callerID == "" {
		return -1
	}
	key := callerID + ":" + flagKey + ":" + salt
	return int(xxhash.Sum64String(key) % 100)
}

// InRollout reports whether a caller falls inside a percentage rollout for a
// flag. The percentage may be fractional; a caller in bucket b is included
// when b < percent.
//
// Special cases:
//   - percent=0 always excludes
//   - percent=100 always includes
//   - empty callerID always excludes (no identity to bucket on)
func InRollout(callerID, flagKey string, percent float64, salt string) (bool, error) {
	if percent < 0 || percent > 100 {
		return false, ErrInvalidPercentage
	}
	if percent == 0 {
		return false, nil
	}
	if percent == 100 {
		return true, nil
	}
	if callerID == "" {
		return false, nil
	}
	return float64(Bucket(callerID, flagKey, salt)) < percent, nil
}
