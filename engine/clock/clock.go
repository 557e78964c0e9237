// Package clock computes live values for regenerating attributes. There is
// no background scheduler: regeneration is recomputed lazily from the stored
// value, its timestamp, and the attribute's policy, and the recomputation is
// idempotent for a fixed "now".
package clock

import (
	"errors"
	"fmt"
	"time"

	"github.com/seren/safari/types"
)

// ErrBadDefinition marks an attribute definition the clock cannot apply.
// Callers treat the attribute as frozen at its last known value.
var ErrBadDefinition = errors.New("malformed attribute definition")

// Advance returns the regenerated state for one attribute at the given time.
// The returned bool reports whether the state changed and should be written
// back. On error the input state is returned unchanged (fail-safe: the
// attribute freezes rather than aborting the caller's pipeline).
func Advance(st types.AttributeState, def types.AttributeDefinition, now time.Time) (types.AttributeState, bool, error) {
	if def.Category != types.CategoryResource {
		return st, false, nil
	}

	max := st.Max
	if max <= 0 {
		max = def.Max
	}

	switch def.Regen.Type {
	case types.RegenNone, "":
		return st, false, nil

	case types.RegenFullReset:
		interval, err := intervalDuration(def)
		if err != nil {
			return st, false, err
		}
		if now.Sub(st.LastUpdate) < interval {
			return st, false, nil
		}
		// One reset covers any number of elapsed intervals; there is no
		// backlog to replay.
		st.Current = max
		st.Max = max
		st.LastUpdate = now
		return st, true, nil

	case types.RegenIncremental:
		interval, err := intervalDuration(def)
		if err != nil {
			return st, false, err
		}
		elapsed := now.Sub(st.LastUpdate) / interval
		if elapsed < 1 {
			return st, false, nil
		}
		if def.Regen.AmountIsMax {
			st.Current = max
		} else {
			st.Current += int64(elapsed) * def.Regen.Amount
			if st.Current > max {
				st.Current = max
			}
		}
		if st.Current < def.Min {
			st.Current = def.Min
		}
		st.Max = max
		// The timestamp advances by whole intervals only, preserving
		// partial progress toward the next tick.
		st.LastUpdate = st.LastUpdate.Add(time.Duration(elapsed) * interval)
		return st, true, nil

	default:
		return st, false, fmt.Errorf("%w: unknown regen type %q for attribute %q",
			ErrBadDefinition, def.Regen.Type, def.ID)
	}
}

// Live returns the regenerated (current, max) view without reporting whether
// a write-back is needed. Convenience for display callers.
func Live(st types.AttributeState, def types.AttributeDefinition, now time.Time) (types.LiveAttribute, error) {
	next, _, err := Advance(st, def, now)
	max := next.Max
	if max <= 0 {
		max = def.Max
	}
	return types.LiveAttribute{
		AttributeID: st.AttributeID,
		Current:     next.Current,
		Max:         max,
	}, err
}

// NewState seeds a player's state for an attribute on first touch.
// Resources start full; stats start at their default.
func NewState(def types.AttributeDefinition, now time.Time) types.AttributeState {
	st := types.AttributeState{AttributeID: def.ID, LastUpdate: now}
	if def.Category == types.CategoryResource {
		st.Current = def.Max
		st.Max = def.Max
	} else {
		st.Current = def.Default
	}
	return st
}

func intervalDuration(def types.AttributeDefinition) (time.Duration, error) {
	if def.Regen.IntervalMinutes <= 0 {
		return 0, fmt.Errorf("%w: attribute %q regen interval %d",
			ErrBadDefinition, def.ID, def.Regen.IntervalMinutes)
	}
	return time.Duration(def.Regen.IntervalMinutes) * time.Minute, nil
}
