// Package claims defines the identity of a claim: which guild, season,
// action, and step a limited grant belongs to, and who is allowed to consume
// it. The atomic check-and-record itself is a store operation so that the
// season scope's "first claimant wins" race is settled in one place.
package claims

import "github.com/seren/safari/types"

// Key identifies one limited action step. Season-scoped claims include the
// guild's season id so a season roll opens a fresh claim without discarding
// past records.
type Key struct {
	GuildID   string
	SeasonID  string
	ActionID  string
	StepIndex int
	Scope     types.ClaimScope
}

// ConsumerKey returns the uniqueness key a claim record is stored under.
// Player scope keys on the consumer, so each player claims once. Season
// scope collapses every consumer onto one key, so the first recorded claim
// blocks all others guild-wide.
func ConsumerKey(scope types.ClaimScope, playerID string) string {
	if scope == types.ScopeSeason {
		return ""
	}
	return playerID
}

// Tracked reports whether a scope records claims at all. Unlimited steps
// carry no tracking overhead.
func Tracked(scope types.ClaimScope) bool {
	return scope == types.ScopePlayer || scope == types.ScopeSeason
}
