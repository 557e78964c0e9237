// Package actions runs one branch of a custom action's step list against a
// player, producing the ordered transcript. Steps are atomic individually:
// one step's rejection never rolls back earlier steps and never blocks later
// ones. Follow-up chains recurse with an explicit visited set so a revisited
// action truncates the chain instead of looping.
package actions

import (
	"context"
	"log"

	"github.com/seren/safari/engine/claims"
	"github.com/seren/safari/engine/conditions"
	"github.com/seren/safari/engine/ledger"
	"github.com/seren/safari/engine/registry"
	"github.com/seren/safari/types"
)

// ClaimConsumer is the single store operation the executor needs: the
// atomic check-and-record for limited steps.
type ClaimConsumer interface {
	TryConsumeClaim(ctx context.Context, key claims.Key, consumerID string) (bool, error)
}

// Request carries the per-invocation context through the recursion.
type Request struct {
	GuildID  string
	SeasonID string
	PlayerID string
	Roles    map[string]bool
}

// Executor applies custom actions. The working ledger is mutated in memory;
// persisting it after the invocation is the caller's job. Claim consumption
// goes straight to the store so season-scope exclusivity holds across
// players.
type Executor struct {
	claims ClaimConsumer
	warnf  func(format string, args ...any)
}

// New creates an executor. warnf receives data-integrity warnings and may be
// nil, in which case they go to the standard logger.
func New(consumer ClaimConsumer, warnf func(format string, args ...any)) *Executor {
	if warnf == nil {
		warnf = log.Printf
	}
	return &Executor{claims: consumer, warnf: warnf}
}

// Execute evaluates the action's gate against the working ledger and runs
// the matching branch, following follow-up references. It returns the
// transcript and the root action's verdict. The ledger is mutated in place.
func (x *Executor) Execute(ctx context.Context, defs *types.GuildDef, action types.CustomAction, req Request, led *types.PlayerLedger) ([]types.TranscriptEntry, bool) {
	visited := map[string]bool{action.ID: true}
	transcript, verdict := x.run(ctx, defs, action, req, led, visited, 0)
	return transcript, verdict
}

func (x *Executor) run(ctx context.Context, defs *types.GuildDef, action types.CustomAction, req Request, led *types.PlayerLedger, visited map[string]bool, depth int) ([]types.TranscriptEntry, bool) {
	snap := types.Snapshot{PlayerID: req.PlayerID, Ledger: *led, Roles: req.Roles}
	verdict, warnings := conditions.Evaluate(action.Conditions, snap)
	for _, w := range warnings {
		x.warnf("action %s: %s", action.ID, w)
	}

	var transcript []types.TranscriptEntry
	for i, step := range action.Steps {
		if step.ExecuteOn != verdict {
			continue
		}
		transcript = append(transcript, x.runStep(ctx, defs, action, i, step, req, led, visited, depth)...)
	}
	return transcript, verdict
}

// runStep executes one step. Most steps yield a single transcript entry; a
// follow-up yields its own entry followed by the chained action's entries,
// preserving true execution order.
func (x *Executor) runStep(ctx context.Context, defs *types.GuildDef, action types.CustomAction, index int, step types.ActionStep, req Request, led *types.PlayerLedger, visited map[string]bool, depth int) []types.TranscriptEntry {
	entry := types.TranscriptEntry{
		ActionID:  action.ID,
		StepIndex: index,
		Type:      step.Type,
		Status:    types.StepApplied,
	}

	switch step.Type {
	case types.StepDisplayText:
		entry.Title = step.Title
		entry.Content = step.Content
		return one(entry)

	case types.StepGiveCurrency:
		entry.Amount = step.Amount
		// Feasibility before the claim check, so a failed debit does not
		// burn a limited claim.
		if step.Amount < 0 && led.CurrencyBalance+step.Amount < 0 {
			return one(skipped(entry, types.ReasonInsufficientFunds))
		}
		if reason := x.consumeLimit(ctx, action.ID, index, step.Limit, req); reason != types.ReasonNone {
			return one(skipped(entry, reason))
		}
		if err := ledger.ApplyCurrency(led, step.Amount); err != nil {
			return one(skipped(entry, types.ReasonInsufficientFunds))
		}
		return one(entry)

	case types.StepGiveItem:
		entry.ItemID = step.ItemID
		entry.Quantity = step.Quantity
		if step.Quantity < 0 && led.Inventory[step.ItemID]+step.Quantity < 0 {
			return one(skipped(entry, types.ReasonInsufficientItems))
		}
		if reason := x.consumeLimit(ctx, action.ID, index, step.Limit, req); reason != types.ReasonNone {
			return one(skipped(entry, reason))
		}
		if err := ledger.ApplyItem(led, step.ItemID, step.Quantity); err != nil {
			return one(skipped(entry, types.ReasonInsufficientItems))
		}
		return one(entry)

	case types.StepFollowUp:
		entry.FollowUp = step.ActionID
		if visited[step.ActionID] || depth >= registry.MaxFollowUpDepth {
			return one(skipped(entry, types.ReasonCycleAborted))
		}
		next, ok := defs.Actions[step.ActionID]
		if !ok {
			x.warnf("action %s step %d: follow-up references unknown action %q",
				action.ID, index, step.ActionID)
			return one(skipped(entry, types.ReasonUnknownAction))
		}
		visited[step.ActionID] = true
		sub, _ := x.run(ctx, defs, next, req, led, visited, depth+1)
		return append([]types.TranscriptEntry{entry}, sub...)

	default:
		x.warnf("action %s step %d: unknown step type %q", action.ID, index, step.Type)
		return one(skipped(entry, types.ReasonUnknownStep))
	}
}

func one(entry types.TranscriptEntry) []types.TranscriptEntry {
	return []types.TranscriptEntry{entry}
}

// consumeLimit checks and records the step's claim. It returns the skip
// reason, or ReasonNone when the step may proceed.
func (x *Executor) consumeLimit(ctx context.Context, actionID string, index int, scope types.ClaimScope, req Request) types.SkipReason {
	if !claims.Tracked(scope) {
		return types.ReasonNone
	}
	key := claims.Key{
		GuildID:   req.GuildID,
		SeasonID:  req.SeasonID,
		ActionID:  actionID,
		StepIndex: index,
		Scope:     scope,
	}
	ok, err := x.claims.TryConsumeClaim(ctx, key, claims.ConsumerKey(scope, req.PlayerID))
	if err != nil {
		x.warnf("action %s step %d: claim check failed: %v", actionID, index, err)
		return types.ReasonStorage
	}
	if !ok {
		return types.ReasonClaimExhausted
	}
	return types.ReasonNone
}

func skipped(entry types.TranscriptEntry, reason types.SkipReason) types.TranscriptEntry {
	entry.Status = types.StepSkipped
	entry.Reason = reason
	return entry
}
