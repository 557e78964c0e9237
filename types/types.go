// Package types defines the shared data structures for the Safari engine.
// This package contains only type definitions — no logic, no methods beyond
// trivial accessors.
package types

import "time"

// AttributeCategory distinguishes regenerating resources from flat stats.
type AttributeCategory string

const (
	CategoryResource AttributeCategory = "resource"
	CategoryStat     AttributeCategory = "stat"
)

// RegenType selects the time-based regeneration policy of a resource.
type RegenType string

const (
	RegenNone        RegenType = "none"
	RegenFullReset   RegenType = "full_reset"
	RegenIncremental RegenType = "incremental"
)

// Regeneration describes how a resource attribute recovers over time.
// AmountIsMax marks the "amount = max" form: each tick restores the
// attribute to its maximum rather than adding a fixed amount.
type Regeneration struct {
	Type            RegenType
	IntervalMinutes int64
	Amount          int64
	AmountIsMax     bool
}

// AttributeDefinition is the admin-published description of one attribute.
// For resources Min/Max bound the live value; for stats Default seeds the
// player's value on first use.
type AttributeDefinition struct {
	ID       string
	Name     string
	Category AttributeCategory
	Min      int64
	Max      int64
	Default  int64
	Regen    Regeneration
	Preset   bool // true for built-in catalog entries
}

// AttributeState is a player's persisted value for one attribute.
// LastUpdate anchors the lazy regeneration computation.
type AttributeState struct {
	AttributeID string
	Current     int64
	Max         int64
	LastUpdate  time.Time
}

// ItemDefinition is an admin-defined inventory item.
type ItemDefinition struct {
	ID          string
	Name        string
	Description string
}

// CurrencyDefinition names the guild currency.
type CurrencyDefinition struct {
	Name   string
	Symbol string
}

// ConditionType tags the closed set of condition variants.
type ConditionType string

const (
	ConditionCurrency ConditionType = "currency"
	ConditionItem     ConditionType = "item"
	ConditionRole     ConditionType = "role"
)

// Operator is the comparison applied by a condition.
type Operator string

const (
	OpGTE    Operator = "gte"
	OpLTE    Operator = "lte"
	OpEqZero Operator = "eq_zero"
	OpHas    Operator = "has"
	OpNotHas Operator = "not_has"
)

// Condition is one predicate over a player snapshot. The populated fields
// depend on Type: currency uses Operator+Value, item uses Operator+ItemID,
// role uses Operator+RoleID. Conditions never mutate state.
type Condition struct {
	Type     ConditionType
	Operator Operator
	Value    int64
	ItemID   string
	RoleID   string
}

// Combinator joins the conditions of a set.
type Combinator string

const (
	CombinatorAnd Combinator = "and"
	CombinatorOr  Combinator = "or"
)

// ConditionSet is an ordered list of conditions plus a combinator.
// An empty set evaluates to true (ungated action).
type ConditionSet struct {
	Combinator Combinator
	Conditions []Condition
}

// StepType tags the closed set of action step variants.
type StepType string

const (
	StepDisplayText  StepType = "display_text"
	StepGiveCurrency StepType = "give_currency"
	StepGiveItem     StepType = "give_item"
	StepFollowUp     StepType = "follow_up"
)

// ClaimScope limits how often a step's grant can be consumed.
type ClaimScope string

const (
	ScopeNone   ClaimScope = "none"
	ScopePlayer ClaimScope = "once_per_player"
	ScopeSeason ClaimScope = "once_per_season"
)

// ActionStep is one effect in a custom action's list. ExecuteOn selects the
// condition branch the step belongs to. The zero value is the false branch;
// the configuration loader defaults unmarked steps to true, so code building
// steps directly must set ExecuteOn explicitly.
// The populated fields depend on Type: display_text uses Title/Content,
// give_currency uses Amount (may be negative), give_item uses
// ItemID/Quantity (quantity may be negative), follow_up uses ActionID.
type ActionStep struct {
	Type      StepType
	ExecuteOn bool
	Title     string
	Content   string
	Amount    int64
	ItemID    string
	Quantity  int64
	ActionID  string
	Limit     ClaimScope
}

// TriggerType records which UI surface fires the action. Opaque to the
// engine; carried through for the host platform.
type TriggerType string

const (
	TriggerButton TriggerType = "button"
	TriggerModal  TriggerType = "modal"
	TriggerSelect TriggerType = "select"
)

// CustomAction is an admin-defined, condition-gated sequence of steps.
type CustomAction struct {
	ID         string
	Name       string
	Trigger    TriggerType
	Conditions ConditionSet
	Steps      []ActionStep
}

// GuildDef holds one guild's full published configuration.
type GuildDef struct {
	GuildID    string
	Name       string
	SeasonID   string
	Currency   CurrencyDefinition
	Attributes map[string]AttributeDefinition
	Items      map[string]ItemDefinition
	Actions    map[string]CustomAction
}

// PlayerLedger is a player's economic state: currency balance plus item
// quantities. Both are invariantly non-negative.
type PlayerLedger struct {
	CurrencyBalance int64
	Inventory       map[string]int64
}

// Snapshot is the read-only view of a player the condition evaluator sees.
// Roles come from the caller; the engine never queries the host platform.
type Snapshot struct {
	PlayerID string
	Ledger   PlayerLedger
	Roles    map[string]bool
}

// StepStatus records whether a transcript step mutated state.
type StepStatus string

const (
	StepApplied StepStatus = "applied"
	StepSkipped StepStatus = "skipped"
)

// SkipReason explains a skipped transcript step.
type SkipReason string

const (
	ReasonNone              SkipReason = ""
	ReasonInsufficientFunds SkipReason = "insufficient_funds"
	ReasonInsufficientItems SkipReason = "insufficient_items"
	ReasonClaimExhausted    SkipReason = "claim_exhausted"
	ReasonCycleAborted      SkipReason = "cycle_aborted"
	ReasonUnknownStep       SkipReason = "unknown_step"
	ReasonUnknownAction     SkipReason = "unknown_action"
	ReasonStorage           SkipReason = "storage_error"
)

// TranscriptEntry is the outcome of one attempted step.
type TranscriptEntry struct {
	ActionID  string
	StepIndex int
	Type      StepType
	Status    StepStatus
	Reason    SkipReason
	Title     string
	Content   string
	Amount    int64
	ItemID    string
	Quantity  int64
	FollowUp  string
}

// ExecutionResult is returned from one engine invocation. The transcript
// reflects true execution order; Ledger is the post-execution state.
type ExecutionResult struct {
	InvocationID string
	ActionID     string
	Verdict      bool
	Transcript   []TranscriptEntry
	Ledger       PlayerLedger
}

// LiveAttribute is the regenerated view of one attribute.
type LiveAttribute struct {
	AttributeID string
	Current     int64
	Max         int64
}
