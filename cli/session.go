package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/seren/safari/engine"
	"github.com/seren/safari/engine/registry"
	"github.com/seren/safari/engine/snapshot"
	"github.com/seren/safari/storage"
	"github.com/seren/safari/types"
)

// Session is one sandbox session: a guild, an impersonated player, a role
// set, and a simulated clock. It turns console commands into engine calls
// and engine results into printable lines.
type Session struct {
	Engine *engine.Engine
	Store  storage.Store
	Defs   *types.GuildDef

	PlayerID string
	Roles    map[string]bool

	offset time.Duration // simulated clock skew, controlled by "advance"
}

// NewSession creates a session for the given guild config.
func NewSession(eng *engine.Engine, store storage.Store, defs *types.GuildDef, playerID string) *Session {
	return &Session{
		Engine:   eng,
		Store:    store,
		Defs:     defs,
		PlayerID: playerID,
		Roles:    map[string]bool{},
	}
}

// Now returns the session's simulated time.
func (s *Session) Now() time.Time {
	return time.Now().Add(s.offset)
}

// Execute dispatches one console command and returns the output lines and
// whether the session should end.
func (s *Session) Execute(input string) (lines []string, quit bool) {
	parts := strings.Fields(strings.TrimSpace(input))
	if len(parts) == 0 {
		return nil, false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "quit", "exit":
		return []string{"Goodbye."}, true
	case "help":
		return s.cmdHelp(), false
	case "trigger", "t":
		return s.cmdTrigger(args), false
	case "status", "s":
		return s.cmdStatus(), false
	case "inventory", "i":
		return s.cmdInventory(), false
	case "actions":
		return s.cmdActions(), false
	case "attrs":
		return s.cmdAttrs(), false
	case "as":
		return s.cmdAs(args), false
	case "role":
		return s.cmdRole(args), false
	case "advance":
		return s.cmdAdvance(args), false
	case "now":
		return []string{fmt.Sprintf("Simulated time: %s (offset %s)",
			s.Now().Format(time.RFC3339), s.offset)}, false
	case "season":
		return s.cmdSeason(args), false
	case "export":
		return s.cmdExport(args), false
	case "import":
		return s.cmdImport(args), false
	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type help for available commands.", cmd)}, false
	}
}

func (s *Session) cmdHelp() []string {
	return []string{
		"Commands:",
		"  trigger <action> (t) — fire a custom action as the current player",
		"  status (s)           — balance and live attribute values",
		"  inventory (i)        — item holdings",
		"  actions              — list the guild's custom actions",
		"  attrs                — list attribute definitions",
		"  as <player>          — impersonate another player",
		"  role add|rm <ref>    — edit the role snapshot sent with triggers",
		"  advance <minutes>    — move the simulated clock forward",
		"  now                  — show the simulated clock",
		"  season <id>          — roll the guild season",
		"  export [file]        — export this player's state as JSON",
		"  import <file>        — import player state from JSON",
		"  quit                 — leave the sandbox",
	}
}

func (s *Session) cmdTrigger(args []string) []string {
	if len(args) == 0 {
		return []string{"Trigger what? Usage: trigger <action-id>"}
	}
	result, err := s.Engine.Invoke(context.Background(), s.Defs.GuildID, args[0], s.PlayerID, s.Roles, s.Now())
	if err != nil {
		return []string{fmt.Sprintf("Invoke failed: %v", err)}
	}
	return s.formatResult(result)
}

func (s *Session) formatResult(result types.ExecutionResult) []string {
	lines := []string{fmt.Sprintf("Action %s → branch %v (%d step(s))",
		result.ActionID, result.Verdict, len(result.Transcript))}
	for _, entry := range result.Transcript {
		lines = append(lines, "  "+formatEntry(entry, s.Defs))
	}
	lines = append(lines, fmt.Sprintf("Balance: %d %s", result.Ledger.CurrencyBalance, s.Defs.Currency.Name))
	return lines
}

func formatEntry(entry types.TranscriptEntry, defs *types.GuildDef) string {
	if entry.Status == types.StepSkipped {
		return fmt.Sprintf("%s#%d %s skipped (%s)",
			entry.ActionID, entry.StepIndex, entry.Type, entry.Reason)
	}
	switch entry.Type {
	case types.StepDisplayText:
		if entry.Title != "" {
			return fmt.Sprintf("%q — %s", entry.Title, entry.Content)
		}
		return entry.Content
	case types.StepGiveCurrency:
		return fmt.Sprintf("%+d %s", entry.Amount, defs.Currency.Name)
	case types.StepGiveItem:
		name := entry.ItemID
		if item, ok := defs.Items[entry.ItemID]; ok {
			name = item.Name
		}
		return fmt.Sprintf("%+d × %s", entry.Quantity, name)
	case types.StepFollowUp:
		return fmt.Sprintf("→ follow-up %s", entry.FollowUp)
	default:
		return string(entry.Type)
	}
}

func (s *Session) cmdStatus() []string {
	led, live, err := s.Engine.PlayerStatus(context.Background(), s.Defs.GuildID, s.PlayerID, s.Now())
	if err != nil {
		return []string{fmt.Sprintf("Status failed: %v", err)}
	}
	lines := []string{
		fmt.Sprintf("Player %s in %s", s.PlayerID, s.Defs.Name),
		fmt.Sprintf("Balance: %d %s", led.CurrencyBalance, s.Defs.Currency.Name),
	}
	for _, attr := range live {
		if attr.Max > 0 {
			lines = append(lines, fmt.Sprintf("  %-12s %d/%d", attr.AttributeID, attr.Current, attr.Max))
		} else {
			lines = append(lines, fmt.Sprintf("  %-12s %d", attr.AttributeID, attr.Current))
		}
	}
	if len(s.Roles) > 0 {
		lines = append(lines, "Roles: "+strings.Join(sortedSet(s.Roles), ", "))
	}
	return lines
}

func (s *Session) cmdInventory() []string {
	led, _, err := s.Engine.PlayerStatus(context.Background(), s.Defs.GuildID, s.PlayerID, s.Now())
	if err != nil {
		return []string{fmt.Sprintf("Inventory failed: %v", err)}
	}
	if len(led.Inventory) == 0 {
		return []string{"Inventory is empty."}
	}
	var lines []string
	for _, id := range sortedIntKeys(led.Inventory) {
		name := id
		if item, ok := s.Defs.Items[id]; ok {
			name = item.Name
		}
		lines = append(lines, fmt.Sprintf("  %d × %s", led.Inventory[id], name))
	}
	return lines
}

func (s *Session) cmdActions() []string {
	if len(s.Defs.Actions) == 0 {
		return []string{"No actions defined."}
	}
	ids := make([]string, 0, len(s.Defs.Actions))
	for id := range s.Defs.Actions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var lines []string
	for _, id := range ids {
		action := s.Defs.Actions[id]
		lines = append(lines, fmt.Sprintf("  %-20s %s (%s, %d condition(s), %d step(s))",
			id, action.Name, action.Trigger, len(action.Conditions.Conditions), len(action.Steps)))
	}
	return lines
}

func (s *Session) cmdAttrs() []string {
	attrs := s.Defs.Attributes
	ids := make([]string, 0, len(attrs))
	for id := range attrs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var lines []string
	for _, id := range ids {
		attr := attrs[id]
		if attr.Category == types.CategoryResource {
			lines = append(lines, fmt.Sprintf("  %-12s resource [%d, %d] regen=%s/%dm",
				id, attr.Min, attr.Max, attr.Regen.Type, attr.Regen.IntervalMinutes))
		} else {
			lines = append(lines, fmt.Sprintf("  %-12s stat default=%d", id, attr.Default))
		}
	}
	if len(lines) == 0 {
		return []string{"No custom attributes; preset catalog only."}
	}
	return lines
}

func (s *Session) cmdAs(args []string) []string {
	if len(args) == 0 {
		return []string{fmt.Sprintf("Current player: %s", s.PlayerID)}
	}
	s.PlayerID = args[0]
	s.Roles = map[string]bool{}
	return []string{fmt.Sprintf("Now acting as %s.", s.PlayerID)}
}

func (s *Session) cmdRole(args []string) []string {
	if len(args) < 2 {
		return []string{"Usage: role add|rm <role-ref>"}
	}
	switch args[0] {
	case "add":
		s.Roles[args[1]] = true
		return []string{fmt.Sprintf("Role %s added.", args[1])}
	case "rm", "remove":
		delete(s.Roles, args[1])
		return []string{fmt.Sprintf("Role %s removed.", args[1])}
	default:
		return []string{"Usage: role add|rm <role-ref>"}
	}
}

func (s *Session) cmdAdvance(args []string) []string {
	if len(args) == 0 {
		return []string{"Advance by how much? Usage: advance <minutes>"}
	}
	minutes, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || minutes <= 0 {
		return []string{"Minutes must be a positive integer."}
	}
	s.offset += time.Duration(minutes) * time.Minute
	return []string{fmt.Sprintf("Clock advanced %d minute(s); simulated time %s.",
		minutes, s.Now().Format(time.RFC3339))}
}

func (s *Session) cmdSeason(args []string) []string {
	ctx := context.Background()
	if len(args) == 0 {
		season, err := s.Engine.Season(ctx, s.Defs.GuildID)
		if err != nil {
			return []string{fmt.Sprintf("Season lookup failed: %v", err)}
		}
		return []string{fmt.Sprintf("Active season: %s", season)}
	}
	if err := s.Engine.AdvanceSeason(ctx, s.Defs.GuildID, args[0]); err != nil {
		return []string{fmt.Sprintf("Season roll failed: %v", err)}
	}
	return []string{fmt.Sprintf("Season rolled to %s; season-scoped claims are open again.", args[0])}
}

func (s *Session) cmdExport(args []string) []string {
	key := storage.PlayerKey{GuildID: s.Defs.GuildID, PlayerID: s.PlayerID}
	catalog := registry.Merge(s.Defs.Attributes)
	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	data, err := snapshot.Gather(context.Background(), s.Store, key, ids, s.Now())
	if err != nil {
		return []string{fmt.Sprintf("Export failed: %v", err)}
	}
	out, err := snapshot.Marshal(data)
	if err != nil {
		return []string{fmt.Sprintf("Export failed: %v", err)}
	}
	if len(args) == 0 {
		return strings.Split(string(out), "\n")
	}
	if err := os.WriteFile(args[0], out, 0o644); err != nil {
		return []string{fmt.Sprintf("Export failed: %v", err)}
	}
	return []string{fmt.Sprintf("State exported to %s.", args[0])}
}

func (s *Session) cmdImport(args []string) []string {
	if len(args) == 0 {
		return []string{"Import from where? Usage: import <file>"}
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return []string{fmt.Sprintf("Import failed: %v", err)}
	}
	data, err := snapshot.Unmarshal(raw)
	if err != nil {
		return []string{fmt.Sprintf("Import failed: %v", err)}
	}
	key := storage.PlayerKey{GuildID: s.Defs.GuildID, PlayerID: s.PlayerID}
	if err := data.Apply(context.Background(), s.Store, key); err != nil {
		return []string{fmt.Sprintf("Import failed: %v", err)}
	}
	return []string{fmt.Sprintf("State imported from %s for player %s.", args[0], s.PlayerID)}
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedIntKeys(m map[string]int64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
