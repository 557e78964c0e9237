package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderStatusBar produces a full-width inverted status line showing the
// guild, the impersonated player, the current balance, and the simulated
// clock offset.
func (m Model) renderStatusBar() string {
	sess := m.session

	left := fmt.Sprintf(" %s | as %s", sess.Defs.Name, sess.PlayerID)
	if len(sess.Roles) > 0 {
		left += fmt.Sprintf(" (%d role(s))", len(sess.Roles))
	}

	clock := sess.Now().Format("15:04")
	right := fmt.Sprintf("%d %s | %s ", m.balance, sess.Defs.Currency.Name, clock)
	if offset := sess.Now().Sub(time.Now()); offset > time.Minute {
		right = fmt.Sprintf("%d %s | %s (+%s) ",
			m.balance, sess.Defs.Currency.Name, clock, offset.Round(time.Minute))
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
