// Package cli provides the plain-terminal sandbox console for the Safari
// engine: input reading, command dispatch, and output formatting.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/seren/safari/engine"
	"github.com/seren/safari/storage"
	"github.com/seren/safari/types"
)

// CLI drives one interactive sandbox session on a terminal.
type CLI struct {
	Session   *Session
	In        io.Reader
	Out       io.Writer
	EchoInput bool // echo each input line after the prompt (for script playback)
}

// New creates a console wired to the given engine and guild config.
func New(eng *engine.Engine, store storage.Store, defs *types.GuildDef, playerID string) *CLI {
	return &CLI{
		Session: NewSession(eng, store, defs, playerID),
		In:      os.Stdin,
		Out:     os.Stdout,
	}
}

// Run starts the console loop: prompt, read, dispatch, print.
func (c *CLI) Run() {
	c.printLine(fmt.Sprintf("Safari sandbox — guild %q, acting as %s.",
		c.Session.Defs.Name, c.Session.PlayerID))
	c.printLine("Type help for commands.")
	c.printLine("")

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		lines, quit := c.Session.Execute(input)
		for _, line := range lines {
			c.printLine(line)
		}
		if quit {
			return
		}
	}
}

func (c *CLI) print(s string) {
	fmt.Fprint(c.Out, s)
}

func (c *CLI) printLine(s string) {
	fmt.Fprintln(c.Out, s)
}
