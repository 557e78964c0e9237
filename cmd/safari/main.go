// Safari is a configurable guild economy engine with a local sandbox console.
// Usage: safari [--version] [--plain] [--script <file>] [--memory] [<guild_directory>]
package main

import (
	"fmt"
	"os"

	"github.com/seren/safari/cli"
	"github.com/seren/safari/config"
	"github.com/seren/safari/engine"
	"github.com/seren/safari/loader"
	"github.com/seren/safari/storage"
	"github.com/seren/safari/storage/memory"
	"github.com/seren/safari/storage/sqlite"
	"github.com/seren/safari/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	plain := false
	inMemory := false
	var guildDir string
	var scriptFile string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("safari %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--memory":
			inMemory = true
		case "--script":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--script requires a file path\n")
				os.Exit(1)
			}
			i++
			scriptFile = args[i]
		default:
			if guildDir == "" {
				guildDir = args[i]
			}
		}
	}

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading environment: %v\n", err)
		os.Exit(1)
	}
	if guildDir == "" {
		guildDir = cfg.GuildDir
	}
	if guildDir == "" {
		fmt.Fprintf(os.Stderr, "Usage: safari [--version] [--plain] [--script <file>] [--memory] <guild_directory>\n")
		os.Exit(1)
	}

	// Load and compile the Lua guild config.
	defs, err := loader.Load(guildDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading guild config: %v\n", err)
		os.Exit(1)
	}

	var store storage.Store
	if inMemory || cfg.StoragePath == "" {
		store = memory.New()
	} else {
		db, err := sqlite.Open(cfg.StoragePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
		store = db
	}

	eng := engine.New(store)
	eng.PublishGuild(defs)

	// Script mode: open file, force plain, echo commands.
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening script: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		c := cli.New(eng, store, defs, cfg.PlayerID)
		c.In = f
		c.EchoInput = true
		c.Run()
		return
	}

	// Use plain CLI if --plain flag or stdout is not a terminal.
	if plain || !isTerminal() {
		c := cli.New(eng, store, defs, cfg.PlayerID)
		c.Run()
		return
	}

	if err := tui.Run(eng, store, defs, cfg.PlayerID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
