// Package loader reads a guild's Safari configuration from declarative Lua
// files and compiles it into closed Go types. Lua is an authoring format
// only: the constructor vocabulary is fixed, unknown condition or step types
// are rejected, and the VM is discarded before the engine runs.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/seren/safari/types"
)

// collector accumulates Lua definitions during file execution.
type collector struct {
	guild    *lua.LTable
	currency *lua.LTable
	attrs    []rawAttribute
	items    []rawItem
	actions  []rawAction
}

// Load reads all .lua files from dir, compiles them into a guild definition,
// and validates bounds and references. The returned GuildDef is immutable
// from the engine's point of view.
func Load(dir string) (*types.GuildDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading guild directory %s: %w", dir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 {
		return nil, fmt.Errorf("no .lua files found in %s", dir)
	}
	luaFiles = sortedLuaFiles(luaFiles)

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	for _, f := range luaFiles {
		path := filepath.Join(dir, f)
		if err := L.DoFile(path); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	def, err := compile(coll)
	if err != nil {
		return nil, fmt.Errorf("compiling guild config: %w", err)
	}

	if err := validate(def); err != nil {
		return nil, err
	}

	return def, nil
}

// sortedLuaFiles puts guild.lua first so guild metadata is defined before
// the files that reference it; the rest run alphabetically.
func sortedLuaFiles(files []string) []string {
	sort.Strings(files)
	for i, f := range files {
		if f == "guild.lua" && i > 0 {
			copy(files[1:i+1], files[:i])
			files[0] = f
			break
		}
	}
	return files
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes globals that could touch the host or break determinism.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	if mathTbl := L.GetGlobal("math"); mathTbl != lua.LNil {
		if tbl, ok := mathTbl.(*lua.LTable); ok {
			tbl.RawSetString("randomseed", lua.LNil)
			tbl.RawSetString("random", lua.LNil)
		}
	}
}
