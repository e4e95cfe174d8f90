package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/l1jgo/armory/internal/item"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM running item instance hooks.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every script in scriptsDir and
// its item/ subdirectory. Missing directories are skipped.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	for _, dir := range []string{scriptsDir, filepath.Join(scriptsDir, "item")} {
		if err := e.loadDir(dir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

// LoadString runs a chunk of Lua source, typically to define hooks in tests.
func (e *Engine) LoadString(src string) error {
	return e.vm.DoString(src)
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Instantiate calls the item's hook function with a table describing the
// item and returns the table it produces as instance properties.
//
//	function on_instantiate_weapon(item) return { durability = 100 } end
func (e *Engine) Instantiate(def *item.Definition) (map[string]any, error) {
	fn := e.vm.GetGlobal(def.InstanceHook)
	if fn == lua.LNil {
		return nil, fmt.Errorf("lua function %s not found", def.InstanceHook)
	}

	t := e.vm.NewTable()
	t.RawSetString("id", lua.LString(def.ID))
	t.RawSetString("name", lua.LString(def.Display.Name))
	t.RawSetString("equippable", lua.LBool(def.Equippable))
	if def.Fragment != nil {
		tags := e.vm.NewTable()
		for _, tag := range def.Fragment.EquippedTags.Slice() {
			tags.Append(lua.LString(tag))
		}
		t.RawSetString("tags", tags)
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		return nil, fmt.Errorf("lua %s: %w", def.InstanceHook, err)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	switch rt := result.(type) {
	case *lua.LTable:
		props, _ := fromLua(rt).(map[string]any)
		return props, nil
	case *lua.LNilType:
		return nil, nil
	default:
		return nil, fmt.Errorf("lua %s returned %s, want table", def.InstanceHook, result.Type())
	}
}

// fromLua converts a Lua value to plain Go values. Tables with a non-empty
// array part become slices; other tables become string-keyed maps.
func fromLua(v lua.LValue) any {
	switch lv := v.(type) {
	case lua.LBool:
		return bool(lv)
	case lua.LNumber:
		f := float64(lv)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(lv)
	case *lua.LTable:
		if n := lv.Len(); n > 0 {
			out := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				out = append(out, fromLua(lv.RawGetInt(i)))
			}
			return out
		}
		out := make(map[string]any)
		lv.ForEach(func(k, val lua.LValue) {
			out[k.String()] = fromLua(val)
		})
		return out
	default:
		return nil
	}
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
