// Package scenario drives the reactor controls from a Lua script.
//
// A script defines on_tick(t, state) and returns a table of directives:
//
//	function on_tick(t, state)
//	  if t > 10 then return { power = 0.8, rods = {0.5, 0.5, 0.5, 0.5, 0.5} } end
//	  return { active = true, power = 0.3 }
//	end
//
// Missing keys leave the corresponding control unchanged.
package scenario

import (
	"fmt"
	"log/slog"

	lua "github.com/yuin/gopher-lua"

	"github.com/pthm-cable/fission/systems"
)

// APIVersion is exposed to scripts as API_VERSION.
const APIVersion = 1

const tickFunc = "on_tick"

// State is the simulation state passed to on_tick.
type State struct {
	Time        float64
	Temperature float64
	Intensity   float64
	Particles   int
	Status      systems.ReactorStatus
	Active      bool
	Controls    systems.Controls
}

// Directive is what a script asked for on one tick.
type Directive struct {
	Power   *float64
	Coolant *float64
	Rods    map[int]float64 // Zero-based rod index to target withdrawal
	Active  *bool
	Scram   bool
}

// Empty reports whether the directive changes nothing.
func (d Directive) Empty() bool {
	return d.Power == nil && d.Coolant == nil && len(d.Rods) == 0 && d.Active == nil && !d.Scram
}

// Apply returns c with the directive's values merged in, clamped to [0, 1].
// Rod indices beyond the bank are ignored.
func (d Directive) Apply(c systems.Controls) systems.Controls {
	out := systems.Controls{
		Power:   c.Power,
		Coolant: c.Coolant,
		Rods:    append([]float64(nil), c.Rods...),
	}
	if d.Power != nil {
		out.Power = clamp01(*d.Power)
	}
	if d.Coolant != nil {
		out.Coolant = clamp01(*d.Coolant)
	}
	for i, v := range d.Rods {
		if i >= 0 && i < len(out.Rods) {
			out.Rods[i] = clamp01(v)
		}
	}
	return out
}

// Engine wraps a single gopher-lua VM running one scenario script.
// Single-goroutine access only (game loop).
type Engine struct {
	vm   *lua.LState
	name string
}

// Load creates an engine and runs the script file at path.
func Load(path string) (*Engine, error) {
	e := newEngine(path)
	if err := e.vm.DoFile(path); err != nil {
		e.Close()
		return nil, fmt.Errorf("load scenario %s: %w", path, err)
	}
	if err := e.checkEntryPoint(); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// LoadString creates an engine from script source.
func LoadString(name, src string) (*Engine, error) {
	e := newEngine(name)
	if err := e.vm.DoString(src); err != nil {
		e.Close()
		return nil, fmt.Errorf("load scenario %s: %w", name, err)
	}
	if err := e.checkEntryPoint(); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func newEngine(name string) *Engine {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))

	e := &Engine{vm: vm, name: name}
	vm.SetGlobal("log", vm.NewFunction(e.luaLog))
	return e
}

func (e *Engine) checkEntryPoint() error {
	if _, ok := e.vm.GetGlobal(tickFunc).(*lua.LFunction); !ok {
		return fmt.Errorf("scenario %s: %s is not defined", e.name, tickFunc)
	}
	return nil
}

// luaLog lets scripts write to the structured log: log("message").
func (e *Engine) luaLog(L *lua.LState) int {
	slog.Info("scenario", "script", e.name, "msg", L.CheckString(1))
	return 0
}

// Tick calls on_tick(t, state) and decodes its result.
func (e *Engine) Tick(st State) (Directive, error) {
	fn := e.vm.GetGlobal(tickFunc)

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(st.Time), e.stateTable(st)); err != nil {
		return Directive{}, fmt.Errorf("scenario %s: %s: %w", e.name, tickFunc, err)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	if result == lua.LNil {
		return Directive{}, nil
	}
	rt, ok := result.(*lua.LTable)
	if !ok {
		return Directive{}, fmt.Errorf("scenario %s: %s returned %s, want table", e.name, tickFunc, result.Type())
	}
	return decodeDirective(rt)
}

func (e *Engine) stateTable(st State) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("temperature", lua.LNumber(st.Temperature))
	t.RawSetString("intensity", lua.LNumber(st.Intensity))
	t.RawSetString("particles", lua.LNumber(st.Particles))
	t.RawSetString("status", lua.LString(st.Status.String()))
	t.RawSetString("active", lua.LBool(st.Active))
	t.RawSetString("power", lua.LNumber(st.Controls.Power))
	t.RawSetString("coolant", lua.LNumber(st.Controls.Coolant))

	rods := e.vm.NewTable()
	for _, r := range st.Controls.Rods {
		rods.Append(lua.LNumber(r))
	}
	t.RawSetString("rods", rods)
	return t
}

func decodeDirective(rt *lua.LTable) (Directive, error) {
	var d Directive
	var err error

	if d.Power, err = optNumber(rt, "power"); err != nil {
		return Directive{}, err
	}
	if d.Coolant, err = optNumber(rt, "coolant"); err != nil {
		return Directive{}, err
	}

	switch v := rt.RawGetString("active").(type) {
	case *lua.LNilType:
	case lua.LBool:
		b := bool(v)
		d.Active = &b
	default:
		return Directive{}, fmt.Errorf("active: got %s, want boolean", v.Type())
	}

	d.Scram = lua.LVAsBool(rt.RawGetString("scram"))

	switch v := rt.RawGetString("rods").(type) {
	case *lua.LNilType:
	case *lua.LTable:
		d.Rods = make(map[int]float64)
		var bad lua.LValue
		v.ForEach(func(k, val lua.LValue) {
			idx, kok := k.(lua.LNumber)
			n, vok := val.(lua.LNumber)
			switch {
			case !kok:
				bad = k
				return
			case !vok:
				bad = val
				return
			}
			// Lua arrays are 1-based
			d.Rods[int(idx)-1] = float64(n)
		})
		if bad != nil {
			return Directive{}, fmt.Errorf("rods: entries must be numbers indexed from 1, got %s", bad.Type())
		}
	default:
		return Directive{}, fmt.Errorf("rods: got %s, want table", v.Type())
	}

	return d, nil
}

func optNumber(rt *lua.LTable, key string) (*float64, error) {
	switch v := rt.RawGetString(key).(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LNumber:
		f := float64(v)
		return &f, nil
	default:
		return nil, fmt.Errorf("%s: got %s, want number", key, v.Type())
	}
}

// Close releases the Lua VM.
func (e *Engine) Close() {
	if e.vm != nil {
		e.vm.Close()
		e.vm = nil
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
