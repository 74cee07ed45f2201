// Package script exposes the leader image operations to Lua mod scripts as
// the LeaderImages global table.
//
//	LeaderImages.register("LEADER_YUNI", "fs://yuni/leader.png")
//	LeaderImages.register("LEADER_AMINA", {imagePath = "fs://amina/leader.png", autoInferPaths = false})
//	local path = LeaderImages.image_path("LEADER_YUNI", "declaring_war")
//	local geo = LeaderImages.display_config("LEADER_YUNI", "age-select")
//	local mood = LeaderImages.initial_state("PLAYER_RELATIONSHIP_FRIENDLY", false)
//
// Every function is total: bad arguments yield false or nil, never a Lua
// error, so one broken registration cannot abort the rest of a script.
package script

import (
	"context"
	"fmt"
	"math"

	"github.com/Shopify/go-lua"

	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/geometry"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/state"
)

// GlobalName is the Lua global holding the binding table.
const GlobalName = "LeaderImages"

// Host is the service the binding calls. *leaderimage.Service satisfies it.
type Host interface {
	RegisterImageLeader(ctx context.Context, leaderID string, raw any) bool
	IsImageLeader(leaderID string) bool
	GetImagePath(leaderID string, st state.Name) (string, bool)
	GetImageDisplayConfig(leaderID, surface string) (geometry.Config, bool)
	GetDiplomacyInitialState(relationship any, atWar bool) state.Name
}

// Runtime is a Lua state with the binding installed.
type Runtime struct {
	ctx   context.Context
	host  Host
	state *lua.State
}

// New creates a runtime with the standard libraries and the binding.
func New(ctx context.Context, host Host) *Runtime {
	if ctx == nil {
		ctx = context.Background()
	}
	r := &Runtime{ctx: ctx, host: host, state: lua.NewState()}
	lua.OpenLibraries(r.state)
	r.register()
	return r
}

// RunFile executes a script file.
func (r *Runtime) RunFile(path string) error {
	if err := lua.LoadFile(r.state, path, ""); err != nil {
		return fmt.Errorf("load lua %s: %w", path, err)
	}
	if err := r.state.ProtectedCall(0, 0, 0); err != nil {
		return fmt.Errorf("run lua %s: %w", path, err)
	}
	return nil
}

// RunString executes source under the chunk name name.
func (r *Runtime) RunString(name, source string) error {
	if err := lua.LoadBuffer(r.state, source, name, ""); err != nil {
		return fmt.Errorf("load lua %s: %w", name, err)
	}
	if err := r.state.ProtectedCall(0, 0, 0); err != nil {
		return fmt.Errorf("run lua %s: %w", name, err)
	}
	return nil
}

func (r *Runtime) register() {
	r.state.NewTable()
	lua.SetFunctions(r.state, []lua.RegistryFunction{
		{Name: "register", Function: r.luaRegister},
		{Name: "is_image_leader", Function: r.luaIsImageLeader},
		{Name: "image_path", Function: r.luaImagePath},
		{Name: "display_config", Function: r.luaDisplayConfig},
		{Name: "initial_state", Function: r.luaInitialState},
	}, 0)
	r.state.SetGlobal(GlobalName)
}

func (r *Runtime) luaRegister(l *lua.State) int {
	id, _ := argString(l, 1)
	var raw any
	switch l.TypeOf(2) {
	case lua.TypeString:
		raw, _ = l.ToString(2)
	case lua.TypeTable:
		raw = tableToMap(l, 2)
	}
	l.PushBoolean(r.host.RegisterImageLeader(r.ctx, id, raw))
	return 1
}

func (r *Runtime) luaIsImageLeader(l *lua.State) int {
	id, _ := argString(l, 1)
	l.PushBoolean(r.host.IsImageLeader(id))
	return 1
}

func (r *Runtime) luaImagePath(l *lua.State) int {
	id, _ := argString(l, 1)
	st, _ := argString(l, 2)
	path, ok := r.host.GetImagePath(id, state.Name(st))
	if !ok {
		l.PushNil()
		return 1
	}
	l.PushString(path)
	return 1
}

func (r *Runtime) luaDisplayConfig(l *lua.State) int {
	id, _ := argString(l, 1)
	surface, _ := argString(l, 2)
	geo, ok := r.host.GetImageDisplayConfig(id, surface)
	if !ok {
		l.PushNil()
		return 1
	}
	l.NewTable()
	l.PushNumber(geo.WidthMultiplier)
	l.SetField(-2, geometry.FieldWidthMultiplier)
	l.PushNumber(geo.LeftOffsetMultiplier)
	l.SetField(-2, geometry.FieldLeftOffsetMultiplier)
	l.PushNumber(geo.TopOffsetMultiplier)
	l.SetField(-2, geometry.FieldTopOffsetMultiplier)
	l.PushString(string(geo.Position))
	l.SetField(-2, geometry.FieldPosition)
	return 1
}

func (r *Runtime) luaInitialState(l *lua.State) int {
	signal := luaToGo(l, 1)
	atWar := l.ToBoolean(2)
	l.PushString(string(r.host.GetDiplomacyInitialState(signal, atWar)))
	return 1
}

// argString accepts strings only; Lua's number-to-string coercion is not
// applied to leader ids or state names.
func argString(l *lua.State, index int) (string, bool) {
	if l.TypeOf(index) != lua.TypeString {
		return "", false
	}
	return l.ToString(index)
}

func tableToMap(l *lua.State, index int) map[string]any {
	output := map[string]any{}
	if l.TypeOf(index) != lua.TypeTable {
		return output
	}

	index = l.AbsIndex(index)
	l.PushNil()
	for l.Next(index) {
		if l.TypeOf(-2) == lua.TypeString {
			key, _ := l.ToString(-2)
			output[key] = luaToGo(l, -1)
		}
		l.Pop(1)
	}
	return output
}

func luaToGo(l *lua.State, index int) any {
	switch l.TypeOf(index) {
	case lua.TypeString:
		value, _ := l.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := l.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return l.ToBoolean(index)
	case lua.TypeTable:
		return tableToMap(l, index)
	default:
		return nil
	}
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 && math.Abs(value) < 1<<53 {
		return int64(value)
	}
	return value
}
