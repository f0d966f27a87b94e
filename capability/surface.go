package capability

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	scripthost "github.com/reglet-dev/reglet-scripthost"
	"github.com/reglet-dev/reglet-scripthost/engine"
	lua "github.com/yuin/gopher-lua"
)

// DefaultWhitelist returns the utility surface every generation receives.
func DefaultWhitelist() *Whitelist {
	return MustWhitelist(
		WithEntries(globalEntries()...),
		WithEntries(vectorEntries()...),
		WithEntries(quaternionEntries()...),
		WithEntries(colorEntries()...),
		WithEntries(mathfEntries()...),
		WithEntries(timeEntries()...),
		WithProtectedNames(lua.MathLibName, lua.StringLibName, lua.TabLibName),
	)
}

func static(fn lua.LGFunction) Factory {
	return func(Env) lua.LGFunction { return fn }
}

func globalEntries() []Entry {
	return []Entry{
		{Function: "log", Doc: "log(...) writes to the console", Factory: printer("log")},
		{Function: "print", Doc: "print(...) writes to the console", Factory: printer("print")},
		{Function: "help", Doc: "help() lists reachable globals", Command: true, Factory: func(env Env) lua.LGFunction {
			return func(L *lua.LState) int {
				for _, line := range env.Help() {
					env.Output(line)
				}
				return 0
			}
		}},
		{Function: "requireApi", Doc: "requireApi(constraint) errors unless the host API satisfies it", Factory: static(requireAPI)},
	}
}

func printer(name string) Factory {
	return func(env Env) lua.LGFunction {
		return func(L *lua.LState) int {
			parts := make([]string, 0, L.GetTop())
			for i := 1; i <= L.GetTop(); i++ {
				parts = append(parts, L.ToStringMeta(L.Get(i)).String())
			}
			line := strings.Join(parts, " ")
			env.Output(line)
			env.Logger().Info(line, "source", "script", "via", name, "generation", env.Generation())
			return 0
		}
	}
}

func requireAPI(L *lua.LState) int {
	raw := L.CheckString(1)
	c, err := semver.NewConstraint(raw)
	if err != nil {
		L.ArgError(1, fmt.Sprintf("invalid version constraint %q: %v", raw, err))
	}
	v := semver.MustParse(scripthost.APIVersion)
	if ok, errs := c.Validate(v); !ok {
		msg := fmt.Sprintf("host API %s does not satisfy %s", v, raw)
		if len(errs) > 0 {
			msg += ": " + errs[0].Error()
		}
		L.RaiseError("%s", msg)
	}
	L.Push(lua.LString(v.String()))
	return 1
}

func vectorConst(v engine.Vec3) Factory {
	return static(func(L *lua.LState) int { return pushVector(L, v) })
}

func vectorEntries() []Entry {
	const t = VectorTypeName
	return []Entry{
		{Type: t, Function: "new", Call: true, Doc: "Vector3(x, y, z)", Factory: static(func(L *lua.LState) int {
			return pushVector(L, engine.V(
				float64(L.OptNumber(1, 0)),
				float64(L.OptNumber(2, 0)),
				float64(L.OptNumber(3, 0)),
			))
		})},
		{Type: t, Function: "zero", Factory: vectorConst(engine.Zero)},
		{Type: t, Function: "one", Factory: vectorConst(engine.One)},
		{Type: t, Function: "up", Factory: vectorConst(engine.Up)},
		{Type: t, Function: "down", Factory: vectorConst(engine.Down)},
		{Type: t, Function: "left", Factory: vectorConst(engine.Left)},
		{Type: t, Function: "right", Factory: vectorConst(engine.Right)},
		{Type: t, Function: "forward", Factory: vectorConst(engine.Forward)},
		{Type: t, Function: "back", Factory: vectorConst(engine.Back)},
		{Type: t, Function: "distance", Doc: "distance(a, b)", Factory: static(func(L *lua.LState) int {
			L.Push(lua.LNumber(CheckVector(L, 1).Distance(CheckVector(L, 2))))
			return 1
		})},
		{Type: t, Function: "lerp", Doc: "lerp(a, b, t) with t clamped to [0, 1]", Factory: static(func(L *lua.LState) int {
			return pushVector(L, CheckVector(L, 1).Lerp(CheckVector(L, 2), float64(L.CheckNumber(3))))
		})},
		{Type: t, Function: "dot", Doc: "dot(a, b)", Factory: static(func(L *lua.LState) int {
			L.Push(lua.LNumber(CheckVector(L, 1).Dot(CheckVector(L, 2))))
			return 1
		})},
		{Type: t, Function: "cross", Doc: "cross(a, b)", Factory: static(func(L *lua.LState) int {
			return pushVector(L, CheckVector(L, 1).Cross(CheckVector(L, 2)))
		})},
	}
}

func quaternionEntries() []Entry {
	const t = QuaternionTypeName
	return []Entry{
		{Type: t, Function: "new", Call: true, Doc: "Quaternion(x, y, z, w)", Factory: static(func(L *lua.LState) int {
			L.Push(NewQuaternion(L, engine.Quat{
				X: float64(L.OptNumber(1, 0)),
				Y: float64(L.OptNumber(2, 0)),
				Z: float64(L.OptNumber(3, 0)),
				W: float64(L.OptNumber(4, 1)),
			}))
			return 1
		})},
		{Type: t, Function: "identity", Factory: static(func(L *lua.LState) int {
			L.Push(NewQuaternion(L, engine.Identity))
			return 1
		})},
		{Type: t, Function: "euler", Doc: "euler(x, y, z) in degrees, or euler(vector)", Factory: static(func(L *lua.LState) int {
			deg, ok := ToVector(L.Get(1))
			if !ok {
				deg = engine.V(float64(L.CheckNumber(1)), float64(L.CheckNumber(2)), float64(L.CheckNumber(3)))
			}
			L.Push(NewQuaternion(L, engine.QuatFromEuler(deg)))
			return 1
		})},
	}
}

// Color is an RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// Named colors exposed as Color statics.
var namedColors = map[string]Color{
	"white": {1, 1, 1, 1},
	"black": {0, 0, 0, 1},
	"red":   {1, 0, 0, 1},
	"green": {0, 1, 0, 1},
	"blue":  {0, 0, 1, 1},
}

// ParseHexColor parses #RGB, #RRGGBB or #RRGGBBAA, with or without the hash.
func ParseHexColor(s string) (Color, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return Color{}, fmt.Errorf("invalid hex color %q", s)
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return Color{
		R: float64(n>>24&0xff) / 255,
		G: float64(n>>16&0xff) / 255,
		B: float64(n>>8&0xff) / 255,
		A: float64(n&0xff) / 255,
	}, nil
}

// NewColor returns c as a {r, g, b, a} table.
func NewColor(L *lua.LState, c Color) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("r", lua.LNumber(c.R))
	tbl.RawSetString("g", lua.LNumber(c.G))
	tbl.RawSetString("b", lua.LNumber(c.B))
	tbl.RawSetString("a", lua.LNumber(c.A))
	return tbl
}

func colorEntries() []Entry {
	const t = "Color"
	entries := []Entry{
		{Type: t, Function: "new", Call: true, Doc: "Color(r, g, b, a)", Factory: static(func(L *lua.LState) int {
			L.Push(NewColor(L, Color{
				R: clamp01(float64(L.OptNumber(1, 0))),
				G: clamp01(float64(L.OptNumber(2, 0))),
				B: clamp01(float64(L.OptNumber(3, 0))),
				A: clamp01(float64(L.OptNumber(4, 1))),
			}))
			return 1
		})},
		{Type: t, Function: "hex", Doc: "hex(\"#rrggbb\")", Factory: static(func(L *lua.LState) int {
			c, err := ParseHexColor(L.CheckString(1))
			if err != nil {
				L.ArgError(1, err.Error())
			}
			L.Push(NewColor(L, c))
			return 1
		})},
	}
	for _, name := range []string{"white", "black", "red", "green", "blue"} {
		c := namedColors[name]
		entries = append(entries, Entry{Type: t, Function: name, Factory: static(func(L *lua.LState) int {
			L.Push(NewColor(L, c))
			return 1
		})})
	}
	return entries
}

func clamp01(v float64) float64 { return math.Max(0, math.Min(1, v)) }

func mathfEntries() []Entry {
	const t = "Mathf"
	return []Entry{
		{Type: t, Function: "clamp", Doc: "clamp(v, min, max)", Factory: static(func(L *lua.LState) int {
			v, lo, hi := float64(L.CheckNumber(1)), float64(L.CheckNumber(2)), float64(L.CheckNumber(3))
			L.Push(lua.LNumber(math.Max(lo, math.Min(hi, v))))
			return 1
		})},
		{Type: t, Function: "clamp01", Factory: static(func(L *lua.LState) int {
			L.Push(lua.LNumber(clamp01(float64(L.CheckNumber(1)))))
			return 1
		})},
		{Type: t, Function: "lerp", Doc: "lerp(a, b, t) with t clamped to [0, 1]", Factory: static(func(L *lua.LState) int {
			a, b := float64(L.CheckNumber(1)), float64(L.CheckNumber(2))
			L.Push(lua.LNumber(a + (b-a)*clamp01(float64(L.CheckNumber(3)))))
			return 1
		})},
		{Type: t, Function: "round", Factory: static(func(L *lua.LState) int {
			L.Push(lua.LNumber(math.Round(float64(L.CheckNumber(1)))))
			return 1
		})},
		{Type: t, Function: "sign", Factory: static(func(L *lua.LState) int {
			if L.CheckNumber(1) < 0 {
				L.Push(lua.LNumber(-1))
			} else {
				L.Push(lua.LNumber(1))
			}
			return 1
		})},
	}
}

func timeEntries() []Entry {
	const t = "Time"
	return []Entry{
		{Type: t, Function: "now", Doc: "now() seconds since the epoch", Factory: func(env Env) lua.LGFunction {
			return func(L *lua.LState) int {
				L.Push(lua.LNumber(float64(env.Now().UnixMilli()) / 1000))
				return 1
			}
		}},
		{Type: t, Function: "delta", Doc: "delta() seconds since the previous frame", Factory: func(env Env) lua.LGFunction {
			return func(L *lua.LState) int {
				L.Push(lua.LNumber(env.FrameDelta().Seconds()))
				return 1
			}
		}},
		{Type: t, Function: "frame", Doc: "frame() frames rendered so far", Factory: func(env Env) lua.LGFunction {
			return func(L *lua.LState) int {
				L.Push(lua.LNumber(env.FrameCount()))
				return 1
			}
		}},
	}
}
