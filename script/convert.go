package script

import (
	"fmt"
	"sort"

	"github.com/reglet-dev/reglet-scripthost/capability"
	"github.com/reglet-dev/reglet-scripthost/engine"
	lua "github.com/yuin/gopher-lua"
)

// ToLua converts a Go value into a Lua value owned by L. Unsupported types
// become their fmt %v string.
func ToLua(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return x
	case bool:
		return lua.LBool(x)
	case string:
		return lua.LString(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case uint64:
		return lua.LNumber(x)
	case float32:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case engine.Vec3:
		return capability.NewVector(L, x)
	case engine.Quat:
		return capability.NewQuaternion(L, x)
	case []string:
		tbl := L.CreateTable(len(x), 0)
		for _, s := range x {
			tbl.Append(lua.LString(s))
		}
		return tbl
	case []any:
		tbl := L.CreateTable(len(x), 0)
		for _, e := range x {
			tbl.Append(ToLua(L, e))
		}
		return tbl
	case map[string]any:
		tbl := L.CreateTable(0, len(x))
		for k, e := range x {
			tbl.RawSetString(k, ToLua(L, e))
		}
		return tbl
	case fmt.Stringer:
		return lua.LString(x.String())
	default:
		return lua.LString(fmt.Sprintf("%v", x))
	}
}

// FromLua converts a Lua value to plain Go values. Tables with only
// consecutive integer keys from 1 become []any, others map[string]any.
// Functions are returned as *lua.LFunction.
func FromLua(lv lua.LValue) any {
	return fromLua(lv, 0)
}

const maxConvertDepth = 32

func fromLua(lv lua.LValue, depth int) any {
	switch v := lv.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LUserData:
		return v.Value
	case *lua.LFunction:
		return v
	case *lua.LTable:
		if depth >= maxConvertDepth {
			return nil
		}
		if n := v.Len(); n > 0 && n == countKeys(v) {
			out := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				out = append(out, fromLua(v.RawGetInt(i), depth+1))
			}
			return out
		}
		out := make(map[string]any)
		v.ForEach(func(k, e lua.LValue) {
			out[k.String()] = fromLua(e, depth+1)
		})
		return out
	default:
		return lv.String()
	}
}

func countKeys(t *lua.LTable) int {
	n := 0
	t.ForEach(func(lua.LValue, lua.LValue) { n++ })
	return n
}

// SortedKeys returns the string keys of t in sorted order.
func SortedKeys(t *lua.LTable) []string {
	var keys []string
	t.ForEach(func(k, _ lua.LValue) {
		if s, ok := k.(lua.LString); ok {
			keys = append(keys, string(s))
		}
	})
	sort.Strings(keys)
	return keys
}
