package capability

import (
	"github.com/reglet-dev/reglet-scripthost/engine"
	lua "github.com/yuin/gopher-lua"
)

// Metatable names registered in every sandbox.
const (
	VectorTypeName     = "Vector3"
	QuaternionTypeName = "Quaternion"
)

// RegisterValueTypes creates the Vector3 and Quaternion metatables. Values
// are immutable userdata; arithmetic returns new values.
func RegisterValueTypes(L *lua.LState) {
	vmt := L.NewTypeMetatable(VectorTypeName)
	L.SetFuncs(vmt, map[string]lua.LGFunction{
		"__index":    vectorIndex,
		"__newindex": immutable,
		"__add": func(L *lua.LState) int {
			return pushVector(L, CheckVector(L, 1).Add(CheckVector(L, 2)))
		},
		"__sub": func(L *lua.LState) int {
			return pushVector(L, CheckVector(L, 1).Sub(CheckVector(L, 2)))
		},
		"__mul": vectorMul,
		"__div": func(L *lua.LState) int {
			d := float64(L.CheckNumber(2))
			if d == 0 {
				L.ArgError(2, "division by zero")
			}
			return pushVector(L, CheckVector(L, 1).Scale(1/d))
		},
		"__unm": func(L *lua.LState) int {
			return pushVector(L, CheckVector(L, 1).Scale(-1))
		},
		"__eq": func(L *lua.LState) int {
			L.Push(lua.LBool(CheckVector(L, 1) == CheckVector(L, 2)))
			return 1
		},
		"__tostring": func(L *lua.LState) int {
			L.Push(lua.LString(CheckVector(L, 1).String()))
			return 1
		},
	})

	qmt := L.NewTypeMetatable(QuaternionTypeName)
	L.SetFuncs(qmt, map[string]lua.LGFunction{
		"__index":    quaternionIndex,
		"__newindex": immutable,
		"__mul": func(L *lua.LState) int {
			q := CheckQuaternion(L, 1)
			if o, ok := ToQuaternion(L.Get(2)); ok {
				L.Push(NewQuaternion(L, q.Mul(o)))
				return 1
			}
			return pushVector(L, q.Rotate(CheckVector(L, 2)))
		},
		"__eq": func(L *lua.LState) int {
			L.Push(lua.LBool(CheckQuaternion(L, 1) == CheckQuaternion(L, 2)))
			return 1
		},
		"__tostring": func(L *lua.LState) int {
			L.Push(lua.LString(CheckQuaternion(L, 1).String()))
			return 1
		},
	})
}

// NewVector wraps v as Vector3 userdata.
func NewVector(L *lua.LState, v engine.Vec3) lua.LValue {
	ud := L.NewUserData()
	ud.Value = v
	L.SetMetatable(ud, L.GetTypeMetatable(VectorTypeName))
	return ud
}

// NewQuaternion wraps q as Quaternion userdata.
func NewQuaternion(L *lua.LState, q engine.Quat) lua.LValue {
	ud := L.NewUserData()
	ud.Value = q
	L.SetMetatable(ud, L.GetTypeMetatable(QuaternionTypeName))
	return ud
}

// ToVector accepts Vector3 userdata, {x=, y=, z=} or {1, 2, 3}.
func ToVector(lv lua.LValue) (engine.Vec3, bool) {
	switch v := lv.(type) {
	case *lua.LUserData:
		vec, ok := v.Value.(engine.Vec3)
		return vec, ok
	case *lua.LTable:
		if x, ok := v.RawGetString("x").(lua.LNumber); ok {
			y, _ := v.RawGetString("y").(lua.LNumber)
			z, _ := v.RawGetString("z").(lua.LNumber)
			return engine.V(float64(x), float64(y), float64(z)), true
		}
		if x, ok := v.RawGetInt(1).(lua.LNumber); ok {
			y, _ := v.RawGetInt(2).(lua.LNumber)
			z, _ := v.RawGetInt(3).(lua.LNumber)
			return engine.V(float64(x), float64(y), float64(z)), true
		}
	}
	return engine.Vec3{}, false
}

// CheckVector raises an argument error unless argument n is a vector.
func CheckVector(L *lua.LState, n int) engine.Vec3 {
	v, ok := ToVector(L.Get(n))
	if !ok {
		L.ArgError(n, "Vector3 expected")
	}
	return v
}

// OptVector returns argument n as a vector, or def when it is nil.
func OptVector(L *lua.LState, n int, def engine.Vec3) engine.Vec3 {
	if L.Get(n) == lua.LNil {
		return def
	}
	return CheckVector(L, n)
}

// ToQuaternion accepts Quaternion userdata or {x=, y=, z=, w=}.
func ToQuaternion(lv lua.LValue) (engine.Quat, bool) {
	switch v := lv.(type) {
	case *lua.LUserData:
		q, ok := v.Value.(engine.Quat)
		return q, ok
	case *lua.LTable:
		w, ok := v.RawGetString("w").(lua.LNumber)
		if !ok {
			return engine.Quat{}, false
		}
		x, _ := v.RawGetString("x").(lua.LNumber)
		y, _ := v.RawGetString("y").(lua.LNumber)
		z, _ := v.RawGetString("z").(lua.LNumber)
		return engine.Quat{X: float64(x), Y: float64(y), Z: float64(z), W: float64(w)}, true
	}
	return engine.Quat{}, false
}

// CheckQuaternion raises an argument error unless argument n is a quaternion.
func CheckQuaternion(L *lua.LState, n int) engine.Quat {
	q, ok := ToQuaternion(L.Get(n))
	if !ok {
		L.ArgError(n, "Quaternion expected")
	}
	return q
}

func pushVector(L *lua.LState, v engine.Vec3) int {
	L.Push(NewVector(L, v))
	return 1
}

func vectorMul(L *lua.LState) int {
	if n, ok := L.Get(1).(lua.LNumber); ok {
		return pushVector(L, CheckVector(L, 2).Scale(float64(n)))
	}
	return pushVector(L, CheckVector(L, 1).Scale(float64(L.CheckNumber(2))))
}

func vectorIndex(L *lua.LState) int {
	v := CheckVector(L, 1)
	switch L.CheckString(2) {
	case "x":
		L.Push(lua.LNumber(v.X))
	case "y":
		L.Push(lua.LNumber(v.Y))
	case "z":
		L.Push(lua.LNumber(v.Z))
	case "magnitude":
		L.Push(lua.LNumber(v.Length()))
	case "normalized":
		L.Push(NewVector(L, v.Normalized()))
	default:
		L.Push(lua.LNil)
	}
	return 1
}

func quaternionIndex(L *lua.LState) int {
	q := CheckQuaternion(L, 1)
	switch L.CheckString(2) {
	case "x":
		L.Push(lua.LNumber(q.X))
	case "y":
		L.Push(lua.LNumber(q.Y))
	case "z":
		L.Push(lua.LNumber(q.Z))
	case "w":
		L.Push(lua.LNumber(q.W))
	default:
		L.Push(lua.LNil)
	}
	return 1
}

func immutable(L *lua.LState) int {
	L.RaiseError("cannot assign field %q: value is immutable", L.CheckString(2))
	return 0
}
