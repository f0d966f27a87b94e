package bridge

import (
	"fmt"

	"github.com/reglet-dev/reglet-scripthost/capability"
	"github.com/reglet-dev/reglet-scripthost/engine"
	lua "github.com/yuin/gopher-lua"
)

// HandleTypeName is the metatable name of world object handles.
const HandleTypeName = "Handle"

var handleMethods = map[string]lua.LGFunction{
	"GetID": func(L *lua.LState) int {
		L.Push(lua.LNumber(checkHandle(L).ID()))
		return 1
	},
	"GetName": func(L *lua.LState) int {
		L.Push(lua.LString(checkHandle(L).Name()))
		return 1
	},
	"GetPath": func(L *lua.LState) int {
		L.Push(lua.LString(checkHandle(L).Path()))
		return 1
	},
	"IsAlive": func(L *lua.LState) int {
		L.Push(lua.LBool(checkHandle(L).Alive()))
		return 1
	},
	"IsActive": func(L *lua.LState) int {
		L.Push(lua.LBool(checkHandle(L).Active()))
		return 1
	},
	"SetActive": func(L *lua.LState) int {
		checkHandle(L).SetActive(L.ToBool(2))
		return 0
	},
	"GetPosition": func(L *lua.LState) int {
		L.Push(capability.NewVector(L, checkHandle(L).Position()))
		return 1
	},
	"SetPosition": func(L *lua.LState) int {
		checkHandle(L).SetPosition(capability.CheckVector(L, 2))
		return 0
	},
	"GetRotationEuler": func(L *lua.LState) int {
		L.Push(capability.NewVector(L, checkHandle(L).Rotation()))
		return 1
	},
	"SetRotationEuler": func(L *lua.LState) int {
		checkHandle(L).SetRotation(capability.CheckVector(L, 2))
		return 0
	},
	"GetRotation": func(L *lua.LState) int {
		L.Push(capability.NewQuaternion(L, engine.QuatFromEuler(checkHandle(L).Rotation())))
		return 1
	},
	"GetScale": func(L *lua.LState) int {
		L.Push(capability.NewVector(L, checkHandle(L).Scale()))
		return 1
	},
	"SetScale": func(L *lua.LState) int {
		checkHandle(L).SetScale(capability.CheckVector(L, 2))
		return 0
	},
	"GetForward": func(L *lua.LState) int {
		L.Push(capability.NewVector(L, checkHandle(L).Forward()))
		return 1
	},
	"GetParent": func(L *lua.LState) int {
		L.Push(PushHandle(L, checkHandle(L).Parent()))
		return 1
	},
	"GetChildCount": func(L *lua.LState) int {
		L.Push(lua.LNumber(checkHandle(L).ChildCount()))
		return 1
	},
	"GetChild": func(L *lua.LState) int {
		h := checkHandle(L)
		L.Push(PushHandle(L, h.Child(L.CheckInt(2))))
		return 1
	},
	"GetChildByName": func(L *lua.LState) int {
		h := checkHandle(L)
		L.Push(PushHandle(L, h.ChildByName(L.CheckString(2))))
		return 1
	},
	"Destroy": func(L *lua.LState) int {
		checkHandle(L).Destroy()
		return 0
	},
}

// RegisterHandleType creates the Handle metatable. Methods are PascalCase
// and called with a colon: obj:GetPosition().
func RegisterHandleType(L *lua.LState) {
	mt := L.NewTypeMetatable(HandleTypeName)
	mt.RawSetString("__index", L.SetFuncs(L.NewTable(), handleMethods))
	L.SetFuncs(mt, map[string]lua.LGFunction{
		"__tostring": func(L *lua.LState) int {
			h := checkHandle(L)
			if !h.Alive() {
				L.Push(lua.LString("Handle(dead)"))
			} else {
				L.Push(lua.LString(fmt.Sprintf("Handle(%s#%d)", h.Name(), h.ID())))
			}
			return 1
		},
		"__eq": func(L *lua.LState) int {
			L.Push(lua.LBool(handleAt(L, 1).ID() == handleAt(L, 2).ID()))
			return 1
		},
		"__newindex": func(L *lua.LState) int {
			L.RaiseError("cannot assign field %q on a Handle", L.CheckString(2))
			return 0
		},
	})
}

// PushHandle wraps h as Handle userdata, or returns nil for a nil handle.
func PushHandle(L *lua.LState, h *engine.Handle) lua.LValue {
	if h == nil {
		return lua.LNil
	}
	ud := L.NewUserData()
	ud.Value = h
	L.SetMetatable(ud, L.GetTypeMetatable(HandleTypeName))
	return ud
}

// ToHandle extracts the handle from userdata.
func ToHandle(lv lua.LValue) (*engine.Handle, bool) {
	ud, ok := lv.(*lua.LUserData)
	if !ok {
		return nil, false
	}
	h, ok := ud.Value.(*engine.Handle)
	return h, ok
}

func handleAt(L *lua.LState, n int) *engine.Handle {
	h, ok := ToHandle(L.Get(n))
	if !ok {
		L.ArgError(n, "Handle expected")
	}
	return h
}

func checkHandle(L *lua.LState) *engine.Handle {
	return handleAt(L, 1)
}
