package bridge

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/reglet-dev/reglet-scripthost/schema"
	"github.com/reglet-dev/reglet-scripthost/script"
	"github.com/reglet-dev/reglet-scripthost/ui"
	lua "github.com/yuin/gopher-lua"
)

// Schema kinds for the structured arguments of the ui bridge.
const (
	KindPanelOptions  = "ui.panel"
	KindTabOptions    = "ui.tab"
	KindOptionOptions = "ui.option"
	KindOptionPatch   = "ui.optionPatch"
)

// PanelOptions is the optional table passed to ui.registerPanel.
type PanelOptions struct {
	X         *int  `json:"x,omitempty"`
	Y         *int  `json:"y,omitempty"`
	Width     *int  `json:"width,omitempty" jsonschema:"minimum=1"`
	Height    *int  `json:"height,omitempty" jsonschema:"minimum=1"`
	MinWidth  *int  `json:"minWidth,omitempty" jsonschema:"minimum=1"`
	MinHeight *int  `json:"minHeight,omitempty" jsonschema:"minimum=1"`
	Collapsed *bool `json:"collapsed,omitempty"`
}

// TabOptions is the optional table passed to ui.registerTab.
type TabOptions struct {
	MinWidth  *int `json:"minWidth,omitempty" jsonschema:"minimum=1"`
	MinHeight *int `json:"minHeight,omitempty" jsonschema:"minimum=1"`
}

// OptionOptions is the optional table passed to ui.registerOption. The
// callback field is taken out before validation.
type OptionOptions struct {
	Value   *bool `json:"value,omitempty"`
	Visible *bool `json:"visible,omitempty"`
	Enabled *bool `json:"enabled,omitempty"`
}

// RegisterSchemas adds the ui bridge's argument schemas to reg.
func RegisterSchemas(reg *schema.Registry) error {
	models := []struct {
		kind  string
		model any
	}{
		{KindPanelOptions, PanelOptions{}},
		{KindTabOptions, TabOptions{}},
		{KindOptionOptions, OptionOptions{}},
		{KindOptionPatch, ui.OptionPatch{}},
	}
	for _, m := range models {
		if err := reg.Register(m.kind, m.model); err != nil {
			return fmt.Errorf("registering ui bridge schemas: %w", err)
		}
	}
	return nil
}

// UI is the ui global. Every entry it registers is owned by its host's
// generation.
type UI struct {
	host     *script.Host
	registry *ui.Registry
	schemas  *schema.Registry
	logger   *slog.Logger
}

// NewUI builds the ui bridge. schemas must hold the kinds from
// RegisterSchemas.
func NewUI(host *script.Host, registry *ui.Registry, schemas *schema.Registry) *UI {
	return &UI{
		host:     host,
		registry: registry,
		schemas:  schemas,
		logger:   host.Logger(),
	}
}

func (u *UI) owner() ui.EntryOption {
	return ui.WithOwner(u.host.Generation())
}

// Callback wraps fn so the registry invokes it through the host.
func (u *UI) Callback(fn *lua.LFunction) ui.Callback {
	if fn == nil {
		return nil
	}
	ref := u.host.Capture(fn)
	return func(args ...any) error {
		return u.host.Call(ref, args...).Err
	}
}

// decode validates the Lua table at argument n against kind and fills out.
// A nil argument leaves out untouched.
func (u *UI) decode(L *lua.LState, n int, kind string, out any) ui.Status {
	lv := L.Get(n)
	if lv == lua.LNil {
		return ui.Ok
	}
	tbl, ok := lv.(*lua.LTable)
	if !ok {
		return ui.InvalidArgument
	}
	return u.decodeTable(tbl, kind, out)
}

func (u *UI) decodeTable(tbl *lua.LTable, kind string, out any) ui.Status {
	doc := script.FromLua(tbl)
	if _, isList := doc.([]any); isList {
		return ui.InvalidArgument
	}
	res, err := u.schemas.Validate(kind, doc)
	if err != nil {
		u.logger.Error("validating script arguments", "kind", kind, "error", err)
		return ui.Unknown
	}
	if !res.Valid {
		u.logger.Warn("invalid script arguments", "kind", kind, "errors", res.Errors)
		return ui.InvalidArgument
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return ui.InvalidArgument
	}
	if err := json.Unmarshal(raw, out); err != nil {
		u.logger.Warn("decoding script arguments", "kind", kind, "error", err)
		return ui.InvalidArgument
	}
	return ui.Ok
}

func pushStatus(L *lua.LState, s ui.Status) int {
	L.Push(lua.LString(s.String()))
	return 1
}

func (u *UI) registerPanel(L *lua.LState) int {
	name := L.CheckString(1)
	var o PanelOptions
	if s := u.decode(L, 2, KindPanelOptions, &o); s != ui.Ok {
		return pushStatus(L, s)
	}

	opts := []ui.EntryOption{u.owner()}
	if o.X != nil || o.Y != nil || o.Width != nil || o.Height != nil {
		r := ui.Rect{W: ui.DefaultPanelSize.W, H: ui.DefaultPanelSize.H}
		setInt(&r.X, o.X)
		setInt(&r.Y, o.Y)
		setInt(&r.W, o.Width)
		setInt(&r.H, o.Height)
		opts = append(opts, ui.WithRect(r))
	}
	if o.MinWidth != nil || o.MinHeight != nil {
		opts = append(opts, ui.WithMinSize(minSize(o.MinWidth, o.MinHeight)))
	}

	s := u.registry.RegisterPanel(name, opts...)
	if s == ui.Ok && o.Collapsed != nil {
		u.registry.SetCollapsed(name, *o.Collapsed)
	}
	return pushStatus(L, s)
}

func (u *UI) registerTab(L *lua.LState) int {
	panel, tab := L.CheckString(1), L.CheckString(2)
	var o TabOptions
	if s := u.decode(L, 3, KindTabOptions, &o); s != ui.Ok {
		return pushStatus(L, s)
	}
	opts := []ui.EntryOption{u.owner()}
	if o.MinWidth != nil || o.MinHeight != nil {
		opts = append(opts, ui.WithMinSize(minSize(o.MinWidth, o.MinHeight)))
	}
	return pushStatus(L, u.registry.RegisterTab(panel, tab, opts...))
}

func (u *UI) registerLabel(L *lua.LState) int {
	return pushStatus(L, u.registry.RegisterLabel(
		L.CheckString(1), L.CheckString(2), L.CheckString(3), L.CheckString(4), u.owner()))
}

func (u *UI) registerButton(L *lua.LState) int {
	return pushStatus(L, u.registry.RegisterButton(
		L.CheckString(1), L.CheckString(2), L.CheckString(3), L.CheckString(4),
		u.Callback(L.OptFunction(5, nil)), u.owner()))
}

func (u *UI) registerSelector(L *lua.LState) int {
	return pushStatus(L, u.registry.RegisterSelector(
		L.CheckString(1), L.CheckString(2), L.CheckString(3), L.CheckString(4),
		L.ToBool(5), u.Callback(L.OptFunction(6, nil)), u.owner()))
}

func (u *UI) registerOption(L *lua.LState) int {
	panel, tab, id, name := L.CheckString(1), L.CheckString(2), L.CheckString(3), L.CheckString(4)
	kind, ok := ui.ParseKind(L.CheckString(5))
	if !ok {
		return pushStatus(L, ui.InvalidArgument)
	}

	opts := []ui.EntryOption{u.owner()}
	if tbl, isTable := L.Get(6).(*lua.LTable); isTable {
		settings := L.NewTable()
		var cb *lua.LFunction
		tbl.ForEach(func(k, v lua.LValue) {
			if k.String() == "callback" {
				cb, _ = v.(*lua.LFunction)
				return
			}
			settings.RawSet(k, v)
		})
		var o OptionOptions
		if s := u.decodeTable(settings, KindOptionOptions, &o); s != ui.Ok {
			return pushStatus(L, s)
		}
		if cb != nil {
			opts = append(opts, ui.WithCallback(u.Callback(cb)))
		}
		if o.Value != nil {
			opts = append(opts, ui.WithValue(*o.Value))
		}
		if o.Visible != nil && !*o.Visible {
			opts = append(opts, ui.WithHidden())
		}
		if o.Enabled != nil && !*o.Enabled {
			opts = append(opts, ui.WithDisabled())
		}
	} else if L.Get(6) != lua.LNil {
		return pushStatus(L, ui.InvalidArgument)
	}

	return pushStatus(L, u.registry.RegisterOption(panel, tab, id, name, kind, opts...))
}

func (u *UI) updateOption(L *lua.LState) int {
	panel, tab := L.CheckString(1), L.CheckString(2)
	tbl, ok := L.Get(3).(*lua.LTable)
	if !ok {
		return pushStatus(L, ui.InvalidArgument)
	}
	var patch ui.OptionPatch
	if s := u.decodeTable(tbl, KindOptionPatch, &patch); s != ui.Ok {
		return pushStatus(L, s)
	}
	return pushStatus(L, u.registry.UpdateOption(panel, tab, patch))
}

func (u *UI) table(L *lua.LState) *lua.LTable {
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"registerPanel":    u.registerPanel,
		"registerTab":      u.registerTab,
		"registerLabel":    u.registerLabel,
		"registerButton":   u.registerButton,
		"registerSelector": u.registerSelector,
		"registerOption":   u.registerOption,
		"updateOption":     u.updateOption,
		"removeOption": func(L *lua.LState) int {
			return pushStatus(L, u.registry.RemoveOption(L.CheckString(1), L.CheckString(2), L.CheckString(3)))
		},
		"removeTab": func(L *lua.LState) int {
			return pushStatus(L, u.registry.RemoveTab(L.CheckString(1), L.CheckString(2)))
		},
		"removePanel": func(L *lua.LState) int {
			return pushStatus(L, u.registry.RemovePanel(L.CheckString(1)))
		},
		"hasPanel": func(L *lua.LState) int {
			L.Push(lua.LBool(u.registry.HasPanel(L.CheckString(1))))
			return 1
		},
		"hasTab": func(L *lua.LState) int {
			L.Push(lua.LBool(u.registry.HasTab(L.CheckString(1), L.CheckString(2))))
			return 1
		},
		"hasOption": func(L *lua.LState) int {
			L.Push(lua.LBool(u.registry.HasOption(L.CheckString(1), L.CheckString(2), L.CheckString(3))))
			return 1
		},
		"getValue": func(L *lua.LState) int {
			o, ok := u.registry.Option(L.CheckString(1), L.CheckString(2), L.CheckString(3))
			if !ok {
				L.Push(lua.LNil)
			} else {
				L.Push(lua.LBool(o.Value()))
			}
			return 1
		},
	})
}

// StatusTable returns {Ok = "Ok", NotFound = "NotFound", ...}.
func StatusTable(L *lua.LState) *lua.LTable {
	tbl := L.NewTable()
	for _, s := range ui.Statuses() {
		tbl.RawSetString(s.String(), lua.LString(s.String()))
	}
	return tbl
}

// OptionKindTable returns {Label = "Label", Selector = "Selector", Button = "Button"}.
func OptionKindTable(L *lua.LState) *lua.LTable {
	tbl := L.NewTable()
	for _, k := range ui.Kinds() {
		tbl.RawSetString(k.String(), lua.LString(k.String()))
	}
	return tbl
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func minSize(w, h *int) ui.Size {
	s := ui.DefaultMinSize
	setInt(&s.W, w)
	setInt(&s.H, h)
	return s
}
