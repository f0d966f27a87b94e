package hostapp

import (
	"fmt"
	"strings"

	scripthost "github.com/reglet-dev/reglet-scripthost"
	"github.com/reglet-dev/reglet-scripthost/engine"
	"github.com/reglet-dev/reglet-scripthost/script"
	"github.com/reglet-dev/reglet-scripthost/ui"
)

// Host panel layout.
const (
	PanelName      = "Script Host"
	TabOptions     = "Options"
	TabExtra       = "Extra"
	TabHierarchy   = "Hierarchy"
	OptVersion     = "version"
	OptGeneration  = "generation"
	OptShowOnStart = "showOnStart"
	OptReload      = "reload"
	OptRefresh     = "refresh"

	ShowOnStartText = "Show this UI on startup"
	ReloadText      = "Reload Lua Scripts"
	RefreshText     = "Refresh"
)

const hierarchyPrefix = "node-"

// baseline re-creates the host panel. Entries surviving from an earlier
// generation are kept; only the generation label changes.
func (a *App) baseline(h *script.Host) error {
	var errs []string
	must := func(what string, s ui.Status) {
		if s != ui.Ok && s != ui.AlreadyRegistered {
			errs = append(errs, fmt.Sprintf("%s: %s", what, s))
		}
	}

	must("panel", a.registry.RegisterPanel(PanelName, ui.WithMinSize(ui.Size{W: 280, H: 160})))
	for _, tab := range []string{TabOptions, TabExtra, TabHierarchy} {
		must("tab "+tab, a.registry.RegisterTab(PanelName, tab))
	}

	must(OptVersion, a.registry.RegisterLabel(PanelName, TabOptions, OptVersion, "API version: "+scripthost.APIVersion))
	genText := "Generation: " + h.Generation().String()
	if s := a.registry.RegisterLabel(PanelName, TabOptions, OptGeneration, genText); s == ui.AlreadyRegistered {
		must(OptGeneration, a.registry.UpdateOption(PanelName, TabOptions, ui.OptionPatch{OptionID: OptGeneration, DisplayName: &genText}))
	} else {
		must(OptGeneration, s)
	}
	must(OptShowOnStart, a.registry.RegisterSelector(PanelName, TabOptions, OptShowOnStart, ShowOnStartText,
		a.cfg.UI.ShowOnStart, a.setShowOnStart))

	must(OptReload, a.registry.RegisterButton(PanelName, TabExtra, OptReload, ReloadText, func(...any) error {
		a.RequestReload("button")
		return nil
	}))

	must(OptRefresh, a.registry.RegisterButton(PanelName, TabHierarchy, OptRefresh, RefreshText, func(...any) error {
		return a.RefreshHierarchy()
	}))

	if len(errs) > 0 {
		return fmt.Errorf("host panel: %s", strings.Join(errs, ", "))
	}
	return nil
}

func (a *App) setShowOnStart(args ...any) error {
	var v bool
	if len(args) > 0 {
		v, _ = args[0].(bool)
	}
	a.cfg.UI.ShowOnStart = v
	if err := a.saveConfig(a.cfgPath, a.cfg); err != nil {
		return fmt.Errorf("saving show_on_start: %w", err)
	}
	a.logger.Info("preference saved", "show_on_start", v)
	return nil
}

// RefreshHierarchy rebuilds one label per world object, indented by depth.
func (a *App) RefreshHierarchy() error {
	for _, id := range a.hierarchy {
		a.registry.RemoveOption(PanelName, TabHierarchy, id)
	}
	a.hierarchy = a.hierarchy[:0]

	roots, ok := a.world.(engine.Hierarchy)
	if !ok {
		return nil
	}
	var walk func(id engine.ObjectID, depth int) error
	walk = func(id engine.ObjectID, depth int) error {
		optID := fmt.Sprintf("%s%d", hierarchyPrefix, id)
		text := strings.Repeat("  ", depth) + a.world.Name(id)
		if s := a.registry.RegisterLabel(PanelName, TabHierarchy, optID, text); s != ui.Ok {
			return fmt.Errorf("hierarchy label %s: %s", optID, s)
		}
		a.hierarchy = append(a.hierarchy, optID)
		for _, c := range a.world.Children(id) {
			if err := walk(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range roots.Roots() {
		if err := walk(r, 0); err != nil {
			return err
		}
	}
	return nil
}

// HierarchyLines returns the labels built by the last refresh.
func (a *App) HierarchyLines() []string {
	lines := make([]string, 0, len(a.hierarchy))
	for _, id := range a.hierarchy {
		if o, ok := a.registry.Option(PanelName, TabHierarchy, id); ok {
			lines = append(lines, o.Name())
		}
	}
	return lines
}
