package script

import (
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
	lua "github.com/yuin/gopher-lua"
)

var (
	bareIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	printStyle     = regexp.MustCompile(`^(print|log)\s*\(`)
	identifiers    = regexp.MustCompile(`(^|[^.:A-Za-z0-9_])([A-Za-z_][A-Za-z0-9_]*)`)
	stringLiterals = regexp.MustCompile(`"(\\.|[^"\\])*"|'(\\.|[^'\\])*'`)
)

// maxHintDistance is the largest edit distance a "did you mean" hint allows.
const maxHintDistance = 2

var luaKeywords = map[string]bool{
	"and": true, "break": true, "do": true, "else": true, "elseif": true,
	"end": true, "false": true, "for": true, "function": true, "if": true,
	"in": true, "local": true, "nil": true, "not": true, "or": true,
	"repeat": true, "return": true, "then": true, "true": true, "until": true,
	"while": true, "goto": true,
}

// ExecuteCommand runs one console line.
//
// A line naming a global Lua function without parameters, or a whitelisted
// command such as help, calls it.
// Anything else is tried as an expression, then as a statement. Results of
// non print-style lines are written as "=> result" unless every value is
// nil; faults as
// "Error: message", with a suggestion when an identifier looks mistyped.
func (h *Host) ExecuteCommand(line string) Result {
	line = strings.TrimSpace(line)
	if line == "" || h.closed {
		return Result{}
	}

	var res Result
	if fn, ok := h.zeroArgFunction(line); ok {
		res = h.invoke(line, fn, nil)
	} else {
		res = h.evaluate(line)
	}

	if res.Err != nil {
		msg := errorMessage(res.Err)
		if hint := h.hint(line); hint != "" {
			msg += " (did you mean '" + hint + "'?)"
		}
		h.Output("Error: " + msg)
		return res
	}
	if !allNil(res.Values) && !printStyle.MatchString(line) {
		h.Output("=> " + res.String())
	}
	return res
}

func allNil(values []lua.LValue) bool {
	for _, v := range values {
		if v != lua.LNil {
			return false
		}
	}
	return true
}

func (h *Host) zeroArgFunction(line string) (*lua.LFunction, bool) {
	if !bareIdentifier.MatchString(line) {
		return nil, false
	}
	fn, ok := h.state.GetGlobal(line).(*lua.LFunction)
	if !ok {
		return nil, false
	}
	if fn.IsG {
		return fn, h.cfg.whitelist.IsCommand(line)
	}
	if fn.Proto == nil || fn.Proto.NumParameters != 0 {
		return nil, false
	}
	return fn, true
}

// evaluate compiles line as an expression first so that "1 + 1" and
// "ui.hasPanel('x')" yield values; statements fall through to the second
// form.
func (h *Host) evaluate(line string) Result {
	if _, err := h.state.LoadString("return " + line); err == nil {
		return h.run("console", "return "+line)
	}
	return h.run("console", line)
}

// hint returns the closest global to the first identifier in line that is
// not itself a global.
func (h *Host) hint(line string) string {
	globals := h.Globals()
	known := make(map[string]bool, len(globals))
	for _, g := range globals {
		known[g] = true
	}

	code := stringLiterals.ReplaceAllString(line, `""`)
	for _, m := range identifiers.FindAllStringSubmatch(code, -1) {
		word := m[2]
		if luaKeywords[word] || known[word] {
			continue
		}
		best, bestDist := "", maxHintDistance+1
		for _, g := range globals {
			if d := levenshtein.ComputeDistance(strings.ToLower(word), strings.ToLower(g)); d < bestDist {
				best, bestDist = g, d
			}
		}
		return best
	}
	return ""
}
