package script

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Result is the outcome of running a chunk or a function. A faulted result
// has no values and a non-nil Err.
type Result struct {
	Values []lua.LValue
	// Text holds the tostring form of each value, taken when it was produced.
	Text []string
	Err  error
}

// Empty reports whether nothing was returned.
func (r Result) Empty() bool {
	return len(r.Values) == 0
}

// OK reports whether the run completed without a fault.
func (r Result) OK() bool {
	return r.Err == nil
}

// First returns the first value, or nil.
func (r Result) First() lua.LValue {
	if len(r.Values) == 0 {
		return lua.LNil
	}
	return r.Values[0]
}

// String joins the values' text forms with tabs, like print does.
func (r Result) String() string {
	return strings.Join(r.Text, "\t")
}

func failed(err error) Result {
	return Result{Err: err}
}
