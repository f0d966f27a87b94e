package script_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteCommand(t *testing.T) {
	tests := []struct {
		name  string
		setup string
		line  string
		want  []string
	}{
		{"empty line", "", "   ", nil},
		{"expression", "", "1 + 1", []string{"=> 2"}},
		{"statement", "", "x = 5", nil},
		{"print style", "", `print("hi")`, []string{"hi"}},
		{"log style", "", `log("hi")`, []string{"hi"}},
		{"zero-arg global function", "function greet() print('hello') return 'ok' end", "greet", []string{"hello", "=> ok"}},
		{"runtime error", "", `error("bad")`, []string{"Error: console:1: bad"}},
		{"nil result", "", "nothing", nil},
		{"nil among values", "", "nil, 1", []string{"=> nil\t1"}},
		{"function returning nil", "function noop() return nil end", "noop", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, out := newHost(t)
			if tt.setup != "" {
				require.NoError(t, h.Execute(tt.setup).Err)
			}
			h.ExecuteCommand(tt.line)
			assert.Equal(t, tt.want, out.lines)
		})
	}
}

func TestExecuteCommand_BareHelp(t *testing.T) {
	h, out := newHost(t)

	res := h.ExecuteCommand("help")
	require.NoError(t, res.Err)
	assert.Equal(t, h.HelpLines(), out.lines)
	assert.Contains(t, out.lines, "help  help() lists reachable globals")
	for _, line := range out.lines {
		assert.NotContains(t, line, "=> ")
	}
}

func TestExecuteCommand_BareBuiltinIsNotCalled(t *testing.T) {
	h, out := newHost(t)

	h.ExecuteCommand("print")
	require.Len(t, out.lines, 1)
	assert.Contains(t, out.lines[0], "=> function")
}

func TestExecuteCommand_FunctionWithParamsIsNotCalled(t *testing.T) {
	h, out := newHost(t)
	require.NoError(t, h.Execute(`function twice(n) calls = (calls or 0) + 1 return n * 2 end`).Err)

	h.ExecuteCommand("twice")
	require.Len(t, out.lines, 1)
	assert.Contains(t, out.lines[0], "=> function")
	assert.Equal(t, "nil", h.Execute("return calls").String())
}

func TestExecuteCommand_Hint(t *testing.T) {
	h, out := newHost(t)
	require.NoError(t, h.Execute(`function spawnWave() end`).Err)

	h.ExecuteCommand(`spawnWav()`)
	require.Len(t, out.lines, 1)
	assert.Contains(t, out.lines[0], "Error: ")
	assert.Contains(t, out.lines[0], "did you mean 'spawnWave'?")

	out.lines = nil
	h.ExecuteCommand(`Vectr3(1, 2, 3)`)
	require.Len(t, out.lines, 1)
	assert.Contains(t, out.lines[0], "did you mean 'Vector3'?")

	out.lines = nil
	h.ExecuteCommand(`zzzzzzzz()`)
	require.Len(t, out.lines, 1)
	assert.NotContains(t, out.lines[0], "did you mean")
}
