package gatekeeper_test

import (
	"errors"
	"testing"

	"github.com/reglet-dev/reglet-scripthost/capability"
	"github.com/reglet-dev/reglet-scripthost/capability/gatekeeper"
	"github.com/reglet-dev/reglet-scripthost/scripttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	grants *capability.GrantSet
	saves  int
}

func (s *memStore) Load() (*capability.GrantSet, error) { return s.grants.Clone(), nil }
func (s *memStore) ConfigPath() string { return "mem" }

func (s *memStore) Save(g *capability.GrantSet) error {
	s.saves++
	s.grants = g.Clone()
	return nil
}

type scriptedPrompter struct {
	interactive bool
	granted     bool
	always      bool
	err         error
	asked       []string
}

func (p *scriptedPrompter) IsInteractive() bool { return p.interactive }

func (p *scriptedPrompter) PromptForCapability(req capability.Request) (bool, bool, error) {
	p.asked = append(p.asked, req.Facility)
	return p.granted, p.always, p.err
}

func (p *scriptedPrompter) FormatNonInteractiveError(missing *capability.GrantSet) error {
	return errors.New("non-interactive")
}

func newGatekeeper(store *memStore, p *scriptedPrompter, level gatekeeper.SecurityLevel) *gatekeeper.Gatekeeper {
	return gatekeeper.NewGatekeeper(
		gatekeeper.WithStore(store),
		gatekeeper.WithPrompter(p),
		gatekeeper.WithSecurityLevel(level),
		gatekeeper.WithLogger(scripttest.NewTestLogger()),
	)
}

func TestGrantCapabilities(t *testing.T) {
	spawn := capability.NewGrantSet("spawn")

	t.Run("empty request", func(t *testing.T) {
		g := newGatekeeper(&memStore{}, &scriptedPrompter{}, gatekeeper.SecurityStandard)
		got, err := g.GrantCapabilities(nil, false)
		require.NoError(t, err)
		assert.True(t, got.IsEmpty())
	})

	t.Run("trust all", func(t *testing.T) {
		p := &scriptedPrompter{}
		g := newGatekeeper(&memStore{}, p, gatekeeper.SecurityStrict)
		got, err := g.GrantCapabilities(spawn, true)
		require.NoError(t, err)
		assert.True(t, got.Has("spawn"))
		assert.Empty(t, p.asked)
	})

	t.Run("stored grant skips prompt", func(t *testing.T) {
		p := &scriptedPrompter{}
		g := newGatekeeper(&memStore{grants: capability.NewGrantSet("spawn", "other")}, p, gatekeeper.SecurityStandard)
		got, err := g.GrantCapabilities(spawn, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"spawn"}, got.Facilities)
		assert.Empty(t, p.asked)
	})

	t.Run("standard prompts once", func(t *testing.T) {
		store := &memStore{}
		p := &scriptedPrompter{interactive: true, granted: true}
		got, err := newGatekeeper(store, p, gatekeeper.SecurityStandard).GrantCapabilities(spawn, false)
		require.NoError(t, err)
		assert.True(t, got.Has("spawn"))
		assert.Equal(t, []string{"spawn"}, p.asked)
		assert.Zero(t, store.saves)
	})

	t.Run("always persists", func(t *testing.T) {
		store := &memStore{}
		p := &scriptedPrompter{interactive: true, granted: true, always: true}
		_, err := newGatekeeper(store, p, gatekeeper.SecurityStandard).GrantCapabilities(spawn, false)
		require.NoError(t, err)
		assert.Equal(t, 1, store.saves)
		assert.True(t, store.grants.Has("spawn"))
	})

	t.Run("denial leaves facility out", func(t *testing.T) {
		p := &scriptedPrompter{interactive: true}
		got, err := newGatekeeper(&memStore{}, p, gatekeeper.SecurityStandard).GrantCapabilities(spawn, false)
		require.NoError(t, err)
		assert.False(t, got.Has("spawn"))
	})

	t.Run("prompt failure", func(t *testing.T) {
		p := &scriptedPrompter{interactive: true, err: errors.New("tty gone")}
		_, err := newGatekeeper(&memStore{}, p, gatekeeper.SecurityStandard).GrantCapabilities(spawn, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tty gone")
	})

	t.Run("non-interactive standard", func(t *testing.T) {
		g := newGatekeeper(&memStore{}, &scriptedPrompter{}, gatekeeper.SecurityStandard)
		_, err := g.GrantCapabilities(spawn, false)
		assert.EqualError(t, err, "non-interactive")
	})

	t.Run("strict denies high risk", func(t *testing.T) {
		p := &scriptedPrompter{interactive: true, granted: true}
		got, err := newGatekeeper(&memStore{}, p, gatekeeper.SecurityStrict).GrantCapabilities(spawn, false)
		require.NoError(t, err)
		assert.False(t, got.Has("spawn"))
		assert.Empty(t, p.asked)
	})

	t.Run("permissive auto-grants", func(t *testing.T) {
		p := &scriptedPrompter{}
		got, err := newGatekeeper(&memStore{}, p, gatekeeper.SecurityPermissive).GrantCapabilities(spawn, false)
		require.NoError(t, err)
		assert.True(t, got.Has("spawn"))
		assert.Empty(t, p.asked)
	})
}

func TestParseSecurityLevel(t *testing.T) {
	for _, s := range []string{"strict", "standard", "permissive"} {
		l, err := gatekeeper.ParseSecurityLevel(s)
		require.NoError(t, err)
		assert.Equal(t, gatekeeper.SecurityLevel(s), l)
	}
	_, err := gatekeeper.ParseSecurityLevel("paranoid")
	assert.Error(t, err)
}

func TestTerminalPrompter_NonInteractiveError(t *testing.T) {
	err := gatekeeper.NewTerminalPrompter().FormatNonInteractiveError(capability.NewGrantSet("spawn"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), capability.Spawn.Description)
	assert.Contains(t, err.Error(), "security.trust_all")
}
