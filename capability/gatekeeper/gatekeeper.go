// Package gatekeeper handles facility granting: loads stored grants,
// diffs against required, prompts for missing, persists decisions.
package gatekeeper

import (
	"fmt"
	"log/slog"

	"github.com/reglet-dev/reglet-scripthost/capability"
	"github.com/reglet-dev/reglet-scripthost/capability/grantstore"
)

// SecurityLevel controls the gatekeeper's prompting behavior.
type SecurityLevel string

const (
	SecurityStrict     SecurityLevel = "strict"
	SecurityStandard   SecurityLevel = "standard"
	SecurityPermissive SecurityLevel = "permissive"
)

// ParseSecurityLevel accepts strict, standard or permissive.
func ParseSecurityLevel(s string) (SecurityLevel, error) {
	switch l := SecurityLevel(s); l {
	case SecurityStrict, SecurityStandard, SecurityPermissive:
		return l, nil
	default:
		return "", fmt.Errorf("unknown security level %q", s)
	}
}

// Gatekeeper handles facility granting: loads stored grants,
// diffs against required, prompts for missing, persists decisions.
type Gatekeeper struct {
	store         capability.GrantStore
	prompter      capability.Prompter
	securityLevel SecurityLevel
	logger        *slog.Logger
}

var _ capability.GatekeeperPort = (*Gatekeeper)(nil)

// Option configures a Gatekeeper.
type Option func(*Gatekeeper)

// WithStore sets the grant store.
func WithStore(s capability.GrantStore) Option {
	return func(g *Gatekeeper) { g.store = s }
}

// WithPrompter sets the prompter.
func WithPrompter(p capability.Prompter) Option {
	return func(g *Gatekeeper) { g.prompter = p }
}

// WithSecurityLevel sets the security policy level.
func WithSecurityLevel(level SecurityLevel) Option {
	return func(g *Gatekeeper) { g.securityLevel = level }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gatekeeper) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGatekeeper creates a facility gatekeeper with pluggable store and prompter.
func NewGatekeeper(opts ...Option) *Gatekeeper {
	g := &Gatekeeper{
		securityLevel: SecurityStandard,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.store == nil {
		g.store = grantstore.NewFileStore()
	}
	if g.prompter == nil {
		g.prompter = NewTerminalPrompter()
	}
	return g
}

// GrantCapabilities determines which facilities to grant based on security
// policy, user input and saved grants. A denied facility is left out of the
// result; only a prompt failure or a non-interactive session is an error.
func (g *Gatekeeper) GrantCapabilities(required *capability.GrantSet, trustAll bool) (*capability.GrantSet, error) {
	if required.IsEmpty() {
		return &capability.GrantSet{}, nil
	}

	if trustAll {
		g.logger.Warn("auto-granting all requested facilities (security.trust_all enabled)",
			"facilities", required.Facilities)
		return required.Clone(), nil
	}

	existing, err := g.store.Load()
	if err != nil {
		g.logger.Warn("failed to load grants", "path", g.store.ConfigPath(), "error", err)
		existing = &capability.GrantSet{}
	}

	missing := required.Difference(existing)
	missing.Deduplicate()

	granted := existing.Clone()
	if missing.IsEmpty() {
		return intersect(granted, required), nil
	}

	if g.securityLevel == SecurityStandard && !g.prompter.IsInteractive() {
		return nil, g.prompter.FormatNonInteractiveError(missing)
	}

	shouldSave := false
	for _, name := range missing.Facilities {
		req := requestFor(name)
		ok, always, err := g.evaluateWithSecurityLevel(req)
		if err != nil {
			return nil, fmt.Errorf("prompting for facility %s: %w", name, err)
		}
		if !ok {
			g.logger.Info("facility not granted", "facility", name, "level", g.securityLevel)
			continue
		}
		granted.Merge(capability.NewGrantSet(name))
		if always {
			shouldSave = true
		}
	}

	if shouldSave {
		if err := g.store.Save(granted); err != nil {
			g.logger.Warn("failed to save grants", "path", g.store.ConfigPath(), "error", err)
		} else {
			g.logger.Info("grants saved", "path", g.store.ConfigPath())
		}
	}

	return intersect(granted, required), nil
}

func requestFor(name string) capability.Request {
	if f, ok := capability.LookupFacility(name); ok {
		return capability.NewRequest(f)
	}
	return capability.Request{
		Facility:    name,
		Description: name + ": unknown facility",
		Risk:        capability.RiskCritical,
		IsBroad:     true,
	}
}

// intersect keeps the granted facilities the session actually asked for.
func intersect(granted, required *capability.GrantSet) *capability.GrantSet {
	return required.Difference(required.Difference(granted))
}

// evaluateWithSecurityLevel applies security level policy and prompts if needed.
func (g *Gatekeeper) evaluateWithSecurityLevel(req capability.Request) (bool, bool, error) {
	risk := capability.AnalyzeRisk(capability.NewGrantSet(req.Facility))
	riskDesc := ""
	if len(risk.RiskFactors) > 0 {
		riskDesc = risk.RiskFactors[0].Description
	}

	switch g.securityLevel {
	case SecurityStrict:
		if req.IsBroad || risk.Level >= capability.RiskHigh {
			g.logger.Error("facility denied by security policy",
				"level", "strict",
				"facility", req.Facility,
				"risk", risk.Level.String(),
				"detail", riskDesc)
			return false, false, nil
		}
	case SecurityPermissive:
		if req.IsBroad {
			g.logger.Warn("auto-granting broad facility (permissive mode)",
				"facility", req.Facility)
		}
		return true, false, nil
	}

	if !g.prompter.IsInteractive() {
		return false, false, nil
	}
	return g.prompter.PromptForCapability(req)
}
