package capability

// Request represents a single facility request for prompting.
type Request struct {
	Facility    string
	Description string
	Risk        RiskLevel
	IsBroad     bool
}

// NewRequest describes f for a prompter.
func NewRequest(f Facility) Request {
	return Request{
		Facility:    f.Name,
		Description: f.Description,
		Risk:        f.Risk,
		IsBroad:     f.Broad,
	}
}

// GatekeeperPort grants facilities based on security policy.
type GatekeeperPort interface {
	GrantCapabilities(required *GrantSet, trustAll bool) (*GrantSet, error)
}

// GrantStore persists and retrieves granted facilities.
type GrantStore interface {
	Load() (*GrantSet, error)
	Save(grants *GrantSet) error
	ConfigPath() string
}

// Prompter handles interactive facility authorization.
type Prompter interface {
	IsInteractive() bool
	PromptForCapability(req Request) (granted bool, always bool, err error)
	FormatNonInteractiveError(missing *GrantSet) error
}
