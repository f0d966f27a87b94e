package hostapp

import (
	"fmt"
	"log/slog"

	"github.com/reglet-dev/reglet-scripthost/capability"
	"github.com/reglet-dev/reglet-scripthost/capability/gatekeeper"
	"github.com/reglet-dev/reglet-scripthost/capability/grantstore"
	"github.com/reglet-dev/reglet-scripthost/config"
)

// ResolveGrants decides which configured facilities this session may use.
// Extra gatekeeper options, such as a prompter, are applied last.
func ResolveGrants(cfg config.SecurityConfig, logger *slog.Logger, opts ...gatekeeper.Option) (*capability.GrantSet, error) {
	required := capability.NewGrantSet(cfg.Facilities...)
	if required.IsEmpty() {
		return required, nil
	}
	for _, name := range required.Facilities {
		if _, ok := capability.LookupFacility(name); !ok {
			return nil, fmt.Errorf("unknown facility %q in security.facilities", name)
		}
	}

	level, err := gatekeeper.ParseSecurityLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	gk := gatekeeper.NewGatekeeper(append([]gatekeeper.Option{
		gatekeeper.WithStore(grantstore.NewFileStore(grantstore.WithPath(cfg.GrantsFile))),
		gatekeeper.WithSecurityLevel(level),
		gatekeeper.WithLogger(logger),
	}, opts...)...)

	granted, err := gk.GrantCapabilities(required, cfg.TrustAll)
	if err != nil {
		return nil, fmt.Errorf("granting facilities: %w", err)
	}
	for _, f := range capability.AnalyzeRisk(granted).RiskFactors {
		logger.Info("facility granted", "facility", f.Facility, "risk", f.Level.String())
	}
	return granted, nil
}
