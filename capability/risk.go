package capability

import "fmt"

// RiskLevel represents the security risk level of a facility grant.
type RiskLevel int

const (
	RiskNone RiskLevel = iota
	RiskLow
	RiskMedium
	RiskHigh
	RiskCritical
)

func (r RiskLevel) String() string {
	switch r {
	case RiskNone:
		return "none"
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return fmt.Sprintf("RiskLevel(%d)", int(r))
	}
}

// RiskReport contains the overall risk assessment for a set of grants.
type RiskReport struct {
	RiskFactors []RiskFactor
	Level       RiskLevel
}

// RiskFactor describes a single risk element in a grant.
type RiskFactor struct {
	Description string
	Facility    string
	Level       RiskLevel
}

// AnalyzeRisk evaluates the risk level of a GrantSet. Unknown facility names
// are rated critical.
func AnalyzeRisk(grants *GrantSet) RiskReport {
	report := RiskReport{
		Level: RiskNone,
	}

	if grants == nil {
		return report
	}

	addFactor := func(level RiskLevel, desc, facility string) {
		if level > RiskNone {
			report.RiskFactors = append(report.RiskFactors, RiskFactor{
				Level:       level,
				Description: desc,
				Facility:    facility,
			})
			if level > report.Level {
				report.Level = level
			}
		}
	}

	for _, name := range grants.Facilities {
		f, ok := LookupFacility(name)
		if !ok {
			addFactor(RiskCritical, "Unknown facility", name)
			continue
		}
		addFactor(f.Risk, f.Description, name)
	}

	return report
}
