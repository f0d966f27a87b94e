package gatekeeper

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/reglet-dev/reglet-scripthost/capability"
)

// TerminalPrompter provides interactive terminal prompting for facility grants.
type TerminalPrompter struct {
	in  *os.File
	out io.Writer
}

// NewTerminalPrompter creates a prompter on stdin and stderr.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{in: os.Stdin, out: os.Stderr}
}

// IsInteractive checks if we're running in an interactive terminal.
func (p *TerminalPrompter) IsInteractive() bool {
	fileInfo, err := p.in.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// PromptForCapability asks the user to grant a facility.
func (p *TerminalPrompter) PromptForCapability(req capability.Request) (granted bool, always bool, err error) {
	if req.IsBroad {
		fmt.Fprintf(p.out, "\n")
		fmt.Fprintf(p.out, "\033[1;33mSecurity Warning: Broad Facility Requested\033[0m\n\n")
		fmt.Fprintf(p.out, "  %s (risk: %s)\n", req.Description, req.Risk)
		fmt.Fprintf(p.out, "  Recommendation: Review whether your scripts need this facility.\n")
		fmt.Fprintf(p.out, "\n")
	}

	const (
		OptionYes    = "Yes, grant for this session"
		OptionAlways = "Always grant (save to config)"
		OptionNo     = "No, deny"
	)

	var selection string

	err = huh.NewSelect[string]().
		Title("Scripts Requesting Facility").
		Description(req.Description).
		Options(
			huh.NewOption(OptionYes, OptionYes),
			huh.NewOption(OptionAlways, OptionAlways),
			huh.NewOption(OptionNo, OptionNo),
		).
		Value(&selection).
		Run()
	if err != nil {
		return false, false, err
	}

	switch selection {
	case OptionYes:
		return true, false, nil
	case OptionAlways:
		return true, true, nil
	default:
		return false, false, nil
	}
}

// FormatNonInteractiveError creates a helpful error message for non-interactive mode.
func (p *TerminalPrompter) FormatNonInteractiveError(missing *capability.GrantSet) error {
	var msg strings.Builder
	msg.WriteString("Scripts require additional facilities (running in non-interactive mode)\n\n")
	msg.WriteString("Required facilities:\n")

	for _, name := range missing.Facilities {
		desc := name
		if f, ok := capability.LookupFacility(name); ok {
			desc = f.Description
		}
		msg.WriteString(fmt.Sprintf("  - %s\n", desc))
	}

	msg.WriteString("\nTo grant these facilities:\n")
	msg.WriteString("  1. Run interactively and approve when prompted\n")
	msg.WriteString("  2. Set security.trust_all (grants all facilities)\n")
	msg.WriteString("  3. Manually edit: ~/.scripthost/grants.yaml\n")

	return fmt.Errorf("%s", msg.String())
}
