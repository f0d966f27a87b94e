package scripthost

import "strconv"

// APIVersion is the version of the script-facing surface. Scripts gate on it
// with requireApi.
const APIVersion = "1.2.0"

// Generation identifies one load cycle of the script sandbox.
// Generation 0 is reserved for the host itself.
type Generation uint64

// HostGeneration owns everything registered by host code rather than scripts.
const HostGeneration Generation = 0

// IsHost reports whether g is the host's own generation.
func (g Generation) IsHost() bool { return g == HostGeneration }

// Next returns the generation that follows g.
func (g Generation) Next() Generation { return g + 1 }

func (g Generation) String() string {
	if g.IsHost() {
		return "host"
	}
	return "gen-" + strconv.FormatUint(uint64(g), 10)
}
