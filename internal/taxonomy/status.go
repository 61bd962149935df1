package taxonomy

import "git.home.luguber.info/inful/docweave/internal/foundation/normalization"

// Status is the maturity tier of an implementation module.
type Status string

const (
	StatusStable       Status = "stable"
	StatusBeta         Status = "beta"
	StatusExperimental Status = "experimental"
	StatusDeprecated   Status = "deprecated"
	StatusUnknown      Status = "unknown"
)

var statusNormalizer = normalization.NewNormalizer(map[string]Status{
	"stable":       StatusStable,
	"beta":         StatusBeta,
	"experimental": StatusExperimental,
	"deprecated":   StatusDeprecated,
}, StatusUnknown)

// ParseStatus maps free-form input onto a Status, yielding StatusUnknown for anything unrecognized.
func ParseStatus(raw string) Status {
	return statusNormalizer.Normalize(raw)
}

// KnownStatuses returns the recognized statuses in priority order.
func KnownStatuses() []Status {
	return []Status{StatusStable, StatusBeta, StatusExperimental, StatusDeprecated}
}

// Priority orders statuses for display: stable < beta < experimental < deprecated < unknown.
func (s Status) Priority() int {
	switch s {
	case StatusStable:
		return 0
	case StatusBeta:
		return 1
	case StatusExperimental:
		return 2
	case StatusDeprecated:
		return 3
	default:
		return 4
	}
}

func (s Status) String() string { return string(s) }
