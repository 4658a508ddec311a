package enums

import "fmt"

// SweepstakesStatus is the lifecycle state of a sweepstakes.
// Transitions are monotonic: upcoming -> active -> ended -> winners_announced.
type SweepstakesStatus string

const (
	SweepstakesStatusUpcoming         SweepstakesStatus = "upcoming"
	SweepstakesStatusActive           SweepstakesStatus = "active"
	SweepstakesStatusEnded            SweepstakesStatus = "ended"
	SweepstakesStatusWinnersAnnounced SweepstakesStatus = "winners_announced"
)

var validSweepstakesStatuses = []SweepstakesStatus{
	SweepstakesStatusUpcoming,
	SweepstakesStatusActive,
	SweepstakesStatusEnded,
	SweepstakesStatusWinnersAnnounced,
}

// String implements fmt.Stringer.
func (s SweepstakesStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SweepstakesStatus.
func (s SweepstakesStatus) IsValid() bool {
	for _, candidate := range validSweepstakesStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSweepstakesStatus converts raw input into a SweepstakesStatus.
func ParseSweepstakesStatus(value string) (SweepstakesStatus, error) {
	for _, candidate := range validSweepstakesStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sweepstakes status %q", value)
}
