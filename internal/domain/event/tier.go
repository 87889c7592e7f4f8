package event

import "github.com/cockroachdb/errors"

// Tier is an urgency level of a reminder. The zero value means nothing was sent.
// Tiers are ordered: a larger value is more urgent.
type Tier int

const (
	TierNone Tier = iota
	Tier24
	Tier4
	Tier1
)

// Status strings stored in the Notification_status column.
const (
	StatusNone    = ""
	Status24Hours = "Notified_24hours"
	Status4Hours  = "Notified_4hours"
	Status1Hour   = "Notified_1hour"
)

// ErrUnknownStatus is returned by ParseStatus for text that names no tier.
var ErrUnknownStatus = errors.New("unknown notification status")

// Status is the text persisted for t.
func (t Tier) Status() string {
	switch t {
	case Tier24:
		return Status24Hours
	case Tier4:
		return Status4Hours
	case Tier1:
		return Status1Hour
	default:
		return StatusNone
	}
}

// Lead is the human wording of how far ahead the tier fires.
func (t Tier) Lead() string {
	switch t {
	case Tier24:
		return "24 hours"
	case Tier4:
		return "4 hours"
	case Tier1:
		return "1 hour"
	default:
		return ""
	}
}

func (t Tier) String() string {
	switch t {
	case Tier24:
		return "tier24"
	case Tier4:
		return "tier4"
	case Tier1:
		return "tier1"
	default:
		return "none"
	}
}

// MoreUrgentThan reports whether t comes after other in none→tier24→tier4→tier1.
func (t Tier) MoreUrgentThan(other Tier) bool { return t > other }

// ParseStatus maps a stored status cell back to a Tier. An empty cell is TierNone.
func ParseStatus(s string) (Tier, error) {
	switch s {
	case StatusNone:
		return TierNone, nil
	case Status24Hours:
		return Tier24, nil
	case Status4Hours:
		return Tier4, nil
	case Status1Hour:
		return Tier1, nil
	default:
		return TierNone, errors.Wrapf(ErrUnknownStatus, "%q", s)
	}
}
