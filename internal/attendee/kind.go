package attendee

import "fmt"

// Kind discriminates the three attendee variants. Each kind maps to its own
// table and carries its own capability set: merch and t-shirt sizes exist for
// students only, teams for volunteers only.
type Kind string

const (
	KindStudent   Kind = "student"
	KindVolunteer Kind = "volunteer"
	KindFaculty   Kind = "faculty"
)

// ParseKind validates a kind string from the wire.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindStudent, KindVolunteer, KindFaculty:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown attendee kind %q", s)
}

// Table returns the backing table for the kind.
func (k Kind) Table() string {
	switch k {
	case KindVolunteer:
		return "volunteers"
	case KindFaculty:
		return "faculties"
	default:
		return "people"
	}
}

// HasMerch reports whether the kind is entitled to merchandise.
func (k Kind) HasMerch() bool { return k == KindStudent }

// HasTshirt reports whether the kind carries a t-shirt size.
func (k Kind) HasTshirt() bool { return k == KindStudent }

// HasTeam reports whether the kind carries a team assignment.
func (k Kind) HasTeam() bool { return k == KindVolunteer }

// RollRequired reports whether a college roll must be present. Faculty rows
// may have no roll.
func (k Kind) RollRequired() bool { return k != KindFaculty }

// FoodAction returns the fixed action-log vocabulary for a food collection.
func (k Kind) FoodAction() string {
	switch k {
	case KindVolunteer:
		return "Food collected for Volunteer"
	case KindFaculty:
		return "Food collected for faculty"
	default:
		return "food collected"
	}
}

// MerchAction returns the action-log string for a merch collection, and false
// for kinds that have no merchandise entitlement.
func (k Kind) MerchAction() (string, bool) {
	if !k.HasMerch() {
		return "", false
	}
	return "merchandise collected", true
}

// CreatedAction returns the action-log string for creating a record of this kind.
func (k Kind) CreatedAction() string {
	switch k {
	case KindVolunteer:
		return "Added new volunteer"
	case KindFaculty:
		return "Added new faculty"
	default:
		return "Added new student"
	}
}
