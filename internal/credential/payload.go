// Package credential builds and validates the QR-encoded pass for one
// attendee. Encoding is a pure transform of an attendee snapshot; the
// distribution pipeline turns the payload into an image and persists it.
package credential

import (
	"encoding/json"
	"errors"
	"fmt"

	"festpass/internal/attendee"
)

var (
	// ErrValidation means a required attendee field was absent at issue time.
	ErrValidation = errors.New("credential validation failed")
	// ErrMalformedPayload means scanned text was not parseable payload data.
	ErrMalformedPayload = errors.New("malformed credential payload")
	// ErrMissingIdentifier means the payload parsed but carries no id.
	ErrMissingIdentifier = errors.New("credential payload missing id")
)

// Payload is the denormalized snapshot embedded in a QR code. Field names
// match the wire format the scanner apps already read.
type Payload struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Roll        string `json:"roll"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	VegNonveg   string `json:"veg_nonveg"`
	Dept        string `json:"dept"`
	IsVolunteer bool   `json:"isVolunteer"`
	// IsFaculty extends the discriminator so faculty passes route to their
	// own table; payloads without it still decode as students.
	IsFaculty  bool   `json:"isFaculty,omitempty"`
	TshirtSize string `json:"tshirt_size,omitempty"`
	Team        string `json:"team,omitempty"`
	// Token is the signed variant of the credential. Payloads without it
	// (the legacy raw-field format) still decode.
	Token string `json:"jwtToken,omitempty"`
}

// Kind routes a decoded payload to the right attendee table.
func (p Payload) Kind() attendee.Kind {
	switch {
	case p.IsVolunteer:
		return attendee.KindVolunteer
	case p.IsFaculty:
		return attendee.KindFaculty
	default:
		return attendee.KindStudent
	}
}

// Encode builds the payload for one attendee. Deterministic for identical
// input; the signed token is attached separately by the caller.
func Encode(att attendee.Attendee) (Payload, error) {
	required := map[string]string{
		"name":       att.Name,
		"email":      att.Email,
		"veg_nonveg": att.VegNonveg,
		"dept":       att.Dept,
	}
	if att.Kind.RollRequired() {
		required["college_roll"] = att.Roll
	}
	for field, val := range required {
		if val == "" {
			return Payload{}, fmt.Errorf("%w: missing %s", ErrValidation, field)
		}
	}
	if att.ID == 0 {
		return Payload{}, fmt.Errorf("%w: missing id", ErrValidation)
	}

	p := Payload{
		ID:          att.ID,
		Name:        att.Name,
		Roll:        att.Roll,
		Email:       att.Email,
		Phone:       att.Phone,
		VegNonveg:   att.VegNonveg,
		Dept:        att.Dept,
		IsVolunteer: att.Kind == attendee.KindVolunteer,
		IsFaculty:   att.Kind == attendee.KindFaculty,
	}
	if att.Kind.HasTshirt() {
		p.TshirtSize = att.TshirtSize
	}
	if att.Kind.HasTeam() {
		p.Team = att.Team
	}
	return p, nil
}

// Marshal renders the payload to its QR wire form.
func (p Payload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// Decode parses raw scanned text back into a typed payload. A scan that
// fails here should prompt the operator to scan again; it never mutates
// anything.
func Decode(raw string) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if p.ID == 0 {
		return Payload{}, ErrMissingIdentifier
	}
	return p, nil
}
