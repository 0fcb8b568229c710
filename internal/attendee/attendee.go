package attendee

import "time"

// Delivery status for an attendee's credential email.
const (
	StatusPending = "pending"
	StatusSending = "sending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Attendee is one row from the kind's table. Roll is empty for faculty
// without a college roll; TshirtSize and Team are populated only for the
// kinds that carry them.
type Attendee struct {
	ID         int64     `json:"id"`
	Kind       Kind      `json:"kind"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Roll       string    `json:"college_roll,omitempty"`
	Dept       string    `json:"dept"`
	VegNonveg  string    `json:"veg_nonveg"`
	TshirtSize string    `json:"tshirt_size,omitempty"`
	Team       string    `json:"team,omitempty"`
	Food       bool      `json:"food"`
	Merch      bool      `json:"merch"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	QRCode     string    `json:"qrcode,omitempty"`
	Token      string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// Organizer is a staff identity supplied by the auth layer. Read-only from
// the ledger's perspective; name and email feed the audit trail.
type Organizer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	IsGod   bool   `json:"isGod"`
}

// LogEntry is one append-only audit record. Entries are never mutated or
// deleted.
type LogEntry struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	OrganizerName string    `json:"organizer_name"`
	Email         string    `json:"email"`
	ActionType    string    `json:"actionType"`
	FresherRoll   string    `json:"fresher_roll"`
}
