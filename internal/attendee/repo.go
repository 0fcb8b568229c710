package attendee

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository persists attendees, the action log, and organizers in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func columns(kind Kind) string {
	cols := "id, name, email, phone, college_roll, dept, veg_nonveg, food, status, reason, qrcode, token, created_at"
	switch kind {
	case KindStudent:
		cols += ", tshirt_size, merch"
	case KindVolunteer:
		cols += ", team"
	}
	return cols
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttendee(row scanner, kind Kind) (Attendee, error) {
	var att Attendee
	var phone, roll, dept, diet, status, reason, qrcode, token, tshirt, team sql.NullString
	var food, merch sql.NullBool
	var created sql.NullTime
	dest := []any{&att.ID, &att.Name, &att.Email, &phone, &roll, &dept, &diet, &food, &status, &reason, &qrcode, &token, &created}
	switch kind {
	case KindStudent:
		dest = append(dest, &tshirt, &merch)
	case KindVolunteer:
		dest = append(dest, &team)
	}
	if err := row.Scan(dest...); err != nil {
		return Attendee{}, err
	}
	att.Kind = kind
	att.Phone = phone.String
	att.Roll = roll.String
	att.Dept = dept.String
	att.VegNonveg = diet.String
	att.Food = food.Bool
	att.Merch = merch.Bool
	att.Status = status.String
	if att.Status == "" {
		att.Status = StatusPending
	}
	att.Reason = reason.String
	att.QRCode = qrcode.String
	att.Token = token.String
	att.TshirtSize = tshirt.String
	att.Team = team.String
	att.CreatedAt = created.Time
	return att, nil
}

// Get returns a single attendee, or nil when no row matches.
func (r *Repository) Get(ctx context.Context, kind Kind, id int64) (*Attendee, error) {
	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, columns(kind), kind.Table()), id)
	att, err := scanAttendee(row, kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &att, nil
}

// List returns all attendees of a kind for the dashboard tables.
func (r *Repository) List(ctx context.Context, kind Kind) ([]Attendee, error) {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %s ORDER BY id`, columns(kind), kind.Table()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Attendee
	for rows.Next() {
		att, err := scanAttendee(rows, kind)
		if err != nil {
			return nil, err
		}
		res = append(res, att)
	}
	return res, rows.Err()
}

// ListUnsent returns attendees whose credential has not gone out yet,
// oldest first, bounded by limit.
func (r *Repository) ListUnsent(ctx context.Context, kind Kind, limit int) ([]Attendee, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %s
			WHERE status IS DISTINCT FROM 'sent' AND status IS DISTINCT FROM 'sending'
			ORDER BY id LIMIT $1`, columns(kind), kind.Table()), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Attendee
	for rows.Next() {
		att, err := scanAttendee(rows, kind)
		if err != nil {
			return nil, err
		}
		res = append(res, att)
	}
	return res, rows.Err()
}

// Insert writes a new attendee row. The id is assigned by the caller
// (unix-millis at creation time, matching the dashboard convention).
func (r *Repository) Insert(ctx context.Context, att Attendee) error {
	cols := "id, name, email, phone, college_roll, dept, veg_nonveg, food, status, reason, qrcode"
	args := []any{att.ID, att.Name, att.Email, att.Phone, nullable(att.Roll), att.Dept, att.VegNonveg, att.Food, att.Status, att.Reason, att.QRCode}
	switch att.Kind {
	case KindStudent:
		cols += ", tshirt_size, merch"
		args = append(args, att.TshirtSize, att.Merch)
	case KindVolunteer:
		cols += ", team"
		args = append(args, att.Team)
	}
	placeholders := ""
	for i := range args {
		if i > 0 {
			placeholders += ","
		}
		placeholders += fmt.Sprintf("$%d", i+1)
	}
	_, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, att.Kind.Table(), cols, placeholders), args...)
	return err
}

// UpdateStatus persists the delivery status and failure reason.
func (r *Repository) UpdateStatus(ctx context.Context, kind Kind, id int64, status, reason string) error {
	_, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET status = $2, reason = $3 WHERE id = $1`, kind.Table()),
		id, status, reason)
	return err
}

// SetToken stores the signed credential token on the attendee row.
func (r *Repository) SetToken(ctx context.Context, kind Kind, id int64, token string) error {
	_, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET token = $2 WHERE id = $1`, kind.Table()), id, token)
	return err
}

// SetQRCode stores the public URL of the uploaded QR image.
func (r *Repository) SetQRCode(ctx context.Context, kind Kind, id int64, url string) error {
	_, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET qrcode = $2 WHERE id = $1`, kind.Table()), id, url)
	return err
}

// CollectResource flips a collection flag with a single conditional update so
// two concurrent scans cannot both be credited. Returns true when this call
// performed the transition. column must be "food" or "merch".
func (r *Repository) CollectResource(ctx context.Context, kind Kind, id int64, column string) (bool, error) {
	if column != "food" && column != "merch" {
		return false, fmt.Errorf("unknown collection column %q", column)
	}
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET %s = TRUE WHERE id = $1 AND %s = FALSE`, kind.Table(), column, column), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AppendLog inserts one audit entry. Entries are append-only.
func (r *Repository) AppendLog(ctx context.Context, e LogEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO logs (id, created_at, organizer_name, email, "actionType", fresher_roll)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.ID, e.CreatedAt, e.OrganizerName, e.Email, e.ActionType, e.FresherRoll)
	return err
}

// LogsForRoll returns prior audit entries for one attendee roll, newest first.
func (r *Repository) LogsForRoll(ctx context.Context, roll string, limit int) ([]LogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at, organizer_name, email, "actionType", fresher_roll
		FROM logs WHERE fresher_roll = $1
		ORDER BY created_at DESC LIMIT $2
	`, roll, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLogs(rows)
}

// ListLogs returns audit entries with optional action and time filters.
func (r *Repository) ListLogs(ctx context.Context, action string, since time.Time, limit int) ([]LogEntry, error) {
	if limit <= 0 {
		limit = 200
	}
	query := `SELECT id, created_at, organizer_name, email, "actionType", fresher_roll FROM logs`
	args := []any{}
	clauses := []string{}
	if action != "" {
		args = append(args, action)
		clauses = append(clauses, fmt.Sprintf(`"actionType" = $%d`, len(args)))
	}
	if !since.IsZero() {
		args = append(args, since)
		clauses = append(clauses, fmt.Sprintf(`created_at >= $%d`, len(args)))
	}
	for i, c := range clauses {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLogs(rows)
}

func collectLogs(rows *sql.Rows) ([]LogEntry, error) {
	var res []LogEntry
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.OrganizerName, &e.Email, &e.ActionType, &e.FresherRoll); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// GetOrganizer looks up an organizer identity plus its access-code hash.
// Returns nil when the email is unknown.
func (r *Repository) GetOrganizer(ctx context.Context, email string) (*Organizer, string, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT name, email, access_hash, is_admin, is_god
		FROM organizers WHERE email = $1
	`, email)
	var (
		org  Organizer
		hash string
	)
	if err := row.Scan(&org.Name, &org.Email, &hash, &org.IsAdmin, &org.IsGod); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", nil
		}
		return nil, "", err
	}
	return &org, hash, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
