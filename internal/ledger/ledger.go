// Package ledger owns the collection-state transition protocol: the one-way
// NOT_COLLECTED -> COLLECTED flip per (attendee, resource) pair, with an
// append-only audit trail and duplicate-scan rejection.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"festpass/internal/attendee"
)

// Resource is a collectible entitlement.
type Resource string

const (
	ResourceFood  Resource = "food"
	ResourceMerch Resource = "merch"
)

// ParseResource validates a resource string from the wire.
func ParseResource(s string) (Resource, error) {
	switch Resource(s) {
	case ResourceFood, ResourceMerch:
		return Resource(s), nil
	}
	return "", fmt.Errorf("unknown resource %q", s)
}

var (
	// ErrAlreadyCollected rejects a duplicate collection attempt.
	ErrAlreadyCollected = errors.New("already collected")
	// ErrNotFound means no attendee row matches the scanned credential.
	ErrNotFound = errors.New("attendee not found")
	// ErrNoSuchResource rejects resources the attendee kind is not entitled to.
	ErrNoSuchResource = errors.New("resource not available for this attendee kind")
)

var (
	collectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "festpass_collections_total",
		Help: "Committed collection transitions by kind and resource.",
	}, []string{"kind", "resource"})
	duplicateScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "festpass_duplicate_scans_total",
		Help: "Collection attempts rejected because the resource was already collected.",
	}, []string{"kind", "resource"})
)

// Store is the persistence surface the ledger needs. *attendee.Repository
// satisfies it.
type Store interface {
	Get(ctx context.Context, kind attendee.Kind, id int64) (*attendee.Attendee, error)
	CollectResource(ctx context.Context, kind attendee.Kind, id int64, column string) (bool, error)
	AppendLog(ctx context.Context, e attendee.LogEntry) error
	LogsForRoll(ctx context.Context, roll string, limit int) ([]attendee.LogEntry, error)
}

// Notifier rebroadcasts committed row changes to connected viewers.
type Notifier interface {
	RowChanged(ctx context.Context, table string, id int64, op string)
}

// Service applies collection transitions.
type Service struct {
	store    Store
	notifier Notifier
}

// NewService creates a ledger over the given store. notifier may be nil.
func NewService(store Store, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

// actionType returns the fixed audit vocabulary for a (resource, kind) pair.
func actionType(kind attendee.Kind, res Resource) (string, error) {
	switch res {
	case ResourceFood:
		return kind.FoodAction(), nil
	case ResourceMerch:
		action, ok := kind.MerchAction()
		if !ok {
			return "", ErrNoSuchResource
		}
		return action, nil
	}
	return "", fmt.Errorf("unknown resource %q", res)
}

// MarkCollected commits a single NOT_COLLECTED -> COLLECTED transition.
// The flag flip is one conditional update against the backing row, so two
// operators scanning the same attendee cannot both be credited: the loser
// sees ErrAlreadyCollected and no audit entry is written for it.
func (s *Service) MarkCollected(ctx context.Context, kind attendee.Kind, id int64, res Resource, op attendee.Organizer) error {
	action, err := actionType(kind, res)
	if err != nil {
		return err
	}

	updated, err := s.store.CollectResource(ctx, kind, id, string(res))
	if err != nil {
		return fmt.Errorf("collect %s for %s %d: %w", res, kind, id, err)
	}
	if !updated {
		att, err := s.store.Get(ctx, kind, id)
		if err != nil {
			return err
		}
		if att == nil {
			return ErrNotFound
		}
		duplicateScansTotal.WithLabelValues(string(kind), string(res)).Inc()
		return ErrAlreadyCollected
	}

	att, err := s.store.Get(ctx, kind, id)
	if err != nil {
		return err
	}
	roll := ""
	if att != nil {
		roll = att.Roll
	}

	entry := attendee.LogEntry{
		OrganizerName: orFallback(op.Name),
		Email:         orFallback(op.Email),
		ActionType:    action,
		FresherRoll:   rollKey(roll),
	}
	if err := s.store.AppendLog(ctx, entry); err != nil {
		// The transition is already committed; a lost audit row is logged
		// rather than unwinding the flag.
		log.Printf("ledger: append log failed for %s %d: %v", kind, id, err)
	}

	collectionsTotal.WithLabelValues(string(kind), string(res)).Inc()
	if s.notifier != nil {
		s.notifier.RowChanged(ctx, kind.Table(), id, "UPDATE")
	}
	return nil
}

// Status is the live ledger view for one scanned attendee.
type Status struct {
	Attendee attendee.Attendee   `json:"attendee"`
	History  []attendee.LogEntry `json:"history,omitempty"`
}

// GetStatus returns current flags plus, only when something was already
// collected, the prior audit entries for that roll so the scan UI can show
// who marked it and when.
func (s *Service) GetStatus(ctx context.Context, kind attendee.Kind, id int64) (Status, error) {
	att, err := s.store.Get(ctx, kind, id)
	if err != nil {
		return Status{}, err
	}
	if att == nil {
		return Status{}, ErrNotFound
	}
	st := Status{Attendee: *att}
	if att.Food || att.Merch {
		roll := rollKey(att.Roll)
		history, err := s.store.LogsForRoll(ctx, roll, 20)
		if err != nil {
			log.Printf("ledger: history lookup failed for roll %s: %v", roll, err)
		} else {
			st.History = history
		}
	}
	return st, nil
}

// rollKey is the log lookup key for an attendee. Roll-less rows (faculty)
// share one fallback key so their entries stay findable.
func rollKey(roll string) string {
	if roll == "" {
		return "no roll available"
	}
	return roll
}

func orFallback(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
