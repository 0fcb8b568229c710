package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"festpass/internal/attendee"
)

type fakeStore struct {
	atts map[string]*attendee.Attendee
	logs []attendee.LogEntry

	collectErr error
	logErr     error
}

func newFakeStore(atts ...attendee.Attendee) *fakeStore {
	s := &fakeStore{atts: make(map[string]*attendee.Attendee)}
	for i := range atts {
		att := atts[i]
		s.atts[storeKey(att.Kind, att.ID)] = &att
	}
	return s
}

func storeKey(kind attendee.Kind, id int64) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

func (s *fakeStore) Get(_ context.Context, kind attendee.Kind, id int64) (*attendee.Attendee, error) {
	att, ok := s.atts[storeKey(kind, id)]
	if !ok {
		return nil, nil
	}
	cp := *att
	return &cp, nil
}

func (s *fakeStore) CollectResource(_ context.Context, kind attendee.Kind, id int64, column string) (bool, error) {
	if s.collectErr != nil {
		return false, s.collectErr
	}
	att, ok := s.atts[storeKey(kind, id)]
	if !ok {
		return false, nil
	}
	var flag *bool
	switch column {
	case "food":
		flag = &att.Food
	case "merch":
		flag = &att.Merch
	default:
		return false, fmt.Errorf("unknown column %q", column)
	}
	if *flag {
		return false, nil
	}
	*flag = true
	return true, nil
}

func (s *fakeStore) AppendLog(_ context.Context, e attendee.LogEntry) error {
	if s.logErr != nil {
		return s.logErr
	}
	s.logs = append(s.logs, e)
	return nil
}

func (s *fakeStore) LogsForRoll(_ context.Context, roll string, _ int) ([]attendee.LogEntry, error) {
	var res []attendee.LogEntry
	for _, e := range s.logs {
		if e.FresherRoll == roll {
			res = append(res, e)
		}
	}
	return res, nil
}

type fakeNotifier struct {
	events []string
}

func (n *fakeNotifier) RowChanged(_ context.Context, table string, id int64, op string) {
	n.events = append(n.events, fmt.Sprintf("%s/%d/%s", table, id, op))
}

func student42() attendee.Attendee {
	return attendee.Attendee{
		ID:    42,
		Kind:  attendee.KindStudent,
		Name:  "Student 1",
		Email: "s1@example.com",
		Roll:  "cse2024029",
	}
}

var opA = attendee.Organizer{Name: "Arnab", Email: "arnab@example.com"}
var opB = attendee.Organizer{Name: "John Doe", Email: "john@example.com"}

func TestMarkCollectedOnce(t *testing.T) {
	store := newFakeStore(student42())
	notifier := &fakeNotifier{}
	svc := NewService(store, notifier)

	err := svc.MarkCollected(context.Background(), attendee.KindStudent, 42, ResourceFood, opA)
	require.NoError(t, err)

	att, _ := store.Get(context.Background(), attendee.KindStudent, 42)
	assert.True(t, att.Food)
	assert.False(t, att.Merch)

	require.Len(t, store.logs, 1)
	entry := store.logs[0]
	assert.Equal(t, "food collected", entry.ActionType)
	assert.Equal(t, "cse2024029", entry.FresherRoll)
	assert.Equal(t, "Arnab", entry.OrganizerName)
	assert.Equal(t, "arnab@example.com", entry.Email)

	assert.Equal(t, []string{"people/42/UPDATE"}, notifier.events)
}

func TestMarkCollectedTwiceRejectsSecondScan(t *testing.T) {
	store := newFakeStore(student42())
	svc := NewService(store, nil)
	ctx := context.Background()

	require.NoError(t, svc.MarkCollected(ctx, attendee.KindStudent, 42, ResourceFood, opA))

	err := svc.MarkCollected(ctx, attendee.KindStudent, 42, ResourceFood, opB)
	assert.ErrorIs(t, err, ErrAlreadyCollected)

	// Exactly one audit entry; the losing scan writes nothing.
	assert.Len(t, store.logs, 1)
	att, _ := store.Get(ctx, attendee.KindStudent, 42)
	assert.True(t, att.Food)
}

func TestMarkCollectedResourcesAreIndependent(t *testing.T) {
	store := newFakeStore(student42())
	svc := NewService(store, nil)
	ctx := context.Background()

	require.NoError(t, svc.MarkCollected(ctx, attendee.KindStudent, 42, ResourceFood, opA))
	require.NoError(t, svc.MarkCollected(ctx, attendee.KindStudent, 42, ResourceMerch, opA))

	require.Len(t, store.logs, 2)
	assert.Equal(t, "food collected", store.logs[0].ActionType)
	assert.Equal(t, "merchandise collected", store.logs[1].ActionType)
}

func TestMarkCollectedUnknownAttendee(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	err := svc.MarkCollected(context.Background(), attendee.KindStudent, 7, ResourceFood, opA)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMerchRejectedForNonStudents(t *testing.T) {
	vol := student42()
	vol.Kind = attendee.KindVolunteer
	store := newFakeStore(vol)
	svc := NewService(store, nil)

	err := svc.MarkCollected(context.Background(), attendee.KindVolunteer, 42, ResourceMerch, opA)
	assert.ErrorIs(t, err, ErrNoSuchResource)
	assert.Empty(t, store.logs)
}

func TestFacultyFoodActionAndRollFallback(t *testing.T) {
	fac := attendee.Attendee{ID: 9, Kind: attendee.KindFaculty, Name: "Prof"}
	store := newFakeStore(fac)
	svc := NewService(store, nil)

	require.NoError(t, svc.MarkCollected(context.Background(), attendee.KindFaculty, 9, ResourceFood, opA))

	require.Len(t, store.logs, 1)
	assert.Equal(t, "Food collected for faculty", store.logs[0].ActionType)
	assert.Equal(t, "no roll available", store.logs[0].FresherRoll)
}

func TestLostAuditRowDoesNotUnwindTransition(t *testing.T) {
	store := newFakeStore(student42())
	store.logErr = errors.New("logs table down")
	svc := NewService(store, nil)
	ctx := context.Background()

	err := svc.MarkCollected(ctx, attendee.KindStudent, 42, ResourceFood, opA)
	require.NoError(t, err)

	att, _ := store.Get(ctx, attendee.KindStudent, 42)
	assert.True(t, att.Food)
}

func TestGetStatusWithoutHistory(t *testing.T) {
	store := newFakeStore(student42())
	svc := NewService(store, nil)

	st, err := svc.GetStatus(context.Background(), attendee.KindStudent, 42)
	require.NoError(t, err)
	assert.False(t, st.Attendee.Food)
	assert.Empty(t, st.History)
}

func TestGetStatusFetchesHistoryAfterCollection(t *testing.T) {
	store := newFakeStore(student42())
	svc := NewService(store, nil)
	ctx := context.Background()

	require.NoError(t, svc.MarkCollected(ctx, attendee.KindStudent, 42, ResourceFood, opA))

	st, err := svc.GetStatus(ctx, attendee.KindStudent, 42)
	require.NoError(t, err)
	assert.True(t, st.Attendee.Food)
	require.Len(t, st.History, 1)
	assert.Equal(t, "food collected", st.History[0].ActionType)
}

func TestGetStatusRollLessHistoryUsesFallbackKey(t *testing.T) {
	fac := attendee.Attendee{ID: 9, Kind: attendee.KindFaculty, Name: "Prof"}
	store := newFakeStore(fac)
	svc := NewService(store, nil)
	ctx := context.Background()

	require.NoError(t, svc.MarkCollected(ctx, attendee.KindFaculty, 9, ResourceFood, opA))

	st, err := svc.GetStatus(ctx, attendee.KindFaculty, 9)
	require.NoError(t, err)
	require.Len(t, st.History, 1)
	assert.Equal(t, "no roll available", st.History[0].FresherRoll)
	assert.Equal(t, "Food collected for faculty", st.History[0].ActionType)
}

func TestGetStatusUnknownAttendee(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	_, err := svc.GetStatus(context.Background(), attendee.KindStudent, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseResource(t *testing.T) {
	res, err := ParseResource("food")
	require.NoError(t, err)
	assert.Equal(t, ResourceFood, res)

	_, err = ParseResource("tshirt")
	assert.Error(t, err)
}
