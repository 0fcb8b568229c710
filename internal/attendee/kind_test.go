package attendee

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for _, valid := range []string{"student", "volunteer", "faculty"} {
		kind, err := ParseKind(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, string(kind))
	}

	_, err := ParseKind("guest")
	assert.Error(t, err)
	_, err = ParseKind("")
	assert.Error(t, err)
}

func TestKindDispatch(t *testing.T) {
	tests := []struct {
		kind       Kind
		table      string
		hasMerch   bool
		hasTeam    bool
		rollNeeded bool
		foodAction string
	}{
		{KindStudent, "people", true, false, true, "food collected"},
		{KindVolunteer, "volunteers", false, true, true, "Food collected for Volunteer"},
		{KindFaculty, "faculties", false, false, false, "Food collected for faculty"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.table, tt.kind.Table())
			assert.Equal(t, tt.hasMerch, tt.kind.HasMerch())
			assert.Equal(t, tt.hasTeam, tt.kind.HasTeam())
			assert.Equal(t, tt.rollNeeded, tt.kind.RollRequired())
			assert.Equal(t, tt.foodAction, tt.kind.FoodAction())
		})
	}
}

func TestMerchActionStudentOnly(t *testing.T) {
	action, ok := KindStudent.MerchAction()
	require.True(t, ok)
	assert.Equal(t, "merchandise collected", action)

	_, ok = KindVolunteer.MerchAction()
	assert.False(t, ok)
	_, ok = KindFaculty.MerchAction()
	assert.False(t, ok)
}
