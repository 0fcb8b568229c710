package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"festpass/internal/attendee"
)

func sampleStudent() attendee.Attendee {
	return attendee.Attendee{
		ID:         42,
		Kind:       attendee.KindStudent,
		Name:       "Arnab Sen",
		Email:      "arnab@example.com",
		Phone:      "9876543210",
		Roll:       "cse2024029",
		Dept:       "CSE",
		VegNonveg:  "veg",
		TshirtSize: "M",
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p, err := Encode(sampleStudent())
	require.NoError(t, err)

	raw, err := p.Marshal()
	require.NoError(t, err)

	decoded, err := Decode(string(raw))
	require.NoError(t, err)
	assert.Equal(t, p, decoded)
	assert.Equal(t, attendee.KindStudent, decoded.Kind())
}

func TestEncodeIsDeterministic(t *testing.T) {
	att := sampleStudent()
	p1, err := Encode(att)
	require.NoError(t, err)
	p2, err := Encode(att)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	b1, err := p1.Marshal()
	require.NoError(t, err)
	b2, err := p2.Marshal()
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
}

func TestEncodeVolunteerCarriesTeam(t *testing.T) {
	att := sampleStudent()
	att.Kind = attendee.KindVolunteer
	att.Team = "logistics"
	att.TshirtSize = "" // volunteers have no t-shirt field

	p, err := Encode(att)
	require.NoError(t, err)
	assert.True(t, p.IsVolunteer)
	assert.Equal(t, "logistics", p.Team)
	assert.Empty(t, p.TshirtSize)
	assert.Equal(t, attendee.KindVolunteer, p.Kind())
}

func TestEncodeRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*attendee.Attendee)
	}{
		{"missing name", func(a *attendee.Attendee) { a.Name = "" }},
		{"missing email", func(a *attendee.Attendee) { a.Email = "" }},
		{"missing roll", func(a *attendee.Attendee) { a.Roll = "" }},
		{"missing diet", func(a *attendee.Attendee) { a.VegNonveg = "" }},
		{"missing dept", func(a *attendee.Attendee) { a.Dept = "" }},
		{"missing id", func(a *attendee.Attendee) { a.ID = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			att := sampleStudent()
			tt.mutate(&att)
			_, err := Encode(att)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestEncodeFacultyWithoutRoll(t *testing.T) {
	att := sampleStudent()
	att.Kind = attendee.KindFaculty
	att.Roll = ""
	att.TshirtSize = ""

	p, err := Encode(att)
	require.NoError(t, err)
	assert.Empty(t, p.Roll)
	assert.True(t, p.IsFaculty)
	assert.Equal(t, attendee.KindFaculty, p.Kind())
}

func TestKindDiscriminatorRouting(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want attendee.Kind
	}{
		{"volunteer flag", `{"id":9,"isVolunteer":true}`, attendee.KindVolunteer},
		{"faculty flag", `{"id":9,"isFaculty":true}`, attendee.KindFaculty},
		{"legacy payload without flags", `{"id":9}`, attendee.KindStudent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Decode(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Kind())
		})
	}
}

func TestFacultyPassRoundTripKeepsKind(t *testing.T) {
	p, err := Encode(attendee.Attendee{
		ID: 9, Kind: attendee.KindFaculty, Name: "Prof", Email: "prof@example.com",
		Dept: "CSE", VegNonveg: "veg",
	})
	require.NoError(t, err)

	raw, err := p.Marshal()
	require.NoError(t, err)
	decoded, err := Decode(string(raw))
	require.NoError(t, err)
	assert.Equal(t, attendee.KindFaculty, decoded.Kind())
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode("{not json")
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestDecodeMissingIdentifier(t *testing.T) {
	_, err := Decode(`{"name":"X"}`)
	assert.ErrorIs(t, err, ErrMissingIdentifier)
}

func TestPNG(t *testing.T) {
	p, err := Encode(sampleStudent())
	require.NoError(t, err)

	img, err := PNG(p)
	require.NoError(t, err)
	assert.NotEmpty(t, img)
	// PNG magic bytes
	require.Greater(t, len(img), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, img[:4])
}
