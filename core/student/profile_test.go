package student

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/gradebook/core"
)

func TestParseProfileField(t *testing.T) {
	f, ok := ParseProfileField(" Email ")
	assert.True(t, ok)
	assert.Equal(t, FieldEmail, f)

	_, ok = ParseProfileField("shoe_size")
	assert.False(t, ok)
	assert.Len(t, ProfileFields, 20)
}

func TestNewProfileUpdate(t *testing.T) {
	pu, ignored := NewProfileUpdate(map[string]string{
		"gender": "Male", "PHONE": "555", "zodiac": "leo", "height": "180",
	})
	assert.Equal(t, []string{"height", "zodiac"}, ignored)
	assert.Equal(t, []ProfileField{FieldGender, FieldPhone}, pu.Fields())
}

func TestProfileUpdate_Apply(t *testing.T) {
	p := Profile{StudentID: "S001", Gender: null.StringFrom("Female"), Phone: null.StringFrom("555")}

	err := ProfileUpdate{
		FieldGender:       "",
		FieldDateOfBirth:  "2001-02-03",
		FieldEmail:        " jane@example.com ",
		FieldPreviousCGPA: "3.75",
	}.Apply(&p)
	require.NoError(t, err)

	assert.False(t, p.Gender.Valid)
	assert.Equal(t, null.StringFrom("555"), p.Phone)
	assert.Equal(t, null.StringFrom("2001-02-03"), p.DateOfBirth)
	assert.Equal(t, null.StringFrom("jane@example.com"), p.Email)
	assert.Equal(t, null.Float64From(3.75), p.PreviousCGPA)

	v, ok := p.Value(FieldPreviousCGPA)
	assert.True(t, ok)
	assert.Equal(t, "3.75", v)
	_, ok = p.Value(FieldGender)
	assert.False(t, ok)

	require.NoError(t, ProfileUpdate{FieldPreviousCGPA: ""}.Apply(&p))
	assert.False(t, p.PreviousCGPA.Valid)
}

func TestProfileUpdate_ApplyInvalid(t *testing.T) {
	tests := []struct {
		name  string
		field ProfileField
		value string
	}{
		{name: "date", field: FieldDateOfBirth, value: "03/02/2001"},
		{name: "email", field: FieldEmail, value: "jane-at-example"},
		{name: "cgpa", field: FieldPreviousCGPA, value: "three"},
		{name: "negative cgpa", field: FieldPreviousCGPA, value: "-1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := Profile{StudentID: "S001"}
			err := ProfileUpdate{tc.field: tc.value}.Apply(&p)
			require.Error(t, err)
			assert.True(t, core.IsValidationError(err))
			assert.Equal(t, Profile{StudentID: "S001"}, p)
		})
	}
}

func TestProfile_Merge(t *testing.T) {
	stored := Profile{StudentID: "S001", Gender: null.StringFrom("Female"), PreviousCGPA: null.Float64From(3.2)}
	merged := stored.Merge(Profile{StudentID: "S001", Department: null.StringFrom("Physics")})

	assert.Equal(t, Profile{
		StudentID:    "S001",
		Gender:       null.StringFrom("Female"),
		Department:   null.StringFrom("Physics"),
		PreviousCGPA: null.Float64From(3.2),
	}, merged)
}
