package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/class-timetable-api/internal/models"
)

func TestConflicts(t *testing.T) {
	tests := []struct {
		name string
		a, b models.Session
		want bool
	}{
		{
			name: "different days never conflict",
			a:    lec("a", "0900", "1100", models.Monday),
			b:    lec("b", "0900", "1100", models.Tuesday),
			want: false,
		},
		{
			name: "overlap on shared day",
			a:    lec("a", "0900", "1030", models.Monday, models.Wednesday),
			b:    lec("b", "1000", "1100", models.Wednesday),
			want: true,
		},
		{
			name: "touching endpoints",
			a:    lec("a", "0900", "1000", models.Monday),
			b:    lec("b", "1000", "1100", models.Monday),
			want: false,
		},
		{
			name: "containment",
			a:    lec("a", "0800", "1200", models.Thursday),
			b:    lec("b", "0900", "1000", models.Thursday),
			want: true,
		},
		{
			name: "identical",
			a:    lec("a", "1300", "1400", models.Friday),
			b:    lec("b", "1300", "1400", models.Friday),
			want: true,
		},
		{
			name: "disjoint same day",
			a:    lec("a", "0800", "0900", models.Monday),
			b:    lec("b", "1400", "1500", models.Monday),
			want: false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Conflicts(tc.a, tc.b))
			assert.Equal(t, tc.want, Conflicts(tc.b, tc.a), "symmetric")
		})
	}
}

func TestConflictsIgnoresTimesWithoutSharedDay(t *testing.T) {
	times := [][2]string{{"0000", "2359"}, {"0900", "1000"}, {"1200", "1201"}}
	for _, x := range times {
		for _, y := range times {
			a := lec("a", x[0], x[1], models.Monday, models.Wednesday)
			b := lec("b", y[0], y[1], models.Tuesday, models.Thursday, models.Friday)
			assert.False(t, Conflicts(a, b))
		}
	}
}

func TestFindConflicts(t *testing.T) {
	sessions := []models.Session{
		lec("a", "0900", "1000", models.Monday),
		lec("b", "0930", "1030", models.Monday),
		lec("c", "1030", "1130", models.Monday),
	}
	pairs := FindConflicts(sessions)
	if assert.Len(t, pairs, 1) {
		assert.Equal(t, "a", pairs[0].First.CourseReferenceNumber)
		assert.Equal(t, "b", pairs[0].Second.CourseReferenceNumber)
	}
	assert.False(t, ConflictsWithAny(sessions[1], sessions[2:]))
	assert.True(t, ConflictsWithAny(sessions[0], sessions[1:]))
}
