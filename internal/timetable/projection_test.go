package timetable

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-timetable-api/internal/models"
)

func TestProjectWeekGroupsAndSortsByDay(t *testing.T) {
	late := lec("A-1", "1300", "1400", models.Monday, models.Wednesday)
	late.Building = "Shawenjigewining Hall"
	late.Room = "101"
	late.Campus = "North"
	late.DisplayName = "Dr. Ada"
	early := lec("B-1", "0940", "1100", models.Monday)

	schedule := models.Schedule{"A": {late}, "B": {early}}
	week := ProjectWeek([]string{"A", "B"}, schedule, DefaultRoomPrefixes())

	require.Len(t, week, 5)
	monday := week.Day(models.Monday)
	require.Len(t, monday.Sessions, 2)
	assert.Equal(t, "B", monday.Sessions[0].CourseCode)
	assert.Equal(t, "9:40 AM", monday.Sessions[0].StartTime)
	assert.Equal(t, "TBA", monday.Sessions[0].Room)
	assert.Equal(t, "A", monday.Sessions[1].CourseCode)
	assert.Equal(t, "SHA101", monday.Sessions[1].Room)
	assert.Equal(t, "1:00 PM", monday.Sessions[1].StartTime)
	assert.Equal(t, "Dr. Ada", monday.Sessions[1].Prof)

	assert.Len(t, week.Day(models.Wednesday).Sessions, 1)
	assert.Empty(t, week.Day(models.Friday).Sessions)
}

func TestWeeklyScheduleJSONKeepsDayOrder(t *testing.T) {
	week := ProjectWeek(nil, models.Schedule{}, nil)

	raw, err := json.Marshal(week)
	require.NoError(t, err)

	body := string(raw)
	assert.True(t, strings.HasPrefix(body, `{"Monday":[]`))
	assert.Less(t, strings.Index(body, "Tuesday"), strings.Index(body, "Wednesday"))
	assert.Less(t, strings.Index(body, "Thursday"), strings.Index(body, "Friday"))
}

func TestWeeklyScheduleJSONRoundTrip(t *testing.T) {
	schedule := models.Schedule{"A": {lec("A-1", "1300", "1400", models.Tuesday)}}
	week := ProjectWeek([]string{"A"}, schedule, nil)

	raw, err := json.Marshal(week)
	require.NoError(t, err)

	var decoded WeeklySchedule
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 5)
	assert.Equal(t, models.Monday, decoded[0].Day)
	assert.Equal(t, week.Day(models.Tuesday).Sessions, decoded.Day(models.Tuesday).Sessions)
	assert.Empty(t, decoded.Day(models.Friday).Sessions)
}
