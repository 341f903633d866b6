package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/class-timetable-api/internal/models"
	"github.com/noah-isme/class-timetable-api/internal/timetable"
)

// TimeRestrictions carries per-day earliest/latest clock times as submitted by
// the restriction form. Values are "HHMM" or "HH:MM"; omitted values keep the
// unrestricted bound.
type TimeRestrictions struct {
	MondayStart    string `json:"mondayStart,omitempty" validate:"omitempty,clock"`
	MondayEnd      string `json:"mondayEnd,omitempty" validate:"omitempty,clock"`
	TuesdayStart   string `json:"tuesdayStart,omitempty" validate:"omitempty,clock"`
	TuesdayEnd     string `json:"tuesdayEnd,omitempty" validate:"omitempty,clock"`
	WednesdayStart string `json:"wednesdayStart,omitempty" validate:"omitempty,clock"`
	WednesdayEnd   string `json:"wednesdayEnd,omitempty" validate:"omitempty,clock"`
	ThursdayStart  string `json:"thursdayStart,omitempty" validate:"omitempty,clock"`
	ThursdayEnd    string `json:"thursdayEnd,omitempty" validate:"omitempty,clock"`
	FridayStart    string `json:"fridayStart,omitempty" validate:"omitempty,clock"`
	FridayEnd      string `json:"fridayEnd,omitempty" validate:"omitempty,clock"`
}

// NormalizeClock strips the colon of "HH:MM" values.
func NormalizeClock(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), ":", "")
}

func (r *TimeRestrictions) bounds() map[models.Weekday][2]string {
	return map[models.Weekday][2]string{
		models.Monday:    {r.MondayStart, r.MondayEnd},
		models.Tuesday:   {r.TuesdayStart, r.TuesdayEnd},
		models.Wednesday: {r.WednesdayStart, r.WednesdayEnd},
		models.Thursday:  {r.ThursdayStart, r.ThursdayEnd},
		models.Friday:    {r.FridayStart, r.FridayEnd},
	}
}

// Policy builds the time-window policy. A day whose start and end are both
// "0000" is left unrestricted. A nil receiver yields an unrestricted policy.
func (r *TimeRestrictions) Policy() (*timetable.TimeWindowPolicy, error) {
	policy := timetable.NewTimeWindowPolicy()
	if r == nil {
		return policy, nil
	}
	bounds := r.bounds()
	for _, day := range models.Weekdays {
		start, end := NormalizeClock(bounds[day][0]), NormalizeClock(bounds[day][1])
		if start == "0000" && end == "0000" {
			continue
		}
		policy.SetRestriction(day, start, end)
		window := policy.Window(day)
		if window.Latest <= window.Earliest {
			return nil, fmt.Errorf("%s restriction ends at %s, not after its start %s", strings.ToLower(string(day)), window.Latest, window.Earliest)
		}
	}
	return policy, nil
}

// GenerateTimetableRequest asks for a timetable over the given courses. Courses
// are checked separately with timetable.ValidateCatalog.
type GenerateTimetableRequest struct {
	Courses      models.Catalog    `json:"courses" validate:"-"`
	Restrictions *TimeRestrictions `json:"restrictions,omitempty"`
	Mode         string            `json:"mode,omitempty" validate:"omitempty,oneof=first exhaustive"`
}

// TimetableResponse is a stored timetable with its weekly projection.
type TimetableResponse struct {
	ID          string                   `json:"id"`
	Mode        timetable.Mode           `json:"mode"`
	Score       float64                  `json:"score"`
	Breakdown   timetable.ScoreBreakdown `json:"breakdown"`
	Stats       timetable.Stats          `json:"stats"`
	Courses     []string                 `json:"courses"`
	Schedule    models.Schedule          `json:"schedule"`
	Weekly      timetable.WeeklySchedule `json:"weekly"`
	Cached      bool                     `json:"cached"`
	GeneratedAt time.Time                `json:"generatedAt"`
	ExpiresAt   time.Time                `json:"expiresAt"`
}

// FeasibilityResponse reports the pre-flight result without searching.
type FeasibilityResponse struct {
	Feasible bool                                   `json:"feasible"`
	Issues   []models.Infeasibility                 `json:"issues"`
	Windows  map[models.Weekday]timetable.DayWindow `json:"windows"`
}

// ScheduleInfo heads the JSON export document.
type ScheduleInfo struct {
	GeneratedDate string `json:"generated_date"`
	TotalCourses  int    `json:"total_courses"`
}

// ScheduleDocument is the JSON export layout.
type ScheduleDocument struct {
	ScheduleInfo   ScheduleInfo             `json:"schedule_info"`
	WeeklySchedule timetable.WeeklySchedule `json:"weekly_schedule"`
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}
