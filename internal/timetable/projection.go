package timetable

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/noah-isme/class-timetable-api/internal/models"
)

const placeholder = "TBA"

// DefaultRoomPrefixes maps building names to the prefix printed before their room numbers.
func DefaultRoomPrefixes() map[string]string {
	return map[string]string{"Shawenjigewining Hall": "SHA"}
}

// SessionSummary is the display form of one session on one day.
type SessionSummary struct {
	CourseCode string              `json:"course_code"`
	Type       models.ScheduleType `json:"type"`
	StartTime  string              `json:"start_time"`
	EndTime    string              `json:"end_time"`
	BeginHHMM  string              `json:"begin_hhmm"`
	EndHHMM    string              `json:"end_hhmm"`
	Room       string              `json:"room"`
	Campus     string              `json:"campus"`
	CRN        string              `json:"crn"`
	Building   string              `json:"building"`
	Prof       string              `json:"prof"`
}

// DaySchedule lists the sessions of one weekday ordered by start time.
type DaySchedule struct {
	Day      models.Weekday   `json:"day"`
	Sessions []SessionSummary `json:"sessions"`
}

// WeeklySchedule always holds Monday through Friday in order.
type WeeklySchedule []DaySchedule

// MarshalJSON renders the week as an object keyed by day name in calendar order.
func (w WeeklySchedule) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for idx, day := range w {
		if idx > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(day.Day))
		if err != nil {
			return nil, err
		}
		sessions := day.Sessions
		if sessions == nil {
			sessions = []SessionSummary{}
		}
		value, err := json.Marshal(sessions)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the object form back into calendar order. Missing days
// decode as empty.
func (w *WeeklySchedule) UnmarshalJSON(data []byte) error {
	var byDay map[models.Weekday][]SessionSummary
	if err := json.Unmarshal(data, &byDay); err != nil {
		return err
	}
	week := make(WeeklySchedule, 0, len(models.Weekdays))
	for _, day := range models.Weekdays {
		week = append(week, DaySchedule{Day: day, Sessions: byDay[day]})
	}
	*w = week
	return nil
}

// Day returns the entry for day.
func (w WeeklySchedule) Day(day models.Weekday) DaySchedule {
	for _, entry := range w {
		if entry.Day == day {
			return entry
		}
	}
	return DaySchedule{Day: day}
}

// ProjectWeek groups a schedule by weekday. Courses are visited in order, so
// sessions starting at the same time keep course order.
func ProjectWeek(order []string, schedule models.Schedule, roomPrefixes map[string]string) WeeklySchedule {
	byDay := make(map[models.Weekday][]SessionSummary, len(models.Weekdays))
	for _, code := range order {
		for _, session := range schedule[code] {
			summary := summarize(code, session, roomPrefixes)
			for _, day := range session.DaysOfWeek {
				byDay[day] = append(byDay[day], summary)
			}
		}
	}

	week := make(WeeklySchedule, 0, len(models.Weekdays))
	for _, day := range models.Weekdays {
		sessions := byDay[day]
		sort.SliceStable(sessions, func(i, j int) bool {
			return ToMinutes(sessions[i].BeginHHMM) < ToMinutes(sessions[j].BeginHHMM)
		})
		week = append(week, DaySchedule{Day: day, Sessions: sessions})
	}
	return week
}

func summarize(code string, session models.Session, roomPrefixes map[string]string) SessionSummary {
	building := orPlaceholder(session.Building)
	room := orPlaceholder(session.Room)
	if prefix, ok := roomPrefixes[building]; ok && room != placeholder {
		room = prefix + room
	}
	return SessionSummary{
		CourseCode: code,
		Type:       session.MeetingScheduleType,
		StartTime:  FormatClock(session.BeginTime),
		EndTime:    FormatClock(session.EndTime),
		BeginHHMM:  session.BeginTime,
		EndHHMM:    session.EndTime,
		Room:       room,
		Campus:     orPlaceholder(session.Campus),
		CRN:        session.CourseReferenceNumber,
		Building:   building,
		Prof:       orPlaceholder(session.DisplayName),
	}
}

func orPlaceholder(v string) string {
	if v == "" {
		return placeholder
	}
	return v
}
