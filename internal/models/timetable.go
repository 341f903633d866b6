package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ScheduleType identifies the meeting component a session belongs to.
type ScheduleType string

const (
	ScheduleTypeLecture  ScheduleType = "LEC"
	ScheduleTypeLab      ScheduleType = "LAB"
	ScheduleTypeTutorial ScheduleType = "TUT"
)

// ComponentOrder is the order in which component types are assigned for a course.
var ComponentOrder = []ScheduleType{ScheduleTypeLecture, ScheduleTypeLab, ScheduleTypeTutorial}

// Weekday is a full English weekday name as emitted by the registration system.
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
)

// Weekdays lists the teaching days in calendar order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

// Valid reports whether the weekday is a teaching day, Monday through Friday.
func (d Weekday) Valid() bool {
	for _, day := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// Session is one offered meeting of a course component.
type Session struct {
	CourseReferenceNumber string       `json:"courseReferenceNumber" validate:"required"`
	MeetingScheduleType   ScheduleType `json:"meetingScheduleType" validate:"required,oneof=LEC LAB TUT"`
	BeginTime             string       `json:"beginTime" validate:"required,hhmm"`
	EndTime               string       `json:"endTime" validate:"required,hhmm"`
	DaysOfWeek            []Weekday    `json:"daysOfWeek" validate:"min=1,dive,weekday"`
	Room                  string       `json:"room,omitempty"`
	Building              string       `json:"building,omitempty"`
	Campus                string       `json:"campus,omitempty"`
	DisplayName           string       `json:"displayName,omitempty"`
}

// MeetsOn reports whether the session meets on the given day.
func (s Session) MeetsOn(day Weekday) bool {
	for _, d := range s.DaysOfWeek {
		if d == day {
			return true
		}
	}
	return false
}

// Course is a course code with every offered section of every component.
type Course struct {
	Code     string    `json:"code" validate:"required"`
	Sessions []Session `json:"sessions" validate:"dive"`
}

// RequiredTypes returns the component types present among the course sessions,
// in assignment order.
func (c Course) RequiredTypes() []ScheduleType {
	present := make(map[ScheduleType]bool, len(ComponentOrder))
	for _, session := range c.Sessions {
		present[session.MeetingScheduleType] = true
	}
	result := make([]ScheduleType, 0, len(present))
	for _, typ := range ComponentOrder {
		if present[typ] {
			result = append(result, typ)
		}
	}
	return result
}

// Catalog is the ordered set of courses a student wants scheduled. Order matters:
// courses are assigned in catalog order.
type Catalog struct {
	Courses []Course `validate:"min=1,dive"`
}

// Codes returns course codes in catalog order.
func (c Catalog) Codes() []string {
	codes := make([]string, 0, len(c.Courses))
	for _, course := range c.Courses {
		codes = append(codes, course.Code)
	}
	return codes
}

// MarshalJSON encodes the catalog as a JSON object keyed by course code,
// keeping catalog order.
func (c Catalog) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for idx, course := range c.Courses {
		if idx > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(course.Code)
		if err != nil {
			return nil, err
		}
		sessions := course.Sessions
		if sessions == nil {
			sessions = []Session{}
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

// UnmarshalJSON decodes a `{"CODE": [sessions...]}` object preserving key order.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("catalog must be a JSON object keyed by course code")
	}
	courses := make([]Course, 0)
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		code, ok := tok.(string)
		if !ok {
			return fmt.Errorf("catalog key must be a string")
		}
		if seen[code] {
			return fmt.Errorf("duplicate course %s in catalog", code)
		}
		seen[code] = true
		var sessions []Session
		if err := dec.Decode(&sessions); err != nil {
			return fmt.Errorf("decode sessions for %s: %w", code, err)
		}
		courses = append(courses, Course{Code: code, Sessions: sessions})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	c.Courses = courses
	return nil
}

// Schedule maps a course code to the sessions chosen for it.
type Schedule map[string][]Session

// Clone returns a copy independent of later mutation of the receiver.
func (s Schedule) Clone() Schedule {
	out := make(Schedule, len(s))
	for code, sessions := range s {
		copied := make([]Session, len(sessions))
		copy(copied, sessions)
		out[code] = copied
	}
	return out
}

// Sessions flattens the schedule following the provided course order.
func (s Schedule) Sessions(order []string) []Session {
	var result []Session
	for _, code := range order {
		result = append(result, s[code]...)
	}
	return result
}

// Infeasibility reports the required component types a course cannot satisfy
// under the active time restrictions.
type Infeasibility struct {
	Course       string         `json:"course"`
	MissingTypes []ScheduleType `json:"missing_types"`
	Message      string         `json:"message"`
}

// InfeasibleScheduleError carries the pre-flight issues that prevented a search.
type InfeasibleScheduleError struct {
	Issues []Infeasibility `json:"issues"`
}

func (e *InfeasibleScheduleError) Error() string {
	return fmt.Sprintf("%d course(s) cannot be scheduled within the time restrictions", len(e.Issues))
}
