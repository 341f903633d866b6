package timetable

import "github.com/noah-isme/class-timetable-api/internal/models"

// DayWindow bounds the clock times a session may occupy on one day.
type DayWindow struct {
	Earliest string `json:"earliest"`
	Latest   string `json:"latest"`
}

// Unrestricted covers the whole day.
var Unrestricted = DayWindow{Earliest: dayStart, Latest: dayEnd}

// TimeWindowPolicy holds the per-weekday windows that candidate sessions must fit in.
type TimeWindowPolicy struct {
	windows map[models.Weekday]DayWindow
}

// NewTimeWindowPolicy returns a policy with every weekday unrestricted.
func NewTimeWindowPolicy() *TimeWindowPolicy {
	windows := make(map[models.Weekday]DayWindow, len(models.Weekdays))
	for _, day := range models.Weekdays {
		windows[day] = Unrestricted
	}
	return &TimeWindowPolicy{windows: windows}
}

// SetRestriction overwrites the bounds provided for day. An empty bound keeps
// the current value.
func (p *TimeWindowPolicy) SetRestriction(day models.Weekday, earliest, latest string) {
	window := p.Window(day)
	if earliest != "" {
		window.Earliest = earliest
	}
	if latest != "" {
		window.Latest = latest
	}
	p.windows[day] = window
}

// Window returns the active window for day.
func (p *TimeWindowPolicy) Window(day models.Weekday) DayWindow {
	if window, ok := p.windows[day]; ok {
		return window
	}
	return Unrestricted
}

// Windows returns a copy of the windows for every weekday.
func (p *TimeWindowPolicy) Windows() map[models.Weekday]DayWindow {
	out := make(map[models.Weekday]DayWindow, len(models.Weekdays))
	for _, day := range models.Weekdays {
		out[day] = p.Window(day)
	}
	return out
}

// IsAllowed reports whether the session fits the window of every day it meets on.
// Time strings are fixed-width, so lexicographic order equals numeric order.
// A nil policy allows everything.
func (p *TimeWindowPolicy) IsAllowed(session models.Session) bool {
	if p == nil {
		return true
	}
	for _, day := range session.DaysOfWeek {
		window := p.Window(day)
		if session.BeginTime < window.Earliest || session.EndTime > window.Latest {
			return false
		}
	}
	return true
}
