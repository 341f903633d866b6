package export

import (
	"fmt"
	"strconv"
	"time"
	_ "time/tzdata"

	ics "github.com/arran4/golang-ical"
)

const (
	icsLocalLayout   = "20060102T150405"
	defaultProductID = "-//class-timetable-api//Timetable Export//EN"
)

// RecurringEvent is a weekly meeting expressed in local wall-clock time.
type RecurringEvent struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Weekday     time.Weekday
	// Start and End are 4-digit 24-hour clock strings such as "0940".
	Start string
	End   string
}

// ICSExporter renders weekly recurring events into an iCalendar document.
type ICSExporter struct {
	location  *time.Location
	weeks     int
	productID string
}

// NewICSExporter builds an exporter anchored to the named IANA timezone.
func NewICSExporter(timezone string, weeks int) (*ICSExporter, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	if weeks <= 0 {
		return nil, fmt.Errorf("ics requires a positive number of weeks")
	}
	return &ICSExporter{location: loc, weeks: weeks, productID: defaultProductID}, nil
}

// Render produces the calendar. Each event starts on the first matching
// weekday strictly after generatedAt.
func (e *ICSExporter) Render(events []RecurringEvent, generatedAt time.Time) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.productID)

	local := generatedAt.In(e.location)
	tzid := &ics.KeyValues{Key: string(ics.ParameterTzid), Value: []string{e.location.String()}}
	for _, item := range events {
		start, err := e.occurrence(local, item.Weekday, item.Start)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", item.UID, err)
		}
		end, err := e.occurrence(local, item.Weekday, item.End)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", item.UID, err)
		}

		event := cal.AddEvent(item.UID)
		event.SetDtStampTime(generatedAt.UTC())
		event.SetSummary(item.Summary)
		event.SetLocation(item.Location)
		event.SetDescription(item.Description)
		event.SetProperty(ics.ComponentPropertyDtStart, start.Format(icsLocalLayout), tzid)
		event.SetProperty(ics.ComponentPropertyDtEnd, end.Format(icsLocalLayout), tzid)
		event.AddRrule(fmt.Sprintf("FREQ=WEEKLY;COUNT=%d", e.weeks))
	}

	return []byte(cal.Serialize()), nil
}

func (e *ICSExporter) occurrence(from time.Time, day time.Weekday, hhmm string) (time.Time, error) {
	if len(hhmm) != 4 {
		return time.Time{}, fmt.Errorf("invalid clock %q", hhmm)
	}
	hours, err := strconv.Atoi(hhmm[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid clock %q", hhmm)
	}
	minutes, err := strconv.Atoi(hhmm[2:])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid clock %q", hhmm)
	}
	date := NextWeekday(from, day)
	return time.Date(date.Year(), date.Month(), date.Day(), hours, minutes, 0, 0, date.Location()), nil
}

// NextWeekday returns midnight of the first date strictly after from that
// falls on day, in from's location.
func NextWeekday(from time.Time, day time.Weekday) time.Time {
	ahead := (int(day) - int(from.Weekday()) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	y, m, d := from.Date()
	return time.Date(y, m, d+ahead, 0, 0, 0, 0, from.Location())
}
