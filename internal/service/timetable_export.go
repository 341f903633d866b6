package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/class-timetable-api/internal/dto"
	"github.com/noah-isme/class-timetable-api/internal/models"
	"github.com/noah-isme/class-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/class-timetable-api/pkg/errors"
	"github.com/noah-isme/class-timetable-api/pkg/export"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
	FormatICS  = "ics"
)

const generatedDateLayout = "2006-01-02 15:04:05"

var (
	timetableHeaders = []string{"Day", "Course", "Type", "Start", "End", "Room", "Campus", "CRN", "Instructor"}
	timetableWidths  = []float64{1.2, 1.4, 0.7, 1, 1, 1.1, 1.2, 0.9, 1.8}
	weekdayOf        = map[models.Weekday]time.Weekday{
		models.Monday:    time.Monday,
		models.Tuesday:   time.Tuesday,
		models.Wednesday: time.Wednesday,
		models.Thursday:  time.Thursday,
		models.Friday:    time.Friday,
	}
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title, subtitle string) ([]byte, error)
}

type icsRenderer interface {
	Render(events []export.RecurringEvent, generatedAt time.Time) ([]byte, error)
}

type timetableExporter struct {
	csv      csvRenderer
	pdf      pdfRenderer
	ics      icsRenderer
	location *time.Location
}

func newTimetableExporter(timezone string, weeks int) (*timetableExporter, error) {
	ics, err := export.NewICSExporter(timezone, weeks)
	if err != nil {
		return nil, fmt.Errorf("configure calendar export: %w", err)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("configure calendar export: %w", err)
	}
	return &timetableExporter{
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		ics:      ics,
		location: loc,
	}, nil
}

// Render produces the download for format. Unknown formats are a validation error.
func (e *timetableExporter) Render(format string, entry storedTimetable, week timetable.WeeklySchedule) (*dto.ExportFile, error) {
	base := "timetable-" + entry.ID
	switch strings.ToLower(format) {
	case "", FormatJSON:
		body, err := json.MarshalIndent(e.document(entry, week), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json export: %w", err)
		}
		return &dto.ExportFile{Filename: base + ".json", ContentType: "application/json", Body: body}, nil
	case FormatCSV:
		body, err := e.csv.Render(weeklyDataset(week))
		if err != nil {
			return nil, err
		}
		return &dto.ExportFile{Filename: base + ".csv", ContentType: "text/csv", Body: body}, nil
	case FormatPDF:
		subtitle := fmt.Sprintf("Generated %s - score %.1f", e.generatedDate(entry), entry.Result.Score)
		body, err := e.pdf.Render(weeklyDataset(week), "Weekly Timetable", subtitle)
		if err != nil {
			return nil, err
		}
		return &dto.ExportFile{Filename: base + ".pdf", ContentType: "application/pdf", Body: body}, nil
	case FormatICS:
		body, err := e.ics.Render(calendarEvents(entry.ID, week), entry.GeneratedAt)
		if err != nil {
			return nil, err
		}
		return &dto.ExportFile{Filename: base + ".ics", ContentType: "text/calendar", Body: body}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func (e *timetableExporter) generatedDate(entry storedTimetable) string {
	return entry.GeneratedAt.In(e.location).Format(generatedDateLayout)
}

func (e *timetableExporter) document(entry storedTimetable, week timetable.WeeklySchedule) dto.ScheduleDocument {
	return dto.ScheduleDocument{
		ScheduleInfo: dto.ScheduleInfo{
			GeneratedDate: e.generatedDate(entry),
			TotalCourses:  len(entry.Result.Schedule),
		},
		WeeklySchedule: week,
	}
}

func weeklyDataset(week timetable.WeeklySchedule) export.Dataset {
	rows := make([]map[string]string, 0)
	for _, day := range week {
		for _, s := range day.Sessions {
			rows = append(rows, map[string]string{
				"Day":        string(day.Day),
				"Course":     s.CourseCode,
				"Type":       string(s.Type),
				"Start":      s.StartTime,
				"End":        s.EndTime,
				"Room":       s.Room,
				"Campus":     s.Campus,
				"CRN":        s.CRN,
				"Instructor": s.Prof,
			})
		}
	}
	return export.Dataset{Headers: timetableHeaders, Rows: rows, Widths: timetableWidths, GroupBy: "Day"}
}

func calendarEvents(id string, week timetable.WeeklySchedule) []export.RecurringEvent {
	events := make([]export.RecurringEvent, 0)
	for _, day := range week {
		for _, s := range day.Sessions {
			events = append(events, export.RecurringEvent{
				UID:         fmt.Sprintf("%s-%s-%s@%s", s.CRN, strings.ToLower(string(day.Day)), s.BeginHHMM, id),
				Summary:     fmt.Sprintf("%s - %s", s.CourseCode, s.Type),
				Description: fmt.Sprintf("Campus: %s\nBuilding: %s\nRoom: %s", s.Campus, s.Building, s.Room),
				Location:    fmt.Sprintf("%s %s, %s", s.Building, s.Room, s.Campus),
				Weekday:     weekdayOf[day.Day],
				Start:       s.BeginHHMM,
				End:         s.EndHHMM,
			})
		}
	}
	return events
}
