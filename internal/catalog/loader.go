// Package catalog reads course section catalogs from disk or streams.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/noah-isme/class-timetable-api/internal/models"
)

// row is one CSV line: a single session of a course.
type row struct {
	Course     string `csv:"course"`
	CRN        string `csv:"crn"`
	Type       string `csv:"type"`
	Days       string `csv:"days"`
	Begin      string `csv:"begin"`
	End        string `csv:"end"`
	Room       string `csv:"room"`
	Building   string `csv:"building"`
	Campus     string `csv:"campus"`
	Instructor string `csv:"instructor"`
}

// LoadFile reads a catalog, choosing the decoder from the file extension
// (.csv, otherwise JSON).
func LoadFile(path string) (models.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Catalog{}, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return ReadCSV(f)
	}
	return ReadJSON(f)
}

// ReadJSON decodes a `{"COURSE": [sessions...]}` document keeping course order.
func ReadJSON(r io.Reader) (models.Catalog, error) {
	var catalog models.Catalog
	if err := json.NewDecoder(r).Decode(&catalog); err != nil {
		return models.Catalog{}, fmt.Errorf("decode catalog json: %w", err)
	}
	return catalog, nil
}

// ReadCSV decodes one session per row. Courses appear in order of their first
// row; days are separated by ';'.
func ReadCSV(r io.Reader) (models.Catalog, error) {
	var rows []*row
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return models.Catalog{}, fmt.Errorf("decode catalog csv: %w", err)
	}

	index := make(map[string]int)
	var catalog models.Catalog
	for _, rec := range rows {
		code := strings.TrimSpace(rec.Course)
		if code == "" {
			return models.Catalog{}, fmt.Errorf("catalog csv row for crn %q has no course", rec.CRN)
		}
		pos, ok := index[code]
		if !ok {
			pos = len(catalog.Courses)
			index[code] = pos
			catalog.Courses = append(catalog.Courses, models.Course{Code: code})
		}
		catalog.Courses[pos].Sessions = append(catalog.Courses[pos].Sessions, rec.session())
	}
	return catalog, nil
}

func (r *row) session() models.Session {
	return models.Session{
		CourseReferenceNumber: strings.TrimSpace(r.CRN),
		MeetingScheduleType:   models.ScheduleType(strings.ToUpper(strings.TrimSpace(r.Type))),
		BeginTime:             strings.TrimSpace(r.Begin),
		EndTime:               strings.TrimSpace(r.End),
		DaysOfWeek:            parseDays(r.Days),
		Room:                  strings.TrimSpace(r.Room),
		Building:              strings.TrimSpace(r.Building),
		Campus:                strings.TrimSpace(r.Campus),
		DisplayName:           strings.TrimSpace(r.Instructor),
	}
}

func parseDays(raw string) []models.Weekday {
	var days []models.Weekday
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		days = append(days, models.Weekday(part))
	}
	return days
}

// WriteCSV encodes a catalog in the layout ReadCSV accepts.
func WriteCSV(w io.Writer, catalog models.Catalog) error {
	rows := make([]*row, 0)
	for _, course := range catalog.Courses {
		for _, s := range course.Sessions {
			days := make([]string, len(s.DaysOfWeek))
			for i, d := range s.DaysOfWeek {
				days[i] = string(d)
			}
			rows = append(rows, &row{
				Course:     course.Code,
				CRN:        s.CourseReferenceNumber,
				Type:       string(s.MeetingScheduleType),
				Days:       strings.Join(days, ";"),
				Begin:      s.BeginTime,
				End:        s.EndTime,
				Room:       s.Room,
				Building:   s.Building,
				Campus:     s.Campus,
				Instructor: s.DisplayName,
			})
		}
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("encode catalog csv: %w", err)
	}
	return nil
}
