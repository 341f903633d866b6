package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/class-timetable-api/internal/dto"
	"github.com/noah-isme/class-timetable-api/internal/models"
	"github.com/noah-isme/class-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/class-timetable-api/pkg/errors"
)

type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
	gets  int
	sets  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (m *memoryCache) Enabled() bool { return true }

func (m *memoryCache) Key(request interface{}) (string, error) {
	return (&CacheService{}).Key(request)
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	raw, ok := m.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func lecture(crn, begin, end string, days ...models.Weekday) models.Session {
	return models.Session{
		CourseReferenceNumber: crn,
		MeetingScheduleType:   models.ScheduleTypeLecture,
		BeginTime:             begin,
		EndTime:               end,
		DaysOfWeek:            days,
		Building:              "Shawenjigewining Hall",
		Room:                  "1001",
		Campus:                "North",
	}
}

func scenarioRequest() dto.GenerateTimetableRequest {
	return dto.GenerateTimetableRequest{Courses: models.Catalog{Courses: []models.Course{
		{Code: "A", Sessions: []models.Session{
			lecture("A-0900", "0900", "1000", models.Monday, models.Wednesday),
			lecture("A-1300", "1300", "1400", models.Monday, models.Wednesday),
		}},
		{Code: "B", Sessions: []models.Session{
			lecture("B-1000", "1000", "1100", models.Monday, models.Wednesday),
		}},
	}}}
}

func newTestTimetableService(t *testing.T, cache resultCache, cfg TimetableConfig) (*TimetableService, *MetricsService) {
	t.Helper()
	metrics := NewMetricsService()
	svc, err := NewTimetableService(cache, metrics, nil, zap.NewNop(), cfg)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2026, time.October, 14, 18, 0, 0, 0, time.UTC) }
	svc.store.now = func() time.Time { return time.Date(2026, time.October, 14, 18, 5, 0, 0, time.UTC) }
	return svc, metrics
}

func requireAppError(t *testing.T, err error, code string) *appErrors.Error {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected typed error, got %v", err)
	require.Equal(t, code, appErr.Code)
	return appErr
}

func TestTimetableServiceGenerateFirstFound(t *testing.T) {
	svc, metrics := newTestTimetableService(t, nil, TimetableConfig{})

	resp, err := svc.Generate(context.Background(), scenarioRequest())
	require.NoError(t, err)

	assert.Equal(t, timetable.ModeFirstFound, resp.Mode)
	assert.InDelta(t, 1980, resp.Score, 1e-9)
	assert.Equal(t, "A-1300", resp.Schedule["A"][0].CourseReferenceNumber)
	assert.Equal(t, []string{"A", "B"}, resp.Courses)
	assert.False(t, resp.Cached)
	assert.Equal(t, resp.GeneratedAt.Add(30*time.Minute), resp.ExpiresAt)

	monday := resp.Weekly.Day(models.Monday)
	require.Len(t, monday.Sessions, 2)
	assert.Equal(t, "B", monday.Sessions[0].CourseCode)
	assert.Equal(t, "SHA1001", monday.Sessions[0].Room)
	assert.Empty(t, resp.Weekly.Day(models.Friday).Sessions)

	stored, err := svc.Get(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Score, stored.Score)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.SolverOutcomes[OutcomeFound])
	assert.Equal(t, 1, snapshot.StoredSchedules)
}

func TestTimetableServiceGenerateExhaustiveMode(t *testing.T) {
	svc, _ := newTestTimetableService(t, nil, TimetableConfig{})
	req := scenarioRequest()
	req.Mode = "exhaustive"

	resp, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, timetable.ModeExhaustive, resp.Mode)
	assert.InDelta(t, 2460, resp.Score, 1e-9)
	assert.Equal(t, 2, resp.Stats.CompleteAssignments)
}

func TestTimetableServiceGenerateValidation(t *testing.T) {
	svc, _ := newTestTimetableService(t, nil, TimetableConfig{})

	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{})
	appErr := requireAppError(t, err, appErrors.ErrValidation.Code)
	details, ok := appErr.Details.([]string)
	require.True(t, ok)
	assert.Equal(t, []string{"Catalog.Courses: min"}, details)

	req := scenarioRequest()
	req.Courses.Courses[0].Sessions[0].EndTime = "0800"
	_, err = svc.Generate(context.Background(), req)
	requireAppError(t, err, appErrors.ErrValidation.Code)

	req = scenarioRequest()
	req.Mode = "best"
	_, err = svc.Generate(context.Background(), req)
	requireAppError(t, err, appErrors.ErrValidation.Code)

	req = scenarioRequest()
	req.Restrictions = &dto.TimeRestrictions{MondayStart: "1600", MondayEnd: "1200"}
	_, err = svc.Generate(context.Background(), req)
	requireAppError(t, err, appErrors.ErrValidation.Code)
}

func TestTimetableServiceGenerateInfeasible(t *testing.T) {
	svc, metrics := newTestTimetableService(t, nil, TimetableConfig{})
	req := scenarioRequest()
	req.Restrictions = &dto.TimeRestrictions{MondayStart: "15:00"}

	_, err := svc.Generate(context.Background(), req)
	appErr := requireAppError(t, err, appErrors.ErrInfeasible.Code)
	issues, ok := appErr.Details.([]models.Infeasibility)
	require.True(t, ok)
	require.Len(t, issues, 2)
	assert.Equal(t, "A", issues[0].Course)
	assert.Equal(t, []models.ScheduleType{models.ScheduleTypeLecture}, issues[0].MissingTypes)

	var cause *models.InfeasibleScheduleError
	assert.True(t, errors.As(err, &cause))
	assert.Equal(t, uint64(1), metrics.Snapshot().SolverOutcomes[OutcomeInfeasible])
}

func TestTimetableServiceGenerateNoSchedule(t *testing.T) {
	svc, _ := newTestTimetableService(t, nil, TimetableConfig{})
	req := dto.GenerateTimetableRequest{Courses: models.Catalog{Courses: []models.Course{
		{Code: "A", Sessions: []models.Session{lecture("A-1", "0900", "1000", models.Monday)}},
		{Code: "B", Sessions: []models.Session{lecture("B-1", "0930", "1030", models.Monday)}},
	}}}

	_, err := svc.Generate(context.Background(), req)
	requireAppError(t, err, appErrors.ErrNoSchedule.Code)
	assert.Zero(t, svc.store.Len())
}

func TestTimetableServiceGenerateAborted(t *testing.T) {
	svc, _ := newTestTimetableService(t, nil, TimetableConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Generate(ctx, scenarioRequest())
	requireAppError(t, err, appErrors.ErrSearchAborted.Code)

	budget, _ := newTestTimetableService(t, nil, TimetableConfig{Mode: timetable.ModeExhaustive, MaxNodes: 1})
	_, err = budget.Generate(context.Background(), scenarioRequest())
	appErr := requireAppError(t, err, appErrors.ErrSearchAborted.Code)
	assert.True(t, errors.Is(appErr, timetable.ErrNodeBudgetExceeded))
}

func TestTimetableServiceUsesCache(t *testing.T) {
	cache := newMemoryCache()
	svc, metrics := newTestTimetableService(t, cache, TimetableConfig{})

	first, err := svc.Generate(context.Background(), scenarioRequest())
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), scenarioRequest())
	require.NoError(t, err)

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Weekly, second.Weekly)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 2, cache.gets)
	assert.Equal(t, uint64(1), metrics.Snapshot().SolverOutcomes[OutcomeCached])

	req := scenarioRequest()
	req.Mode = "exhaustive"
	third, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, third.Cached)
}

func TestTimetableServiceGetAndDelete(t *testing.T) {
	svc, _ := newTestTimetableService(t, nil, TimetableConfig{})
	resp, err := svc.Generate(context.Background(), scenarioRequest())
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "not-a-uuid")
	requireAppError(t, err, appErrors.ErrNotFound.Code)

	require.NoError(t, svc.Delete(context.Background(), resp.ID))
	_, err = svc.Get(context.Background(), resp.ID)
	requireAppError(t, err, appErrors.ErrNotFound.Code)
	err = svc.Delete(context.Background(), resp.ID)
	requireAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestTimetableServiceResponsesDoNotShareStoredSchedule(t *testing.T) {
	svc, _ := newTestTimetableService(t, nil, TimetableConfig{})
	resp, err := svc.Generate(context.Background(), scenarioRequest())
	require.NoError(t, err)

	resp.Schedule["A"][0].Room = "9999"
	delete(resp.Schedule, "B")
	resp.Courses[0] = "Z"

	again, err := svc.Get(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "1001", again.Schedule["A"][0].Room)
	assert.Contains(t, again.Schedule, "B")
	assert.Equal(t, []string{"A", "B"}, again.Courses)
}

func TestTimetableServiceExpiresResults(t *testing.T) {
	svc, _ := newTestTimetableService(t, nil, TimetableConfig{ResultTTL: time.Minute})
	resp, err := svc.Generate(context.Background(), scenarioRequest())
	require.NoError(t, err)

	// The store clock sits five minutes after generation.
	_, err = svc.Get(context.Background(), resp.ID)
	requireAppError(t, err, appErrors.ErrNotFound.Code)
	assert.Zero(t, svc.store.Len())
}

func TestTimetableServiceFeasibility(t *testing.T) {
	svc, _ := newTestTimetableService(t, nil, TimetableConfig{})

	ok, err := svc.Feasibility(context.Background(), scenarioRequest())
	require.NoError(t, err)
	assert.True(t, ok.Feasible)
	assert.Empty(t, ok.Issues)

	req := scenarioRequest()
	req.Restrictions = &dto.TimeRestrictions{MondayStart: "1500", TuesdayStart: "0000", TuesdayEnd: "0000"}
	resp, err := svc.Feasibility(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.Feasible)
	assert.Len(t, resp.Issues, 2)
	assert.Equal(t, timetable.DayWindow{Earliest: "1500", Latest: "2359"}, resp.Windows[models.Monday])
	assert.Equal(t, timetable.DayWindow{Earliest: "0000", Latest: "2359"}, resp.Windows[models.Tuesday])
}

func TestTimetableServiceExport(t *testing.T) {
	svc, _ := newTestTimetableService(t, nil, TimetableConfig{})
	resp, err := svc.Generate(context.Background(), scenarioRequest())
	require.NoError(t, err)
	ctx := context.Background()

	jsonFile, err := svc.Export(ctx, resp.ID, "json")
	require.NoError(t, err)
	assert.Equal(t, "application/json", jsonFile.ContentType)
	var doc struct {
		ScheduleInfo struct {
			GeneratedDate string `json:"generated_date"`
			TotalCourses  int    `json:"total_courses"`
		} `json:"schedule_info"`
		WeeklySchedule map[string][]map[string]string `json:"weekly_schedule"`
	}
	require.NoError(t, json.Unmarshal(jsonFile.Body, &doc))
	assert.Equal(t, 2, doc.ScheduleInfo.TotalCourses)
	assert.Equal(t, "2026-10-14 14:00:00", doc.ScheduleInfo.GeneratedDate)
	assert.Len(t, doc.WeeklySchedule, 5)
	assert.Equal(t, "10:00 AM", doc.WeeklySchedule["Monday"][0]["start_time"])

	csvFile, err := svc.Export(ctx, resp.ID, "CSV")
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(csvFile.Body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, timetableHeaders, records[0])
	assert.Equal(t, []string{"Monday", "B", "LEC", "10:00 AM", "11:00 AM", "SHA1001", "North", "B-1000", "TBA"}, records[1])

	pdfFile, err := svc.Export(ctx, resp.ID, "pdf")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdfFile.Body, []byte("%PDF-")))
	assert.True(t, strings.HasSuffix(pdfFile.Filename, ".pdf"))

	icsFile, err := svc.Export(ctx, resp.ID, "ics")
	require.NoError(t, err)
	assert.Equal(t, "text/calendar", icsFile.ContentType)
	body := strings.ReplaceAll(string(icsFile.Body), "\r\n ", "")
	assert.Equal(t, 4, strings.Count(body, "BEGIN:VEVENT"))
	assert.Contains(t, body, "SUMMARY:B - LEC")
	assert.Contains(t, body, "DTSTART;TZID=America/Toronto:20261019T100000")

	_, err = svc.Export(ctx, resp.ID, "xlsx")
	requireAppError(t, err, appErrors.ErrValidation.Code)
}

func TestNewTimetableServiceRejectsUnknownTimezone(t *testing.T) {
	_, err := NewTimetableService(nil, nil, nil, nil, TimetableConfig{Timezone: "Nowhere/Land"})
	assert.Error(t, err)
}
