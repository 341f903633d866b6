package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/class-timetable-api/internal/dto"
	"github.com/noah-isme/class-timetable-api/internal/models"
	"github.com/noah-isme/class-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/class-timetable-api/pkg/errors"
)

type resultCache interface {
	Enabled() bool
	Key(request interface{}) (string, error)
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// TimetableConfig governs solver defaults and export rendering.
type TimetableConfig struct {
	Mode          timetable.Mode
	MaxNodes      int
	ResultTTL     time.Duration
	RoomPrefixes  map[string]string
	Timezone      string
	CalendarWeeks int
}

// TimetableService runs the validate, pre-flight, search and store pipeline.
type TimetableService struct {
	cache     resultCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	store     *resultStore
	exports   *timetableExporter
	cfg       TimetableConfig
	now       func() time.Time
}

// NewTimetableService wires the pipeline. cache and metrics are optional.
func NewTimetableService(cache resultCache, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg TimetableConfig) (*TimetableService, error) {
	if validate == nil {
		validate = timetable.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Mode == "" {
		cfg.Mode = timetable.ModeFirstFound
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 30 * time.Minute
	}
	if cfg.RoomPrefixes == nil {
		cfg.RoomPrefixes = timetable.DefaultRoomPrefixes()
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "America/Toronto"
	}
	if cfg.CalendarWeeks <= 0 {
		cfg.CalendarWeeks = 12
	}
	exports, err := newTimetableExporter(cfg.Timezone, cfg.CalendarWeeks)
	if err != nil {
		return nil, err
	}
	return &TimetableService{
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		store:     newResultStore(cfg.ResultTTL),
		exports:   exports,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// solveKey identifies a search for memoisation.
type solveKey struct {
	Courses  models.Catalog                         `json:"courses"`
	Windows  map[models.Weekday]timetable.DayWindow `json:"windows"`
	Mode     timetable.Mode                         `json:"mode"`
	MaxNodes int                                    `json:"maxNodes"`
}

// Feasibility validates the request and reports pre-flight issues without searching.
func (s *TimetableService) Feasibility(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.FeasibilityResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSearchAborted.Code, appErrors.ErrSearchAborted.Status, "request cancelled")
	}
	policy, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	issues := timetable.CheckFeasibility(req.Courses, policy)
	if issues == nil {
		issues = []models.Infeasibility{}
	}
	return &dto.FeasibilityResponse{
		Feasible: len(issues) == 0,
		Issues:   issues,
		Windows:  policy.Windows(),
	}, nil
}

// Generate searches for a timetable and stores it under a new ID.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.TimetableResponse, error) {
	policy, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	mode := s.cfg.Mode
	if req.Mode != "" {
		mode = timetable.Mode(req.Mode)
	}

	if issues := timetable.CheckFeasibility(req.Courses, policy); len(issues) > 0 {
		s.metrics.ObserveSolve(string(mode), OutcomeInfeasible, 0, 0)
		s.logger.Info("timetable infeasible",
			zap.Int("courses", len(req.Courses.Courses)),
			zap.Int("issues", len(issues)),
		)
		cause := &models.InfeasibleScheduleError{Issues: issues}
		return nil, appErrors.WithDetails(
			appErrors.Wrap(cause, appErrors.ErrInfeasible.Code, appErrors.ErrInfeasible.Status, appErrors.ErrInfeasible.Message),
			issues,
		)
	}

	result, cached, err := s.solve(ctx, req.Courses, policy, mode)
	if err != nil {
		return nil, err
	}

	order := req.Courses.Codes()
	entry := storedTimetable{
		ID:          uuid.NewString(),
		Order:       order,
		Result:      result,
		Cached:      cached,
		GeneratedAt: s.now(),
	}
	s.store.Save(entry)
	s.metrics.SetStoredSchedules(s.store.Len())

	s.logger.Info("timetable generated",
		zap.String("id", entry.ID),
		zap.String("mode", string(result.Mode)),
		zap.Float64("score", result.Score),
		zap.Int("sessions", len(result.Schedule.Sessions(order))),
		zap.Int("nodes", result.Stats.NodesVisited),
		zap.Bool("cached", cached),
	)
	return s.toResponse(entry), nil
}

// Get returns a stored timetable.
func (s *TimetableService) Get(ctx context.Context, id string) (*dto.TimetableResponse, error) {
	entry, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(entry), nil
}

// Delete discards a stored timetable.
func (s *TimetableService) Delete(ctx context.Context, id string) error {
	if _, err := s.lookup(id); err != nil {
		return err
	}
	s.store.Delete(id)
	s.metrics.SetStoredSchedules(s.store.Len())
	return nil
}

// Export renders a stored timetable in the requested format.
func (s *TimetableService) Export(ctx context.Context, id, format string) (*dto.ExportFile, error) {
	entry, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	file, err := s.exports.Render(format, entry, s.weekly(entry))
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return file, nil
}

func invalidPayload(err error) error {
	return appErrors.WithDetails(
		appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload"),
		timetable.FieldErrors(err),
	)
}

func (s *TimetableService) prepare(req dto.GenerateTimetableRequest) (*timetable.TimeWindowPolicy, error) {
	if err := timetable.ValidateCatalog(s.validator, req.Courses); err != nil {
		return nil, invalidPayload(err)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err)
	}
	policy, err := req.Restrictions.Policy()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return policy, nil
}

func (s *TimetableService) solve(ctx context.Context, catalog models.Catalog, policy *timetable.TimeWindowPolicy, mode timetable.Mode) (timetable.Result, bool, error) {
	key := ""
	if s.cache != nil && s.cache.Enabled() {
		k, err := s.cache.Key(solveKey{Courses: catalog, Windows: policy.Windows(), Mode: mode, MaxNodes: s.cfg.MaxNodes})
		if err != nil {
			s.logger.Warn("timetable cache key failed", zap.Error(err))
		} else {
			key = k
			var cached timetable.Result
			if hit, _ := s.cache.Get(ctx, key, &cached); hit && cached.Found {
				s.metrics.ObserveSolve(string(mode), OutcomeCached, 0, 0)
				return cached, true, nil
			}
		}
	}

	solver := timetable.NewSolver(timetable.Options{Mode: mode, MaxNodes: s.cfg.MaxNodes})
	start := time.Now()
	result, err := solver.Solve(ctx, catalog, policy)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.ObserveSolve(string(mode), OutcomeAborted, elapsed, result.Stats.NodesVisited)
		s.logger.Warn("timetable search aborted",
			zap.String("mode", string(mode)),
			zap.Int("nodes", result.Stats.NodesVisited),
			zap.Error(err),
		)
		if errors.Is(err, timetable.ErrSearchAborted) || errors.Is(err, timetable.ErrNodeBudgetExceeded) {
			return timetable.Result{}, false, appErrors.Wrap(err, appErrors.ErrSearchAborted.Code, appErrors.ErrSearchAborted.Status, appErrors.ErrSearchAborted.Message)
		}
		return timetable.Result{}, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "timetable search failed")
	}
	if !result.Found {
		s.metrics.ObserveSolve(string(mode), OutcomeNotFound, elapsed, result.Stats.NodesVisited)
		s.logger.Info("timetable not found",
			zap.String("mode", string(mode)),
			zap.Int("nodes", result.Stats.NodesVisited),
		)
		return timetable.Result{}, false, appErrors.Clone(appErrors.ErrNoSchedule, "")
	}
	s.metrics.ObserveSolve(string(mode), OutcomeFound, elapsed, result.Stats.NodesVisited)

	if key != "" {
		_ = s.cache.Set(ctx, key, result, 0)
	}
	return result, false, nil
}

func (s *TimetableService) lookup(id string) (storedTimetable, error) {
	if _, err := uuid.Parse(id); err != nil {
		return storedTimetable{}, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
	}
	entry, ok := s.store.Get(id)
	if !ok {
		s.metrics.SetStoredSchedules(s.store.Len())
		return storedTimetable{}, appErrors.Clone(appErrors.ErrNotFound, "timetable not found or expired")
	}
	return entry, nil
}

func (s *TimetableService) weekly(entry storedTimetable) timetable.WeeklySchedule {
	return timetable.ProjectWeek(entry.Order, entry.Result.Schedule, s.cfg.RoomPrefixes)
}

func (s *TimetableService) toResponse(entry storedTimetable) *dto.TimetableResponse {
	return &dto.TimetableResponse{
		ID:          entry.ID,
		Mode:        entry.Result.Mode,
		Score:       entry.Result.Score,
		Breakdown:   entry.Result.Breakdown,
		Stats:       entry.Result.Stats,
		Courses:     append([]string(nil), entry.Order...),
		Schedule:    entry.Result.Schedule.Clone(),
		Weekly:      s.weekly(entry),
		Cached:      entry.Cached,
		GeneratedAt: entry.GeneratedAt,
		ExpiresAt:   entry.GeneratedAt.Add(s.store.ttl),
	}
}

// String describes the configured defaults for startup logs.
func (c TimetableConfig) String() string {
	return fmt.Sprintf("mode=%s max_nodes=%d ttl=%s tz=%s weeks=%d", c.Mode, c.MaxNodes, c.ResultTTL, c.Timezone, c.CalendarWeeks)
}

// --- Result store ---

type storedTimetable struct {
	ID          string
	Order       []string
	Result      timetable.Result
	Cached      bool
	GeneratedAt time.Time
}

type resultStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]storedTimetable
	now   func() time.Time
}

func newResultStore(ttl time.Duration) *resultStore {
	return &resultStore{
		ttl:   ttl,
		items: make(map[string]storedTimetable),
		now:   time.Now,
	}
}

// Save stores entry and sweeps expired ones.
func (s *resultStore) Save(entry storedTimetable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, item := range s.items {
		if s.expired(item) {
			delete(s.items, id)
		}
	}
	s.items[entry.ID] = entry
}

func (s *resultStore) Get(id string) (storedTimetable, bool) {
	s.mu.RLock()
	entry, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return storedTimetable{}, false
	}
	if s.expired(entry) {
		s.Delete(id)
		return storedTimetable{}, false
	}
	return entry, true
}

func (s *resultStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

func (s *resultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *resultStore) expired(entry storedTimetable) bool {
	return s.now().Sub(entry.GeneratedAt) > s.ttl
}
