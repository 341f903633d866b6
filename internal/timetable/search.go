package timetable

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/class-timetable-api/internal/models"
)

// Mode selects the termination rule of the search.
type Mode string

const (
	// ModeFirstFound stops at the first complete assignment reached in ranked
	// order and reports it as the result.
	ModeFirstFound Mode = "first"
	// ModeExhaustive visits every complete assignment and keeps the one with
	// the strictly highest score.
	ModeExhaustive Mode = "exhaustive"
)

// ParseMode maps a configuration value onto a Mode. Empty selects ModeFirstFound.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case "", ModeFirstFound:
		return ModeFirstFound, nil
	case ModeExhaustive:
		return ModeExhaustive, nil
	default:
		return "", fmt.Errorf("unknown search mode %q", raw)
	}
}

// ctxCheckInterval is how many candidate visits pass between context checks.
const ctxCheckInterval = 256

var (
	// ErrSearchAborted is returned when the context ends before the search does.
	ErrSearchAborted = errors.New("timetable search aborted")
	// ErrNodeBudgetExceeded is returned when the search visits more candidates than allowed.
	ErrNodeBudgetExceeded = errors.New("timetable search exceeded node budget")
)

// Options tunes a Solver.
type Options struct {
	Mode Mode
	// MaxNodes caps the number of candidate visits. Zero means unbounded.
	MaxNodes int
}

// Stats describes the work done by one search.
type Stats struct {
	NodesVisited        int `json:"nodesVisited"`
	CompleteAssignments int `json:"completeAssignments"`
}

// Result is the outcome of a search. Found is false when no conflict-free
// assignment exists; Schedule is then empty.
type Result struct {
	Schedule  models.Schedule `json:"schedule"`
	Score     float64         `json:"score"`
	Breakdown ScoreBreakdown  `json:"breakdown"`
	Found     bool            `json:"found"`
	Mode      Mode            `json:"mode"`
	Stats     Stats           `json:"stats"`
}

// Solver assigns one session per required component of every course.
type Solver struct {
	opts Options
}

// NewSolver constructs a Solver. An empty mode selects ModeFirstFound.
func NewSolver(opts Options) *Solver {
	if opts.Mode == "" {
		opts.Mode = ModeFirstFound
	}
	if opts.MaxNodes < 0 {
		opts.MaxNodes = 0
	}
	return &Solver{opts: opts}
}

// Mode returns the termination rule used by the solver.
func (s *Solver) Mode() Mode {
	return s.opts.Mode
}

// Solve searches catalog for a conflict-free schedule under policy. A nil
// policy leaves every session eligible.
func (s *Solver) Solve(ctx context.Context, catalog models.Catalog, policy *TimeWindowPolicy) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{Mode: s.opts.Mode, Schedule: models.Schedule{}}, fmt.Errorf("%w: %v", ErrSearchAborted, err)
	}
	courses := make([]courseCandidates, 0, len(catalog.Courses))
	for _, course := range catalog.Courses {
		courses = append(courses, courseCandidates{
			code:     course.Code,
			required: course.RequiredTypes(),
			ranked:   RankCandidates(course.Sessions, policy),
		})
	}

	run := &search{
		ctx:      ctx,
		courses:  courses,
		mode:     s.opts.Mode,
		maxNodes: s.opts.MaxNodes,
		working:  make(models.Schedule, len(courses)),
		best:     &bestSeen{},
	}
	run.assignCourse(0)

	result := Result{Mode: s.opts.Mode, Stats: run.stats, Schedule: models.Schedule{}}
	if run.err != nil {
		return result, run.err
	}
	if run.best.found && len(courses) > 0 {
		result.Schedule = run.best.schedule
		result.Score = run.best.breakdown.Total()
		result.Breakdown = run.best.breakdown
		result.Found = true
	}
	return result, nil
}

type courseCandidates struct {
	code     string
	required []models.ScheduleType
	ranked   RankedCandidates
}

// bestSeen accumulates the best complete assignment observed so far.
type bestSeen struct {
	schedule  models.Schedule
	breakdown ScoreBreakdown
	found     bool
}

func (b *bestSeen) offer(schedule models.Schedule, breakdown ScoreBreakdown) {
	if b.found && breakdown.Total() <= b.breakdown.Total() {
		return
	}
	b.schedule = schedule.Clone()
	b.breakdown = breakdown
	b.found = true
}

// search is the mutable state of a single Solve call.
type search struct {
	ctx      context.Context
	courses  []courseCandidates
	mode     Mode
	maxNodes int

	working  models.Schedule
	selected []models.Session
	best     *bestSeen
	stats    Stats
	err      error
}

// assignCourse places every required component of courses[idx:]. It returns
// true once a complete assignment terminates the search.
func (s *search) assignCourse(idx int) bool {
	if s.err != nil {
		return false
	}
	if idx == len(s.courses) {
		return s.complete()
	}
	code := s.courses[idx].code
	s.working[code] = []models.Session{}
	if !s.assignComponent(idx, 0) {
		delete(s.working, code)
		return false
	}
	return true
}

func (s *search) assignComponent(courseIdx, typeIdx int) bool {
	course := s.courses[courseIdx]
	if typeIdx == len(course.required) {
		return s.assignCourse(courseIdx + 1)
	}
	candidates := course.ranked[course.required[typeIdx]]
	if len(candidates) == 0 {
		return false
	}
	for _, candidate := range candidates {
		if !s.visit() {
			return false
		}
		if ConflictsWithAny(candidate, s.selected) {
			continue
		}
		s.push(course.code, candidate)
		if s.assignComponent(courseIdx, typeIdx+1) {
			return true
		}
		s.pop(course.code)
	}
	return false
}

// complete scores the working assignment. In ModeFirstFound it ends the search.
func (s *search) complete() bool {
	s.stats.CompleteAssignments++
	s.best.offer(s.working, Evaluate(s.selected))
	return s.mode == ModeFirstFound
}

// visit counts a candidate visit and reports whether the search may continue.
func (s *search) visit() bool {
	if s.err != nil {
		return false
	}
	s.stats.NodesVisited++
	if s.maxNodes > 0 && s.stats.NodesVisited > s.maxNodes {
		s.err = ErrNodeBudgetExceeded
		return false
	}
	if s.stats.NodesVisited%ctxCheckInterval == 0 {
		if err := s.ctx.Err(); err != nil {
			s.err = fmt.Errorf("%w: %v", ErrSearchAborted, err)
			return false
		}
	}
	return true
}

func (s *search) push(code string, session models.Session) {
	s.working[code] = append(s.working[code], session)
	s.selected = append(s.selected, session)
}

func (s *search) pop(code string) {
	chosen := s.working[code]
	s.working[code] = chosen[:len(chosen)-1]
	s.selected = s.selected[:len(s.selected)-1]
}
