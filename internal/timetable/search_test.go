package timetable

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-timetable-api/internal/models"
)

func scenarioCatalog() models.Catalog {
	return catalogOf(
		course("A",
			lec("A-0900", "0900", "1000", models.Monday, models.Wednesday),
			lec("A-1300", "1300", "1400", models.Monday, models.Wednesday),
		),
		course("B",
			lec("B-1000", "1000", "1100", models.Monday, models.Wednesday),
		),
	)
}

func TestSolveFirstFoundFollowsRanking(t *testing.T) {
	result, err := NewSolver(Options{}).Solve(context.Background(), scenarioCatalog(), nil)
	require.NoError(t, err)
	require.True(t, result.Found)

	assert.Equal(t, []string{"A-1300"}, crns(result.Schedule["A"]))
	assert.Equal(t, []string{"B-1000"}, crns(result.Schedule["B"]))
	assert.Equal(t, 1, result.Stats.CompleteAssignments)
	assert.Equal(t, ModeFirstFound, result.Mode)

	// 120 minute gaps on Monday and Wednesday contribute 60 each.
	assert.InDelta(t, 60, result.Breakdown.GapTerm, scoreDelta)
	assert.InDelta(t, 520, result.Breakdown.DistributionTerm, scoreDelta)
	assert.Equal(t, 0.0, result.Breakdown.TightScheduleBonus)
	assert.InDelta(t, 1980, result.Score, scoreDelta)
}

func TestSolveExhaustiveKeepsBestScore(t *testing.T) {
	result, err := NewSolver(Options{Mode: ModeExhaustive}).Solve(context.Background(), scenarioCatalog(), nil)
	require.NoError(t, err)
	require.True(t, result.Found)

	assert.Equal(t, []string{"A-0900"}, crns(result.Schedule["A"]))
	assert.Equal(t, []string{"B-1000"}, crns(result.Schedule["B"]))
	assert.Equal(t, 2, result.Stats.CompleteAssignments)
	assert.InDelta(t, 2460, result.Score, scoreDelta)

	first, err := NewSolver(Options{Mode: ModeFirstFound}).Solve(context.Background(), scenarioCatalog(), nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Score, first.Score)
}

func TestSolveTwoIndependentLectures(t *testing.T) {
	catalog := catalogOf(
		course("A", lec("A-1", "0900", "1000", models.Monday)),
		course("B", lec("B-1", "0900", "1000", models.Tuesday)),
	)

	result, err := NewSolver(Options{}).Solve(context.Background(), catalog, nil)
	require.NoError(t, err)
	require.True(t, result.Found)
	assert.Len(t, result.Schedule, 2)
	assert.Equal(t, 0.0, result.Breakdown.GapTerm)
	// (1.5 + 1.3) * 100 + 500 + 300 + 3*200
	assert.InDelta(t, 1680, result.Score, scoreDelta)
}

func TestSolveAlwaysOverlappingReturnsEmpty(t *testing.T) {
	catalog := catalogOf(
		course("A", lec("A-1", "0900", "1000", models.Monday, models.Wednesday)),
		course("B",
			lec("B-1", "0930", "1030", models.Monday),
			lec("B-2", "0900", "0945", models.Wednesday, models.Friday),
		),
	)

	result, err := NewSolver(Options{}).Solve(context.Background(), catalog, nil)
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Empty(t, result.Schedule)
	assert.Equal(t, 0.0, result.Score)
}

func TestSolveBacktracksIntoPreviousCourse(t *testing.T) {
	catalog := catalogOf(
		course("A",
			lec("A-1300", "1300", "1400", models.Monday),
			lec("A-0900", "0900", "1000", models.Monday),
		),
		course("B", lec("B-1300", "1300", "1400", models.Monday)),
	)

	result, err := NewSolver(Options{}).Solve(context.Background(), catalog, nil)
	require.NoError(t, err)
	require.True(t, result.Found)
	assert.Equal(t, []string{"A-0900"}, crns(result.Schedule["A"]))
	assert.Equal(t, []string{"B-1300"}, crns(result.Schedule["B"]))
}

func TestSolveAssignsEveryRequiredComponent(t *testing.T) {
	catalog := catalogOf(
		course("PHY",
			lec("PHY-L1", "0900", "1030", models.Monday, models.Wednesday),
			session("PHY-B1", models.ScheduleTypeLab, "0900", "1200", models.Monday),
			session("PHY-B2", models.ScheduleTypeLab, "1400", "1700", models.Tuesday),
			session("PHY-T1", models.ScheduleTypeTutorial, "1000", "1100", models.Wednesday),
			session("PHY-T2", models.ScheduleTypeTutorial, "1100", "1200", models.Wednesday),
		),
		course("MTH",
			lec("MTH-L1", "1200", "1330", models.Monday, models.Wednesday),
			session("MTH-T1", models.ScheduleTypeTutorial, "1000", "1100", models.Tuesday),
		),
	)

	result, err := NewSolver(Options{}).Solve(context.Background(), catalog, nil)
	require.NoError(t, err)
	require.True(t, result.Found)

	phy := result.Schedule["PHY"]
	require.Len(t, phy, 3)
	assert.Equal(t, models.ScheduleTypeLecture, phy[0].MeetingScheduleType)
	assert.Equal(t, models.ScheduleTypeLab, phy[1].MeetingScheduleType)
	assert.Equal(t, models.ScheduleTypeTutorial, phy[2].MeetingScheduleType)
	assert.Equal(t, "PHY-B2", phy[1].CourseReferenceNumber)
	assert.Equal(t, "PHY-T2", phy[2].CourseReferenceNumber)
	assert.Len(t, result.Schedule["MTH"], 2)

	flattened := result.Schedule.Sessions(catalog.Codes())
	assert.Empty(t, FindConflicts(flattened))
}

func TestSolveResultsAreConflictFree(t *testing.T) {
	catalog := catalogOf(
		course("A",
			lec("A-1", "0800", "0930", models.Monday, models.Wednesday),
			lec("A-2", "1000", "1130", models.Monday, models.Wednesday),
			session("A-T1", models.ScheduleTypeTutorial, "0900", "1000", models.Tuesday),
		),
		course("B",
			lec("B-1", "0900", "1030", models.Monday, models.Wednesday),
			lec("B-2", "1100", "1230", models.Tuesday, models.Thursday),
			session("B-B1", models.ScheduleTypeLab, "0900", "1200", models.Tuesday),
			session("B-B2", models.ScheduleTypeLab, "1300", "1600", models.Friday),
		),
		course("C",
			lec("C-1", "0830", "0950", models.Tuesday, models.Thursday),
			lec("C-2", "1300", "1420", models.Monday, models.Wednesday),
		),
	)

	for _, mode := range []Mode{ModeFirstFound, ModeExhaustive} {
		result, err := NewSolver(Options{Mode: mode}).Solve(context.Background(), catalog, nil)
		require.NoError(t, err)
		require.True(t, result.Found, mode)
		flattened := result.Schedule.Sessions(catalog.Codes())
		assert.Empty(t, FindConflicts(flattened), mode)
		for _, c := range catalog.Courses {
			assert.Len(t, result.Schedule[c.Code], len(c.RequiredTypes()), "%s %s", mode, c.Code)
		}
	}
}

func TestSolveRequiredTypeFilteredOut(t *testing.T) {
	policy := NewTimeWindowPolicy()
	policy.SetRestriction(models.Friday, "", "1200")
	catalog := catalogOf(
		course("A", lec("A-1", "0900", "1000", models.Monday)),
		course("B",
			lec("B-1", "0900", "1000", models.Tuesday),
			session("B-B1", models.ScheduleTypeLab, "1300", "1500", models.Friday),
		),
	)

	result, err := NewSolver(Options{}).Solve(context.Background(), catalog, policy)
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Empty(t, result.Schedule)
}

func TestSolveFirstCourseWithoutViableSession(t *testing.T) {
	policy := NewTimeWindowPolicy()
	policy.SetRestriction(models.Monday, "1000", "")
	catalog := catalogOf(
		course("A", lec("A-1", "0900", "1000", models.Monday)),
		course("B", lec("B-1", "1100", "1200", models.Monday)),
	)

	result, err := NewSolver(Options{}).Solve(context.Background(), catalog, policy)
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Zero(t, result.Stats.CompleteAssignments)
}

func TestSolveCourseWithoutSessions(t *testing.T) {
	catalog := catalogOf(course("EMPTY"), course("A", lec("A-1", "0900", "1000", models.Monday)))

	result, err := NewSolver(Options{}).Solve(context.Background(), catalog, nil)
	require.NoError(t, err)
	require.True(t, result.Found)
	assert.Contains(t, result.Schedule, "EMPTY")
	assert.Empty(t, result.Schedule["EMPTY"])
}

func TestSolveEmptyCatalog(t *testing.T) {
	result, err := NewSolver(Options{}).Solve(context.Background(), models.Catalog{}, nil)
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Empty(t, result.Schedule)
}

func TestSolveNodeBudget(t *testing.T) {
	_, err := NewSolver(Options{Mode: ModeExhaustive, MaxNodes: 2}).Solve(context.Background(), scenarioCatalog(), nil)
	require.ErrorIs(t, err, ErrNodeBudgetExceeded)
}

func TestSolveCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSolver(Options{}).Solve(ctx, scenarioCatalog(), nil)
	require.ErrorIs(t, err, ErrSearchAborted)
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeFirstFound, mode)

	mode, err = ParseMode("exhaustive")
	require.NoError(t, err)
	assert.Equal(t, ModeExhaustive, mode)

	_, err = ParseMode("greedy")
	assert.Error(t, err)
}
