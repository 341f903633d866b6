package timetable

import (
	"sort"

	"github.com/noah-isme/class-timetable-api/internal/models"
)

// distributionWeights favour front-loaded weeks.
var distributionWeights = map[models.Weekday]float64{
	models.Monday:    1.5,
	models.Tuesday:   1.3,
	models.Wednesday: 1.1,
	models.Thursday:  0.5,
	models.Friday:    0.2,
}

const (
	distributionScale   = 100
	freeFridayBonus     = 500
	freeThursdayBonus   = 300
	concentrationFactor = 200
	tightScheduleBonus  = 300
	tightGapMinutes     = 60
)

// ScoreBreakdown itemises how a schedule's score was obtained.
type ScoreBreakdown struct {
	GapTerm            float64 `json:"gapTerm"`
	DistributionTerm   float64 `json:"distributionTerm"`
	FreeFridayBonus    float64 `json:"freeFridayBonus"`
	FreeThursdayBonus  float64 `json:"freeThursdayBonus"`
	ConcentrationBonus float64 `json:"concentrationBonus"`
	TightScheduleBonus float64 `json:"tightScheduleBonus"`
	GapCount           int     `json:"gapCount"`
	SmallGapCount      int     `json:"smallGapCount"`
	DaysUsed           int     `json:"daysUsed"`
}

// Total sums every term of the breakdown.
func (b ScoreBreakdown) Total() float64 {
	return b.GapTerm + b.DistributionTerm + b.FreeFridayBonus + b.FreeThursdayBonus + b.ConcentrationBonus + b.TightScheduleBonus
}

// Evaluate rates a complete, conflict-free set of sessions; a higher Total is
// better. An empty set scores zero.
func Evaluate(sessions []models.Session) ScoreBreakdown {
	var b ScoreBreakdown
	if len(sessions) == 0 {
		return b
	}

	dayCounts := make(map[models.Weekday]int)
	for _, session := range sessions {
		for _, day := range session.DaysOfWeek {
			dayCounts[day]++
		}
	}

	var gapTotal float64
	for _, day := range models.Weekdays {
		for _, gap := range dayGaps(sessions, day) {
			gapTotal += gapContribution(gap)
			if gap < tightGapMinutes {
				b.SmallGapCount++
			}
			b.GapCount++
		}
	}
	denominator := b.GapCount
	if denominator == 0 {
		denominator = 1
	}
	b.GapTerm = gapTotal / float64(denominator)

	var distribution float64
	for _, day := range models.Weekdays {
		distribution += float64(dayCounts[day]) * distributionWeights[day]
	}
	b.DistributionTerm = distribution * distributionScale

	if dayCounts[models.Friday] == 0 {
		b.FreeFridayBonus = freeFridayBonus
	}
	if dayCounts[models.Thursday] == 0 {
		b.FreeThursdayBonus = freeThursdayBonus
	}
	b.DaysUsed = len(dayCounts)
	b.ConcentrationBonus = float64((len(models.Weekdays) - b.DaysUsed) * concentrationFactor)

	if b.GapCount > 0 && float64(b.SmallGapCount)/float64(b.GapCount) > 0.5 {
		b.TightScheduleBonus = tightScheduleBonus
	}
	return b
}

// dayGaps returns the minutes between consecutive sessions meeting on day,
// ordered by start time.
func dayGaps(sessions []models.Session, day models.Weekday) []int {
	var meeting []models.Session
	for _, session := range sessions {
		if session.MeetsOn(day) {
			meeting = append(meeting, session)
		}
	}
	if len(meeting) < 2 {
		return nil
	}
	sort.SliceStable(meeting, func(i, j int) bool {
		return ToMinutes(meeting[i].BeginTime) < ToMinutes(meeting[j].BeginTime)
	})
	gaps := make([]int, 0, len(meeting)-1)
	for i := 0; i < len(meeting)-1; i++ {
		gap := ToMinutes(meeting[i+1].BeginTime) - ToMinutes(meeting[i].EndTime)
		if gap < 0 {
			gap = -gap
		}
		gaps = append(gaps, gap)
	}
	return gaps
}

func gapContribution(gap int) float64 {
	switch {
	case gap < 60:
		return float64((60 - gap) * 4)
	case gap < 120:
		return float64((120 - gap) * 2)
	case gap < 180:
		return float64(180 - gap)
	default:
		return 0
	}
}
