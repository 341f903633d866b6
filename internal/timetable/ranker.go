package timetable

import (
	"sort"

	"github.com/noah-isme/class-timetable-api/internal/models"
)

// rankingWeights order candidates inside a component type; Monday ranks highest.
var rankingWeights = map[models.Weekday]int{
	models.Monday:    5,
	models.Tuesday:   4,
	models.Wednesday: 3,
	models.Thursday:  2,
	models.Friday:    1,
}

// rankKey is the ordering key of a candidate: the lowest ranking weight of its
// days, then its start minute.
type rankKey struct {
	dayWeight int
	start     int
}

func keyOf(session models.Session) rankKey {
	weight := 0
	for idx, day := range session.DaysOfWeek {
		w := rankingWeights[day]
		if idx == 0 || w < weight {
			weight = w
		}
	}
	return rankKey{dayWeight: weight, start: ToMinutes(session.BeginTime)}
}

func (k rankKey) greater(o rankKey) bool {
	if k.dayWeight != o.dayWeight {
		return k.dayWeight > o.dayWeight
	}
	return k.start > o.start
}

// RankedCandidates holds a course's policy-allowed sessions grouped by component
// type, each group in search order.
type RankedCandidates map[models.ScheduleType][]models.Session

// RankCandidates filters sessions through policy, groups them by type and sorts
// each group by descending rank key. Equal keys keep their catalog order.
func RankCandidates(sessions []models.Session, policy *TimeWindowPolicy) RankedCandidates {
	groups := make(RankedCandidates)
	for _, session := range sessions {
		if !policy.IsAllowed(session) {
			continue
		}
		groups[session.MeetingScheduleType] = append(groups[session.MeetingScheduleType], session)
	}
	for typ, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			return keyOf(group[i]).greater(keyOf(group[j]))
		})
		groups[typ] = group
	}
	return groups
}
