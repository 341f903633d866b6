package timetable

import "github.com/noah-isme/class-timetable-api/internal/models"

// SharedDays returns the days both sessions meet on, in a's order.
func SharedDays(a, b models.Session) []models.Weekday {
	var shared []models.Weekday
	for _, day := range a.DaysOfWeek {
		if b.MeetsOn(day) {
			shared = append(shared, day)
		}
	}
	return shared
}

// Conflicts reports whether two sessions overlap on a day they share.
// Intervals are half-open, so back-to-back sessions do not conflict.
func Conflicts(a, b models.Session) bool {
	if len(SharedDays(a, b)) == 0 {
		return false
	}
	aStart, aEnd := ToMinutes(a.BeginTime), ToMinutes(a.EndTime)
	bStart, bEnd := ToMinutes(b.BeginTime), ToMinutes(b.EndTime)
	return !(aEnd <= bStart || bEnd <= aStart)
}

// ConflictsWithAny reports whether candidate conflicts with any of the selected sessions.
func ConflictsWithAny(candidate models.Session, selected []models.Session) bool {
	for _, existing := range selected {
		if Conflicts(candidate, existing) {
			return true
		}
	}
	return false
}

// ConflictPair names two sessions of a schedule that overlap.
type ConflictPair struct {
	First  models.Session
	Second models.Session
}

// FindConflicts checks every pair of sessions and returns the overlapping ones.
func FindConflicts(sessions []models.Session) []ConflictPair {
	var pairs []ConflictPair
	for i := 0; i < len(sessions); i++ {
		for j := i + 1; j < len(sessions); j++ {
			if Conflicts(sessions[i], sessions[j]) {
				pairs = append(pairs, ConflictPair{First: sessions[i], Second: sessions[j]})
			}
		}
	}
	return pairs
}
