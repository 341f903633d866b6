package timetable

import (
	"fmt"
	"strings"

	"github.com/noah-isme/class-timetable-api/internal/models"
)

// CheckFeasibility reports, in catalog order, every course whose required
// component types have no session allowed by policy. An empty result means each
// course can be satisfied in isolation; it does not guarantee a global schedule.
func CheckFeasibility(catalog models.Catalog, policy *TimeWindowPolicy) []models.Infeasibility {
	var issues []models.Infeasibility
	for _, course := range catalog.Courses {
		available := make(map[models.ScheduleType]bool)
		for _, session := range course.Sessions {
			if policy.IsAllowed(session) {
				available[session.MeetingScheduleType] = true
			}
		}
		var missing []models.ScheduleType
		for _, typ := range course.RequiredTypes() {
			if !available[typ] {
				missing = append(missing, typ)
			}
		}
		if len(missing) == 0 {
			continue
		}
		names := make([]string, len(missing))
		for i, typ := range missing {
			names[i] = string(typ)
		}
		issues = append(issues, models.Infeasibility{
			Course:       course.Code,
			MissingTypes: missing,
			Message: fmt.Sprintf("Course %s has no available %s sections within the specified time preferences.",
				course.Code, strings.Join(names, ", ")),
		})
	}
	return issues
}
