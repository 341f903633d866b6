package timetable

import "github.com/noah-isme/class-timetable-api/internal/models"

func session(crn string, typ models.ScheduleType, begin, end string, days ...models.Weekday) models.Session {
	return models.Session{
		CourseReferenceNumber: crn,
		MeetingScheduleType:   typ,
		BeginTime:             begin,
		EndTime:               end,
		DaysOfWeek:            days,
	}
}

func lec(crn, begin, end string, days ...models.Weekday) models.Session {
	return session(crn, models.ScheduleTypeLecture, begin, end, days...)
}

func catalogOf(courses ...models.Course) models.Catalog {
	return models.Catalog{Courses: courses}
}

func course(code string, sessions ...models.Session) models.Course {
	return models.Course{Code: code, Sessions: sessions}
}

func crns(sessions []models.Session) []string {
	out := make([]string, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.CourseReferenceNumber)
	}
	return out
}
