package timetable

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/class-timetable-api/internal/models"
)

// NewValidator returns a validator that understands catalog records: the
// "hhmm", "clock" and "weekday" tags and the endTime-after-beginTime rule on
// sessions. "clock" also accepts the "HH:MM" form.
func NewValidator() *validator.Validate {
	v := validator.New()
	RegisterValidations(v)
	return v
}

// RegisterValidations installs the catalog rules on an existing validator.
func RegisterValidations(v *validator.Validate) {
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return ValidClock(fl.Field().String())
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return ValidClock(strings.Replace(fl.Field().String(), ":", "", 1))
	})
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		return models.Weekday(fl.Field().String()).Valid()
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		session := sl.Current().Interface().(models.Session)
		if !ValidClock(session.BeginTime) || !ValidClock(session.EndTime) {
			return
		}
		if session.EndTime <= session.BeginTime {
			sl.ReportError(session.EndTime, "EndTime", "endTime", "gtbegin", "")
		}
	}, models.Session{})
}

// ValidateCatalog checks every course record against the catalog rules.
func ValidateCatalog(v *validator.Validate, catalog models.Catalog) error {
	return v.Struct(catalog)
}

// FieldErrors flattens validator failures into "Catalog.Courses[0].Code: required"
// style messages. Other errors yield their message.
func FieldErrors(err error) []string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
	}
	return msgs
}
