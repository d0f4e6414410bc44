// Package scheduler assigns course sections to classrooms and weekly time
// slots. It keeps an in-memory conflict model for classrooms, professors and
// students and places sections greedily, most constrained first.
package scheduler

import (
	"errors"
	"fmt"
	"strings"
)

// Business hours, expressed as hour of day.
const (
	DayStartHour   = 9
	DayEndHour     = 18
	LunchStartHour = 13
	LunchEndHour   = 14
)

// Student conflict tolerance: the fraction of a section's students that may
// already be booked at an overlapping time before a slot is rejected.
const (
	shortSectionStudentThreshold   = 0.7
	defaultSectionStudentThreshold = 0.5
	shortSectionConflictDiscount   = 0.8
)

// Sentinel errors reported as unscheduled reasons.
var (
	ErrNoSuitableClassroom = errors.New("no classroom with sufficient capacity")
	ErrNoValidSlot         = errors.New("no valid time slot in any candidate classroom")
	ErrCommitFailed        = errors.New("assignment could not be persisted")
	ErrInvalidSection      = errors.New("invalid section")
)

// Weekday is a teaching day, Monday through Friday.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
)

// Weekdays lists every teaching day in calendar order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

var weekdayNames = map[Weekday]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
}

func (d Weekday) String() string {
	if name, ok := weekdayNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Weekday(%d)", int(d))
}

// Valid reports whether d is a teaching day.
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Friday
}

// ParseWeekday resolves a day name case-insensitively.
func ParseWeekday(name string) (Weekday, error) {
	trimmed := strings.TrimSpace(name)
	for day, dayName := range weekdayNames {
		if strings.EqualFold(dayName, trimmed) {
			return day, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

// Interval is a booking on one day between two whole hours.
type Interval struct {
	Day   Weekday
	Start int
	End   int
}

// Overlaps reports whether both intervals share a day and their ranges
// intersect. Touching endpoints do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Day == other.Day && i.Start < other.End && i.End > other.Start
}

// Hours returns the interval length in hours.
func (i Interval) Hours() int {
	return i.End - i.Start
}

// WithinBusinessHours reports whether the interval lies in 09:00-18:00 and
// entirely before or after the lunch break.
func (i Interval) WithinBusinessHours() bool {
	if i.Start < DayStartHour || i.End > DayEndHour {
		return false
	}
	return i.End <= LunchStartHour || i.Start >= LunchEndHour
}

func (i Interval) String() string {
	return fmt.Sprintf("%s %02d:00-%02d:00", i.Day, i.Start, i.End)
}

// Section is one teaching group of a course instance.
type Section struct {
	ID              int64   `validate:"required,gt=0"`
	CreditHours     int     `validate:"min=2,max=4"`
	ProfessorID     int64   `validate:"required,gt=0"`
	EnrollmentCount int     `validate:"min=0"`
	StudentIDs      []int64 `validate:"dive,gt=0"`
}

// Classroom is a room that can host a section.
type Classroom struct {
	ID       int64 `validate:"required,gt=0"`
	Name     string
	Capacity int `validate:"gt=0"`
}

// Assignment places a section in a classroom at a given interval.
type Assignment struct {
	SectionID   int64
	ClassroomID int64
	ProfessorID int64
	Interval    Interval
}

// EnrollmentOverlap is the number of distinct students shared by two sections.
type EnrollmentOverlap struct {
	SectionID      int64
	OtherSectionID int64
	SharedStudents int
}

// Unscheduled records a section the run could not place and why.
type Unscheduled struct {
	SectionID int64
	Reason    error
}
