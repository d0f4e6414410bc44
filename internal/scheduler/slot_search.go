package scheduler

import (
	"sort"

	"github.com/samber/lo"
)

var (
	shortSectionStartHours   = []int{9, 10, 11, 14, 15, 16}
	defaultSectionStartHours = []int{9, 10, 14, 15}
)

// CandidateStartHours returns the start hours tried for a section.
func CandidateStartHours(creditHours int) []int {
	if creditHours == 2 {
		return shortSectionStartHours
	}
	return defaultSectionStartHours
}

// StudentConflictThreshold is the tolerated fraction of already-booked
// students for a section.
func StudentConflictThreshold(creditHours int) float64 {
	if creditHours == 2 {
		return shortSectionStudentThreshold
	}
	return defaultSectionStudentThreshold
}

// OrderedDays returns the weekdays sorted by current booking load, lightest
// first; equal loads keep calendar order.
func OrderedDays(index *ConflictIndex) []Weekday {
	load := index.DayLoad()
	days := make([]Weekday, len(Weekdays))
	copy(days, Weekdays)
	sort.SliceStable(days, func(i, j int) bool {
		return load[days[i]] < load[days[j]]
	})
	return days
}

// SlotSearch finds the first admissible interval for a section in a given
// classroom.
type SlotSearch struct {
	index *ConflictIndex
}

// NewSlotSearch binds a search to the run's conflict index.
func NewSlotSearch(index *ConflictIndex) *SlotSearch {
	return &SlotSearch{index: index}
}

// Find walks days (lightest first) and candidate start hours and returns the
// first interval that fits business hours and clears the classroom,
// professor and student checks. Intervals for which skip returns true are
// passed over. ok is false when nothing in this classroom qualifies.
func (s *SlotSearch) Find(section Section, classroomID int64, skip func(Interval) bool) (Interval, bool) {
	for _, day := range OrderedDays(s.index) {
		for _, start := range CandidateStartHours(section.CreditHours) {
			iv := Interval{Day: day, Start: start, End: start + section.CreditHours}
			if skip != nil && skip(iv) {
				continue
			}
			if s.Admissible(section, classroomID, iv) {
				return iv, true
			}
		}
	}
	return Interval{}, false
}

// Admissible applies every placement rule to one candidate interval.
func (s *SlotSearch) Admissible(section Section, classroomID int64, iv Interval) bool {
	if !iv.WithinBusinessHours() {
		return false
	}
	if s.index.HasConflict(ResourceClassroom, classroomID, iv) {
		return false
	}
	if s.index.HasConflict(ResourceProfessor, section.ProfessorID, iv) {
		return false
	}
	return !s.studentsOverbooked(section, iv)
}

// studentsOverbooked reports whether the share of the section's students
// already booked at an overlapping time exceeds the tolerance.
func (s *SlotSearch) studentsOverbooked(section Section, iv Interval) bool {
	total := len(section.StudentIDs)
	if total == 0 {
		return false
	}
	busy := lo.CountBy(section.StudentIDs, func(studentID int64) bool {
		return s.index.HasConflict(ResourceStudent, studentID, iv)
	})
	return float64(busy)/float64(total) > StudentConflictThreshold(section.CreditHours)
}
