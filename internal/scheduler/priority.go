package scheduler

import (
	"sort"

	"github.com/samber/lo"
)

// RankedSection carries the ordering scores computed for a section.
type RankedSection struct {
	Section       Section
	Flexibility   int
	ConflictScore float64
}

// MaxOverlaps reduces pairwise overlaps to the largest number of students
// each section shares with any single other section.
func MaxOverlaps(overlaps []EnrollmentOverlap) map[int64]int {
	result := make(map[int64]int)
	for _, o := range overlaps {
		if o.SectionID == o.OtherSectionID {
			continue
		}
		if o.SharedStudents > result[o.SectionID] {
			result[o.SectionID] = o.SharedStudents
		}
	}
	return result
}

// Flexibility counts the (classroom, day, start hour) options still open to
// the section's professor among classrooms large enough for its enrollment.
// Start hours run from 09:00 up to, not including, 18:00 minus the credit
// hours, skipping 13:00.
func Flexibility(section Section, classrooms []Classroom, index *ConflictIndex) int {
	suitable := lo.Filter(classrooms, func(room Classroom, _ int) bool {
		return room.Capacity >= section.EnrollmentCount
	})
	open := 0
	for range suitable {
		for _, day := range Weekdays {
			for hour := DayStartHour; hour < DayEndHour-section.CreditHours; hour++ {
				if hour == LunchStartHour {
					continue
				}
				iv := Interval{Day: day, Start: hour, End: hour + section.CreditHours}
				if !index.HasConflict(ResourceProfessor, section.ProfessorID, iv) {
					open++
				}
			}
		}
	}
	return open
}

// ConflictScore scales the section's maximum student overlap. Two-credit
// sections are discounted by 20%.
func ConflictScore(section Section, maxOverlap int) float64 {
	score := float64(maxOverlap)
	if section.CreditHours == 2 {
		score *= shortSectionConflictDiscount
	}
	return score
}

// Prioritize scores every section and orders them: ascending flexibility,
// then descending conflict score, credit hours and enrollment. Remaining
// ties fall back to ascending section id.
func Prioritize(sections []Section, classrooms []Classroom, maxOverlap map[int64]int, index *ConflictIndex) []RankedSection {
	ranked := lo.Map(sections, func(section Section, _ int) RankedSection {
		return RankedSection{
			Section:       section,
			Flexibility:   Flexibility(section, classrooms, index),
			ConflictScore: ConflictScore(section, maxOverlap[section.ID]),
		}
	})
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Flexibility != b.Flexibility {
			return a.Flexibility < b.Flexibility
		}
		if a.ConflictScore != b.ConflictScore {
			return a.ConflictScore > b.ConflictScore
		}
		if a.Section.CreditHours != b.Section.CreditHours {
			return a.Section.CreditHours > b.Section.CreditHours
		}
		if a.Section.EnrollmentCount != b.Section.EnrollmentCount {
			return a.Section.EnrollmentCount > b.Section.EnrollmentCount
		}
		return a.Section.ID < b.Section.ID
	})
	return ranked
}
