package scheduler

import (
	"context"
	"errors"
)

type storeStub struct {
	sections      []Section
	classrooms    []Classroom
	sectionsErr   error
	clearErr      error
	failSave      func(Assignment) bool
	saved         []Assignment
	clearCalls    int
	saveAttempts  int
	overlapsCalls int
}

func (s *storeStub) ListSections(ctx context.Context) ([]Section, error) {
	if s.sectionsErr != nil {
		return nil, s.sectionsErr
	}
	out := make([]Section, len(s.sections))
	copy(out, s.sections)
	return out, nil
}

func (s *storeStub) ListClassrooms(ctx context.Context, minCapacity int) ([]Classroom, error) {
	var out []Classroom
	for _, room := range s.classrooms {
		if room.Capacity >= minCapacity {
			out = append(out, room)
		}
	}
	return out, nil
}

func (s *storeStub) ListEnrollmentOverlaps(ctx context.Context) ([]EnrollmentOverlap, error) {
	s.overlapsCalls++
	return overlapsOf(s.sections), nil
}

func (s *storeStub) SaveAssignment(ctx context.Context, assignment Assignment) error {
	s.saveAttempts++
	if s.failSave != nil && s.failSave(assignment) {
		return errors.New("insert failed")
	}
	s.saved = append(s.saved, assignment)
	return nil
}

func (s *storeStub) ClearAssignments(ctx context.Context) error {
	s.clearCalls++
	if s.clearErr != nil {
		return s.clearErr
	}
	s.saved = nil
	return nil
}

func overlapsOf(sections []Section) []EnrollmentOverlap {
	var out []EnrollmentOverlap
	for _, a := range sections {
		members := make(map[int64]bool, len(a.StudentIDs))
		for _, id := range a.StudentIDs {
			members[id] = true
		}
		for _, b := range sections {
			if a.ID == b.ID {
				continue
			}
			shared := 0
			for _, id := range b.StudentIDs {
				if members[id] {
					shared++
				}
			}
			if shared > 0 {
				out = append(out, EnrollmentOverlap{SectionID: a.ID, OtherSectionID: b.ID, SharedStudents: shared})
			}
		}
	}
	return out
}

// studentRange returns n consecutive student ids starting at first.
func studentRange(first, n int) []int64 {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = int64(first + i)
	}
	return ids
}

func newSection(id int64, credits int, professorID int64, students []int64) Section {
	return Section{
		ID:              id,
		CreditHours:     credits,
		ProfessorID:     professorID,
		EnrollmentCount: len(students),
		StudentIDs:      students,
	}
}
