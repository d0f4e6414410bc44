package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"

	"github.com/noah-isme/section-scheduler/internal/models"
	"github.com/noah-isme/section-scheduler/internal/scheduler"
)

// MemoryStore keeps a catalog and its classroom schedule in process. It
// backs offline runs and mirrors the SQL store's behaviour.
type MemoryStore struct {
	mu          sync.RWMutex
	sections    []models.CatalogSection
	classrooms  []models.ClassroomRow
	enrollments []models.EnrollmentRow
	assignments []models.ClassroomSchedule
	nextID      int64
}

var _ scheduler.Store = (*MemoryStore)(nil)

func NewMemoryStore(sections []models.CatalogSection, classrooms []models.ClassroomRow, enrollments []models.EnrollmentRow) *MemoryStore {
	return &MemoryStore{
		sections:    sections,
		classrooms:  classrooms,
		enrollments: enrollments,
	}
}

func (s *MemoryStore) ListSections(ctx context.Context) ([]scheduler.Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	students := groupStudents(s.enrollments)
	return lo.Map(s.leadSections(), func(row models.CatalogSection, _ int) scheduler.Section {
		ids := students[row.ID]
		return scheduler.Section{
			ID:              row.ID,
			CreditHours:     row.Credits,
			ProfessorID:     row.ProfessorID,
			EnrollmentCount: len(ids),
			StudentIDs:      ids,
		}
	}), nil
}

// leadSections collapses co-taught sections onto their lowest professor id,
// matching the SQL catalog. Callers hold s.mu.
func (s *MemoryStore) leadSections() []models.CatalogSection {
	return leadProfessorRows(s.sections, func(row models.CatalogSection) (int64, int64) { return row.ID, row.ProfessorID })
}

func (s *MemoryStore) ListClassrooms(ctx context.Context, minCapacity int) ([]scheduler.Classroom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.FilterMap(s.classrooms, func(row models.ClassroomRow, _ int) (scheduler.Classroom, bool) {
		return scheduler.Classroom{ID: row.ID, Name: row.Name, Capacity: row.Capacity}, row.Capacity >= minCapacity
	}), nil
}

func (s *MemoryStore) ListEnrollmentOverlaps(ctx context.Context) ([]scheduler.EnrollmentOverlap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bySection := groupStudents(s.enrollments)
	ids := lo.Keys(bySection)
	var out []scheduler.EnrollmentOverlap
	for _, a := range ids {
		members := lo.SliceToMap(bySection[a], func(id int64) (int64, struct{}) { return id, struct{}{} })
		for _, b := range ids {
			if a == b {
				continue
			}
			shared := lo.CountBy(bySection[b], func(id int64) bool {
				_, ok := members[id]
				return ok
			})
			if shared > 0 {
				out = append(out, scheduler.EnrollmentOverlap{SectionID: a, OtherSectionID: b, SharedStudents: shared})
			}
		}
	}
	return out, nil
}

func (s *MemoryStore) ClearAssignments(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments = nil
	return nil
}

func (s *MemoryStore) SaveAssignment(ctx context.Context, assignment scheduler.Assignment) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("insert classroom schedule for section %d: %w", assignment.SectionID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	row := ToClassroomSchedule(assignment)
	row.ID = s.nextID
	s.assignments = append(s.assignments, row)
	return nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assignments), nil
}

// ListScheduleView joins placements with the in-memory catalog. Placements
// whose section or classroom is unknown are skipped, matching an inner join.
func (s *MemoryStore) ListScheduleView(ctx context.Context) ([]models.ScheduleViewRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sections := lo.KeyBy(s.leadSections(), func(row models.CatalogSection) int64 { return row.ID })
	rooms := lo.KeyBy(s.classrooms, func(row models.ClassroomRow) int64 { return row.ID })

	return lo.FilterMap(s.assignments, func(a models.ClassroomSchedule, _ int) (models.ScheduleViewRow, bool) {
		section, okSection := sections[a.SectionID]
		room, okRoom := rooms[a.ClassroomID]
		if !okSection || !okRoom {
			return models.ScheduleViewRow{}, false
		}
		return models.ScheduleViewRow{
			CourseCode:    section.CourseCode,
			CourseName:    section.CourseName,
			SectionNumber: section.SectionNumber,
			ClassroomName: room.Name,
			DayOfWeek:     a.DayOfWeek,
			StartTime:     a.StartTime,
			EndTime:       a.EndTime,
			ProfessorName: section.ProfessorName,
		}, true
	}), nil
}
