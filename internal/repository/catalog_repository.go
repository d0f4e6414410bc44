package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"github.com/noah-isme/section-scheduler/internal/models"
	"github.com/noah-isme/section-scheduler/internal/scheduler"
)

// CatalogRepository reads sections, classrooms and enrollments from the
// course catalog. Queries use ? placeholders rebound per driver.
type CatalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// leadProfessorJoin pairs each section with its lowest professor id. A
// co-taught section has several professor_assignment rows but is placed once.
const leadProfessorJoin = `JOIN (SELECT section_id, MIN(professor_id) AS professor_id
			FROM professor_assignment GROUP BY section_id) pa ON s.id = pa.section_id`

const (
	listSectionsQuery = `SELECT s.id, s.section_number, c.code AS course_code, c.credits, pa.professor_id
		FROM section s
		JOIN course_instance ci ON s.course_instance_id = ci.id
		JOIN course c ON ci.course_id = c.id
		` + leadProfessorJoin + `
		ORDER BY s.id`
	listEnrollmentsQuery = `SELECT section_id, student_id FROM student_assignment ORDER BY section_id, student_id`
	listClassroomsQuery  = `SELECT id, name, capacity FROM classroom WHERE capacity >= ? ORDER BY id`
	listOverlapsQuery    = `SELECT a.section_id, b.section_id AS other_section_id, COUNT(DISTINCT a.student_id) AS shared_students
		FROM student_assignment a
		JOIN student_assignment b ON a.student_id = b.student_id AND a.section_id <> b.section_id
		GROUP BY a.section_id, b.section_id`
)

// ListSectionRows returns the raw section rows.
func (r *CatalogRepository) ListSectionRows(ctx context.Context) ([]models.SectionRow, error) {
	var rows []models.SectionRow
	if err := r.db.SelectContext(ctx, &rows, listSectionsQuery); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return rows, nil
}

// ListSections returns every section with its enrolled students attached.
// Enrollment count is the number of distinct enrolled students.
func (r *CatalogRepository) ListSections(ctx context.Context) ([]scheduler.Section, error) {
	rows, err := r.ListSectionRows(ctx)
	if err != nil {
		return nil, err
	}
	rows = leadProfessorRows(rows, func(row models.SectionRow) (int64, int64) { return row.ID, row.ProfessorID })

	var enrollments []models.EnrollmentRow
	if err := r.db.SelectContext(ctx, &enrollments, listEnrollmentsQuery); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	students := groupStudents(enrollments)

	sections := make([]scheduler.Section, 0, len(rows))
	for _, row := range rows {
		ids := students[row.ID]
		sections = append(sections, scheduler.Section{
			ID:              row.ID,
			CreditHours:     row.Credits,
			ProfessorID:     row.ProfessorID,
			EnrollmentCount: len(ids),
			StudentIDs:      ids,
		})
	}
	return sections, nil
}

// ListClassrooms returns classrooms holding at least minCapacity students.
func (r *CatalogRepository) ListClassrooms(ctx context.Context, minCapacity int) ([]scheduler.Classroom, error) {
	var rows []models.ClassroomRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(listClassroomsQuery), minCapacity); err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}
	return lo.Map(rows, func(row models.ClassroomRow, _ int) scheduler.Classroom {
		return scheduler.Classroom{ID: row.ID, Name: row.Name, Capacity: row.Capacity}
	}), nil
}

// ListEnrollmentOverlaps returns shared student counts for every ordered
// pair of distinct sections with at least one student in common.
func (r *CatalogRepository) ListEnrollmentOverlaps(ctx context.Context) ([]scheduler.EnrollmentOverlap, error) {
	var rows []models.EnrollmentOverlapRow
	if err := r.db.SelectContext(ctx, &rows, listOverlapsQuery); err != nil {
		return nil, fmt.Errorf("list enrollment overlaps: %w", err)
	}
	return lo.Map(rows, func(row models.EnrollmentOverlapRow, _ int) scheduler.EnrollmentOverlap {
		return scheduler.EnrollmentOverlap{
			SectionID:      row.SectionID,
			OtherSectionID: row.OtherSectionID,
			SharedStudents: row.SharedStudents,
		}
	}), nil
}

func groupStudents(rows []models.EnrollmentRow) map[int64][]int64 {
	grouped := lo.GroupBy(rows, func(row models.EnrollmentRow) int64 { return row.SectionID })
	out := make(map[int64][]int64, len(grouped))
	for sectionID, members := range grouped {
		ids := lo.Uniq(lo.Map(members, func(row models.EnrollmentRow, _ int) int64 { return row.StudentID }))
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		out[sectionID] = ids
	}
	return out
}

// leadProfessorRows keeps one row per section id, the one with the lowest
// professor id, ordered by section id.
func leadProfessorRows[T any](rows []T, key func(T) (sectionID, professorID int64)) []T {
	sorted := make([]T, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, ap := key(sorted[i])
		b, bp := key(sorted[j])
		if a != b {
			return a < b
		}
		return ap < bp
	})
	return lo.UniqBy(sorted, func(row T) int64 {
		id, _ := key(row)
		return id
	})
}
