package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/section-scheduler/internal/models"
	"github.com/noah-isme/section-scheduler/internal/scheduler"
)

// AssignmentRepository owns the classroom_schedule table.
type AssignmentRepository struct {
	db *sqlx.DB
}

func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const (
	clearAssignmentsQuery = `DELETE FROM classroom_schedule`
	insertAssignmentQuery = `INSERT INTO classroom_schedule (section_id, classroom_id, day_of_week, start_time, end_time)
		VALUES (:section_id, :classroom_id, :day_of_week, :start_time, :end_time)`
	countAssignmentsQuery = `SELECT COUNT(*) FROM classroom_schedule`
	scheduleViewQuery     = `SELECT c.code AS course_code, c.description AS course_name, s.section_number,
		cr.name AS classroom_name, cs.day_of_week, cs.start_time, cs.end_time, p.name AS professor_name
		FROM classroom_schedule cs
		JOIN section s ON cs.section_id = s.id
		JOIN course_instance ci ON s.course_instance_id = ci.id
		JOIN course c ON ci.course_id = c.id
		JOIN classroom cr ON cs.classroom_id = cr.id
		` + leadProfessorJoin + `
		JOIN professor p ON pa.professor_id = p.id`
)

// ClearAssignments deletes every persisted placement.
func (r *AssignmentRepository) ClearAssignments(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, clearAssignmentsQuery); err != nil {
		return fmt.Errorf("clear classroom schedule: %w", err)
	}
	return nil
}

// SaveAssignment inserts one placement.
func (r *AssignmentRepository) SaveAssignment(ctx context.Context, assignment scheduler.Assignment) error {
	row := ToClassroomSchedule(assignment)
	if _, err := r.db.NamedExecContext(ctx, insertAssignmentQuery, row); err != nil {
		return fmt.Errorf("insert classroom schedule for section %d: %w", assignment.SectionID, err)
	}
	return nil
}

// Count returns the number of persisted placements.
func (r *AssignmentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, countAssignmentsQuery); err != nil {
		return 0, fmt.Errorf("count classroom schedule: %w", err)
	}
	return total, nil
}

// ListScheduleView returns placements joined with course, classroom and
// professor names. Rows are unordered; callers sort by weekday.
func (r *AssignmentRepository) ListScheduleView(ctx context.Context) ([]models.ScheduleViewRow, error) {
	var rows []models.ScheduleViewRow
	if err := r.db.SelectContext(ctx, &rows, scheduleViewQuery); err != nil {
		return nil, fmt.Errorf("list schedule view: %w", err)
	}
	return rows, nil
}

// ToClassroomSchedule converts an assignment into its table row.
func ToClassroomSchedule(a scheduler.Assignment) models.ClassroomSchedule {
	return models.ClassroomSchedule{
		SectionID:   a.SectionID,
		ClassroomID: a.ClassroomID,
		DayOfWeek:   a.Interval.Day.String(),
		StartTime:   clockTime(a.Interval.Start),
		EndTime:     clockTime(a.Interval.End),
	}
}

func clockTime(hour int) string {
	return fmt.Sprintf("%02d:00:00", hour)
}

// SQLStore joins the catalog and assignment repositories into the single
// handle a scheduling run works against.
type SQLStore struct {
	*CatalogRepository
	*AssignmentRepository
}

var _ scheduler.Store = (*SQLStore)(nil)

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{
		CatalogRepository:    NewCatalogRepository(db),
		AssignmentRepository: NewAssignmentRepository(db),
	}
}
