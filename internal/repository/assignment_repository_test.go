package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/section-scheduler/internal/models"
	"github.com/noah-isme/section-scheduler/internal/scheduler"
)

func TestAssignmentRepositorySaveAssignment(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("INSERT INTO classroom_schedule").
		WithArgs(int64(4), int64(2), "Wednesday", "14:00:00", "16:00:00").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.SaveAssignment(context.Background(), scheduler.Assignment{
		SectionID:   4,
		ClassroomID: 2,
		ProfessorID: 9,
		Interval:    scheduler.Interval{Day: scheduler.Wednesday, Start: 14, End: 16},
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositorySaveAssignmentError(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO classroom_schedule").WillReturnError(errors.New("duplicate key"))

	err := NewAssignmentRepository(db).SaveAssignment(context.Background(), scheduler.Assignment{SectionID: 4, Interval: scheduler.Interval{Day: scheduler.Monday, Start: 9, End: 11}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "section 4")
}

func TestAssignmentRepositoryClearAndCount(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(clearAssignmentsQuery)).WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectQuery(regexp.QuoteMeta(countAssignmentsQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	require.NoError(t, repo.ClearAssignments(context.Background()))
	total, err := repo.Count(context.Background())

	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListScheduleView(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("FROM classroom_schedule cs")).
		WillReturnRows(sqlmock.NewRows([]string{"course_code", "course_name", "section_number", "classroom_name", "day_of_week", "start_time", "end_time", "professor_name"}).
			AddRow("CS101", "Programming", 1, "A-101", "Monday", "09:00:00", "12:00:00", "Ada Lovelace"))

	rows, err := NewAssignmentRepository(db).ListScheduleView(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []models.ScheduleViewRow{{
		CourseCode:    "CS101",
		CourseName:    "Programming",
		SectionNumber: 1,
		ClassroomName: "A-101",
		DayOfWeek:     "Monday",
		StartTime:     "09:00:00",
		EndTime:       "12:00:00",
		ProfessorName: "Ada Lovelace",
	}}, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreDrivesRunner(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(clearAssignmentsQuery)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM section s").
		WillReturnRows(sqlmock.NewRows([]string{"id", "section_number", "course_code", "credits", "professor_id"}).AddRow(1, 1, "CS101", 3, 10))
	mock.ExpectQuery(regexp.QuoteMeta(listEnrollmentsQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"section_id", "student_id"}).AddRow(1, 500))
	mock.ExpectQuery("FROM classroom WHERE").
		WithArgs(0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "capacity"}).AddRow(1, "A-101", 30))
	mock.ExpectQuery("COUNT\\(DISTINCT").
		WillReturnRows(sqlmock.NewRows([]string{"section_id", "other_section_id", "shared_students"}))
	mock.ExpectExec("INSERT INTO classroom_schedule").
		WithArgs(int64(1), int64(1), "Monday", "09:00:00", "12:00:00").
		WillReturnResult(sqlmock.NewResult(1, 1))

	result, err := scheduler.NewRunner(NewSQLStore(db)).Run(context.Background())

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NoError(t, mock.ExpectationsWereMet())
}
