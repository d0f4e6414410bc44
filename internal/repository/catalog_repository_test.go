package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/section-scheduler/internal/scheduler"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCatalogRepositoryListSectionsAttachesStudents(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.id, s.section_number, c.code AS course_code, c.credits, pa.professor_id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "section_number", "course_code", "credits", "professor_id"}).
			AddRow(1, 1, "CS101", 3, 10).
			AddRow(2, 2, "CS101", 2, 11))
	mock.ExpectQuery(regexp.QuoteMeta(listEnrollmentsQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"section_id", "student_id"}).
			AddRow(1, 501).
			AddRow(1, 500).
			AddRow(1, 501))

	sections, err := repo.ListSections(context.Background())

	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, scheduler.Section{ID: 1, CreditHours: 3, ProfessorID: 10, EnrollmentCount: 2, StudentIDs: []int64{500, 501}}, sections[0])
	assert.Zero(t, sections[1].EnrollmentCount)
	assert.Empty(t, sections[1].StudentIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryListSectionsCollapsesCoTaughtSections(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	assert.Contains(t, listSectionsQuery, "MIN(professor_id)")
	assert.Contains(t, scheduleViewQuery, "MIN(professor_id)")

	mock.ExpectQuery("FROM section s").
		WillReturnRows(sqlmock.NewRows([]string{"id", "section_number", "course_code", "credits", "professor_id"}).
			AddRow(7, 1, "CS101", 3, 12).
			AddRow(7, 1, "CS101", 3, 11).
			AddRow(8, 1, "MA201", 2, 13))
	mock.ExpectQuery(regexp.QuoteMeta(listEnrollmentsQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"section_id", "student_id"}).AddRow(7, 500))

	sections, err := NewCatalogRepository(db).ListSections(context.Background())

	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, int64(7), sections[0].ID)
	assert.Equal(t, int64(11), sections[0].ProfessorID)
	assert.Equal(t, []int64{500}, sections[0].StudentIDs)
	assert.Equal(t, int64(8), sections[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryListSectionsError(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery("FROM section s").WillReturnError(errors.New("connection reset"))

	_, err := NewCatalogRepository(db).ListSections(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "list sections")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryListClassrooms(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, capacity FROM classroom WHERE capacity >= ? ORDER BY id")).
		WithArgs(25).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "capacity"}).
			AddRow(3, "B-201", 30).
			AddRow(7, "Aula Magna", 120))

	rooms, err := NewCatalogRepository(db).ListClassrooms(context.Background(), 25)

	require.NoError(t, err)
	assert.Equal(t, []scheduler.Classroom{{ID: 3, Name: "B-201", Capacity: 30}, {ID: 7, Name: "Aula Magna", Capacity: 120}}, rooms)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryListEnrollmentOverlaps(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("COUNT(DISTINCT a.student_id) AS shared_students")).
		WillReturnRows(sqlmock.NewRows([]string{"section_id", "other_section_id", "shared_students"}).
			AddRow(1, 2, 4).
			AddRow(2, 1, 4))

	overlaps, err := NewCatalogRepository(db).ListEnrollmentOverlaps(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []scheduler.EnrollmentOverlap{
		{SectionID: 1, OtherSectionID: 2, SharedStudents: 4},
		{SectionID: 2, OtherSectionID: 1, SharedStudents: 4},
	}, overlaps)
	assert.NoError(t, mock.ExpectationsWereMet())
}
