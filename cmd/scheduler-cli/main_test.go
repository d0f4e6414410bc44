package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/section-scheduler/internal/models"
)

func writeCSV(t *testing.T, path string, records interface{}) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, gocsv.MarshalFile(records, f))
}

func writeCatalog(t *testing.T, dir string, students int) []string {
	t.Helper()
	sections := []models.CatalogSection{
		{ID: 1, SectionNumber: 1, CourseCode: "CS101", CourseName: "Programming", Credits: 3, ProfessorID: 10, ProfessorName: "Ada Lovelace"},
		{ID: 2, SectionNumber: 2, CourseCode: "MA201", CourseName: "Calculus", Credits: 2, ProfessorID: 11, ProfessorName: "Emmy Noether"},
	}
	classrooms := []models.ClassroomRow{{ID: 1, Name: "A-101", Capacity: 20}}
	var enrollments []models.EnrollmentRow
	for i := 0; i < students; i++ {
		enrollments = append(enrollments, models.EnrollmentRow{SectionID: 1, StudentID: int64(100 + i)})
	}
	enrollments = append(enrollments, models.EnrollmentRow{SectionID: 2, StudentID: 500})

	paths := []string{
		filepath.Join(dir, "sections.csv"),
		filepath.Join(dir, "classrooms.csv"),
		filepath.Join(dir, "enrollments.csv"),
	}
	writeCSV(t, paths[0], sections)
	writeCSV(t, paths[1], classrooms)
	writeCSV(t, paths[2], enrollments)
	return paths
}

func cliArgs(paths []string, out string, extra ...string) []string {
	args := []string{
		"--sections", paths[0],
		"--classrooms", paths[1],
		"--enrollments", paths[2],
		"--out", out,
		"--log-level", "error",
	}
	return append(args, extra...)
}

func TestRunWritesTimetable(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "schedule.csv")

	code := run(cliArgs(writeCatalog(t, dir, 5), out))

	require.Equal(t, exitOK, code)
	body, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Day,Time,Course,Classroom,Professor")
	assert.Contains(t, string(body), "CS101 - Programming (Section 1)")
	assert.Contains(t, string(body), "MA201 - Calculus (Section 2)")
}

func TestRunIncompleteScheduleExitsNonZero(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "schedule.csv")

	code := run(cliArgs(writeCatalog(t, dir, 25), out))

	require.Equal(t, exitIncomplete, code)
	body, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "CS101")
	assert.Contains(t, string(body), "MA201")
}

func TestRunAtomicPolicyWritesEmptyTimetable(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "schedule.csv")

	code := run(cliArgs(writeCatalog(t, dir, 25), out, "--policy", "atomic"))

	require.Equal(t, exitIncomplete, code)
	body, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "MA201")
}

func TestRunPDFOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "schedule.pdf")

	code := run(cliArgs(writeCatalog(t, dir, 5), out, "--format", "pdf"))

	require.Equal(t, exitOK, code)
	body, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(body[:4]))
}

func TestRunRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	paths := writeCatalog(t, dir, 5)
	out := filepath.Join(dir, "schedule.csv")

	assert.Equal(t, exitFailure, run(cliArgs(paths, out, "--policy", "best-effort")))
	assert.Equal(t, exitFailure, run(cliArgs(paths, out, "--delim", ";;")))
	assert.Equal(t, exitFailure, run(cliArgs([]string{filepath.Join(dir, "missing.csv"), paths[1], paths[2]}, out)))
	assert.Equal(t, exitFailure, run([]string{"--unknown"}))
}
