package models

// SectionRow is a schedulable section joined with its course credits and
// assigned professor.
type SectionRow struct {
	ID            int64  `db:"id" json:"id"`
	SectionNumber int    `db:"section_number" json:"section_number"`
	CourseCode    string `db:"course_code" json:"course_code"`
	Credits       int    `db:"credits" json:"credits"`
	ProfessorID   int64  `db:"professor_id" json:"professor_id"`
}

// CatalogSection is a denormalised section record as supplied to offline
// runs, carrying the names the export view needs.
type CatalogSection struct {
	ID            int64  `csv:"section_id"`
	SectionNumber int    `csv:"section_number"`
	CourseCode    string `csv:"course_code"`
	CourseName    string `csv:"course_name"`
	Credits       int    `csv:"credits"`
	ProfessorID   int64  `csv:"professor_id"`
	ProfessorName string `csv:"professor_name"`
}

// ClassroomRow mirrors the classroom table.
type ClassroomRow struct {
	ID       int64  `db:"id" json:"id" csv:"classroom_id"`
	Name     string `db:"name" json:"name" csv:"name"`
	Capacity int    `db:"capacity" json:"capacity" csv:"capacity"`
}

// EnrollmentRow is one student_assignment record.
type EnrollmentRow struct {
	SectionID int64 `db:"section_id" json:"section_id" csv:"section_id"`
	StudentID int64 `db:"student_id" json:"student_id" csv:"student_id"`
}

// EnrollmentOverlapRow counts students shared by an ordered pair of sections.
type EnrollmentOverlapRow struct {
	SectionID      int64 `db:"section_id" json:"section_id"`
	OtherSectionID int64 `db:"other_section_id" json:"other_section_id"`
	SharedStudents int   `db:"shared_students" json:"shared_students"`
}
