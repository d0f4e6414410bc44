package models

// ClassroomSchedule is a persisted placement in the classroom_schedule table.
// DayOfWeek holds the English weekday name; times are "HH:MM:SS".
type ClassroomSchedule struct {
	ID          int64  `db:"id" json:"id"`
	SectionID   int64  `db:"section_id" json:"section_id"`
	ClassroomID int64  `db:"classroom_id" json:"classroom_id"`
	DayOfWeek   string `db:"day_of_week" json:"day_of_week"`
	StartTime   string `db:"start_time" json:"start_time"`
	EndTime     string `db:"end_time" json:"end_time"`
}

// ScheduleViewRow is the joined export query result before formatting.
type ScheduleViewRow struct {
	CourseCode    string `db:"course_code"`
	CourseName    string `db:"course_name"`
	SectionNumber int    `db:"section_number"`
	ClassroomName string `db:"classroom_name"`
	DayOfWeek     string `db:"day_of_week"`
	StartTime     string `db:"start_time"`
	EndTime       string `db:"end_time"`
	ProfessorName string `db:"professor_name"`
}

// ScheduleExportRow is one line of the human readable timetable.
type ScheduleExportRow struct {
	Day       string `json:"day" csv:"Day"`
	Time      string `json:"time" csv:"Time"`
	Course    string `json:"course" csv:"Course"`
	Classroom string `json:"classroom" csv:"Classroom"`
	Professor string `json:"professor" csv:"Professor"`
}
