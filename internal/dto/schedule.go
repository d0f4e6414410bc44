package dto

import "time"

// RunScheduleRequest starts a scheduling run. An empty policy uses the
// configured default.
type RunScheduleRequest struct {
	Policy string `json:"policy" mapstructure:"policy" validate:"omitempty,oneof=commit-as-you-go atomic"`
}

// AssignmentResponse is one placement in a run report.
type AssignmentResponse struct {
	SectionID   int64  `json:"sectionId"`
	ClassroomID int64  `json:"classroomId"`
	ProfessorID int64  `json:"professorId"`
	Day         string `json:"day"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
}

// UnscheduledSection names a section left without a placement and why.
type UnscheduledSection struct {
	SectionID int64  `json:"sectionId"`
	Reason    string `json:"reason"`
}

// RunReport summarises a finished run.
type RunReport struct {
	RunID          string               `json:"runId"`
	Success        bool                 `json:"success"`
	Policy         string               `json:"policy"`
	SectionCount   int                  `json:"sectionCount"`
	Assignments    []AssignmentResponse `json:"assignments"`
	Unscheduled    []UnscheduledSection `json:"unscheduled"`
	CommitFailures int                  `json:"commitFailures"`
	RolledBack     bool                 `json:"rolledBack"`
	StartedAt      time.Time            `json:"startedAt"`
	FinishedAt     time.Time            `json:"finishedAt"`
}

// RunAccepted acknowledges a queued run.
type RunAccepted struct {
	JobID    string    `json:"jobId"`
	Policy   string    `json:"policy"`
	Enqueued time.Time `json:"enqueuedAt"`
	// Pending counts runs still waiting in the queue after this one was added.
	Pending int `json:"pending"`
}

// ScheduleStatus reports whether a schedule is stored.
type ScheduleStatus struct {
	HasSchedule bool `json:"hasSchedule"`
	Assignments int  `json:"assignments"`
}

// ExportFormat selects the download encoding.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportQuery is bound from the export query string.
type ExportQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}
