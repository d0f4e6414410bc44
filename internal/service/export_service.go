package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/section-scheduler/internal/dto"
	"github.com/noah-isme/section-scheduler/internal/models"
	"github.com/noah-isme/section-scheduler/internal/scheduler"
	appErrors "github.com/noah-isme/section-scheduler/pkg/errors"
	"github.com/noah-isme/section-scheduler/pkg/export"
)

type scheduleViewReader interface {
	ListScheduleView(ctx context.Context) ([]models.ScheduleViewRow, error)
}

type csvRenderer interface {
	Render(records interface{}) ([]byte, error)
}

type pdfRenderer interface {
	Render(table export.Table) ([]byte, error)
}

var exportHeaders = []string{"Day", "Time", "Course", "Classroom", "Professor"}

// ExportService turns the stored schedule into the timetable view and its
// CSV and PDF downloads.
type ExportService struct {
	reader    scheduleViewReader
	csv       csvRenderer
	pdf       pdfRenderer
	validator *validator.Validate
	title     string
	now       func() time.Time
}

func NewExportService(reader scheduleViewReader, csv csvRenderer, pdf pdfRenderer, validate *validator.Validate, title string) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ExportService{
		reader:    reader,
		csv:       csv,
		pdf:       pdf,
		validator: validate,
		title:     title,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Rows returns the timetable ordered by weekday then start time.
func (s *ExportService) Rows(ctx context.Context) ([]models.ScheduleExportRow, error) {
	view, err := s.reader.ListScheduleView(ctx)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to load schedule")
	}
	return FormatScheduleView(view), nil
}

// Render produces a download in the requested format; csv when empty.
func (s *ExportService) Render(ctx context.Context, query dto.ExportQuery) (*dto.ExportFile, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrValidation, "format must be csv or pdf")
	}
	rows, err := s.Rows(ctx)
	if err != nil {
		return nil, err
	}

	stamp := s.now().Format("20060102-1504")
	switch dto.ExportFormat(query.Format) {
	case dto.ExportFormatPDF:
		content, err := s.pdf.Render(scheduleTable(s.title, rows))
		if err != nil {
			return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to render pdf")
		}
		return &dto.ExportFile{Filename: fmt.Sprintf("schedule-%s.pdf", stamp), ContentType: "application/pdf", Content: content}, nil
	default:
		content, err := s.csv.Render(rows)
		if err != nil {
			return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to render csv")
		}
		return &dto.ExportFile{Filename: fmt.Sprintf("schedule-%s.csv", stamp), ContentType: "text/csv", Content: content}, nil
	}
}

func scheduleTable(title string, rows []models.ScheduleExportRow) export.Table {
	table := export.Table{
		Title:   title,
		Headers: exportHeaders,
		Widths:  []float64{12, 20, 50, 15, 25},
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		table.Rows = append(table.Rows, []string{row.Day, row.Time, row.Course, row.Classroom, row.Professor})
	}
	return table
}

// FormatScheduleView labels joined rows and orders them by weekday, start
// time, classroom then course.
func FormatScheduleView(view []models.ScheduleViewRow) []models.ScheduleExportRow {
	sorted := make([]models.ScheduleViewRow, len(view))
	copy(sorted, view)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if da, db := dayOrder(a.DayOfWeek), dayOrder(b.DayOfWeek); da != db {
			return da < db
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		if a.ClassroomName != b.ClassroomName {
			return a.ClassroomName < b.ClassroomName
		}
		return a.CourseCode < b.CourseCode
	})

	rows := make([]models.ScheduleExportRow, 0, len(sorted))
	for _, row := range sorted {
		rows = append(rows, models.ScheduleExportRow{
			Day:       row.DayOfWeek,
			Time:      fmt.Sprintf("%s - %s", clock(row.StartTime), clock(row.EndTime)),
			Course:    fmt.Sprintf("%s - %s (Section %d)", row.CourseCode, row.CourseName, row.SectionNumber),
			Classroom: row.ClassroomName,
			Professor: row.ProfessorName,
		})
	}
	return rows
}

// dayOrder sorts unknown day names after Friday.
func dayOrder(name string) int {
	day, err := scheduler.ParseWeekday(name)
	if err != nil {
		return len(scheduler.Weekdays) + 1
	}
	return int(day)
}

// clock trims "HH:MM:SS" to "HH:MM".
func clock(value string) string {
	if len(value) >= 5 {
		return value[:5]
	}
	return value
}
