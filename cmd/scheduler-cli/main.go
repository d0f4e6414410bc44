package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/noah-isme/section-scheduler/internal/dto"
	"github.com/noah-isme/section-scheduler/internal/repository"
	"github.com/noah-isme/section-scheduler/internal/scheduler"
	"github.com/noah-isme/section-scheduler/internal/service"
	"github.com/noah-isme/section-scheduler/pkg/csvio"
	"github.com/noah-isme/section-scheduler/pkg/logger"
)

// Exit codes.
const (
	exitOK         = 0
	exitIncomplete = 1
	exitFailure    = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("scheduler-cli", pflag.ContinueOnError)
	fs.String("sections", "sections.csv", "sections catalog (section_id, section_number, course_code, course_name, credits, professor_id, professor_name)")
	fs.String("classrooms", "classrooms.csv", "classrooms catalog (classroom_id, name, capacity)")
	fs.String("enrollments", "enrollments.csv", "enrollments (section_id, student_id)")
	fs.String("out", "schedule.csv", "output file for the timetable")
	fs.String("format", string(dto.ExportFormatCSV), "output format: csv or pdf")
	fs.String("title", "Horario", "title printed on PDF output")
	fs.String("policy", string(scheduler.PolicyCommitAsYouGo), "run policy: commit-as-you-go or atomic")
	fs.String("delim", ",", "catalog field separator")
	fs.String("log-level", "info", "log level")
	return fs
}

// loadSettings binds flags into viper so SCHEDULER_* variables can stand in
// for any flag, e.g. SCHEDULER_LOG_LEVEL.
func loadSettings(args []string) (*viper.Viper, error) {
	fs := newFlags()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetEnvPrefix("SCHEDULER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	return v, nil
}

func run(args []string) int {
	v, err := loadSettings(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	logr, err := logger.NewCLI(v.GetString("log-level"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		return exitFailure
	}
	defer logr.Sync() //nolint:errcheck

	policy, err := scheduler.ParsePolicy(v.GetString("policy"))
	if err != nil {
		logr.Error("invalid policy", zap.Error(err))
		return exitFailure
	}
	delim := []rune(v.GetString("delim"))
	if len(delim) != 1 {
		logr.Error("delimiter must be a single character", zap.String("delim", v.GetString("delim")))
		return exitFailure
	}

	catalog, err := csvio.LoadCatalog(csvio.Paths{
		Sections:    v.GetString("sections"),
		Classrooms:  v.GetString("classrooms"),
		Enrollments: v.GetString("enrollments"),
	}, delim[0])
	if err != nil {
		logr.Error("failed to load catalog", zap.Error(err))
		return exitFailure
	}

	ctx := context.Background()
	store := repository.NewMemoryStore(catalog.Sections, catalog.Classrooms, catalog.Enrollments)
	result, err := scheduler.NewRunner(store, scheduler.WithLogger(logr), scheduler.WithPolicy(policy)).Run(ctx)
	if err != nil {
		logr.Error("scheduling run failed", zap.Error(err))
		return exitFailure
	}

	exporter := service.NewExportService(store, nil, nil, nil, v.GetString("title"))
	file, err := exporter.Render(ctx, dto.ExportQuery{Format: v.GetString("format")})
	if err != nil {
		logr.Error("failed to render timetable", zap.Error(err))
		return exitFailure
	}
	out := v.GetString("out")
	if err := os.WriteFile(out, file.Content, 0o644); err != nil {
		logr.Error("failed to write timetable", zap.String("path", out), zap.Error(err))
		return exitFailure
	}

	for _, u := range result.Unscheduled {
		logr.Warn("section unscheduled", zap.Int64("section_id", u.SectionID), zap.Error(u.Reason))
	}
	logr.Info("schedule written",
		zap.String("path", out),
		zap.String("run_id", result.RunID),
		zap.String("policy", string(result.Policy)),
		zap.Int("sections", result.SectionCount),
		zap.Int("scheduled", len(result.Assignments)),
		zap.Int("unscheduled", len(result.Unscheduled)),
		zap.Int64s("unscheduled_ids", result.UnscheduledIDs()),
		zap.Bool("rolled_back", result.RolledBack),
	)

	if !result.Success {
		return exitIncomplete
	}
	return exitOK
}
