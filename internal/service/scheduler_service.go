package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/noah-isme/section-scheduler/internal/dto"
	"github.com/noah-isme/section-scheduler/internal/events"
	"github.com/noah-isme/section-scheduler/internal/scheduler"
	appErrors "github.com/noah-isme/section-scheduler/pkg/errors"
	"github.com/noah-isme/section-scheduler/pkg/jobs"
)

// JobTypeScheduleRun tags queued scheduling runs.
const JobTypeScheduleRun = "schedule.run"

const latestReportKey = "report:latest"

type scheduleRunner interface {
	RunWithPolicy(ctx context.Context, policy scheduler.Policy) (*scheduler.Result, error)
}

type assignmentCounter interface {
	Count(ctx context.Context) (int, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

type runQueue interface {
	Enqueue(job jobs.Job) (jobs.Job, error)
	Pending() int
}

// SchedulerServiceConfig carries run defaults.
type SchedulerServiceConfig struct {
	DefaultPolicy scheduler.Policy
	ReportTTL     time.Duration
}

// SchedulerService runs the scheduler one pass at a time, keeps the latest
// report and announces finished runs.
type SchedulerService struct {
	runner    scheduleRunner
	counter   assignmentCounter
	cache     reportCache
	publisher events.Publisher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       SchedulerServiceConfig

	queue runQueue

	running sync.Mutex
	mu      sync.RWMutex
	latest  *dto.RunReport
}

func NewSchedulerService(
	runner scheduleRunner,
	counter assignmentCounter,
	cache reportCache,
	publisher events.Publisher,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg SchedulerServiceConfig,
) *SchedulerService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultPolicy == "" {
		cfg.DefaultPolicy = scheduler.PolicyCommitAsYouGo
	}
	return &SchedulerService{
		runner:    runner,
		counter:   counter,
		cache:     cache,
		publisher: publisher,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// AttachQueue wires the background queue used by Enqueue. The queue's
// handler is normally HandleJob.
func (s *SchedulerService) AttachQueue(queue runQueue) {
	s.queue = queue
}

func (s *SchedulerService) resolvePolicy(req dto.RunScheduleRequest) (scheduler.Policy, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.WrapAs(err, appErrors.ErrValidation, "policy must be commit-as-you-go or atomic")
	}
	if req.Policy == "" {
		return s.cfg.DefaultPolicy, nil
	}
	policy, err := scheduler.ParsePolicy(req.Policy)
	if err != nil {
		return "", appErrors.WrapAs(err, appErrors.ErrValidation, "")
	}
	return policy, nil
}

// Run executes one scheduling pass synchronously. A second caller while a
// pass is in flight gets ErrRunInProgress. An incomplete schedule is not an
// error: the report carries success=false and the unscheduled sections.
func (s *SchedulerService) Run(ctx context.Context, req dto.RunScheduleRequest) (*dto.RunReport, error) {
	policy, err := s.resolvePolicy(req)
	if err != nil {
		return nil, err
	}

	if !s.running.TryLock() {
		s.metrics.RunRejected(string(policy))
		return nil, appErrors.ErrRunInProgress
	}
	defer s.running.Unlock()

	s.metrics.RunStarted()
	start := time.Now()
	result, err := s.runner.RunWithPolicy(ctx, policy)
	if err != nil {
		s.metrics.RunFinished(OutcomeError, string(policy), time.Since(start), 0, 0, 0)
		s.logger.Error("scheduling run aborted", zap.String("policy", string(policy)), zap.Error(err))
		s.forget(ctx)
		return nil, appErrors.WrapAs(err, appErrors.ErrCatalogLoad, "scheduling run aborted")
	}

	report := NewRunReport(result)
	s.metrics.RunFinished(runOutcome(result), string(policy), time.Since(start), len(result.Assignments), len(result.Unscheduled), result.CommitFailures)
	s.remember(ctx, report)
	s.announce(ctx, report)

	if result.SectionCount == 0 {
		return nil, appErrors.ErrNoSections
	}
	return report, nil
}

// Enqueue hands a run to the background queue.
func (s *SchedulerService) Enqueue(req dto.RunScheduleRequest) (*dto.RunAccepted, error) {
	policy, err := s.resolvePolicy(req)
	if err != nil {
		return nil, err
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "background runs are not available")
	}

	job, err := s.queue.Enqueue(jobs.Job{
		Type:    JobTypeScheduleRun,
		Payload: map[string]interface{}{"policy": string(policy)},
	})
	if err != nil {
		if errors.Is(err, jobs.ErrQueueFull) {
			return nil, appErrors.WrapAs(err, appErrors.ErrConflict, "too many scheduling runs queued")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to queue scheduling run")
	}

	s.metrics.RunQueued()
	s.logger.Info("scheduling run queued", zap.String("job_id", job.ID), zap.String("policy", string(policy)))
	return &dto.RunAccepted{JobID: job.ID, Policy: string(policy), Enqueued: job.Enqueued, Pending: s.queue.Pending()}, nil
}

// HandleJob is the queue handler for JobTypeScheduleRun. Returning an error
// asks the queue to retry; an empty catalog is not retried.
func (s *SchedulerService) HandleJob(ctx context.Context, job jobs.Job) error {
	if job.Type != JobTypeScheduleRun {
		s.logger.Warn("unexpected job type", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}

	var req dto.RunScheduleRequest
	if err := mapstructure.Decode(job.Payload, &req); err != nil {
		s.logger.Error("invalid job payload", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}

	report, err := s.Run(ctx, req)
	switch {
	case errors.Is(err, appErrors.ErrNoSections):
		s.logger.Warn("queued run found no sections", zap.String("job_id", job.ID))
		return nil
	case errors.Is(err, appErrors.ErrValidation):
		s.logger.Error("queued run rejected", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	case err != nil:
		return fmt.Errorf("job %s: %w", job.ID, err)
	}

	s.logger.Info("queued run finished",
		zap.String("job_id", job.ID),
		zap.String("run_id", report.RunID),
		zap.Bool("success", report.Success),
	)
	return nil
}

// Latest returns the most recent report, preferring the shared cache so
// replicas see each other's runs. The flag reports a cache hit.
func (s *SchedulerService) Latest(ctx context.Context) (*dto.RunReport, bool, error) {
	if s.cache != nil {
		var cached dto.RunReport
		hit, err := s.cache.Get(ctx, latestReportKey, &cached)
		if err == nil && hit {
			return &cached, true, nil
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, false, appErrors.ErrNoScheduleRuns
	}
	report := *s.latest
	return &report, false, nil
}

// Status reports whether any placement is stored.
func (s *SchedulerService) Status(ctx context.Context) (*dto.ScheduleStatus, error) {
	total, err := s.counter.Count(ctx)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to read schedule status")
	}
	return &dto.ScheduleStatus{HasSchedule: total > 0, Assignments: total}, nil
}

func (s *SchedulerService) remember(ctx context.Context, report *dto.RunReport) {
	s.mu.Lock()
	s.latest = report
	s.mu.Unlock()

	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, latestReportKey, report, s.cfg.ReportTTL); err != nil {
		s.logger.Warn("failed to cache run report", zap.String("run_id", report.RunID), zap.Error(err))
	}
}

// forget drops the latest report. An aborted run has already cleared the
// stored schedule, so the previous report no longer describes it.
func (s *SchedulerService) forget(ctx context.Context) {
	s.mu.Lock()
	s.latest = nil
	s.mu.Unlock()

	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, latestReportKey); err != nil {
		s.logger.Warn("failed to drop cached run report", zap.Error(err))
	}
}

func (s *SchedulerService) announce(ctx context.Context, report *dto.RunReport) {
	event := events.ScheduleCompletedEvent{
		RunID:       report.RunID,
		Success:     report.Success,
		Scheduled:   len(report.Assignments),
		Unscheduled: len(report.Unscheduled),
		Policy:      report.Policy,
		RolledBack:  report.RolledBack,
		FinishedAt:  report.FinishedAt,
	}
	if err := s.publisher.PublishScheduleCompleted(ctx, event); err != nil {
		s.metrics.EventPublishFailed()
		s.logger.Warn("failed to publish schedule event", zap.String("run_id", report.RunID), zap.Error(err))
	}
}

func runOutcome(result *scheduler.Result) string {
	switch {
	case result.Success:
		return OutcomeSuccess
	case result.RolledBack:
		return OutcomeRolledBack
	default:
		return OutcomeIncomplete
	}
}

// NewRunReport converts a scheduler result into its API shape.
func NewRunReport(result *scheduler.Result) *dto.RunReport {
	report := &dto.RunReport{
		RunID:          result.RunID,
		Success:        result.Success,
		Policy:         string(result.Policy),
		SectionCount:   result.SectionCount,
		Assignments:    make([]dto.AssignmentResponse, 0, len(result.Assignments)),
		Unscheduled:    make([]dto.UnscheduledSection, 0, len(result.Unscheduled)),
		CommitFailures: result.CommitFailures,
		RolledBack:     result.RolledBack,
		StartedAt:      result.StartedAt,
		FinishedAt:     result.FinishedAt,
	}
	for _, a := range result.Assignments {
		report.Assignments = append(report.Assignments, dto.AssignmentResponse{
			SectionID:   a.SectionID,
			ClassroomID: a.ClassroomID,
			ProfessorID: a.ProfessorID,
			Day:         a.Interval.Day.String(),
			StartTime:   fmt.Sprintf("%02d:00", a.Interval.Start),
			EndTime:     fmt.Sprintf("%02d:00", a.Interval.End),
		})
	}
	for _, u := range result.Unscheduled {
		reason := "unscheduled"
		if u.Reason != nil {
			reason = u.Reason.Error()
		}
		report.Unscheduled = append(report.Unscheduled, dto.UnscheduledSection{SectionID: u.SectionID, Reason: reason})
	}
	return report
}
