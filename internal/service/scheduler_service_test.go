package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/section-scheduler/internal/dto"
	"github.com/noah-isme/section-scheduler/internal/events"
	"github.com/noah-isme/section-scheduler/internal/scheduler"
	appErrors "github.com/noah-isme/section-scheduler/pkg/errors"
	"github.com/noah-isme/section-scheduler/pkg/jobs"
)

type runnerStub struct {
	mu       sync.Mutex
	result   *scheduler.Result
	err      error
	policies []scheduler.Policy
	block    chan struct{}
	entered  chan struct{}
}

func (r *runnerStub) RunWithPolicy(ctx context.Context, policy scheduler.Policy) (*scheduler.Result, error) {
	r.mu.Lock()
	r.policies = append(r.policies, policy)
	r.mu.Unlock()
	if r.entered != nil {
		r.entered <- struct{}{}
	}
	if r.block != nil {
		<-r.block
	}
	if r.err != nil {
		return &scheduler.Result{Policy: policy}, r.err
	}
	result := *r.result
	result.Policy = policy
	return &result, nil
}

type counterStub struct {
	total int
	err   error
}

func (c counterStub) Count(context.Context) (int, error) { return c.total, c.err }

type publisherStub struct {
	events []events.ScheduleCompletedEvent
	err    error
}

func (p *publisherStub) PublishScheduleCompleted(_ context.Context, event events.ScheduleCompletedEvent) error {
	p.events = append(p.events, event)
	return p.err
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) (jobs.Job, error) {
	if q.err != nil {
		return job, q.err
	}
	job.ID = "job-1"
	job.Enqueued = time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	q.jobs = append(q.jobs, job)
	return job, nil
}

func (q *queueStub) Pending() int {
	return len(q.jobs)
}

func incompleteResult() *scheduler.Result {
	return &scheduler.Result{
		RunID:        "run-1",
		SectionCount: 2,
		Assignments: []scheduler.Assignment{{
			SectionID: 1, ClassroomID: 3, ProfessorID: 7,
			Interval: scheduler.Interval{Day: scheduler.Tuesday, Start: 14, End: 17},
		}},
		Unscheduled: []scheduler.Unscheduled{{SectionID: 2, Reason: scheduler.ErrNoSuitableClassroom}},
	}
}

func newTestSchedulerService(runner scheduleRunner, publisher events.Publisher) (*SchedulerService, *memoryCacheRepo) {
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, time.Hour, nil, true)
	svc := NewSchedulerService(runner, counterStub{total: 1}, cache, publisher, NewMetricsService(), nil, nil, SchedulerServiceConfig{})
	return svc, repo
}

func TestSchedulerServiceRunReportsIncompleteSchedule(t *testing.T) {
	publisher := &publisherStub{}
	svc, repo := newTestSchedulerService(&runnerStub{result: incompleteResult()}, publisher)

	report, err := svc.Run(context.Background(), dto.RunScheduleRequest{})

	require.NoError(t, err)
	assert.False(t, report.Success)
	assert.Equal(t, "commit-as-you-go", report.Policy)
	assert.Equal(t, []dto.AssignmentResponse{{SectionID: 1, ClassroomID: 3, ProfessorID: 7, Day: "Tuesday", StartTime: "14:00", EndTime: "17:00"}}, report.Assignments)
	assert.Equal(t, []dto.UnscheduledSection{{SectionID: 2, Reason: scheduler.ErrNoSuitableClassroom.Error()}}, report.Unscheduled)
	assert.Contains(t, repo.items, latestReportKey)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, events.ScheduleCompletedEvent{RunID: "run-1", Scheduled: 1, Unscheduled: 1, Policy: "commit-as-you-go"}, publisher.events[0])

	latest, cached, err := svc.Latest(context.Background())
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, "run-1", latest.RunID)
}

func TestSchedulerServiceRunUsesRequestedPolicy(t *testing.T) {
	runner := &runnerStub{result: &scheduler.Result{RunID: "run-2", SectionCount: 1, Success: true}}
	svc, _ := newTestSchedulerService(runner, nil)

	report, err := svc.Run(context.Background(), dto.RunScheduleRequest{Policy: "atomic"})

	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.Equal(t, []scheduler.Policy{scheduler.PolicyAtomic}, runner.policies)
}

func TestSchedulerServiceRunValidatesPolicy(t *testing.T) {
	svc, _ := newTestSchedulerService(&runnerStub{result: incompleteResult()}, nil)

	_, err := svc.Run(context.Background(), dto.RunScheduleRequest{Policy: "best-effort"})

	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestSchedulerServiceRunAborted(t *testing.T) {
	svc, _ := newTestSchedulerService(&runnerStub{err: errors.New("load sections: connection refused")}, nil)

	_, err := svc.Run(context.Background(), dto.RunScheduleRequest{})

	assert.ErrorIs(t, err, appErrors.ErrCatalogLoad)
	_, _, err = svc.Latest(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrNoScheduleRuns)
}

func TestSchedulerServiceAbortedRunDropsStaleReport(t *testing.T) {
	runner := &runnerStub{result: incompleteResult()}
	svc, repo := newTestSchedulerService(runner, nil)
	_, err := svc.Run(context.Background(), dto.RunScheduleRequest{})
	require.NoError(t, err)
	require.Contains(t, repo.items, latestReportKey)

	runner.err = errors.New("load sections: connection reset")
	_, err = svc.Run(context.Background(), dto.RunScheduleRequest{})

	assert.ErrorIs(t, err, appErrors.ErrCatalogLoad)
	assert.NotContains(t, repo.items, latestReportKey)
	_, _, err = svc.Latest(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrNoScheduleRuns)
}

func TestSchedulerServiceRunNoSections(t *testing.T) {
	svc, _ := newTestSchedulerService(&runnerStub{result: &scheduler.Result{RunID: "run-3"}}, nil)

	_, err := svc.Run(context.Background(), dto.RunScheduleRequest{})

	assert.ErrorIs(t, err, appErrors.ErrNoSections)
}

func TestSchedulerServiceRejectsConcurrentRun(t *testing.T) {
	runner := &runnerStub{result: incompleteResult(), block: make(chan struct{}), entered: make(chan struct{}, 1)}
	svc, _ := newTestSchedulerService(runner, nil)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Run(context.Background(), dto.RunScheduleRequest{})
		done <- err
	}()
	<-runner.entered

	_, err := svc.Run(context.Background(), dto.RunScheduleRequest{})
	assert.ErrorIs(t, err, appErrors.ErrRunInProgress)

	close(runner.block)
	assert.NoError(t, <-done)
}

func TestSchedulerServicePublishFailureDoesNotFailRun(t *testing.T) {
	svc, _ := newTestSchedulerService(&runnerStub{result: incompleteResult()}, &publisherStub{err: errors.New("broker down")})

	report, err := svc.Run(context.Background(), dto.RunScheduleRequest{})

	require.NoError(t, err)
	assert.NotNil(t, report)
}

func TestSchedulerServiceEnqueue(t *testing.T) {
	svc, _ := newTestSchedulerService(&runnerStub{result: incompleteResult()}, nil)

	_, err := svc.Enqueue(dto.RunScheduleRequest{})
	assert.ErrorIs(t, err, appErrors.ErrInternal)

	queue := &queueStub{}
	svc.AttachQueue(queue)
	accepted, err := svc.Enqueue(dto.RunScheduleRequest{Policy: "atomic"})
	require.NoError(t, err)
	assert.Equal(t, "job-1", accepted.JobID)
	assert.Equal(t, "atomic", accepted.Policy)
	assert.Equal(t, 1, accepted.Pending)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobTypeScheduleRun, queue.jobs[0].Type)

	queue.err = jobs.ErrQueueFull
	_, err = svc.Enqueue(dto.RunScheduleRequest{})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestSchedulerServiceHandleJob(t *testing.T) {
	runner := &runnerStub{result: incompleteResult()}
	svc, _ := newTestSchedulerService(runner, nil)

	err := svc.HandleJob(context.Background(), jobs.Job{ID: "job-1", Type: JobTypeScheduleRun, Payload: map[string]interface{}{"policy": "atomic"}})

	require.NoError(t, err)
	assert.Equal(t, []scheduler.Policy{scheduler.PolicyAtomic}, runner.policies)

	require.NoError(t, svc.HandleJob(context.Background(), jobs.Job{Type: "other"}))
	require.NoError(t, svc.HandleJob(context.Background(), jobs.Job{Type: JobTypeScheduleRun, Payload: "not a map"}))
	assert.Len(t, runner.policies, 1)
}

func TestSchedulerServiceHandleJobRetriesAbortedRun(t *testing.T) {
	svc, _ := newTestSchedulerService(&runnerStub{err: errors.New("db down")}, nil)

	err := svc.HandleJob(context.Background(), jobs.Job{ID: "job-9", Type: JobTypeScheduleRun, Payload: map[string]interface{}{}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "job-9")
}

func TestSchedulerServiceStatus(t *testing.T) {
	svc := NewSchedulerService(&runnerStub{}, counterStub{total: 0}, nil, nil, nil, nil, nil, SchedulerServiceConfig{})

	status, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.HasSchedule)

	svc = NewSchedulerService(&runnerStub{}, counterStub{err: errors.New("db down")}, nil, nil, nil, nil, nil, SchedulerServiceConfig{})
	_, err = svc.Status(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
