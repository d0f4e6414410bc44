package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// CatalogReader supplies the immutable inputs of a run.
type CatalogReader interface {
	ListSections(ctx context.Context) ([]Section, error)
	ListClassrooms(ctx context.Context, minCapacity int) ([]Classroom, error)
	ListEnrollmentOverlaps(ctx context.Context) ([]EnrollmentOverlap, error)
}

// AssignmentStore owns the persisted schedule table.
type AssignmentStore interface {
	AssignmentWriter
	ClearAssignments(ctx context.Context) error
}

// Store is the single data-access handle a run reads from and writes to.
type Store interface {
	CatalogReader
	AssignmentStore
}

// Policy decides what happens to committed assignments when a run leaves
// sections unscheduled.
type Policy string

const (
	// PolicyCommitAsYouGo keeps every assignment committed before the failure.
	PolicyCommitAsYouGo Policy = "commit-as-you-go"
	// PolicyAtomic clears the schedule when any section stays unscheduled.
	PolicyAtomic Policy = "atomic"
)

// ParsePolicy resolves a policy name; empty selects PolicyCommitAsYouGo.
func ParsePolicy(raw string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PolicyCommitAsYouGo:
		return PolicyCommitAsYouGo, nil
	case PolicyAtomic:
		return PolicyAtomic, nil
	default:
		return "", fmt.Errorf("unknown scheduling policy %q", raw)
	}
}

// Result summarises one run.
type Result struct {
	RunID          string
	Policy         Policy
	Success        bool
	SectionCount   int
	Assignments    []Assignment
	Unscheduled    []Unscheduled
	CommitFailures int
	RolledBack     bool
	StartedAt      time.Time
	FinishedAt     time.Time
}

// UnscheduledIDs lists the ids of sections left without an assignment.
func (r *Result) UnscheduledIDs() []int64 {
	return lo.Map(r.Unscheduled, func(u Unscheduled, _ int) int64 { return u.SectionID })
}

// Option customises a Runner.
type Option func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithValidator overrides the validator used on catalog records.
func WithValidator(validate *validator.Validate) Option {
	return func(r *Runner) {
		if validate != nil {
			r.validate = validate
		}
	}
}

// WithPolicy sets the default failure policy.
func WithPolicy(policy Policy) Option {
	return func(r *Runner) {
		if policy != "" {
			r.policy = policy
		}
	}
}

// Runner executes full scheduling passes. A Runner must not be used by more
// than one run at a time.
type Runner struct {
	store    Store
	index    *ConflictIndex
	policy   Policy
	logger   *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewRunner builds a runner over the given store.
func NewRunner(store Store, opts ...Option) *Runner {
	r := &Runner{
		store:    store,
		index:    NewConflictIndex(),
		policy:   PolicyCommitAsYouGo,
		logger:   zap.NewNop(),
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Index exposes the conflict index of the last run.
func (r *Runner) Index() *ConflictIndex {
	return r.index
}

// Run executes a pass with the runner's default policy.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	return r.RunWithPolicy(ctx, r.policy)
}

// RunWithPolicy clears prior state, loads the catalog, orders the sections
// and places each one in turn. Sections that cannot be placed are reported
// and the pass continues. A non-nil error means the run was aborted, by a
// store failure or a cancelled context; the returned result then has
// Success false.
func (r *Runner) RunWithPolicy(ctx context.Context, policy Policy) (*Result, error) {
	if policy == "" {
		policy = r.policy
	}
	result := &Result{
		RunID:     uuid.NewString(),
		Policy:    policy,
		StartedAt: r.now(),
	}
	defer func() { result.FinishedAt = r.now() }()

	log := r.logger.With(zap.String("run_id", result.RunID), zap.String("policy", string(policy)))

	r.index.Reset()
	if err := r.store.ClearAssignments(ctx); err != nil {
		return result, fmt.Errorf("clear assignments: %w", err)
	}

	sections, err := r.store.ListSections(ctx)
	if err != nil {
		return result, fmt.Errorf("load sections: %w", err)
	}
	result.SectionCount = len(sections)
	if len(sections) == 0 {
		log.Warn("no sections to schedule")
		return result, nil
	}

	classrooms, err := r.store.ListClassrooms(ctx, 0)
	if err != nil {
		return result, fmt.Errorf("load classrooms: %w", err)
	}
	overlaps, err := r.store.ListEnrollmentOverlaps(ctx)
	if err != nil {
		return result, fmt.Errorf("load enrollment overlaps: %w", err)
	}

	classrooms = r.validClassrooms(log, classrooms)
	valid := make([]Section, 0, len(sections))
	seen := make(map[int64]bool, len(sections))
	for _, section := range sections {
		if seen[section.ID] {
			log.Warn("duplicate section skipped", zap.Int64("section_id", section.ID), zap.Int64("professor_id", section.ProfessorID))
			result.Unscheduled = append(result.Unscheduled, Unscheduled{
				SectionID: section.ID,
				Reason:    fmt.Errorf("%w: section %d listed more than once", ErrInvalidSection, section.ID),
			})
			continue
		}
		seen[section.ID] = true
		if err := r.validate.Struct(section); err != nil {
			log.Warn("section skipped", zap.Int64("section_id", section.ID), zap.Error(err))
			result.Unscheduled = append(result.Unscheduled, Unscheduled{
				SectionID: section.ID,
				Reason:    fmt.Errorf("%w: %v", ErrInvalidSection, err),
			})
			continue
		}
		valid = append(valid, section)
	}

	ranked := Prioritize(valid, classrooms, MaxOverlaps(overlaps), r.index)
	search := NewSlotSearch(r.index)
	committer := NewCommitter(r.index, r.store)

	for _, item := range ranked {
		assignment, failures, err := r.placeSection(ctx, log, item.Section, classrooms, search, committer)
		result.CommitFailures += failures
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("scheduling interrupted at section %d: %w", item.Section.ID, ctxErr)
		}
		if err != nil {
			log.Warn("section unscheduled", zap.Int64("section_id", item.Section.ID), zap.Error(err))
			result.Unscheduled = append(result.Unscheduled, Unscheduled{SectionID: item.Section.ID, Reason: err})
			continue
		}
		log.Debug("section scheduled",
			zap.Int64("section_id", assignment.SectionID),
			zap.Int64("classroom_id", assignment.ClassroomID),
			zap.Stringer("interval", assignment.Interval),
		)
		result.Assignments = append(result.Assignments, assignment)
	}

	result.Success = len(result.Unscheduled) == 0
	if !result.Success && policy == PolicyAtomic {
		if err := r.store.ClearAssignments(ctx); err != nil {
			return result, fmt.Errorf("roll back incomplete schedule: %w", err)
		}
		r.index.Reset()
		result.Assignments = nil
		result.RolledBack = true
	}

	log.Info("scheduling run finished",
		zap.Bool("success", result.Success),
		zap.Int("sections", result.SectionCount),
		zap.Int("scheduled", len(result.Assignments)),
		zap.Int("unscheduled", len(result.Unscheduled)),
		zap.Int("commit_failures", result.CommitFailures),
		zap.Bool("rolled_back", result.RolledBack),
	)
	return result, nil
}

// placeSection tries ranked classrooms in order. A slot whose commit fails is
// excluded and the search resumes in the same classroom. A cancelled context
// stops the search.
func (r *Runner) placeSection(
	ctx context.Context,
	log *zap.Logger,
	section Section,
	classrooms []Classroom,
	search *SlotSearch,
	committer *Committer,
) (Assignment, int, error) {
	candidates := RankClassrooms(section, classrooms, r.index)
	if len(candidates) == 0 {
		return Assignment{}, 0, ErrNoSuitableClassroom
	}

	failures := 0
	for _, candidate := range candidates {
		rejected := make(map[Interval]bool)
		for {
			iv, ok := search.Find(section, candidate.Classroom.ID, func(iv Interval) bool { return rejected[iv] })
			if !ok {
				break
			}
			assignment, err := committer.Commit(ctx, section, candidate.Classroom.ID, iv)
			if err == nil {
				return assignment, failures, nil
			}
			if !errors.Is(err, ErrCommitFailed) {
				return Assignment{}, failures, err
			}
			if ctx.Err() != nil {
				return Assignment{}, failures, ctx.Err()
			}
			failures++
			rejected[iv] = true
			log.Warn("commit failed, trying next slot", zap.Int64("section_id", section.ID), zap.Error(err))
		}
	}
	return Assignment{}, failures, ErrNoValidSlot
}

func (r *Runner) validClassrooms(log *zap.Logger, classrooms []Classroom) []Classroom {
	return lo.Filter(classrooms, func(room Classroom, _ int) bool {
		if err := r.validate.Struct(room); err != nil {
			log.Warn("classroom skipped", zap.Int64("classroom_id", room.ID), zap.Error(err))
			return false
		}
		return true
	})
}
