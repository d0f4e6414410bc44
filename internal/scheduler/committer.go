package scheduler

import (
	"context"
	"fmt"
)

// AssignmentWriter persists a single assignment row.
type AssignmentWriter interface {
	SaveAssignment(ctx context.Context, assignment Assignment) error
}

type undoEntry struct {
	kind ResourceKind
	id   int64
	iv   Interval
}

// undoLog remembers exactly which bookings one commit attempt added.
type undoLog []undoEntry

func (l *undoLog) record(index *ConflictIndex, kind ResourceKind, id int64, iv Interval) {
	index.Record(kind, id, iv)
	*l = append(*l, undoEntry{kind: kind, id: id, iv: iv})
}

func (l undoLog) rollback(index *ConflictIndex) {
	for i := len(l) - 1; i >= 0; i-- {
		entry := l[i]
		index.Unrecord(entry.kind, entry.id, entry.iv)
	}
}

// Committer books a validated interval in the conflict index and persists
// the assignment. A failed write leaves the index as it was before the call.
type Committer struct {
	index  *ConflictIndex
	writer AssignmentWriter
}

// NewCommitter wires a committer to the run's index and store.
func NewCommitter(index *ConflictIndex, writer AssignmentWriter) *Committer {
	return &Committer{index: index, writer: writer}
}

// Commit records iv for the classroom, the professor and every enrolled
// student, then saves the assignment. On a write error every booking added
// by this call is removed and an error wrapping ErrCommitFailed is returned.
func (c *Committer) Commit(ctx context.Context, section Section, classroomID int64, iv Interval) (Assignment, error) {
	var undo undoLog
	undo.record(c.index, ResourceClassroom, classroomID, iv)
	undo.record(c.index, ResourceProfessor, section.ProfessorID, iv)
	for _, studentID := range section.StudentIDs {
		undo.record(c.index, ResourceStudent, studentID, iv)
	}

	assignment := Assignment{
		SectionID:   section.ID,
		ClassroomID: classroomID,
		ProfessorID: section.ProfessorID,
		Interval:    iv,
	}
	if err := c.writer.SaveAssignment(ctx, assignment); err != nil {
		undo.rollback(c.index)
		return Assignment{}, fmt.Errorf("%w: section %d in classroom %d at %s: %v", ErrCommitFailed, section.ID, classroomID, iv, err)
	}
	return assignment, nil
}
