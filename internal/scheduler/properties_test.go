package scheduler

import (
	"context"
	"testing"

	. "github.com/onsi/gomega"
)

// syntheticCatalog builds a mid-sized catalog with shared professors and
// overlapping cohorts so placement has real contention.
func syntheticCatalog(sectionCount int) *storeStub {
	credits := []int{2, 3, 4, 3, 2}
	sections := make([]Section, 0, sectionCount)
	for i := 0; i < sectionCount; i++ {
		cohort := (i % 4) * 40
		students := studentRange(cohort+i%7, 18+i%13)
		sections = append(sections, newSection(int64(i+1), credits[i%len(credits)], int64(1+i%6), students))
	}
	return &storeStub{
		sections: sections,
		classrooms: []Classroom{
			{ID: 1, Capacity: 20},
			{ID: 2, Capacity: 25},
			{ID: 3, Capacity: 35},
		},
	}
}

func assertScheduleInvariants(g *WithT, sections []Section, result *Result) {
	credits := make(map[int64]int, len(sections))
	for _, s := range sections {
		credits[s.ID] = s.CreditHours
	}
	seen := make(map[int64]bool)
	for i, a := range result.Assignments {
		g.Expect(seen[a.SectionID]).To(BeFalse(), "one assignment per section")
		seen[a.SectionID] = true

		g.Expect(a.Interval.Hours()).To(Equal(credits[a.SectionID]))
		g.Expect(a.Interval.WithinBusinessHours()).To(BeTrue())
		g.Expect(a.Interval.Day.Valid()).To(BeTrue())

		for _, b := range result.Assignments[i+1:] {
			if a.ClassroomID == b.ClassroomID {
				g.Expect(a.Interval.Overlaps(b.Interval)).To(BeFalse(), "classroom double-booked")
			}
			if a.ProfessorID == b.ProfessorID {
				g.Expect(a.Interval.Overlaps(b.Interval)).To(BeFalse(), "professor double-booked")
			}
		}
	}
}

func TestRunnerScheduleProperties(t *testing.T) {
	for _, size := range []int{6, 24, 60} {
		g := NewWithT(t)
		store := syntheticCatalog(size)

		result, err := NewRunner(store).Run(context.Background())
		g.Expect(err).NotTo(HaveOccurred())

		assertScheduleInvariants(g, store.sections, result)
		g.Expect(store.saved).To(Equal(result.Assignments))
		if result.Success {
			g.Expect(result.Assignments).To(HaveLen(size))
			g.Expect(result.Unscheduled).To(BeEmpty())
		} else {
			g.Expect(result.Unscheduled).NotTo(BeEmpty())
			g.Expect(len(result.Assignments) + len(result.Unscheduled)).To(Equal(size))
		}
	}
}

func TestRunnerIsDeterministic(t *testing.T) {
	g := NewWithT(t)

	first, err := NewRunner(syntheticCatalog(40)).Run(context.Background())
	g.Expect(err).NotTo(HaveOccurred())
	second, err := NewRunner(syntheticCatalog(40)).Run(context.Background())
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(second.Success).To(Equal(first.Success))
	g.Expect(second.Assignments).To(Equal(first.Assignments))
	g.Expect(second.UnscheduledIDs()).To(Equal(first.UnscheduledIDs()))
}
