package scheduler

import (
	"sort"

	"github.com/samber/lo"
)

// RankedClassroom is a candidate room with its fit score. Lower fits better.
type RankedClassroom struct {
	Classroom Classroom
	FitScore  int
}

// RankClassrooms returns the rooms that can seat the section, best fit first.
// The fit score is the spare capacity, doubled for two-credit sections, plus
// the number of intervals already booked in the room. Ties break by room id.
func RankClassrooms(section Section, classrooms []Classroom, index *ConflictIndex) []RankedClassroom {
	weight := 1
	if section.CreditHours == 2 {
		weight = 2
	}
	candidates := lo.FilterMap(classrooms, func(room Classroom, _ int) (RankedClassroom, bool) {
		if room.Capacity < section.EnrollmentCount {
			return RankedClassroom{}, false
		}
		diff := room.Capacity - section.EnrollmentCount
		return RankedClassroom{
			Classroom: room,
			FitScore:  diff*weight + index.Count(ResourceClassroom, room.ID),
		}, true
	})
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].FitScore != candidates[j].FitScore {
			return candidates[i].FitScore < candidates[j].FitScore
		}
		return candidates[i].Classroom.ID < candidates[j].Classroom.ID
	})
	return candidates
}
