package scheduler

// ResourceKind identifies which booking registry a resource belongs to.
type ResourceKind int

const (
	ResourceClassroom ResourceKind = iota
	ResourceProfessor
	ResourceStudent
)

func (k ResourceKind) String() string {
	switch k {
	case ResourceClassroom:
		return "classroom"
	case ResourceProfessor:
		return "professor"
	case ResourceStudent:
		return "student"
	default:
		return "unknown"
	}
}

type resourceKey struct {
	kind ResourceKind
	id   int64
}

// ConflictIndex is the run-scoped registry of booked intervals per classroom,
// professor and student. Lists keep insertion order.
type ConflictIndex struct {
	bookings map[resourceKey][]Interval
}

// NewConflictIndex returns an empty index.
func NewConflictIndex() *ConflictIndex {
	return &ConflictIndex{bookings: make(map[resourceKey][]Interval)}
}

// Reset drops every booking.
func (x *ConflictIndex) Reset() {
	x.bookings = make(map[resourceKey][]Interval)
}

// HasConflict reports whether the resource already holds an interval
// overlapping iv.
func (x *ConflictIndex) HasConflict(kind ResourceKind, id int64, iv Interval) bool {
	for _, booked := range x.bookings[resourceKey{kind: kind, id: id}] {
		if booked.Overlaps(iv) {
			return true
		}
	}
	return false
}

// Record appends iv to the resource's booking list.
func (x *ConflictIndex) Record(kind ResourceKind, id int64, iv Interval) {
	key := resourceKey{kind: kind, id: id}
	x.bookings[key] = append(x.bookings[key], iv)
}

// Unrecord removes the most recently recorded occurrence of iv for the
// resource. It reports false when the resource holds no such interval.
func (x *ConflictIndex) Unrecord(kind ResourceKind, id int64, iv Interval) bool {
	key := resourceKey{kind: kind, id: id}
	list := x.bookings[key]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i] != iv {
			continue
		}
		list = append(list[:i], list[i+1:]...)
		if len(list) == 0 {
			delete(x.bookings, key)
		} else {
			x.bookings[key] = list
		}
		return true
	}
	return false
}

// Bookings returns a copy of the resource's intervals in insertion order.
func (x *ConflictIndex) Bookings(kind ResourceKind, id int64) []Interval {
	list := x.bookings[resourceKey{kind: kind, id: id}]
	out := make([]Interval, len(list))
	copy(out, list)
	return out
}

// Count returns how many intervals are booked for the resource.
func (x *ConflictIndex) Count(kind ResourceKind, id int64) int {
	return len(x.bookings[resourceKey{kind: kind, id: id}])
}

// DayLoad totals classroom and professor bookings per weekday.
func (x *ConflictIndex) DayLoad() map[Weekday]int {
	load := make(map[Weekday]int, len(Weekdays))
	for key, list := range x.bookings {
		if key.kind == ResourceStudent {
			continue
		}
		for _, iv := range list {
			load[iv.Day]++
		}
	}
	return load
}

// Empty reports whether no resource holds a booking.
func (x *ConflictIndex) Empty() bool {
	return len(x.bookings) == 0
}
