package timetable

import (
	"github.com/campusgrid/timetable-api/internal/models"
)

// Optimize redistributes same-day duplicate lectures through legality
// preserving pairwise swaps. The swap exchanges the subject, faculty and
// semester of two slot records while their day, time and room stay put. Best
// effort: it terminates after maxIterations or the first pass with no swap,
// and does not guarantee zero duplication. Returns the number of swaps made.
func Optimize(slots []models.ScheduledSlot, maxIterations int) int {
	swaps := 0
	for iteration := 0; iteration < maxIterations; iteration++ {
		src := findDuplicateLecture(slots)
		if src < 0 {
			break
		}
		dst := findSwapTarget(slots, src)
		if dst < 0 {
			break
		}
		slots[src].Subject, slots[dst].Subject = slots[dst].Subject, slots[src].Subject
		slots[src].Faculty, slots[dst].Faculty = slots[dst].Faculty, slots[src].Faculty
		slots[src].Semester, slots[dst].Semester = slots[dst].Semester, slots[src].Semester
		swaps++
	}
	return swaps
}

// findDuplicateLecture returns the index of the second same-day occurrence
// of any lecture subject, or -1.
func findDuplicateLecture(slots []models.ScheduledSlot) int {
	for _, day := range Days {
		seen := make(map[string]bool)
		for i, slot := range slots {
			if slot.Kind != models.SlotTheory || slot.Day != day {
				continue
			}
			if seen[slot.Subject] {
				return i
			}
			seen[slot.Subject] = true
		}
	}
	return -1
}

// findSwapTarget locates a lecture slot on another day that can legally trade
// subjects with slots[src]: neither faculty may be busy at the other side's
// time, the moved subjects must not duplicate on their new days, and no new
// adjacent same-subject pair may appear.
func findSwapTarget(slots []models.ScheduledSlot, src int) int {
	source := slots[src]
	for i, candidate := range slots {
		if i == src || candidate.Kind != models.SlotTheory || candidate.Day == source.Day {
			continue
		}
		if subjectOnDay(slots, candidate.Subject, source.Day, i, src) {
			continue
		}
		if subjectOnDay(slots, source.Subject, candidate.Day, i, src) {
			continue
		}
		if facultyBusy(slots, source.Faculty, candidate.Day, candidate.TimeRange, src, i) {
			continue
		}
		if facultyBusy(slots, candidate.Faculty, source.Day, source.TimeRange, src, i) {
			continue
		}
		if adjacentSubject(slots, source.Subject, candidate.Day, candidate.TimeRange, src, i) {
			continue
		}
		if adjacentSubject(slots, candidate.Subject, source.Day, source.TimeRange, src, i) {
			continue
		}
		return i
	}
	return -1
}

func subjectOnDay(slots []models.ScheduledSlot, subject, day string, exclude ...int) bool {
	for i, slot := range slots {
		if excluded(i, exclude) || slot.Kind != models.SlotTheory {
			continue
		}
		if slot.Subject == subject && slot.Day == day {
			return true
		}
	}
	return false
}

func facultyBusy(slots []models.ScheduledSlot, faculty, day, timeRange string, exclude ...int) bool {
	for i, slot := range slots {
		if excluded(i, exclude) {
			continue
		}
		if slot.Faculty == faculty && slot.Day == day && Overlap(slot.TimeRange, timeRange) {
			return true
		}
	}
	return false
}

func adjacentSubject(slots []models.ScheduledSlot, subject, day, timeRange string, exclude ...int) bool {
	for i, slot := range slots {
		if excluded(i, exclude) || slot.Kind != models.SlotTheory {
			continue
		}
		if slot.Subject != subject || slot.Day != day {
			continue
		}
		if AdjacentBands(MorningLectureBands, timeRange, slot.TimeRange) ||
			AdjacentBands(AfternoonLectureBands, timeRange, slot.TimeRange) {
			return true
		}
	}
	return false
}

func excluded(i int, exclude []int) bool {
	for _, e := range exclude {
		if i == e {
			return true
		}
	}
	return false
}
