package timetable

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/campusgrid/timetable-api/internal/models"
)

// Fallback constraint scores when no advisor score is available.
const (
	scoreWithErrors    = 60
	scoreWithoutErrors = 85
)

// FinalReport runs the post-construction consistency sweep and computes the
// run statistics. Violations found here never block returning a result; a
// degraded-but-visible schedule beats no schedule.
func FinalReport(slots []models.ScheduledSlot, in Input, advisory *models.AdvisoryReport) Result {
	ordered := sortSlots(slots)
	ctx := NewContext(in.Faculty, in.Constraints, len(in.Classrooms)+len(in.Labs))

	var conflicts []models.Conflict
	conflicts = append(conflicts, checkWeeklyCounts(ordered, in)...)
	conflicts = append(conflicts, checkAdjacency(ordered)...)
	conflicts = append(conflicts, checkBatchCoverage(ordered, in)...)
	conflicts = append(conflicts, checkFacultyLoad(ordered, ctx)...)
	conflicts = append(conflicts, checkRoomUsage(ordered, in)...)

	return Result{
		Slots:     ordered,
		Conflicts: conflicts,
		Stats:     computeStats(ordered, in, advisory, conflicts),
	}
}

// checkWeeklyCounts verifies every scoped subject got exactly its declared
// theory hours: under-coverage warns, over-coverage is an error.
func checkWeeklyCounts(slots []models.ScheduledSlot, in Input) []models.Conflict {
	counts := make(map[string]int)
	for _, slot := range slots {
		if slot.Kind == models.SlotTheory {
			counts[slot.Subject]++
		}
	}

	var conflicts []models.Conflict
	for _, subject := range scopeSubjects(in.Subjects, in.Year, in.Semester) {
		got := counts[subject.Name]
		switch {
		case got < subject.TheoryHours:
			conflicts = append(conflicts, models.Conflict{
				Category: models.ConflictWarning,
				Message:  fmt.Sprintf("%s has %d of %d weekly lectures", subject.Name, got, subject.TheoryHours),
				Severity: models.SeverityMedium,
				Affected: []string{subject.Name},
			})
		case got > subject.TheoryHours:
			conflicts = append(conflicts, models.Conflict{
				Category: models.ConflictError,
				Message:  fmt.Sprintf("%s has %d weekly lectures, only %d required", subject.Name, got, subject.TheoryHours),
				Severity: models.SeverityHigh,
				Affected: []string{subject.Name},
			})
		}
	}
	return conflicts
}

// checkAdjacency is the final re-check for same-subject lectures in adjacent
// bands, independent of acceptance-time checks, to catch optimizer-introduced
// regressions.
func checkAdjacency(slots []models.ScheduledSlot) []models.Conflict {
	var conflicts []models.Conflict
	for i, a := range slots {
		if a.Kind != models.SlotTheory {
			continue
		}
		for _, b := range slots[i+1:] {
			if b.Kind != models.SlotTheory || a.Subject != b.Subject || a.Day != b.Day {
				continue
			}
			if AdjacentBands(MorningLectureBands, a.TimeRange, b.TimeRange) ||
				AdjacentBands(AfternoonLectureBands, a.TimeRange, b.TimeRange) {
				conflicts = append(conflicts, models.Conflict{
					Category: models.ConflictWarning,
					Message:  fmt.Sprintf("%s has consecutive lectures on %s (%s, %s)", a.Subject, a.Day, a.TimeRange, b.TimeRange),
					Severity: models.SeverityMedium,
					Affected: []string{a.Subject},
				})
			}
		}
	}
	return conflicts
}

// checkBatchCoverage verifies lab-bearing subjects cover all three batches
// with the expected number of blocks.
func checkBatchCoverage(slots []models.ScheduledSlot, in Input) []models.Conflict {
	var conflicts []models.Conflict
	for _, subject := range scopeSubjects(in.Subjects, in.Year, in.Semester) {
		if subject.LabHours <= 0 {
			continue
		}
		expectedBlocks := (subject.LabHours + 1) / 2
		perBatch := make(map[string]int)
		for _, slot := range slots {
			if slot.Kind == models.SlotLab && slot.Subject == subject.Name {
				perBatch[slot.Batch]++
			}
		}
		for _, batch := range models.Batches {
			if perBatch[batch] == 0 {
				conflicts = append(conflicts, models.Conflict{
					Category: models.ConflictError,
					Message:  fmt.Sprintf("%s has no lab session for batch %s", subject.Name, batch),
					Severity: models.SeverityHigh,
					Affected: []string{subject.Name},
				})
			} else if perBatch[batch] != expectedBlocks {
				conflicts = append(conflicts, models.Conflict{
					Category: models.ConflictWarning,
					Message:  fmt.Sprintf("%s batch %s has %d lab block(s), expected %d", subject.Name, batch, perBatch[batch], expectedBlocks),
					Severity: models.SeverityMedium,
					Affected: []string{subject.Name},
				})
			}
		}
	}
	return conflicts
}

// checkFacultyLoad compares daily teaching totals against declared maxima.
func checkFacultyLoad(slots []models.ScheduledSlot, ctx *Context) []models.Conflict {
	totals := make(map[string]map[string]int)
	for _, slot := range slots {
		if totals[slot.Faculty] == nil {
			totals[slot.Faculty] = make(map[string]int)
		}
		totals[slot.Faculty][slot.Day] += slot.Duration
	}

	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)

	var conflicts []models.Conflict
	for _, name := range names {
		limit := ctx.maxDailyHours(name)
		if limit <= 0 {
			continue
		}
		for _, day := range Days {
			if totals[name][day] > limit {
				conflicts = append(conflicts, models.Conflict{
					Category: models.ConflictWarning,
					Message:  fmt.Sprintf("%s teaches %d hours on %s, above the %d hour cap", name, totals[name][day], day, limit),
					Severity: models.SeverityMedium,
					Affected: []string{name},
				})
			}
		}
	}
	return conflicts
}

// checkRoomUsage flags an idle room inventory or a single overloaded room.
func checkRoomUsage(slots []models.ScheduledSlot, in Input) []models.Conflict {
	uses := make(map[string]int)
	for _, slot := range slots {
		uses[slot.Room]++
	}
	inventory := len(in.Classrooms) + len(in.Labs)

	var conflicts []models.Conflict
	if inventory > 0 && float64(len(uses))/float64(inventory) < 0.5 {
		conflicts = append(conflicts, models.Conflict{
			Category: models.ConflictWarning,
			Message:  fmt.Sprintf("only %d of %d rooms are in use", len(uses), inventory),
			Severity: models.SeverityLow,
		})
	}

	rooms := make([]string, 0, len(uses))
	for room := range uses {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)
	for _, room := range rooms {
		if uses[room] > 20 {
			conflicts = append(conflicts, models.Conflict{
				Category: models.ConflictWarning,
				Message:  fmt.Sprintf("room %s is scheduled %d times this week", room, uses[room]),
				Severity: models.SeverityLow,
				Affected: []string{room},
			})
		}
	}
	return conflicts
}

func computeStats(slots []models.ScheduledSlot, in Input, advisory *models.AdvisoryReport, conflicts []models.Conflict) models.ScheduleStats {
	stats := models.ScheduleStats{TotalSlots: len(slots)}

	facultyUsed := make(map[string]bool)
	roomsUsed := make(map[string]bool)
	for _, slot := range slots {
		if slot.Kind == models.SlotTheory {
			stats.TheorySlots++
		} else {
			stats.LabSlots++
		}
		facultyUsed[slot.Faculty] = true
		roomsUsed[slot.Room] = true
	}
	if len(in.Faculty) > 0 {
		stats.FacultyUtilization = float64(len(facultyUsed)) / float64(len(in.Faculty)) * 100
	}
	if inventory := len(in.Classrooms) + len(in.Labs); inventory > 0 {
		stats.RoomUtilization = float64(len(roomsUsed)) / float64(inventory) * 100
	}

	switch {
	case advisory != nil && advisory.ConstraintScore > 0:
		stats.ConstraintScore = advisory.ConstraintScore
	case hasErrorConflict(conflicts):
		stats.ConstraintScore = scoreWithErrors
	default:
		stats.ConstraintScore = scoreWithoutErrors
	}

	stats.ConsistencyHash = ConsistencyHash(slots)
	return stats
}

func hasErrorConflict(conflicts []models.Conflict) bool {
	for _, conflict := range conflicts {
		if conflict.Category == models.ConflictError {
			return true
		}
	}
	return false
}

// ConsistencyHash digests the canonicalized slot tuples. Identical inputs
// must produce byte-identical schedules, and therefore identical hashes,
// across repeated runs.
func ConsistencyHash(slots []models.ScheduledSlot) string {
	tuples := make([]string, 0, len(slots))
	for _, slot := range slots {
		tuples = append(tuples, strings.Join([]string{
			slot.Day, slot.TimeRange, slot.Subject, slot.Faculty,
			slot.Room, slot.Kind, slot.Year, slot.Batch,
		}, "|"))
	}
	sort.Strings(tuples)
	digest := sha256.Sum256([]byte(strings.Join(tuples, "\n")))
	return hex.EncodeToString(digest[:])
}

// sortSlots returns a canonically ordered copy: day order, then start time,
// then room.
func sortSlots(slots []models.ScheduledSlot) []models.ScheduledSlot {
	dayIndex := make(map[string]int, len(Days))
	for i, day := range Days {
		dayIndex[day] = i
	}
	ordered := make([]models.ScheduledSlot, len(slots))
	copy(ordered, slots)
	sort.SliceStable(ordered, func(i, j int) bool {
		if dayIndex[ordered[i].Day] != dayIndex[ordered[j].Day] {
			return dayIndex[ordered[i].Day] < dayIndex[ordered[j].Day]
		}
		si, _, errI := rangeBounds(ordered[i].TimeRange)
		sj, _, errJ := rangeBounds(ordered[j].TimeRange)
		if errI == nil && errJ == nil && si != sj {
			return si < sj
		}
		return ordered[i].Room < ordered[j].Room
	})
	return ordered
}
