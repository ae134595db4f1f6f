package timetable

import (
	"fmt"
	"sort"

	"github.com/campusgrid/timetable-api/internal/models"
)

// Rule kinds. Hard rules gate slot acceptance; soft rules only move the
// satisfaction score and the advisory messaging.
const (
	RuleHard = "hard"
	RuleSoft = "soft"
)

// Context carries the catalog data the rule predicates need beyond the slot
// set itself.
type Context struct {
	FacultyByName map[string]*models.Faculty
	Constraints   models.Constraints
	RoomCount     int
}

// NewContext indexes catalog entities for rule evaluation.
func NewContext(faculty []models.Faculty, constraints models.Constraints, roomCount int) *Context {
	byName := make(map[string]*models.Faculty, len(faculty))
	for i := range faculty {
		byName[faculty[i].Name] = &faculty[i]
	}
	return &Context{FacultyByName: byName, Constraints: constraints, RoomCount: roomCount}
}

// maxDailyHours resolves the per-day teaching cap for a faculty member,
// falling back to the run-level constraint.
func (c *Context) maxDailyHours(name string) int {
	if f, ok := c.FacultyByName[name]; ok && f.MaxHoursPerDay > 0 {
		return f.MaxHoursPerDay
	}
	return c.Constraints.MaxHoursPerDay
}

// Rule is one named constraint: a predicate over a candidate slot and the
// full accepted slot set. Check returns true when the rule is satisfied.
type Rule struct {
	ID      string
	Name    string
	Kind    string
	Weight  float64
	Check   func(candidate models.ScheduledSlot, accepted []models.ScheduledSlot, ctx *Context) bool
	Message func(candidate models.ScheduledSlot) string
}

// DefaultRules returns the built-in rule set in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:     "faculty-clash",
			Name:   "No faculty double-booking",
			Kind:   RuleHard,
			Weight: 10,
			Check: func(candidate models.ScheduledSlot, accepted []models.ScheduledSlot, _ *Context) bool {
				for _, other := range accepted {
					if sameSlot(candidate, other) {
						continue
					}
					if other.Faculty == candidate.Faculty && other.Day == candidate.Day && Overlap(other.TimeRange, candidate.TimeRange) {
						return false
					}
				}
				return true
			},
			Message: func(s models.ScheduledSlot) string {
				return fmt.Sprintf("%s is double-booked on %s %s", s.Faculty, s.Day, s.TimeRange)
			},
		},
		{
			ID:     "room-clash",
			Name:   "No room double-booking",
			Kind:   RuleHard,
			Weight: 10,
			Check: func(candidate models.ScheduledSlot, accepted []models.ScheduledSlot, _ *Context) bool {
				for _, other := range accepted {
					if sameSlot(candidate, other) {
						continue
					}
					if other.Room == candidate.Room && other.Day == candidate.Day && Overlap(other.TimeRange, candidate.TimeRange) {
						return false
					}
				}
				return true
			},
			Message: func(s models.ScheduledSlot) string {
				return fmt.Sprintf("room %s is double-booked on %s %s", s.Room, s.Day, s.TimeRange)
			},
		},
		{
			ID:     "cohort-clash",
			Name:   "No cohort double-booking",
			Kind:   RuleHard,
			Weight: 10,
			Check: func(candidate models.ScheduledSlot, accepted []models.ScheduledSlot, _ *Context) bool {
				for _, other := range accepted {
					if sameSlot(candidate, other) {
						continue
					}
					if other.Year == candidate.Year && batchesCollide(other.Batch, candidate.Batch) &&
						other.Day == candidate.Day && Overlap(other.TimeRange, candidate.TimeRange) {
						return false
					}
				}
				return true
			},
			Message: func(s models.ScheduledSlot) string {
				return fmt.Sprintf("cohort %s is double-booked on %s %s", s.Year, s.Day, s.TimeRange)
			},
		},
		{
			ID:     "faculty-daily-cap",
			Name:   "Faculty daily-hour cap",
			Kind:   RuleSoft,
			Weight: 3,
			Check: func(candidate models.ScheduledSlot, accepted []models.ScheduledSlot, ctx *Context) bool {
				limit := ctx.maxDailyHours(candidate.Faculty)
				if limit <= 0 {
					return true
				}
				total := 0
				for _, other := range accepted {
					if other.Faculty == candidate.Faculty && other.Day == candidate.Day {
						total += other.Duration
					}
				}
				return total <= limit
			},
			Message: func(s models.ScheduledSlot) string {
				return fmt.Sprintf("%s exceeds the daily teaching cap on %s", s.Faculty, s.Day)
			},
		},
		{
			ID:     "lab-back-to-back",
			Name:   "No back-to-back labs for one faculty",
			Kind:   RuleSoft,
			Weight: 2,
			Check: func(candidate models.ScheduledSlot, accepted []models.ScheduledSlot, _ *Context) bool {
				if candidate.Kind != models.SlotLab {
					return true
				}
				prev, ok := PrevLabBand(candidate.TimeRange)
				if !ok {
					return true
				}
				for _, other := range accepted {
					if sameSlot(candidate, other) {
						continue
					}
					if other.Kind == models.SlotLab && other.Faculty == candidate.Faculty &&
						other.Day == candidate.Day && other.TimeRange == prev {
						return false
					}
				}
				return true
			},
			Message: func(s models.ScheduledSlot) string {
				return fmt.Sprintf("%s has back-to-back labs on %s", s.Faculty, s.Day)
			},
		},
		{
			ID:     "lab-afternoon",
			Name:   "Labs preferred in afternoon",
			Kind:   RuleSoft,
			Weight: 1,
			Check: func(candidate models.ScheduledSlot, _ []models.ScheduledSlot, _ *Context) bool {
				if candidate.Kind != models.SlotLab {
					return true
				}
				return StartHour(candidate.TimeRange) >= 13
			},
			Message: func(s models.ScheduledSlot) string {
				return fmt.Sprintf("lab %s on %s starts before 13:00", s.Subject, s.Day)
			},
		},
		{
			ID:     "faculty-preference",
			Name:   "Faculty preferred time-band",
			Kind:   RuleSoft,
			Weight: 1,
			Check: func(candidate models.ScheduledSlot, _ []models.ScheduledSlot, ctx *Context) bool {
				faculty, ok := ctx.FacultyByName[candidate.Faculty]
				if !ok {
					return true
				}
				prefs := faculty.PreferredBandList()
				if len(prefs) == 0 {
					return true
				}
				band := DayBand(candidate.TimeRange)
				for _, pref := range prefs {
					if pref == band {
						return true
					}
				}
				return false
			},
			Message: func(s models.ScheduledSlot) string {
				return fmt.Sprintf("%s %s falls outside %s's preferred bands", s.Day, s.TimeRange, s.Faculty)
			},
		},
	}
}

// ValidationReport is the verdict of running the full rule set over a slot
// set.
type ValidationReport struct {
	IsValid    bool
	Violations int
	Score      float64
	Conflicts  []models.Conflict
}

// ValidateTimetable evaluates every accepted slot against every rule. Hard
// failures invalidate the timetable; soft rules adjust the score in both
// directions.
func ValidateTimetable(slots []models.ScheduledSlot, ctx *Context) ValidationReport {
	report := ValidationReport{IsValid: true}
	rules := DefaultRules()
	for _, slot := range slots {
		for _, rule := range rules {
			if rule.Check(slot, slots, ctx) {
				if rule.Kind == RuleSoft {
					report.Score += rule.Weight
				}
				continue
			}
			if rule.Kind == RuleHard {
				report.Violations++
				report.IsValid = false
				report.Conflicts = append(report.Conflicts, models.Conflict{
					Category: models.ConflictError,
					Message:  rule.Message(slot),
					Severity: models.SeverityHigh,
					Affected: []string{slot.Subject, slot.Faculty},
				})
				continue
			}
			report.Score -= rule.Weight
			report.Conflicts = append(report.Conflicts, models.Conflict{
				Category: models.ConflictWarning,
				Message:  rule.Message(slot),
				Severity: models.SeverityLow,
				Affected: []string{slot.Subject, slot.Faculty},
			})
		}
	}
	return report
}

// OptimizationSuggestions inspects faculty load spread and lab-room
// utilization and returns advisory text. It has no side effects on the
// schedule.
func OptimizationSuggestions(slots []models.ScheduledSlot, ctx *Context) []string {
	var suggestions []string

	dailyLoad := make(map[string]map[string]int)
	for _, slot := range slots {
		if dailyLoad[slot.Faculty] == nil {
			dailyLoad[slot.Faculty] = make(map[string]int)
		}
		dailyLoad[slot.Faculty][slot.Day] += slot.Duration
	}
	names := make([]string, 0, len(dailyLoad))
	for name := range dailyLoad {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		min, max := -1, 0
		for _, day := range Days {
			load := dailyLoad[name][day]
			if load > max {
				max = load
			}
			if min < 0 || load < min {
				min = load
			}
		}
		if min >= 0 && max-min > 2 {
			suggestions = append(suggestions, fmt.Sprintf(
				"consider redistributing %s's sessions: daily load varies by %d hours", name, max-min))
		}
	}

	labUse := make(map[string]int)
	for _, slot := range slots {
		if slot.Kind == models.SlotLab {
			labUse[slot.Room]++
		}
	}
	rooms := make([]string, 0, len(labUse))
	for room := range labUse {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)
	capacity := len(Days) * len(labBandOrder)
	for _, room := range rooms {
		if capacity > 0 && float64(labUse[room])/float64(capacity) < 0.7 {
			suggestions = append(suggestions, fmt.Sprintf(
				"lab %s is under-utilized (%d of %d possible blocks)", room, labUse[room], capacity))
		}
	}
	return suggestions
}

// batchesCollide reports whether two batch tags contend for the same cohort:
// equal tags always collide, and an absent tag (a whole-cohort theory slot)
// collides with everything.
func batchesCollide(a, b string) bool {
	if a == "" || b == "" {
		return true
	}
	return a == b
}

func sameSlot(a, b models.ScheduledSlot) bool {
	return a.Day == b.Day && a.TimeRange == b.TimeRange && a.Subject == b.Subject &&
		a.Faculty == b.Faculty && a.Room == b.Room && a.Batch == b.Batch
}
