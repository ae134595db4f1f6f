package models

import "time"

// Slot kinds.
const (
	SlotTheory = "theory"
	SlotLab    = "lab"
)

// ScheduledSlot is one placed session on the weekly grid.
type ScheduledSlot struct {
	ID        string    `db:"id" json:"id"`
	Day       string    `db:"day" json:"day"`
	TimeRange string    `db:"time_range" json:"time_range"`
	Subject   string    `db:"subject" json:"subject"`
	Faculty   string    `db:"faculty" json:"faculty"`
	Room      string    `db:"room" json:"room"`
	Kind      string    `db:"kind" json:"kind"`
	Year      string    `db:"year" json:"year"`
	Batch     string    `db:"batch" json:"batch,omitempty"`
	Duration  int       `db:"duration" json:"duration"`
	Semester  int       `db:"semester" json:"semester"`
	FillIn    bool      `db:"fill_in" json:"fill_in"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SlotFilter selects stored slots by scope.
type SlotFilter struct {
	Year     string
	Semester int
	Faculty  string
	Day      string
}

// Conflict severities and categories.
const (
	ConflictError   = "error"
	ConflictWarning = "warning"
	ConflictInfo    = "info"
	ConflictSuccess = "success"

	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Conflict reports a constraint violation or coverage gap. Conflicts are
// observational: they accumulate for reporting and never drive control flow.
type Conflict struct {
	Category string   `json:"category"`
	Message  string   `json:"message"`
	Severity string   `json:"severity"`
	Affected []string `json:"affected,omitempty"`
}

// ScheduleStats summarises one generation run.
type ScheduleStats struct {
	TotalSlots         int     `json:"totalSlots"`
	TheorySlots        int     `json:"theorySlots"`
	LabSlots           int     `json:"labSlots"`
	FacultyUtilization float64 `json:"facultyUtilization"`
	RoomUtilization    float64 `json:"roomUtilization"`
	ConstraintScore    float64 `json:"constraintScore"`
	ConsistencyHash    string  `json:"consistencyHash"`
}

// Constraints is the recognised tuning surface for one generation run.
// Advisory-only options influence scoring and suggestions, never acceptance.
type Constraints struct {
	MaxHoursPerDay         int  `json:"maxHoursPerDay"`
	MinBreakMinutes        int  `json:"minBreakBetweenClasses"`
	MaxConsecutiveHours    int  `json:"maxConsecutiveHours"`
	PrioritizeLabAfternoon bool `json:"prioritizeLabAfternoon"`
	// AllowBackToBackTheory is declared for forward compatibility but is not
	// wired to the same-subject adjacency check, which stays unconditional.
	AllowBackToBackTheory bool              `json:"allowBackToBackTheory"`
	FacultyRestSlots      int               `json:"facultyRestSlots"`
	YearBandType          map[string]string `json:"yearBandType,omitempty"`
}
