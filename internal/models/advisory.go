package models

// Recommendation is one advisor-ranked candidate placement. The engine
// treats it as untrusted input: every recommendation passes the same
// acceptance checks as any other candidate before it is committed.
type Recommendation struct {
	Subject    string  `json:"subject"`
	Faculty    string  `json:"faculty"`
	Day        string  `json:"day"`
	TimeRange  string  `json:"timeRange"`
	Room       string  `json:"room"`
	Kind       string  `json:"kind"`
	Batch      string  `json:"batch,omitempty"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// AdvisoryReport is the full response of the optional external advisor.
type AdvisoryReport struct {
	IsValid         bool             `json:"isValid"`
	Conflicts       []Conflict       `json:"conflicts,omitempty"`
	Suggestions     []string         `json:"optimizationSuggestions,omitempty"`
	ConstraintScore float64          `json:"constraintScore"`
	Recommended     []Recommendation `json:"recommendedSlots,omitempty"`
}

// AdvisoryRequest is the context handed to the advisor for one run.
type AdvisoryRequest struct {
	Subjects    []Subject       `json:"subjects"`
	Faculty     []Faculty       `json:"faculty"`
	Classrooms  []Classroom     `json:"classrooms"`
	Labs        []Lab           `json:"labs"`
	Constraints Constraints     `json:"constraints"`
	Year        string          `json:"year"`
	Semester    int             `json:"semester"`
	Accepted    []ScheduledSlot `json:"acceptedSlots,omitempty"`
}
