package dto

import "github.com/campusgrid/timetable-api/internal/models"

// GenerateTimetableRequest instructs the scheduler to build a weekly
// timetable proposal for one cohort-year and semester.
type GenerateTimetableRequest struct {
	Year        string              `json:"year" validate:"required,oneof=SE TE BE"`
	Semester    int                 `json:"semester" validate:"required,min=1,max=8"`
	UseAdvisor  bool                `json:"useAdvisor"`
	Constraints *models.Constraints `json:"constraints"`
}

// GenerateTimetableResponse returns the built proposal.
type GenerateTimetableResponse struct {
	ProposalID  string                 `json:"proposalId"`
	Year        string                 `json:"year"`
	Semester    int                    `json:"semester"`
	Slots       []models.ScheduledSlot `json:"slots"`
	Conflicts   []models.Conflict      `json:"conflicts"`
	Suggestions []string               `json:"optimizationSuggestions,omitempty"`
	Stats       models.ScheduleStats   `json:"stats"`
	AdvisorUsed bool                   `json:"advisorUsed"`
}

// SaveTimetableRequest persists a previously generated proposal.
type SaveTimetableRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
}

// SaveTimetableResponse reports the persisted week.
type SaveTimetableResponse struct {
	Year      string `json:"year"`
	Semester  int    `json:"semester"`
	SlotCount int    `json:"slotCount"`
}

// TimetableQuery filters stored slots.
type TimetableQuery struct {
	Year     string `form:"year" json:"year" validate:"omitempty,oneof=SE TE BE"`
	Semester int    `form:"semester" json:"semester" validate:"omitempty,min=1,max=8"`
	Faculty  string `form:"faculty" json:"faculty"`
	Day      string `form:"day" json:"day"`
}

// TimetableResponse returns stored slots plus a validation summary.
type TimetableResponse struct {
	Slots     []models.ScheduledSlot `json:"slots"`
	Conflicts []models.Conflict      `json:"conflicts,omitempty"`
	Stats     *models.ScheduleStats  `json:"stats,omitempty"`
}

// ExportTimetableQuery selects the scope and format of an export.
type ExportTimetableQuery struct {
	Year     string `form:"year" json:"year" validate:"required,oneof=SE TE BE"`
	Semester int    `form:"semester" json:"semester" validate:"required,min=1,max=8"`
	Format   string `form:"format" json:"format" validate:"required,oneof=csv pdf"`
}

// DeleteTimetableQuery selects the scope of stored slots to drop.
type DeleteTimetableQuery struct {
	Year     string `form:"year" json:"year" validate:"required,oneof=SE TE BE"`
	Semester int    `form:"semester" json:"semester" validate:"required,min=1,max=8"`
}

// DeleteTimetableResponse reports how many slots were removed.
type DeleteTimetableResponse struct {
	Deleted int64 `json:"deleted"`
}
