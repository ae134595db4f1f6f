package dto

// CreateSubjectRequest adds one subject to the catalog.
type CreateSubjectRequest struct {
	Code        string `json:"code" validate:"required,max=16"`
	Name        string `json:"name" validate:"required,max=128"`
	Year        string `json:"year" validate:"required,oneof=SE TE BE"`
	Semester    int    `json:"semester" validate:"required,min=1,max=8"`
	TheoryHours int    `json:"theoryHours" validate:"min=0,max=20"`
	LabHours    int    `json:"labHours" validate:"min=0,max=20"`
	FacultyName string `json:"facultyName" validate:"required,max=128"`
}

// UpdateSubjectRequest modifies an existing subject. Nil fields are kept.
type UpdateSubjectRequest struct {
	Code        *string `json:"code" validate:"omitempty,max=16"`
	Name        *string `json:"name" validate:"omitempty,max=128"`
	Year        *string `json:"year" validate:"omitempty,oneof=SE TE BE"`
	Semester    *int    `json:"semester" validate:"omitempty,min=1,max=8"`
	TheoryHours *int    `json:"theoryHours" validate:"omitempty,min=0,max=20"`
	LabHours    *int    `json:"labHours" validate:"omitempty,min=0,max=20"`
	FacultyName *string `json:"facultyName" validate:"omitempty,max=128"`
}

// SubjectListQuery filters the subject listing.
type SubjectListQuery struct {
	Year      string `form:"year" validate:"omitempty,oneof=SE TE BE"`
	Semester  int    `form:"semester" validate:"omitempty,min=1,max=8"`
	Faculty   string `form:"faculty"`
	Search    string `form:"search"`
	Page      int    `form:"page" validate:"omitempty,min=1"`
	PageSize  int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder" validate:"omitempty,oneof=asc desc ASC DESC"`
}

// CreateFacultyRequest adds one instructor.
type CreateFacultyRequest struct {
	Name           string   `json:"name" validate:"required,max=128"`
	Email          string   `json:"email" validate:"required,email"`
	Phone          *string  `json:"phone" validate:"omitempty,max=32"`
	Department     string   `json:"department" validate:"required,max=64"`
	MaxHoursPerDay int      `json:"maxHoursPerDay" validate:"min=0,max=12"`
	PreferredBands []string `json:"preferredBands" validate:"omitempty,dive,oneof=Morning Afternoon Evening"`
}

// FacultyListQuery filters the instructor listing.
type FacultyListQuery struct {
	Department string `form:"department"`
	Search     string `form:"search"`
	Page       int    `form:"page" validate:"omitempty,min=1"`
	PageSize   int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
	SortBy     string `form:"sortBy"`
	SortOrder  string `form:"sortOrder" validate:"omitempty,oneof=asc desc ASC DESC"`
}

// CreateClassroomRequest adds the dedicated theory room of one cohort-year.
type CreateClassroomRequest struct {
	Name     string `json:"name" validate:"required,max=64"`
	Capacity int    `json:"capacity" validate:"required,min=1,max=500"`
	TimeBand string `json:"timeBand" validate:"required,oneof=Morning Afternoon"`
	Year     string `json:"year" validate:"required,oneof=SE TE BE"`
	Floor    int    `json:"floor" validate:"min=0,max=50"`
}

// CreateLabRequest adds one laboratory.
type CreateLabRequest struct {
	Name         string   `json:"name" validate:"required,max=64"`
	Capacity     int      `json:"capacity" validate:"required,min=1,max=200"`
	LabType      string   `json:"labType" validate:"required,max=64"`
	SubjectCodes []string `json:"subjectCodes" validate:"omitempty,dive,max=16"`
	HourRanges   []string `json:"hourRanges" validate:"omitempty,dive,max=16"`
}

// RoomListQuery filters classroom or lab listings.
type RoomListQuery struct {
	Year     string `form:"year" validate:"omitempty,oneof=SE TE BE"`
	Search   string `form:"search"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}
