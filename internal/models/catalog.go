package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Cohort years recognised by the scheduler. Every subject, classroom and
// generated slot belongs to exactly one of these.
const (
	YearSE = "SE"
	YearTE = "TE"
	YearBE = "BE"
)

// CohortYears lists the fixed cohort-year tags in ascending seniority.
var CohortYears = []string{YearSE, YearTE, YearBE}

// Batches lists the fixed lab sub-groups within a cohort-year.
var Batches = []string{"A", "B", "C"}

// Subject represents one entry of the teaching catalog.
type Subject struct {
	ID          string    `db:"id" json:"id" csv:"-"`
	Code        string    `db:"code" json:"code" csv:"code"`
	Name        string    `db:"name" json:"name" csv:"name"`
	Year        string    `db:"year" json:"year" csv:"year"`
	Semester    int       `db:"semester" json:"semester" csv:"semester"`
	TheoryHours int       `db:"theory_hours" json:"theory_hours" csv:"theory_hours"`
	LabHours    int       `db:"lab_hours" json:"lab_hours" csv:"lab_hours"`
	FacultyName string    `db:"faculty_name" json:"faculty_name" csv:"faculty_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at" csv:"-"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at" csv:"-"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Year      string
	Semester  int
	Faculty   string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Faculty represents an instructor. Name is the join key used by the
// scheduler and must be unique for the lifetime of a generation run.
type Faculty struct {
	ID             string         `db:"id" json:"id" csv:"-"`
	Name           string         `db:"name" json:"name" csv:"name"`
	Email          string         `db:"email" json:"email" csv:"email"`
	Phone          *string        `db:"phone" json:"phone,omitempty" csv:"phone"`
	Department     string         `db:"department" json:"department" csv:"department"`
	MaxHoursPerDay int            `db:"max_hours_per_day" json:"max_hours_per_day" csv:"max_hours_per_day"`
	PreferredBands types.JSONText `db:"preferred_bands" json:"preferred_bands" csv:"-"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at" csv:"-"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at" csv:"-"`
}

// PreferredBandList decodes the ranked time-of-day preferences
// ("Morning"/"Afternoon"/"Evening"). Malformed payloads decode to none.
func (f *Faculty) PreferredBandList() []string {
	var bands []string
	if len(f.PreferredBands) == 0 {
		return nil
	}
	_ = f.PreferredBands.Unmarshal(&bands)
	return bands
}

// FacultyFilter captures supported filters for listing faculty.
type FacultyFilter struct {
	Department string
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// Classroom is the dedicated theory room for one cohort-year.
type Classroom struct {
	ID        string         `db:"id" json:"id" csv:"-"`
	Name      string         `db:"name" json:"name" csv:"name"`
	Capacity  int            `db:"capacity" json:"capacity" csv:"capacity"`
	TimeBand  string         `db:"time_band" json:"time_band" csv:"time_band"`
	Year      string         `db:"year" json:"year" csv:"year"`
	Floor     int            `db:"floor" json:"floor" csv:"floor"`
	Amenities types.JSONText `db:"amenities" json:"amenities" csv:"-"`
	CreatedAt time.Time      `db:"created_at" json:"created_at" csv:"-"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at" csv:"-"`
}

// Lab is a laboratory room usable for practical sessions.
type Lab struct {
	ID           string         `db:"id" json:"id" csv:"-"`
	Name         string         `db:"name" json:"name" csv:"name"`
	Capacity     int            `db:"capacity" json:"capacity" csv:"capacity"`
	LabType      string         `db:"lab_type" json:"lab_type" csv:"lab_type"`
	Equipment    types.JSONText `db:"equipment" json:"equipment" csv:"-"`
	SubjectCodes types.JSONText `db:"subject_codes" json:"subject_codes" csv:"-"`
	HourRanges   types.JSONText `db:"hour_ranges" json:"hour_ranges" csv:"-"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at" csv:"-"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at" csv:"-"`
}

// RestrictedSubjects decodes the optional subject-code whitelist.
// Empty means the lab is general purpose.
func (l *Lab) RestrictedSubjects() []string {
	var codes []string
	if len(l.SubjectCodes) == 0 {
		return nil
	}
	_ = l.SubjectCodes.Unmarshal(&codes)
	return codes
}

// RoomFilter captures supported filters for listing classrooms or labs.
type RoomFilter struct {
	Year      string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
