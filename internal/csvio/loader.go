// Package csvio loads catalog data from CSV files so a department can be
// bootstrapped without typing every subject through the API.
package csvio

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/jmoiron/sqlx/types"

	"github.com/campusgrid/timetable-api/internal/models"
)

// subjectRow mirrors one line of the subjects CSV.
type subjectRow struct {
	Code        string `csv:"code"`
	Name        string `csv:"name"`
	Year        string `csv:"year"`
	Semester    int    `csv:"semester"`
	TheoryHours int    `csv:"theory_hours"`
	LabHours    int    `csv:"lab_hours"`
	FacultyName string `csv:"faculty_name"`
}

// facultyRow mirrors one line of the faculty CSV. PreferredBands is a
// semicolon separated list, e.g. "Morning;Afternoon".
type facultyRow struct {
	Name           string `csv:"name"`
	Email          string `csv:"email"`
	Phone          string `csv:"phone"`
	Department     string `csv:"department"`
	MaxHoursPerDay int    `csv:"max_hours_per_day"`
	PreferredBands string `csv:"preferred_bands"`
}

// classroomRow mirrors one line of the classrooms CSV.
type classroomRow struct {
	Name     string `csv:"name"`
	Capacity int    `csv:"capacity"`
	TimeBand string `csv:"time_band"`
	Year     string `csv:"year"`
	Floor    int    `csv:"floor"`
}

// labRow mirrors one line of the labs CSV. SubjectCodes and HourRanges are
// semicolon separated lists.
type labRow struct {
	Name         string `csv:"name"`
	Capacity     int    `csv:"capacity"`
	LabType      string `csv:"lab_type"`
	SubjectCodes string `csv:"subject_codes"`
	HourRanges   string `csv:"hour_ranges"`
}

// LoadSubjects parses and validates the subjects CSV.
func LoadSubjects(r io.Reader) ([]models.Subject, error) {
	var rows []*subjectRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parse subjects csv: %w", err)
	}

	subjects := make([]models.Subject, 0, len(rows))
	for i, row := range rows {
		if row.Code == "" || row.Name == "" {
			return nil, fmt.Errorf("subjects csv line %d: code and name are required", i+2)
		}
		if !validYear(row.Year) {
			return nil, fmt.Errorf("subjects csv line %d: unknown year %q", i+2, row.Year)
		}
		if row.Semester < 1 || row.Semester > 8 {
			return nil, fmt.Errorf("subjects csv line %d: semester %d out of range", i+2, row.Semester)
		}
		if row.TheoryHours < 0 || row.LabHours < 0 {
			return nil, fmt.Errorf("subjects csv line %d: negative hours", i+2)
		}
		subjects = append(subjects, models.Subject{
			Code:        strings.TrimSpace(row.Code),
			Name:        strings.TrimSpace(row.Name),
			Year:        row.Year,
			Semester:    row.Semester,
			TheoryHours: row.TheoryHours,
			LabHours:    row.LabHours,
			FacultyName: strings.TrimSpace(row.FacultyName),
		})
	}
	return subjects, nil
}

// LoadFaculty parses and validates the faculty CSV.
func LoadFaculty(r io.Reader) ([]models.Faculty, error) {
	var rows []*facultyRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parse faculty csv: %w", err)
	}

	seen := make(map[string]bool, len(rows))
	faculty := make([]models.Faculty, 0, len(rows))
	for i, row := range rows {
		name := strings.TrimSpace(row.Name)
		if name == "" {
			return nil, fmt.Errorf("faculty csv line %d: name is required", i+2)
		}
		if seen[name] {
			return nil, fmt.Errorf("faculty csv line %d: duplicate instructor %q", i+2, name)
		}
		seen[name] = true

		member := models.Faculty{
			Name:           name,
			Email:          strings.TrimSpace(row.Email),
			Department:     strings.TrimSpace(row.Department),
			MaxHoursPerDay: row.MaxHoursPerDay,
		}
		if phone := strings.TrimSpace(row.Phone); phone != "" {
			member.Phone = &phone
		}
		if bands := splitList(row.PreferredBands); len(bands) > 0 {
			payload, err := json.Marshal(bands)
			if err != nil {
				return nil, fmt.Errorf("faculty csv line %d: encode preferred bands: %w", i+2, err)
			}
			member.PreferredBands = types.JSONText(payload)
		}
		faculty = append(faculty, member)
	}
	return faculty, nil
}

// LoadClassrooms parses and validates the classrooms CSV.
func LoadClassrooms(r io.Reader) ([]models.Classroom, error) {
	var rows []*classroomRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parse classrooms csv: %w", err)
	}

	classrooms := make([]models.Classroom, 0, len(rows))
	for i, row := range rows {
		if strings.TrimSpace(row.Name) == "" {
			return nil, fmt.Errorf("classrooms csv line %d: name is required", i+2)
		}
		if !validYear(row.Year) {
			return nil, fmt.Errorf("classrooms csv line %d: unknown year %q", i+2, row.Year)
		}
		classrooms = append(classrooms, models.Classroom{
			Name:     strings.TrimSpace(row.Name),
			Capacity: row.Capacity,
			TimeBand: row.TimeBand,
			Year:     row.Year,
			Floor:    row.Floor,
		})
	}
	return classrooms, nil
}

// LoadLabs parses and validates the labs CSV.
func LoadLabs(r io.Reader) ([]models.Lab, error) {
	var rows []*labRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parse labs csv: %w", err)
	}

	labs := make([]models.Lab, 0, len(rows))
	for i, row := range rows {
		if strings.TrimSpace(row.Name) == "" {
			return nil, fmt.Errorf("labs csv line %d: name is required", i+2)
		}
		lab := models.Lab{
			Name:     strings.TrimSpace(row.Name),
			Capacity: row.Capacity,
			LabType:  strings.TrimSpace(row.LabType),
		}
		if codes := splitList(row.SubjectCodes); len(codes) > 0 {
			payload, err := json.Marshal(codes)
			if err != nil {
				return nil, fmt.Errorf("labs csv line %d: encode subject codes: %w", i+2, err)
			}
			lab.SubjectCodes = types.JSONText(payload)
		}
		if ranges := splitList(row.HourRanges); len(ranges) > 0 {
			payload, err := json.Marshal(ranges)
			if err != nil {
				return nil, fmt.Errorf("labs csv line %d: encode hour ranges: %w", i+2, err)
			}
			lab.HourRanges = types.JSONText(payload)
		}
		labs = append(labs, lab)
	}
	return labs, nil
}

func validYear(year string) bool {
	for _, known := range models.CohortYears {
		if year == known {
			return true
		}
	}
	return false
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
