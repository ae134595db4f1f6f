package timetable

import (
	"sort"

	"github.com/campusgrid/timetable-api/internal/models"
)

// DemandUnit is one atomic unscheduled requirement: a single weekly lecture
// instance, or one lab block for one batch. Units are created by expansion
// and consumed by successful placement; whatever survives a run is reported
// as a conflict.
type DemandUnit struct {
	SubjectCode string
	SubjectName string
	Faculty     string
	Year        string
	Semester    int
	Kind        string
	Batch       string
}

// Pool holds unplaced demand units in priority order. Removal preserves the
// relative order of the remaining units so repeated scans stay deterministic.
type Pool struct {
	units []DemandUnit
}

// Len returns the number of unplaced units.
func (p *Pool) Len() int { return len(p.units) }

// At returns the unit at index i.
func (p *Pool) At(i int) DemandUnit { return p.units[i] }

// Units returns the remaining units. The slice is owned by the pool.
func (p *Pool) Units() []DemandUnit { return p.units }

// Remove consumes the unit at index i.
func (p *Pool) Remove(i int) DemandUnit {
	unit := p.units[i]
	p.units = append(p.units[:i], p.units[i+1:]...)
	return unit
}

// push appends a unit without re-sorting.
func (p *Pool) push(unit DemandUnit) { p.units = append(p.units, unit) }

// BuildLecturePool expands every in-scope subject into one DemandUnit per
// required weekly theory hour. Units are ordered by descending weekly demand
// so scarce-capacity subjects are attempted first, then by code for
// determinism.
func BuildLecturePool(subjects []models.Subject, year string, semester int) *Pool {
	scoped := scopeSubjects(subjects, year, semester)
	sort.SliceStable(scoped, func(i, j int) bool {
		if scoped[i].TheoryHours != scoped[j].TheoryHours {
			return scoped[i].TheoryHours > scoped[j].TheoryHours
		}
		return scoped[i].Code < scoped[j].Code
	})

	pool := &Pool{}
	for _, subject := range scoped {
		for i := 0; i < subject.TheoryHours; i++ {
			pool.push(DemandUnit{
				SubjectCode: subject.Code,
				SubjectName: subject.Name,
				Faculty:     subject.FacultyName,
				Year:        subject.Year,
				Semester:    subject.Semester,
				Kind:        models.SlotTheory,
			})
		}
	}
	return pool
}

// BuildLabPool expands every lab-bearing subject into ceil(labHours/2)
// two-hour blocks, and fans each block out across all three batches: every
// lab-bearing subject must eventually show sessions for batch A, B and C.
func BuildLabPool(subjects []models.Subject, year string, semester int) *Pool {
	scoped := scopeSubjects(subjects, year, semester)
	sort.SliceStable(scoped, func(i, j int) bool {
		return scoped[i].Code < scoped[j].Code
	})

	pool := &Pool{}
	for _, subject := range scoped {
		blocks := (subject.LabHours + 1) / 2
		for block := 0; block < blocks; block++ {
			for _, batch := range models.Batches {
				pool.push(DemandUnit{
					SubjectCode: subject.Code,
					SubjectName: subject.Name,
					Faculty:     subject.FacultyName,
					Year:        subject.Year,
					Semester:    subject.Semester,
					Kind:        models.SlotLab,
					Batch:       batch,
				})
			}
		}
	}
	return pool
}

func scopeSubjects(subjects []models.Subject, year string, semester int) []models.Subject {
	scoped := make([]models.Subject, 0, len(subjects))
	for _, subject := range subjects {
		if subject.Year != year || subject.Semester != semester {
			continue
		}
		scoped = append(scoped, subject)
	}
	return scoped
}
