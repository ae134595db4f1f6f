package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgrid/timetable-api/internal/models"
)

func TestBuildLecturePoolExpandsTheoryHours(t *testing.T) {
	subjects := []models.Subject{
		{Code: "CS301", Name: "Databases", Year: models.YearTE, Semester: 5, TheoryHours: 3, FacultyName: "Rao"},
		{Code: "CS302", Name: "Networks", Year: models.YearTE, Semester: 5, TheoryHours: 4, FacultyName: "Iyer"},
		{Code: "CS401", Name: "Compilers", Year: models.YearBE, Semester: 7, TheoryHours: 3, FacultyName: "Rao"},
	}

	pool := BuildLecturePool(subjects, models.YearTE, 5)
	require.Equal(t, 7, pool.Len())

	// Higher weekly demand comes first.
	assert.Equal(t, "CS302", pool.At(0).SubjectCode)
	for i := 0; i < pool.Len(); i++ {
		assert.Equal(t, models.SlotTheory, pool.At(i).Kind)
		assert.Equal(t, models.YearTE, pool.At(i).Year)
		assert.Empty(t, pool.At(i).Batch)
	}
}

func TestBuildLabPoolFansOutBatches(t *testing.T) {
	subjects := []models.Subject{
		{Code: "CS303", Name: "DBMS Lab", Year: models.YearTE, Semester: 5, LabHours: 2, FacultyName: "Rao"},
	}

	pool := BuildLabPool(subjects, models.YearTE, 5)
	require.Equal(t, 3, pool.Len(), "one block times three batches")

	batches := make(map[string]bool)
	for i := 0; i < pool.Len(); i++ {
		unit := pool.At(i)
		assert.Equal(t, models.SlotLab, unit.Kind)
		batches[unit.Batch] = true
	}
	assert.Len(t, batches, 3)
}

func TestBuildLabPoolMultipleBlocks(t *testing.T) {
	subjects := []models.Subject{
		{Code: "CS304", Name: "Networks Lab", Year: models.YearTE, Semester: 5, LabHours: 4, FacultyName: "Iyer"},
		{Code: "CS305", Name: "OS Lab", Year: models.YearTE, Semester: 5, LabHours: 3, FacultyName: "Rao"},
	}

	pool := BuildLabPool(subjects, models.YearTE, 5)
	// 2 blocks and ceil(3/2)=2 blocks, each fanned out across 3 batches.
	assert.Equal(t, 12, pool.Len())
}

func TestBuildPoolsScopeByYearAndSemester(t *testing.T) {
	subjects := []models.Subject{
		{Code: "CS301", Name: "Databases", Year: models.YearTE, Semester: 5, TheoryHours: 3, LabHours: 2},
		{Code: "CS201", Name: "Data Structures", Year: models.YearSE, Semester: 3, TheoryHours: 3, LabHours: 2},
		{Code: "CS351", Name: "Electives", Year: models.YearTE, Semester: 6, TheoryHours: 3},
	}

	assert.Equal(t, 3, BuildLecturePool(subjects, models.YearTE, 5).Len())
	assert.Equal(t, 3, BuildLabPool(subjects, models.YearTE, 5).Len())
	assert.Equal(t, 0, BuildLecturePool(subjects, models.YearBE, 7).Len())
}

func TestPoolRemovePreservesOrder(t *testing.T) {
	pool := &Pool{}
	pool.push(DemandUnit{SubjectCode: "A"})
	pool.push(DemandUnit{SubjectCode: "B"})
	pool.push(DemandUnit{SubjectCode: "C"})

	removed := pool.Remove(1)
	assert.Equal(t, "B", removed.SubjectCode)
	require.Equal(t, 2, pool.Len())
	assert.Equal(t, "A", pool.At(0).SubjectCode)
	assert.Equal(t, "C", pool.At(1).SubjectCode)
}
