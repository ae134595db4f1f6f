package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgrid/timetable-api/internal/dto"
	"github.com/campusgrid/timetable-api/internal/models"
	appErrors "github.com/campusgrid/timetable-api/pkg/errors"
)

type stubSubjectRepo struct {
	subjects   []models.Subject
	existing   map[string]bool
	created    []models.Subject
	updated    []models.Subject
	deleted    []string
	listFilter models.SubjectFilter
}

func (s *stubSubjectRepo) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	s.listFilter = filter
	return s.subjects, len(s.subjects), nil
}

func (s *stubSubjectRepo) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	for i := range s.subjects {
		if s.subjects[i].ID == id {
			subject := s.subjects[i]
			return &subject, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubSubjectRepo) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	return s.existing[code], nil
}

func (s *stubSubjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	subject.ID = "sub-new"
	s.created = append(s.created, *subject)
	return nil
}

func (s *stubSubjectRepo) Update(ctx context.Context, subject *models.Subject) error {
	s.updated = append(s.updated, *subject)
	return nil
}

func (s *stubSubjectRepo) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type stubFacultyRepo struct {
	faculty  []models.Faculty
	existing map[string]bool
	created  []models.Faculty
}

func (s *stubFacultyRepo) List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error) {
	return s.faculty, len(s.faculty), nil
}

func (s *stubFacultyRepo) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	return s.existing[name], nil
}

func (s *stubFacultyRepo) Create(ctx context.Context, member *models.Faculty) error {
	member.ID = "fac-new"
	s.created = append(s.created, *member)
	return nil
}

func (s *stubFacultyRepo) Delete(ctx context.Context, id string) error { return nil }

type stubRoomRepo struct {
	classrooms []models.Classroom
	labs       []models.Lab
	createdLab *models.Lab
}

func (s *stubRoomRepo) ListClassrooms(ctx context.Context, filter models.RoomFilter) ([]models.Classroom, int, error) {
	return s.classrooms, len(s.classrooms), nil
}

func (s *stubRoomRepo) CreateClassroom(ctx context.Context, classroom *models.Classroom) error {
	classroom.ID = "room-new"
	s.classrooms = append(s.classrooms, *classroom)
	return nil
}

func (s *stubRoomRepo) DeleteClassroom(ctx context.Context, id string) error { return nil }

func (s *stubRoomRepo) ListLabs(ctx context.Context, filter models.RoomFilter) ([]models.Lab, int, error) {
	return s.labs, len(s.labs), nil
}

func (s *stubRoomRepo) CreateLab(ctx context.Context, lab *models.Lab) error {
	lab.ID = "lab-new"
	s.createdLab = lab
	return nil
}

func (s *stubRoomRepo) DeleteLab(ctx context.Context, id string) error { return nil }

func newCatalogFixture() (*CatalogService, *stubSubjectRepo, *stubFacultyRepo, *stubRoomRepo) {
	subjects := &stubSubjectRepo{existing: map[string]bool{}}
	faculty := &stubFacultyRepo{existing: map[string]bool{}}
	rooms := &stubRoomRepo{}
	svc := NewCatalogService(subjects, faculty, rooms, nil, nil)
	return svc, subjects, faculty, rooms
}

func TestCatalogServiceCreateSubject(t *testing.T) {
	svc, subjects, _, _ := newCatalogFixture()

	created, err := svc.CreateSubject(context.Background(), dto.CreateSubjectRequest{
		Code:        " cs201 ",
		Name:        "Data Structures",
		Year:        "SE",
		Semester:    3,
		TheoryHours: 3,
		LabHours:    2,
		FacultyName: "A. Rao",
	})
	require.NoError(t, err)
	assert.Equal(t, "CS201", created.Code)
	assert.Equal(t, "sub-new", created.ID)
	require.Len(t, subjects.created, 1)
}

func TestCatalogServiceCreateSubjectDuplicateCode(t *testing.T) {
	svc, subjects, _, _ := newCatalogFixture()
	subjects.existing["CS201"] = true

	_, err := svc.CreateSubject(context.Background(), dto.CreateSubjectRequest{
		Code:        "CS201",
		Name:        "Data Structures",
		Year:        "SE",
		Semester:    3,
		TheoryHours: 3,
		FacultyName: "A. Rao",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, subjects.created)
}

func TestCatalogServiceCreateSubjectNoHours(t *testing.T) {
	svc, _, _, _ := newCatalogFixture()

	_, err := svc.CreateSubject(context.Background(), dto.CreateSubjectRequest{
		Code:        "CS201",
		Name:        "Data Structures",
		Year:        "SE",
		Semester:    3,
		FacultyName: "A. Rao",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCatalogServiceCreateSubjectInvalidYear(t *testing.T) {
	svc, _, _, _ := newCatalogFixture()

	_, err := svc.CreateSubject(context.Background(), dto.CreateSubjectRequest{
		Code:        "CS201",
		Name:        "Data Structures",
		Year:        "FE",
		Semester:    3,
		TheoryHours: 3,
		FacultyName: "A. Rao",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCatalogServiceUpdateSubject(t *testing.T) {
	svc, subjects, _, _ := newCatalogFixture()
	subjects.subjects = []models.Subject{{ID: "sub-1", Code: "CS201", Name: "Data Structures", Year: "SE", Semester: 3, TheoryHours: 3}}

	name := "Advanced Data Structures"
	hours := 4
	updated, err := svc.UpdateSubject(context.Background(), "sub-1", dto.UpdateSubjectRequest{Name: &name, TheoryHours: &hours})
	require.NoError(t, err)
	assert.Equal(t, "Advanced Data Structures", updated.Name)
	assert.Equal(t, 4, updated.TheoryHours)
	assert.Equal(t, "CS201", updated.Code)
	require.Len(t, subjects.updated, 1)
}

func TestCatalogServiceUpdateSubjectNotFound(t *testing.T) {
	svc, _, _, _ := newCatalogFixture()

	name := "Anything"
	_, err := svc.UpdateSubject(context.Background(), "missing", dto.UpdateSubjectRequest{Name: &name})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCatalogServiceListSubjectsPassesFilter(t *testing.T) {
	svc, subjects, _, _ := newCatalogFixture()
	subjects.subjects = []models.Subject{{ID: "sub-1", Code: "CS201"}}

	list, pagination, err := svc.ListSubjects(context.Background(), dto.SubjectListQuery{Year: "SE", Semester: 3, Page: 2, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "SE", subjects.listFilter.Year)
	assert.Equal(t, 3, subjects.listFilter.Semester)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, 10, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestCatalogServiceCreateFacultyDuplicateName(t *testing.T) {
	svc, _, faculty, _ := newCatalogFixture()
	faculty.existing["A. Rao"] = true

	_, err := svc.CreateFaculty(context.Background(), dto.CreateFacultyRequest{
		Name:       "A. Rao",
		Email:      "a.rao@campus.edu",
		Department: "Computer Engineering",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCatalogServiceCreateFacultyEncodesBands(t *testing.T) {
	svc, _, faculty, _ := newCatalogFixture()

	created, err := svc.CreateFaculty(context.Background(), dto.CreateFacultyRequest{
		Name:           "B. Iyer",
		Email:          "b.iyer@campus.edu",
		Department:     "Computer Engineering",
		MaxHoursPerDay: 5,
		PreferredBands: []string{"Morning", "Afternoon"},
	})
	require.NoError(t, err)
	require.Len(t, faculty.created, 1)
	assert.Equal(t, []string{"Morning", "Afternoon"}, created.PreferredBandList())
}

func TestCatalogServiceCreateLabEncodesCodes(t *testing.T) {
	svc, _, _, rooms := newCatalogFixture()

	created, err := svc.CreateLab(context.Background(), dto.CreateLabRequest{
		Name:         "Networks Lab",
		Capacity:     30,
		LabType:      "Networking",
		SubjectCodes: []string{"CS403", "CS404"},
	})
	require.NoError(t, err)
	require.NotNil(t, rooms.createdLab)
	assert.Equal(t, []string{"CS403", "CS404"}, created.RestrictedSubjects())
}

func TestCatalogServiceImportSubjects(t *testing.T) {
	svc, subjects, _, _ := newCatalogFixture()

	csvBody := strings.Join([]string{
		"code,name,year,semester,theory_hours,lab_hours,faculty_name",
		"CS201,Data Structures,SE,3,3,2,A. Rao",
		"CS202,Discrete Mathematics,SE,3,3,0,B. Iyer",
	}, "\n")

	summary, err := svc.ImportSubjects(context.Background(), strings.NewReader(csvBody))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Imported)
	require.Len(t, subjects.created, 2)
	assert.Equal(t, "CS201", subjects.created[0].Code)
}

func TestCatalogServiceImportSubjectsBadRow(t *testing.T) {
	svc, subjects, _, _ := newCatalogFixture()

	csvBody := strings.Join([]string{
		"code,name,year,semester,theory_hours,lab_hours,faculty_name",
		"CS201,Data Structures,XX,3,3,2,A. Rao",
	}, "\n")

	_, err := svc.ImportSubjects(context.Background(), strings.NewReader(csvBody))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, subjects.created)
}

func TestCatalogServiceImportFaculty(t *testing.T) {
	svc, _, faculty, _ := newCatalogFixture()

	csvBody := strings.Join([]string{
		"name,email,phone,department,max_hours_per_day,preferred_bands",
		"A. Rao,a.rao@campus.edu,,Computer Engineering,5,Morning;Afternoon",
	}, "\n")

	summary, err := svc.ImportFaculty(context.Background(), strings.NewReader(csvBody))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)
	require.Len(t, faculty.created, 1)
	assert.Equal(t, []string{"Morning", "Afternoon"}, faculty.created[0].PreferredBandList())
}
