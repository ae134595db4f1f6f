package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/campusgrid/timetable-api/internal/csvio"
	"github.com/campusgrid/timetable-api/internal/dto"
	"github.com/campusgrid/timetable-api/internal/models"
	appErrors "github.com/campusgrid/timetable-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

type facultyRepository interface {
	List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error)
	ExistsByName(ctx context.Context, name string, excludeID string) (bool, error)
	Create(ctx context.Context, faculty *models.Faculty) error
	Delete(ctx context.Context, id string) error
}

type roomRepository interface {
	ListClassrooms(ctx context.Context, filter models.RoomFilter) ([]models.Classroom, int, error)
	CreateClassroom(ctx context.Context, classroom *models.Classroom) error
	DeleteClassroom(ctx context.Context, id string) error
	ListLabs(ctx context.Context, filter models.RoomFilter) ([]models.Lab, int, error)
	CreateLab(ctx context.Context, lab *models.Lab) error
	DeleteLab(ctx context.Context, id string) error
}

// CatalogService manages the teaching catalog the scheduler draws from.
type CatalogService struct {
	subjects  subjectRepository
	faculty   facultyRepository
	rooms     roomRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(subjects subjectRepository, faculty facultyRepository, rooms roomRepository, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{subjects: subjects, faculty: faculty, rooms: rooms, validator: validate, logger: logger}
}

// ListSubjects returns paginated subjects.
func (s *CatalogService) ListSubjects(ctx context.Context, query dto.SubjectListQuery) ([]models.Subject, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject query")
	}

	filter := models.SubjectFilter{
		Year:      query.Year,
		Semester:  query.Semester,
		Faculty:   query.Faculty,
		Search:    query.Search,
		Page:      query.Page,
		PageSize:  query.PageSize,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	}
	subjects, total, err := s.subjects.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetSubject returns subject by identifier.
func (s *CatalogService) GetSubject(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.subjects.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// CreateSubject adds a new subject ensuring code uniqueness.
func (s *CatalogService) CreateSubject(ctx context.Context, req dto.CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if req.TheoryHours == 0 && req.LabHours == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject needs theory or lab hours")
	}

	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))

	exists, err := s.subjects.ExistsByCode(ctx, req.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject code already exists")
	}

	subject := &models.Subject{
		Code:        req.Code,
		Name:        strings.TrimSpace(req.Name),
		Year:        req.Year,
		Semester:    req.Semester,
		TheoryHours: req.TheoryHours,
		LabHours:    req.LabHours,
		FacultyName: strings.TrimSpace(req.FacultyName),
	}

	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return subject, nil
}

// UpdateSubject modifies an existing subject. Nil request fields are kept.
func (s *CatalogService) UpdateSubject(ctx context.Context, id string, req dto.UpdateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	subject, err := s.GetSubject(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Code != nil {
		code := strings.ToUpper(strings.TrimSpace(*req.Code))
		exists, err := s.subjects.ExistsByCode(ctx, code, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject code")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "subject code already exists")
		}
		subject.Code = code
	}
	if req.Name != nil {
		subject.Name = strings.TrimSpace(*req.Name)
	}
	if req.Year != nil {
		subject.Year = *req.Year
	}
	if req.Semester != nil {
		subject.Semester = *req.Semester
	}
	if req.TheoryHours != nil {
		subject.TheoryHours = *req.TheoryHours
	}
	if req.LabHours != nil {
		subject.LabHours = *req.LabHours
	}
	if req.FacultyName != nil {
		subject.FacultyName = strings.TrimSpace(*req.FacultyName)
	}

	if err := s.subjects.Update(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	return subject, nil
}

// DeleteSubject removes a subject.
func (s *CatalogService) DeleteSubject(ctx context.Context, id string) error {
	if _, err := s.GetSubject(ctx, id); err != nil {
		return err
	}
	if err := s.subjects.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	return nil
}

// ListFaculty returns paginated instructors.
func (s *CatalogService) ListFaculty(ctx context.Context, query dto.FacultyListQuery) ([]models.Faculty, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty query")
	}

	filter := models.FacultyFilter{
		Department: query.Department,
		Search:     query.Search,
		Page:       query.Page,
		PageSize:   query.PageSize,
		SortBy:     query.SortBy,
		SortOrder:  query.SortOrder,
	}
	faculty, total, err := s.faculty.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty")
	}
	return faculty, paginationFor(filter.Page, filter.PageSize, total), nil
}

// CreateFaculty adds a new instructor ensuring the name join key is unique.
func (s *CatalogService) CreateFaculty(ctx context.Context, req dto.CreateFacultyRequest) (*models.Faculty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty payload")
	}

	name := strings.TrimSpace(req.Name)
	exists, err := s.faculty.ExistsByName(ctx, name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check faculty name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "instructor name already exists")
	}

	member := &models.Faculty{
		Name:           name,
		Email:          strings.TrimSpace(req.Email),
		Phone:          req.Phone,
		Department:     strings.TrimSpace(req.Department),
		MaxHoursPerDay: req.MaxHoursPerDay,
	}
	if len(req.PreferredBands) > 0 {
		payload, err := json.Marshal(req.PreferredBands)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode preferred bands")
		}
		member.PreferredBands = types.JSONText(payload)
	}

	if err := s.faculty.Create(ctx, member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create faculty")
	}
	return member, nil
}

// DeleteFaculty removes an instructor.
func (s *CatalogService) DeleteFaculty(ctx context.Context, id string) error {
	if err := s.faculty.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete faculty")
	}
	return nil
}

// ListClassrooms returns paginated classrooms.
func (s *CatalogService) ListClassrooms(ctx context.Context, query dto.RoomListQuery) ([]models.Classroom, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room query")
	}
	filter := models.RoomFilter{Year: query.Year, Search: query.Search, Page: query.Page, PageSize: query.PageSize}
	classrooms, total, err := s.rooms.ListClassrooms(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classrooms")
	}
	return classrooms, paginationFor(filter.Page, filter.PageSize, total), nil
}

// CreateClassroom adds the dedicated theory room of one cohort-year.
func (s *CatalogService) CreateClassroom(ctx context.Context, req dto.CreateClassroomRequest) (*models.Classroom, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid classroom payload")
	}
	classroom := &models.Classroom{
		Name:     strings.TrimSpace(req.Name),
		Capacity: req.Capacity,
		TimeBand: req.TimeBand,
		Year:     req.Year,
		Floor:    req.Floor,
	}
	if err := s.rooms.CreateClassroom(ctx, classroom); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create classroom")
	}
	return classroom, nil
}

// DeleteClassroom removes a classroom.
func (s *CatalogService) DeleteClassroom(ctx context.Context, id string) error {
	if err := s.rooms.DeleteClassroom(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete classroom")
	}
	return nil
}

// ListLabs returns paginated labs.
func (s *CatalogService) ListLabs(ctx context.Context, query dto.RoomListQuery) ([]models.Lab, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room query")
	}
	filter := models.RoomFilter{Search: query.Search, Page: query.Page, PageSize: query.PageSize}
	labs, total, err := s.rooms.ListLabs(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list labs")
	}
	return labs, paginationFor(filter.Page, filter.PageSize, total), nil
}

// CreateLab adds a laboratory.
func (s *CatalogService) CreateLab(ctx context.Context, req dto.CreateLabRequest) (*models.Lab, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lab payload")
	}
	lab := &models.Lab{
		Name:     strings.TrimSpace(req.Name),
		Capacity: req.Capacity,
		LabType:  strings.TrimSpace(req.LabType),
	}
	if len(req.SubjectCodes) > 0 {
		payload, err := json.Marshal(req.SubjectCodes)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode subject codes")
		}
		lab.SubjectCodes = types.JSONText(payload)
	}
	if len(req.HourRanges) > 0 {
		payload, err := json.Marshal(req.HourRanges)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode hour ranges")
		}
		lab.HourRanges = types.JSONText(payload)
	}
	if err := s.rooms.CreateLab(ctx, lab); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lab")
	}
	return lab, nil
}

// DeleteLab removes a laboratory.
func (s *CatalogService) DeleteLab(ctx context.Context, id string) error {
	if err := s.rooms.DeleteLab(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lab")
	}
	return nil
}

// ImportSummary reports the outcome of a bulk CSV load.
type ImportSummary struct {
	Imported int `json:"imported"`
}

// ImportSubjects bulk-loads subjects from a CSV stream.
func (s *CatalogService) ImportSubjects(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	subjects, err := csvio.LoadSubjects(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subjects csv")
	}
	for i := range subjects {
		if err := s.subjects.Create(ctx, &subjects[i]); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import subjects")
		}
	}
	s.logger.Info("subjects imported", zap.Int("count", len(subjects)))
	return &ImportSummary{Imported: len(subjects)}, nil
}

// ImportFaculty bulk-loads instructors from a CSV stream.
func (s *CatalogService) ImportFaculty(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	faculty, err := csvio.LoadFaculty(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty csv")
	}
	for i := range faculty {
		if err := s.faculty.Create(ctx, &faculty[i]); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import faculty")
		}
	}
	s.logger.Info("faculty imported", zap.Int("count", len(faculty)))
	return &ImportSummary{Imported: len(faculty)}, nil
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
