package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusgrid/timetable-api/internal/dto"
	"github.com/campusgrid/timetable-api/internal/models"
	"github.com/campusgrid/timetable-api/internal/service"
	appErrors "github.com/campusgrid/timetable-api/pkg/errors"
	"github.com/campusgrid/timetable-api/pkg/response"
)

type catalogManager interface {
	ListSubjects(ctx context.Context, query dto.SubjectListQuery) ([]models.Subject, *models.Pagination, error)
	GetSubject(ctx context.Context, id string) (*models.Subject, error)
	CreateSubject(ctx context.Context, req dto.CreateSubjectRequest) (*models.Subject, error)
	UpdateSubject(ctx context.Context, id string, req dto.UpdateSubjectRequest) (*models.Subject, error)
	DeleteSubject(ctx context.Context, id string) error
	ListFaculty(ctx context.Context, query dto.FacultyListQuery) ([]models.Faculty, *models.Pagination, error)
	CreateFaculty(ctx context.Context, req dto.CreateFacultyRequest) (*models.Faculty, error)
	DeleteFaculty(ctx context.Context, id string) error
	ListClassrooms(ctx context.Context, query dto.RoomListQuery) ([]models.Classroom, *models.Pagination, error)
	CreateClassroom(ctx context.Context, req dto.CreateClassroomRequest) (*models.Classroom, error)
	DeleteClassroom(ctx context.Context, id string) error
	ListLabs(ctx context.Context, query dto.RoomListQuery) ([]models.Lab, *models.Pagination, error)
	CreateLab(ctx context.Context, req dto.CreateLabRequest) (*models.Lab, error)
	DeleteLab(ctx context.Context, id string) error
	ImportSubjects(ctx context.Context, r io.Reader) (*service.ImportSummary, error)
	ImportFaculty(ctx context.Context, r io.Reader) (*service.ImportSummary, error)
}

// CatalogHandler exposes catalog CRUD endpoints.
type CatalogHandler struct {
	service catalogManager
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// ListSubjects godoc
// @Summary List catalog subjects
// @Tags Catalog
// @Produce json
// @Param year query string false "Cohort year (SE/TE/BE)"
// @Param semester query int false "Semester number"
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *CatalogHandler) ListSubjects(c *gin.Context) {
	var query dto.SubjectListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid subject query"))
		return
	}
	subjects, pagination, err := h.service.ListSubjects(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, pagination)
}

// GetSubject godoc
// @Summary Get one subject
// @Tags Catalog
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id} [get]
func (h *CatalogHandler) GetSubject(c *gin.Context) {
	subject, err := h.service.GetSubject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// CreateSubject godoc
// @Summary Create a subject
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateSubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Router /subjects [post]
func (h *CatalogHandler) CreateSubject(c *gin.Context) {
	var req dto.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid subject payload"))
		return
	}
	subject, err := h.service.CreateSubject(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// UpdateSubject godoc
// @Summary Update a subject
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body dto.UpdateSubjectRequest true "Subject payload"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id} [put]
func (h *CatalogHandler) UpdateSubject(c *gin.Context) {
	var req dto.UpdateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid subject payload"))
		return
	}
	subject, err := h.service.UpdateSubject(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// DeleteSubject godoc
// @Summary Delete a subject
// @Tags Catalog
// @Param id path string true "Subject ID"
// @Success 204
// @Router /subjects/{id} [delete]
func (h *CatalogHandler) DeleteSubject(c *gin.Context) {
	if err := h.service.DeleteSubject(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ImportSubjects godoc
// @Summary Bulk import subjects from CSV
// @Tags Catalog
// @Accept mpfd
// @Produce json
// @Param file formData file true "Subjects CSV"
// @Success 201 {object} response.Envelope
// @Router /subjects/import [post]
func (h *CatalogHandler) ImportSubjects(c *gin.Context) {
	h.handleImport(c, h.service.ImportSubjects)
}

// ListFaculty godoc
// @Summary List instructors
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /faculty [get]
func (h *CatalogHandler) ListFaculty(c *gin.Context) {
	var query dto.FacultyListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid faculty query"))
		return
	}
	faculty, pagination, err := h.service.ListFaculty(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faculty, pagination)
}

// CreateFaculty godoc
// @Summary Create an instructor
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateFacultyRequest true "Faculty payload"
// @Success 201 {object} response.Envelope
// @Router /faculty [post]
func (h *CatalogHandler) CreateFaculty(c *gin.Context) {
	var req dto.CreateFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid faculty payload"))
		return
	}
	faculty, err := h.service.CreateFaculty(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, faculty)
}

// DeleteFaculty godoc
// @Summary Delete an instructor
// @Tags Catalog
// @Param id path string true "Faculty ID"
// @Success 204
// @Router /faculty/{id} [delete]
func (h *CatalogHandler) DeleteFaculty(c *gin.Context) {
	if err := h.service.DeleteFaculty(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ImportFaculty godoc
// @Summary Bulk import instructors from CSV
// @Tags Catalog
// @Accept mpfd
// @Produce json
// @Param file formData file true "Faculty CSV"
// @Success 201 {object} response.Envelope
// @Router /faculty/import [post]
func (h *CatalogHandler) ImportFaculty(c *gin.Context) {
	h.handleImport(c, h.service.ImportFaculty)
}

// ListClassrooms godoc
// @Summary List classrooms
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classrooms [get]
func (h *CatalogHandler) ListClassrooms(c *gin.Context) {
	var query dto.RoomListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid room query"))
		return
	}
	classrooms, pagination, err := h.service.ListClassrooms(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classrooms, pagination)
}

// CreateClassroom godoc
// @Summary Create a classroom
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateClassroomRequest true "Classroom payload"
// @Success 201 {object} response.Envelope
// @Router /classrooms [post]
func (h *CatalogHandler) CreateClassroom(c *gin.Context) {
	var req dto.CreateClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid classroom payload"))
		return
	}
	classroom, err := h.service.CreateClassroom(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, classroom)
}

// DeleteClassroom godoc
// @Summary Delete a classroom
// @Tags Catalog
// @Param id path string true "Classroom ID"
// @Success 204
// @Router /classrooms/{id} [delete]
func (h *CatalogHandler) DeleteClassroom(c *gin.Context) {
	if err := h.service.DeleteClassroom(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListLabs godoc
// @Summary List laboratories
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /labs [get]
func (h *CatalogHandler) ListLabs(c *gin.Context) {
	var query dto.RoomListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid room query"))
		return
	}
	labs, pagination, err := h.service.ListLabs(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, labs, pagination)
}

// CreateLab godoc
// @Summary Create a laboratory
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateLabRequest true "Lab payload"
// @Success 201 {object} response.Envelope
// @Router /labs [post]
func (h *CatalogHandler) CreateLab(c *gin.Context) {
	var req dto.CreateLabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lab payload"))
		return
	}
	lab, err := h.service.CreateLab(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lab)
}

// DeleteLab godoc
// @Summary Delete a laboratory
// @Tags Catalog
// @Param id path string true "Lab ID"
// @Success 204
// @Router /labs/{id} [delete]
func (h *CatalogHandler) DeleteLab(c *gin.Context) {
	if err := h.service.DeleteLab(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *CatalogHandler) handleImport(c *gin.Context, load func(context.Context, io.Reader) (*service.ImportSummary, error)) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "csv file is required"))
		return
	}
	defer file.Close()

	summary, err := load(c.Request.Context(), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, summary)
}
