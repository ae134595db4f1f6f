package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgrid/timetable-api/internal/dto"
	"github.com/campusgrid/timetable-api/internal/models"
	"github.com/campusgrid/timetable-api/internal/service"
	appErrors "github.com/campusgrid/timetable-api/pkg/errors"
)

type timetableSchedulerMock struct {
	generateReq dto.GenerateTimetableRequest
	generateRes *dto.GenerateTimetableResponse
	generateErr error
	saveReq     dto.SaveTimetableRequest
	saveErr     error
	getQuery    dto.TimetableQuery
	exportRes   *service.ExportResult
	exportErr   error
	deleted     *dto.DeleteTimetableQuery
}

func (m *timetableSchedulerMock) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	m.generateReq = req
	if m.generateErr != nil {
		return nil, m.generateErr
	}
	if m.generateRes != nil {
		return m.generateRes, nil
	}
	return &dto.GenerateTimetableResponse{ProposalID: "proposal-1", Year: req.Year, Semester: req.Semester}, nil
}

func (m *timetableSchedulerMock) Save(ctx context.Context, req dto.SaveTimetableRequest) (*dto.SaveTimetableResponse, error) {
	m.saveReq = req
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	return &dto.SaveTimetableResponse{Year: "SE", Semester: 3, SlotCount: 12}, nil
}

func (m *timetableSchedulerMock) Get(ctx context.Context, query dto.TimetableQuery) (*dto.TimetableResponse, error) {
	m.getQuery = query
	return &dto.TimetableResponse{Slots: []models.ScheduledSlot{{Day: "Monday", Subject: "Data Structures"}}}, nil
}

func (m *timetableSchedulerMock) Export(ctx context.Context, query dto.ExportTimetableQuery) (*service.ExportResult, error) {
	if m.exportErr != nil {
		return nil, m.exportErr
	}
	if m.exportRes != nil {
		return m.exportRes, nil
	}
	return &service.ExportResult{FileName: "timetable_SE_sem3.csv", ContentType: "text/csv", Content: []byte("Day,Time\n")}, nil
}

func (m *timetableSchedulerMock) Delete(ctx context.Context, query dto.DeleteTimetableQuery) (*dto.DeleteTimetableResponse, error) {
	m.deleted = &query
	return &dto.DeleteTimetableResponse{Deleted: 4}, nil
}

func performRequest(t *testing.T, h *TimetableHandler, method, target string, body []byte, register func(*gin.Engine, *TimetableHandler)) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	register(router, h)

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestTimetableHandlerGenerate(t *testing.T) {
	mockSvc := &timetableSchedulerMock{}
	h := &TimetableHandler{service: mockSvc}

	payload := []byte(`{"year":"SE","semester":3,"useAdvisor":true}`)
	w := performRequest(t, h, http.MethodPost, "/timetable/generate", payload, func(r *gin.Engine, h *TimetableHandler) {
		r.POST("/timetable/generate", h.Generate)
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SE", mockSvc.generateReq.Year)
	assert.True(t, mockSvc.generateReq.UseAdvisor)
	assert.Contains(t, w.Body.String(), "proposal-1")
}

func TestTimetableHandlerGenerateMalformedJSON(t *testing.T) {
	h := &TimetableHandler{service: &timetableSchedulerMock{}}

	w := performRequest(t, h, http.MethodPost, "/timetable/generate", []byte(`{"year":`), func(r *gin.Engine, h *TimetableHandler) {
		r.POST("/timetable/generate", h.Generate)
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerSave(t *testing.T) {
	mockSvc := &timetableSchedulerMock{}
	h := &TimetableHandler{service: mockSvc}

	payload := []byte(`{"proposalId":"proposal-1"}`)
	w := performRequest(t, h, http.MethodPost, "/timetable/save", payload, func(r *gin.Engine, h *TimetableHandler) {
		r.POST("/timetable/save", h.Save)
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "proposal-1", mockSvc.saveReq.ProposalID)
}

func TestTimetableHandlerSaveExpiredProposal(t *testing.T) {
	mockSvc := &timetableSchedulerMock{saveErr: appErrors.ErrProposalExpired}
	h := &TimetableHandler{service: mockSvc}

	payload := []byte(`{"proposalId":"stale"}`)
	w := performRequest(t, h, http.MethodPost, "/timetable/save", payload, func(r *gin.Engine, h *TimetableHandler) {
		r.POST("/timetable/save", h.Save)
	})

	require.Equal(t, http.StatusGone, w.Code)

	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrProposalExpired.Code, envelope.Error.Code)
}

func TestTimetableHandlerGetBindsQuery(t *testing.T) {
	mockSvc := &timetableSchedulerMock{}
	h := &TimetableHandler{service: mockSvc}

	w := performRequest(t, h, http.MethodGet, "/timetable?year=TE&semester=5&faculty=A.+Rao", nil, func(r *gin.Engine, h *TimetableHandler) {
		r.GET("/timetable", h.Get)
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "TE", mockSvc.getQuery.Year)
	assert.Equal(t, 5, mockSvc.getQuery.Semester)
	assert.Equal(t, "A. Rao", mockSvc.getQuery.Faculty)
}

func TestTimetableHandlerExportSetsDisposition(t *testing.T) {
	h := &TimetableHandler{service: &timetableSchedulerMock{}}

	w := performRequest(t, h, http.MethodGet, "/timetable/export?year=SE&semester=3&format=csv", nil, func(r *gin.Engine, h *TimetableHandler) {
		r.GET("/timetable/export", h.Export)
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable_SE_sem3.csv")
}

func TestTimetableHandlerExportNotFound(t *testing.T) {
	h := &TimetableHandler{service: &timetableSchedulerMock{exportErr: appErrors.ErrNotFound}}

	w := performRequest(t, h, http.MethodGet, "/timetable/export?year=BE&semester=7&format=csv", nil, func(r *gin.Engine, h *TimetableHandler) {
		r.GET("/timetable/export", h.Export)
	})

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimetableHandlerDelete(t *testing.T) {
	mockSvc := &timetableSchedulerMock{}
	h := &TimetableHandler{service: mockSvc}

	w := performRequest(t, h, http.MethodDelete, "/timetable?year=SE&semester=3", nil, func(r *gin.Engine, h *TimetableHandler) {
		r.DELETE("/timetable", h.Delete)
	})

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.deleted)
	assert.Equal(t, "SE", mockSvc.deleted.Year)
	assert.Contains(t, w.Body.String(), `"deleted":4`)
}
