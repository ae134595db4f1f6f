package advisor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgrid/timetable-api/internal/models"
)

func advisoryRequest() models.AdvisoryRequest {
	return models.AdvisoryRequest{
		Subjects: []models.Subject{{Code: "CS301", Name: "Operating Systems", Year: "TE", Semester: 5, TheoryHours: 4, FacultyName: "A. Rao"}},
		Faculty:  []models.Faculty{{Name: "A. Rao", MaxHoursPerDay: 6}},
		Year:     "TE",
		Semester: 5,
	}
}

func TestClientAnalyzeDecodesReport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/analyze", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req models.AdvisoryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "TE", req.Year)

		json.NewEncoder(w).Encode(models.AdvisoryReport{
			IsValid:         true,
			ConstraintScore: 91,
			Recommended: []models.Recommendation{
				{Subject: "Operating Systems", Faculty: "A. Rao", Day: "Monday", TimeRange: "8:10-9:00", Kind: models.SlotTheory, Confidence: 95},
			},
		})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, nil)

	report, err := client.Analyze(context.Background(), advisoryRequest())
	require.NoError(t, err)
	assert.True(t, report.IsValid)
	assert.Equal(t, 91.0, report.ConstraintScore)
	require.Len(t, report.Recommended, 1)
	assert.Equal(t, 95.0, report.Recommended[0].Confidence)
}

func TestClientAnalyzeMemoizesIdenticalRequests(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(models.AdvisoryReport{IsValid: true})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, nil)

	_, err := client.Analyze(context.Background(), advisoryRequest())
	require.NoError(t, err)
	_, err = client.Analyze(context.Background(), advisoryRequest())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	client.InvalidateCache()
	_, err = client.Analyze(context.Background(), advisoryRequest())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientAnalyzeDistinctRequestsMiss(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(models.AdvisoryReport{IsValid: true})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, nil)

	first := advisoryRequest()
	second := advisoryRequest()
	second.Semester = 6

	_, err := client.Analyze(context.Background(), first)
	require.NoError(t, err)
	_, err = client.Analyze(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientAnalyzeErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, nil)

	_, err := client.Analyze(context.Background(), advisoryRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestClientAnalyzeRequiresBaseURL(t *testing.T) {
	client := NewClient(Config{}, nil)
	_, err := client.Analyze(context.Background(), advisoryRequest())
	require.Error(t, err)
}

func TestClientAnalyzeRespectsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(models.AdvisoryReport{})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Analyze(ctx, advisoryRequest())
	require.Error(t, err)
}
