package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgrid/timetable-api/internal/dto"
	"github.com/campusgrid/timetable-api/internal/models"
	appErrors "github.com/campusgrid/timetable-api/pkg/errors"
)

type mockSubjectScope struct {
	subjects []models.Subject
	err      error
}

func (m *mockSubjectScope) ListForScope(ctx context.Context, year string, semester int) ([]models.Subject, error) {
	if m.err != nil {
		return nil, m.err
	}
	var scoped []models.Subject
	for _, subject := range m.subjects {
		if subject.Year == year && subject.Semester == semester {
			scoped = append(scoped, subject)
		}
	}
	return scoped, nil
}

type mockFacultyRoster struct {
	faculty []models.Faculty
	err     error
}

func (m *mockFacultyRoster) ListAll(ctx context.Context) ([]models.Faculty, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.faculty, nil
}

type mockRoomCatalog struct {
	classrooms []models.Classroom
	labs       []models.Lab
}

func (m *mockRoomCatalog) ListAllClassrooms(ctx context.Context) ([]models.Classroom, error) {
	return m.classrooms, nil
}

func (m *mockRoomCatalog) ListAllLabs(ctx context.Context) ([]models.Lab, error) {
	return m.labs, nil
}

type mockSlotStore struct {
	stored   map[string][]models.ScheduledSlot
	replaced int
	listErr  error
}

func scopeKey(year string, semester int) string {
	return year + "-" + string(rune('0'+semester))
}

func (m *mockSlotStore) List(ctx context.Context, filter models.SlotFilter) ([]models.ScheduledSlot, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.stored[scopeKey(filter.Year, filter.Semester)], nil
}

func (m *mockSlotStore) Replace(ctx context.Context, year string, semester int, slots []models.ScheduledSlot) error {
	if m.stored == nil {
		m.stored = make(map[string][]models.ScheduledSlot)
	}
	m.stored[scopeKey(year, semester)] = slots
	m.replaced++
	return nil
}

func (m *mockSlotStore) DeleteScope(ctx context.Context, year string, semester int) (int64, error) {
	slots := m.stored[scopeKey(year, semester)]
	delete(m.stored, scopeKey(year, semester))
	return int64(len(slots)), nil
}

func newTimetableServiceFixture() (*TimetableService, *mockSlotStore) {
	subjects := &mockSubjectScope{subjects: []models.Subject{
		{Code: "CS201", Name: "Data Structures", Year: "SE", Semester: 3, TheoryHours: 3, FacultyName: "A. Rao"},
		{Code: "CS202", Name: "Digital Logic", Year: "SE", Semester: 3, TheoryHours: 2, FacultyName: "B. Iyer"},
	}}
	faculty := &mockFacultyRoster{faculty: []models.Faculty{
		{Name: "A. Rao", MaxHoursPerDay: 6},
		{Name: "B. Iyer", MaxHoursPerDay: 6},
	}}
	rooms := &mockRoomCatalog{classrooms: []models.Classroom{
		{Name: "SE-201", Year: "SE", TimeBand: "Morning", Capacity: 70},
	}}
	slots := &mockSlotStore{stored: make(map[string][]models.ScheduledSlot)}

	svc := NewTimetableService(subjects, faculty, rooms, slots, nil, nil, nil, nil, nil, nil, TimetableConfig{
		ProposalTTL: time.Minute,
	})
	return svc, slots
}

func TestTimetableServiceGenerateProducesProposal(t *testing.T) {
	svc, _ := newTimetableServiceFixture()

	resp, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{Year: "SE", Semester: 3})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ProposalID)
	assert.Equal(t, "SE", resp.Year)
	assert.Len(t, resp.Slots, 5)
	assert.False(t, resp.AdvisorUsed)
	assert.NotEmpty(t, resp.Stats.ConsistencyHash)
}

func TestTimetableServiceGenerateEmptyCatalog(t *testing.T) {
	svc, _ := newTimetableServiceFixture()

	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{Year: "TE", Semester: 5})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrEmptyCatalog.Code, appErr.Code)
}

func TestTimetableServiceGenerateRejectsInvalidRequest(t *testing.T) {
	svc, _ := newTimetableServiceFixture()

	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{Year: "XX", Semester: 3})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestTimetableServiceSavePersistsProposal(t *testing.T) {
	svc, store := newTimetableServiceFixture()

	generated, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{Year: "SE", Semester: 3})
	require.NoError(t, err)
	require.NotEmpty(t, generated.ProposalID)

	saved, err := svc.Save(context.Background(), dto.SaveTimetableRequest{ProposalID: generated.ProposalID})
	require.NoError(t, err)
	assert.Equal(t, "SE", saved.Year)
	assert.Equal(t, len(generated.Slots), saved.SlotCount)
	assert.Equal(t, 1, store.replaced)

	// The proposal is one-shot: a second save must miss.
	_, err = svc.Save(context.Background(), dto.SaveTimetableRequest{ProposalID: generated.ProposalID})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrProposalExpired.Code, appErr.Code)
}

func TestTimetableServiceSaveUnknownProposal(t *testing.T) {
	svc, _ := newTimetableServiceFixture()

	_, err := svc.Save(context.Background(), dto.SaveTimetableRequest{ProposalID: "nope"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrProposalExpired.Code, appErr.Code)
}

func TestTimetableServiceGetIncludesValidationSummary(t *testing.T) {
	svc, store := newTimetableServiceFixture()
	store.stored[scopeKey("SE", 3)] = []models.ScheduledSlot{
		{Day: "Monday", TimeRange: "8:10-9:00", Subject: "Data Structures", Faculty: "A. Rao", Room: "SE-201", Kind: models.SlotTheory, Year: "SE", Duration: 1, Semester: 3},
	}

	resp, err := svc.Get(context.Background(), dto.TimetableQuery{Year: "SE", Semester: 3})
	require.NoError(t, err)
	require.Len(t, resp.Slots, 1)
	require.NotNil(t, resp.Stats)
	assert.Equal(t, 1, resp.Stats.TotalSlots)
	assert.Equal(t, 1, resp.Stats.TheorySlots)
	assert.NotEmpty(t, resp.Stats.ConsistencyHash)
}

func TestTimetableServiceGetFilteredSkipsSummary(t *testing.T) {
	svc, store := newTimetableServiceFixture()
	store.stored[scopeKey("SE", 3)] = []models.ScheduledSlot{
		{Day: "Monday", TimeRange: "8:10-9:00", Subject: "Data Structures", Faculty: "A. Rao", Room: "SE-201", Kind: models.SlotTheory, Year: "SE", Duration: 1, Semester: 3},
	}

	resp, err := svc.Get(context.Background(), dto.TimetableQuery{Year: "SE", Semester: 3, Faculty: "A. Rao"})
	require.NoError(t, err)
	assert.Nil(t, resp.Stats)
}

func TestTimetableServiceExportCSV(t *testing.T) {
	svc, store := newTimetableServiceFixture()
	store.stored[scopeKey("SE", 3)] = []models.ScheduledSlot{
		{Day: "Monday", TimeRange: "8:10-9:00", Subject: "Data Structures", Faculty: "A. Rao", Room: "SE-201", Kind: models.SlotTheory, Year: "SE", Duration: 1, Semester: 3},
	}

	result, err := svc.Export(context.Background(), dto.ExportTimetableQuery{Year: "SE", Semester: 3, Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, "timetable_SE_sem3.csv", result.FileName)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Contains(t, string(result.Content), "Data Structures")
}

func TestTimetableServiceExportPDF(t *testing.T) {
	svc, store := newTimetableServiceFixture()
	store.stored[scopeKey("SE", 3)] = []models.ScheduledSlot{
		{Day: "Monday", TimeRange: "8:10-9:00", Subject: "Data Structures", Faculty: "A. Rao", Room: "SE-201", Kind: models.SlotTheory, Year: "SE", Duration: 1, Semester: 3},
	}

	result, err := svc.Export(context.Background(), dto.ExportTimetableQuery{Year: "SE", Semester: 3, Format: "pdf"})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, len(result.Content) > 0)
}

func TestTimetableServiceExportEmptyScope(t *testing.T) {
	svc, _ := newTimetableServiceFixture()

	_, err := svc.Export(context.Background(), dto.ExportTimetableQuery{Year: "BE", Semester: 7, Format: "csv"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestTimetableServiceExportRejectsUnknownFormat(t *testing.T) {
	svc, _ := newTimetableServiceFixture()

	_, err := svc.Export(context.Background(), dto.ExportTimetableQuery{Year: "SE", Semester: 3, Format: "xlsx"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestTimetableServiceDelete(t *testing.T) {
	svc, store := newTimetableServiceFixture()
	store.stored[scopeKey("SE", 3)] = []models.ScheduledSlot{
		{Day: "Monday", TimeRange: "8:10-9:00", Subject: "Data Structures", Faculty: "A. Rao", Room: "SE-201", Kind: models.SlotTheory, Year: "SE", Duration: 1, Semester: 3},
	}

	resp, err := svc.Delete(context.Background(), dto.DeleteTimetableQuery{Year: "SE", Semester: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Deleted)
	assert.Empty(t, store.stored[scopeKey("SE", 3)])
}

type stubAnalyzer struct {
	report *models.AdvisoryReport
	err    error
	calls  int
}

func (s *stubAnalyzer) Analyze(ctx context.Context, req models.AdvisoryRequest) (*models.AdvisoryReport, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func TestTimetableServiceGenerateWithAdvisor(t *testing.T) {
	subjects := &mockSubjectScope{subjects: []models.Subject{
		{Code: "CS201", Name: "Data Structures", Year: "SE", Semester: 3, TheoryHours: 3, FacultyName: "A. Rao"},
	}}
	faculty := &mockFacultyRoster{faculty: []models.Faculty{{Name: "A. Rao", MaxHoursPerDay: 6}}}
	rooms := &mockRoomCatalog{classrooms: []models.Classroom{{Name: "SE-201", Year: "SE", TimeBand: "Morning", Capacity: 70}}}
	slots := &mockSlotStore{stored: make(map[string][]models.ScheduledSlot)}
	analyzer := &stubAnalyzer{report: &models.AdvisoryReport{IsValid: true, Recommended: []models.Recommendation{
		{Subject: "Data Structures", Faculty: "A. Rao", Day: "Wednesday", TimeRange: "9:00-9:50", Kind: models.SlotTheory, Confidence: 90},
	}}}

	svc := NewTimetableService(subjects, faculty, rooms, slots, nil, nil, analyzer, nil, nil, nil, TimetableConfig{ProposalTTL: time.Minute})

	resp, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{Year: "SE", Semester: 3, UseAdvisor: true})
	require.NoError(t, err)
	assert.Equal(t, 1, analyzer.calls)
	assert.True(t, resp.AdvisorUsed)
	assert.Len(t, resp.Slots, 3)

	// Advisor disabled per request: no call is made.
	analyzer.calls = 0
	resp, err = svc.Generate(context.Background(), dto.GenerateTimetableRequest{Year: "SE", Semester: 3})
	require.NoError(t, err)
	assert.Zero(t, analyzer.calls)
	assert.False(t, resp.AdvisorUsed)
}

func TestTimetableServiceGenerateAdvisorFailureFallsBack(t *testing.T) {
	subjects := &mockSubjectScope{subjects: []models.Subject{
		{Code: "CS201", Name: "Data Structures", Year: "SE", Semester: 3, TheoryHours: 3, FacultyName: "A. Rao"},
	}}
	faculty := &mockFacultyRoster{faculty: []models.Faculty{{Name: "A. Rao", MaxHoursPerDay: 6}}}
	rooms := &mockRoomCatalog{classrooms: []models.Classroom{{Name: "SE-201", Year: "SE", TimeBand: "Morning", Capacity: 70}}}
	slots := &mockSlotStore{stored: make(map[string][]models.ScheduledSlot)}
	analyzer := &stubAnalyzer{err: assert.AnError}

	svc := NewTimetableService(subjects, faculty, rooms, slots, nil, nil, analyzer, nil, nil, nil, TimetableConfig{ProposalTTL: time.Minute})

	resp, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{Year: "SE", Semester: 3, UseAdvisor: true})
	require.NoError(t, err)
	assert.False(t, resp.AdvisorUsed)
	assert.Len(t, resp.Slots, 3)
}

type stubResponseCache struct {
	entries     map[string][]byte
	gets        int
	hits        int
	sets        int
	invalidated []string
}

func newStubResponseCache() *stubResponseCache {
	return &stubResponseCache{entries: make(map[string][]byte)}
}

func (c *stubResponseCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.gets++
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	c.hits++
	return json.Unmarshal(raw, dest)
}

func (c *stubResponseCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.sets++
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *stubResponseCache) DeleteByPattern(ctx context.Context, pattern string) error {
	c.invalidated = append(c.invalidated, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

func TestTimetableServiceGetUsesCache(t *testing.T) {
	subjects := &mockSubjectScope{}
	faculty := &mockFacultyRoster{}
	rooms := &mockRoomCatalog{}
	slots := &mockSlotStore{stored: map[string][]models.ScheduledSlot{
		scopeKey("SE", 3): {{Day: "Monday", TimeRange: "9:00-9:50", Subject: "Data Structures", Faculty: "A. Rao", Room: "SE-201", Year: "SE", Semester: 3, Kind: models.SlotTheory}},
	}}
	cache := newStubResponseCache()

	svc := NewTimetableService(subjects, faculty, rooms, slots, cache, nil, nil, nil, nil, nil, TimetableConfig{ProposalTTL: time.Minute})

	first, err := svc.Get(context.Background(), dto.TimetableQuery{Year: "SE", Semester: 3})
	require.NoError(t, err)
	require.Len(t, first.Slots, 1)
	assert.Equal(t, 1, cache.sets)
	assert.Zero(t, cache.hits)

	second, err := svc.Get(context.Background(), dto.TimetableQuery{Year: "SE", Semester: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, first.Slots, second.Slots)
	require.NotNil(t, second.Stats)

	// Deleting the scope drops the cached payload.
	_, err = svc.Delete(context.Background(), dto.DeleteTimetableQuery{Year: "SE", Semester: 3})
	require.NoError(t, err)
	require.Len(t, cache.invalidated, 1)
	assert.Equal(t, "timetable:SE:3*", cache.invalidated[0])
}

func TestTimetableServiceGetFilteredSkipsCache(t *testing.T) {
	subjects := &mockSubjectScope{}
	faculty := &mockFacultyRoster{}
	rooms := &mockRoomCatalog{}
	slots := &mockSlotStore{stored: map[string][]models.ScheduledSlot{
		scopeKey("SE", 3): {{Day: "Monday", TimeRange: "9:00-9:50", Subject: "Data Structures", Faculty: "A. Rao", Room: "SE-201", Year: "SE", Semester: 3, Kind: models.SlotTheory}},
	}}
	cache := newStubResponseCache()

	svc := NewTimetableService(subjects, faculty, rooms, slots, cache, nil, nil, nil, nil, nil, TimetableConfig{ProposalTTL: time.Minute})

	_, err := svc.Get(context.Background(), dto.TimetableQuery{Year: "SE", Semester: 3, Faculty: "A. Rao"})
	require.NoError(t, err)
	assert.Zero(t, cache.gets)
	assert.Zero(t, cache.sets)
}
