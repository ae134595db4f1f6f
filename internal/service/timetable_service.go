package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusgrid/timetable-api/internal/dto"
	"github.com/campusgrid/timetable-api/internal/models"
	"github.com/campusgrid/timetable-api/internal/timetable"
	appErrors "github.com/campusgrid/timetable-api/pkg/errors"
	"github.com/campusgrid/timetable-api/pkg/export"
)

type subjectScopeReader interface {
	ListForScope(ctx context.Context, year string, semester int) ([]models.Subject, error)
}

type facultyRosterReader interface {
	ListAll(ctx context.Context) ([]models.Faculty, error)
}

type roomCatalogReader interface {
	ListAllClassrooms(ctx context.Context) ([]models.Classroom, error)
	ListAllLabs(ctx context.Context) ([]models.Lab, error)
}

type slotStore interface {
	List(ctx context.Context, filter models.SlotFilter) ([]models.ScheduledSlot, error)
	Replace(ctx context.Context, year string, semester int, slots []models.ScheduledSlot) error
	DeleteScope(ctx context.Context, year string, semester int) (int64, error)
}

type responseCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type exportArchive interface {
	Archive(fileName string, content []byte)
}

// TimetableService orchestrates generation, persistence and export of
// weekly timetables.
type TimetableService struct {
	subjects  subjectScopeReader
	faculty   facultyRosterReader
	rooms     roomCatalogReader
	slots     slotStore
	cache     responseCache
	archive   exportArchive
	advisor   timetable.Advisor
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	engineCfg timetable.Config
	store     *timetableProposalStore
	cacheTTL  time.Duration
}

// TimetableConfig governs service behaviour.
type TimetableConfig struct {
	ProposalTTL         time.Duration
	OptimizerIterations int
	MinConfidence       int
	CacheTTL            time.Duration
}

// NewTimetableService wires scheduler dependencies. advisor and cache may be
// nil, disabling collaborative construction and read-through caching.
func NewTimetableService(
	subjects subjectScopeReader,
	faculty facultyRosterReader,
	rooms roomCatalogReader,
	slots slotStore,
	cache responseCache,
	archive exportArchive,
	advisor timetable.Advisor,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &TimetableService{
		subjects:  subjects,
		faculty:   faculty,
		rooms:     rooms,
		slots:     slots,
		cache:     cache,
		archive:   archive,
		advisor:   advisor,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		engineCfg: timetable.Config{
			OptimizerIterations: cfg.OptimizerIterations,
			ConfidenceThreshold: float64(cfg.MinConfidence),
		},
		store:    newTimetableProposalStore(cfg.ProposalTTL),
		cacheTTL: cfg.CacheTTL,
	}
}

// Generate builds a timetable proposal for one cohort-year and semester.
// The proposal is held in memory until saved or expired.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation request")
	}

	in, err := s.loadInput(ctx, req)
	if err != nil {
		return nil, err
	}

	advisor := s.advisor
	if !req.UseAdvisor {
		advisor = nil
	}
	engine := timetable.NewEngine(advisor, s.logger, s.engineCfg)

	start := time.Now()
	result := engine.Generate(ctx, in)
	duration := time.Since(start)

	advisorUsed := result.AdvisorApplied
	if advisor != nil && !advisorUsed && s.metrics != nil {
		s.metrics.RecordAdvisorFallback()
	}
	s.observeGeneration(req.Year, advisorUsed, result, duration)

	resp := &dto.GenerateTimetableResponse{
		Year:        req.Year,
		Semester:    req.Semester,
		Slots:       result.Slots,
		Conflicts:   result.Conflicts,
		Suggestions: result.Suggestions,
		Stats:       result.Stats,
		AdvisorUsed: advisorUsed,
	}

	if len(result.Slots) > 0 {
		proposal := timetableProposal{
			ID:          uuid.NewString(),
			Year:        req.Year,
			Semester:    req.Semester,
			Slots:       result.Slots,
			RequestedAt: time.Now().UTC(),
		}
		s.store.Save(proposal)
		resp.ProposalID = proposal.ID
	}

	s.logger.Info("timetable generated",
		zap.String("year", req.Year),
		zap.Int("semester", req.Semester),
		zap.Int("slots", len(result.Slots)),
		zap.Int("conflicts", len(result.Conflicts)),
		zap.Bool("advisor", advisorUsed),
		zap.Duration("duration", duration))

	return resp, nil
}

// Save persists a previously generated proposal, replacing the stored week
// for its scope.
func (s *TimetableService) Save(ctx context.Context, req dto.SaveTimetableRequest) (*dto.SaveTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save request")
	}

	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return nil, appErrors.ErrProposalExpired
	}

	if err := s.slots.Replace(ctx, proposal.Year, proposal.Semester, proposal.Slots); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "persist timetable")
	}
	s.store.Delete(req.ProposalID)
	s.invalidateCache(ctx, proposal.Year, proposal.Semester)

	s.logger.Info("timetable saved",
		zap.String("year", proposal.Year),
		zap.Int("semester", proposal.Semester),
		zap.Int("slots", len(proposal.Slots)))

	return &dto.SaveTimetableResponse{
		Year:      proposal.Year,
		Semester:  proposal.Semester,
		SlotCount: len(proposal.Slots),
	}, nil
}

// Get returns stored slots matching the query. When the query names a full
// scope the response carries a fresh validation summary for it.
func (s *TimetableService) Get(ctx context.Context, query dto.TimetableQuery) (*dto.TimetableResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable query")
	}

	fullScope := query.Year != "" && query.Semester > 0 && query.Faculty == "" && query.Day == ""
	cacheKey := fmt.Sprintf("timetable:%s:%d", query.Year, query.Semester)

	if fullScope && s.cache != nil {
		var cached dto.TimetableResponse
		err := s.cache.Get(ctx, cacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("timetable cache read failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	slots, err := s.slots.List(ctx, models.SlotFilter{
		Year:     query.Year,
		Semester: query.Semester,
		Faculty:  query.Faculty,
		Day:      query.Day,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load timetable")
	}

	resp := &dto.TimetableResponse{Slots: slots}

	if fullScope && len(slots) > 0 {
		conflicts, stats, err := s.validateScope(ctx, slots)
		if err != nil {
			return nil, err
		}
		resp.Conflicts = conflicts
		resp.Stats = stats

		if s.cache != nil {
			if err := s.cache.Set(ctx, cacheKey, resp, s.cacheTTL); err != nil {
				s.logger.Warn("timetable cache write failed", zap.String("key", cacheKey), zap.Error(err))
			}
		}
	}

	return resp, nil
}

// ExportResult is a rendered export artifact.
type ExportResult struct {
	FileName    string
	ContentType string
	Content     []byte
}

// Export renders the stored week of one scope as CSV or PDF.
func (s *TimetableService) Export(ctx context.Context, query dto.ExportTimetableQuery) (*ExportResult, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export query")
	}

	slots, err := s.slots.List(ctx, models.SlotFilter{Year: query.Year, Semester: query.Semester})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load timetable")
	}
	if len(slots) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no saved timetable for %s semester %d", query.Year, query.Semester))
	}

	dataset := slotDataset(slots)
	title := fmt.Sprintf("%s Semester %d Timetable", query.Year, query.Semester)
	base := fmt.Sprintf("timetable_%s_sem%d", query.Year, query.Semester)

	var result *ExportResult
	switch query.Format {
	case "csv":
		content, err := export.NewCSVExporter().Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render csv")
		}
		result = &ExportResult{FileName: base + ".csv", ContentType: "text/csv", Content: content}
	case "pdf":
		content, err := export.NewPDFExporter().Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render pdf")
		}
		result = &ExportResult{FileName: base + ".pdf", ContentType: "application/pdf", Content: content}
	default:
		return nil, appErrors.ErrUnsupportedFormat
	}

	if s.archive != nil {
		s.archive.Archive(result.FileName, result.Content)
	}
	return result, nil
}

// Delete removes the stored week of one scope.
func (s *TimetableService) Delete(ctx context.Context, query dto.DeleteTimetableQuery) (*dto.DeleteTimetableResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid delete query")
	}

	affected, err := s.slots.DeleteScope(ctx, query.Year, query.Semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete timetable")
	}
	s.invalidateCache(ctx, query.Year, query.Semester)

	s.logger.Info("timetable deleted",
		zap.String("year", query.Year),
		zap.Int("semester", query.Semester),
		zap.Int64("slots", affected))

	return &dto.DeleteTimetableResponse{Deleted: affected}, nil
}

func (s *TimetableService) invalidateCache(ctx context.Context, year string, semester int) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("timetable:%s:%d*", year, semester)
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("timetable cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

func (s *TimetableService) loadInput(ctx context.Context, req dto.GenerateTimetableRequest) (timetable.Input, error) {
	subjects, err := s.subjects.ListForScope(ctx, req.Year, req.Semester)
	if err != nil {
		return timetable.Input{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load subjects")
	}
	if len(subjects) == 0 {
		return timetable.Input{}, appErrors.Clone(appErrors.ErrEmptyCatalog,
			fmt.Sprintf("no subjects configured for %s semester %d", req.Year, req.Semester))
	}

	faculty, err := s.faculty.ListAll(ctx)
	if err != nil {
		return timetable.Input{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load faculty")
	}
	classrooms, err := s.rooms.ListAllClassrooms(ctx)
	if err != nil {
		return timetable.Input{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load classrooms")
	}
	labs, err := s.rooms.ListAllLabs(ctx)
	if err != nil {
		return timetable.Input{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load labs")
	}

	in := timetable.Input{
		Subjects:   subjects,
		Faculty:    faculty,
		Classrooms: classrooms,
		Labs:       labs,
		Year:       req.Year,
		Semester:   req.Semester,
	}
	if req.Constraints != nil {
		in.Constraints = *req.Constraints
	}
	return in, nil
}

// validateScope re-runs the consistency checks against stored slots.
func (s *TimetableService) validateScope(ctx context.Context, slots []models.ScheduledSlot) ([]models.Conflict, *models.ScheduleStats, error) {
	faculty, err := s.faculty.ListAll(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load faculty")
	}
	classrooms, err := s.rooms.ListAllClassrooms(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load classrooms")
	}

	ruleCtx := timetable.NewContext(faculty, models.Constraints{}, len(classrooms))
	report := timetable.ValidateTimetable(slots, ruleCtx)

	stats := &models.ScheduleStats{
		TotalSlots:      len(slots),
		ConstraintScore: report.Score,
		ConsistencyHash: timetable.ConsistencyHash(slots),
	}
	for _, slot := range slots {
		switch slot.Kind {
		case models.SlotTheory:
			stats.TheorySlots++
		case models.SlotLab:
			stats.LabSlots++
		}
	}
	return report.Conflicts, stats, nil
}

func (s *TimetableService) observeGeneration(year string, advisorUsed bool, result timetable.Result, duration time.Duration) {
	if s.metrics == nil {
		return
	}
	byCategory := make(map[string]int)
	for _, conflict := range result.Conflicts {
		byCategory[conflict.Category]++
	}
	s.metrics.ObserveGeneration(year, advisorUsed, len(result.Slots), byCategory, duration)
}

// slotDataset flattens slots into the tabular export contract.
func slotDataset(slots []models.ScheduledSlot) export.Dataset {
	headers := []string{"Day", "Time", "Subject", "Faculty", "Room", "Kind", "Batch"}
	rows := make([]map[string]string, 0, len(slots))
	for _, slot := range slots {
		rows = append(rows, map[string]string{
			"Day":     slot.Day,
			"Time":    slot.TimeRange,
			"Subject": slot.Subject,
			"Faculty": slot.Faculty,
			"Room":    slot.Room,
			"Kind":    slot.Kind,
			"Batch":   slot.Batch,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

// --- Proposal store ---

type timetableProposal struct {
	ID          string
	Year        string
	Semester    int
	Slots       []models.ScheduledSlot
	RequestedAt time.Time
}

type timetableProposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]timetableProposal
}

func newTimetableProposalStore(ttl time.Duration) *timetableProposalStore {
	return &timetableProposalStore{
		ttl:   ttl,
		items: make(map[string]timetableProposal),
	}
}

func (s *timetableProposalStore) Save(proposal timetableProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ID] = proposal
}

func (s *timetableProposalStore) Get(id string) (timetableProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return timetableProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return timetableProposal{}, false
	}
	return proposal, true
}

func (s *timetableProposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
