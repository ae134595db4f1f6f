package timetable

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/campusgrid/timetable-api/internal/models"
)

// Advisor is the optional external advisory collaborator. Its output is a
// priority hint only: the engine re-validates every recommendation, and a
// missing or failing advisor never changes correctness.
type Advisor interface {
	Analyze(ctx context.Context, req models.AdvisoryRequest) (*models.AdvisoryReport, error)
}

// Input is the read-only catalog scope for one generation run.
type Input struct {
	Subjects    []models.Subject
	Faculty     []models.Faculty
	Classrooms  []models.Classroom
	Labs        []models.Lab
	Constraints models.Constraints
	Year        string
	Semester    int
}

// Result is the outcome of one generation run. A run always produces a
// result; failures degrade to fewer slots and more conflicts.
type Result struct {
	Slots       []models.ScheduledSlot
	Conflicts   []models.Conflict
	Suggestions []string
	Stats       models.ScheduleStats
	// AdvisorApplied reports whether advisory recommendations informed this
	// run. False after a fallback even when an advisor was configured.
	AdvisorApplied bool
}

// Config tunes engine behaviour.
type Config struct {
	// OptimizerIterations bounds the post-hoc swap pass. Defaults to 20.
	OptimizerIterations int
	// ConfidenceThreshold gates advisory pre-seeding. Defaults to 70.
	ConfidenceThreshold float64
}

// Engine builds weekly timetables. One engine serves both the advisory and
// the plain path: the fallback is exactly "engine with no advisor".
type Engine struct {
	advisor Advisor
	logger  *zap.Logger
	cfg     Config
}

// NewEngine constructs an engine. advisor may be nil.
func NewEngine(advisor Advisor, logger *zap.Logger, cfg Config) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.OptimizerIterations <= 0 {
		cfg.OptimizerIterations = 20
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = 70
	}
	return &Engine{advisor: advisor, logger: logger, cfg: cfg}
}

// Generate runs the full pipeline: demand expansion, optional advisory
// seeding, lab placement, lecture placement, fill-in, optimization and the
// final consistency report. It never fails: any advisory-path error restarts
// the construction from scratch without the advisor.
func (e *Engine) Generate(ctx context.Context, in Input) Result {
	if result, insufficient := e.checkInputs(in); insufficient {
		return result
	}

	if e.advisor != nil {
		report, err := e.consult(ctx, in)
		if err == nil {
			return e.run(in, report)
		}
		e.logger.Warn("advisory step failed, rebuilding without advisor",
			zap.String("year", in.Year), zap.Error(err))
	}
	return e.run(in, nil)
}

// checkInputs terminates the run early on data-insufficiency faults: no
// partial schedule is attempted without subjects or a cohort classroom.
func (e *Engine) checkInputs(in Input) (Result, bool) {
	scoped := scopeSubjects(in.Subjects, in.Year, in.Semester)
	if len(scoped) == 0 {
		return Result{Conflicts: []models.Conflict{{
			Category: models.ConflictError,
			Message:  fmt.Sprintf("no subjects configured for %s semester %d", in.Year, in.Semester),
			Severity: models.SeverityHigh,
		}}}, true
	}
	if classroomFor(in.Classrooms, in.Year) == nil {
		return Result{Conflicts: []models.Conflict{{
			Category: models.ConflictError,
			Message:  fmt.Sprintf("no classrooms configured for %s", in.Year),
			Severity: models.SeverityHigh,
		}}}, true
	}
	return Result{}, false
}

// consult calls the advisor, converting panics into errors so the caller can
// fall back to the plain construction path.
func (e *Engine) consult(ctx context.Context, in Input) (report *models.AdvisoryReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			report = nil
			err = fmt.Errorf("advisor panic: %v", r)
		}
	}()
	return e.advisor.Analyze(ctx, models.AdvisoryRequest{
		Subjects:    in.Subjects,
		Faculty:     in.Faculty,
		Classrooms:  in.Classrooms,
		Labs:        in.Labs,
		Constraints: in.Constraints,
		Year:        in.Year,
		Semester:    in.Semester,
	})
}

// run executes the construction phases in strict order. There is no
// backtracking: a failure in a later phase never reopens an earlier one.
func (e *Engine) run(in Input, report *models.AdvisoryReport) Result {
	b := newBuilder(in, report, e.logger)

	if report != nil {
		b.seedFromAdvisor(report.Recommended, e.cfg.ConfidenceThreshold)
	}
	b.placeLabs()
	b.placeLectures()
	b.fillIn()
	demandConflicts := b.reportUnplaced()

	swaps := Optimize(b.accepted, e.cfg.OptimizerIterations)
	if swaps > 0 {
		e.logger.Debug("optimizer redistributed sessions", zap.Int("swaps", swaps))
	}

	final := FinalReport(b.accepted, in, report)
	final.Conflicts = append(demandConflicts, final.Conflicts...)
	final.Suggestions = OptimizationSuggestions(b.accepted, b.rules)
	final.AdvisorApplied = report != nil
	return final
}

// --- Builder state ---

type builder struct {
	in        Input
	logger    *zap.Logger
	rules     *Context
	classroom *models.Classroom
	bandType  string

	lectures *Pool
	labs     *Pool
	accepted []models.ScheduledSlot

	theoryNeed  map[string]int
	theoryCount map[string]int
	rank        map[string]float64
}

func newBuilder(in Input, report *models.AdvisoryReport, logger *zap.Logger) *builder {
	b := &builder{
		in:          in,
		logger:      logger,
		rules:       NewContext(in.Faculty, in.Constraints, len(in.Classrooms)+len(in.Labs)),
		classroom:   classroomFor(in.Classrooms, in.Year),
		bandType:    bandTypeFor(in.Constraints, in.Year, logger),
		lectures:    BuildLecturePool(in.Subjects, in.Year, in.Semester),
		labs:        BuildLabPool(in.Subjects, in.Year, in.Semester),
		theoryNeed:  make(map[string]int),
		theoryCount: make(map[string]int),
	}
	for _, subject := range scopeSubjects(in.Subjects, in.Year, in.Semester) {
		b.theoryNeed[subject.Code] = subject.TheoryHours
	}
	if report != nil {
		b.rank = confidenceIndex(report.Recommended)
	}
	return b
}

// bandTypeFor resolves the cohort's band assignment from constraints,
// defaulting the final year to Afternoon and everything else to Morning.
func bandTypeFor(constraints models.Constraints, year string, logger *zap.Logger) string {
	if band, ok := constraints.YearBandType[year]; ok && (band == BandMorning || band == BandAfternoon) {
		return band
	}
	if logger != nil {
		logger.Warn("no band assignment for cohort, using default", zap.String("year", year))
	}
	if year == models.YearBE {
		return BandAfternoon
	}
	return BandMorning
}

func classroomFor(classrooms []models.Classroom, year string) *models.Classroom {
	for i := range classrooms {
		if classrooms[i].Year == year {
			return &classrooms[i]
		}
	}
	return nil
}

// confidenceIndex keeps the highest advisor confidence per demand identity.
func confidenceIndex(recs []models.Recommendation) map[string]float64 {
	index := make(map[string]float64, len(recs))
	for _, rec := range recs {
		key := demandKey(rec.Subject, rec.Kind, rec.Batch)
		if rec.Confidence > index[key] {
			index[key] = rec.Confidence
		}
	}
	return index
}

func demandKey(subject, kind, batch string) string {
	return subject + "|" + kind + "|" + batch
}

func (b *builder) confidence(unit DemandUnit) float64 {
	if b.rank == nil {
		return 0
	}
	if c, ok := b.rank[demandKey(unit.SubjectCode, unit.Kind, unit.Batch)]; ok {
		return c
	}
	return b.rank[demandKey(unit.SubjectName, unit.Kind, unit.Batch)]
}

// --- Acceptance-time validation ---

// accept runs the full acceptance check and, on success, durably adds the
// candidate to the schedule. On rejection nothing is committed.
func (b *builder) accept(slot models.ScheduledSlot) bool {
	if !b.facultyFree(slot.Faculty, slot.Day, slot.TimeRange) {
		return false
	}
	if !b.roomFree(slot.Room, slot.Day, slot.TimeRange) {
		return false
	}
	if !b.cohortFree(slot.Year, slot.Batch, slot.Day, slot.TimeRange) {
		return false
	}
	switch slot.Kind {
	case models.SlotTheory:
		if b.adjacentLecture(slot.Subject, slot.Day, slot.TimeRange) {
			return false
		}
		code := b.subjectCode(slot.Subject)
		if b.theoryCount[code] >= b.theoryNeed[code] {
			return false
		}
		b.theoryCount[code]++
	case models.SlotLab:
		if b.labAlreadyPlaced(slot.Subject, slot.Batch) {
			return false
		}
	default:
		return false
	}
	b.accepted = append(b.accepted, slot)
	return true
}

func (b *builder) facultyFree(name, day, timeRange string) bool {
	for _, slot := range b.accepted {
		if slot.Faculty == name && slot.Day == day && Overlap(slot.TimeRange, timeRange) {
			return false
		}
	}
	return true
}

func (b *builder) roomFree(name, day, timeRange string) bool {
	for _, slot := range b.accepted {
		if slot.Room == name && slot.Day == day && Overlap(slot.TimeRange, timeRange) {
			return false
		}
	}
	return true
}

func (b *builder) cohortFree(year, batch, day, timeRange string) bool {
	for _, slot := range b.accepted {
		if slot.Year == year && batchesCollide(slot.Batch, batch) &&
			slot.Day == day && Overlap(slot.TimeRange, timeRange) {
			return false
		}
	}
	return true
}

// adjacentLecture reports whether the subject already has a lecture in a
// neighbouring lecture band on the same day. The check is unconditional;
// the allowBackToBackTheory option is declared but not wired to relax it.
func (b *builder) adjacentLecture(subject, day, timeRange string) bool {
	for _, slot := range b.accepted {
		if slot.Kind != models.SlotTheory || slot.Subject != subject || slot.Day != day {
			continue
		}
		if AdjacentBands(MorningLectureBands, timeRange, slot.TimeRange) ||
			AdjacentBands(AfternoonLectureBands, timeRange, slot.TimeRange) {
			return true
		}
	}
	return false
}

func (b *builder) labAlreadyPlaced(subject, batch string) bool {
	for _, slot := range b.accepted {
		if slot.Kind == models.SlotLab && slot.Subject == subject && slot.Batch == batch {
			return true
		}
	}
	return false
}

func (b *builder) batchHasLabOn(day, batch string) bool {
	for _, slot := range b.accepted {
		if slot.Kind == models.SlotLab && slot.Day == day && slot.Batch == batch && slot.Year == b.in.Year {
			return true
		}
	}
	return false
}

// hadPrecedingLab reports a lab for the same faculty or batch in the lab
// band immediately before the given one in the global lab-band ordering.
func (b *builder) hadPrecedingLab(day, band, faculty, batch string) bool {
	prev, ok := PrevLabBand(band)
	if !ok {
		return false
	}
	for _, slot := range b.accepted {
		if slot.Kind != models.SlotLab || slot.Day != day || slot.TimeRange != prev {
			continue
		}
		if slot.Faculty == faculty {
			return true
		}
		if slot.Batch == batch && slot.Year == b.in.Year {
			return true
		}
	}
	return false
}

func (b *builder) subjectCode(displayName string) string {
	for _, subject := range b.in.Subjects {
		if subject.Name == displayName || subject.Code == displayName {
			return subject.Code
		}
	}
	return displayName
}

// --- Phase 0: advisory-seeded placements ---

// seedFromAdvisor attempts high-confidence recommendations as ordinary
// placements. Success consumes the matching demand unit exactly as a normal
// placement would; disabling this phase changes nothing but ordering.
func (b *builder) seedFromAdvisor(recs []models.Recommendation, threshold float64) {
	for _, rec := range recs {
		if rec.Confidence < threshold {
			continue
		}
		if !validDay(rec.Day) {
			continue
		}
		switch rec.Kind {
		case models.SlotTheory:
			idx := b.findLectureUnit(rec.Subject)
			if idx < 0 || !bandIn(LectureBands(b.bandType), rec.TimeRange) {
				continue
			}
			unit := b.lectures.At(idx)
			slot := b.theorySlot(unit, rec.Day, rec.TimeRange, false)
			if b.accept(slot) {
				b.lectures.Remove(idx)
			}
		case models.SlotLab:
			idx := b.findLabUnit(rec.Subject, rec.Batch)
			if idx < 0 || !bandIn(LabBands(b.bandType), rec.TimeRange) {
				continue
			}
			unit := b.labs.At(idx)
			room := b.labRoomByName(rec.Room)
			if room == nil || !b.labRoomAllows(room, unit.SubjectCode, rec.TimeRange) {
				continue
			}
			slot := b.labSlot(unit, rec.Day, rec.TimeRange, room.Name)
			if b.accept(slot) {
				b.labs.Remove(idx)
			}
		}
	}
}

func (b *builder) findLectureUnit(subject string) int {
	for i := 0; i < b.lectures.Len(); i++ {
		unit := b.lectures.At(i)
		if unit.SubjectCode == subject || unit.SubjectName == subject {
			return i
		}
	}
	return -1
}

func (b *builder) findLabUnit(subject, batch string) int {
	for i := 0; i < b.labs.Len(); i++ {
		unit := b.labs.At(i)
		if (unit.SubjectCode == subject || unit.SubjectName == subject) && unit.Batch == batch {
			return i
		}
	}
	return -1
}

func (b *builder) labRoomByName(name string) *models.Lab {
	for i := range b.in.Labs {
		if b.in.Labs[i].Name == name {
			return &b.in.Labs[i]
		}
	}
	return nil
}

// --- Phase 1: concurrent lab placement ---

// placeLabs fills parallel lab rooms per (day, band) cell. The sweep is a
// greedy approximation of a bipartite matching: a candidate already matched
// on faculty or batch within this cell is skipped even if a room remains.
func (b *builder) placeLabs() {
	for _, day := range Days {
		for _, band := range LabBands(b.bandType) {
			candidates := b.labCandidates(day, band)
			if len(candidates) == 0 {
				continue
			}
			if b.rank != nil {
				sort.SliceStable(candidates, func(i, j int) bool {
					return b.confidence(candidates[i]) > b.confidence(candidates[j])
				})
			}

			committedFaculty := make(map[string]bool)
			committedBatch := make(map[string]bool)
			usedRooms := make(map[string]bool)

			for _, unit := range candidates {
				if committedFaculty[unit.Faculty] || committedBatch[unit.Batch] {
					continue
				}
				room := b.nextFreeLabRoom(day, band, unit.SubjectCode, usedRooms)
				if room == nil {
					continue
				}
				slot := b.labSlot(unit, day, band, room.Name)
				if !b.accept(slot) {
					continue
				}
				idx := b.findLabUnit(unit.SubjectCode, unit.Batch)
				if idx >= 0 {
					b.labs.Remove(idx)
				}
				committedFaculty[unit.Faculty] = true
				committedBatch[unit.Batch] = true
				usedRooms[room.Name] = true
			}
		}
	}
}

// labCandidates gathers demand units eligible for the (day, band) cell.
func (b *builder) labCandidates(day, band string) []DemandUnit {
	var candidates []DemandUnit
	for i := 0; i < b.labs.Len(); i++ {
		unit := b.labs.At(i)
		if !b.cohortFree(unit.Year, unit.Batch, day, band) {
			continue
		}
		if !b.facultyFree(unit.Faculty, day, band) {
			continue
		}
		if b.batchHasLabOn(day, unit.Batch) {
			continue
		}
		if b.hadPrecedingLab(day, band, unit.Faculty, unit.Batch) {
			continue
		}
		if b.labAlreadyPlaced(unit.SubjectName, unit.Batch) {
			continue
		}
		candidates = append(candidates, unit)
	}
	return candidates
}

func (b *builder) nextFreeLabRoom(day, band, subjectCode string, used map[string]bool) *models.Lab {
	for i := range b.in.Labs {
		room := &b.in.Labs[i]
		if used[room.Name] || !b.roomFree(room.Name, day, band) {
			continue
		}
		if !b.labRoomAllows(room, subjectCode, band) {
			continue
		}
		return room
	}
	return nil
}

// labRoomAllows checks the lab's subject whitelist and operating hours.
func (b *builder) labRoomAllows(room *models.Lab, subjectCode, band string) bool {
	if restricted := room.RestrictedSubjects(); len(restricted) > 0 {
		found := false
		for _, code := range restricted {
			if code == subjectCode {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	var ranges []string
	if len(room.HourRanges) > 0 {
		_ = room.HourRanges.Unmarshal(&ranges)
	}
	if len(ranges) == 0 {
		return true
	}
	for _, hourRange := range ranges {
		if WithinRange(band, hourRange) {
			return true
		}
	}
	return false
}

// --- Phase 2: ordered lecture placement ---

func (b *builder) placeLectures() {
	for _, day := range Days {
		for _, band := range LectureBands(b.bandType) {
			if !b.roomFree(b.classroom.Name, day, band) {
				continue
			}
			if !b.cohortFree(b.in.Year, "", day, band) {
				continue
			}
			b.placeOneLecture(day, band, false)
		}
	}
}

// placeOneLecture scans the pool in priority order (advisor-ranked when a
// report is present) and accepts the first unit that fits the cell.
func (b *builder) placeOneLecture(day, band string, fillIn bool) bool {
	order := make([]int, b.lectures.Len())
	for i := range order {
		order[i] = i
	}
	if b.rank != nil {
		sort.SliceStable(order, func(i, j int) bool {
			return b.confidence(b.lectures.At(order[i])) > b.confidence(b.lectures.At(order[j]))
		})
	}

	for _, idx := range order {
		unit := b.lectures.At(idx)
		if !b.facultyFree(unit.Faculty, day, band) {
			continue
		}
		if b.adjacentLecture(unit.SubjectName, day, band) {
			continue
		}
		if b.theoryCount[unit.SubjectCode] >= b.theoryNeed[unit.SubjectCode] {
			continue
		}
		if b.accept(b.theorySlot(unit, day, band, fillIn)) {
			b.lectures.Remove(idx)
			return true
		}
	}
	return false
}

// --- Phase 3: fill-in pass ---

// fillIn re-scans the superset of lecture and lab bands for lecture units the
// primary pass could not place. Accepted slots carry the fill-in flag. The
// pass reuses the cohort's dedicated classroom only.
func (b *builder) fillIn() {
	bands := append([]string{}, LectureBands(b.bandType)...)
	bands = append(bands, LabBands(b.bandType)...)

	i := 0
	for i < b.lectures.Len() {
		unit := b.lectures.At(i)
		placed := false
		for _, day := range Days {
			for _, band := range bands {
				if !b.roomFree(b.classroom.Name, day, band) {
					continue
				}
				if !b.cohortFree(b.in.Year, "", day, band) {
					continue
				}
				if !b.facultyFree(unit.Faculty, day, band) {
					continue
				}
				if b.adjacentLecture(unit.SubjectName, day, band) {
					continue
				}
				slot := b.theorySlot(unit, day, band, true)
				if b.accept(slot) {
					placed = true
					break
				}
			}
			if placed {
				break
			}
		}
		if placed {
			b.lectures.Remove(i)
			continue
		}
		i++
	}
}

// --- Phase 4: reporting ---

// reportUnplaced converts surviving demand units into conflicts: every
// missing lab session is a hard coverage failure, unscheduled lectures are
// aggregated per subject as warnings.
func (b *builder) reportUnplaced() []models.Conflict {
	var conflicts []models.Conflict
	for _, unit := range b.labs.Units() {
		conflicts = append(conflicts, models.Conflict{
			Category: models.ConflictError,
			Message:  fmt.Sprintf("no lab session scheduled for %s batch %s (%s)", unit.SubjectName, unit.Batch, unit.Year),
			Severity: models.SeverityHigh,
			Affected: []string{unit.SubjectName, unit.Faculty},
		})
	}

	unplaced := make(map[string]int)
	var order []string
	for _, unit := range b.lectures.Units() {
		key := unit.SubjectName
		if unplaced[key] == 0 {
			order = append(order, key)
		}
		unplaced[key]++
	}
	for _, subject := range order {
		conflicts = append(conflicts, models.Conflict{
			Category: models.ConflictWarning,
			Message:  fmt.Sprintf("%d lecture(s) unscheduled for %s (%s)", unplaced[subject], subject, b.in.Year),
			Severity: models.SeverityMedium,
			Affected: []string{subject},
		})
	}
	return conflicts
}

// --- Slot construction ---

func (b *builder) theorySlot(unit DemandUnit, day, band string, fillIn bool) models.ScheduledSlot {
	return models.ScheduledSlot{
		Day:       day,
		TimeRange: band,
		Subject:   unit.SubjectName,
		Faculty:   unit.Faculty,
		Room:      b.classroom.Name,
		Kind:      models.SlotTheory,
		Year:      unit.Year,
		Duration:  1,
		Semester:  unit.Semester,
		FillIn:    fillIn,
	}
}

func (b *builder) labSlot(unit DemandUnit, day, band, room string) models.ScheduledSlot {
	return models.ScheduledSlot{
		Day:       day,
		TimeRange: band,
		Subject:   unit.SubjectName,
		Faculty:   unit.Faculty,
		Room:      room,
		Kind:      models.SlotLab,
		Year:      unit.Year,
		Batch:     unit.Batch,
		Duration:  2,
		Semester:  unit.Semester,
	}
}

func validDay(day string) bool {
	for _, d := range Days {
		if d == day {
			return true
		}
	}
	return false
}

func bandIn(bands []string, band string) bool {
	for _, b := range bands {
		if b == band {
			return true
		}
	}
	return false
}
