package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusgrid/timetable-api/internal/models"
)

// SlotRepository persists generated timetable slots.
type SlotRepository struct {
	db *sqlx.DB
}

// NewSlotRepository creates a new repository instance.
func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

const slotColumns = "id, day, time_range, subject, faculty, room, kind, year, batch, duration, semester, fill_in, created_at"

// List returns stored slots matching the filter in stable day/time order.
func (r *SlotRepository) List(ctx context.Context, filter models.SlotFilter) ([]models.ScheduledSlot, error) {
	base := "FROM timetable_slots WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Year != "" {
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.Semester > 0 {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Faculty != "" {
		conditions = append(conditions, fmt.Sprintf("faculty = $%d", len(args)+1))
		args = append(args, filter.Faculty)
	}
	if filter.Day != "" {
		conditions = append(conditions, fmt.Sprintf("day = $%d", len(args)+1))
		args = append(args, filter.Day)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY day ASC, time_range ASC, room ASC", slotColumns, base)
	var slots []models.ScheduledSlot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

// Replace atomically swaps the stored week for one cohort-year and semester.
// The previous slots of that scope are removed and the new set inserted in a
// single transaction, so readers never observe a half-saved week.
func (r *SlotRepository) Replace(ctx context.Context, year string, semester int, slots []models.ScheduledSlot) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin slot replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM timetable_slots WHERE year = $1 AND semester = $2`, year, semester); err != nil {
		return fmt.Errorf("clear slots: %w", err)
	}

	const query = `INSERT INTO timetable_slots (id, day, time_range, subject, faculty, room, kind, year, batch, duration, semester, fill_in, created_at)
VALUES (:id, :day, :time_range, :subject, :faculty, :room, :kind, :year, :batch, :duration, :semester, :fill_in, :created_at)`

	now := time.Now().UTC()
	for i := range slots {
		slot := &slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		if slot.CreatedAt.IsZero() {
			slot.CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, query, slot); err != nil {
			return fmt.Errorf("insert slot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit slot replace: %w", err)
	}
	return nil
}

// DeleteScope removes every stored slot for one cohort-year and semester.
func (r *SlotRepository) DeleteScope(ctx context.Context, year string, semester int) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM timetable_slots WHERE year = $1 AND semester = $2`, year, semester)
	if err != nil {
		return 0, fmt.Errorf("delete slots: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}
