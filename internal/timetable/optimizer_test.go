package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgrid/timetable-api/internal/models"
)

func TestOptimizeSwapsSameDayDuplicate(t *testing.T) {
	// Databases appears twice on Monday while Tuesday holds a swappable
	// Networks lecture.
	slots := []models.ScheduledSlot{
		theory("Databases", "Rao", "Monday", "8:10-9:00"),
		theory("Databases", "Rao", "Monday", "9:50-10:40"),
		theory("Networks", "Iyer", "Tuesday", "9:50-10:40"),
	}

	swaps := Optimize(slots, 20)

	require.Equal(t, 1, swaps)
	assert.Equal(t, "Networks", slots[1].Subject)
	assert.Equal(t, "Iyer", slots[1].Faculty)
	assert.Equal(t, "Databases", slots[2].Subject)
	assert.Equal(t, "Rao", slots[2].Faculty)
	// Day, time and room never move.
	assert.Equal(t, "Monday", slots[1].Day)
	assert.Equal(t, "9:50-10:40", slots[1].TimeRange)
}

func TestOptimizeSkipsIllegalSwap(t *testing.T) {
	// The only other-day candidate belongs to a subject already present on
	// the source day, so no legal swap exists.
	slots := []models.ScheduledSlot{
		theory("Databases", "Rao", "Monday", "8:10-9:00"),
		theory("Databases", "Rao", "Monday", "9:50-10:40"),
		theory("Databases", "Rao", "Tuesday", "8:10-9:00"),
	}

	assert.Zero(t, Optimize(slots, 20))
	assert.Equal(t, "Databases", slots[1].Subject)
}

func TestOptimizeRespectsFacultyAvailability(t *testing.T) {
	// Swapping would put Rao into Tuesday 8:10 where Rao already teaches.
	slots := []models.ScheduledSlot{
		theory("Databases", "Rao", "Monday", "8:10-9:00"),
		theory("Databases", "Rao", "Monday", "9:50-10:40"),
		theory("Networks", "Iyer", "Tuesday", "8:10-9:00"),
		theory("Compilers", "Rao", "Tuesday", "8:10-9:00"),
	}
	slots[3].Room = "CR-TE"
	slots[3].Year = models.YearTE

	swaps := Optimize(slots, 20)

	for i, slot := range slots {
		for j, other := range slots {
			if i == j || slot.Day != other.Day || !Overlap(slot.TimeRange, other.TimeRange) {
				continue
			}
			assert.NotEqual(t, slot.Faculty, other.Faculty, "swap introduced a faculty clash")
		}
	}
	_ = swaps
}

func TestOptimizeTerminatesWithoutDuplicates(t *testing.T) {
	slots := []models.ScheduledSlot{
		theory("Databases", "Rao", "Monday", "8:10-9:00"),
		theory("Networks", "Iyer", "Tuesday", "8:10-9:00"),
	}
	assert.Zero(t, Optimize(slots, 20))
}

func TestOptimizeIgnoresLabs(t *testing.T) {
	slots := []models.ScheduledSlot{
		lab("DS Lab", "Rao", "Monday", "8:10-10:10", "A"),
		lab("DS Lab", "Rao", "Monday", "12:30-14:30", "B"),
	}
	assert.Zero(t, Optimize(slots, 20))
	assert.Equal(t, "A", slots[0].Batch)
}
