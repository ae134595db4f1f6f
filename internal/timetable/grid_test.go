package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverlap(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want bool
	}{
		{"touching boundary", "8:10-10:10", "10:10-10:25", false},
		{"partial overlap", "8:10-9:10", "8:40-9:40", true},
		{"identical", "9:00-9:50", "9:00-9:50", true},
		{"contained", "8:10-10:10", "8:30-9:00", true},
		{"disjoint", "8:10-9:00", "13:20-14:10", false},
		{"reversed args", "10:10-10:25", "8:10-10:10", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlap(tc.a, tc.b))
		})
	}
}

func TestOverlapMalformedFailsSafe(t *testing.T) {
	// Unparseable ranges must be treated as conflicting, never as free.
	assert.True(t, Overlap("garbage", "8:10-9:00"))
	assert.True(t, Overlap("8:10-9:00", ""))
	assert.True(t, Overlap("25:00-26:00", "8:10-9:00"))
	assert.True(t, Overlap("8:10", "8:10-9:00"))
}

func TestAdjacentBands(t *testing.T) {
	assert.True(t, AdjacentBands(MorningLectureBands, "8:10-9:00", "9:00-9:50"))
	assert.True(t, AdjacentBands(MorningLectureBands, "9:00-9:50", "8:10-9:00"))
	assert.False(t, AdjacentBands(MorningLectureBands, "8:10-9:00", "9:50-10:40"))
	assert.False(t, AdjacentBands(MorningLectureBands, "8:10-9:00", "13:20-14:10"))
}

func TestPrevLabBand(t *testing.T) {
	prev, ok := PrevLabBand("10:20-12:20")
	assert.True(t, ok)
	assert.Equal(t, "8:10-10:10", prev)

	// Global ordering crosses the morning/afternoon sets.
	prev, ok = PrevLabBand("13:20-15:20")
	assert.True(t, ok)
	assert.Equal(t, "12:30-14:30", prev)

	_, ok = PrevLabBand("8:10-10:10")
	assert.False(t, ok)
}

func TestDayBand(t *testing.T) {
	assert.Equal(t, BandMorning, DayBand("8:10-9:00"))
	assert.Equal(t, BandAfternoon, DayBand("13:20-14:10"))
	assert.Equal(t, BandEvening, DayBand("17:40-18:30"))
	assert.Equal(t, "", DayBand("nonsense"))
}

func TestStartHour(t *testing.T) {
	assert.Equal(t, 8, StartHour("8:10-9:00"))
	assert.Equal(t, 13, StartHour("13:20-15:20"))
	assert.Equal(t, -1, StartHour("oops"))
}

func TestWithinRange(t *testing.T) {
	assert.True(t, WithinRange("9:00-9:50", "8:00-12:00"))
	assert.False(t, WithinRange("11:00-13:00", "8:00-12:00"))
	assert.True(t, WithinRange("9:00-9:50", "broken"))
}

func TestBandSetsPerBandType(t *testing.T) {
	assert.Equal(t, MorningLectureBands, LectureBands(BandMorning))
	assert.Equal(t, AfternoonLectureBands, LectureBands(BandAfternoon))
	assert.Len(t, LabBands(BandMorning), 3)
	assert.Len(t, LabBands(BandAfternoon), 3)
}
