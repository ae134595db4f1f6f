// Package timetable implements the weekly timetable construction engine:
// demand expansion, constraint rules, greedy placement, local-search
// optimization and the final consistency report. The package is pure; all
// catalog data is supplied by the caller and no I/O happens here.
package timetable

import (
	"errors"
	"strconv"
	"strings"
)

// Days lists the six working days in grid order.
var Days = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Time-of-day band types assigned per cohort-year.
const (
	BandMorning   = "Morning"
	BandAfternoon = "Afternoon"
	BandEvening   = "Evening"
)

// Lecture bands: six contiguous slots per day for each band type.
var (
	MorningLectureBands = []string{
		"8:10-9:00", "9:00-9:50", "9:50-10:40",
		"10:50-11:40", "11:40-12:30", "12:30-13:20",
	}
	AfternoonLectureBands = []string{
		"13:20-14:10", "14:10-15:00", "15:00-15:50",
		"16:00-16:50", "16:50-17:40", "17:40-18:30",
	}
)

// Lab bands: three two-hour blocks per day for each band type.
var (
	MorningLabBands   = []string{"8:10-10:10", "10:20-12:20", "12:30-14:30"}
	AfternoonLabBands = []string{"13:20-15:20", "15:30-17:30", "17:40-19:40"}
)

// labBandOrder is the global ordering of every lab band by start time. The
// no-consecutive-lab rule consults this ordering, not just the bands of one
// cohort's schedule.
var labBandOrder = []string{
	"8:10-10:10", "10:20-12:20", "12:30-14:30",
	"13:20-15:20", "15:30-17:30", "17:40-19:40",
}

// LectureBands returns the lecture band set for a cohort's band type.
func LectureBands(bandType string) []string {
	if bandType == BandAfternoon {
		return AfternoonLectureBands
	}
	return MorningLectureBands
}

// LabBands returns the lab band set for a cohort's band type.
func LabBands(bandType string) []string {
	if bandType == BandAfternoon {
		return AfternoonLabBands
	}
	return MorningLabBands
}

// Overlap reports whether two "H:MM-H:MM" ranges intersect. A shared
// boundary does not overlap. Malformed ranges report true: a range we cannot
// parse must never silently validate as conflict-free.
func Overlap(a, b string) bool {
	aStart, aEnd, err := rangeBounds(a)
	if err != nil {
		return true
	}
	bStart, bEnd, err := rangeBounds(b)
	if err != nil {
		return true
	}
	lo := aStart
	if bStart > lo {
		lo = bStart
	}
	hi := aEnd
	if bEnd < hi {
		hi = bEnd
	}
	return lo < hi
}

// StartHour returns the hour component of a range's start, or -1 when the
// range cannot be parsed.
func StartHour(timeRange string) int {
	start, _, err := rangeBounds(timeRange)
	if err != nil {
		return -1
	}
	return start / 100
}

// DayBand classifies a range's start into Morning/Afternoon/Evening, used to
// match faculty time-of-day preferences.
func DayBand(timeRange string) string {
	hour := StartHour(timeRange)
	switch {
	case hour < 0:
		return ""
	case hour < 12:
		return BandMorning
	case hour < 17:
		return BandAfternoon
	default:
		return BandEvening
	}
}

// AdjacentBands reports whether a and b occupy neighbouring positions in the
// given band ordering.
func AdjacentBands(bands []string, a, b string) bool {
	ai, bi := -1, -1
	for i, band := range bands {
		if band == a {
			ai = i
		}
		if band == b {
			bi = i
		}
	}
	if ai < 0 || bi < 0 {
		return false
	}
	diff := ai - bi
	return diff == 1 || diff == -1
}

// PrevLabBand returns the lab band immediately preceding the given band in
// the global lab-band ordering.
func PrevLabBand(band string) (string, bool) {
	for i, candidate := range labBandOrder {
		if candidate == band && i > 0 {
			return labBandOrder[i-1], true
		}
	}
	return "", false
}

// WithinRange reports whether the inner range falls entirely inside outer.
// Malformed ranges report true so a bad hour-range never blocks placement.
func WithinRange(inner, outer string) bool {
	iStart, iEnd, err := rangeBounds(inner)
	if err != nil {
		return true
	}
	oStart, oEnd, err := rangeBounds(outer)
	if err != nil {
		return true
	}
	return iStart >= oStart && iEnd <= oEnd
}

// rangeBounds parses "H:MM-H:MM" into zero-padded HHMM integers.
func rangeBounds(timeRange string) (int, int, error) {
	parts := strings.SplitN(timeRange, "-", 2)
	if len(parts) != 2 {
		return 0, 0, errMalformedRange
	}
	start, err := parseClock(parts[0])
	if err != nil {
		return 0, 0, err
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseClock(clock string) (int, error) {
	pieces := strings.SplitN(strings.TrimSpace(clock), ":", 2)
	if len(pieces) != 2 {
		return 0, errMalformedRange
	}
	hours, err := strconv.Atoi(pieces[0])
	if err != nil {
		return 0, errMalformedRange
	}
	minutes, err := strconv.Atoi(pieces[1])
	if err != nil {
		return 0, errMalformedRange
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, errMalformedRange
	}
	return hours*100 + minutes, nil
}

var errMalformedRange = errors.New("malformed time range")
