package dates

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LocaleLayout is the M/D/YYYY layout used for dropdown labels
const LocaleLayout = "1/2/2006"

// ErrInvalidDate is returned when a date string is not M/D/YYYY
var ErrInvalidDate = errors.New("invalid date")

// DisplayDate formats t as "July 28, 2019"
func DisplayDate(t time.Time) string {
	return fmt.Sprintf("%s %d, %d", t.Month(), t.Day(), t.Year())
}

// LocaleDate formats t as "7/28/2019" (month and day not zero padded)
func LocaleDate(t time.Time) string {
	return t.Format(LocaleLayout)
}

// Today returns midnight of the current day in loc.
// A nil loc means time.Local; a nil now means time.Now.
func Today(loc *time.Location, now func() time.Time) time.Time {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	t := now().In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// CandidateDates returns the count calendar days before start, newest first,
// formatted with LocaleDate. start itself is never included.
func CandidateDates(start time.Time, count int) []string {
	if count <= 0 {
		return []string{}
	}

	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	candidates := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		candidates = append(candidates, LocaleDate(day.AddDate(0, 0, -i)))
	}
	return candidates
}

// FormatForURL turns "7/4/2019" into "07_04_2019".
//
// The candidate must contain exactly two '/' separators. Other input yields a
// malformed token rather than an error; callers that accept dates from outside
// the dropdown should run ParseCandidate first.
func FormatForURL(candidate string) string {
	parts := strings.SplitN(candidate, "/", 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return padForDate(parts[0]) + "_" + padForDate(parts[1]) + "_" + parts[2]
}

// padForDate left-pads a single digit with a zero
func padForDate(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// ParseCandidate validates a M/D/YYYY (or MM/DD/YYYY) date string.
func ParseCandidate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
		nums[i] = n
	}
	if len(parts[2]) != 4 {
		return time.Time{}, fmt.Errorf("%w: %q: year must have four digits", ErrInvalidDate, s)
	}

	t := time.Date(nums[2], time.Month(nums[0]), nums[1], 0, 0, 0, 0, time.UTC)
	// time.Date normalizes 2/30 into March; reject anything that rolled over
	if int(t.Month()) != nums[0] || t.Day() != nums[1] {
		return time.Time{}, fmt.Errorf("%w: %q: no such day", ErrInvalidDate, s)
	}
	return t, nil
}
