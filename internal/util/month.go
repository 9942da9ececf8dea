package util

import "time"

// MonthStart returns the first day of t's month in UTC
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths moves t by n calendar months keeping the day inside the target
// month (Jan 31 + 1 month = Feb 28/29)
func AddMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return CalculateActualDate(first.Year(), first.Month(), t.Day())
}

// SameMonth reports whether a and b fall in the same calendar month
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// MonthAfter reports whether a's month is later than b's month
func MonthAfter(a, b time.Time) bool {
	if a.Year() != b.Year() {
		return a.Year() > b.Year()
	}
	return a.Month() > b.Month()
}

// NextOccurrence returns the next date, on or after from, that falls on day
// of the month. Short months use their last day.
func NextOccurrence(from time.Time, day int) time.Time {
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	candidate := CalculateActualDate(from.Year(), from.Month(), day)
	if candidate.Before(from) {
		next := from.AddDate(0, 0, -from.Day()+1).AddDate(0, 1, 0)
		candidate = CalculateActualDate(next.Year(), next.Month(), day)
	}
	return candidate
}

// CalculateActualDate returns the actual date for a target day in a given month,
// handling months with fewer days (e.g., day 31 in February returns Feb 28/29)
func CalculateActualDate(year int, month time.Month, targetDay int) time.Time {
	// Get last day of month by going to day 0 of next month
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()

	actualDay := targetDay
	if actualDay > lastDay {
		actualDay = lastDay
	}
	if actualDay < 1 {
		actualDay = 1
	}

	return time.Date(year, month, actualDay, 0, 0, 0, 0, time.UTC)
}
