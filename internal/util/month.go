package util

import "time"

// MonthKey returns the YYYY-MM bucket key for a date
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// AddMonths advances a date by whole calendar months, keeping the original
// day-of-month and clamping to the last day of shorter months
// (e.g. Jan 31 + 1 month = Feb 28/29)
func AddMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	targetYear := year
	targetMonth := int(month) + months
	// Normalize month overflow/underflow into the year
	targetYear += (targetMonth - 1) / 12
	targetMonth = (targetMonth-1)%12 + 1
	if targetMonth < 1 {
		targetMonth += 12
		targetYear--
	}

	lastDay := daysInMonth(targetYear, time.Month(targetMonth))
	if day > lastDay {
		day = lastDay
	}
	return time.Date(targetYear, time.Month(targetMonth), day, 0, 0, 0, 0, t.Location())
}

// TruncateToDay drops the time-of-day component
func TruncateToDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
