package tasks

import "time"

// Canned filters are derived views recomputed against the wall clock on
// every call, in the server's local timezone. They are never stored.

// TodayFilter selects tasks due anywhere within the current local day,
// regardless of status.
func TodayFilter(now time.Time) Filter {
	start := startOfDay(now)
	end := endOfDay(now)
	return Filter{DueFrom: &start, DueTo: &end}
}

// OverdueFilter selects pending tasks whose due date is strictly in the past.
func OverdueFilter(now time.Time) Filter {
	return Filter{Status: StatusPending, DueBefore: &now}
}

// UpcomingFilter selects pending tasks due between the start of today and
// the end of the sixth day out, a seven-day window including today.
func UpcomingFilter(now time.Time) Filter {
	start := startOfDay(now)
	end := endOfDay(now.AddDate(0, 0, 6))
	return Filter{Status: StatusPending, DueFrom: &start, DueTo: &end}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
