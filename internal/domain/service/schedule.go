package service

import "time"

// SchedulePolicy holds the tuned values of the notification schedule. It is
// built once from config at startup and passed into every component that
// needs it, so tests can run with arbitrary windows.
type SchedulePolicy struct {
	// CatchUpWindow bounds how far back any run will ever look, so a long
	// outage cannot flood subscribers with ancient digests.
	CatchUpWindow time.Duration

	// GraceMin and GraceMax drive the immediate-tier debounce: an object is
	// reported once its newest event is at least GraceMin old (it settled),
	// or its oldest unreported event is at least GraceMax old (it waited
	// long enough, report regardless of ongoing edits).
	GraceMin time.Duration
	GraceMax time.Duration

	// WeeklyDay plus NotifyHour/NotifyMinute position the weekly send;
	// NotifyHour/NotifyMinute alone position the daily send.
	WeeklyDay    time.Weekday
	NotifyHour   int
	NotifyMinute int
}

func DefaultSchedulePolicy() SchedulePolicy {
	return SchedulePolicy{
		CatchUpWindow: 48 * time.Hour,
		GraceMin:      5 * time.Minute,
		GraceMax:      60 * time.Minute,
		WeeklyDay:     time.Friday,
		NotifyHour:    9,
		NotifyMinute:  0,
	}
}

// IncludeActivityFrom returns the oldest timestamp a run may consider:
// the watermark if set, but never further back than the catch-up window.
func (p SchedulePolicy) IncludeActivityFrom(lastSent *time.Time, now time.Time) time.Time {
	floor := now.Add(-p.CatchUpWindow)
	if lastSent != nil && lastSent.After(floor) {
		return *lastSent
	}
	return floor
}

// MostRecentDaily returns the most recent past occurrence of the
// configured time of day, relative to now.
func (p SchedulePolicy) MostRecentDaily(now time.Time) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(),
		p.NotifyHour, p.NotifyMinute, 0, 0, now.Location())
	if candidate.After(now) {
		candidate = candidate.AddDate(0, 0, -1)
	}
	return candidate
}

// MostRecentWeekly returns the most recent past occurrence of the
// configured weekday and time of day, relative to now.
func (p SchedulePolicy) MostRecentWeekly(now time.Time) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(),
		p.NotifyHour, p.NotifyMinute, 0, 0, now.Location())
	candidate = candidate.AddDate(0, 0, int(p.WeeklyDay-now.Weekday()))
	if candidate.After(now) {
		candidate = candidate.AddDate(0, 0, -7)
	}
	return candidate
}

// DailyDue reports whether a daily run is owed: the most recent send time
// has passed since the watermark was last advanced, or there is no
// watermark yet.
func (p SchedulePolicy) DailyDue(lastSent *time.Time, now time.Time) bool {
	if lastSent == nil {
		return true
	}
	return p.MostRecentDaily(now).After(*lastSent)
}

func (p SchedulePolicy) WeeklyDue(lastSent *time.Time, now time.Time) bool {
	if lastSent == nil {
		return true
	}
	return p.MostRecentWeekly(now).After(*lastSent)
}

// ReadyToReport applies the immediate-tier debounce to one object, given
// the oldest and newest timestamps of its unreported activity.
func (p SchedulePolicy) ReadyToReport(oldest, newest, now time.Time) bool {
	if !oldest.After(now.Add(-p.GraceMax)) {
		return true
	}
	return !newest.After(now.Add(-p.GraceMin))
}
