package leaderboard

import "time"

// Window is a half-open UTC time range [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

// WeeklyWindow is the trailing human window ending at now. The end is
// inclusive of now itself.
func (c *Composer) WeeklyWindow(now time.Time) Window {
	local := now.In(c.loc)
	return Window{
		From: local.AddDate(0, 0, -c.windowDays).UTC(),
		To:   local.Add(time.Nanosecond).UTC(),
	}
}

// DailyWindow spans the current civil day, midnight to midnight.
func (c *Composer) DailyWindow(now time.Time) Window {
	local := now.In(c.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.loc)
	return Window{
		From: start.UTC(),
		To:   start.AddDate(0, 0, 1).UTC(),
	}
}
