package domain

import "time"

const DateLayout = "2006-01-02"

// Report is one rendered chat message
type Report struct {
	Title string
	Body  string
}

// TimePeriod represents an inclusive range of calendar days
type TimePeriod struct {
	Start time.Time
	End   time.Time
}

// WeekOf returns the Monday..Sunday week containing t, in t's location
func WeekOf(t time.Time) TimePeriod {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7 // days since Monday
	start := day.AddDate(0, 0, -offset)
	return TimePeriod{
		Start: start,
		End:   start.AddDate(0, 0, 6),
	}
}

// Label renders the period the way reports show it, e.g. 2026-02-09至2026-02-15
func (p TimePeriod) Label() string {
	return p.Start.Format(DateLayout) + "至" + p.End.Format(DateLayout)
}
