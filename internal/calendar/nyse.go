// Package calendar answers one question: is a given date a NYSE trading
// session. Weekends plus the exchange's fixed holiday list, with weekend
// holidays shifted to their observed weekday. Half days still count as
// sessions. Ad-hoc closures (mourning days, weather) are not modeled.
package calendar

import "time"

// IsTradingDay reports whether the NYSE holds a session on the given date.
// Only the date portion is considered.
func IsTradingDay(d time.Time) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !isHoliday(d)
}

// MostRecentSession walks back from the given date (inclusive) to the last
// trading session within lookback days. ok is false when the window holds no
// session at all.
func MostRecentSession(from time.Time, lookback int) (time.Time, bool) {
	d := from
	for i := 0; i <= lookback; i++ {
		if IsTradingDay(d) {
			return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location()), true
		}
		d = d.AddDate(0, 0, -1)
	}
	return time.Time{}, false
}

func isHoliday(d time.Time) bool {
	y, m, day := d.Date()
	for _, h := range holidays(y) {
		hy, hm, hd := h.Date()
		if hy == y && hm == m && hd == day {
			return true
		}
	}
	return false
}

// holidays returns the NYSE full-closure days for a year.
func holidays(year int) []time.Time {
	hs := []time.Time{
		observed(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)),  // New Year's Day
		nthWeekday(year, time.January, time.Monday, 3),                    // MLK Day
		nthWeekday(year, time.February, time.Monday, 3),                   // Washington's Birthday
		easterSunday(year).AddDate(0, 0, -2),                              // Good Friday
		lastWeekday(year, time.May, time.Monday),                          // Memorial Day
		observed(time.Date(year, time.July, 4, 0, 0, 0, 0, time.UTC)),     // Independence Day
		nthWeekday(year, time.September, time.Monday, 1),                  // Labor Day
		nthWeekday(year, time.November, time.Thursday, 4),                 // Thanksgiving
		observed(time.Date(year, time.December, 25, 0, 0, 0, 0, time.UTC)), // Christmas
	}
	if year >= 2022 {
		hs = append(hs, observed(time.Date(year, time.June, 19, 0, 0, 0, 0, time.UTC))) // Juneteenth
	}
	return hs
}

// observed shifts a weekend holiday to the exchange's observed weekday:
// Saturday back to Friday, Sunday forward to Monday.
func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

func nthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, 1)
	}
	return d.AddDate(0, 0, 7*(n-1))
}

func lastWeekday(year int, month time.Month, wd time.Weekday) time.Time {
	d := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// easterSunday computes Gregorian Easter (anonymous Gregorian algorithm).
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
