package reconcile

import "time"

// CivilDate is a calendar date with no time-of-day or zone attached.
type CivilDate struct {
	Year  int
	Month int
	Day   int
}

// Compose combines a calendar date and a parsed time-of-day into epoch
// seconds. Offset precedence: the fragment's own offset, then
// defaultOffsetMin, then the process-local zone. The returned flag is
// true when the local-zone path was taken; that path is environment
// dependent and callers are expected to log it.
func Compose(date CivilDate, frag Fragment, defaultOffsetMin *int) (int64, bool) {
	loc := time.Local
	local := true

	switch {
	case frag.OffsetMin != nil:
		loc = offsetZone(*frag.OffsetMin)
		local = false
	case defaultOffsetMin != nil:
		loc = offsetZone(*defaultOffsetMin)
		local = false
	}

	t := time.Date(date.Year, time.Month(date.Month), date.Day,
		frag.Hour, frag.Minute, frag.Second, frag.Millis*int(time.Millisecond), loc)
	return t.Unix(), local
}

// ComposeWindow composes a start and end instant on the same calendar
// date. When naive composition would not put the end after the start
// (the window crosses midnight), the end date rolls forward one day so
// that end > start always holds.
func ComposeWindow(date CivilDate, start, end Fragment, defaultOffsetMin *int) (int64, int64, bool) {
	startAt, localStart := Compose(date, start, defaultOffsetMin)
	endAt, localEnd := Compose(date, end, defaultOffsetMin)
	if endAt <= startAt {
		endAt, localEnd = Compose(CivilDate{date.Year, date.Month, date.Day + 1}, end, defaultOffsetMin)
	}
	return startAt, endAt, localStart || localEnd
}

func offsetZone(minutes int) *time.Location {
	return time.FixedZone("", minutes*60)
}
