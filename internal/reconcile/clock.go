package reconcile

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidClock signals a time-of-day string the parser does not
// accept. Callers treat it as "skip reconciliation for this item".
var ErrInvalidClock = errors.New("invalid clock value")

// Fragment is a parsed time-of-day. OffsetMin is the UTC offset in
// minutes when the input carried one ("Z" or "±HH:MM"), nil otherwise.
type Fragment struct {
	Hour      int
	Minute    int
	Second    int
	Millis    int
	OffsetMin *int
}

// ParseClock parses "HH:MM", "HH:MM:SS" or "HH:MM:SS.mmm", each with an
// optional trailing "Z" or "±HH:MM" offset. Hours run 00-23 and
// minutes/seconds 00-59; any deviation yields ErrInvalidClock.
func ParseClock(raw string) (Fragment, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Fragment{}, ErrInvalidClock
	}

	s, offset, err := splitOffset(s)
	if err != nil {
		return Fragment{}, err
	}

	millis := 0
	hasFrac := false
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		hasFrac = true
		frac := s[dot+1:]
		if len(frac) == 0 || len(frac) > 3 {
			return Fragment{}, ErrInvalidClock
		}
		n, err := parseDigits(frac)
		if err != nil {
			return Fragment{}, err
		}
		for i := len(frac); i < 3; i++ {
			n *= 10
		}
		millis = n
		s = s[:dot]
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Fragment{}, ErrInvalidClock
	}

	frag := Fragment{Millis: millis, OffsetMin: offset}
	if frag.Hour, err = parseField(parts[0], 23); err != nil {
		return Fragment{}, err
	}
	if frag.Minute, err = parseField(parts[1], 59); err != nil {
		return Fragment{}, err
	}
	if len(parts) == 3 {
		if frag.Second, err = parseField(parts[2], 59); err != nil {
			return Fragment{}, err
		}
	} else if hasFrac {
		// fractional seconds without a seconds field
		return Fragment{}, ErrInvalidClock
	}
	return frag, nil
}

// splitOffset strips a trailing "Z" or "±HH:MM" and returns the offset
// in minutes, or nil when none is present.
func splitOffset(s string) (string, *int, error) {
	if strings.HasSuffix(s, "Z") {
		zero := 0
		return s[:len(s)-1], &zero, nil
	}

	// "±HH:MM" is exactly six characters; a shorter string cannot carry
	// both a clock and an offset.
	if len(s) < 6+5 {
		if idx := strings.LastIndexAny(s, "+-"); idx > 0 {
			return "", nil, ErrInvalidClock
		}
		return s, nil, nil
	}
	idx := strings.LastIndexAny(s, "+-")
	if idx != len(s)-6 {
		return s, nil, nil
	}

	spec := s[idx:]
	h, err := parseField(spec[1:3], 23)
	if err != nil {
		return "", nil, err
	}
	if spec[3] != ':' {
		return "", nil, ErrInvalidClock
	}
	m, err := parseField(spec[4:6], 59)
	if err != nil {
		return "", nil, err
	}
	min := h*60 + m
	if spec[0] == '-' {
		min = -min
	}
	return s[:idx], &min, nil
}

func parseField(s string, max int) (int, error) {
	if len(s) != 2 {
		return 0, ErrInvalidClock
	}
	n, err := parseDigits(s)
	if err != nil {
		return 0, err
	}
	if n > max {
		return 0, ErrInvalidClock
	}
	return n, nil
}

func parseDigits(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, ErrInvalidClock
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrInvalidClock
	}
	return n, nil
}
