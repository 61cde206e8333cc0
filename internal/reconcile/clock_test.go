package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offsetPtr(min int) *int { return &min }

func TestParseClockAccepts(t *testing.T) {
	tests := []struct {
		raw  string
		want Fragment
	}{
		{"09:05", Fragment{Hour: 9, Minute: 5}},
		{"00:00", Fragment{}},
		{"23:59:59", Fragment{Hour: 23, Minute: 59, Second: 59}},
		{"09:05:30Z", Fragment{Hour: 9, Minute: 5, Second: 30, OffsetMin: offsetPtr(0)}},
		{"09:05Z", Fragment{Hour: 9, Minute: 5, OffsetMin: offsetPtr(0)}},
		{"08:00-06:00", Fragment{Hour: 8, OffsetMin: offsetPtr(-360)}},
		{"08:00+05:30", Fragment{Hour: 8, OffsetMin: offsetPtr(330)}},
		{"14:30:15.250", Fragment{Hour: 14, Minute: 30, Second: 15, Millis: 250}},
		{"14:30:15.5-06:00", Fragment{Hour: 14, Minute: 30, Second: 15, Millis: 500, OffsetMin: offsetPtr(-360)}},
		{" 09:05 ", Fragment{Hour: 9, Minute: 5}},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.raw)
		require.NoError(t, err, "ParseClock(%q)", tt.raw)
		assert.Equal(t, tt.want.Hour, got.Hour, "hour of %q", tt.raw)
		assert.Equal(t, tt.want.Minute, got.Minute, "minute of %q", tt.raw)
		assert.Equal(t, tt.want.Second, got.Second, "second of %q", tt.raw)
		assert.Equal(t, tt.want.Millis, got.Millis, "millis of %q", tt.raw)
		if tt.want.OffsetMin == nil {
			assert.Nil(t, got.OffsetMin, "offset of %q", tt.raw)
		} else {
			require.NotNil(t, got.OffsetMin, "offset of %q", tt.raw)
			assert.Equal(t, *tt.want.OffsetMin, *got.OffsetMin, "offset of %q", tt.raw)
		}
	}
}

func TestParseClockRejects(t *testing.T) {
	invalid := []string{
		"",
		"  ",
		"25:00",
		"09:60",
		"09:05:61",
		"9:05",
		"09:5",
		"09",
		"09:05:30:10",
		"09:05x",
		"09:05:30.",
		"09:05:30.1234",
		"09:05.5",
		"09:05-6:00",
		"abc",
		"09:05:30+24:00",
	}
	for _, raw := range invalid {
		_, err := ParseClock(raw)
		assert.ErrorIs(t, err, ErrInvalidClock, "ParseClock(%q)", raw)
	}
}
