package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustClock(t *testing.T, raw string) Fragment {
	t.Helper()
	frag, err := ParseClock(raw)
	require.NoError(t, err)
	return frag
}

func TestComposeWithExplicitOffset(t *testing.T) {
	frag := mustClock(t, "08:00-06:00")
	got, local := Compose(CivilDate{2024, 1, 5}, frag, nil)

	want := time.Date(2024, 1, 5, 8, 0, 0, 0, time.FixedZone("", -6*3600)).Unix()
	assert.Equal(t, want, got)
	assert.False(t, local)
}

func TestComposeFragmentOffsetBeatsDefault(t *testing.T) {
	frag := mustClock(t, "08:00Z")
	def := -360
	got, local := Compose(CivilDate{2024, 1, 5}, frag, &def)

	want := time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC).Unix()
	assert.Equal(t, want, got)
	assert.False(t, local)
}

func TestComposeUsesDefaultOffset(t *testing.T) {
	frag := mustClock(t, "08:30")
	def := -360
	got, local := Compose(CivilDate{2024, 1, 5}, frag, &def)

	want := time.Date(2024, 1, 5, 8, 30, 0, 0, time.FixedZone("", -6*3600)).Unix()
	assert.Equal(t, want, got)
	assert.False(t, local)
}

func TestComposeLocalFallbackIsFlagged(t *testing.T) {
	frag := mustClock(t, "08:30")
	got, local := Compose(CivilDate{2024, 1, 5}, frag, nil)

	want := time.Date(2024, 1, 5, 8, 30, 0, 0, time.Local).Unix()
	assert.Equal(t, want, got)
	assert.True(t, local)
}

func TestComposeWindowSameDay(t *testing.T) {
	def := 0
	start, end, local := ComposeWindow(CivilDate{2024, 3, 10},
		mustClock(t, "08:00"), mustClock(t, "17:15"), &def)

	assert.False(t, local)
	assert.Equal(t, int64((9*60+15)*60), end-start)
}

func TestComposeWindowRollsForwardAcrossMidnight(t *testing.T) {
	def := 0
	start, end, _ := ComposeWindow(CivilDate{2024, 3, 10},
		mustClock(t, "23:30"), mustClock(t, "00:15"), &def)

	assert.Greater(t, end, start)
	assert.Equal(t, int64(45*60), end-start)
}

func TestComposeWindowRollsForwardOnEqualTimes(t *testing.T) {
	def := 0
	start, end, _ := ComposeWindow(CivilDate{2024, 12, 31},
		mustClock(t, "09:00"), mustClock(t, "09:00"), &def)

	// rolling past a month and year boundary
	assert.Equal(t, int64(24*3600), end-start)
}
