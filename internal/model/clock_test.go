package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:05", want: 9*60 + 5},
		{in: "18:30", want: 18*60 + 30},
		{in: "23:59", want: 23*60 + 59},
		{in: "18:30:00", want: 18*60 + 30},
		{in: " 12:00 ", want: 12 * 60},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestClockRendering(t *testing.T) {
	c := Clock(18*60 + 5)
	assert.Equal(t, "18:05", c.String())
	assert.Equal(t, "18:05:00", c.SQL())
	assert.Equal(t, "00:00", Clock(0).String())
}

func TestTimeSlotContains(t *testing.T) {
	dinner := TimeSlot{Start: 16 * 60, End: 22 * 60}
	assert.True(t, dinner.Contains(16*60))
	assert.True(t, dinner.Contains(21*60+59))
	assert.False(t, dinner.Contains(22*60), "end is exclusive")
	assert.False(t, dinner.Contains(15*60+59))

	overnight := TimeSlot{Start: 22 * 60, End: 2 * 60}
	assert.True(t, overnight.Contains(23*60))
	assert.True(t, overnight.Contains(60))
	assert.False(t, overnight.Contains(2*60))
	assert.False(t, overnight.Contains(12*60))
}

func TestWithinOpeningHours(t *testing.T) {
	s := DefaultSiteSettings()
	assert.True(t, s.WithinOpeningHours(12*60), "opening time itself is bookable")
	assert.True(t, s.WithinOpeningHours(22*60), "closing time itself is bookable")
	assert.True(t, s.WithinOpeningHours(18*60))
	assert.False(t, s.WithinOpeningHours(11*60+59))
	assert.False(t, s.WithinOpeningHours(22*60+1))
}
