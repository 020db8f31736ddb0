package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anderle/table-reservation/internal/model"
)

func mustClock(t *testing.T, s string) model.Clock {
	t.Helper()
	c, err := model.ParseClock(s)
	require.NoError(t, err)
	return c
}

func slot(t *testing.T, id uint64, start, end string, capacity int) model.TimeSlot {
	t.Helper()
	return model.TimeSlot{
		ID:       id,
		Slug:     "slot",
		Label:    "Slot",
		Start:    mustClock(t, start),
		End:      mustClock(t, end),
		Capacity: capacity,
		IsActive: true,
	}
}

func TestMatchSlot(t *testing.T) {
	lunch := slot(t, 1, "12:00", "16:00", 20)
	dinner := slot(t, 2, "16:00", "22:00", 30)
	slots := []model.TimeSlot{lunch, dinner}

	tests := []struct {
		name   string
		at     string
		wantID uint64
		wantOK bool
	}{
		{"start of lunch", "12:00", 1, true},
		{"last minute of lunch", "15:59", 1, true},
		{"lunch end belongs to dinner", "16:00", 2, true},
		{"inside dinner", "19:30", 2, true},
		{"dinner end is exclusive", "22:00", 0, false},
		{"before opening", "11:00", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchSlot(slots, mustClock(t, tt.at))
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantID, got.ID)
			}
		})
	}
}

func TestMatchSlotSkipsInactive(t *testing.T) {
	closed := slot(t, 1, "12:00", "16:00", 20)
	closed.IsActive = false
	open := slot(t, 2, "12:00", "16:00", 10)

	got, ok := MatchSlot([]model.TimeSlot{closed, open}, mustClock(t, "13:00"))
	require.True(t, ok)
	assert.Equal(t, uint64(2), got.ID)
}

func TestMatchSlotOvernight(t *testing.T) {
	late := slot(t, 7, "22:00", "02:00", 15)
	slots := []model.TimeSlot{late}

	for _, at := range []string{"22:00", "23:30", "00:00", "01:59"} {
		_, ok := MatchSlot(slots, mustClock(t, at))
		assert.True(t, ok, "expected %s inside the overnight window", at)
	}
	for _, at := range []string{"02:00", "12:00", "21:59"} {
		_, ok := MatchSlot(slots, mustClock(t, at))
		assert.False(t, ok, "expected %s outside the overnight window", at)
	}
}

func TestEffectiveCapacity(t *testing.T) {
	s := slot(t, 1, "12:00", "16:00", 20)

	assert.Equal(t, 20, EffectiveCapacity(s, false, nil))
	assert.Equal(t, 0, EffectiveCapacity(s, true, nil), "day closure wins over everything")
	assert.Equal(t, 0, EffectiveCapacity(s, false, &model.SlotBlock{IsClosed: true}))
	assert.Equal(t, 12, EffectiveCapacity(s, false, &model.SlotBlock{BlockedSeats: 8}))
	assert.Equal(t, 0, EffectiveCapacity(s, false, &model.SlotBlock{BlockedSeats: 25}), "over-blocking clamps to zero")
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, 5, Remaining(20, 15))
	assert.Equal(t, 0, Remaining(20, 20))
	assert.Equal(t, 0, Remaining(20, 27), "overbooked never goes negative")
}

func TestCanEdit(t *testing.T) {
	today := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{"four days ahead", time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), true},
		{"exactly at the cutoff", time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC), true},
		{"two days ahead", time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), false},
		{"same day", today, false},
		{"in the past", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanEdit(today, tt.date, 3))
		})
	}
}

func TestCanEditUsesLocalCalendarDays(t *testing.T) {
	// 01:00 on Mar 10 east of UTC is still Mar 9 in UTC; the cutoff
	// must count from the local calendar day, so a reservation two
	// local days out is refused with a 3-day cutoff.
	east := time.FixedZone("UTC+2", 2*60*60)
	today := time.Date(2026, 3, 10, 1, 0, 0, 0, east)
	date := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	assert.False(t, CanEdit(today, date, 3))

	// 23:00 on Mar 9 west of UTC is Mar 10 in UTC; locally the
	// reservation is still a full three days away and editable.
	west := time.FixedZone("UTC-5", -5*60*60)
	today = time.Date(2026, 3, 9, 23, 0, 0, 0, west)
	assert.True(t, CanEdit(today, date, 3))
}

func TestDecide(t *testing.T) {
	s := slot(t, 1, "18:00", "22:00", 12)

	t.Run("fits", func(t *testing.T) {
		assert.Nil(t, decide(s, false, nil, 10, 2))
	})

	t.Run("last seat", func(t *testing.T) {
		assert.Nil(t, decide(s, false, nil, 11, 1))
	})

	t.Run("day closed", func(t *testing.T) {
		rej := decide(s, true, nil, 0, 2)
		require.NotNil(t, rej)
		assert.Equal(t, CodeDayClosed, rej.Code)
	})

	t.Run("day closure outranks slot closure", func(t *testing.T) {
		rej := decide(s, true, &model.SlotBlock{IsClosed: true}, 0, 2)
		require.NotNil(t, rej)
		assert.Equal(t, CodeDayClosed, rej.Code)
	})

	t.Run("slot closed", func(t *testing.T) {
		rej := decide(s, false, &model.SlotBlock{IsClosed: true}, 0, 2)
		require.NotNil(t, rej)
		assert.Equal(t, CodeSlotClosed, rej.Code)
	})

	t.Run("full with remaining", func(t *testing.T) {
		rej := decide(s, false, nil, 10, 3)
		require.NotNil(t, rej)
		assert.Equal(t, CodeSlotFull, rej.Code)
		assert.Equal(t, 2, rej.Remaining)
	})

	t.Run("first booking larger than capacity", func(t *testing.T) {
		rej := decide(s, false, nil, 0, 13)
		require.NotNil(t, rej)
		assert.Equal(t, CodeFirstBookingExceeds, rej.Code)
	})

	t.Run("oversized party on a busy slot is just full", func(t *testing.T) {
		rej := decide(s, false, nil, 1, 13)
		require.NotNil(t, rej)
		assert.Equal(t, CodeSlotFull, rej.Code)
	})

	t.Run("block shrinks the effective capacity", func(t *testing.T) {
		rej := decide(s, false, &model.SlotBlock{BlockedSeats: 10}, 0, 3)
		require.NotNil(t, rej)
		assert.Equal(t, CodeFirstBookingExceeds, rej.Code)
	})
}
