package chart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tftdiet/tft/internal/api"
)

func TestMondayIndex(t *testing.T) {
	assert.Equal(t, 0, MondayIndex(time.Monday))
	assert.Equal(t, 5, MondayIndex(time.Saturday))
	assert.Equal(t, 6, MondayIndex(time.Sunday))
}

func TestBuild(t *testing.T) {
	// Wednesday.
	today := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	s := Build([]api.HistoryItem{
		{Value: 1800, Weekday: 2}, // Wednesday, today
		{Value: 2100, Weekday: 0}, // Monday
		{Value: 999, Weekday: 9},
	}, api.Rates{BMR: 1600, TDEE: 2200}, today)

	assert.Equal(t, []string{"Thursday", "Friday", "Saturday", "Sunday", "Monday", "Tuesday", "Wednesday"}, s.Labels)
	assert.Equal(t, "2024-04-25", s.Dates[0])
	assert.Equal(t, "2024-05-01", s.Dates[6])
	assert.Equal(t, 2200.0, s.Limit)

	require.NotNil(t, s.Calories[6])
	assert.Equal(t, 1800.0, *s.Calories[6])
	require.NotNil(t, s.Calories[4])
	assert.Equal(t, 2100.0, *s.Calories[4])
	assert.Nil(t, s.Calories[0])
	assert.Equal(t, 3900.0, s.Total())
}

func TestCache(t *testing.T) {
	var c Cache
	_, ok := c.Get()
	assert.False(t, ok)

	c.Set(Series{Limit: 2000})
	got, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, 2000.0, got.Limit)

	c.Invalidate()
	_, ok = c.Get()
	assert.False(t, ok)
}
