// Package chart builds the seven-day calorie series shown next to the meal
// list, and caches it until a meal changes.
package chart

import (
	"sync"
	"time"

	"github.com/tftdiet/tft/internal/api"
)

// Days is the length of the history window.
const Days = 7

// Series is the calorie consumption of the last Days days, oldest first,
// against the daily limit (TDEE).
type Series struct {
	Labels   []string   `json:"labels"`
	Dates    []string   `json:"dates"`
	Calories []*float64 `json:"calories"`
	Limit    float64    `json:"limit"`
	BMR      float64    `json:"bmr"`
}

// MondayIndex converts a time.Weekday to the history numbering, where
// Monday is 0 and Sunday is 6.
func MondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// Build lays history out over the Days days ending on today. Each history
// item lands on the slot whose weekday it names; weekdays outside 0..6 are
// ignored and days without history stay nil.
func Build(history []api.HistoryItem, rates api.Rates, today time.Time) Series {
	s := Series{
		Labels:   make([]string, Days),
		Dates:    make([]string, Days),
		Calories: make([]*float64, Days),
		Limit:    rates.TDEE,
		BMR:      rates.BMR,
	}

	slot := make(map[int]int, Days)
	for i := 0; i < Days; i++ {
		day := today.AddDate(0, 0, i-(Days-1))
		s.Labels[i] = day.Weekday().String()
		s.Dates[i] = day.Format("2006-01-02")
		slot[MondayIndex(day.Weekday())] = i
	}

	for _, item := range history {
		i, ok := slot[item.Weekday]
		if !ok {
			continue
		}
		v := item.Value
		s.Calories[i] = &v
	}
	return s
}

// Total sums the known calorie values.
func (s Series) Total() float64 {
	var total float64
	for _, c := range s.Calories {
		if c != nil {
			total += *c
		}
	}
	return total
}

// Cache holds the last built series. It is safe for concurrent use.
type Cache struct {
	mu     sync.Mutex
	series *Series
}

// Get returns the cached series, if any.
func (c *Cache) Get() (Series, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.series == nil {
		return Series{}, false
	}
	return *c.series, true
}

// Set stores s.
func (c *Cache) Set(s Series) {
	c.mu.Lock()
	c.series = &s
	c.mu.Unlock()
}

// Invalidate drops the cached series so the next read rebuilds it.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.series = nil
	c.mu.Unlock()
}
