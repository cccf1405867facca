package market

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrEmptyTimeline  = errors.New("market: empty timeline")
	ErrClockExhausted = errors.New("market: clock exhausted")
)

// Timeline is the ordered sequence of timestamps driving a simulation.
type Timeline []time.Time

// NewTimeline returns the sorted, deduplicated union of every series'
// bar timestamps.
func NewTimeline(series map[string][]Bar) (Timeline, error) {
	seen := make(map[int64]time.Time)
	for _, bars := range series {
		for _, b := range bars {
			seen[b.Time.UnixNano()] = b.Time.UTC()
		}
	}
	if len(seen) == 0 {
		return nil, ErrEmptyTimeline
	}

	tl := make(Timeline, 0, len(seen))
	for _, t := range seen {
		tl = append(tl, t)
	}
	sort.Slice(tl, func(i, j int) bool { return tl[i].Before(tl[j]) })
	return tl, nil
}

// Validate requires a non-empty, strictly increasing timeline.
func (tl Timeline) Validate() error {
	if len(tl) == 0 {
		return ErrEmptyTimeline
	}
	for i := 1; i < len(tl); i++ {
		if !tl[i].After(tl[i-1]) {
			return fmt.Errorf("market: timeline not strictly increasing at %d (%s)", i, tl[i].Format(time.RFC3339))
		}
	}
	return nil
}

func (tl Timeline) Start() time.Time {
	if len(tl) == 0 {
		return time.Time{}
	}
	return tl[0]
}

func (tl Timeline) End() time.Time {
	if len(tl) == 0 {
		return time.Time{}
	}
	return tl[len(tl)-1]
}

// Clock walks a Timeline once. Reset rewinds it to the beginning.
type Clock struct {
	tl  Timeline
	idx int
}

// NewClock validates tl and returns a clock positioned before its first timestamp.
func NewClock(tl Timeline) (*Clock, error) {
	if err := tl.Validate(); err != nil {
		return nil, err
	}
	return &Clock{tl: tl}, nil
}

func (c *Clock) HasNext() bool {
	return c.idx < len(c.tl)
}

// Next returns the next timestamp and advances the clock. Calling Next on
// an exhausted clock returns ErrClockExhausted.
func (c *Clock) Next() (time.Time, error) {
	if !c.HasNext() {
		return time.Time{}, ErrClockExhausted
	}
	t := c.tl[c.idx]
	c.idx++
	return t, nil
}

func (c *Clock) Reset() {
	c.idx = 0
}

// Current returns the most recently emitted timestamp.
func (c *Clock) Current() (time.Time, bool) {
	if c.idx == 0 {
		return time.Time{}, false
	}
	return c.tl[c.idx-1], true
}

// Len is the total number of steps in the clock's timeline.
func (c *Clock) Len() int {
	return len(c.tl)
}

func (c *Clock) Timeline() Timeline {
	return c.tl
}
