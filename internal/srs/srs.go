// Package srs implements the four-grade spaced-repetition scheduler.
//
// The scheduler is a pure function of a card's state: Options computes the
// four choices a reviewer is offered and the state each one leads to. It
// holds no state of its own and is safe for concurrent use.
package srs

import (
	"fmt"
	"math"
	"time"
)

// Interval units in milliseconds.
const (
	Minute int64 = 60 * 1000
	Hour         = 60 * Minute
	Day          = 24 * Hour
)

const (
	InitialEase = 2.5
	MinimumEase = 1.3

	againEaseDelta = -0.20
	hardEaseDelta  = -0.15
	easyEaseDelta  = 0.15

	hardIntervalMultiplier = 1.2
	easyBonusMultiplier    = 1.5
)

// CardState is the persisted scheduling state of one vocabulary item.
type CardState struct {
	Status   Status  `json:"status"`
	Interval *int64  `json:"interval"` // milliseconds; nil until first scheduled.
	Ease     float64 `json:"ease"`
	Step     int     `json:"step"` // 0 or 1, only meaningful while Learning.
}

// ReviewOption is one grade a reviewer can choose and where it leads.
type ReviewOption struct {
	Grade           Grade     `json:"grade"`
	Next            CardState `json:"nextState"`
	DisplayInterval int64     `json:"displayInterval"`
}

// NewCard returns the state of a word that has just entered the deck.
func NewCard() CardState {
	return CardState{
		Status: Learning,
		Ease:   InitialEase,
	}
}

// IntervalMillis returns the interval, treating nil as zero.
func (s CardState) IntervalMillis() int64 {
	if s.Interval == nil {
		return 0
	}
	return *s.Interval
}

// IntervalDuration returns the interval as a time.Duration.
func (s CardState) IntervalDuration() time.Duration {
	return time.Duration(s.IntervalMillis()) * time.Millisecond
}

// Validate reports whether s can be scheduled. The error wraps
// ErrInvalidState.
func Validate(s CardState) error {
	if !s.Status.IsValid() {
		return fmt.Errorf("%w: status %d", ErrInvalidState, int(s.Status))
	}
	if s.Interval != nil && *s.Interval < 0 {
		return fmt.Errorf("%w: negative interval %d", ErrInvalidState, *s.Interval)
	}
	if s.Step < 0 || s.Step > 1 {
		return fmt.Errorf("%w: step %d", ErrInvalidState, s.Step)
	}
	if s.Step != 0 && s.Status != Learning {
		return fmt.Errorf("%w: step %d while %s", ErrInvalidState, s.Step, s.Status)
	}
	return nil
}

// Clamp raises ease to the minimum. A NaN ease is replaced by the initial
// ease. Applied to every state read from storage.
func Clamp(s CardState) CardState {
	if math.IsNaN(s.Ease) {
		s.Ease = InitialEase
	}
	s.Ease = floorEase(s.Ease)
	if s.Interval != nil {
		v := *s.Interval
		s.Interval = &v
	}
	return s
}

// NextReview returns when a card in state s becomes due, counting from now.
func NextReview(now time.Time, s CardState) time.Time {
	return now.Add(s.IntervalDuration())
}

func floorEase(e float64) float64 {
	return math.Max(MinimumEase, e)
}

func millis(v int64) *int64 {
	return &v
}
