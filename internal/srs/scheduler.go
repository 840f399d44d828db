package srs

import (
	"fmt"
	"math"
)

// Options returns the four review options for s, ordered Again, Hard, Good,
// Easy. Their intervals never decrease along that order. s is not modified.
func Options(s CardState) ([]ReviewOption, error) {
	if err := Validate(s); err != nil {
		return nil, err
	}
	s = Clamp(s)

	var next [4]CardState
	switch s.Status {
	case Learning, Relearning:
		next = learningStates(s)
	case Reviewing:
		next = reviewingStates(s)
	}

	opts := make([]ReviewOption, 0, len(Grades))
	for i, g := range Grades {
		opts = append(opts, ReviewOption{
			Grade:           g,
			Next:            next[i],
			DisplayInterval: next[i].IntervalMillis(),
		})
	}
	return opts, nil
}

// Apply returns the state that results from grading s with g.
func Apply(s CardState, g Grade) (CardState, error) {
	if !g.IsValid() {
		return CardState{}, fmt.Errorf("%w: %d", ErrInvalidGrade, int(g))
	}
	opts, err := Options(s)
	if err != nil {
		return CardState{}, err
	}
	return opts[g-Again].Next, nil
}

// learningStates covers both Learning and Relearning. Relearning has a
// single step: Hard and Good return the card to Reviewing directly.
func learningStates(s CardState) [4]CardState {
	ease := s.Ease
	again := CardState{Status: s.Status, Interval: millis(Minute), Ease: ease}

	var hard, good CardState
	if s.Status == Learning {
		hard = CardState{Status: Learning, Interval: millis(6 * Minute), Ease: ease, Step: 1}
		if s.Step == 0 {
			good = CardState{Status: Learning, Interval: millis(10 * Minute), Ease: ease, Step: 1}
		} else {
			good = CardState{Status: Reviewing, Interval: millis(Day), Ease: ease}
		}
	} else {
		hard = CardState{Status: Reviewing, Interval: millis(6 * Minute), Ease: ease}
		good = CardState{Status: Reviewing, Interval: millis(Day), Ease: ease}
	}

	easy := CardState{Status: Reviewing, Interval: millis(4 * Day), Ease: ease}
	return [4]CardState{again, hard, good, easy}
}

func reviewingStates(s CardState) [4]CardState {
	ease := s.Ease
	last := Day
	if s.Interval != nil {
		last = *s.Interval
	}

	againIvl := 10 * Minute
	// Hard is never shorter than Again, so the options stay ordered.
	hardIvl := max(againIvl, 5*Minute, scale(last, hardIntervalMultiplier))
	goodIvl := max(hardIvl+Minute, scale(last, ease))
	easyIvl := max(goodIvl+Minute, scale(last, ease*easyBonusMultiplier))

	return [4]CardState{
		{Status: Relearning, Interval: millis(againIvl), Ease: floorEase(ease + againEaseDelta)},
		{Status: Reviewing, Interval: millis(hardIvl), Ease: floorEase(ease + hardEaseDelta)},
		{Status: Reviewing, Interval: millis(goodIvl), Ease: ease},
		{Status: Reviewing, Interval: millis(easyIvl), Ease: floorEase(ease + easyEaseDelta)},
	}
}

// scale multiplies an interval and rounds half up to whole milliseconds.
func scale(ms int64, factor float64) int64 {
	return int64(math.Floor(float64(ms)*factor + 0.5))
}
