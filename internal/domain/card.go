package domain

import (
	"time"

	"github.com/conorfennell/wordhash/internal/srs"
)

// Entry is a single word/definition pair as it appears in a word list.
type Entry struct {
	Word       string
	Definition string
	Hash       string
}

// Word is an entry together with its scheduling state.
// NextReview is derived from the state after every grading; a word is due
// once NextReview is not after the current time.
type Word struct {
	Entry
	State      srs.CardState
	NextReview time.Time
}

// NewWord returns e as a fresh card that is due at now.
func NewWord(e Entry, now time.Time) Word {
	return Word{
		Entry:      e,
		State:      srs.NewCard(),
		NextReview: now,
	}
}

// IsDue reports whether the word should be reviewed at now.
func (w Word) IsDue(now time.Time) bool {
	return !w.NextReview.After(now)
}

// ReviewLog records a single grading of a word and the state it produced.
type ReviewLog struct {
	ID        string
	WordHash  string
	Timestamp time.Time
	Grade     srs.Grade
	State     srs.CardState
}
