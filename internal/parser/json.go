package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/wordhash/internal/domain"
	"github.com/conorfennell/wordhash/internal/srs"
	"github.com/conorfennell/wordhash/internal/wordkey"
)

// ErrInvalidWordList is returned when an uploaded JSON file does not have
// the expected shape.
var ErrInvalidWordList = errors.New("invalid word list")

var validate = validator.New(validator.WithRequiredStructEnabled())

// RawItem is one element of a JSON word list. Plain lists carry only Word
// and Definition; exported decks also carry the scheduling fields, and the
// oldest exports carry a known/unknown Status instead.
type RawItem struct {
	Word           string          `json:"word" validate:"required"`
	Definition     string          `json:"definition" validate:"required"`
	Status         string          `json:"status,omitempty"`
	SRSState       json.RawMessage `json:"srsState,omitempty"`
	NextReviewDate *float64        `json:"nextReviewDate,omitempty"`
}

// rawState mirrors a stored srsState with every field optional, so that
// missing fields can be told apart from zero values.
type rawState struct {
	Status   *string  `json:"status"`
	Interval *float64 `json:"interval"`
	Ease     *float64 `json:"ease"`
	Step     *float64 `json:"step"`
}

// ParseJSON decodes an array of word/definition objects. Every item must
// have a non-blank word and definition, otherwise the whole list is
// rejected. Items are passed through Normalize.
func ParseJSON(r io.Reader, now time.Time) ([]domain.Word, error) {
	var items []RawItem
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWordList, err)
	}

	words := make([]domain.Word, 0, len(items))
	for i, item := range items {
		item.Word = strings.TrimSpace(item.Word)
		item.Definition = strings.TrimSpace(item.Definition)
		if err := validate.Struct(item); err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrInvalidWordList, i, err)
		}
		w, _ := Normalize(item, now)
		words = append(words, w)
	}
	return words, nil
}

// Normalize converts a stored or uploaded item into a schedulable word.
//
// An item with a complete, valid srsState and a nextReviewDate keeps both
// (ease clamped to the minimum). An item whose srsState is missing fields or
// invalid becomes a new card due at now. Old items marked "known" start in
// review with a one-day interval, due at now. Anything else is a new card.
// The boolean is false when the word or definition is blank.
func Normalize(item RawItem, now time.Time) (domain.Word, bool) {
	entry := domain.Entry{
		Word:       strings.TrimSpace(item.Word),
		Definition: strings.TrimSpace(item.Definition),
	}
	if entry.Word == "" || entry.Definition == "" {
		return domain.Word{}, false
	}
	entry.Hash = wordkey.Hash(entry)

	if len(item.SRSState) > 0 && string(item.SRSState) != "null" {
		state, err := decodeState(item.SRSState)
		if err != nil || item.NextReviewDate == nil {
			return domain.NewWord(entry, now), true
		}
		return domain.Word{
			Entry:      entry,
			State:      state,
			NextReview: time.UnixMilli(int64(math.Round(*item.NextReviewDate))),
		}, true
	}

	w := domain.NewWord(entry, now)
	if item.Status == "known" {
		day := srs.Day
		w.State.Status = srs.Reviewing
		w.State.Interval = &day
	}
	return w, true
}

func decodeState(data json.RawMessage) (srs.CardState, error) {
	var raw rawState
	if err := json.Unmarshal(data, &raw); err != nil {
		return srs.CardState{}, err
	}
	if raw.Status == nil || raw.Ease == nil || raw.Step == nil {
		return srs.CardState{}, fmt.Errorf("%w: incomplete state", srs.ErrInvalidState)
	}

	status, err := srs.ParseStatus(*raw.Status)
	if err != nil {
		return srs.CardState{}, err
	}
	state := srs.CardState{
		Status: status,
		Ease:   *raw.Ease,
		Step:   int(*raw.Step),
	}
	if raw.Interval != nil {
		ms := int64(math.Round(*raw.Interval))
		state.Interval = &ms
	}
	if err := srs.Validate(state); err != nil {
		return srs.CardState{}, err
	}
	return srs.Clamp(state), nil
}
