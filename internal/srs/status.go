package srs

import (
	"encoding/json"
	"fmt"
)

// Status is the lifecycle phase of a card.
type Status int

const (
	Learning   Status = iota + 1 // New card, working through the learning steps.
	Reviewing                    // Graduated into the recurring review cycle.
	Relearning                   // Lapsed during review.
)

var (
	statusNames  = [...]string{Learning: "learning", Reviewing: "reviewing", Relearning: "relearning"}
	statusByName = map[string]Status{
		"learning":   Learning,
		"reviewing":  Reviewing,
		"relearning": Relearning,
	}
)

// IsValid reports whether s is one of the three defined statuses.
func (s Status) IsValid() bool {
	return s >= Learning && s <= Relearning
}

// String returns the status name, or "Status(n)" for invalid values.
func (s Status) String() string {
	if s.IsValid() {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus converts a stored status name to a Status.
func ParseStatus(name string) (Status, error) {
	s, ok := statusByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: unknown status %q", ErrInvalidState, name)
	}
	return s, nil
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: status %d", ErrInvalidState, int(s))
	}
	return []byte(statusNames[s]), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	v, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// MarshalJSON encodes the status as a JSON string.
func (s Status) MarshalJSON() ([]byte, error) {
	text, err := s.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON expects a JSON string.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("%w: status %s", ErrInvalidState, data)
	}
	return s.UnmarshalText([]byte(name))
}
