package srs

import "errors"

// Sentinel errors for the srs package. Check with errors.Is.
var (
	ErrInvalidState = errors.New("srs: invalid card state")
	ErrInvalidGrade = errors.New("srs: invalid grade")
)
