package srs

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseGrade(t *testing.T) {
	testCases := []struct {
		in   string
		want Grade
	}{
		{"Again", Again},
		{"hard", Hard},
		{" GOOD ", Good},
		{"easy", Easy},
		{"1", Again},
		{"4", Easy},
	}
	for _, tc := range testCases {
		got, err := ParseGrade(tc.in)
		if err != nil {
			t.Fatalf("ParseGrade(%q) returned error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseGrade(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}

	for _, bad := range []string{"", "0", "5", "okay"} {
		if _, err := ParseGrade(bad); !errors.Is(err, ErrInvalidGrade) {
			t.Errorf("ParseGrade(%q) error = %v, want ErrInvalidGrade", bad, err)
		}
	}
}

func TestStatusJSON(t *testing.T) {
	for _, s := range []Status{Learning, Reviewing, Relearning} {
		data, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("json.Marshal(%v): %v", s, err)
		}
		var got Status
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("json.Unmarshal(%s): %v", data, err)
		}
		if got != s {
			t.Errorf("round trip of %v = %v", s, got)
		}
	}

	if _, err := json.Marshal(Status(0)); err == nil {
		t.Error("json.Marshal(Status(0)) should return an error")
	}
	var s Status
	if err := json.Unmarshal([]byte(`"graduated"`), &s); !errors.Is(err, ErrInvalidState) {
		t.Errorf("unmarshal unknown status error = %v, want ErrInvalidState", err)
	}
}

func TestGradeString(t *testing.T) {
	if Easy.String() != "Easy" || Grade(7).String() != "Grade(7)" {
		t.Errorf("unexpected grade names: %s %s", Easy, Grade(7))
	}
}
