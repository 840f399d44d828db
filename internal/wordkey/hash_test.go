package wordkey

import (
	"testing"

	"github.com/conorfennell/wordhash/internal/domain"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		in, want string
	}{
		{"  Ephemeral \r\n", "ephemeral"},
		{"Ad   Hoc", "ad hoc"},
		{"\tFAÇADE", "façade"},
		{"", ""},
	}
	for _, tc := range testCases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestHash(t *testing.T) {
	t.Run("generates correct hash", func(t *testing.T) {
		// Hash for "ephemeral"
		expected := "8341425cafede9d24b0599aefdfdeff1c1526ed75b07217eb99bf8c0b7498b81"
		if got := Hash(domain.Entry{Word: "Ephemeral", Definition: "Lasting a short time."}); got != expected {
			t.Errorf("Expected hash '%s', but got '%s'", expected, got)
		}
	})

	t.Run("definition does not affect hash", func(t *testing.T) {
		a := domain.Entry{Word: "Ubiquitous", Definition: "Found everywhere."}
		b := domain.Entry{Word: " ubiquitous", Definition: "Present everywhere at once."}
		if Hash(a) != Hash(b) {
			t.Error("Expected entries with the same word to share a hash")
		}
	})

	t.Run("different words have different hashes", func(t *testing.T) {
		if Hash(domain.Entry{Word: "one"}) == Hash(domain.Entry{Word: "two"}) {
			t.Error("Expected hashes for different words to be different")
		}
	})
}
