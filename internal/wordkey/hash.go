// Package wordkey derives the stable identity of a vocabulary entry.
package wordkey

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/wordhash/internal/domain"
)

// Normalize returns the canonical form of a word: trimmed, lowercased, with
// runs of inner whitespace collapsed to a single space.
func Normalize(word string) string {
	w := strings.ReplaceAll(word, "\r\n", "\n")
	w = strings.ToLower(w)
	return strings.Join(strings.Fields(w), " ")
}

// Hash returns the SHA-256 hex digest of the entry's normalized word.
// The definition is not part of the key so that editing a definition keeps
// the word's review progress.
func Hash(e domain.Entry) string {
	sum := sha256.Sum256([]byte(Normalize(e.Word)))
	return fmt.Sprintf("%x", sum)
}
