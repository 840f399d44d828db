package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/conorfennell/wordhash/internal/domain"
	"github.com/conorfennell/wordhash/internal/wordkey"
)

const (
	wordPrefix       = "W:"
	definitionPrefix = "D:"
)

type state int

const (
	seeking state = iota
	readingWord
	readingDefinition
)

// IsWordList reports whether path has an extension ParseFile understands.
func IsWordList(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".md":
		return true
	}
	return false
}

// ParseFile reads a word list from path. JSON files are decoded with
// ParseJSON, markdown files with Parse; markdown entries become fresh cards
// due at now.
func ParseFile(path string, now time.Time) ([]domain.Word, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(file, now)
	case ".md":
		entries, err := Parse(file)
		if err != nil {
			return nil, err
		}
		words := make([]domain.Word, 0, len(entries))
		for _, e := range entries {
			words = append(words, domain.NewWord(e, now))
		}
		return words, nil
	default:
		return nil, fmt.Errorf("unsupported word list %s", path)
	}
}

// Parse reads markdown word lists of the form
//
//	W: ephemeral
//	D: lasting for a very short time
//
// Definitions may span several lines; a blank line, a "---" separator or a
// new W: line ends the entry.
func Parse(r io.Reader) ([]domain.Entry, error) {
	scanner := bufio.NewScanner(r)
	var entries []domain.Entry
	var current domain.Entry
	var block []string
	currentState := seeking

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(block, "\n"))
		switch currentState {
		case readingWord:
			current.Word = content
		case readingDefinition:
			current.Definition = content
		}
		block = nil
	}

	finishEntry := func() {
		flushBlock()
		if current.Word != "" && current.Definition != "" {
			current.Hash = wordkey.Hash(current)
			entries = append(entries, current)
		}
		current = domain.Entry{}
		currentState = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "---":
			finishEntry()
		case strings.HasPrefix(line, wordPrefix):
			finishEntry()
			currentState = readingWord
			block = append(block, strings.TrimPrefix(line[len(wordPrefix):], " "))
		case strings.HasPrefix(line, definitionPrefix):
			flushBlock()
			currentState = readingDefinition
			block = append(block, strings.TrimPrefix(line[len(definitionPrefix):], " "))
		case strings.TrimSpace(line) == "":
			if currentState == readingDefinition {
				finishEntry()
			}
		case currentState != seeking:
			block = append(block, line)
		}
	}

	finishEntry() // Finish the very last entry in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
