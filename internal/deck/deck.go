// Package deck applies the scheduler to the stored collection of words.
// It owns the deck-wide concerns: which words are due, the order they are
// shown in, and serialising gradings so none are lost.
package deck

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/wordhash/internal/domain"
	"github.com/conorfennell/wordhash/internal/srs"
	"github.com/conorfennell/wordhash/internal/storage"
)

// ErrWordNotFound is returned when a hash does not name a stored word.
var ErrWordNotFound = errors.New("deck: word not found")

// Service is safe for concurrent use.
type Service struct {
	db     *storage.DB
	logger *slog.Logger
	now    func() time.Time

	mu  sync.Mutex // serialises gradings and guards rng
	rng *rand.Rand
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRand overrides the shuffle source.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New creates a Service over db.
func New(db *storage.DB, opts ...Option) *Service {
	s := &Service{
		db:     db,
		logger: slog.Default(),
		now:    time.Now,
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// Choice is a review option prepared for display.
type Choice struct {
	srs.ReviewOption
	Label string // e.g. "10m", "4d"
}

// Review is a word together with the choices a reviewer is offered.
type Review struct {
	Word    storage.WordRecord
	Choices []Choice
}

// ImportResult summarises an Import.
type ImportResult struct {
	Added   int
	Updated int // existing words whose definition changed
	Skipped int // existing words left untouched
}

// Stats summarises the deck.
type Stats struct {
	Total      int
	Due        int
	ByStatus   map[srs.Status]int
	ReviewsDay int // gradings in the last 24 hours
}

// Import adds words that are not yet in the deck. Words already present keep
// their progress; only a changed definition is updated.
func (s *Service) Import(words []domain.Word, sourceID sql.NullInt64) (ImportResult, error) {
	var res ImportResult
	err := s.db.WithTx(func(tx *storage.DB) error {
		for _, w := range words {
			existing, err := tx.FindWordByHash(w.Hash)
			if err != nil {
				return err
			}
			switch {
			case existing == nil:
				if err := tx.InsertWord(w, sourceID); err != nil {
					return err
				}
				res.Added++
			case existing.Definition != w.Definition:
				if err := tx.UpdateWordDefinition(w.Hash, w.Definition); err != nil {
					return err
				}
				res.Updated++
			default:
				res.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, fmt.Errorf("import: %w", err)
	}
	s.logger.Info("Imported words", "added", res.Added, "updated", res.Updated, "skipped", res.Skipped)
	return res, nil
}

// Due returns the words that are due now, in random order.
func (s *Service) Due() ([]storage.WordRecord, error) {
	words, err := s.db.GetDueWords(s.now())
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.rng.Shuffle(len(words), func(i, j int) {
		words[i], words[j] = words[j], words[i]
	})
	s.mu.Unlock()
	return words, nil
}

// Next returns a random due word, or nil when nothing is due.
func (s *Service) Next() (*storage.WordRecord, error) {
	due, err := s.Due()
	if err != nil || len(due) == 0 {
		return nil, err
	}
	return &due[0], nil
}

// Options returns the word named by hash and its four review choices.
func (s *Service) Options(hash string) (*Review, error) {
	rec, err := s.find(s.db, hash)
	if err != nil {
		return nil, err
	}
	opts, err := srs.Options(rec.State)
	if err != nil {
		return nil, fmt.Errorf("options for %s: %w", hash, err)
	}
	choices := make([]Choice, len(opts))
	for i, o := range opts {
		choices[i] = Choice{ReviewOption: o, Label: srs.FormatMillis(o.DisplayInterval)}
	}
	return &Review{Word: *rec, Choices: choices}, nil
}

// Grade applies grade to the word named by hash, reschedules it to
// now + the new interval and records the review. It returns the updated
// word.
func (s *Service) Grade(hash string, grade srs.Grade) (*storage.WordRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated *storage.WordRecord
	err := s.db.WithTx(func(tx *storage.DB) error {
		rec, err := s.find(tx, hash)
		if err != nil {
			return err
		}
		next, err := srs.Apply(rec.State, grade)
		if err != nil {
			return err
		}

		now := s.now()
		nextReview := srs.NextReview(now, next)
		if err := tx.UpdateWordState(hash, next, nextReview, now); err != nil {
			return err
		}
		err = tx.InsertReviewLog(domain.ReviewLog{
			ID:        uuid.NewString(),
			WordHash:  hash,
			Timestamp: now,
			Grade:     grade,
			State:     next,
		})
		if err != nil {
			return err
		}

		rec.State = next
		rec.NextReview = nextReview
		rec.LastReview = sql.NullTime{Time: now, Valid: true}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("grade %s: %w", hash, err)
	}

	s.logger.Debug("Graded word",
		"hash", hash,
		"grade", grade,
		"status", updated.State.Status,
		"interval", srs.FormatInterval(updated.State.Interval),
	)
	return updated, nil
}

// All returns every word ordered by next review.
func (s *Service) All() ([]storage.WordRecord, error) {
	return s.db.GetAllWords()
}

// History returns the review log of a word.
func (s *Service) History(hash string) ([]domain.ReviewLog, error) {
	return s.db.GetReviewLogs(hash)
}

// Stats summarises the deck at the current time.
func (s *Service) Stats() (Stats, error) {
	now := s.now()
	counts, err := s.db.CountByStatus()
	if err != nil {
		return Stats{}, err
	}
	due, err := s.db.GetDueWords(now)
	if err != nil {
		return Stats{}, err
	}
	reviews, err := s.db.CountReviewsSince(now.Add(-24 * time.Hour))
	if err != nil {
		return Stats{}, err
	}

	st := Stats{Due: len(due), ByStatus: counts, ReviewsDay: reviews}
	for _, n := range counts {
		st.Total += n
	}
	return st, nil
}

// Reset clears the whole deck, its history and its sources.
func (s *Service) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.WithTx(func(tx *storage.DB) error { return tx.Reset() }); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	s.logger.Info("Deck reset")
	return nil
}

func (s *Service) find(db *storage.DB, hash string) (*storage.WordRecord, error) {
	rec, err := db.FindWordByHash(hash)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrWordNotFound, hash)
	}
	return rec, nil
}
