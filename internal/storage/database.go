package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/conorfennell/wordhash/internal/domain"
	"github.com/conorfennell/wordhash/internal/srs"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// DB represents a wrapper around the SQL database connection.
// Inside WithTx the same methods run against the transaction.
type DB struct {
	conn *sql.DB
	q    querier
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db, q: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise.
func (db *DB) WithTx(fn func(tx *DB) error) error {
	sqlTx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(&DB{conn: db.conn, q: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to roll back: %w", rbErr))
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// WordRecord is a stored word with its scheduling state.
type WordRecord struct {
	domain.Word
	LastReview sql.NullTime  // Use NullTime for nullable last_review
	SourceID   sql.NullInt64 // Use NullInt64 for words uploaded directly
}

const wordColumns = `hash, word, definition, status, interval_ms, ease, step, next_review_ms, last_review, source_id`

// InsertWord inserts a new word with the scheduling state it carries.
func (db *DB) InsertWord(w domain.Word, sourceID sql.NullInt64) error {
	status, err := w.State.Status.MarshalText()
	if err != nil {
		return fmt.Errorf("failed to insert word %s: %w", w.Hash, err)
	}
	_, err = db.q.Exec(`
		INSERT INTO words (hash, word, definition, status, interval_ms, ease, step, next_review_ms, source_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		w.Hash,
		w.Word,
		w.Definition,
		string(status),
		nullInterval(w.State),
		w.State.Ease,
		w.State.Step,
		w.NextReview.UnixMilli(),
		sourceID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert word %s: %w", w.Hash, err)
	}
	return nil
}

// FindWordByHash retrieves a word by its hash. It returns nil, nil when the
// word does not exist.
func (db *DB) FindWordByHash(hash string) (*WordRecord, error) {
	row := db.q.QueryRow(`SELECT `+wordColumns+` FROM words WHERE hash = ?`, hash)
	rec, reset, err := scanWord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Word not found
		}
		return nil, fmt.Errorf("failed to find word by hash %s: %w", hash, err)
	}
	if reset {
		if err := db.storeReset(rec); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// UpdateWordState stores a word's new scheduling state after a review.
func (db *DB) UpdateWordState(hash string, state srs.CardState, nextReview, reviewedAt time.Time) error {
	status, err := state.Status.MarshalText()
	if err != nil {
		return fmt.Errorf("failed to update word state for hash %s: %w", hash, err)
	}
	res, err := db.q.Exec(`
		UPDATE words
		SET status = ?, interval_ms = ?, ease = ?, step = ?, next_review_ms = ?, last_review = ?
		WHERE hash = ?
	`,
		string(status),
		nullInterval(state),
		state.Ease,
		state.Step,
		nextReview.UnixMilli(),
		reviewedAt,
		hash,
	)
	if err != nil {
		return fmt.Errorf("failed to update word state for hash %s: %w", hash, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update word state for hash %s: %w", hash, sql.ErrNoRows)
	}
	return nil
}

// UpdateWordDefinition replaces the definition of an existing word.
func (db *DB) UpdateWordDefinition(hash, definition string) error {
	_, err := db.q.Exec(`UPDATE words SET definition = ? WHERE hash = ?`, definition, hash)
	if err != nil {
		return fmt.Errorf("failed to update definition for hash %s: %w", hash, err)
	}
	return nil
}

// unschedulable matches rows that srs.Validate rejects. They are reset to
// new cards when loaded, so they are always part of the due set.
const unschedulable = `status NOT IN ('learning', 'reviewing', 'relearning')
	OR interval_ms < 0
	OR step NOT IN (0, 1)
	OR (step <> 0 AND status <> 'learning')`

// GetDueWords retrieves all words whose next review is at or before now.
func (db *DB) GetDueWords(now time.Time) ([]WordRecord, error) {
	return db.queryWords(`SELECT `+wordColumns+` FROM words WHERE next_review_ms <= ? OR `+unschedulable+` ORDER BY next_review_ms, word`, now.UnixMilli())
}

// GetAllWords retrieves every word ordered by next review.
func (db *DB) GetAllWords() ([]WordRecord, error) {
	return db.queryWords(`SELECT ` + wordColumns + ` FROM words ORDER BY next_review_ms, word`)
}

// GetWordsBySourceID retrieves all words associated with a specific source ID.
func (db *DB) GetWordsBySourceID(sourceID int64) ([]WordRecord, error) {
	return db.queryWords(`SELECT `+wordColumns+` FROM words WHERE source_id = ?`, sourceID)
}

// DeleteWordByHash removes a word and its review history.
func (db *DB) DeleteWordByHash(hash string) error {
	if _, err := db.q.Exec(`DELETE FROM review_logs WHERE word_hash = ?`, hash); err != nil {
		return fmt.Errorf("failed to delete review logs for hash %s: %w", hash, err)
	}
	if _, err := db.q.Exec(`DELETE FROM words WHERE hash = ?`, hash); err != nil {
		return fmt.Errorf("failed to delete word with hash %s: %w", hash, err)
	}
	return nil
}

// CountByStatus returns the number of words in each status.
func (db *DB) CountByStatus() (map[srs.Status]int, error) {
	rows, err := db.q.Query(`SELECT status, COUNT(*) FROM words GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count words: %w", err)
	}
	defer rows.Close()

	counts := make(map[srs.Status]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("failed to scan word count row: %w", err)
		}
		status, err := srs.ParseStatus(name)
		if err != nil {
			// Rows with a corrupt status are loaded as new cards.
			status = srs.Learning
		}
		counts[status] += n
	}
	return counts, rows.Err()
}

// Reset removes every word, review log and source.
func (db *DB) Reset() error {
	for _, table := range []string{"review_logs", "words", "sources"} {
		if _, err := db.q.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func (db *DB) queryWords(query string, args ...any) ([]WordRecord, error) {
	rows, err := db.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query words: %w", err)
	}
	defer rows.Close()

	var words []WordRecord
	var resets []int
	for rows.Next() {
		rec, reset, err := scanWord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan word row: %w", err)
		}
		if reset {
			resets = append(resets, len(words))
		}
		words = append(words, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate word rows: %w", err)
	}
	rows.Close()

	for _, i := range resets {
		if err := db.storeReset(&words[i]); err != nil {
			return nil, err
		}
	}
	return words, nil
}

// storeReset persists the fresh card scanWord substituted for an
// unschedulable row.
func (db *DB) storeReset(rec *WordRecord) error {
	status, err := rec.State.Status.MarshalText()
	if err != nil {
		return fmt.Errorf("failed to reset word %s: %w", rec.Hash, err)
	}
	_, err = db.q.Exec(`
		UPDATE words
		SET status = ?, interval_ms = ?, ease = ?, step = ?, next_review_ms = ?
		WHERE hash = ?
	`,
		string(status),
		nullInterval(rec.State),
		rec.State.Ease,
		rec.State.Step,
		rec.NextReview.UnixMilli(),
		rec.Hash,
	)
	if err != nil {
		return fmt.Errorf("failed to reset word %s: %w", rec.Hash, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanWord reads one row and normalizes its scheduling state. Ease is
// clamped to the minimum; a state that cannot be scheduled is replaced with
// a new card that is due immediately and reset is true.
func scanWord(s scanner) (*WordRecord, bool, error) {
	var (
		w        WordRecord
		status   string
		interval sql.NullInt64
		ease     float64
		step     int
		nextMs   int64
	)
	err := s.Scan(
		&w.Hash,
		&w.Entry.Word,
		&w.Definition,
		&status,
		&interval,
		&ease,
		&step,
		&nextMs,
		&w.LastReview,
		&w.SourceID,
	)
	if err != nil {
		return nil, false, err
	}

	w.NextReview = time.UnixMilli(nextMs)
	w.State = srs.CardState{Ease: ease, Step: step}
	if interval.Valid {
		ms := interval.Int64
		w.State.Interval = &ms
	}

	parsed, err := srs.ParseStatus(status)
	if err == nil {
		w.State.Status = parsed
		err = srs.Validate(w.State)
	}
	if err != nil {
		slog.Warn("Resetting unschedulable word", "hash", w.Hash, "error", err)
		w.State = srs.NewCard()
		w.NextReview = time.Now()
		return &w, true, nil
	}

	w.State = srs.Clamp(w.State)
	return &w, false, nil
}

func nullInterval(s srs.CardState) sql.NullInt64 {
	if s.Interval == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *s.Interval, Valid: true}
}
