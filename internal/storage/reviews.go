package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/conorfennell/wordhash/internal/domain"
	"github.com/conorfennell/wordhash/internal/srs"
)

// InsertReviewLog appends a grading to the review history.
func (db *DB) InsertReviewLog(log domain.ReviewLog) error {
	grade, err := log.Grade.MarshalText()
	if err != nil {
		return fmt.Errorf("failed to insert review log %s: %w", log.ID, err)
	}
	status, err := log.State.Status.MarshalText()
	if err != nil {
		return fmt.Errorf("failed to insert review log %s: %w", log.ID, err)
	}
	_, err = db.q.Exec(`
		INSERT INTO review_logs (id, word_hash, reviewed_at_ms, grade, status, interval_ms, ease, step)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		log.ID,
		log.WordHash,
		log.Timestamp.UnixMilli(),
		string(grade),
		string(status),
		nullInterval(log.State),
		log.State.Ease,
		log.State.Step,
	)
	if err != nil {
		return fmt.Errorf("failed to insert review log %s: %w", log.ID, err)
	}
	return nil
}

// GetReviewLogs returns the review history of a word, oldest first.
func (db *DB) GetReviewLogs(hash string) ([]domain.ReviewLog, error) {
	rows, err := db.q.Query(`
		SELECT id, word_hash, reviewed_at_ms, grade, status, interval_ms, ease, step
		FROM review_logs WHERE word_hash = ?
		ORDER BY reviewed_at_ms, rowid
	`, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get review logs for hash %s: %w", hash, err)
	}
	defer rows.Close()

	var logs []domain.ReviewLog
	for rows.Next() {
		var (
			l        domain.ReviewLog
			atMs     int64
			grade    string
			status   string
			interval sql.NullInt64
		)
		if err := rows.Scan(&l.ID, &l.WordHash, &atMs, &grade, &status, &interval, &l.State.Ease, &l.State.Step); err != nil {
			return nil, fmt.Errorf("failed to scan review log row: %w", err)
		}
		l.Timestamp = time.UnixMilli(atMs)
		if l.Grade, err = srs.ParseGrade(grade); err != nil {
			return nil, fmt.Errorf("review log %s: %w", l.ID, err)
		}
		if l.State.Status, err = srs.ParseStatus(status); err != nil {
			return nil, fmt.Errorf("review log %s: %w", l.ID, err)
		}
		if interval.Valid {
			ms := interval.Int64
			l.State.Interval = &ms
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// CountReviewsSince returns how many gradings happened at or after since.
func (db *DB) CountReviewsSince(since time.Time) (int, error) {
	var n int
	err := db.q.QueryRow(`SELECT COUNT(*) FROM review_logs WHERE reviewed_at_ms >= ?`, since.UnixMilli()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return n, nil
}
