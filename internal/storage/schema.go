package storage

const schema = `
-- The 'words' table stores each vocabulary entry and its scheduling state.
CREATE TABLE IF NOT EXISTS words (
    hash TEXT PRIMARY KEY,
    word TEXT NOT NULL,
    definition TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'learning', -- learning, reviewing, relearning
    interval_ms INTEGER,                     -- NULL until first scheduled
    ease REAL NOT NULL DEFAULT 2.5,
    step INTEGER NOT NULL DEFAULT 0,
    next_review_ms INTEGER NOT NULL,         -- unix milliseconds
    last_review DATETIME,
    source_id INTEGER,

    FOREIGN KEY(source_id) REFERENCES sources(id)
);

CREATE INDEX IF NOT EXISTS idx_words_next_review ON words(next_review_ms);
CREATE INDEX IF NOT EXISTS idx_words_source ON words(source_id);

-- The 'sources' table tracks where words come from, either a local directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local', -- local, git
    last_scanned DATETIME
);

-- The 'review_logs' table is an append-only history of gradings.
CREATE TABLE IF NOT EXISTS review_logs (
    id TEXT PRIMARY KEY,
    word_hash TEXT NOT NULL,
    reviewed_at_ms INTEGER NOT NULL,
    grade TEXT NOT NULL,
    status TEXT NOT NULL,
    interval_ms INTEGER,
    ease REAL NOT NULL,
    step INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_review_logs_word ON review_logs(word_hash);
`
