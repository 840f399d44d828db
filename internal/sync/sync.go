// Package sync reconciles the deck with its configured word list sources.
package sync

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/conorfennell/wordhash/internal/deck"
	"github.com/conorfennell/wordhash/internal/domain"
	"github.com/conorfennell/wordhash/internal/gitsource"
	"github.com/conorfennell/wordhash/internal/parser"
	"github.com/conorfennell/wordhash/internal/storage"
)

// Syncer walks sources and keeps the deck in line with them.
type Syncer struct {
	DB       *storage.DB
	Deck     *deck.Service
	ReposDir string    // where git sources are cloned
	Progress io.Writer // git progress output; may be nil
}

// Report summarises one source reconciliation.
type Report struct {
	SourceID int64
	Path     string
	Parsed   int
	Added    int
	Orphaned int
	Errors   []error
}

// AddSource registers a local directory or git URL. Local paths are stored
// as absolute paths.
func AddSource(db *storage.DB, path string) (*storage.Source, error) {
	sourceType := storage.SourceLocal
	if gitsource.IsGitURL(path) {
		sourceType = storage.SourceGit
	} else {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", path, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", abs, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("source %s is not a directory", abs)
		}
		path = abs
	}

	existing, err := db.FindSourceByPath(path)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	id, err := db.InsertSource(path, sourceType)
	if err != nil {
		return nil, err
	}
	slog.Info("Source added", "id", id, "type", sourceType, "path", path)
	return &storage.Source{ID: id, Path: path, Type: sourceType}, nil
}

// RunSync iterates over all sources and reconciles them.
func (s *Syncer) RunSync() ([]Report, error) {
	slog.Info("Starting sync process for all sources...")
	sources, err := s.DB.GetAllSources()
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}

	if len(sources) == 0 {
		slog.Info("No sources configured. Add one with: wordhash source add <path/or/url.git>")
		return nil, nil
	}

	var reports []Report
	for _, source := range sources {
		report, err := s.SyncSource(source)
		if err != nil {
			slog.Error("Error syncing source", "id", source.ID, "path", source.Path, "error", err)
			report.Errors = append(report.Errors, err)
		}
		reports = append(reports, report)
	}
	slog.Info("Sync process complete.")
	return reports, nil
}

// SyncSource reconciles a single source, cloning or pulling it first when
// it is a git repository.
func (s *Syncer) SyncSource(source storage.Source) (Report, error) {
	slog.Info("Syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

	local := source
	if source.Type == storage.SourceGit {
		if err := os.MkdirAll(s.ReposDir, 0o755); err != nil {
			return Report{SourceID: source.ID, Path: source.Path}, fmt.Errorf("failed to create repos directory: %w", err)
		}
		localRepoPath, err := gitURLToLocalPath(s.ReposDir, source.Path)
		if err != nil {
			return Report{SourceID: source.ID, Path: source.Path}, err
		}
		if err := gitsource.Sync(source.Path, localRepoPath, s.Progress); err != nil {
			return Report{SourceID: source.ID, Path: source.Path}, err
		}
		local.Path = localRepoPath
	}

	return s.reconcileLocalSource(local)
}

func (s *Syncer) reconcileLocalSource(source storage.Source) (Report, error) {
	report := Report{SourceID: source.ID, Path: source.Path}
	now := time.Now()
	var parsed []domain.Word
	found := make(map[string]bool)

	walkErr := filepath.WalkDir(source.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !parser.IsWordList(path) {
			return nil
		}
		words, parseErr := parser.ParseFile(path, now)
		if parseErr != nil {
			report.Errors = append(report.Errors, fmt.Errorf("parsing %s: %w", path, parseErr))
			return nil
		}
		for _, w := range words {
			if found[w.Hash] {
				continue
			}
			found[w.Hash] = true
			parsed = append(parsed, w)
		}
		return nil
	})
	if walkErr != nil {
		return report, fmt.Errorf("error walking directory %s: %w", source.Path, walkErr)
	}
	report.Parsed = len(parsed)

	res, err := s.Deck.Import(parsed, sql.NullInt64{Int64: source.ID, Valid: true})
	if err != nil {
		return report, err
	}
	report.Added = res.Added

	dbWords, err := s.DB.GetWordsBySourceID(source.ID)
	if err != nil {
		return report, fmt.Errorf("error getting words for source %d: %w", source.ID, err)
	}

	for _, w := range dbWords {
		if found[w.Hash] {
			continue
		}
		if len(report.Errors) > 0 {
			// A word list that failed to parse may still hold this word.
			slog.Warn("Keeping unmatched word until the source parses cleanly", "hash", w.Hash, "word", w.Word.Word)
			continue
		}
		slog.Info("Orphaned word, deleting", "hash", w.Hash, "word", w.Word.Word)
		if err := s.DB.DeleteWordByHash(w.Hash); err != nil {
			slog.Warn("Failed to delete orphaned word", "hash", w.Hash, "error", err)
			report.Errors = append(report.Errors, err)
			continue
		}
		report.Orphaned++
	}

	if err := s.DB.UpdateSourceLastScanned(source.ID, now); err != nil {
		slog.Warn("Failed to update last scanned for source", "source_id", source.ID, "error", err)
	}

	slog.Info("reconciliation complete",
		"path", source.Path,
		"parsed_words", report.Parsed,
		"added", report.Added,
		"orphaned_deleted", report.Orphaned,
		"errors", len(report.Errors),
	)
	return report, nil
}

func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", errors.New("could not parse git URL: " + repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
