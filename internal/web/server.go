package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/conorfennell/wordhash/internal/deck"
	"github.com/conorfennell/wordhash/internal/domain"
	"github.com/conorfennell/wordhash/internal/parser"
	"github.com/conorfennell/wordhash/internal/srs"
	"github.com/conorfennell/wordhash/internal/storage"
	"github.com/conorfennell/wordhash/internal/sync"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

const maxUploadBytes = 10 << 20

// Server holds the dependencies for the HTTP server.
type Server struct {
	db        *storage.DB
	deck      *deck.Service
	syncer    *sync.Syncer
	router    *http.ServeMux
	templates *template.Template
	logger    *slog.Logger
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, d *deck.Service, syncer *sync.Syncer, logger *slog.Logger) (*Server, error) {
	tpl, err := template.New("").Funcs(template.FuncMap{
		"interval": srs.FormatInterval,
		"relative": humanize.Time,
	}).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		db:        db,
		deck:      d,
		syncer:    syncer,
		router:    http.NewServeMux(),
		templates: tpl,
		logger:    logger,
	}
	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() error {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to create sub-filesystem for static assets: %w", err)
	}
	fileServer := http.FileServer(http.FS(staticFS))

	s.router.Handle("/static/", http.StripPrefix("/static/", fileServer))
	s.router.Handle("/", fileServer)

	// HTMX-based routes
	s.router.HandleFunc("/deck", s.handleGetDeck())
	s.router.HandleFunc("/review/next", s.handleGetNextReview())
	s.router.HandleFunc("/review/answer/", s.handleShowAnswer())
	s.router.HandleFunc("/review/", s.handlePostReview())
	s.router.HandleFunc("/words", s.handleGetWords())
	s.router.HandleFunc("/upload", s.handlePostUpload())
	s.router.HandleFunc("/reset", s.handlePostReset())

	// Source management routes
	s.router.HandleFunc("/sources", s.handleSources())
	s.router.HandleFunc("/sources/", s.handleDeleteSource())
	s.router.HandleFunc("/sync", s.handlePostSync())
	return nil
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("Error rendering template", "template", name, "error", err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// handleGetDeck renders the deck view, showing the number of due words.
func (s *Server) handleGetDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderDeck(w)
	}
}

func (s *Server) renderDeck(w http.ResponseWriter) {
	stats, err := s.deck.Stats()
	if err != nil {
		s.internalError(w, "Error getting deck stats", err)
		return
	}
	s.render(w, "deck", map[string]any{
		"Total":       stats.Total,
		"DueCount":    stats.Due,
		"HasDueCards": stats.Due > 0,
	})
}

// handleGetNextReview renders the front of a random due word.
func (s *Server) handleGetNextReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		due, err := s.deck.Due()
		if err != nil {
			s.internalError(w, "Error getting next due word", err)
			return
		}
		if len(due) == 0 {
			s.renderDeck(w)
			return
		}
		next := due[0]
		s.render(w, "card_front", map[string]any{
			"Term":      next.Word.Word,
			"Hash":      next.Hash,
			"Remaining": len(due),
		})
	}
}

// handleShowAnswer renders the back of a word with its grade buttons.
func (s *Server) handleShowAnswer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hash := strings.TrimPrefix(r.URL.Path, "/review/answer/")
		review, err := s.deck.Options(hash)
		if errors.Is(err, deck.ErrWordNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			s.internalError(w, "Error computing review options", err)
			return
		}
		s.render(w, "card_back", review)
	}
}

// handlePostReview applies a grade and renders the next word.
func (s *Server) handlePostReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		hash := strings.TrimPrefix(r.URL.Path, "/review/")
		grade, err := srs.ParseGrade(r.PostFormValue("grade"))
		if err != nil {
			http.Error(w, "Invalid grade", http.StatusBadRequest)
			return
		}

		if _, err := s.deck.Grade(hash, grade); err != nil {
			if errors.Is(err, deck.ErrWordNotFound) {
				http.NotFound(w, r)
				return
			}
			s.internalError(w, "Error grading word", err)
			return
		}

		// After review, show the next word
		s.handleGetNextReview()(w, r)
	}
}

// handleGetWords renders every word with its schedule.
func (s *Server) handleGetWords() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		words, err := s.deck.All()
		if err != nil {
			s.internalError(w, "Error listing words", err)
			return
		}
		s.render(w, "words", map[string]any{"Words": words})
	}
}

// handlePostUpload imports an uploaded JSON or markdown word list.
func (s *Server) handlePostUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "Missing file", http.StatusBadRequest)
			return
		}
		defer file.Close()

		now := s.deck.Now()
		var words []domain.Word
		switch strings.ToLower(filepath.Ext(header.Filename)) {
		case ".md":
			entries, perr := parser.Parse(file)
			err = perr
			for _, e := range entries {
				words = append(words, domain.NewWord(e, now))
			}
		default:
			words, err = parser.ParseJSON(file, now)
		}
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			s.render(w, "error", fmt.Sprintf("Could not load %s: %v", header.Filename, err))
			return
		}

		res, err := s.deck.Import(words, storage.NoSource)
		if err != nil {
			s.internalError(w, "Error importing upload", err)
			return
		}
		s.logger.Info("Word list uploaded", "file", header.Filename, "added", res.Added)
		s.render(w, "upload_result", map[string]any{"FileName": header.Filename, "Result": res})
		s.renderDeck(w)
	}
}

// handlePostReset clears the deck.
func (s *Server) handlePostReset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := s.deck.Reset(); err != nil {
			s.internalError(w, "Error resetting deck", err)
			return
		}
		s.renderDeck(w)
	}
}

// handlePostSync triggers a manual sync and re-renders the source list.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Run in the foreground to make the user wait
		if _, err := s.syncer.RunSync(); err != nil {
			s.internalError(w, "Error running sync", err)
			return
		}

		s.render(w, "sync_success", nil)
		s.renderSourceList(w)
	}
}

// handleSources handles both GET and POST for the sources page.
func (s *Server) handleSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			sources, err := s.db.GetAllSources()
			if err != nil {
				s.internalError(w, "Error getting sources", err)
				return
			}
			s.render(w, "sources", map[string]any{"Sources": sources})
		case http.MethodPost:
			path := strings.TrimSpace(r.PostFormValue("path"))
			if path == "" {
				http.Error(w, "Path cannot be empty", http.StatusBadRequest)
				return
			}
			if _, err := sync.AddSource(s.db, path); err != nil {
				s.logger.Warn("Error adding source", "path", path, "error", err)
				http.Error(w, "Failed to add source: "+err.Error(), http.StatusBadRequest)
				return
			}
			s.renderSourceList(w)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// handleDeleteSource deletes a source and re-renders the source list.
func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		idStr := strings.TrimPrefix(r.URL.Path, "/sources/")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			http.Error(w, "Invalid source ID", http.StatusBadRequest)
			return
		}

		if err := s.db.WithTx(func(tx *storage.DB) error { return tx.DeleteSource(id) }); err != nil {
			s.internalError(w, "Error deleting source", err)
			return
		}
		s.renderSourceList(w)
	}
}

func (s *Server) renderSourceList(w http.ResponseWriter) {
	sources, err := s.db.GetAllSources()
	if err != nil {
		s.internalError(w, "Error getting sources", err)
		return
	}
	s.render(w, "source_list", map[string]any{"Sources": sources})
}
