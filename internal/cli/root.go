// Package cli implements the wordhash command line.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/conorfennell/wordhash/internal/config"
	"github.com/conorfennell/wordhash/internal/deck"
	"github.com/conorfennell/wordhash/internal/logging"
	"github.com/conorfennell/wordhash/internal/storage"
	"github.com/conorfennell/wordhash/internal/sync"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *storage.DB
	deck   *deck.Service
	syncer *sync.Syncer
}

// NewRootCmd creates the root cobra command for the wordhash CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "wordhash",
		Short: "A spaced-repetition vocabulary trainer",
		Long: `wordhash schedules reviews of word/definition pairs with a
four-grade spaced-repetition scheduler (Again, Hard, Good, Easy).

Word lists are JSON arrays of {"word", "definition"} objects or markdown
files of W:/D: pairs, imported directly or synced from local directories
and git repositories.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
		SilenceUsage: true,
	}

	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newServeCmd(a),
		newImportCmd(a),
		newSyncCmd(a),
		newSourceCmd(a),
		newDueCmd(a),
		newWordsCmd(a),
		newReviewCmd(a),
		newStatsCmd(a),
		newResetCmd(a),
	)

	return root
}

func (a *app) open(cmd *cobra.Command) error {
	flags := cmd.Flags()
	cfg, err := config.Load(config.Path(flags, os.Getenv), flags)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.NewLoggerWithWriter(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, cmd.ErrOrStderr())
	slog.SetDefault(a.logger)

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}
	a.logger.Debug("Database opened successfully", "path", cfg.DBPath)

	a.db = db
	a.deck = deck.New(db, deck.WithLogger(a.logger))
	a.syncer = &sync.Syncer{
		DB:       db,
		Deck:     a.deck,
		ReposDir: cfg.ReposDir,
		Progress: cmd.ErrOrStderr(),
	}
	return nil
}

func (a *app) close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("Failed to close database", "error", err)
	}
	a.db = nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
