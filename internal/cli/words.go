package cli

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/conorfennell/wordhash/internal/parser"
	"github.com/conorfennell/wordhash/internal/srs"
	"github.com/conorfennell/wordhash/internal/storage"
	"github.com/conorfennell/wordhash/internal/sync"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>...",
		Short: "Import JSON or markdown word lists",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				words, err := parser.ParseFile(path, a.deck.Now())
				if err != nil {
					return fmt.Errorf("error parsing %s: %w", path, err)
				}
				if len(words) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s contains no definitions.\n", path)
					continue
				}
				res, err := a.deck.Import(words, storage.NoSource)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d new, %d updated, %d unchanged\n", path, res.Added, res.Updated, res.Skipped)
			}
			return nil
		},
	}
}

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the deck with every configured source",
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := a.syncer.RunSync()
			if err != nil {
				return err
			}
			var failed int
			for _, r := range reports {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d words, %d new, %d removed, %d errors\n", r.Path, r.Parsed, r.Added, r.Orphaned, len(r.Errors))
				for _, e := range r.Errors {
					fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", e)
				}
				failed += len(r.Errors)
			}
			if failed > 0 {
				return fmt.Errorf("sync finished with %d errors", failed)
			}
			return nil
		},
	}
}

func newSourceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Manage word list sources",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <path/or/url.git>",
			Short: "Add a local directory or git repository",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				src, err := sync.AddSource(a.db, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "source %d: %s (%s)\n", src.ID, src.Path, src.Type)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List sources",
			RunE: func(cmd *cobra.Command, args []string) error {
				sources, err := a.db.GetAllSources()
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTYPE\tPATH\tLAST SCANNED")
				for _, s := range sources {
					scanned := "never"
					if s.LastScanned.Valid {
						scanned = humanize.Time(s.LastScanned.Time)
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.ID, s.Type, s.Path, scanned)
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "rm <id>",
			Short: "Remove a source and the words it contributed",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return errors.New("invalid source ID: " + args[0])
				}
				return a.db.WithTx(func(tx *storage.DB) error { return tx.DeleteSource(id) })
			},
		},
	)
	return cmd
}

func newDueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "due",
		Short: "List words due for review",
		RunE: func(cmd *cobra.Command, args []string) error {
			due, err := a.deck.Due()
			if err != nil {
				return err
			}
			if len(due) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No words due for review.")
				return nil
			}
			for _, w := range due {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", w.Word.Word, w.State.Status)
			}
			return nil
		},
	}
}

func newWordsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "words",
		Short: "List every word with its schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			words, err := a.deck.All()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WORD\tSTATUS\tINTERVAL\tEASE\tNEXT REVIEW")
			for _, w := range words {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n",
					w.Word.Word,
					w.State.Status,
					srs.FormatInterval(w.State.Interval),
					w.State.Ease,
					humanize.RelTime(w.NextReview, a.deck.Now(), "ago", "from now"),
				)
			}
			return tw.Flush()
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show deck statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.deck.Stats()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total words:      %d\n", st.Total)
			fmt.Fprintf(out, "Due now:          %d\n", st.Due)
			for _, s := range []srs.Status{srs.Learning, srs.Reviewing, srs.Relearning} {
				fmt.Fprintf(out, "%-17s %d\n", s.String()+":", st.ByStatus[s])
			}
			fmt.Fprintf(out, "Reviews (24h):    %d\n", st.ReviewsDay)
			return nil
		},
	}
}
