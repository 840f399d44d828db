package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conorfennell/wordhash/internal/srs"
)

func newReviewCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review due words in the terminal",
		Long: `Review due words one at a time. Press Enter to reveal the definition,
then grade your recall: 1 Again, 2 Hard, 3 Good, 4 Easy, q to quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			for reviewed := 0; limit <= 0 || reviewed < limit; reviewed++ {
				next, err := a.deck.Next()
				if err != nil {
					return err
				}
				if next == nil {
					fmt.Fprintln(out, "No words due for review.")
					return nil
				}

				review, err := a.deck.Options(next.Hash)
				if err != nil {
					return err
				}

				fmt.Fprintf(out, "\n%s\n", review.Word.Word.Word)
				if _, err := readLine(in, out, "(press Enter to show the definition) "); err != nil {
					return quitOnEOF(err)
				}
				fmt.Fprintf(out, "%s\n\n", review.Word.Definition)

				var choices []string
				for i, c := range review.Choices {
					choices = append(choices, fmt.Sprintf("%d) %s %s", i+1, c.Grade, c.Label))
				}
				fmt.Fprintln(out, strings.Join(choices, "   "))

				grade, quit, err := promptGrade(in, out)
				if err != nil {
					return quitOnEOF(err)
				}
				if quit {
					return nil
				}

				updated, err := a.deck.Grade(next.Hash, grade)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Next review in %s\n", srs.FormatInterval(updated.State.Interval))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Stop after this many words (0 for no limit)")
	return cmd
}

func promptGrade(in *bufio.Reader, out io.Writer) (srs.Grade, bool, error) {
	for {
		answer, err := readLine(in, out, "Grade: ")
		if err != nil {
			return 0, false, err
		}
		if strings.EqualFold(answer, "q") {
			return 0, true, nil
		}
		grade, err := srs.ParseGrade(answer)
		if err == nil {
			return grade, false, nil
		}
		fmt.Fprintln(out, "Enter 1-4 or Again/Hard/Good/Easy, q to quit.")
	}
}

func readLine(in *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func quitOnEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
