package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("wordhash %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func writeWordList(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "words.json")
	content := `[
  {"word": "ephemeral", "definition": "lasting a very short time"},
  {"word": "laconic", "definition": "using very few words"}
]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write word list: %v", err)
	}
	return path
}

func TestImportAndStats(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "test.db")
	list := writeWordList(t, dir)

	out := run(t, "", "import", "--db", db, list)
	if !strings.Contains(out, "2 new, 0 updated, 0 unchanged") {
		t.Errorf("unexpected import output:\n%s", out)
	}

	out = run(t, "", "import", "--db", db, list)
	if !strings.Contains(out, "0 new, 0 updated, 2 unchanged") {
		t.Errorf("re-import should keep existing words:\n%s", out)
	}

	out = run(t, "", "stats", "--db", db)
	for _, want := range []string{"Total words:      2", "Due now:          2", "learning:         2"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}
}

func TestReviewGradesDueWords(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "test.db")
	run(t, "", "import", "--db", db, writeWordList(t, dir))

	// Reveal, an invalid grade, then Easy; reveal, then Good.
	out := run(t, "\nnope\n4\n\n3\n", "review", "--db", db)
	if !strings.Contains(out, "Enter 1-4") {
		t.Errorf("expected a re-prompt for the invalid grade:\n%s", out)
	}
	if !strings.Contains(out, "Next review in 4d") || !strings.Contains(out, "Next review in 10m") {
		t.Errorf("unexpected review output:\n%s", out)
	}

	out = run(t, "", "due", "--db", db)
	if !strings.Contains(out, "No words due for review.") {
		t.Errorf("expected nothing due after review:\n%s", out)
	}
}

func TestReviewQuit(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "test.db")
	run(t, "", "import", "--db", db, writeWordList(t, dir))

	run(t, "\nq\n", "review", "--db", db)

	out := run(t, "", "stats", "--db", db)
	if !strings.Contains(out, "Due now:          2") {
		t.Errorf("quitting should leave both words due:\n%s", out)
	}
}

func TestReset(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "test.db")
	run(t, "", "import", "--db", db, writeWordList(t, dir))

	out := run(t, "n\n", "reset", "--db", db)
	if !strings.Contains(out, "Aborted.") {
		t.Errorf("expected reset to abort:\n%s", out)
	}

	run(t, "", "reset", "--yes", "--db", db)
	out = run(t, "", "stats", "--db", db)
	if !strings.Contains(out, "Total words:      0") {
		t.Errorf("expected an empty deck after reset:\n%s", out)
	}
}

func TestSourceAddAndList(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "test.db")
	lists := filepath.Join(dir, "lists")
	if err := os.Mkdir(lists, 0755); err != nil {
		t.Fatal(err)
	}
	writeWordList(t, lists)

	run(t, "", "source", "add", "--db", db, lists)
	out := run(t, "", "source", "list", "--db", db)
	if !strings.Contains(out, lists) || !strings.Contains(out, "never") {
		t.Errorf("unexpected source list:\n%s", out)
	}

	out = run(t, "", "sync", "--db", db)
	if !strings.Contains(out, "2 words, 2 new, 0 removed, 0 errors") {
		t.Errorf("unexpected sync output:\n%s", out)
	}
}
