package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/wosp/pkg/errors"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var stdout, stderr bytes.Buffer
	root := newRootCommand()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeDoc(t *testing.T, name, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSearchCommand(t *testing.T) {
	law := writeDoc(t, "law.txt", "The law of contract requires assent.\nNothing else binds.\n")
	zoo := writeDoc(t, "zoo.txt", "A zebra and a lion.\n")

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr error
	}{
		{"documents", []string{"search", "-f", "documents", "law OR zebra", law, zoo}, law + "\n" + zoo + "\n", nil},
		{"proximity", []string{"search", "-f", "documents", "law WITH assent", law, zoo}, law + "\n", nil},
		{"matches", []string{"search", "--no-filename", "-e", "word", "-B", "0", "-A", "0", "zebra", zoo}, "1:zebra\n", nil},
		{"no matches", []string{"search", "unicorn", law, zoo}, "", errNoMatches},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, "", tt.args...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestSearchStdin(t *testing.T) {
	out, _, err := execute(t, "alpha beta\ngamma\n", "search", "-f", "documents", "gamma")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if out != "(standard input)\n" {
		t.Errorf("output = %q", out)
	}
}

func TestSearchRejectsBadFlags(t *testing.T) {
	_, _, err := execute(t, "", "search", "--case", "shouty", "x", "-")
	if !errors.Is(err, apperrors.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestTreeCommand(t *testing.T) {
	out, _, err := execute(t, "", "tree", "--operator", "AND", "a b NEAR2 d")
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if out != "(a AND (b NEAR2 d))\n" {
		t.Errorf("output = %q", out)
	}

	_, stderr, err := execute(t, "", "tree", "(a AND")
	if !errors.Is(err, apperrors.ErrInvalidQuery) {
		t.Fatalf("err = %v, want ErrInvalidQuery", err)
	}
	if stderr == "" {
		t.Error("syntax errors not reported")
	}
}

func TestTokensCommand(t *testing.T) {
	out, _, err := execute(t, "", "tokens", "a NOT NEAR3 b")
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	want := "1\tWILDCARD\ta\n2\tNOT_NEAR3\tNOT NEAR3\n3\tWILDCARD\tb\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}
