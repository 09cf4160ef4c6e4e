package parser

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	apperrors "github.com/Adithya-Monish-Kumar-K/wosp/pkg/errors"
)

func TestValidate(t *testing.T) {
	type found struct {
		Seq  int
		Text string
	}
	tests := []struct {
		name  string
		query string
		want  []found
	}{
		{"valid", "(a OR b) NEAR3 d", nil},
		{"valid phrase", `"a ADJ2 b" d`, nil},
		{"empty", "", []found{{0, ""}}},
		{"missing left operand", "AND a", []found{{1, "AND"}}},
		{"missing right operand", "a AND", []found{{2, "AND"}}},
		{"two operators", "a OR AND b", []found{{2, "OR"}, {3, "AND"}}},
		{"unmatched opening", "(a", []found{{1, "("}}},
		{"unmatched closing", "a)", []found{{2, ")"}}},
		{"empty parentheses", "()", []found{{1, "("}}},
		{"unbalanced quote", `"a`, []found{{1, `"`}}},
		{"empty quote", `""`, []found{{1, `"`}}},
		{"operator inside quote", `"a OR b"`, []found{{3, "OR"}}},
		{"parenthesis inside quote", `"(a)"`, []found{{2, "("}, {4, ")"}}},
		{"zero distance", "a near0 b", []found{{2, "near0"}}},
		{"punctuation term", "a , b", []found{{2, ","}}},
		{"dangling modifier", "a FUZZY1", []found{{3, "FUZZY1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(Lex(tt.query, DefaultOptions()))
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate(%q) = %v, want nil", tt.query, err)
				}
				return
			}
			var list ErrorList
			if !errors.As(err, &list) {
				t.Fatalf("Validate(%q) = %v, want ErrorList", tt.query, err)
			}
			if !errors.Is(err, apperrors.ErrInvalidQuery) {
				t.Errorf("expected ErrInvalidQuery in chain")
			}
			var got []found
			for _, e := range list {
				got = append(got, found{e.Seq, e.Text})
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Validate(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestSyntaxErrorMessage(t *testing.T) {
	err := &SyntaxError{Seq: 2, Text: "AND", Reason: "operator is missing its right operand"}
	want := `token 2 "AND": operator is missing its right operand`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
