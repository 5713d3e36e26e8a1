package game

import (
	"strings"
	"testing"
)

func TestNewGameValidatesAttemptsAllowed(t *testing.T) {
	for _, bad := range []int{-1, 0, 10, 100} {
		if _, err := NewGame(1, bad); err == nil {
			t.Errorf("attempts_allowed=%d: expected validation error", bad)
		} else if !IsValidation(err) {
			t.Errorf("attempts_allowed=%d: expected ValidationError, got %v", bad, err)
		}
	}
	for _, ok := range []int{1, 6, 9} {
		g, err := NewGame(1, ok)
		if err != nil {
			t.Fatalf("attempts_allowed=%d: unexpected error: %v", ok, err)
		}
		if g.Key == "" || g.GameOver || g.Score != 0 {
			t.Errorf("attempts_allowed=%d: bad initial game state: %+v", ok, g)
		}
	}
}

func TestNewLevelSeedsAttempts(t *testing.T) {
	g, _ := NewGame(1, 5)
	l := g.NewLevel(1, 42)
	if l.AttemptsRemaining != 5 || l.Number != 1 || l.WordID != 42 {
		t.Fatalf("unexpected level: %+v", l)
	}
	if l.Complete || l.Won || len(l.Guesses) != 0 {
		t.Fatalf("level should start active with no guesses: %+v", l)
	}
}

// Scenario from the game rules: word "cat", 3 attempts,
// guesses x, c, a, t.
func TestLetterGuessSequenceWinsLevel(t *testing.T) {
	g, _ := NewGame(1, 3)
	l := g.NewLevel(1, 1)
	word := "cat"

	steps := []struct {
		guess    string
		attempts int
		mask     string
		complete bool
		won      bool
	}{
		{"x", 2, "___", false, false},
		{"c", 2, "c__", false, false},
		{"a", 2, "ca_", false, false},
		{"t", 2, "cat", true, true},
	}
	for _, st := range steps {
		if err := l.ApplyGuess(word, st.guess); err != nil {
			t.Fatalf("guess %q: unexpected error: %v", st.guess, err)
		}
		if l.AttemptsRemaining != st.attempts {
			t.Errorf("guess %q: attempts_remaining = %d, want %d", st.guess, l.AttemptsRemaining, st.attempts)
		}
		if got := Masked(word, l.Guesses); got != st.mask {
			t.Errorf("guess %q: mask = %q, want %q", st.guess, got, st.mask)
		}
		if l.Complete != st.complete || l.Won != st.won {
			t.Errorf("guess %q: complete=%v won=%v, want %v/%v", st.guess, l.Complete, l.Won, st.complete, st.won)
		}
	}

	u := &User{Name: "alice"}
	if ended := g.ApplyLevelOutcome(l, u); ended {
		t.Fatal("won level must not end the game")
	}
	if g.Score != 2 {
		t.Errorf("score = %d, want 2 (attempts remaining at win)", g.Score)
	}
	if u.TotalPlayed != 0 {
		t.Error("user totals must not change before game over")
	}
}

func TestSingleWrongGuessLosesOneAttemptGame(t *testing.T) {
	g, _ := NewGame(1, 1)
	l := g.NewLevel(1, 1)

	if err := l.ApplyGuess("dog", "z"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.AttemptsRemaining != 0 {
		t.Errorf("attempts_remaining = %d, want 0", l.AttemptsRemaining)
	}
	if !l.Complete || l.Won {
		t.Fatalf("level should be complete and lost: %+v", l)
	}

	u := &User{Name: "bob"}
	if ended := g.ApplyLevelOutcome(l, u); !ended {
		t.Fatal("lost level must end the game")
	}
	if !g.GameOver {
		t.Error("game_over not set")
	}
	if u.TotalPlayed != 1 || u.TotalScore != 0 || u.AverageScore != 0 {
		t.Errorf("unexpected user totals: %+v", u)
	}
}

func TestDuplicateGuessRejectedWithoutMutation(t *testing.T) {
	g, _ := NewGame(1, 3)
	l := g.NewLevel(1, 1)

	if err := l.ApplyGuess("cat", "c"); err != nil {
		t.Fatalf("first guess: %v", err)
	}
	before := len(l.Guesses)
	attempts := l.AttemptsRemaining

	err := l.ApplyGuess("cat", "C") // duplicates are case-insensitive
	if err == nil || !IsValidation(err) {
		t.Fatalf("expected validation error for duplicate guess, got %v", err)
	}
	if len(l.Guesses) != before || l.AttemptsRemaining != attempts {
		t.Error("rejected guess must not mutate level state")
	}
}

func TestGuessValidation(t *testing.T) {
	g, _ := NewGame(1, 3)
	l := g.NewLevel(1, 1)

	for _, bad := range []string{"", "  ", "c4t", "ca", "catsup"} {
		if err := l.ApplyGuess("cat", bad); err == nil || !IsValidation(err) {
			t.Errorf("guess %q: expected validation error, got %v", bad, err)
		}
	}
	if len(l.Guesses) != 0 {
		t.Error("rejected guesses must not be recorded")
	}
}

func TestWholeWordGuess(t *testing.T) {
	g, _ := NewGame(1, 3)
	l := g.NewLevel(1, 1)

	// Wrong whole-word guess costs an attempt and reveals nothing.
	if err := l.ApplyGuess("cat", "car"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.AttemptsRemaining != 2 {
		t.Errorf("attempts_remaining = %d, want 2", l.AttemptsRemaining)
	}
	if got := Masked("cat", l.Guesses); got != "___" {
		t.Errorf("mask = %q, want \"___\" after failed word guess", got)
	}

	// Exact match wins immediately and reveals the whole word.
	if err := l.ApplyGuess("cat", "cat"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !l.Complete || !l.Won {
		t.Fatalf("exact word guess should win the level: %+v", l)
	}
	if got := Masked("cat", l.Guesses); got != "cat" {
		t.Errorf("mask = %q, want full word after exact guess", got)
	}
}

func TestCompleteLevelRejectsFurtherGuesses(t *testing.T) {
	g, _ := NewGame(1, 1)
	l := g.NewLevel(1, 1)
	_ = l.ApplyGuess("dog", "z")
	if !l.Complete {
		t.Fatal("setup: level should be complete")
	}
	if err := l.ApplyGuess("dog", "d"); err != ErrLevelComplete {
		t.Fatalf("expected ErrLevelComplete, got %v", err)
	}
	if len(l.Guesses) != 1 {
		t.Error("post-completion guess must not be processed")
	}
}

func TestAttemptsNonIncreasingAndClamped(t *testing.T) {
	g, _ := NewGame(1, 2)
	l := g.NewLevel(1, 1)
	prev := l.AttemptsRemaining
	for _, guess := range []string{"x", "y"} {
		if err := l.ApplyGuess("dog", guess); err != nil {
			t.Fatalf("guess %q: %v", guess, err)
		}
		if l.AttemptsRemaining > prev {
			t.Error("attempts_remaining increased")
		}
		if l.AttemptsRemaining < 0 {
			t.Error("attempts_remaining went negative")
		}
		prev = l.AttemptsRemaining
	}
	if !l.Complete || l.Won {
		t.Fatalf("level should be lost: %+v", l)
	}
}

func TestMaskedRevealsOnlyGuessedLetters(t *testing.T) {
	word := "banana"
	if got := Masked(word, nil); got != "______" {
		t.Errorf("empty guesses: mask = %q", got)
	}
	if got := Masked(word, []string{"a"}); got != "_a_a_a" {
		t.Errorf("mask = %q, want \"_a_a_a\"", got)
	}
	if got := Masked(word, []string{"a", "n"}); got != "_anana" {
		t.Errorf("mask = %q, want \"_anana\"", got)
	}
	// A wrong whole-word guess never leaks letters.
	if got := Masked(word, []string{"bananb"}); got != "______" {
		t.Errorf("mask = %q, failed word guess must reveal nothing", got)
	}
	for i, r := range Masked(word, []string{"b"}) {
		if r != '_' && !strings.ContainsRune("b", r) {
			t.Errorf("position %d revealed %q without a matching guess", i, r)
		}
	}
}

func TestScoreAccruesPerWonLevel(t *testing.T) {
	g, _ := NewGame(1, 4)
	u := &User{Name: "carol"}

	// Level 1 won with 3 attempts left.
	l1 := g.NewLevel(1, 1)
	_ = l1.ApplyGuess("cat", "z")
	_ = l1.ApplyGuess("cat", "cat")
	g.ApplyLevelOutcome(l1, u)

	// Level 2 won with all 4 attempts left.
	l2 := g.NewLevel(2, 2)
	_ = l2.ApplyGuess("dog", "dog")
	g.ApplyLevelOutcome(l2, u)

	if g.Score != 7 {
		t.Fatalf("score = %d, want 7 (3 + 4)", g.Score)
	}

	// Level 3 lost: totals pick up the accrued score once.
	l3 := g.NewLevel(3, 3)
	for _, guess := range []string{"q", "w", "e", "r"} {
		_ = l3.ApplyGuess("owl", guess)
	}
	g.ApplyLevelOutcome(l3, u)

	if !g.GameOver {
		t.Fatal("game should be over")
	}
	if u.TotalPlayed != 1 || u.TotalScore != 7 || u.AverageScore != 7 {
		t.Errorf("unexpected user totals: %+v", u)
	}
}

func TestAverageScoreRounds(t *testing.T) {
	u := &User{Name: "dave"}
	u.RecordResult(3)
	u.RecordResult(4)
	if u.AverageScore != 4 { // 3.5 rounds up
		t.Errorf("average_score = %d, want 4", u.AverageScore)
	}
	u.RecordResult(0)
	if u.AverageScore != 2 { // 7/3 ≈ 2.33 rounds down
		t.Errorf("average_score = %d, want 2", u.AverageScore)
	}
}
