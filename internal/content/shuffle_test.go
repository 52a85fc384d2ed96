package content

import (
	"math/rand"
	"sort"
	"strings"
	"testing"

	"quizbot-service/internal/domain"
)

func TestShufflePreservesOptionsAndCorrectAnswer(t *testing.T) {
	shuffler := NewShufflerWithSource(rand.NewSource(42))
	item := domain.QuizItem{
		Prompt:       "q",
		Options:      []string{"alpha", "beta", "gamma", "delta"},
		CorrectIndex: 2,
	}

	for i := 0; i < 200; i++ {
		got := shuffler.Shuffle(item)
		if len(got.Options) != 4 {
			t.Fatalf("expected 4 options, got %d", len(got.Options))
		}
		if got.CorrectIndex < 0 || got.CorrectIndex >= 4 {
			t.Fatalf("correct index out of range: %d", got.CorrectIndex)
		}
		if got.Options[got.CorrectIndex] != "gamma" {
			t.Fatalf("correct index points at %q, want gamma", got.Options[got.CorrectIndex])
		}
		want := append([]string(nil), item.Options...)
		have := append([]string(nil), got.Options...)
		sort.Strings(want)
		sort.Strings(have)
		for j := range want {
			if want[j] != have[j] {
				t.Fatalf("options not a permutation: %v vs %v", item.Options, got.Options)
			}
		}
	}
}

func TestShuffleTruncatesLongOptions(t *testing.T) {
	shuffler := NewShufflerWithSource(rand.NewSource(1))
	long := strings.Repeat("x", 120)
	item := domain.QuizItem{
		Prompt:       "q",
		Options:      []string{long, "b", "c", "d"},
		CorrectIndex: 0,
	}

	got := shuffler.Shuffle(item)
	found := false
	for _, option := range got.Options {
		if len([]rune(option)) > maxOptionLen+3 {
			t.Fatalf("option not truncated: %d runes", len([]rune(option)))
		}
		if strings.HasSuffix(option, "...") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a truncated option with ellipsis marker")
	}
	if got.Options[got.CorrectIndex] != strings.Repeat("x", maxOptionLen)+"..." {
		t.Fatalf("correct index lost through truncation")
	}
}

// Two options that collapse to the same text after truncation must not
// confuse the correct-index lookup.
func TestShuffleSurvivesTruncationCollisions(t *testing.T) {
	shuffler := NewShufflerWithSource(rand.NewSource(7))
	prefix := strings.Repeat("y", 100)
	item := domain.QuizItem{
		Prompt:       "q",
		Options:      []string{prefix + "AAA", prefix + "BBB", "c", "d"},
		CorrectIndex: 1,
	}

	truncated := strings.Repeat("y", maxOptionLen) + "..."
	for i := 0; i < 100; i++ {
		got := shuffler.Shuffle(item)
		if got.Options[got.CorrectIndex] != truncated {
			t.Fatalf("correct option mangled: %q", got.Options[got.CorrectIndex])
		}
		count := 0
		for _, option := range got.Options {
			if option == truncated {
				count++
			}
		}
		if count != 2 {
			t.Fatalf("expected both colliding options kept, got %d", count)
		}
	}
}
