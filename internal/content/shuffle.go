package content

import (
	"math/rand"
	"sync"
	"time"

	"quizbot-service/internal/domain"
)

// maxOptionLen is the longest option text the chat transport displays
// without clipping.
const maxOptionLen = 95

// Shuffler randomizes option order so the correct answer cannot be guessed
// from generation order. Safe for concurrent use.
type Shuffler struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewShuffler() *Shuffler {
	return &Shuffler{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewShufflerWithSource is test-only for deterministic permutations.
func NewShufflerWithSource(src rand.Source) *Shuffler {
	return &Shuffler{rnd: rand.New(src)}
}

// Shuffle truncates over-long options, then applies a uniform permutation.
// The new correct index is derived from the permutation itself, so
// truncating two options to the same text cannot mislabel the answer.
// Truncation happens before shuffling so it never changes which element is
// the correct one.
func (s *Shuffler) Shuffle(item domain.QuizItem) domain.QuizItem {
	options := make([]string, len(item.Options))
	for i, option := range item.Options {
		options[i] = truncateOption(option)
	}

	s.mu.Lock()
	perm := s.rnd.Perm(len(options))
	s.mu.Unlock()

	shuffled := make([]string, len(options))
	correct := item.CorrectIndex
	for from, to := range perm {
		shuffled[to] = options[from]
		if from == item.CorrectIndex {
			correct = to
		}
	}

	return domain.QuizItem{
		Prompt:       item.Prompt,
		Options:      shuffled,
		CorrectIndex: correct,
	}
}

func truncateOption(option string) string {
	runes := []rune(option)
	if len(runes) <= maxOptionLen {
		return option
	}
	return string(runes[:maxOptionLen]) + "..."
}
