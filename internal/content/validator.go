// Package content parses and validates generated quiz content. Generation
// output is treated as untrusted: anything that does not match the expected
// structure is rejected with domain.ErrMalformedContent so callers can skip
// the item and move on.
package content

import (
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"quizbot-service/internal/domain"
)

var (
	fenceOpen  = regexp.MustCompile("^```(?:json)?\\s*")
	fenceClose = regexp.MustCompile("\\s*```$")
)

// StripFences removes a markdown code-fence wrapper from generated text.
// Models frequently wrap JSON payloads in ```json ... ``` despite being
// told not to.
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)
	text = fenceOpen.ReplaceAllString(text, "")
	text = fenceClose.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// rawItem keeps correct_index loose so a bad index does not sink the whole
// payload; options stay strict because there is nothing sensible to default
// them to.
type rawItem struct {
	Question     string          `json:"question"`
	Options      []string        `json:"options"`
	CorrectIndex json.RawMessage `json:"correct_index"`
}

// ParseItem validates one generated payload. The options list must hold
// exactly four strings; a missing or invalid correct_index is tolerated by
// defaulting to 0, with a logged warning so the defect is visible to an
// operator. fallbackPrompt is used when the payload carries no question.
func ParseItem(raw, fallbackPrompt string) (domain.QuizItem, error) {
	var payload rawItem
	if err := json.Unmarshal([]byte(StripFences(raw)), &payload); err != nil {
		return domain.QuizItem{}, fmt.Errorf("%w: %v", domain.ErrMalformedContent, err)
	}
	return buildItem(payload, fallbackPrompt)
}

// ParseItems validates a generated JSON array of payloads, as produced for
// mock tests. Entries that fail validation are skipped; an empty result is
// an error.
func ParseItems(raw, fallbackPrompt string) ([]domain.QuizItem, error) {
	var payloads []rawItem
	if err := json.Unmarshal([]byte(StripFences(raw)), &payloads); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedContent, err)
	}
	items := make([]domain.QuizItem, 0, len(payloads))
	for _, payload := range payloads {
		item, err := buildItem(payload, fallbackPrompt)
		if err != nil {
			log.Printf("content: skipping malformed item in batch: %v", err)
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no valid items in batch", domain.ErrMalformedContent)
	}
	return items, nil
}

func buildItem(payload rawItem, fallbackPrompt string) (domain.QuizItem, error) {
	if len(payload.Options) != domain.OptionCount {
		return domain.QuizItem{}, fmt.Errorf("%w: expected %d options, got %d",
			domain.ErrMalformedContent, domain.OptionCount, len(payload.Options))
	}

	prompt := strings.TrimSpace(payload.Question)
	if prompt == "" {
		prompt = fallbackPrompt
	}

	index, ok := parseIndex(payload.CorrectIndex)
	if !ok || index < 0 || index >= len(payload.Options) {
		log.Printf("content: invalid correct_index %q for %q, defaulting to 0", payload.CorrectIndex, prompt)
		index = 0
	}

	return domain.QuizItem{
		Prompt:       prompt,
		Options:      payload.Options,
		CorrectIndex: index,
	}, nil
}

func parseIndex(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var index int
	if err := json.Unmarshal(raw, &index); err != nil {
		return 0, false
	}
	return index, true
}
