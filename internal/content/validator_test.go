package content

import (
	"errors"
	"testing"

	"quizbot-service/internal/domain"
)

func TestParseItemStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"question\":\"Capital of France?\",\"options\":[\"Paris\",\"Lyon\",\"Nice\",\"Lille\"],\"correct_index\":0}\n```"
	item, err := ParseItem(raw, "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if item.Prompt != "Capital of France?" {
		t.Fatalf("unexpected prompt %q", item.Prompt)
	}
	if len(item.Options) != 4 || item.CorrectIndex != 0 {
		t.Fatalf("unexpected item %+v", item)
	}
}

func TestParseItemRejectsWrongOptionCount(t *testing.T) {
	raw := `{"question":"q","options":["a","b","c"],"correct_index":0}`
	if _, err := ParseItem(raw, ""); !errors.Is(err, domain.ErrMalformedContent) {
		t.Fatalf("expected malformed content, got %v", err)
	}
}

func TestParseItemRejectsNonListOptions(t *testing.T) {
	raw := `{"question":"q","options":"a,b,c,d","correct_index":0}`
	if _, err := ParseItem(raw, ""); !errors.Is(err, domain.ErrMalformedContent) {
		t.Fatalf("expected malformed content, got %v", err)
	}
}

func TestParseItemDefaultsBadCorrectIndex(t *testing.T) {
	cases := map[string]string{
		"missing":      `{"question":"q","options":["a","b","c","d"]}`,
		"non-integer":  `{"question":"q","options":["a","b","c","d"],"correct_index":"two"}`,
		"out of range": `{"question":"q","options":["a","b","c","d"],"correct_index":7}`,
		"negative":     `{"question":"q","options":["a","b","c","d"],"correct_index":-1}`,
	}
	for name, raw := range cases {
		item, err := ParseItem(raw, "")
		if err != nil {
			t.Fatalf("%s: parse: %v", name, err)
		}
		if item.CorrectIndex != 0 {
			t.Fatalf("%s: expected defaulted index 0, got %d", name, item.CorrectIndex)
		}
	}
}

func TestParseItemUsesFallbackPrompt(t *testing.T) {
	raw := `{"options":["a","b","c","d"],"correct_index":1}`
	item, err := ParseItem(raw, "Original question?")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if item.Prompt != "Original question?" {
		t.Fatalf("expected fallback prompt, got %q", item.Prompt)
	}
}

func TestParseItemsSkipsMalformedEntries(t *testing.T) {
	raw := `[
		{"question":"ok","options":["a","b","c","d"],"correct_index":2},
		{"question":"bad","options":["a","b"],"correct_index":0}
	]`
	items, err := ParseItems(raw, "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(items) != 1 || items[0].Prompt != "ok" {
		t.Fatalf("expected single valid item, got %+v", items)
	}
}

func TestParseItemsAllMalformed(t *testing.T) {
	raw := `[{"question":"bad","options":[],"correct_index":0}]`
	if _, err := ParseItems(raw, ""); !errors.Is(err, domain.ErrMalformedContent) {
		t.Fatalf("expected malformed content, got %v", err)
	}
}
