package conversation

import (
	"reflect"
	"testing"
)

func TestAnonymityGate(t *testing.T) {
	s := NewPollSession("chat:user")

	out := s.Advance("maybe")
	if out.Done || s.State != StateAwaitAnonymity {
		t.Fatalf("expected re-prompt without state change, state=%v", s.State)
	}

	out = s.Advance("No")
	if out.Done || s.State != StateAwaitQuestion {
		t.Fatalf("expected advance to question, state=%v", s.State)
	}
	if s.Anonymous {
		t.Fatalf("expected anonymous=false for 'no'")
	}
}

func TestOptionsParsing(t *testing.T) {
	s := NewPollSession("k")
	s.State = StateAwaitOptions

	out := s.Advance("a, b ,, c")
	if out.Done || s.State != StateAwaitCorrect {
		t.Fatalf("expected advance, state=%v", s.State)
	}
	if !reflect.DeepEqual(s.Options, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected options %v", s.Options)
	}
}

func TestSingleOptionReprompts(t *testing.T) {
	s := NewPollSession("k")
	s.State = StateAwaitOptions

	out := s.Advance("a")
	if out.Done || s.State != StateAwaitOptions {
		t.Fatalf("expected re-prompt, state=%v", s.State)
	}
}

func TestOptionsCappedAtTen(t *testing.T) {
	s := NewPollSession("k")
	s.State = StateAwaitOptions

	s.Advance("1,2,3,4,5,6,7,8,9,10,11,12")
	if len(s.Options) != 10 {
		t.Fatalf("expected 10 options, got %d", len(s.Options))
	}
}

func TestCorrectOptionValidation(t *testing.T) {
	s := NewPollSession("k")
	s.State = StateAwaitCorrect
	s.Options = []string{"a", "b", "c"}

	for _, bad := range []string{"0", "4", "x", ""} {
		if out := s.Advance(bad); out.Done || s.State != StateAwaitCorrect {
			t.Fatalf("input %q should re-prompt", bad)
		}
	}

	out := s.Advance("2")
	if !out.Done || s.CorrectIndex != 1 {
		t.Fatalf("expected done with index 1, got done=%v index=%d", out.Done, s.CorrectIndex)
	}
}

func TestDailyQuizFlow(t *testing.T) {
	s := NewDailyQuizSession("k")

	out := s.Advance("History")
	if out.Done || s.State != StateAwaitCount {
		t.Fatalf("expected advance to count, state=%v", s.State)
	}

	if out := s.Advance("lots"); out.Done || s.State != StateAwaitCount {
		t.Fatalf("non-numeric count should re-prompt")
	}
	if out := s.Advance("0"); out.Done {
		t.Fatalf("zero count should re-prompt")
	}

	out = s.Advance("3")
	if !out.Done || s.Topic != "History" || s.Count != 3 {
		t.Fatalf("unexpected session %+v", s)
	}
}
