// Package conversation implements the multi-step authoring flows as explicit
// finite-state machines. Each chat+user scope owns at most one session; the
// session value carries the collected fields and the current state, and every
// message for that scope advances (or re-prompts) exactly one step.
package conversation

import (
	"strconv"
	"strings"
)

// FlowKind selects which linear flow a session is running.
type FlowKind int

const (
	FlowPoll FlowKind = iota
	FlowDailyQuiz
)

// State identifies the next input a flow is waiting for.
type State int

const (
	StateAwaitAnonymity State = iota
	StateAwaitQuestion
	StateAwaitOptions
	StateAwaitCorrect

	StateAwaitTopic
	StateAwaitCount
)

const maxPollOptions = 10

// Session is the per-scope conversation state. Created on flow entry,
// mutated by each accepted step, deleted by the caller once Done.
type Session struct {
	Key  string
	Flow FlowKind

	State State

	// Poll authoring fields.
	Anonymous    bool
	Question     string
	Options      []string
	CorrectIndex int

	// Daily quiz configuration fields.
	Topic string
	Count int
}

// Outcome is the result of feeding one message into a session.
type Outcome struct {
	Reply string
	Done  bool
}

// NewPollSession starts the poll-authoring flow for a scope.
func NewPollSession(key string) *Session {
	return &Session{Key: key, Flow: FlowPoll, State: StateAwaitAnonymity}
}

// NewDailyQuizSession starts the daily-quiz configuration flow for a scope.
func NewDailyQuizSession(key string) *Session {
	return &Session{Key: key, Flow: FlowDailyQuiz, State: StateAwaitTopic}
}

// Prompt returns the question the session is currently asking.
func (s *Session) Prompt() string {
	switch s.State {
	case StateAwaitAnonymity:
		return "Should this poll be anonymous? (yes/no)"
	case StateAwaitQuestion:
		return "Please enter your poll question:"
	case StateAwaitOptions:
		return "Enter poll options separated by commas:"
	case StateAwaitCorrect:
		return "Please enter the number (1-based) of the correct answer:"
	case StateAwaitTopic:
		return "Please enter the quiz topic"
	case StateAwaitCount:
		return "Number of questions"
	}
	return ""
}

// Advance feeds one message into the session. Invalid input re-prompts
// without changing state; valid input stores the field and moves to the
// next state. Done is set when the final field has been collected.
func (s *Session) Advance(input string) Outcome {
	input = strings.TrimSpace(input)

	switch s.State {
	case StateAwaitAnonymity:
		choice := strings.ToLower(input)
		if choice != "yes" && choice != "no" {
			return Outcome{Reply: "Please answer with 'yes' or 'no'"}
		}
		s.Anonymous = choice == "yes"
		s.State = StateAwaitQuestion
		return Outcome{Reply: s.Prompt()}

	case StateAwaitQuestion:
		if input == "" {
			return Outcome{Reply: "Please enter your poll question:"}
		}
		s.Question = input
		s.State = StateAwaitOptions
		return Outcome{Reply: s.Prompt()}

	case StateAwaitOptions:
		options := splitOptions(input)
		if len(options) < 2 {
			return Outcome{Reply: "Need at least 2 options. Please try again:"}
		}
		s.Options = options
		s.State = StateAwaitCorrect
		return Outcome{Reply: s.Prompt()}

	case StateAwaitCorrect:
		number, err := strconv.Atoi(input)
		if err != nil || number < 1 || number > len(s.Options) {
			return Outcome{Reply: "Please enter a valid option number."}
		}
		s.CorrectIndex = number - 1
		return Outcome{Done: true}

	case StateAwaitTopic:
		if input == "" {
			return Outcome{Reply: "Please enter the quiz topic"}
		}
		s.Topic = input
		s.State = StateAwaitCount
		return Outcome{Reply: s.Prompt()}

	case StateAwaitCount:
		count, err := strconv.Atoi(input)
		if err != nil || count < 1 {
			return Outcome{Reply: "Please enter a valid number."}
		}
		s.Count = count
		return Outcome{Done: true}
	}

	return Outcome{}
}

// splitOptions parses a comma-separated option list: blanks dropped,
// entries beyond the tenth discarded.
func splitOptions(input string) []string {
	parts := strings.Split(input, ",")
	options := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		options = append(options, part)
		if len(options) == maxPollOptions {
			break
		}
	}
	return options
}
