package domain

import "time"

// OptionCount is the number of options a generated quiz item must carry.
const OptionCount = 4

// QuizItem is a validated question/options/correct-index triple ready for
// publication. Immutable once shuffled.
type QuizItem struct {
	Prompt       string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// PollRecord correlates a transport-assigned poll id with the expected
// correct option. Owned by the poll manager from publish until close.
type PollRecord struct {
	PollID           string
	ChatID           string
	CorrectIndex     int
	ScheduledCloseAt time.Time
}

// AnswerEvent is delivered by the transport when a participant answers a poll.
type AnswerEvent struct {
	PollID        string
	UserID        string
	OptionIndices []int
}

// InboundMessage is a chat message or command relayed by the gateway.
type InboundMessage struct {
	ChatID   string
	UserID   string
	Username string
	Text     string
}

// LeaderboardEntry is one row of a quiz session's final standings.
type LeaderboardEntry struct {
	UserID string `json:"userId"`
	Score  int    `json:"score"`
}

// Flashcard is a generated question/answer pair held per user until flipped.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
