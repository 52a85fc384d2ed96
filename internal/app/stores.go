package app

import (
	"context"

	"quizbot-service/internal/conversation"
	"quizbot-service/internal/domain"
)

// Generator produces raw quiz content for a prompt. The output is untrusted
// and must pass the content validator before use.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// AuthStore tracks which identities may use privileged commands.
type AuthStore interface {
	IsAuthorized(ctx context.Context, userID, username string) (bool, error)
	Authorize(ctx context.Context, userID string) error
}

// SubscriptionStore keeps per-user topic subscriptions.
type SubscriptionStore interface {
	Add(ctx context.Context, userID, topic string) error
	Remove(ctx context.Context, userID, topic string) (bool, error)
	List(ctx context.Context, userID string) ([]string, error)
}

// ConversationStore holds at most one conversation session per scope key.
type ConversationStore interface {
	Get(key string) (*conversation.Session, bool)
	Put(session *conversation.Session)
	Delete(key string)
}

// QuestionBank serves curated quiz items by topic.
type QuestionBank interface {
	Topic(ctx context.Context, topic string) ([]domain.QuizItem, error)
}
