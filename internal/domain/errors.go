package domain

import "errors"

var (
	// ErrMalformedContent is returned when generated content fails structural validation.
	ErrMalformedContent = errors.New("malformed generated content")
	// ErrPublishFailed wraps a transport failure while creating a poll.
	ErrPublishFailed = errors.New("poll publish failed")
	// ErrNoActiveQuiz is returned when a stop request arrives with no quiz running.
	ErrNoActiveQuiz = errors.New("no active quiz session")
	// ErrQuizAlreadyRunning is returned when a quiz session is started while one is in progress.
	ErrQuizAlreadyRunning = errors.New("quiz session already running")
	// ErrBankTopicNotFound indicates the question bank has no content for a topic.
	ErrBankTopicNotFound = errors.New("question bank topic not found")
	// ErrNoGatewayClient indicates no chat client is connected to deliver to.
	ErrNoGatewayClient = errors.New("no gateway client connected")
)
