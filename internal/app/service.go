// Package app wires the quiz-orchestration core to the chat surface: it
// routes inbound commands and messages, enforces authorization, drives the
// conversation flows, and hands completed configurations to the poll
// manager and the quiz runner.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"quizbot-service/internal/content"
	"quizbot-service/internal/conversation"
	"quizbot-service/internal/domain"
	"quizbot-service/internal/poll"
	"quizbot-service/internal/quizrun"
)

// Config carries the chat-facing settings of the bot service.
type Config struct {
	// ChannelID is the shared channel polls and quiz output go to.
	ChannelID string
	// AccessCode authorizes users via /auth.
	AccessCode string
	// QuestionInterval paces daily-quiz questions.
	QuestionInterval time.Duration
	// BatchPause separates polls published by /questions.
	BatchPause time.Duration
}

// Params collects the service dependencies.
type Params struct {
	Config        Config
	Transport     poll.Transport
	Generator     Generator
	Polls         *poll.Manager
	Runner        *quizrun.Runner
	Conversations ConversationStore
	Auth          AuthStore
	Subscriptions SubscriptionStore
	Shuffler      *content.Shuffler
}

// Service is the bot command router.
type Service struct {
	cfg           Config
	transport     poll.Transport
	generator     Generator
	polls         *poll.Manager
	runner        *quizrun.Runner
	conversations ConversationStore
	auth          AuthStore
	subscriptions SubscriptionStore
	shuffler      *content.Shuffler

	mu         sync.Mutex
	flashcards map[string]domain.Flashcard
}

func NewService(p Params) *Service {
	return &Service{
		cfg:           p.Config,
		transport:     p.Transport,
		generator:     p.Generator,
		polls:         p.Polls,
		runner:        p.Runner,
		conversations: p.Conversations,
		auth:          p.Auth,
		subscriptions: p.Subscriptions,
		shuffler:      p.Shuffler,
		flashcards:    make(map[string]domain.Flashcard),
	}
}

var commandList = []struct{ name, description string }{
	{"start", "Show the welcome message"},
	{"auth", "Authorize with the access code"},
	{"help", "Show available commands"},
	{"subscribe", "Subscribe to a quiz topic"},
	{"unsubscribe", "Unsubscribe from a quiz topic"},
	{"subscriptions", "List your subscriptions"},
	{"announce", "Send an announcement to the channel"},
	{"poll", "Create an interactive poll"},
	{"dailyquiz", "Start a recurring quiz session"},
	{"stop", "Stop the ongoing quiz session"},
	{"leaderboard", "View the current quiz standings"},
	{"flashcard", "Get a flashcard"},
	{"flip", "Reveal the flashcard answer"},
	{"mocktest", "Generate a mock test on a topic"},
	{"questions", "Turn a numbered question list into quiz polls"},
}

// HandleInbound routes one chat message: commands by name, everything else
// through the active conversation session or the auto-quiz path.
func (s *Service) HandleInbound(ctx context.Context, msg domain.InboundMessage) {
	if strings.HasPrefix(strings.TrimSpace(msg.Text), "/") {
		s.handleCommand(ctx, msg)
		return
	}
	s.handleMessage(ctx, msg)
}

// HandleAnswer feeds a poll answer event into the active quiz session.
func (s *Service) HandleAnswer(_ context.Context, event domain.AnswerEvent) {
	s.runner.HandleAnswer(event)
}

func (s *Service) handleCommand(ctx context.Context, msg domain.InboundMessage) {
	name, args := splitCommand(msg.Text)

	switch name {
	case "start":
		s.reply(ctx, msg, "Welcome to the quiz bot. Type /help for available commands.")
	case "help":
		s.reply(ctx, msg, helpText())
	case "auth":
		s.cmdAuth(ctx, msg, args)
	case "subscribe":
		s.cmdSubscribe(ctx, msg, args)
	case "unsubscribe":
		s.cmdUnsubscribe(ctx, msg, args)
	case "subscriptions":
		s.cmdSubscriptions(ctx, msg)
	case "announce":
		s.cmdAnnounce(ctx, msg, args)
	case "poll":
		s.cmdPoll(ctx, msg)
	case "dailyquiz":
		s.cmdDailyQuiz(ctx, msg)
	case "stop":
		s.cmdStop(ctx, msg)
	case "leaderboard":
		s.cmdLeaderboard(ctx, msg)
	case "flashcard":
		s.cmdFlashcard(ctx, msg)
	case "flip":
		s.cmdFlip(ctx, msg)
	case "mocktest":
		s.cmdMockTest(ctx, msg, args)
	case "questions":
		s.cmdQuestions(ctx, msg, args)
	}
}

func (s *Service) handleMessage(ctx context.Context, msg domain.InboundMessage) {
	key := scopeKey(msg)
	if session, ok := s.conversations.Get(key); ok {
		s.advanceConversation(ctx, msg, session)
		return
	}

	// Auto-quiz: an authorized plain message ending in "?" becomes a poll.
	text := strings.TrimSpace(msg.Text)
	if !strings.HasSuffix(text, "?") {
		return
	}
	if !s.authorized(ctx, msg) {
		return
	}
	s.publishGenerated(ctx, enhanceQuestionPrompt(text), text)
}

func (s *Service) advanceConversation(ctx context.Context, msg domain.InboundMessage, session *conversation.Session) {
	outcome := session.Advance(msg.Text)
	if !outcome.Done {
		s.sendChannel(ctx, outcome.Reply)
		return
	}
	s.conversations.Delete(session.Key)

	switch session.Flow {
	case conversation.FlowPoll:
		if _, err := s.polls.Publish(ctx, s.cfg.ChannelID, session.Question, session.Options, session.CorrectIndex); err != nil {
			log.Printf("app: poll creation failed: %v", err)
			s.sendChannel(ctx, "Failed to create poll")
		}
	case conversation.FlowDailyQuiz:
		run := quizrun.NewSession(s.cfg.ChannelID, session.Topic, session.Count, s.cfg.QuestionInterval)
		// The run outlives the message (and connection) that started it;
		// only /stop or completion ends it.
		if err := s.runner.Start(context.WithoutCancel(ctx), run); err != nil {
			s.sendChannel(ctx, "A quiz session is already running. Use /stop to end it first.")
			return
		}
		s.sendChannel(ctx, fmt.Sprintf("Starting daily quiz on topic: %s for %d questions.", session.Topic, session.Count))
	}
}

func (s *Service) cmdAuth(ctx context.Context, msg domain.InboundMessage, args string) {
	if args == "" || args != s.cfg.AccessCode {
		s.reply(ctx, msg, "Invalid access code")
		return
	}
	if err := s.auth.Authorize(ctx, msg.UserID); err != nil {
		log.Printf("app: authorize %s: %v", msg.UserID, err)
		s.reply(ctx, msg, "Authorization failed, try again later")
		return
	}
	s.reply(ctx, msg, "Authorization successful!")
}

func (s *Service) cmdSubscribe(ctx context.Context, msg domain.InboundMessage, args string) {
	if !s.requireAuth(ctx, msg) {
		return
	}
	topic := strings.TrimSpace(args)
	if topic == "" {
		s.reply(ctx, msg, "Usage: /subscribe <topic>")
		return
	}
	if err := s.subscriptions.Add(ctx, msg.UserID, topic); err != nil {
		log.Printf("app: subscribe: %v", err)
		return
	}
	s.reply(ctx, msg, "Subscribed to topic: "+topic)
}

func (s *Service) cmdUnsubscribe(ctx context.Context, msg domain.InboundMessage, args string) {
	if !s.requireAuth(ctx, msg) {
		return
	}
	topic := strings.TrimSpace(args)
	if topic == "" {
		s.reply(ctx, msg, "Usage: /unsubscribe <topic>")
		return
	}
	removed, err := s.subscriptions.Remove(ctx, msg.UserID, topic)
	if err != nil {
		log.Printf("app: unsubscribe: %v", err)
		return
	}
	if !removed {
		s.reply(ctx, msg, "You are not subscribed to topic: "+topic)
		return
	}
	s.reply(ctx, msg, "Unsubscribed from topic: "+topic)
}

func (s *Service) cmdSubscriptions(ctx context.Context, msg domain.InboundMessage) {
	topics, err := s.subscriptions.List(ctx, msg.UserID)
	if err != nil {
		log.Printf("app: subscriptions: %v", err)
		return
	}
	if len(topics) == 0 {
		s.reply(ctx, msg, "You have no subscriptions.")
		return
	}
	s.reply(ctx, msg, "Your subscriptions:\n"+strings.Join(topics, "\n"))
}

func (s *Service) cmdAnnounce(ctx context.Context, msg domain.InboundMessage, args string) {
	if !s.requireAuth(ctx, msg) {
		return
	}
	text := strings.TrimSpace(args)
	if text == "" {
		s.reply(ctx, msg, "Usage: /announce <announcement message>")
		return
	}
	banner := strings.Repeat("=", 20)
	s.sendChannel(ctx, fmt.Sprintf("%s\nANNOUNCEMENT\n%s\n\n%s\n\nStay tuned for more updates!", banner, banner, text))
	s.reply(ctx, msg, "Announcement sent to the channel.")
}

func (s *Service) cmdPoll(ctx context.Context, msg domain.InboundMessage) {
	if !s.requireAuth(ctx, msg) {
		return
	}
	session := conversation.NewPollSession(scopeKey(msg))
	s.conversations.Put(session)
	s.sendChannel(ctx, session.Prompt())
}

func (s *Service) cmdDailyQuiz(ctx context.Context, msg domain.InboundMessage) {
	if !s.requireAuth(ctx, msg) {
		return
	}
	session := conversation.NewDailyQuizSession(scopeKey(msg))
	s.conversations.Put(session)
	s.sendChannel(ctx, session.Prompt())
}

func (s *Service) cmdStop(ctx context.Context, msg domain.InboundMessage) {
	if !s.requireAuth(ctx, msg) {
		return
	}
	// A stop also abandons any conversation in progress for this scope.
	s.conversations.Delete(scopeKey(msg))
	if err := s.runner.Stop(); err != nil {
		if errors.Is(err, domain.ErrNoActiveQuiz) {
			s.sendChannel(ctx, "No quiz session is running.")
		}
		return
	}
	s.sendChannel(ctx, "Daily quiz stopped.")
}

func (s *Service) cmdLeaderboard(ctx context.Context, msg domain.InboundMessage) {
	if !s.requireAuth(ctx, msg) {
		return
	}
	session := s.runner.Current()
	if session == nil {
		s.sendChannel(ctx, "Good luck to all participants for the daily quiz!")
		return
	}
	s.sendChannel(ctx, quizrun.RenderLeaderboard(session.Leaderboard()))
}

func (s *Service) cmdFlashcard(ctx context.Context, msg domain.InboundMessage) {
	if !s.requireAuth(ctx, msg) {
		return
	}
	raw, err := s.generate(ctx, flashcardPrompt)
	if err != nil {
		log.Printf("app: flashcard generation: %v", err)
		s.sendChannel(ctx, "Failed to generate flashcard.")
		return
	}
	var card domain.Flashcard
	if err := json.Unmarshal([]byte(content.StripFences(raw)), &card); err != nil || card.Question == "" {
		log.Printf("app: flashcard parse: %v", err)
		s.sendChannel(ctx, "Failed to generate flashcard.")
		return
	}
	s.mu.Lock()
	s.flashcards[msg.UserID] = card
	s.mu.Unlock()
	s.sendChannel(ctx, "Flashcard:\n\nQuestion: "+card.Question+"\n\nUse /flip to reveal the answer.")
}

func (s *Service) cmdFlip(ctx context.Context, msg domain.InboundMessage) {
	s.mu.Lock()
	card, ok := s.flashcards[msg.UserID]
	s.mu.Unlock()
	if !ok {
		s.sendChannel(ctx, "No flashcard available. Use /flashcard to get one.")
		return
	}
	s.sendChannel(ctx, "Answer: "+card.Answer)
}

func (s *Service) cmdMockTest(ctx context.Context, msg domain.InboundMessage, args string) {
	if !s.requireAuth(ctx, msg) {
		return
	}
	topic := strings.TrimSpace(args)
	if topic == "" {
		s.reply(ctx, msg, "Usage: /mocktest <topic>")
		return
	}
	raw, err := s.generate(ctx, mockTestPrompt(topic))
	if err != nil {
		log.Printf("app: mock test generation: %v", err)
		s.sendChannel(ctx, "Failed to generate mock test.")
		return
	}
	items, err := content.ParseItems(raw, "Question")
	if err != nil {
		log.Printf("app: mock test parse: %v", err)
		s.sendChannel(ctx, "Mock test generation failed. Please try again.")
		return
	}
	for i, item := range items {
		item = s.shuffler.Shuffle(item)
		var b strings.Builder
		fmt.Fprintf(&b, "Question %d: %s\n", i+1, item.Prompt)
		for j, option := range item.Options {
			fmt.Fprintf(&b, "%d. %s\n", j+1, option)
		}
		fmt.Fprintf(&b, "(Correct Answer: Option %d)", item.CorrectIndex+1)
		s.sendChannel(ctx, b.String())
	}
}

// cmdQuestions turns a numbered question list into a sequence of quiz
// polls, one generation per line, pausing between publishes.
func (s *Service) cmdQuestions(ctx context.Context, msg domain.InboundMessage, args string) {
	if !s.requireAuth(ctx, msg) {
		return
	}
	questions := parseNumberedQuestions(args)
	if len(questions) == 0 {
		s.reply(ctx, msg, "Provide the questions after the /questions command.")
		return
	}
	// Detached from the inbound context: the batch keeps publishing after
	// the requesting connection goes away.
	batchCtx := context.WithoutCancel(ctx)
	go func() {
		for i, question := range questions {
			s.publishGenerated(batchCtx, enhanceQuestionPrompt(question), question)
			if i < len(questions)-1 {
				time.Sleep(s.cfg.BatchPause)
			}
		}
	}()
}

// publishGenerated runs the generate → validate → shuffle → publish
// pipeline for one question and reports failures to the channel.
func (s *Service) publishGenerated(ctx context.Context, prompt, fallbackPrompt string) {
	raw, err := s.generate(ctx, prompt)
	if err != nil {
		log.Printf("app: generation failed: %v", err)
		s.sendChannel(ctx, "Failed to generate quiz poll.")
		return
	}
	item, err := content.ParseItem(raw, fallbackPrompt)
	if err != nil {
		log.Printf("app: generated payload rejected: %v", err)
		s.sendChannel(ctx, "Failed to generate quiz poll.")
		return
	}
	item = s.shuffler.Shuffle(item)
	if _, err := s.polls.Publish(ctx, s.cfg.ChannelID, item.Prompt, item.Options, item.CorrectIndex); err != nil {
		log.Printf("app: quiz poll publish failed: %v", err)
		s.sendChannel(ctx, "Failed to send quiz poll.")
	}
}

func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	if s.generator == nil {
		return "", errors.New("no generator configured")
	}
	return s.generator.Generate(ctx, prompt)
}

func (s *Service) requireAuth(ctx context.Context, msg domain.InboundMessage) bool {
	if s.authorized(ctx, msg) {
		return true
	}
	s.reply(ctx, msg, "You are not authorized. Use /auth <access code>")
	return false
}

func (s *Service) authorized(ctx context.Context, msg domain.InboundMessage) bool {
	ok, err := s.auth.IsAuthorized(ctx, msg.UserID, msg.Username)
	if err != nil {
		log.Printf("app: authorization check: %v", err)
		return false
	}
	return ok
}

func (s *Service) reply(ctx context.Context, msg domain.InboundMessage, text string) {
	if err := s.transport.SendText(ctx, msg.ChatID, text); err != nil {
		log.Printf("app: reply to %s failed: %v", msg.ChatID, err)
	}
}

func (s *Service) sendChannel(ctx context.Context, text string) {
	if err := s.transport.SendText(ctx, s.cfg.ChannelID, text); err != nil {
		log.Printf("app: channel send failed: %v", err)
	}
}

func scopeKey(msg domain.InboundMessage) string {
	return msg.ChatID + ":" + msg.UserID
}

func splitCommand(text string) (name, args string) {
	text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "/"))
	name, args, _ = strings.Cut(text, " ")
	return strings.ToLower(name), strings.TrimSpace(args)
}

func helpText() string {
	var b strings.Builder
	b.WriteString("Available Commands:\n\n")
	for _, cmd := range commandList {
		fmt.Fprintf(&b, "/%s - %s\n", cmd.name, cmd.description)
	}
	return b.String()
}

// parseNumberedQuestions extracts "1. ..." style lines; when none are
// numbered the whole text counts as a single question.
func parseNumberedQuestions(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var questions []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if stripped, ok := stripLineNumber(line); ok && stripped != "" {
			questions = append(questions, stripped)
		}
	}
	if len(questions) == 0 {
		questions = []string{text}
	}
	return questions
}

func stripLineNumber(line string) (string, bool) {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(line) || line[i] != '.' {
		return "", false
	}
	return strings.TrimSpace(line[i+1:]), true
}
