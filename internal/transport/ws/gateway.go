// Package ws bridges the bot to its chat front-end over WebSocket. A
// connected client relays user messages and poll answers inbound, and
// receives text, poll, and poll-close frames outbound. The gateway assigns
// poll identifiers and implements the poll.Transport capability.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"quizbot-service/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Handler consumes inbound chat traffic; implemented by app.Service.
type Handler interface {
	HandleInbound(ctx context.Context, msg domain.InboundMessage)
	HandleAnswer(ctx context.Context, event domain.AnswerEvent)
}

type inboundFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type messagePayload struct {
	ChatID   string `json:"chatId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

type answerPayload struct {
	PollID    string `json:"pollId"`
	UserID    string `json:"userId"`
	OptionIDs []int  `json:"optionIds"`
}

type outboundFrame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type textPayload struct {
	ChatID string `json:"chatId"`
	Text   string `json:"text"`
}

type pollPayload struct {
	ChatID        string   `json:"chatId"`
	PollID        string   `json:"pollId"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectIndex  int      `json:"correctIndex"`
	Anonymous     bool     `json:"anonymous"`
	AllowMultiple bool     `json:"allowsMultipleAnswers"`
}

type closePollPayload struct {
	ChatID string `json:"chatId"`
	PollID string `json:"pollId"`
}

// Gateway upgrades chat-client connections and fans outbound frames to all
// of them. It satisfies poll.Transport for the rest of the system.
type Gateway struct {
	handler  Handler
	upgrader websocket.Upgrader
	// base is the context handler calls run under. Inbound frames can start
	// work that outlives the connection they arrived on (quiz runs, batch
	// publishes), so dispatch must not inherit the per-request context.
	base context.Context

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan outboundFrame
}

func NewGateway(handler Handler) *Gateway {
	return &Gateway{
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		base:    context.Background(),
		clients: make(map[*client]struct{}),
	}
}

// ServeWS upgrades an HTTP request from the chat front-end and pumps frames
// in both directions until the connection drops.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	c := &client{conn: conn, send: make(chan outboundFrame, 32)}
	g.mu.Lock()
	g.clients[c] = struct{}{}
	g.mu.Unlock()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for frame := range c.send {
			if err := conn.WriteJSON(frame); err != nil {
				log.Printf("ws: write error: %v", err)
				return
			}
		}
	}()

	g.readLoop(g.base, conn)

	g.mu.Lock()
	delete(g.clients, c)
	g.mu.Unlock()
	close(c.send)
	<-writerDone
}

func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		switch frame.Type {
		case "message":
			var payload messagePayload
			if err := json.Unmarshal(frame.Payload, &payload); err != nil {
				log.Printf("ws: bad message payload: %v", err)
				continue
			}
			g.handler.HandleInbound(ctx, domain.InboundMessage{
				ChatID:   payload.ChatID,
				UserID:   payload.UserID,
				Username: payload.Username,
				Text:     payload.Text,
			})
		case "pollAnswer":
			var payload answerPayload
			if err := json.Unmarshal(frame.Payload, &payload); err != nil {
				log.Printf("ws: bad answer payload: %v", err)
				continue
			}
			g.handler.HandleAnswer(ctx, domain.AnswerEvent{
				PollID:        payload.PollID,
				UserID:        payload.UserID,
				OptionIndices: payload.OptionIDs,
			})
		default:
			log.Printf("ws: unsupported frame type %q", frame.Type)
		}
	}
}

// SendPoll publishes a poll frame to every connected client and returns the
// gateway-assigned poll id.
func (g *Gateway) SendPoll(_ context.Context, chatID, question string, options []string, correctIndex int) (string, error) {
	pollID := uuid.NewString()
	err := g.broadcast(outboundFrame{Type: "poll", Payload: pollPayload{
		ChatID:        chatID,
		PollID:        pollID,
		Question:      question,
		Options:       options,
		CorrectIndex:  correctIndex,
		Anonymous:     true,
		AllowMultiple: false,
	}})
	if err != nil {
		return "", err
	}
	return pollID, nil
}

func (g *Gateway) StopPoll(_ context.Context, chatID, pollID string) error {
	return g.broadcast(outboundFrame{Type: "closePoll", Payload: closePollPayload{ChatID: chatID, PollID: pollID}})
}

func (g *Gateway) SendText(_ context.Context, chatID, text string) error {
	return g.broadcast(outboundFrame{Type: "text", Payload: textPayload{ChatID: chatID, Text: text}})
}

func (g *Gateway) clientCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.clients)
}

func (g *Gateway) broadcast(frame outboundFrame) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if len(g.clients) == 0 {
		return domain.ErrNoGatewayClient
	}
	for c := range g.clients {
		select {
		case c.send <- frame:
		default:
			// Drop the oldest frame rather than block every sender on one
			// slow client.
			select {
			case <-c.send:
			default:
			}
			c.send <- frame
		}
	}
	return nil
}
