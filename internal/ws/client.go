package ws

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hallvik/quizrelay/internal/game"
)

type role int

const (
	roleOrganizer role = iota
	rolePlayer
	roleSpectator
)

// HeartbeatConfig carries the transport-level ping/pong tunables
// (spec.md §6's HEARTBEAT_INTERVAL_SECONDS).
type HeartbeatConfig struct {
	Interval       time.Duration
	PongGrace      time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
}

// DefaultHeartbeat matches the teacher's original constants, used
// where config doesn't override them.
var DefaultHeartbeat = HeartbeatConfig{
	Interval:       54 * time.Second,
	PongGrace:      60 * time.Second,
	WriteTimeout:   10 * time.Second,
	MaxMessageSize: 8 * 1024,
}

// Client is one WebSocket connection (C8), attached to exactly one
// room's bus under exactly one role.
type Client struct {
	bus      *Bus
	room     *game.Room
	conn     *websocket.Conn
	log      *zap.Logger
	hb       HeartbeatConfig
	role     role
	nickname string

	send      chan []byte
	closeOnce sync.Once
}

func newClient(bus *Bus, room *game.Room, conn *websocket.Conn, log *zap.Logger, hb HeartbeatConfig, r role, nickname string, queueSize int) *Client {
	return &Client{
		bus:      bus,
		room:     room,
		conn:     conn,
		log:      log,
		hb:       hb,
		role:     r,
		nickname: nickname,
		send:     make(chan []byte, queueSize),
	}
}

// enqueue is the non-blocking send the bus uses to fan events out.
// Reports false if the client's queue is full.
func (c *Client) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) forceClose() {
	c.closeOnce.Do(func() {
		close(c.send)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) sendError(message string) {
	data, _ := encodeEvent(game.Event{Type: game.EvtError, Payload: game.ErrorPayload{Message: message}})
	c.enqueue(data)
}

func kindClosesConnection(k game.Kind) bool {
	switch k {
	case game.KindUnauthorized, game.KindInvariantViolation:
		return true
	default:
		return false
	}
}

// readPump decodes inbound frames and dispatches them to the room. It
// runs until the connection errors or closes, then unwinds the
// client's registration — matching the teacher's readPump/defer shape.
func (c *Client) readPump() {
	defer func() {
		c.bus.Unregister(c)
		switch c.role {
		case rolePlayer:
			c.room.DetachPlayer(c.nickname, c)
		case roleOrganizer:
			c.room.OrganizerDisconnect(c)
		case roleSpectator:
			c.room.RemoveSpectator(c)
		}
		c.forceClose()
	}()

	c.conn.SetReadLimit(c.hb.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.hb.PongGrace))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.hb.PongGrace))
		return nil
	})

	for {
		var env Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			return
		}
		if env.Type == "" {
			c.sendError("missing type")
			continue
		}
		c.dispatch(env)
	}
}

func (c *Client) dispatch(env Envelope) {
	var err error
	switch env.Type {
	case inAnswer:
		err = c.handleAnswer(env.Payload)
	case inUsePowerUp:
		err = c.handleUsePowerUp(env.Payload)
	case inStartGame:
		err = c.requireOrganizer(c.room.StartGame)
	case inNextQuestion:
		err = c.requireOrganizer(c.room.NextQuestion)
	case inEndQuiz:
		err = c.requireOrganizer(c.room.EndQuiz)
	case inResetRoom:
		err = c.handleResetRoom(env.Payload)
	default:
		c.sendError("unknown message type")
		return
	}
	if err == nil {
		return
	}
	c.log.Warn("command failed",
		zap.String("type", env.Type),
		zap.String("nickname", c.nickname),
		zap.Error(err),
	)
	c.sendError(err.Error())
	if gerr, ok := err.(*game.Error); ok && kindClosesConnection(gerr.Kind) {
		c.forceClose()
	}
}

func (c *Client) requireOrganizer(fn func() error) error {
	if c.role != roleOrganizer {
		return game.ErrWrongRole
	}
	return fn()
}

func (c *Client) handleAnswer(raw json.RawMessage) error {
	if c.role != rolePlayer {
		return game.ErrWrongRole
	}
	var p answerPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return game.ErrInvalidOption
	}
	return c.room.Answer(c.nickname, p.AnswerIndex)
}

func (c *Client) handleUsePowerUp(raw json.RawMessage) error {
	if c.role != rolePlayer {
		return game.ErrWrongRole
	}
	var p usePowerUpPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return game.ErrPowerUpRejected
	}
	_, err := c.room.UsePowerUp(c.nickname, game.PowerUp(p.PowerUp))
	return err
}

func (c *Client) handleResetRoom(raw json.RawMessage) error {
	if c.role != roleOrganizer {
		return game.ErrWrongRole
	}
	var p resetRoomPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return game.ErrInvalidQuiz
		}
	}
	var quiz *game.Quiz
	if p.QuizData != nil {
		built, err := quizFromPayload(*p.QuizData)
		if err != nil {
			return err
		}
		quiz = &built
	}
	return c.room.ResetRoom(quiz, time.Duration(p.TimeLimit)*time.Second)
}

func quizFromPayload(p quizDataPayload) (game.Quiz, error) {
	questions := make([]game.Question, 0, len(p.Questions))
	for _, qi := range p.Questions {
		opts := make([]game.Option, 0, len(qi.Options))
		for _, o := range qi.Options {
			opts = append(opts, game.Option{Text: o})
		}
		questions = append(questions, game.Question{
			ID:           qi.ID,
			Prompt:       qi.Prompt,
			Options:      opts,
			CorrectIndex: qi.CorrectIndex,
			ImageRef:     qi.ImageRef,
			IsBonus:      qi.IsBonus,
		})
	}
	return game.NewQuiz(p.ID, p.Title, questions)
}

// writePump drains c.send to the socket and drives the ping heartbeat.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hb.Interval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hb.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hb.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func trimmedOrEmpty(s string) string { return strings.TrimSpace(s) }
