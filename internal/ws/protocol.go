// Package ws is the connection adapter (C8): it turns gorilla/websocket
// connections into typed commands against a game.Room, and turns
// game.Event values coming back out of the room into JSON frames.
package ws

import "encoding/json"

// Envelope is the wire shape of every frame, inbound or outbound.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound payload shapes, keyed by Envelope.Type (spec.md §6).

type joinPayload struct {
	Nickname string `json:"nickname"`
	Team     string `json:"team,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

type answerPayload struct {
	AnswerIndex int `json:"answer_index"`
}

type usePowerUpPayload struct {
	PowerUp string `json:"power_up"`
}

type resetRoomPayload struct {
	QuizData  *quizDataPayload `json:"quiz_data,omitempty"`
	TimeLimit int              `json:"time_limit,omitempty"`
}

type quizDataPayload struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Questions []questionDataInput `json:"questions"`
}

type questionDataInput struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	ImageRef     string   `json:"image_ref,omitempty"`
	IsBonus      bool     `json:"is_bonus,omitempty"`
}

const (
	inJoin         = "JOIN"
	inAnswer       = "ANSWER"
	inUsePowerUp   = "USE_POWER_UP"
	inStartGame    = "START_GAME"
	inNextQuestion = "NEXT_QUESTION"
	inEndQuiz      = "END_QUIZ"
	inResetRoom    = "RESET_ROOM"
)
