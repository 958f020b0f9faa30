// Package service is the control-plane layer between the HTTP handlers
// and the room engine/Quiz Bank: it resolves a quiz id to a playable
// Quiz and turns that into a running Room.
package service

import (
	"context"
	"time"

	"github.com/hallvik/quizrelay/internal/game"
)

// RoomCreated is what CreateRoom hands back to the HTTP layer: just
// enough for an organizer to open the realtime connection.
type RoomCreated struct {
	RoomCode       string
	OrganizerToken string
}

// RoomCreator allocates a room for an already-resolved Quiz. ws.Server
// satisfies this by wiring the room's event bus in the same call, so
// the service layer never has to know about the connection adapter.
type RoomCreator interface {
	CreateRoom(quiz game.Quiz, timeLimit time.Duration) (*game.Room, error)
}

// GameService is the control-plane half of room lifecycle management
// (operation CREATE_ROOM of spec.md §4.2, surfaced over HTTP).
type GameService interface {
	CreateRoom(ctx context.Context, quizID string, timeLimit time.Duration) (RoomCreated, error)
	GetRoom(code string) (*game.Room, bool)
}
