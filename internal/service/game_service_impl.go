package service

import (
	"context"
	"time"

	"github.com/hallvik/quizrelay/internal/game"
	"github.com/hallvik/quizrelay/internal/storage"
)

type gameService struct {
	rooms RoomCreator
	dir   *game.Directory
	bank  storage.QuizBank
}

// NewGameService wires a room creator (typically *ws.Server), the
// directory it populates, and the Quiz Bank quiz ids resolve against.
func NewGameService(rooms RoomCreator, dir *game.Directory, bank storage.QuizBank) GameService {
	return &gameService{rooms: rooms, dir: dir, bank: bank}
}

func (s *gameService) CreateRoom(ctx context.Context, quizID string, timeLimit time.Duration) (RoomCreated, error) {
	quiz, err := s.bank.GetQuiz(ctx, quizID)
	if err != nil {
		return RoomCreated{}, err
	}
	room, err := s.rooms.CreateRoom(quiz, timeLimit)
	if err != nil {
		return RoomCreated{}, err
	}
	return RoomCreated{RoomCode: room.Code, OrganizerToken: room.OrganizerToken}, nil
}

func (s *gameService) GetRoom(code string) (*game.Room, bool) {
	return s.dir.Lookup(code)
}
