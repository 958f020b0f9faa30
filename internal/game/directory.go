package game

import (
	"crypto/rand"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hallvik/quizrelay/internal/clock"
)

const roomCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
const roomCodeLen = 6
const maxCodeAttempts = 20

// DirectoryConfig mirrors RoomConfig plus the process-wide admission
// limit (spec.md §6's MAX_ROOMS).
type DirectoryConfig struct {
	RoomConfig
	MaxRooms int
}

// Directory is the process-wide room registry (C7): a concurrent map
// from room code to *Room, guarded by a single RWMutex the way the
// teacher's RoomManager guarded its own map — the mutex here protects
// only the map itself, never room state, which stays inside each
// Room's own actor loop.
type Directory struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	cfg   DirectoryConfig
	clk   clock.Clock
	log   *zap.Logger
	hooks []func(code string)
}

// NewDirectory returns an empty room directory.
func NewDirectory(cfg DirectoryConfig, clk clock.Clock, log *zap.Logger) *Directory {
	return &Directory{
		rooms: make(map[string]*Room),
		cfg:   cfg,
		clk:   clk,
		log:   log,
	}
}

// CreateRoom allocates a fresh room code, mints an organizer token, and
// starts the room's actor loop (operation CREATE_ROOM, spec.md §4.2).
// newPublisher builds the room's event bus once its code is known —
// the connection adapter needs the code to key its per-room bus
// registry before any client can attach.
func (d *Directory) CreateRoom(quiz Quiz, timeLimit time.Duration, newPublisher func(code string) Publisher) (*Room, error) {
	d.mu.Lock()
	if d.cfg.MaxRooms > 0 && len(d.rooms) >= d.cfg.MaxRooms {
		d.mu.Unlock()
		return nil, ErrRoomLocked
	}
	code, err := d.nextCodeLocked()
	if err != nil {
		d.mu.Unlock()
		return nil, err
	}
	token := uuid.NewString()
	pub := newPublisher(code)
	room := NewRoom(code, token, quiz, timeLimit, d.cfg.RoomConfig, d.clk, pub, d.log, d.evict)
	d.rooms[code] = room
	d.mu.Unlock()

	d.log.Info("room created", zap.String("room", code))
	return room, nil
}

// nextCodeLocked must be called with d.mu held for writing.
func (d *Directory) nextCodeLocked() (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := randomRoomCode()
		if err != nil {
			return "", err
		}
		if _, taken := d.rooms[code]; !taken {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

func randomRoomCode() (string, error) {
	buf := make([]byte, roomCodeLen)
	alphabetLen := big.NewInt(int64(len(roomCodeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		buf[i] = roomCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// Lookup finds a room by code. A closed room is still removed lazily
// from the map by evict; Lookup never returns a room past that point.
func (d *Directory) Lookup(code string) (*Room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.rooms[code]
	return r, ok
}

// evict removes a room from the directory once it has closed. Passed
// to NewRoom as the onClosed callback, so it runs from inside the
// room's own actor loop — the directory lock is the only
// cross-goroutine synchronization involved.
func (d *Directory) evict(code string) {
	d.mu.Lock()
	delete(d.rooms, code)
	d.mu.Unlock()
	d.log.Info("room evicted", zap.String("room", code))
	for _, h := range d.hooks {
		h(code)
	}
}

// OnRoomClosed registers a callback invoked after a room is removed
// from the directory. Used by the connection adapter (C8) to release a
// closed room's event bus.
func (d *Directory) OnRoomClosed(fn func(code string)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks = append(d.hooks, fn)
}

// Count reports the number of live rooms, for admission checks and metrics.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}

// CloseAll shuts down every room, used on process shutdown.
func (d *Directory) CloseAll() {
	d.mu.RLock()
	rooms := make([]*Room, 0, len(d.rooms))
	for _, r := range d.rooms {
		rooms = append(rooms, r)
	}
	d.mu.RUnlock()
	for _, r := range rooms {
		r.Close()
	}
}
