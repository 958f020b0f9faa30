package ws

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hallvik/quizrelay/internal/game"
)

// Server upgrades HTTP connections to the realtime channel and wires
// each one to its room's Directory/Bus. It is the process-wide half of
// the connection adapter (C8); Client/Bus are the per-connection and
// per-room halves.
type Server struct {
	dir       *game.Directory
	buses     *busRegistry
	log       *zap.Logger
	hb        HeartbeatConfig
	queueSize int
	upgrader  websocket.Upgrader
}

// NewServer wires a Directory to an upgrade handler. allowedOrigins
// empty means allow any origin (spec.md §6's ALLOWED_ORIGINS).
func NewServer(dir *game.Directory, log *zap.Logger, hb HeartbeatConfig, queueSize int, allowedOrigins []string) *Server {
	s := &Server{
		dir:       dir,
		buses:     newBusRegistry(),
		log:       log,
		hb:        hb,
		queueSize: queueSize,
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, o := range allowedOrigins {
				if o == origin {
					return true
				}
			}
			return false
		},
	}
	dir.OnRoomClosed(s.DropRoom)
	return s
}

// busRegistry maps a room code to its Bus, created on the first get for
// that code (normally from CreateRoom) and torn down when the room closes. One Bus per room, same lifetime
// as the Room itself.
type busRegistry struct {
	mu    sync.Mutex
	buses map[string]*Bus
}

func newBusRegistry() *busRegistry {
	return &busRegistry{buses: make(map[string]*Bus)}
}

func (r *busRegistry) get(code string, queueSize int, log *zap.Logger) *Bus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.buses[code]; ok {
		return b
	}
	b := NewBus(queueSize, log)
	r.buses[code] = b
	return b
}

func (r *busRegistry) drop(code string) {
	r.mu.Lock()
	b, ok := r.buses[code]
	if ok {
		delete(r.buses, code)
	}
	r.mu.Unlock()
	if ok {
		b.Close()
	}
}

// ServeHTTP upgrades the connection and registers it against roomCode
// under the role inferred from query parameters (spec.md §6's URL
// shape: /<roomCode>/<clientId>?organizer=<bool>&spectator=<bool>&token=<organizerToken>).
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request, roomCode string) {
	roomCode = strings.ToUpper(strings.TrimSpace(roomCode))
	room, ok := s.dir.Lookup(roomCode)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	isOrganizer, _ := strconv.ParseBool(r.URL.Query().Get("organizer"))
	isSpectator, _ := strconv.ParseBool(r.URL.Query().Get("spectator"))
	token := r.URL.Query().Get("token")
	nickname := trimmedOrEmpty(r.URL.Query().Get("nickname"))
	team := r.URL.Query().Get("team")
	avatar := r.URL.Query().Get("avatar")

	if isOrganizer && token != room.OrganizerToken {
		http.Error(w, "invalid organizer token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	bus := s.buses.get(roomCode, s.queueSize, s.log)

	switch {
	case isOrganizer:
		s.attachOrganizer(conn, bus, room)
	case isSpectator:
		s.attachSpectator(conn, bus, room)
	default:
		s.attachPlayer(conn, bus, room, nickname, avatar, team)
	}
}

func (s *Server) attachOrganizer(conn *websocket.Conn, bus *Bus, room *game.Room) {
	c := newClient(bus, room, conn, s.log, s.hb, roleOrganizer, "", s.queueSize)
	bus.RegisterOrganizer(c)
	if _, err := room.OrganizerReconnect(c, room.OrganizerToken); err != nil {
		s.log.Warn("organizer attach failed", zap.Error(err))
		c.forceClose()
		return
	}
	go c.writePump()
	c.readPump()
}

func (s *Server) attachSpectator(conn *websocket.Conn, bus *Bus, room *game.Room) {
	c := newClient(bus, room, conn, s.log, s.hb, roleSpectator, "", s.queueSize)
	bus.RegisterSpectator(c)
	room.AddSpectator(c)
	go c.writePump()
	c.readPump()
}

func (s *Server) attachPlayer(conn *websocket.Conn, bus *Bus, room *game.Room, nickname, avatar, team string) {
	if nickname == "" {
		_ = conn.WriteJSON(Envelope{Type: game.EvtError})
		_ = conn.Close()
		return
	}
	c := newClient(bus, room, conn, s.log, s.hb, rolePlayer, nickname, s.queueSize)
	bus.RegisterPlayer(nickname, c)
	if _, err := room.Join(nickname, avatar, team, c); err != nil {
		s.log.Warn("join failed", zap.String("nickname", nickname), zap.Error(err))
		c.forceClose()
		return
	}
	go c.writePump()
	c.readPump()
}

// DropRoom releases a room's bus, called from the directory's eviction
// callback once a room has fully closed.
func (s *Server) DropRoom(code string) {
	s.buses.drop(code)
}

// CreateRoom allocates a room and its event bus together, so the bus
// is already registered under the room's code before the organizer's
// first connection can arrive.
func (s *Server) CreateRoom(quiz game.Quiz, timeLimit time.Duration) (*game.Room, error) {
	return s.dir.CreateRoom(quiz, timeLimit, func(code string) game.Publisher {
		return s.buses.get(code, s.queueSize, s.log)
	})
}
