package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/hallvik/quizrelay/internal/game"
)

// Bus is the event bus (C3) for a single room: one organizer slot, a
// nickname-keyed player map, and a spectator set, each with a bounded
// outbound queue per connection. It is the concrete game.Publisher a
// Room talks to. Like the room it serves, all of its mutable state is
// owned by exactly one goroutine (run); every public method is a
// channel send into that goroutine, generalizing the teacher's
// register/unregister/broadcast hub loop from one flat client map to
// three audience classes.
type Bus struct {
	log       *zap.Logger
	queueSize int

	organizer  *Client
	players    map[string]*Client
	spectators map[*Client]bool

	registerOrganizer  chan *Client
	registerPlayer     chan playerReg
	registerSpectator  chan *Client
	unregister         chan *Client
	publishCh          chan publishMsg
	privateCh          chan privateMsg
	kickCh             chan kickMsg

	closed    chan struct{}
	closeOnce sync.Once
}

type playerReg struct {
	nickname string
	client   *Client
}

type publishMsg struct {
	aud  game.Audience
	data []byte
}

type privateMsg struct {
	nickname string
	data     []byte
}

type kickMsg struct {
	handle game.Handle
	data   []byte
}

// NewBus starts a room's event bus. queueSize bounds each subscriber's
// outbound channel (spec.md §6's OUTBOUND_QUEUE_SIZE).
func NewBus(queueSize int, log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Bus{
		log:                log,
		queueSize:          queueSize,
		players:            make(map[string]*Client),
		spectators:         make(map[*Client]bool),
		registerOrganizer:  make(chan *Client),
		registerPlayer:     make(chan playerReg),
		registerSpectator:  make(chan *Client),
		unregister:         make(chan *Client),
		publishCh:          make(chan publishMsg, 256),
		privateCh:          make(chan privateMsg, 256),
		kickCh:             make(chan kickMsg, 16),
		closed:             make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Bus) run() {
	for {
		select {
		case c := <-b.registerOrganizer:
			old := b.organizer
			b.organizer = c
			if old != nil && old != c {
				old.forceClose()
			}
		case reg := <-b.registerPlayer:
			b.players[reg.nickname] = reg.client
		case c := <-b.registerSpectator:
			b.spectators[c] = true
		case c := <-b.unregister:
			b.removeClient(c)
		case m := <-b.publishCh:
			b.fanOut(m)
		case m := <-b.privateCh:
			if c, ok := b.players[m.nickname]; ok {
				b.deliver(c, m.data)
			}
		case m := <-b.kickCh:
			if c, ok := m.handle.(*Client); ok && c != nil {
				c.enqueue(m.data)
				c.forceClose()
				b.removeClient(c)
			}
		case <-b.closed:
			b.forceCloseAll()
			return
		}
	}
}

func (b *Bus) removeClient(c *Client) {
	if b.organizer == c {
		b.organizer = nil
	}
	for nick, pc := range b.players {
		if pc == c {
			delete(b.players, nick)
		}
	}
	delete(b.spectators, c)
}

func (b *Bus) fanOut(m publishMsg) {
	switch m.aud {
	case game.AudienceAll:
		if b.organizer != nil {
			b.deliver(b.organizer, m.data)
		}
		for _, c := range b.players {
			b.deliver(c, m.data)
		}
		for c := range b.spectators {
			b.deliver(c, m.data)
		}
	case game.AudienceOrganizer:
		if b.organizer != nil {
			b.deliver(b.organizer, m.data)
		}
	case game.AudienceOrganizerAndSpectators:
		if b.organizer != nil {
			b.deliver(b.organizer, m.data)
		}
		for c := range b.spectators {
			b.deliver(c, m.data)
		}
	}
}

// deliver enqueues data on c's outbound channel. A full channel means
// the subscriber isn't draining fast enough; spec.md §4.5 treats that
// the same as a disconnect rather than blocking the whole room.
func (b *Bus) deliver(c *Client, data []byte) {
	if !c.enqueue(data) {
		b.log.Warn("outbound queue full, dropping subscriber")
		c.forceClose()
		b.removeClient(c)
	}
}

func (b *Bus) forceCloseAll() {
	if b.organizer != nil {
		b.organizer.forceClose()
	}
	for _, c := range b.players {
		c.forceClose()
	}
	for c := range b.spectators {
		c.forceClose()
	}
}

// RegisterOrganizer installs c as the room's single organizer
// connection, displacing and closing whatever was there before.
func (b *Bus) RegisterOrganizer(c *Client) {
	select {
	case b.registerOrganizer <- c:
	case <-b.closed:
	}
}

// RegisterPlayer installs c under nickname, displacing any stale
// connection already registered for it. The displaced connection is
// left open here; the room's Kick sends it KICKED and then closes it.
func (b *Bus) RegisterPlayer(nickname string, c *Client) {
	select {
	case b.registerPlayer <- playerReg{nickname: nickname, client: c}:
	case <-b.closed:
	}
}

// RegisterSpectator adds c to the spectator set.
func (b *Bus) RegisterSpectator(c *Client) {
	select {
	case b.registerSpectator <- c:
	case <-b.closed:
	}
}

// Unregister removes c from whichever slot it occupies.
func (b *Bus) Unregister(c *Client) {
	select {
	case b.unregister <- c:
	case <-b.closed:
	}
}

// Close stops the bus loop and force-closes every remaining connection.
func (b *Bus) Close() {
	b.closeOnce.Do(func() { close(b.closed) })
}

func encodeEvent(evt game.Event) ([]byte, error) {
	var raw json.RawMessage
	if evt.Payload != nil {
		p, err := json.Marshal(evt.Payload)
		if err != nil {
			return nil, err
		}
		raw = p
	}
	return json.Marshal(Envelope{Type: evt.Type, Payload: raw})
}

// Publish implements game.Publisher.
func (b *Bus) Publish(aud game.Audience, evt game.Event) {
	data, err := encodeEvent(evt)
	if err != nil {
		b.log.Error("event marshal failed", zap.String("type", evt.Type), zap.Error(err))
		return
	}
	select {
	case b.publishCh <- publishMsg{aud: aud, data: data}:
	case <-b.closed:
	}
}

// PublishPrivate implements game.Publisher.
func (b *Bus) PublishPrivate(nickname string, evt game.Event) {
	data, err := encodeEvent(evt)
	if err != nil {
		b.log.Error("event marshal failed", zap.String("type", evt.Type), zap.Error(err))
		return
	}
	select {
	case b.privateCh <- privateMsg{nickname: nickname, data: data}:
	case <-b.closed:
	}
}

// Kick implements game.Publisher.
func (b *Bus) Kick(handle game.Handle, evt game.Event) {
	data, err := encodeEvent(evt)
	if err != nil {
		b.log.Error("event marshal failed", zap.String("type", evt.Type), zap.Error(err))
		return
	}
	select {
	case b.kickCh <- kickMsg{handle: handle, data: data}:
	case <-b.closed:
	}
}
