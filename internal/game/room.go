package game

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hallvik/quizrelay/internal/clock"
)

// RoomConfig holds the process-wide tunables a Room needs at
// construction (spec.md §6's config table).
type RoomConfig struct {
	TTL              time.Duration
	OrganizerGrace   time.Duration
	MaxPlayers       int
}

// Room is the actor-model state machine of spec.md §5: every field
// below is touched only from the goroutine running Room.run. Callers
// never lock anything — they enqueue a closure and, for operations that
// need a result, wait on a reply channel. This generalizes the
// teacher's hub.run() select loop (register/unregister/broadcast, three
// fixed channels) to an arbitrary number of command shapes by queueing
// closures instead of fixed message structs.
type Room struct {
	Code           string
	OrganizerToken string

	quiz       Quiz
	timeLimit  time.Duration
	registry   *Registry

	state         State
	questionIndex int // -1 before the first question
	questionStart time.Time
	answers       map[string]*PerQuestionAnswer
	prevRanks     map[string]int

	organizerHandle Handle
	spectators      map[Handle]bool

	createdAt    time.Time
	lastActivity time.Time

	cfg RoomConfig
	clk clock.Clock
	pub Publisher
	log *zap.Logger

	cancelTick  clock.Cancel
	cancelGrace clock.Cancel
	cancelTTL   clock.Cancel

	commands chan func()
	closed   chan struct{}
	closeOnce sync.Once

	onClosed func(code string)
}

// NewRoom constructs a room and starts its actor loop. The returned
// Room is immediately usable; callers never touch its fields directly.
func NewRoom(code, organizerToken string, quiz Quiz, timeLimit time.Duration, cfg RoomConfig, clk clock.Clock, pub Publisher, log *zap.Logger, onClosed func(code string)) *Room {
	now := clk.Now()
	r := &Room{
		Code:           code,
		OrganizerToken: organizerToken,
		quiz:           quiz,
		timeLimit:      timeLimit,
		registry:       NewRegistry(),
		state:          StateLobby,
		questionIndex:  -1,
		answers:        make(map[string]*PerQuestionAnswer),
		spectators:     make(map[Handle]bool),
		createdAt:      now,
		lastActivity:   now,
		cfg:            cfg,
		clk:            clk,
		pub:            pub,
		log:            log.With(zap.String("room", code)),
		commands:       make(chan func(), 64),
		closed:         make(chan struct{}),
		onClosed:       onClosed,
	}
	r.armTTL()
	go r.run()
	return r
}

func (r *Room) run() {
	for {
		select {
		case fn := <-r.commands:
			fn()
		case <-r.closed:
			return
		}
	}
}

// Enqueue posts fn onto the room's single command queue. It is safe to
// call from any goroutine, including clock timer callbacks (spec.md §5:
// "timer callbacks... post commands back onto the same queue").
func (r *Room) Enqueue(fn func()) {
	select {
	case r.commands <- fn:
	case <-r.closed:
	}
}

func (r *Room) call(fn func() error) error {
	done := make(chan error, 1)
	r.Enqueue(func() { done <- fn() })
	return <-done
}

func (r *Room) callT(fn func() (any, error)) (any, error) {
	type result struct {
		v   any
		err error
	}
	done := make(chan result, 1)
	r.Enqueue(func() {
		v, err := fn()
		done <- result{v, err}
	})
	out := <-done
	return out.v, out.err
}

func (r *Room) touch() {
	r.lastActivity = r.clk.Now()
}

func (r *Room) requireState(want ...State) error {
	for _, s := range want {
		if r.state == s {
			return nil
		}
	}
	return ErrBadState
}

// --- TTL / lifecycle -------------------------------------------------

func (r *Room) armTTL() {
	r.cancelTTL = r.clk.After(r.cfg.TTL, func() {
		r.Enqueue(r.onTTLExpire)
	})
}

func (r *Room) rearmTTL() {
	if r.cancelTTL != nil {
		r.cancelTTL()
	}
	r.armTTL()
}

func (r *Room) onTTLExpire() {
	if r.state == StateClosed {
		return
	}
	idleFor := r.clk.Now().Sub(r.lastActivity)
	if idleFor < r.cfg.TTL {
		// activity happened since this timer was armed; rearm for the remainder.
		if r.cancelTTL != nil {
			r.cancelTTL()
		}
		r.cancelTTL = r.clk.After(r.cfg.TTL-idleFor, func() { r.Enqueue(r.onTTLExpire) })
		return
	}
	r.log.Info("room evicted by ttl")
	r.shutdown(EvtRoomClosed)
}

func (r *Room) shutdown(reasonEvt string) {
	if r.state == StateClosed {
		return
	}
	r.state = StateClosed
	r.stopTimers()
	r.pub.Publish(AudienceAll, Event{Type: reasonEvt})
	r.closeOnce.Do(func() { close(r.closed) })
	if r.onClosed != nil {
		r.onClosed(r.Code)
	}
}

func (r *Room) stopTimers() {
	if r.cancelTick != nil {
		r.cancelTick()
		r.cancelTick = nil
	}
	if r.cancelGrace != nil {
		r.cancelGrace()
		r.cancelGrace = nil
	}
	if r.cancelTTL != nil {
		r.cancelTTL()
		r.cancelTTL = nil
	}
}

// Close requests an immediate, orderly shutdown (used by the directory
// on process shutdown or administrative removal).
func (r *Room) Close() {
	r.Enqueue(func() { r.shutdown(EvtRoomClosed) })
}

// --- ranking -----------------------------------------------------------

// computeRanks returns 1-based ranks keyed by nickname, ordered by
// score descending then nickname ascending (spec.md §4.3).
func (r *Room) computeRanks() map[string]int {
	ps := r.registry.List()
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].Score != ps[j].Score {
			return ps[i].Score > ps[j].Score
		}
		return ps[i].Nickname < ps[j].Nickname
	})
	ranks := make(map[string]int, len(ps))
	for i, p := range ps {
		ranks[p.Nickname] = i + 1
	}
	return ranks
}

func (r *Room) leaderboard(ranks map[string]int, withChange bool) []LeaderboardEntry {
	ps := r.registry.List()
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].Score != ps[j].Score {
			return ps[i].Score > ps[j].Score
		}
		return ps[i].Nickname < ps[j].Nickname
	})
	out := make([]LeaderboardEntry, 0, len(ps))
	for _, p := range ps {
		entry := LeaderboardEntry{
			Nickname: p.Nickname,
			Avatar:   p.Avatar,
			Team:     p.Team,
			Score:    p.Score,
			Rank:     ranks[p.Nickname],
		}
		if withChange {
			entry.RankChange = r.prevRanks[p.Nickname] - ranks[p.Nickname]
		}
		out = append(out, entry)
	}
	return out
}

func (r *Room) teamLeaderboard() []TeamLeaderboardEntry {
	teams := r.registry.Teams()
	if len(teams) == 0 {
		return nil
	}
	out := make([]TeamLeaderboardEntry, 0, len(teams))
	for team, members := range teams {
		sum := 0
		for _, p := range members {
			sum += p.Score
		}
		out = append(out, TeamLeaderboardEntry{Team: team, Score: sum})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Team < out[j].Team
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func (r *Room) currentQuestion() *Question {
	if r.questionIndex < 0 || r.questionIndex >= len(r.quiz.Questions) {
		return nil
	}
	return &r.quiz.Questions[r.questionIndex]
}

func (r *Room) questionProjection() *QuestionProjection {
	q := r.currentQuestion()
	if q == nil {
		return nil
	}
	return &QuestionProjection{
		QuestionNumber: r.questionIndex + 1,
		Total:          len(r.quiz.Questions),
		Prompt:         q.Prompt,
		Options:        q.Options,
		TimeLimitSecs:  int(r.timeLimit / time.Second),
		IsBonus:        q.IsBonus,
	}
}

func (r *Room) timeRemaining() time.Duration {
	if r.state != StateQuestion {
		return 0
	}
	remaining := r.timeLimit - r.clk.Now().Sub(r.questionStart)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (r *Room) roster() RosterPayload {
	ps := r.registry.List()
	out := make([]ParticipantSummary, 0, len(ps))
	for _, p := range ps {
		out = append(out, ParticipantSummary{Nickname: p.Nickname, Avatar: p.Avatar, Team: p.Team})
	}
	return RosterPayload{Players: out, PlayerCount: len(out)}
}
