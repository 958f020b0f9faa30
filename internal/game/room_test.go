package game

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hallvik/quizrelay/internal/clock"
)

// fakePublisher records every event handed to it, keyed by audience or
// recipient nickname, for assertions in room tests. It stands in for
// the ws package's bus (C3) without pulling that package into game's
// test dependencies.
type fakePublisher struct {
	mu       sync.Mutex
	all      []Event
	private  map[string][]Event
	kicked   []Handle
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{private: make(map[string][]Event)}
}

func (f *fakePublisher) Publish(aud Audience, evt Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.all = append(f.all, evt)
}

func (f *fakePublisher) PublishPrivate(nickname string, evt Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.private[nickname] = append(f.private[nickname], evt)
}

func (f *fakePublisher) Kick(handle Handle, evt Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kicked = append(f.kicked, handle)
}

func (f *fakePublisher) lastAll() Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.all) == 0 {
		return Event{}
	}
	return f.all[len(f.all)-1]
}

func (f *fakePublisher) countType(t string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.all {
		if e.Type == t {
			n++
		}
	}
	return n
}

func testRoom(t *testing.T) (*Room, *clock.Virtual, *fakePublisher) {
	t.Helper()
	q, err := NewQuiz("quiz-1", "t", sampleQuestions())
	require.NoError(t, err)
	vc := clock.NewVirtual(time.Unix(0, 0))
	pub := newFakePublisher()
	cfg := RoomConfig{TTL: time.Hour, OrganizerGrace: 30 * time.Second, MaxPlayers: 0}
	r := NewRoom("ABC123", "tok-1", q, 20*time.Second, cfg, vc, pub, zap.NewNop(), nil)
	return r, vc, pub
}

func TestRoom_JoinInLobby(t *testing.T) {
	r, _, pub := testRoom(t)
	res, err := r.Join("alice", "🦊", "", "h1")
	require.NoError(t, err)
	require.False(t, res.Reconnect)
	require.Equal(t, StateLobby, res.Payload.State)
	require.Equal(t, EvtJoinedRoom, pub.private["alice"][0].Type)
}

func TestRoom_JoinCollisionKicksStaleHandle(t *testing.T) {
	r, _, pub := testRoom(t)
	_, err := r.Join("alice", "", "", "h1")
	require.NoError(t, err)

	_, err = r.Join("alice", "", "", "h2")
	require.NoError(t, err)
	require.Equal(t, []Handle{Handle("h1")}, pub.kicked)
}

func TestRoom_StartGameRequiresParticipants(t *testing.T) {
	r, _, _ := testRoom(t)
	err := r.StartGame()
	require.ErrorIs(t, err, ErrNoParticipants)
}

func TestRoom_FullQuestionLifecycle(t *testing.T) {
	r, vc, pub := testRoom(t)
	_, err := r.Join("alice", "", "", "h1")
	require.NoError(t, err)
	_, err = r.Join("bob", "", "", "h2")
	require.NoError(t, err)

	require.NoError(t, r.StartGame())
	require.Equal(t, EvtGameStarting, pub.lastAll().Type)

	require.NoError(t, r.NextQuestion())
	require.Equal(t, EvtQuestion, pub.lastAll().Type)
	require.Equal(t, StateQuestion, r.Snapshot().State)

	require.NoError(t, r.Answer("alice", 1)) // correct
	require.Equal(t, EvtAnswerResult, pub.private["alice"][len(pub.private["alice"])-1].Type)

	require.NoError(t, r.Answer("bob", 0)) // wrong, and completes all-answered early transition
	snap := r.Snapshot()
	require.Equal(t, StateReveal, snap.State)
	require.Equal(t, EvtQuestionOver, pub.lastAll().Type)

	// alice answered instantly and correctly: full 1000 points, rank 1.
	require.Equal(t, 1000, snap.Leaderboard[0].Score)
	require.Equal(t, "alice", snap.Leaderboard[0].Nickname)
	require.Equal(t, 0, snap.Leaderboard[0].RankChange)

	require.NoError(t, r.NextQuestion())
	require.Equal(t, StateQuestion, r.Snapshot().State)

	vc.Advance(21 * time.Second) // timer expiry, no answers this round
	snap = r.Snapshot()
	require.Equal(t, StateReveal, snap.State)

	require.NoError(t, r.EndQuiz())
	snap = r.Snapshot()
	require.Equal(t, StatePodium, snap.State)
}

func TestRoom_AnswerRejectsDuplicateAndBadOption(t *testing.T) {
	r, _, _ := testRoom(t)
	_, _ = r.Join("alice", "", "", "h1")
	_, _ = r.Join("bob", "", "", "h2")
	require.NoError(t, r.StartGame())
	require.NoError(t, r.NextQuestion())

	require.NoError(t, r.Answer("alice", 1))
	require.ErrorIs(t, r.Answer("alice", 0), ErrAlreadyAnswered)

	require.ErrorIs(t, r.Answer("bob", 99), ErrInvalidOption)
}

func TestRoom_UsePowerUpDoublePoints(t *testing.T) {
	r, _, pub := testRoom(t)
	_, _ = r.Join("alice", "", "", "h1")
	_, _ = r.Join("bob", "", "", "h2")
	require.NoError(t, r.StartGame())
	require.NoError(t, r.NextQuestion())

	_, err := r.UsePowerUp("alice", PowerUpDoublePoints)
	require.NoError(t, err)
	require.Equal(t, EvtPowerUpActivated, pub.private["alice"][1].Type) // [0] is JOINED_ROOM

	require.NoError(t, r.Answer("alice", 1))
	require.NoError(t, r.Answer("bob", 1))

	snap := r.Snapshot()
	var alice LeaderboardEntry
	for _, e := range snap.Leaderboard {
		if e.Nickname == "alice" {
			alice = e
		}
	}
	require.Equal(t, 2000, alice.Score) // 1000 base x 2.0 double-points
}

func TestRoom_UsePowerUpFiftyFiftyRejectedOnTwoOptionQuestion(t *testing.T) {
	r, _, _ := testRoom(t)
	_, _ = r.Join("alice", "", "", "h1")
	require.NoError(t, r.StartGame())
	require.NoError(t, r.NextQuestion())
	require.NoError(t, r.Answer("alice", 1)) // completes question 1, transitions to Reveal
	require.NoError(t, r.NextQuestion())      // second question has only 2 options

	_, err := r.UsePowerUp("alice", PowerUpFiftyFifty)
	require.ErrorIs(t, err, ErrPowerUpRejected)
}

func TestRoom_ResetRoomPreservesTeamsClearsScores(t *testing.T) {
	r, _, _ := testRoom(t)
	_, _ = r.Join("alice", "", "red", "h1")
	_, _ = r.Join("bob", "", "blue", "h2")
	require.NoError(t, r.StartGame())
	require.NoError(t, r.NextQuestion())
	require.NoError(t, r.Answer("alice", 1))
	require.NoError(t, r.EndQuiz())
	require.Equal(t, StatePodium, r.Snapshot().State)

	require.NoError(t, r.ResetRoom(nil, 0))
	snap := r.Snapshot()
	require.Equal(t, StateLobby, snap.State)
	wantTeam := map[string]string{"alice": "red", "bob": "blue"}
	for _, e := range snap.Leaderboard {
		require.Equal(t, 0, e.Score)
		require.Equal(t, wantTeam[e.Nickname], e.Team)
	}
}

func TestRoom_OrganizerGraceExpiryClosesRoom(t *testing.T) {
	r, vc, pub := testRoom(t)
	r.OrganizerAttach("org-1")
	r.OrganizerDisconnect("org-1")
	r.Snapshot() // sync: ensure both enqueued closures ran before advancing the clock

	vc.Advance(31 * time.Second)
	// the grace timer only enqueues onGraceExpire; wait for the actor loop to run it.
	require.Eventually(t, func() bool {
		return pub.lastAll().Type == EvtRoomClosed
	}, time.Second, time.Millisecond)
}

func TestRoom_OrganizerReconnectCancelsGrace(t *testing.T) {
	r, vc, pub := testRoom(t)
	r.OrganizerAttach("org-1")
	r.OrganizerDisconnect("org-1")

	_, err := r.OrganizerReconnect("org-2", "tok-1")
	require.NoError(t, err)
	// OrganizerReconnect is already a synchronous round trip, so the grace
	// timer it cancels is guaranteed to have been armed first.

	vc.Advance(31 * time.Second)
	require.NotEqual(t, EvtRoomClosed, pub.lastAll().Type)
}

func TestRoom_OrganizerReconnectRejectsBadToken(t *testing.T) {
	r, _, _ := testRoom(t)
	_, err := r.OrganizerReconnect("org-2", "wrong-token")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestRoom_TTLEvictsIdleRoom(t *testing.T) {
	q, _ := NewQuiz("quiz-1", "t", sampleQuestions())
	vc := clock.NewVirtual(time.Unix(0, 0))
	pub := newFakePublisher()
	evicted := make(chan string, 1)
	cfg := RoomConfig{TTL: time.Minute, OrganizerGrace: 30 * time.Second}
	_ = NewRoom("ABC123", "tok-1", q, 20*time.Second, cfg, vc, pub, zap.NewNop(), func(code string) { evicted <- code })

	vc.Advance(61 * time.Second)
	// the TTL timer only enqueues onTTLExpire; wait for the actor loop to run it.
	select {
	case code := <-evicted:
		require.Equal(t, "ABC123", code)
	case <-time.After(time.Second):
		t.Fatal("room was not evicted after its TTL")
	}
	require.Equal(t, EvtRoomClosed, pub.lastAll().Type)
}
