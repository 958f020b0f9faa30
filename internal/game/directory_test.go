package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hallvik/quizrelay/internal/clock"
)

func testDirectory(t *testing.T, maxRooms int) (*Directory, *clock.Virtual) {
	t.Helper()
	vc := clock.NewVirtual(time.Unix(0, 0))
	cfg := DirectoryConfig{
		RoomConfig: RoomConfig{TTL: time.Hour, OrganizerGrace: 30 * time.Second},
		MaxRooms:   maxRooms,
	}
	return NewDirectory(cfg, vc, zap.NewNop()), vc
}

func TestDirectory_CreateAndLookup(t *testing.T) {
	d, _ := testDirectory(t, 0)
	q, err := NewQuiz("quiz-1", "t", sampleQuestions())
	require.NoError(t, err)

	room, err := d.CreateRoom(q, 20*time.Second, func(string) Publisher { return newFakePublisher() })
	require.NoError(t, err)
	require.Len(t, room.Code, roomCodeLen)
	require.NotEmpty(t, room.OrganizerToken)

	found, ok := d.Lookup(room.Code)
	require.True(t, ok)
	require.Same(t, room, found)
}

func TestDirectory_AdmissionControl(t *testing.T) {
	d, _ := testDirectory(t, 1)
	q, _ := NewQuiz("quiz-1", "t", sampleQuestions())

	_, err := d.CreateRoom(q, 20*time.Second, func(string) Publisher { return newFakePublisher() })
	require.NoError(t, err)

	_, err = d.CreateRoom(q, 20*time.Second, func(string) Publisher { return newFakePublisher() })
	require.ErrorIs(t, err, ErrRoomLocked)
}

func TestDirectory_EvictsOnRoomClose(t *testing.T) {
	d, vc := testDirectory(t, 0)
	q, _ := NewQuiz("quiz-1", "t", sampleQuestions())
	room, err := d.CreateRoom(q, 20*time.Second, func(string) Publisher { return newFakePublisher() })
	require.NoError(t, err)

	room.Close()
	vc.Advance(time.Millisecond) // no timer is involved; the Eventually below waits for the actor loop to run the shutdown closure

	require.Eventually(t, func() bool {
		_, ok := d.Lookup(room.Code)
		return !ok
	}, time.Second, time.Millisecond)
}
