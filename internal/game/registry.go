package game

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Registry is the participant map for one room (C2). It carries no
// internal locking — it is only ever touched from inside a Room's
// single-owner actor loop (spec.md §5), the same discipline the
// teacher repo used for its Room.Players map before this room's
// mutex was removed.
type Registry struct {
	order []string
	byID  map[string]*Participant
}

// NewRegistry returns an empty participant registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Participant)}
}

func validateIdentity(nickname, avatar, team string) error {
	trimmed := strings.TrimSpace(nickname)
	if trimmed == "" {
		return ErrEmptyNickname
	}
	if utf8.RuneCountInString(trimmed) > 20 {
		return ErrNicknameTooLong
	}
	if utf8.RuneCountInString(avatar) > 8 {
		return ErrAvatarTooLong
	}
	if utf8.RuneCountInString(team) > 20 {
		return ErrTeamTooLong
	}
	return nil
}

// Upsert creates a participant on first join, or reattaches the given
// handle to an existing one on reconnect. The nickname match is
// case-sensitive, matching the room-scoped uniqueness of spec.md §3 (I2).
func (r *Registry) Upsert(nickname, avatar, team string, handle Handle, now time.Time) (*Participant, bool, error) {
	if err := validateIdentity(nickname, avatar, team); err != nil {
		return nil, false, err
	}
	nickname = strings.TrimSpace(nickname)

	if p, ok := r.byID[nickname]; ok {
		wasReconnect := p.Handle == nil
		p.Handle = handle
		p.LastSeen = now
		if avatar != "" {
			p.Avatar = avatar
		}
		if team != "" {
			p.Team = team
		}
		return p, wasReconnect, nil
	}

	p := newParticipant(nickname, avatar, team, handle, now)
	r.byID[nickname] = p
	r.order = append(r.order, nickname)
	return p, false, nil
}

// Detach clears a participant's connection handle, but only if it
// still matches handle — a late close from a connection that has
// already been superseded by ReplaceHandle must not knock the new
// connection offline.
func (r *Registry) Detach(nickname string, handle Handle) bool {
	p, ok := r.byID[nickname]
	if !ok {
		return false
	}
	if p.Handle != handle {
		return false
	}
	p.Handle = nil
	return true
}

// ReplaceHandle unconditionally swaps a participant's connection
// handle, used when a nickname collision means the new joiner wins.
// The previous handle is returned so the caller can notify and close it.
func (r *Registry) ReplaceHandle(nickname string, newHandle Handle) (Handle, bool) {
	p, ok := r.byID[nickname]
	if !ok {
		return nil, false
	}
	old := p.Handle
	p.Handle = newHandle
	return old, true
}

// ById looks up a participant by nickname.
func (r *Registry) ById(nickname string) (*Participant, bool) {
	p, ok := r.byID[nickname]
	return p, ok
}

// List returns participants in join order.
func (r *Registry) List() []*Participant {
	out := make([]*Participant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Len reports the number of participant records (connected or not).
func (r *Registry) Len() int {
	return len(r.order)
}

// LiveCount reports participants with a non-nil connection handle.
func (r *Registry) LiveCount() int {
	n := 0
	for _, p := range r.byID {
		if p.Handle != nil {
			n++
		}
	}
	return n
}

// Teams groups participants by their team tag, skipping untagged
// participants. Teams are derived on demand, never stored.
func (r *Registry) Teams() map[string][]*Participant {
	out := make(map[string][]*Participant)
	for _, id := range r.order {
		p := r.byID[id]
		if p.Team == "" {
			continue
		}
		out[p.Team] = append(out[p.Team], p)
	}
	return out
}

// ResetForReplay zeroes scores and streaks and restores both power-ups
// for every participant, preserving nickname, avatar, team, and connection
// handle. Used by RESET_ROOM (spec.md §9's Open Question resolution:
// teams survive a reset, scores do not).
func (r *Registry) ResetForReplay() {
	for _, p := range r.byID {
		p.Score = 0
		p.Streak = 0
		p.Multiplier = 1.0
		p.PreviousRank = 0
		p.PendingPowerUps = map[PowerUp]bool{
			PowerUpDoublePoints: true,
			PowerUpFiftyFifty:   true,
		}
	}
}

// ResetQuestionMultipliers restores every participant's active
// multiplier to 1.0, called on each NEXT_QUESTION transition.
func (r *Registry) ResetQuestionMultipliers() {
	for _, p := range r.byID {
		p.Multiplier = 1.0
	}
}
