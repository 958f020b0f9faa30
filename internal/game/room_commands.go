package game

import (
	"time"
)

// JoinResult is returned to a newly joined or reconnected player.
type JoinResult struct {
	Reconnect bool
	Payload   JoinedRoomPayload
}

// Join admits a participant connection to the room (operation JOIN,
// spec.md §4.2). A nickname already owned by a live connection is
// taken over by the new connection; the stale one is kicked, matching
// spec.md §9's "new joiner wins" policy rather than rejecting the join.
func (r *Room) Join(nickname, avatar, team string, handle Handle) (JoinResult, error) {
	v, err := r.callT(func() (any, error) { return r.doJoin(nickname, avatar, team, handle) })
	if err != nil {
		return JoinResult{}, err
	}
	return v.(JoinResult), nil
}

func (r *Room) doJoin(nickname, avatar, team string, handle Handle) (JoinResult, error) {
	r.touch()
	if err := r.requireState(StateLobby, StateIntro, StateQuestion, StateReveal, StatePodium); err != nil {
		return JoinResult{}, err
	}

	existing, exists := r.registry.ById(nickname)
	reconnect := false

	switch {
	case exists && existing.Handle != nil:
		// collision: new connection takes over a nickname already live.
		if err := validateIdentity(nickname, avatar, team); err != nil {
			return JoinResult{}, err
		}
		old, _ := r.registry.ReplaceHandle(nickname, handle)
		existing.LastSeen = r.clk.Now()
		if avatar != "" {
			existing.Avatar = avatar
		}
		if team != "" {
			existing.Team = team
		}
		r.pub.Kick(old, Event{Type: EvtKicked})
	case exists:
		if err := validateIdentity(nickname, avatar, team); err != nil {
			return JoinResult{}, err
		}
		existing.Handle = handle
		existing.LastSeen = r.clk.Now()
		if avatar != "" {
			existing.Avatar = avatar
		}
		if team != "" {
			existing.Team = team
		}
		reconnect = true
	default:
		if r.cfg.MaxPlayers > 0 && r.registry.Len() >= r.cfg.MaxPlayers {
			return JoinResult{}, ErrRoomFull
		}
		p, _, err := r.registry.Upsert(nickname, avatar, team, handle, r.clk.Now())
		if err != nil {
			return JoinResult{}, err
		}
		existing = p
	}

	payload := JoinedRoomPayload{
		State: r.state,
		Score: existing.Score,
	}
	if qp := r.questionProjection(); qp != nil && r.state == StateQuestion {
		payload.QuestionNumber = qp.QuestionNumber
		payload.Total = qp.Total
		payload.Question = qp
		payload.TimeRemaining = int(r.timeRemaining() / time.Second)
	}

	evtType := EvtPlayerJoined
	if reconnect {
		evtType = EvtPlayerReconnected
	}
	roster := r.roster()
	roster.Nickname = nickname
	r.pub.Publish(AudienceAll, Event{Type: evtType, Payload: roster})

	privEvt := EvtJoinedRoom
	if reconnect {
		privEvt = EvtReconnected
	}
	r.pub.PublishPrivate(nickname, Event{Type: privEvt, Payload: payload})

	return JoinResult{Reconnect: reconnect, Payload: payload}, nil
}

// DetachPlayer clears a player's connection handle on disconnect
// without removing their record (the participant keeps their score
// until the room closes or replays).
func (r *Room) DetachPlayer(nickname string, handle Handle) {
	r.Enqueue(func() {
		r.touch()
		if !r.registry.Detach(nickname, handle) {
			return
		}
		roster := r.roster()
		roster.Nickname = nickname
		r.pub.Publish(AudienceAll, Event{Type: EvtPlayerDisconnected, Payload: roster})
	})
}

// Answer records a player's answer to the current question (operation
// ANSWER, spec.md §4.2 / I1).
func (r *Room) Answer(nickname string, optionIndex int) error {
	return r.call(func() error { return r.doAnswer(nickname, optionIndex) })
}

func (r *Room) doAnswer(nickname string, optionIndex int) error {
	r.touch()
	if err := r.requireState(StateQuestion); err != nil {
		return err
	}
	p, ok := r.registry.ById(nickname)
	if !ok {
		return ErrUnknownParticipant
	}
	if _, answered := r.answers[nickname]; answered {
		return ErrAlreadyAnswered
	}
	q := r.currentQuestion()
	if q == nil || optionIndex < 0 || optionIndex >= len(q.Options) {
		return ErrInvalidOption
	}

	elapsed := r.clk.Now().Sub(r.questionStart).Seconds()
	lf := LatencyFraction(elapsed, r.timeLimit.Seconds())
	correct := optionIndex == q.CorrectIndex
	sr := Score(correct, lf, p.Streak, p.Multiplier, q.IsBonus)

	p.Score += sr.Points
	p.Streak = sr.NewStreak

	r.answers[nickname] = &PerQuestionAnswer{
		Nickname:    nickname,
		OptionIndex: optionIndex,
		SubmittedAt: r.clk.Now(),
		Correct:     correct,
		Points:      sr.Points,
		Multiplier:  sr.AppliedMultiplier,
		NewStreak:   sr.NewStreak,
	}

	r.pub.PublishPrivate(nickname, Event{Type: EvtAnswerResult, Payload: AnswerResultPayload{
		Correct:    correct,
		Points:     sr.Points,
		Multiplier: sr.AppliedMultiplier,
		Streak:     sr.NewStreak,
	}})
	r.pub.Publish(AudienceOrganizerAndSpectators, Event{Type: EvtAnswerCount, Payload: AnswerCountPayload{
		Answered: len(r.answers),
		Total:    r.registry.LiveCount(),
	}})

	if len(r.answers) >= r.registry.LiveCount() {
		r.transitionToReveal()
	}
	return nil
}

// UsePowerUpResult is returned to the activating player.
type UsePowerUpResult struct {
	RemoveIndices []int
}

// UsePowerUp activates a power-up before the player has answered
// (operation USE_POWER_UP, spec.md §4.2).
func (r *Room) UsePowerUp(nickname string, pu PowerUp) (UsePowerUpResult, error) {
	v, err := r.callT(func() (any, error) { return r.doUsePowerUp(nickname, pu) })
	if err != nil {
		return UsePowerUpResult{}, err
	}
	return v.(UsePowerUpResult), nil
}

func (r *Room) doUsePowerUp(nickname string, pu PowerUp) (UsePowerUpResult, error) {
	r.touch()
	if err := r.requireState(StateQuestion); err != nil {
		return UsePowerUpResult{}, err
	}
	p, ok := r.registry.ById(nickname)
	if !ok {
		return UsePowerUpResult{}, ErrUnknownParticipant
	}
	if _, answered := r.answers[nickname]; answered {
		return UsePowerUpResult{}, ErrAlreadyAnswered
	}
	if !p.hasPowerUp(pu) {
		return UsePowerUpResult{}, ErrPowerUpUsed
	}

	var removeIdx []int
	switch pu {
	case PowerUpDoublePoints:
		p.Multiplier = 2.0
		p.consumePowerUp(pu)
	case PowerUpFiftyFifty:
		q := r.currentQuestion()
		if q == nil || !q.SupportsFiftyFifty() {
			return UsePowerUpResult{}, ErrPowerUpRejected
		}
		removeIdx = pickTwoWrong(q, r.clk.Now().UnixNano())
		p.consumePowerUp(pu)
	default:
		return UsePowerUpResult{}, ErrPowerUpRejected
	}

	r.pub.PublishPrivate(nickname, Event{Type: EvtPowerUpActivated, Payload: PowerUpActivatedPayload{
		PowerUp:       pu,
		RemoveIndices: removeIdx,
	}})
	return UsePowerUpResult{RemoveIndices: removeIdx}, nil
}

// pickTwoWrong deterministically selects two incorrect option indices
// to hide for fifty_fifty, seeded off the room clock rather than
// math/rand's global source so virtual-clock tests stay reproducible.
func pickTwoWrong(q *Question, seed int64) []int {
	wrong := make([]int, 0, len(q.Options)-1)
	for i := range q.Options {
		if i != q.CorrectIndex {
			wrong = append(wrong, i)
		}
	}
	if len(wrong) <= 2 {
		return wrong
	}
	start := int(seed % int64(len(wrong)))
	return []int{wrong[start], wrong[(start+1)%len(wrong)]}
}

// StartGame transitions Lobby to Intro (operation START_GAME).
func (r *Room) StartGame() error {
	return r.call(func() error {
		r.touch()
		if err := r.requireState(StateLobby); err != nil {
			return err
		}
		if r.registry.Len() == 0 {
			return ErrNoParticipants
		}
		r.state = StateIntro
		r.pub.Publish(AudienceAll, Event{Type: EvtGameStarting, Payload: struct {
			Total int `json:"total"`
		}{len(r.quiz.Questions)}})
		return nil
	})
}

// NextQuestion advances to the next question, or to Podium if the quiz
// is exhausted (operation NEXT_QUESTION).
func (r *Room) NextQuestion() error {
	return r.call(func() error {
		r.touch()
		if err := r.requireState(StateIntro, StateReveal); err != nil {
			return err
		}
		r.questionIndex++
		if r.questionIndex >= len(r.quiz.Questions) {
			r.transitionToPodium()
			return nil
		}
		if r.prevRanks == nil {
			r.prevRanks = r.computeRanks()
		}
		r.state = StateQuestion
		r.questionStart = r.clk.Now()
		r.answers = make(map[string]*PerQuestionAnswer)
		r.registry.ResetQuestionMultipliers()
		r.armQuestionTicker()

		qp := r.questionProjection()
		r.pub.Publish(AudienceAll, Event{Type: EvtQuestion, Payload: qp})
		return nil
	})
}

func (r *Room) armQuestionTicker() {
	r.cancelTick = r.clk.Every(time.Second, func() {
		r.Enqueue(r.onTick)
	})
}

func (r *Room) onTick() {
	if r.state != StateQuestion {
		return
	}
	remaining := r.timeRemaining()
	secs := int(remaining / time.Second)
	r.pub.Publish(AudienceAll, Event{Type: EvtTimer, Payload: struct {
		Remaining int `json:"remaining"`
	}{secs}})
	if remaining <= 0 {
		r.transitionToReveal()
	}
}

// transitionToReveal computes the leaderboard for the question just
// finished and moves Question to Reveal (timer expiry or all-answered).
func (r *Room) transitionToReveal() {
	if r.state != StateQuestion {
		return
	}
	if r.cancelTick != nil {
		r.cancelTick()
		r.cancelTick = nil
	}
	r.state = StateReveal

	newRanks := r.computeRanks()
	board := r.leaderboard(newRanks, true)
	r.prevRanks = newRanks // refreshed only at transition into Reveal (I6)

	q := r.currentQuestion()
	isFinal := r.questionIndex == len(r.quiz.Questions)-1
	r.pub.Publish(AudienceAll, Event{Type: EvtQuestionOver, Payload: QuestionOverPayload{
		CorrectIndex: q.CorrectIndex,
		Leaderboard:  board,
		IsFinal:      isFinal,
	}})
}

// EndQuiz cuts a game short to the podium (operation END_QUIZ).
func (r *Room) EndQuiz() error {
	return r.call(func() error {
		r.touch()
		if err := r.requireState(StateQuestion, StateReveal, StateIntro); err != nil {
			return err
		}
		if r.cancelTick != nil {
			r.cancelTick()
			r.cancelTick = nil
		}
		r.transitionToPodium()
		return nil
	})
}

func (r *Room) transitionToPodium() {
	r.state = StatePodium
	ranks := r.computeRanks()
	r.pub.Publish(AudienceAll, Event{Type: EvtPodium, Payload: PodiumPayload{
		Leaderboard:     r.leaderboard(ranks, false),
		TeamLeaderboard: r.teamLeaderboard(),
	}})
}

// ResetRoom returns a finished room to Lobby for a replay, optionally
// with a new quiz (operation RESET_ROOM). Teams survive; scores do not
// (spec.md §9's Open Question resolution).
func (r *Room) ResetRoom(quiz *Quiz, timeLimit time.Duration) error {
	return r.call(func() error {
		r.touch()
		if err := r.requireState(StatePodium); err != nil {
			return err
		}
		if quiz != nil {
			r.quiz = *quiz
		}
		if timeLimit > 0 {
			r.timeLimit = timeLimit
		}
		r.registry.ResetForReplay()
		r.prevRanks = nil
		r.answers = make(map[string]*PerQuestionAnswer)
		r.questionIndex = -1
		r.state = StateLobby
		r.pub.Publish(AudienceAll, Event{Type: EvtRoomReset, Payload: r.roster()})
		return nil
	})
}

// OrganizerDisconnect starts the organizer grace period. If it expires
// before OrganizerReconnect, the room closes outright (spec.md §4.2).
func (r *Room) OrganizerDisconnect(handle Handle) {
	r.Enqueue(func() {
		if r.organizerHandle != handle {
			return
		}
		r.touch()
		r.organizerHandle = nil
		r.pub.Publish(AudienceAll, Event{Type: EvtOrganizerDisconnected})
		r.cancelGrace = r.clk.After(r.cfg.OrganizerGrace, func() {
			r.Enqueue(r.onGraceExpire)
		})
	})
}

func (r *Room) onGraceExpire() {
	if r.organizerHandle != nil || r.state == StateClosed {
		return
	}
	r.log.Info("organizer grace period expired")
	r.shutdown(EvtRoomClosed)
}

// OrganizerAttach assigns the organizer connection handle when a room
// is first created or the organizer opens their control socket.
func (r *Room) OrganizerAttach(handle Handle) {
	r.Enqueue(func() {
		r.organizerHandle = handle
	})
}

// OrganizerReconnectResult carries the full-state projection the
// organizer needs to resume control.
type OrganizerReconnectResult struct {
	Payload OrganizerReconnectedPayload
}

// OrganizerReconnect re-attaches a new connection as the organizer,
// validating the room's admission token (operation RECONNECT_ORGANIZER).
func (r *Room) OrganizerReconnect(handle Handle, token string) (OrganizerReconnectResult, error) {
	v, err := r.callT(func() (any, error) { return r.doOrganizerReconnect(handle, token) })
	if err != nil {
		return OrganizerReconnectResult{}, err
	}
	return v.(OrganizerReconnectResult), nil
}

func (r *Room) doOrganizerReconnect(handle Handle, token string) (OrganizerReconnectResult, error) {
	if token != r.OrganizerToken {
		return OrganizerReconnectResult{}, ErrUnauthorized
	}
	r.touch()
	if r.cancelGrace != nil {
		r.cancelGrace()
		r.cancelGrace = nil
	}
	r.organizerHandle = handle

	payload := OrganizerReconnectedPayload{
		State:    r.state,
		Answered: len(r.answers),
	}
	if qp := r.questionProjection(); qp != nil {
		payload.QuestionNumber = qp.QuestionNumber
		payload.Total = qp.Total
		payload.Question = qp
		payload.TimeRemaining = int(r.timeRemaining() / time.Second)
	}
	ranks := r.computeRanks()
	payload.Leaderboard = r.leaderboard(ranks, false)

	r.pub.Publish(AudienceOrganizer, Event{Type: EvtOrganizerReconnected, Payload: payload})
	return OrganizerReconnectResult{Payload: payload}, nil
}

// AddSpectator registers a read-only viewer connection.
func (r *Room) AddSpectator(handle Handle) {
	r.Enqueue(func() { r.spectators[handle] = true })
}

// RemoveSpectator drops a viewer connection.
func (r *Room) RemoveSpectator(handle Handle) {
	r.Enqueue(func() { delete(r.spectators, handle) })
}

// Spectators exposes the live spectator handle set (read via Enqueue,
// so the result is only valid for synchronous bus fan-out within the
// same command).
func (r *Room) Spectators() map[Handle]bool {
	return r.spectators
}

// RoomSnapshot is a read-only projection of room state for control-plane
// endpoints (GET /room/{code}) and for tests synchronizing with the
// room's actor loop after a clock advance.
type RoomSnapshot struct {
	State          State
	QuestionNumber int
	Total          int
	PlayerCount    int
	TimeRemaining  time.Duration
	Leaderboard    []LeaderboardEntry
}

// Snapshot reads the room's current state through the command queue,
// so it observes every effect of commands enqueued before it.
func (r *Room) Snapshot() RoomSnapshot {
	v, _ := r.callT(func() (any, error) {
		snap := RoomSnapshot{
			State:       r.state,
			Total:       len(r.quiz.Questions),
			PlayerCount: r.registry.Len(),
		}
		if qp := r.questionProjection(); qp != nil {
			snap.QuestionNumber = qp.QuestionNumber
			snap.TimeRemaining = r.timeRemaining()
		}
		ranks := r.computeRanks()
		snap.Leaderboard = r.leaderboard(ranks, false)
		return snap, nil
	})
	return v.(RoomSnapshot)
}
