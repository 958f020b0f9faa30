package game

// Event is one outbound message produced by the room state machine,
// ready to be JSON-encoded by the connection adapter (C8). Type mirrors
// the wire discriminator of spec.md §6.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Audience is one of the three subscriber classes of the event bus (C3).
type Audience int

const (
	// AudienceAll reaches the organizer, every player, and every spectator.
	AudienceAll Audience = iota
	// AudienceOrganizer reaches the organizer connection only.
	AudienceOrganizer
	// AudienceOrganizerAndSpectators reaches the organizer and spectators,
	// never players — used for ANSWER_COUNT.
	AudienceOrganizerAndSpectators
)

// Publisher is the seam between the room state machine (C6) and the
// per-room event bus (C3). The game package depends only on this
// interface, never on the ws package, so ws can depend on game without
// a cycle.
type Publisher interface {
	// Publish fans an event out to every subscriber in aud, in publish order.
	Publish(aud Audience, evt Event)
	// PublishPrivate delivers evt only to the named player's current connection.
	PublishPrivate(nickname string, evt Event)
	// Kick delivers evt to handle directly (bypassing nickname/audience
	// routing) and then closes that connection. Used when a nickname
	// collision displaces a stale connection.
	Kick(handle Handle, evt Event)
}

// Outbound event type discriminators (spec.md §6).
const (
	EvtJoinedRoom            = "JOINED_ROOM"
	EvtReconnected           = "RECONNECTED"
	EvtPlayerJoined          = "PLAYER_JOINED"
	EvtPlayerLeft            = "PLAYER_LEFT"
	EvtPlayerDisconnected    = "PLAYER_DISCONNECTED"
	EvtPlayerReconnected     = "PLAYER_RECONNECTED"
	EvtGameStarting          = "GAME_STARTING"
	EvtQuestion              = "QUESTION"
	EvtTimer                 = "TIMER"
	EvtAnswerResult          = "ANSWER_RESULT"
	EvtAnswerCount           = "ANSWER_COUNT"
	EvtPowerUpActivated      = "POWER_UP_ACTIVATED"
	EvtQuestionOver          = "QUESTION_OVER"
	EvtPodium                = "PODIUM"
	EvtRoomReset             = "ROOM_RESET"
	EvtOrganizerDisconnected = "ORGANIZER_DISCONNECTED"
	EvtOrganizerReconnected  = "ORGANIZER_RECONNECTED"
	EvtRoomClosed            = "ROOM_CLOSED"
	EvtKicked                = "KICKED"
	EvtError                 = "ERROR"
)

// QuestionProjection is the QUESTION payload — identical for every
// audience since the correct index is never included (spec.md §4.3).
type QuestionProjection struct {
	QuestionNumber int      `json:"question_number"`
	Total          int      `json:"total"`
	Prompt         string   `json:"prompt"`
	Options        []Option `json:"options"`
	TimeLimitSecs  int      `json:"time_limit"`
	IsBonus        bool     `json:"is_bonus"`
}

// ParticipantSummary is the redacted roster shape broadcast on
// join/leave/reconnect events.
type ParticipantSummary struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	Team     string `json:"team,omitempty"`
}

// RosterPayload accompanies PLAYER_JOINED/PLAYER_LEFT/PLAYER_DISCONNECTED/PLAYER_RECONNECTED.
type RosterPayload struct {
	Nickname     string                `json:"nickname"`
	Players      []ParticipantSummary  `json:"players"`
	PlayerCount  int                   `json:"player_count"`
}

// JoinedRoomPayload is returned privately to a newly joined or
// reconnected player (JOINED_ROOM / RECONNECTED).
type JoinedRoomPayload struct {
	State          State               `json:"state"`
	QuestionNumber int                 `json:"question_number,omitempty"`
	Total          int                 `json:"total,omitempty"`
	Score          int                 `json:"score"`
	Question       *QuestionProjection `json:"question,omitempty"`
	TimeRemaining  int                 `json:"time_remaining,omitempty"`
}

// AnswerResultPayload is ANSWER_RESULT, sent only to the answering player.
type AnswerResultPayload struct {
	Correct    bool    `json:"correct"`
	Points     int     `json:"points"`
	Multiplier float64 `json:"multiplier"`
	Streak     int     `json:"streak"`
}

// AnswerCountPayload is ANSWER_COUNT, sent to organizer and spectators.
type AnswerCountPayload struct {
	Answered int `json:"answered"`
	Total    int `json:"total"`
}

// PowerUpActivatedPayload is POWER_UP_ACTIVATED, sent only to the activating player.
type PowerUpActivatedPayload struct {
	PowerUp       PowerUp `json:"power_up"`
	RemoveIndices []int   `json:"remove_indices,omitempty"`
}

// QuestionOverPayload is QUESTION_OVER.
type QuestionOverPayload struct {
	CorrectIndex int                `json:"correct_index"`
	Leaderboard  []LeaderboardEntry `json:"leaderboard"`
	IsFinal      bool               `json:"is_final"`
}

// PodiumPayload is PODIUM.
type PodiumPayload struct {
	Leaderboard     []LeaderboardEntry      `json:"leaderboard"`
	TeamLeaderboard []TeamLeaderboardEntry  `json:"team_leaderboard,omitempty"`
}

// OrganizerReconnectedPayload is ORGANIZER_RECONNECTED.
type OrganizerReconnectedPayload struct {
	State          State               `json:"state"`
	QuestionNumber int                 `json:"question_number,omitempty"`
	Total          int                 `json:"total,omitempty"`
	TimeRemaining  int                 `json:"time_remaining,omitempty"`
	Answered       int                 `json:"answered"`
	Leaderboard    []LeaderboardEntry  `json:"leaderboard"`
	Question       *QuestionProjection `json:"question,omitempty"`
}

// ErrorPayload is ERROR.
type ErrorPayload struct {
	Message string `json:"message"`
}
