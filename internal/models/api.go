package models

// Resp is the generic API envelope.
type Resp struct {
	OK   bool        `json:"ok"`
	Info interface{} `json:"info"`
}

// JoinQueueReq enqueues a player. Profile is optional; without it the
// player only participates in arrival-order matching.
type JoinQueueReq struct {
	UserID   string         `json:"userId"`
	Name     string         `json:"name"`
	Criteria MatchCriteria  `json:"criteria"`
	Profile  *PlayerProfile `json:"profile,omitempty"`
}

// CheckResp reports a queued player's current placement.
type CheckResp struct {
	Queued  bool        `json:"queued"`
	Matched bool        `json:"matched"`
	Entry   *QueueEntry `json:"entry,omitempty"`
	Match   *MatchInfo  `json:"match,omitempty"`
}

// CreateSessionReq creates a session with the caller as host.
type CreateSessionReq struct {
	Mode     string            `json:"mode"`
	Player   SessionPlayer     `json:"player"`
	Settings *SettingsOverride `json:"settings,omitempty"`
}

// JoinSessionReq joins an existing session.
type JoinSessionReq struct {
	SessionID string        `json:"sessionId"`
	Player    SessionPlayer `json:"player"`
}

// AssignDMReq promotes one player to DM in a friend-dm session.
type AssignDMReq struct {
	SessionID string `json:"sessionId"`
	PlayerID  string `json:"playerId"`
}

// StartSessionReq starts a session after mode validation.
type StartSessionReq struct {
	SessionID string `json:"sessionId"`
}

// FindOrCreateReq requests an AI-DM session by preference.
type FindOrCreateReq struct {
	Player      SessionPlayer `json:"player"`
	Preferences AIPreferences `json:"preferences"`
}

// SessionFeedbackReq carries post-session peer ratings for one player.
type SessionFeedbackReq struct {
	PlayerID      string  `json:"playerId"`
	Overall       float64 `json:"overall"`
	Teamwork      float64 `json:"teamwork"`
	Communication float64 `json:"communication"`
	Reliability   float64 `json:"reliability"`
}
