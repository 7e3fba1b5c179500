package models

// MatchCriteria is what a player asks for when queueing.
type MatchCriteria struct {
	Mode     string `json:"mode"`
	Level    int    `json:"level"`
	Region   string `json:"region"`
	Language string `json:"language"`
}

// QueueEntry is one player waiting in the matchmaking queue. Timestamp
// is informational; matching order does not depend on it.
type QueueEntry struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Criteria  MatchCriteria `json:"criteria"`
	Timestamp int64         `json:"timestamp"`
}

// MatchInfo is handed to each player when a group forms.
type MatchInfo struct {
	MatchID   string   `json:"matchId"`
	SessionID string   `json:"sessionId"`
	Mode      string   `json:"mode"`
	Players   []string `json:"players"`
	Quality   float64  `json:"quality"`
	Token     string   `json:"token"`
}
