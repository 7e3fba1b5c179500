package models

import "time"

// Game modes
const (
	ModeFriendDM    = "friend-dm"
	ModeAIDMRandom  = "ai-dm-random"
	ModeAIDMFriends = "ai-dm-friends"
)

// Session statuses
const (
	StatusWaiting    = "waiting"
	StatusFull       = "full"
	StatusStarting   = "starting"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// AI difficulty levels
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Campaign types for AI-DM preference matching
const (
	CampaignDungeon    = "dungeon"
	CampaignCity       = "city"
	CampaignWilderness = "wilderness"
)

// SessionPlayer is a player inside a session. Exactly one host per
// session; at most one DM, and only in friend-dm mode.
type SessionPlayer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsHost      bool   `json:"isHost"`
	IsDM        bool   `json:"isDM"`
	CharacterID string `json:"characterId,omitempty"`
}

// SessionSettings configures a session at creation time.
type SessionSettings struct {
	MaxPlayers   int    `json:"maxPlayers"`
	IsPrivate    bool   `json:"isPrivate"`
	AIDifficulty string `json:"aiDifficulty,omitempty"`
}

// SettingsOverride overlays caller-supplied values on the mode defaults.
// Nil fields keep the default.
type SettingsOverride struct {
	MaxPlayers   *int    `json:"maxPlayers,omitempty"`
	IsPrivate    *bool   `json:"isPrivate,omitempty"`
	AIDifficulty *string `json:"aiDifficulty,omitempty"`
}

// GameSession is a bounded-capacity gameplay grouping.
type GameSession struct {
	ID        string          `json:"id"`
	Mode      string          `json:"mode"`
	Players   []SessionPlayer `json:"players"`
	Status    string          `json:"status"`
	Settings  SessionSettings `json:"settings"`
	CreatedAt time.Time       `json:"createdAt"`
}

// AIPreferences selects an AI-DM session to join or create.
type AIPreferences struct {
	AIDifficulty string `json:"aiDifficulty"`
	CampaignType string `json:"campaignType"`
}

// MatchmakingSession is the simpler shape used for AI-DM preference
// matching: fixed capacity 4, no host/DM roles.
type MatchmakingSession struct {
	ID           string          `json:"id"`
	Players      []SessionPlayer `json:"players"`
	MaxPlayers   int             `json:"maxPlayers"`
	Status       string          `json:"status"`
	AIDifficulty string          `json:"aiDifficulty"`
	CampaignType string          `json:"campaignType"`
}

// RegionalSession tags a player list with a region and a server.
type RegionalSession struct {
	Region    string    `json:"region"`
	Players   []string  `json:"players"`
	Server    string    `json:"server"`
	Timestamp time.Time `json:"timestamp"`
}

// MatchPreferences are the rule-based regional matching inputs.
type MatchPreferences struct {
	Region         string   `json:"region"`
	Languages      []string `json:"languages"`
	TimezoneOffset int      `json:"timezoneOffset"`
	MaxPing        int      `json:"maxPing"`
}
