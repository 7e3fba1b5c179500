package models

// Play styles
const (
	PlayStyleCasual   = "casual"
	PlayStyleModerate = "moderate"
	PlayStyleHardcore = "hardcore"
)

// Party roles
const (
	RoleTank    = "tank"
	RoleHealer  = "healer"
	RoleDPS     = "dps"
	RoleSupport = "support"
)

// Language fluency levels, ordered weakest to strongest
const (
	FluencyBasic        = "basic"
	FluencyIntermediate = "intermediate"
	FluencyFluent       = "fluent"
	FluencyNative       = "native"
)

// Age brackets, ordered youngest to oldest
const (
	AgeGroupTeen  = "13-17"
	AgeGroupYoung = "18-24"
	AgeGroupAdult = "25-34"
	AgeGroupOlder = "35+"
)

// Device types
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
)

// TimeRange is an hour window on the 24h clock.
type TimeRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Availability lists the weekdays (0=Sunday .. 6=Saturday) and hour
// windows a player can play in.
type Availability struct {
	Days       []int       `json:"days"`
	TimeRanges []TimeRange `json:"timeRanges"`
}

// Ratings holds the four peer-rating axes, each roughly 0-10.
type Ratings struct {
	Overall       float64 `json:"overall"`
	Teamwork      float64 `json:"teamwork"`
	Communication float64 `json:"communication"`
	Reliability   float64 `json:"reliability"`
}

// PlayHistory aggregates a player's past sessions.
type PlayHistory struct {
	TotalGames           int     `json:"totalGames"`
	CompletionRate       float64 `json:"completionRate"`
	AverageSessionLength float64 `json:"averageSessionLength"`
}

// PlayerProfile is the record matchmaking scores against. Extended is
// nil for players who only filled in the basic questionnaire.
type PlayerProfile struct {
	ID             string        `json:"id"`
	Region         string        `json:"region"`
	Languages      []string      `json:"languages"`
	TimezoneOffset int           `json:"timezoneOffset"`
	Experience     float64       `json:"experience"`
	PlayStyle      string        `json:"playStyle"`
	PreferredRoles []string      `json:"preferredRoles"`
	Availability   Availability  `json:"availability"`
	Ratings        Ratings       `json:"ratings"`
	History        PlayHistory   `json:"history"`
	Extended       *ExtendedInfo `json:"extended,omitempty"`
}

// PlayerSkills are self-assessed 1-10 axes.
type PlayerSkills struct {
	Roleplay   float64 `json:"roleplay"`
	Combat     float64 `json:"combat"`
	Strategy   float64 `json:"strategy"`
	Teamwork   float64 `json:"teamwork"`
	Leadership float64 `json:"leadership"`
}

// PlayerBehavior tracks conduct signals. Completion and disconnection
// are fractions in [0,1]; participation is 1-10.
type PlayerBehavior struct {
	ToxicityReports     int     `json:"toxicityReports"`
	Commendations       int     `json:"commendations"`
	SessionCompletion   float64 `json:"sessionCompletion"`
	DisconnectionRate   float64 `json:"disconnectionRate"`
	ResponseTime        float64 `json:"responseTime"`
	ActiveParticipation float64 `json:"activeParticipation"`
}

// Campaign preference enums
const (
	CampaignLengthOneshot = "oneshot"
	CampaignLengthShort   = "short"
	CampaignLengthMedium  = "medium"
	CampaignLengthLong    = "long"

	MaturityFamily = "family"
	MaturityTeen   = "teen"
	MaturityMature = "mature"

	FantasyLow    = "low"
	FantasyMedium = "medium"
	FantasyHigh   = "high"
)

// CampaignPreferences describes what kind of campaign a player wants.
type CampaignPreferences struct {
	Styles         []string `json:"styles"`
	Tones          []string `json:"tones"`
	CampaignLength string   `json:"campaignLength"`
	MaturityRating string   `json:"maturityRating"`
	FantasyLevel   string   `json:"fantasyLevel"`
	PvP            bool     `json:"pvp"`
}

// Equipment describes a player's hardware situation.
type Equipment struct {
	HasWebcam     bool    `json:"hasWebcam"`
	HasMicrophone bool    `json:"hasMicrophone"`
	InternetSpeed float64 `json:"internetSpeed"` // Mbps
	DeviceType    string  `json:"deviceType"`
}

// GroupSizeRange bounds the party sizes a player will accept.
type GroupSizeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// SocialPreferences describes how a player wants to communicate.
type SocialPreferences struct {
	VoiceChatPreferred bool                `json:"voiceChatPreferred"`
	VideoChatPreferred bool                `json:"videoChatPreferred"`
	TextChatPreferred  bool                `json:"textChatPreferred"`
	LanguageFluency    map[string]string   `json:"languageFluency"`
	AgeGroup           string              `json:"ageGroup"`
	GroupSize          GroupSizeRange      `json:"groupSize"`
}

// ExtendedInfo carries the optional deep-profile dimensions.
type ExtendedInfo struct {
	Skills              PlayerSkills        `json:"skills"`
	Behavior            PlayerBehavior      `json:"behavior"`
	CampaignPreferences CampaignPreferences `json:"campaignPreferences"`
	Equipment           Equipment           `json:"equipment"`
	SocialPreferences   SocialPreferences   `json:"socialPreferences"`
}
