package regional

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"partymatch/internal/models"
)

// maxTimezoneSpread is the widest timezone gap, in hours, two players
// may have and still match regionally.
const maxTimezoneSpread = 3

// regionServers maps a region to its game servers, best first.
var regionServers = map[string][]string{
	"NA":   {"na-east-1", "na-west-1", "na-central-1"},
	"EU":   {"eu-west-1", "eu-central-1", "eu-north-1"},
	"ASIA": {"asia-east-1", "asia-southeast-1"},
}

const fallbackRegion = "NA"

// Matcher does rule-based regional matching: same region, at least one
// shared language, and timezones within a few hours. No scoring.
type Matcher struct {
	mu          sync.RWMutex
	preferences map[string]models.MatchPreferences
	logger      *zap.Logger
}

func NewMatcher(logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		preferences: make(map[string]models.MatchPreferences),
		logger:      logger,
	}
}

// SetPlayerPreferences stores or replaces a player's regional criteria.
func (m *Matcher) SetPlayerPreferences(playerID string, prefs models.MatchPreferences) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preferences[playerID] = prefs

	m.logger.Debug("regional preferences set",
		zap.String("playerId", playerID),
		zap.String("region", prefs.Region))
}

// RemovePlayer drops a player's stored preferences.
func (m *Matcher) RemovePlayer(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.preferences, playerID)
}

// FindMatch returns every stored player compatible with the given
// preferences. An empty result means nobody fits; it is not an error.
func (m *Matcher) FindMatch(playerID string, prefs models.MatchPreferences) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := []string{}
	for otherID, other := range m.preferences {
		if otherID == playerID {
			continue
		}
		if !compatible(prefs, other) {
			continue
		}
		matches = append(matches, otherID)
	}
	return matches
}

func compatible(a, b models.MatchPreferences) bool {
	if a.Region != b.Region {
		return false
	}
	if !sharesLanguage(a.Languages, b.Languages) {
		return false
	}
	diff := a.TimezoneOffset - b.TimezoneOffset
	if diff < 0 {
		diff = -diff
	}
	return diff <= maxTimezoneSpread
}

func sharesLanguage(a, b []string) bool {
	for _, la := range a {
		for _, lb := range b {
			if la == lb {
				return true
			}
		}
	}
	return false
}

// CreateRegionalSession pins a player group to the region's primary
// server. Unknown regions fall back to NA.
func (m *Matcher) CreateRegionalSession(region string, playerIDs []string) *models.RegionalSession {
	servers, ok := regionServers[region]
	if !ok {
		m.logger.Warn("unknown region, using fallback",
			zap.String("region", region),
			zap.String("fallback", fallbackRegion))
		region = fallbackRegion
		servers = regionServers[fallbackRegion]
	}

	players := make([]string, len(playerIDs))
	copy(players, playerIDs)

	return &models.RegionalSession{
		Region:    region,
		Players:   players,
		Server:    servers[0],
		Timestamp: time.Now(),
	}
}
