package sessions

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"partymatch/internal/models"
)

const preferenceSessionCapacity = 4

// PreferenceMatcher places players into AI-DM sessions by declared
// difficulty and campaign type instead of pairwise scoring.
type PreferenceMatcher struct {
	mu       sync.Mutex
	sessions map[string]*models.MatchmakingSession
	logger   *zap.Logger
}

func NewPreferenceMatcher(logger *zap.Logger) *PreferenceMatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferenceMatcher{
		sessions: make(map[string]*models.MatchmakingSession),
		logger:   logger,
	}
}

// FindOrCreate joins the first waiting session with matching
// preferences and room, creating a fresh one otherwise. A session that
// fills up flips to full.
func (pm *PreferenceMatcher) FindOrCreate(player models.SessionPlayer, prefs models.AIPreferences) *models.MatchmakingSession {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	for _, session := range pm.sessions {
		if session.Status != models.StatusWaiting {
			continue
		}
		if session.AIDifficulty != prefs.AIDifficulty || session.CampaignType != prefs.CampaignType {
			continue
		}
		if len(session.Players) >= session.MaxPlayers {
			continue
		}

		session.Players = append(session.Players, player)
		if len(session.Players) == session.MaxPlayers {
			session.Status = models.StatusFull
		}
		return clonePreferenceSession(session)
	}

	session := &models.MatchmakingSession{
		ID:           "session-" + uuid.New().String(),
		Players:      []models.SessionPlayer{player},
		MaxPlayers:   preferenceSessionCapacity,
		Status:       models.StatusWaiting,
		AIDifficulty: prefs.AIDifficulty,
		CampaignType: prefs.CampaignType,
	}
	pm.sessions[session.ID] = session

	pm.logger.Info("preference session created",
		zap.String("sessionId", session.ID),
		zap.String("difficulty", prefs.AIDifficulty),
		zap.String("campaign", prefs.CampaignType))

	return clonePreferenceSession(session)
}

// Leave removes a player; an emptied session is deleted, a previously
// full one reopens.
func (pm *PreferenceMatcher) Leave(sessionID, playerID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	session, ok := pm.sessions[sessionID]
	if !ok {
		return
	}

	players := session.Players[:0]
	for _, p := range session.Players {
		if p.ID != playerID {
			players = append(players, p)
		}
	}
	session.Players = players

	if len(session.Players) == 0 {
		delete(pm.sessions, sessionID)
		return
	}
	session.Status = models.StatusWaiting
}

// Session returns a snapshot, nil when untracked.
func (pm *PreferenceMatcher) Session(sessionID string) *models.MatchmakingSession {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	session, ok := pm.sessions[sessionID]
	if !ok {
		return nil
	}
	return clonePreferenceSession(session)
}

func clonePreferenceSession(s *models.MatchmakingSession) *models.MatchmakingSession {
	clone := *s
	clone.Players = make([]models.SessionPlayer, len(s.Players))
	copy(clone.Players, s.Players)
	return &clone
}
