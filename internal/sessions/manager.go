package sessions

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"partymatch/internal/history"
	"partymatch/internal/metrics"
	"partymatch/internal/models"
)

// Listener observes session mutations. It is invoked synchronously,
// in registration order, with the session that changed.
type Listener func(session *models.GameSession)

// Manager owns session lifecycle. Sessions are keyed by id; every
// validation rule applies per session.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*models.GameSession
	listeners map[int]Listener
	nextSub   int

	logger  *zap.Logger
	metrics *metrics.Metrics
	history *history.Store
}

func NewManager(logger *zap.Logger, m *metrics.Metrics, h *history.Store) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions:  make(map[string]*models.GameSession),
		listeners: make(map[int]Listener),
		logger:    logger,
		metrics:   m,
		history:   h,
	}
}

// defaultSettings builds the per-mode defaults: random AI-DM sessions
// are public four-seaters, everything else is a private six-seater.
func defaultSettings(mode string) models.SessionSettings {
	settings := models.SessionSettings{
		MaxPlayers:   6,
		IsPrivate:    true,
		AIDifficulty: models.DifficultyMedium,
	}
	if mode == models.ModeAIDMRandom {
		settings.MaxPlayers = 4
		settings.IsPrivate = false
	}
	return settings
}

// CreateSession builds a session with the initiating player as host.
func (m *Manager) CreateSession(ctx context.Context, mode string, player models.SessionPlayer, override *models.SettingsOverride) (*models.GameSession, error) {
	switch mode {
	case models.ModeFriendDM, models.ModeAIDMRandom, models.ModeAIDMFriends:
	default:
		return nil, models.NewValidationError(fmt.Sprintf("unknown game mode %q", mode))
	}

	settings := defaultSettings(mode)
	if override != nil {
		if override.MaxPlayers != nil {
			settings.MaxPlayers = *override.MaxPlayers
		}
		if override.IsPrivate != nil {
			settings.IsPrivate = *override.IsPrivate
		}
		if override.AIDifficulty != nil {
			settings.AIDifficulty = *override.AIDifficulty
		}
	}

	player.IsHost = true
	session := &models.GameSession{
		ID:        "session-" + uuid.New().String(),
		Mode:      mode,
		Players:   []models.SessionPlayer{player},
		Status:    models.StatusWaiting,
		Settings:  settings,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	snapshot := cloneSession(session)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.ActiveSessions.WithLabelValues(models.StatusWaiting).Inc()
	}
	if err := m.history.RecordSession(ctx, snapshot); err != nil {
		m.logger.Warn("failed to archive session", zap.Error(err))
	}

	m.logger.Info("session created",
		zap.String("sessionId", session.ID),
		zap.String("mode", mode),
		zap.String("host", player.ID))

	m.notify(snapshot)
	return snapshot, nil
}

// JoinSession appends a player, enforcing capacity.
func (m *Manager) JoinSession(ctx context.Context, sessionID string, player models.SessionPlayer) (*models.GameSession, error) {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return nil, models.ErrSessionNotFound
	}
	if len(session.Players) >= session.Settings.MaxPlayers {
		m.mu.Unlock()
		return nil, models.ErrSessionFull
	}
	player.IsHost = false
	session.Players = append(session.Players, player)
	snapshot := cloneSession(session)
	m.mu.Unlock()

	m.logger.Info("player joined session",
		zap.String("sessionId", sessionID),
		zap.String("playerId", player.ID))

	m.notify(snapshot)
	return snapshot, nil
}

// AssignDM marks one player as DM. Outside friend-dm mode this is a
// no-op; within it, exactly one player ends up flagged.
func (m *Manager) AssignDM(sessionID, playerID string) error {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return models.ErrSessionNotFound
	}
	if session.Mode != models.ModeFriendDM {
		m.mu.Unlock()
		return nil
	}

	// Verify membership before touching any flag so a failed call
	// leaves the current DM in place.
	found := false
	for _, p := range session.Players {
		if p.ID == playerID {
			found = true
			break
		}
	}
	if !found {
		m.mu.Unlock()
		return models.ErrPlayerNotFound
	}

	for i := range session.Players {
		session.Players[i].IsDM = session.Players[i].ID == playerID
	}
	snapshot := cloneSession(session)
	m.mu.Unlock()

	m.notify(snapshot)
	return nil
}

// StartSession validates mode preconditions and moves the session to
// in-progress.
func (m *Manager) StartSession(ctx context.Context, sessionID string) (*models.GameSession, error) {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return nil, models.ErrSessionNotFound
	}

	var err error
	switch session.Mode {
	case models.ModeFriendDM:
		hasDM := false
		for _, p := range session.Players {
			if p.IsDM {
				hasDM = true
				break
			}
		}
		if !hasDM {
			err = models.NewValidationError("no DM assigned")
		}
	case models.ModeAIDMRandom:
		if len(session.Players) < 2 {
			err = models.NewValidationError("not enough players")
		}
	case models.ModeAIDMFriends:
		if len(session.Players) < 1 {
			err = models.NewValidationError("not enough players")
		}
	}
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}

	session.Status = models.StatusInProgress
	snapshot := cloneSession(session)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.ActiveSessions.WithLabelValues(models.StatusWaiting).Dec()
		m.metrics.ActiveSessions.WithLabelValues(models.StatusInProgress).Inc()
	}
	if archiveErr := m.history.RecordSession(ctx, snapshot); archiveErr != nil {
		m.logger.Warn("failed to archive session", zap.Error(archiveErr))
	}

	m.logger.Info("session started", zap.String("sessionId", sessionID))

	m.notify(snapshot)
	return snapshot, nil
}

// Session returns a snapshot of a tracked session.
func (m *Manager) Session(sessionID string) (*models.GameSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return cloneSession(session), nil
}

// Subscribe registers a listener and returns its unsubscribe func.
func (m *Manager) Subscribe(l Listener) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.listeners[id] = l
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// notify fans out synchronously outside the state lock so a listener
// may call back into the manager.
func (m *Manager) notify(session *models.GameSession) {
	m.mu.RLock()
	ids := make([]int, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	snapshot := make([]Listener, 0, len(ids))
	for _, id := range ids {
		snapshot = append(snapshot, m.listeners[id])
	}
	m.mu.RUnlock()

	for _, l := range snapshot {
		l(session)
	}
}

func cloneSession(s *models.GameSession) *models.GameSession {
	clone := *s
	clone.Players = make([]models.SessionPlayer, len(s.Players))
	copy(clone.Players, s.Players)
	return &clone
}
