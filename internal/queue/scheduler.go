package queue

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"partymatch/internal/grouping"
	"partymatch/internal/history"
	"partymatch/internal/metrics"
	"partymatch/internal/models"
	"partymatch/internal/profiles"
	"partymatch/internal/ratings"
	"partymatch/internal/sessions"
	"partymatch/internal/utils"
)

const (
	// DefaultInterval is how often the matchmaking loop runs.
	DefaultInterval = 5 * time.Second

	playerKeyPrefix = "player:"
	queueKeyPrefix  = "queue:"
	queueAllKey     = "queue:all"
	matchesChannel  = "matches"
)

// Scheduler owns the matchmaking queue. Players live in Redis (a hash
// per player plus per-mode and global sorted sets); scored profiles
// additionally live in the in-memory pool the group finder scans. One
// ticker drives matching; it starts on the first join and stops once
// the queue drains.
type Scheduler struct {
	ctx     context.Context
	rdb     *redis.Client
	store   *profiles.Store
	finder  *grouping.Finder
	manager *sessions.Manager
	ratings *ratings.Store
	history *history.Store
	metrics *metrics.Metrics
	logger  *zap.Logger

	jwtSecret []byte
	groupSize int
	interval  time.Duration

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	profiles map[string]*models.PlayerProfile // retained for re-queue after placement failure

	matchMu     sync.Mutex
	userToMatch map[string]*models.MatchInfo

	upgrader    websocket.Upgrader
	connMu      sync.Mutex
	connections map[string]*websocket.Conn
}

// Options configures a Scheduler; zero values fall back to defaults.
type Options struct {
	JWTSecret []byte
	GroupSize int
	Interval  time.Duration
}

func NewScheduler(ctx context.Context, rdb *redis.Client, store *profiles.Store, finder *grouping.Finder, manager *sessions.Manager, rs *ratings.Store, hs *history.Store, m *metrics.Metrics, logger *zap.Logger, opts Options) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.GroupSize <= 0 {
		opts.GroupSize = grouping.DefaultGroupSize
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Scheduler{
		ctx:       ctx,
		rdb:       rdb,
		store:     store,
		finder:    finder,
		manager:   manager,
		ratings:   rs,
		history:   hs,
		metrics:   m,
		logger:    logger,
		jwtSecret: opts.JWTSecret,
		groupSize: opts.GroupSize,
		interval:  opts.Interval,
		profiles:  make(map[string]*models.PlayerProfile),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		userToMatch: make(map[string]*models.MatchInfo),
		connections: make(map[string]*websocket.Conn),
	}
}

// Join enqueues a player. Joining again refreshes the stored entry
// without resetting queue position. The matchmaking ticker starts if it
// is not already running.
func (s *Scheduler) Join(ctx context.Context, req *models.JoinQueueReq) error {
	if req.UserID == "" {
		return models.NewValidationError("userId required")
	}
	mode := req.Criteria.Mode
	if mode == "" {
		mode = models.ModeAIDMRandom
	}
	switch mode {
	case models.ModeFriendDM, models.ModeAIDMRandom, models.ModeAIDMFriends:
	default:
		return models.NewValidationError(fmt.Sprintf("unknown game mode %q", mode))
	}

	now := float64(time.Now().Unix())
	playerKey := playerKeyPrefix + req.UserID

	// Keep the original arrival time on re-join.
	if joinedAt, err := s.rdb.HGet(ctx, playerKey, "joined_at").Float64(); err == nil {
		now = joinedAt
	}

	err := s.rdb.HSet(ctx, playerKey, map[string]interface{}{
		"name":      req.Name,
		"mode":      mode,
		"level":     req.Criteria.Level,
		"region":    req.Criteria.Region,
		"language":  req.Criteria.Language,
		"joined_at": now,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to enqueue player: %w", err)
	}
	s.rdb.ZAdd(ctx, queueKeyPrefix+mode, redis.Z{Score: now, Member: req.UserID})
	s.rdb.ZAdd(ctx, queueAllKey, redis.Z{Score: now, Member: req.UserID})

	if req.Profile != nil {
		req.Profile.ID = req.UserID
		if s.ratings != nil {
			if err := s.ratings.Hydrate(ctx, req.Profile); err != nil {
				s.logger.Warn("failed to hydrate ratings", zap.String("userId", req.UserID), zap.Error(err))
			}
		}
		s.store.Register(req.Profile)
		s.mu.Lock()
		s.profiles[req.UserID] = req.Profile
		s.mu.Unlock()
	}

	s.matchMu.Lock()
	delete(s.userToMatch, req.UserID)
	s.matchMu.Unlock()

	if s.metrics != nil {
		s.metrics.QueueDepth.WithLabelValues(mode).Inc()
		s.metrics.WaitingPool.Set(float64(s.store.Size()))
	}

	s.logger.Info("player queued",
		zap.String("userId", req.UserID),
		zap.String("mode", mode),
		zap.Bool("scored", req.Profile != nil))

	s.ensureRunning()
	return nil
}

// Leave removes a player from the queue and the scored pool.
func (s *Scheduler) Leave(ctx context.Context, userID string) error {
	playerKey := playerKeyPrefix + userID
	mode, err := s.rdb.HGet(ctx, playerKey, "mode").Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up queued player: %w", err)
	}

	s.rdb.Del(ctx, playerKey)
	s.rdb.ZRem(ctx, queueKeyPrefix+mode, userID)
	s.rdb.ZRem(ctx, queueAllKey, userID)
	s.store.Remove(userID)

	s.mu.Lock()
	delete(s.profiles, userID)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.QueueDepth.WithLabelValues(mode).Dec()
		s.metrics.WaitingPool.Set(float64(s.store.Size()))
	}

	s.logger.Info("player left queue", zap.String("userId", userID))
	return nil
}

// Check reports a player's placement: matched, still queued, or gone.
// A queued player's response echoes their stored queue entry.
func (s *Scheduler) Check(ctx context.Context, userID string) (*models.CheckResp, error) {
	s.matchMu.Lock()
	match, matched := s.userToMatch[userID]
	s.matchMu.Unlock()
	if matched {
		return &models.CheckResp{Matched: true, Match: match}, nil
	}

	data, err := s.rdb.HGetAll(ctx, playerKeyPrefix+userID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check queue membership: %w", err)
	}
	if len(data) == 0 {
		return &models.CheckResp{}, nil
	}

	level, _ := strconv.Atoi(data["level"])
	joinedAt, _ := strconv.ParseFloat(data["joined_at"], 64)
	return &models.CheckResp{
		Queued: true,
		Entry: &models.QueueEntry{
			ID:   userID,
			Name: data["name"],
			Criteria: models.MatchCriteria{
				Mode:     data["mode"],
				Level:    level,
				Region:   data["region"],
				Language: data["language"],
			},
			Timestamp: int64(joinedAt),
		},
	}, nil
}

// Running reports whether the matchmaking ticker is live.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Stop halts the ticker. Queued players stay queued; the next join
// restarts matching.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
}

func (s *Scheduler) ensureRunning() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	go s.loop(s.stopCh)
}

func (s *Scheduler) loop(stop chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.Tick(s.ctx)

			size, err := s.rdb.ZCard(s.ctx, queueAllKey).Result()
			if err == nil && size == 0 {
				s.mu.Lock()
				// stopLocked closes the channel this loop selects on.
				s.stopLocked()
				s.mu.Unlock()
				s.logger.Info("queue drained, matchmaking loop stopped")
				return
			}
		}
	}
}

var gameModes = []string{models.ModeAIDMRandom, models.ModeAIDMFriends, models.ModeFriendDM}

// Tick runs one matching pass: scored groups first, then arrival-order
// groups per mode for players without profiles.
func (s *Scheduler) Tick(ctx context.Context) {
	s.tickScored(ctx)
	s.tickArrivalOrder(ctx)

	if s.metrics != nil {
		s.metrics.WaitingPool.Set(float64(s.store.Size()))
	}
}

// tickScored forms scored groups within each mode's bucket, so a group
// never mixes players who asked for different modes. The pass is
// bounded by the pool size: a group the session layer keeps rejecting
// gets re-queued and waits for the next pass instead of spinning this
// one.
func (s *Scheduler) tickScored(ctx context.Context) {
	maxGroups := s.store.Size() / s.groupSize
	for i := 0; i < maxGroups; i++ {
		formed := false
		buckets := s.modeBuckets(ctx)
		for _, mode := range gameModes {
			group, quality := s.finder.FindGroupAmong(buckets[mode])
			if group == nil {
				continue
			}
			s.formMatch(ctx, mode, group, quality)
			formed = true
		}
		if !formed {
			return
		}
	}
}

// modeBuckets splits the scored waiting pool by requested mode,
// preserving arrival order within each bucket.
func (s *Scheduler) modeBuckets(ctx context.Context) map[string][]string {
	buckets := make(map[string][]string)
	for _, id := range s.store.Waiting() {
		mode, _ := s.rdb.HGet(ctx, playerKeyPrefix+id, "mode").Result()
		if mode == "" {
			mode = models.ModeAIDMRandom
		}
		buckets[mode] = append(buckets[mode], id)
	}
	return buckets
}

// tickArrivalOrder matches unscored players within a mode purely by
// queue position, two at minimum, up to the group size.
func (s *Scheduler) tickArrivalOrder(ctx context.Context) {
	for _, mode := range gameModes {
		for {
			members, err := s.rdb.ZRange(ctx, queueKeyPrefix+mode, 0, -1).Result()
			if err != nil {
				s.logger.Warn("failed to read queue", zap.String("mode", mode), zap.Error(err))
				break
			}

			var unscored []string
			for _, id := range members {
				if !s.store.Contains(id) {
					unscored = append(unscored, id)
				}
				if len(unscored) == s.groupSize {
					break
				}
			}
			if len(unscored) < 2 {
				break
			}

			s.formMatch(ctx, mode, unscored, 0)
		}
	}
}

// formMatch dequeues a group, creates a session with the first player
// as host and joins the rest in order. Players the session cannot take
// are re-queued rather than dropped.
func (s *Scheduler) formMatch(ctx context.Context, mode string, group []string, quality float64) {
	names := make(map[string]string, len(group))
	for _, id := range group {
		name, _ := s.rdb.HGet(ctx, playerKeyPrefix+id, "name").Result()
		if name == "" {
			name = id
		}
		names[id] = name

		s.rdb.Del(ctx, playerKeyPrefix+id)
		s.rdb.ZRem(ctx, queueKeyPrefix+mode, id)
		s.rdb.ZRem(ctx, queueAllKey, id)
		if s.metrics != nil {
			s.metrics.QueueDepth.WithLabelValues(mode).Dec()
		}
	}
	s.store.RemoveGroup(group)

	host := models.SessionPlayer{ID: group[0], Name: names[group[0]]}
	session, err := s.manager.CreateSession(ctx, mode, host, nil)
	if err != nil {
		s.logger.Error("failed to create session for match", zap.Error(err))
		if s.metrics != nil {
			s.metrics.MatchFailures.Inc()
		}
		s.requeue(ctx, mode, group, names)
		return
	}

	placed := []string{group[0]}
	for i, id := range group[1:] {
		_, err := s.manager.JoinSession(ctx, session.ID, models.SessionPlayer{ID: id, Name: names[id]})
		if err != nil {
			s.logger.Warn("session rejected matched player, re-queueing remainder",
				zap.String("sessionId", session.ID),
				zap.String("playerId", id),
				zap.Error(err))
			if s.metrics != nil {
				s.metrics.MatchFailures.Inc()
			}
			s.requeue(ctx, mode, group[1+i:], names)
			break
		}
		placed = append(placed, id)
	}

	s.mu.Lock()
	for _, id := range placed {
		delete(s.profiles, id)
	}
	s.mu.Unlock()

	matchID := uuid.New().String()
	for _, id := range placed {
		token, err := utils.GenerateSessionToken(session.ID, id, s.jwtSecret)
		if err != nil {
			s.logger.Warn("failed to mint session token", zap.String("playerId", id), zap.Error(err))
		}

		info := &models.MatchInfo{
			MatchID:   matchID,
			SessionID: session.ID,
			Mode:      mode,
			Players:   placed,
			Quality:   quality,
			Token:     token,
		}
		s.matchMu.Lock()
		s.userToMatch[id] = info
		s.matchMu.Unlock()

		s.sendToUser(id, map[string]interface{}{
			"type":      "match_found",
			"matchId":   matchID,
			"sessionId": session.ID,
			"mode":      mode,
			"players":   placed,
			"quality":   quality,
			"token":     token,
		})
	}

	s.publishMatch(ctx, matchID, session.ID, mode, placed)

	if err := s.history.RecordMatch(ctx, matchID, mode, placed, quality); err != nil {
		s.logger.Warn("failed to archive match", zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.MatchesFormed.WithLabelValues(mode).Inc()
		s.metrics.MatchQuality.Observe(quality)
	}

	s.logger.Info("match formed",
		zap.String("matchId", matchID),
		zap.String("sessionId", session.ID),
		zap.String("mode", mode),
		zap.Strings("players", placed),
		zap.Float64("quality", quality))
}

func (s *Scheduler) requeue(ctx context.Context, mode string, group []string, names map[string]string) {
	for _, id := range group {
		s.mu.Lock()
		profile := s.profiles[id]
		s.mu.Unlock()

		req := &models.JoinQueueReq{
			UserID:   id,
			Name:     names[id],
			Criteria: models.MatchCriteria{Mode: mode},
			Profile:  profile,
		}
		if err := s.Join(ctx, req); err != nil {
			s.logger.Error("failed to re-queue player", zap.String("userId", id), zap.Error(err))
			continue
		}
		s.sendToUser(id, map[string]interface{}{
			"type":    "requeued",
			"message": "Your group could not be seated. You have been re-queued.",
		})
	}
}

func (s *Scheduler) publishMatch(ctx context.Context, matchID, sessionID, mode string, players []string) {
	payload := fmt.Sprintf(`{"matchId":%q,"sessionId":%q,"mode":%q,"playerCount":%d}`,
		matchID, sessionID, mode, len(players))
	if err := s.rdb.Publish(ctx, matchesChannel, payload).Err(); err != nil {
		s.logger.Warn("failed to publish match event", zap.Error(err))
	}
}

// SweepStale drops players who have been queued longer than maxWait
// and tells them over their websocket. Returns how many were dropped.
func (s *Scheduler) SweepStale(ctx context.Context, maxWait time.Duration) int {
	cutoff := float64(time.Now().Add(-maxWait).Unix())
	ids, err := s.rdb.ZRangeByScore(ctx, queueAllKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%f", cutoff),
	}).Result()
	if err != nil {
		s.logger.Warn("stale sweep failed", zap.Error(err))
		return 0
	}

	for _, id := range ids {
		if err := s.Leave(ctx, id); err != nil {
			s.logger.Warn("failed to drop stale player", zap.String("userId", id), zap.Error(err))
			continue
		}
		s.sendToUser(id, map[string]interface{}{
			"type":    "timeout",
			"message": "Matchmaking timed out",
		})
	}
	if len(ids) > 0 {
		s.logger.Info("dropped stale queue entries", zap.Int("count", len(ids)))
	}
	return len(ids)
}

func (s *Scheduler) sendToUser(userID string, data interface{}) {
	s.connMu.Lock()
	conn, ok := s.connections[userID]
	s.connMu.Unlock()
	if !ok {
		return
	}

	if err := conn.WriteJSON(data); err != nil {
		s.logger.Warn("websocket write failed, dropping connection",
			zap.String("userId", userID), zap.Error(err))
		s.connMu.Lock()
		delete(s.connections, userID)
		s.connMu.Unlock()
		conn.Close()
	}
}
