package profiles

import (
	"sync"

	"go.uber.org/zap"

	"partymatch/internal/models"
)

// ScoreFunc computes pairwise compatibility for two profiles.
type ScoreFunc func(a, b *models.PlayerProfile) float64

// Store holds registered profiles, waiting-pool membership and the
// symmetric pairwise quality table. All mutation is serialized behind
// one mutex; scheduler ticks and request handlers interleave freely.
type Store struct {
	mu      sync.RWMutex
	players map[string]*models.PlayerProfile
	waiting map[string]struct{}
	order   []string // waiting ids in arrival order
	quality map[string]map[string]float64
	score   ScoreFunc
	logger  *zap.Logger
}

func NewStore(score ScoreFunc, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		players: make(map[string]*models.PlayerProfile),
		waiting: make(map[string]struct{}),
		quality: make(map[string]map[string]float64),
		score:   score,
		logger:  logger,
	}
}

// Register puts a player into the waiting pool and scores it against
// every other waiting player. Re-registration overwrites the profile
// and refreshes all pairwise scores touching it.
func (s *Store) Register(profile *models.PlayerProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := profile.ID
	s.players[id] = profile

	if _, ok := s.waiting[id]; !ok {
		s.waiting[id] = struct{}{}
		s.order = append(s.order, id)
	}

	if s.quality[id] == nil {
		s.quality[id] = make(map[string]float64)
	}

	for otherID := range s.waiting {
		if otherID == id {
			continue
		}
		other, ok := s.players[otherID]
		if !ok {
			continue
		}
		q := s.score(profile, other)
		s.quality[id][otherID] = q
		if s.quality[otherID] == nil {
			s.quality[otherID] = make(map[string]float64)
		}
		s.quality[otherID][id] = q
	}

	s.logger.Debug("player registered",
		zap.String("playerId", id),
		zap.Int("poolSize", len(s.waiting)))
}

// Remove drops a player from the waiting pool and prunes its quality
// entries in both directions.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

// RemoveGroup drops an accepted group atomically so no member can land
// in a second group.
func (s *Store) RemoveGroup(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.removeLocked(id)
	}
}

func (s *Store) removeLocked(id string) {
	if _, ok := s.waiting[id]; !ok {
		return
	}
	delete(s.waiting, id)
	delete(s.players, id)

	for i, waiting := range s.order {
		if waiting == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	for otherID := range s.quality[id] {
		delete(s.quality[otherID], id)
	}
	delete(s.quality, id)
}

// Quality returns the cached score for a pair, 0 when never scored.
func (s *Store) Quality(a, b string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quality[a][b]
}

// Waiting snapshots the pool in arrival order.
func (s *Store) Waiting() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Profile returns a registered profile, nil when absent.
func (s *Store) Profile(id string) *models.PlayerProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.players[id]
}

// Size reports the waiting-pool size.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.waiting)
}

// Contains reports waiting-pool membership.
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.waiting[id]
	return ok
}
