package ratings

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"partymatch/internal/models"
)

const (
	// Blend factors for folding session feedback into the running
	// rating. New players move faster.
	blendNew         = 0.2 // fewer than 5 rated sessions
	blendExperienced = 0.1

	// DefaultRating seeds every axis for unrated players.
	DefaultRating = 5.0

	ratingKeyPrefix = "rating:"
	ratingTTL       = 90 * 24 * time.Hour
)

// PlayerRating is a player's stored rating state.
type PlayerRating struct {
	PlayerID      string         `json:"playerId"`
	Ratings       models.Ratings `json:"ratings"`
	RatedSessions int            `json:"ratedSessions"`
}

// Store persists peer ratings in Redis hashes with a rolling TTL.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func blendFactor(ratedSessions int) float64 {
	if ratedSessions < 5 {
		return blendNew
	}
	return blendExperienced
}

// Get returns a player's rating, defaulting every axis for unknown
// players.
func (s *Store) Get(ctx context.Context, playerID string) (*PlayerRating, error) {
	data, err := s.rdb.HGetAll(ctx, ratingKeyPrefix+playerID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load rating: %w", err)
	}
	if len(data) == 0 {
		return &PlayerRating{
			PlayerID: playerID,
			Ratings: models.Ratings{
				Overall:       DefaultRating,
				Teamwork:      DefaultRating,
				Communication: DefaultRating,
				Reliability:   DefaultRating,
			},
		}, nil
	}

	rating := &PlayerRating{PlayerID: playerID}
	fmt.Sscanf(data["overall"], "%f", &rating.Ratings.Overall)
	fmt.Sscanf(data["teamwork"], "%f", &rating.Ratings.Teamwork)
	fmt.Sscanf(data["communication"], "%f", &rating.Ratings.Communication)
	fmt.Sscanf(data["reliability"], "%f", &rating.Ratings.Reliability)
	fmt.Sscanf(data["rated_sessions"], "%d", &rating.RatedSessions)
	return rating, nil
}

// Set stores a rating and refreshes its TTL.
func (s *Store) Set(ctx context.Context, rating *PlayerRating) error {
	key := ratingKeyPrefix + rating.PlayerID
	err := s.rdb.HSet(ctx, key, map[string]interface{}{
		"overall":        rating.Ratings.Overall,
		"teamwork":       rating.Ratings.Teamwork,
		"communication":  rating.Ratings.Communication,
		"reliability":    rating.Ratings.Reliability,
		"rated_sessions": rating.RatedSessions,
		"last_updated":   time.Now().Unix(),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to store rating: %w", err)
	}
	s.rdb.Expire(ctx, key, ratingTTL)
	return nil
}

// ApplyFeedback folds one session's peer scores into the stored rating
// and returns the updated state.
func (s *Store) ApplyFeedback(ctx context.Context, feedback *models.SessionFeedbackReq) (*PlayerRating, error) {
	current, err := s.Get(ctx, feedback.PlayerID)
	if err != nil {
		return nil, err
	}

	k := blendFactor(current.RatedSessions)
	current.Ratings.Overall = blend(current.Ratings.Overall, feedback.Overall, k)
	current.Ratings.Teamwork = blend(current.Ratings.Teamwork, feedback.Teamwork, k)
	current.Ratings.Communication = blend(current.Ratings.Communication, feedback.Communication, k)
	current.Ratings.Reliability = blend(current.Ratings.Reliability, feedback.Reliability, k)
	current.RatedSessions++

	if err := s.Set(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

// Hydrate fills a profile's ratings from the store when the caller left
// them zeroed.
func (s *Store) Hydrate(ctx context.Context, profile *models.PlayerProfile) error {
	zero := models.Ratings{}
	if profile.Ratings != zero {
		return nil
	}
	stored, err := s.Get(ctx, profile.ID)
	if err != nil {
		return err
	}
	profile.Ratings = stored.Ratings
	return nil
}

func blend(current, observed, k float64) float64 {
	next := current + k*(observed-current)
	if next < 0 {
		return 0
	}
	if next > 10 {
		return 10
	}
	return next
}
