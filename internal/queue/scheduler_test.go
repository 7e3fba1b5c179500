package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partymatch/internal/grouping"
	"partymatch/internal/metrics"
	"partymatch/internal/models"
	"partymatch/internal/profiles"
	"partymatch/internal/sessions"
)

func setupTestRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

type testEnv struct {
	scheduler *Scheduler
	manager   *sessions.Manager
	store     *profiles.Store
}

// newTestEnv wires a scheduler against miniredis with an injectable
// pairwise score.
func newTestEnv(t *testing.T, score profiles.ScoreFunc, opts Options) *testEnv {
	client := setupTestRedis(t)

	store := profiles.NewStore(score, nil)
	finder := grouping.NewFinder(store, opts.GroupSize, 0, nil)
	manager := sessions.NewManager(nil, nil, nil)
	m := metrics.New(prometheus.NewRegistry())

	if opts.JWTSecret == nil {
		opts.JWTSecret = []byte("test-secret")
	}
	scheduler := NewScheduler(context.Background(), client, store, finder, manager, nil, nil, m, nil, opts)
	t.Cleanup(scheduler.Stop)

	return &testEnv{scheduler: scheduler, manager: manager, store: store}
}

func joinReq(id, mode string) *models.JoinQueueReq {
	return &models.JoinQueueReq{
		UserID:   id,
		Name:     "Player " + id,
		Criteria: models.MatchCriteria{Mode: mode},
	}
}

func TestJoinAndCheck(t *testing.T) {
	env := newTestEnv(t, func(a, b *models.PlayerProfile) float64 { return 0 }, Options{})

	require.NoError(t, env.scheduler.Join(context.Background(), joinReq("u1", models.ModeAIDMRandom)))

	resp, err := env.scheduler.Check(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, resp.Queued)
	assert.False(t, resp.Matched)
}

func TestJoinRequiresUserID(t *testing.T) {
	env := newTestEnv(t, func(a, b *models.PlayerProfile) float64 { return 0 }, Options{})

	err := env.scheduler.Join(context.Background(), &models.JoinQueueReq{})
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))
}

func TestLeaveRemovesPlayer(t *testing.T) {
	env := newTestEnv(t, func(a, b *models.PlayerProfile) float64 { return 0 }, Options{})

	require.NoError(t, env.scheduler.Join(context.Background(), joinReq("u1", models.ModeAIDMRandom)))
	require.NoError(t, env.scheduler.Leave(context.Background(), "u1"))

	resp, err := env.scheduler.Check(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, resp.Queued)
	assert.False(t, resp.Matched)
}

func TestLeaveUnknownPlayerIsNoop(t *testing.T) {
	env := newTestEnv(t, func(a, b *models.PlayerProfile) float64 { return 0 }, Options{})
	assert.NoError(t, env.scheduler.Leave(context.Background(), "ghost"))
}

func TestTickMatchesArrivalOrder(t *testing.T) {
	env := newTestEnv(t, func(a, b *models.PlayerProfile) float64 { return 0 }, Options{})

	for _, id := range []string{"u1", "u2", "u3"} {
		require.NoError(t, env.scheduler.Join(context.Background(), joinReq(id, models.ModeAIDMRandom)))
	}
	env.scheduler.Tick(context.Background())

	resp, err := env.scheduler.Check(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, resp.Matched)
	require.NotNil(t, resp.Match)
	assert.Equal(t, []string{"u1", "u2", "u3"}, resp.Match.Players)
	assert.Equal(t, models.ModeAIDMRandom, resp.Match.Mode)
	assert.NotEmpty(t, resp.Match.Token)

	session, err := env.manager.Session(resp.Match.SessionID)
	require.NoError(t, err)
	assert.Len(t, session.Players, 3)
	assert.True(t, session.Players[0].IsHost)
	assert.Equal(t, "u1", session.Players[0].ID)
}

func TestTickKeepsModesSeparate(t *testing.T) {
	env := newTestEnv(t, func(a, b *models.PlayerProfile) float64 { return 0 }, Options{})

	require.NoError(t, env.scheduler.Join(context.Background(), joinReq("u1", models.ModeAIDMRandom)))
	require.NoError(t, env.scheduler.Join(context.Background(), joinReq("u2", models.ModeAIDMFriends)))
	env.scheduler.Tick(context.Background())

	for _, id := range []string{"u1", "u2"} {
		resp, err := env.scheduler.Check(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, resp.Queued, id)
		assert.False(t, resp.Matched, id)
	}
}

func TestTickSinglePlayerWaits(t *testing.T) {
	env := newTestEnv(t, func(a, b *models.PlayerProfile) float64 { return 0 }, Options{})

	require.NoError(t, env.scheduler.Join(context.Background(), joinReq("u1", models.ModeAIDMRandom)))
	env.scheduler.Tick(context.Background())

	resp, err := env.scheduler.Check(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, resp.Queued)
	assert.False(t, resp.Matched)
}

func TestTickScoredGroup(t *testing.T) {
	env := newTestEnv(t, func(a, b *models.PlayerProfile) float64 { return 0.9 }, Options{GroupSize: 4})

	for _, id := range []string{"u1", "u2", "u3", "u4"} {
		req := joinReq(id, models.ModeAIDMRandom)
		req.Profile = &models.PlayerProfile{ID: id, Region: "NA"}
		require.NoError(t, env.scheduler.Join(context.Background(), req))
	}
	env.scheduler.Tick(context.Background())

	resp, err := env.scheduler.Check(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, resp.Matched)
	assert.InDelta(t, 0.9, resp.Match.Quality, 1e-9)
	assert.Len(t, resp.Match.Players, 4)
	assert.Equal(t, 0, env.store.Size())
}

func TestTickScoredGroupBelowThresholdWaits(t *testing.T) {
	env := newTestEnv(t, func(a, b *models.PlayerProfile) float64 { return 0.3 }, Options{GroupSize: 4})

	for _, id := range []string{"u1", "u2", "u3", "u4"} {
		req := joinReq(id, models.ModeAIDMRandom)
		req.Profile = &models.PlayerProfile{ID: id, Region: "NA"}
		require.NoError(t, env.scheduler.Join(context.Background(), req))
	}
	env.scheduler.Tick(context.Background())

	resp, err := env.scheduler.Check(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, resp.Queued)
	assert.False(t, resp.Matched)
	assert.Equal(t, 4, env.store.Size())
}

func TestJoinRejectsUnknownMode(t *testing.T) {
	env := newTestEnv(t, func(a, b *models.PlayerProfile) float64 { return 0 }, Options{})

	err := env.scheduler.Join(context.Background(), joinReq("u1", "battle-royale"))
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))

	resp, err := env.scheduler.Check(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, resp.Queued)
}

func TestTickScoredGroupsStayWithinMode(t *testing.T) {
	env := newTestEnv(t, func(a, b *models.PlayerProfile) float64 { return 0.9 }, Options{GroupSize: 2})

	for id, mode := range map[string]string{
		"u1": models.ModeAIDMRandom, "u2": models.ModeAIDMRandom,
		"u3": models.ModeAIDMFriends, "u4": models.ModeAIDMFriends,
	} {
		req := joinReq(id, mode)
		req.Profile = &models.PlayerProfile{ID: id, Region: "NA"}
		require.NoError(t, env.scheduler.Join(context.Background(), req))
	}
	env.scheduler.Tick(context.Background())

	seen := make(map[string]int)
	for _, id := range []string{"u1", "u2", "u3", "u4"} {
		resp, err := env.scheduler.Check(context.Background(), id)
		require.NoError(t, err)
		require.True(t, resp.Matched, id)
		for _, member := range resp.Match.Players {
			if member == id {
				seen[id]++
			}
		}
		switch id {
		case "u1", "u2":
			assert.Equal(t, models.ModeAIDMRandom, resp.Match.Mode)
			assert.ElementsMatch(t, []string{"u1", "u2"}, resp.Match.Players)
		case "u3", "u4":
			assert.Equal(t, models.ModeAIDMFriends, resp.Match.Mode)
			assert.ElementsMatch(t, []string{"u3", "u4"}, resp.Match.Players)
		}
	}
	// Nobody seated twice.
	for id, count := range seen {
		assert.Equal(t, 1, count, id)
	}
}

func TestTickNeverMixesModesInScoredGroup(t *testing.T) {
	env := newTestEnv(t, func(a, b *models.PlayerProfile) float64 { return 0.9 }, Options{GroupSize: 4})

	for id, mode := range map[string]string{
		"u1": models.ModeAIDMRandom, "u2": models.ModeAIDMRandom,
		"u3": models.ModeAIDMFriends, "u4": models.ModeAIDMFriends,
	} {
		req := joinReq(id, mode)
		req.Profile = &models.PlayerProfile{ID: id, Region: "NA"}
		require.NoError(t, env.scheduler.Join(context.Background(), req))
	}
	env.scheduler.Tick(context.Background())

	// Four high-scoring players across two modes never reach the group
	// size within either mode: everyone keeps waiting.
	for _, id := range []string{"u1", "u2", "u3", "u4"} {
		resp, err := env.scheduler.Check(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, resp.Queued, id)
		assert.False(t, resp.Matched, id)
	}
	assert.Equal(t, 4, env.store.Size())
}

func TestTickTerminatesWhenGroupCannotBeFullySeated(t *testing.T) {
	// Group size above the mode's session capacity: the overflow gets
	// re-queued and the tick must still return.
	env := newTestEnv(t, func(a, b *models.PlayerProfile) float64 { return 0.9 }, Options{GroupSize: 6})

	for _, id := range []string{"u1", "u2", "u3", "u4", "u5", "u6"} {
		req := joinReq(id, models.ModeAIDMRandom)
		req.Profile = &models.PlayerProfile{ID: id, Region: "NA"}
		require.NoError(t, env.scheduler.Join(context.Background(), req))
	}

	done := make(chan struct{})
	go func() {
		env.scheduler.Tick(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("tick did not terminate with an unseatable group")
	}

	resp, err := env.scheduler.Check(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, resp.Matched)
	assert.Len(t, resp.Match.Players, 4)

	// The overflow players are queued again, not lost.
	for _, id := range []string{"u5", "u6"} {
		resp, err := env.scheduler.Check(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, resp.Queued, id)
		assert.False(t, resp.Matched, id)
	}
}

func TestCheckEchoesQueueEntry(t *testing.T) {
	env := newTestEnv(t, func(a, b *models.PlayerProfile) float64 { return 0 }, Options{})

	req := joinReq("u1", models.ModeAIDMRandom)
	req.Criteria.Level = 3
	req.Criteria.Region = "EU"
	req.Criteria.Language = "de"
	require.NoError(t, env.scheduler.Join(context.Background(), req))

	resp, err := env.scheduler.Check(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, resp.Queued)
	require.NotNil(t, resp.Entry)
	assert.Equal(t, "u1", resp.Entry.ID)
	assert.Equal(t, "Player u1", resp.Entry.Name)
	assert.Equal(t, models.MatchCriteria{
		Mode: models.ModeAIDMRandom, Level: 3, Region: "EU", Language: "de",
	}, resp.Entry.Criteria)
	assert.Positive(t, resp.Entry.Timestamp)
}

func TestRequeueRestoresPlayers(t *testing.T) {
	env := newTestEnv(t, func(a, b *models.PlayerProfile) float64 { return 0.9 }, Options{})

	req := joinReq("u1", models.ModeAIDMRandom)
	req.Profile = &models.PlayerProfile{ID: "u1", Region: "NA"}
	require.NoError(t, env.scheduler.Join(context.Background(), req))
	require.NoError(t, env.scheduler.Leave(context.Background(), "u1"))

	env.scheduler.requeue(context.Background(), models.ModeAIDMRandom, []string{"u1"}, map[string]string{"u1": "Player u1"})

	resp, err := env.scheduler.Check(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, resp.Queued)
}

func TestSchedulerLifecycle(t *testing.T) {
	env := newTestEnv(t, func(a, b *models.PlayerProfile) float64 { return 0 }, Options{Interval: 20 * time.Millisecond})

	assert.False(t, env.scheduler.Running())

	require.NoError(t, env.scheduler.Join(context.Background(), joinReq("u1", models.ModeAIDMRandom)))
	assert.True(t, env.scheduler.Running())

	require.NoError(t, env.scheduler.Leave(context.Background(), "u1"))
	assert.Eventually(t, func() bool {
		return !env.scheduler.Running()
	}, 2*time.Second, 10*time.Millisecond, "loop should stop once the queue drains")

	// A fresh join restarts the loop.
	require.NoError(t, env.scheduler.Join(context.Background(), joinReq("u2", models.ModeAIDMRandom)))
	assert.True(t, env.scheduler.Running())
}
