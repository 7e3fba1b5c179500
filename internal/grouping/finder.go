package grouping

import (
	"go.uber.org/zap"

	"partymatch/internal/profiles"
)

const (
	DefaultGroupSize        = 4
	DefaultQualityThreshold = 0.6
)

// Finder selects high-quality groups from the waiting pool. It scans
// contiguous windows over the pool's arrival ordering rather than all
// subsets; one pass is linear in the pool size.
type Finder struct {
	store     *profiles.Store
	size      int
	threshold float64
	logger    *zap.Logger
}

func NewFinder(store *profiles.Store, size int, threshold float64, logger *zap.Logger) *Finder {
	if size <= 0 {
		size = DefaultGroupSize
	}
	if threshold <= 0 {
		threshold = DefaultQualityThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Finder{store: store, size: size, threshold: threshold, logger: logger}
}

// FindGroup returns the best window exceeding the quality threshold and
// removes its members from the pool, or nil with the score it rejected.
// A pool smaller than the group size is a negative result, not an error.
func (f *Finder) FindGroup() ([]string, float64) {
	return f.FindGroupAmong(f.store.Waiting())
}

// FindGroupAmong runs the window search over the given candidate ids
// only, in the order supplied. Callers use it to restrict matching to
// one bucket of the pool.
func (f *Finder) FindGroupAmong(candidates []string) ([]string, float64) {
	if len(candidates) < f.size {
		return nil, 0
	}

	var bestGroup []string
	bestScore := -1.0

	for i := 0; i+f.size <= len(candidates); i++ {
		window := candidates[i : i+f.size]
		score := f.groupCompatibility(window)
		if score > bestScore {
			bestScore = score
			bestGroup = window
		}
	}

	if bestScore <= f.threshold {
		f.logger.Debug("no window cleared quality threshold",
			zap.Float64("best", bestScore),
			zap.Float64("threshold", f.threshold))
		return nil, bestScore
	}

	group := make([]string, f.size)
	copy(group, bestGroup)
	f.store.RemoveGroup(group)

	return group, bestScore
}

// FindOptimalMatches repeatedly slices qualifying groups off the pool
// until it is too small or nothing clears the threshold.
func (f *Finder) FindOptimalMatches() [][]string {
	var matches [][]string
	for f.store.Size() >= f.size {
		group, _ := f.FindGroup()
		if group == nil {
			break
		}
		matches = append(matches, group)
	}
	return matches
}

// groupCompatibility is the mean pairwise quality over all pairs in the
// window; unscored pairs count as zero.
func (f *Finder) groupCompatibility(group []string) float64 {
	total := 0.0
	pairs := 0
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			total += f.store.Quality(group[i], group[j])
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return total / float64(pairs)
}
