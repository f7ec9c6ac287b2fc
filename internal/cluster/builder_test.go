package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chainScore links consecutive indices: score(i, i+1) = 0.9, all other
// pairs 0. Under connected components the whole chain is one cluster.
func chainScore(i, j int) float64 {
	if j == i+1 {
		return 0.9
	}
	return 0
}

func assertPartition(t *testing.T, partition [][]int, n int) {
	t.Helper()
	seen := make(map[int]int)
	for _, members := range partition {
		require.NotEmpty(t, members, "empty cluster in partition")
		for _, idx := range members {
			seen[idx]++
		}
	}
	require.Len(t, seen, n, "partition must cover every story")
	for idx, count := range seen {
		require.Equalf(t, 1, count, "story %d assigned %d times", idx, count)
	}
}

func TestBuild_PartitionInvariant(t *testing.T) {
	t.Parallel()

	for _, strategy := range []Strategy{StrategyBounded, StrategyComponents} {
		partition, err := Build(10, chainScore, Options{Threshold: 0.3, MaxSize: 4, Strategy: strategy})
		require.NoError(t, err)
		assertPartition(t, partition, 10)
	}
}

func TestBuild_SizeBound(t *testing.T) {
	t.Parallel()

	// Everything is similar to everything: unbounded this would be one
	// cluster of 20.
	allSimilar := func(i, j int) float64 { return 0.9 }

	partition, err := Build(20, allSimilar, Options{Threshold: 0.3, MaxSize: 6, Strategy: StrategyBounded})
	require.NoError(t, err)
	assertPartition(t, partition, 20)
	for _, members := range partition {
		assert.LessOrEqual(t, len(members), 6)
	}
}

func TestBuild_ComponentsUnbounded(t *testing.T) {
	t.Parallel()

	partition, err := Build(8, chainScore, Options{Threshold: 0.3, Strategy: StrategyComponents})
	require.NoError(t, err)
	require.Len(t, partition, 1, "a fully chained graph is one component")
	assertPartition(t, partition, 8)
}

func TestBuild_ComponentsWithBoundGetSplit(t *testing.T) {
	t.Parallel()

	// The chain is one 8-story component but every edge is exactly at
	// the base threshold, so the split pass at threshold+0.1 breaks it
	// into singletons that all satisfy the bound.
	weakChain := func(i, j int) float64 {
		if j == i+1 {
			return 0.3
		}
		return 0
	}

	partition, err := Build(8, weakChain, Options{Threshold: 0.3, MaxSize: 3, Strategy: StrategyComponents})
	require.NoError(t, err)
	assertPartition(t, partition, 8)
	for _, members := range partition {
		assert.LessOrEqual(t, len(members), 3)
	}
}

func TestBuild_SingletonsForDissimilarStories(t *testing.T) {
	t.Parallel()

	noScore := func(i, j int) float64 { return 0 }
	partition, err := Build(5, noScore, Options{Threshold: 0.3, MaxSize: 15, Strategy: StrategyBounded})
	require.NoError(t, err)
	require.Len(t, partition, 5)
	assertPartition(t, partition, 5)
}

func TestBuild_EmptyInput(t *testing.T) {
	t.Parallel()

	partition, err := Build(0, chainScore, Options{Threshold: 0.3, MaxSize: 15})
	require.NoError(t, err)
	assert.Empty(t, partition)
}

func TestBuild_SortedBySizeDesc(t *testing.T) {
	t.Parallel()

	// Indices 0..3 form one similar block, the rest are singletons.
	blockScore := func(i, j int) float64 {
		if i < 4 && j < 4 {
			return 0.9
		}
		return 0
	}

	partition, err := Build(7, blockScore, Options{Threshold: 0.3, MaxSize: 15, Strategy: StrategyBounded})
	require.NoError(t, err)
	for i := 1; i < len(partition); i++ {
		assert.GreaterOrEqual(t, len(partition[i-1]), len(partition[i]))
	}
	assert.Len(t, partition[0], 4)
}

func TestBuild_Deterministic(t *testing.T) {
	t.Parallel()

	opts := Options{Threshold: 0.3, MaxSize: 4, Strategy: StrategyBounded}
	first, err := Build(12, chainScore, opts)
	require.NoError(t, err)
	second, err := Build(12, chainScore, opts)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestOptions_Validate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"valid defaults", Options{Threshold: 0.3, MaxSize: 15}, false},
		{"unbounded", Options{Threshold: 0.5, MaxSize: 0, Strategy: StrategyComponents}, false},
		{"threshold too low", Options{Threshold: -0.1}, true},
		{"threshold too high", Options{Threshold: 1.1}, true},
		{"unknown strategy", Options{Threshold: 0.3, Strategy: "kmeans"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.opts.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
