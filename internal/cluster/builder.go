package cluster

import (
	"fmt"
	"sort"
)

// Strategy selects the partitioning algorithm.
type Strategy string

const (
	// StrategyBounded is seeded greedy growth with a size cap and
	// recursive splitting. Single-link against the seed and therefore
	// order-dependent for borderline pairs: changing input order can move
	// a story to a different cluster. That is an accepted property of the
	// algorithm, not a defect; callers that need order independence use
	// StrategyComponents.
	StrategyBounded Strategy = "bounded"
	// StrategyComponents is union-find connected components over the
	// thresholded similarity graph: two stories share a cluster iff a
	// chain of above-threshold edges connects them.
	StrategyComponents Strategy = "components"
)

// splitThresholdStep is added to the threshold on every recursive split of
// an oversized cluster. Fixed pending validation of a density-derived
// offset.
const splitThresholdStep = 0.1

// DefaultMaxSize bounds cluster growth unless configured otherwise.
const DefaultMaxSize = 15

// ScoreFunc returns the similarity for a story index pair. It must be
// symmetric; Build only asks for i < j.
type ScoreFunc func(i, j int) float64

// Options configures a Build call.
type Options struct {
	Threshold float64
	// MaxSize caps cluster membership; <= 0 means unbounded.
	MaxSize  int
	Strategy Strategy
}

// Validate rejects configurations before any clustering work begins.
func (o Options) Validate() error {
	if o.Threshold < 0 || o.Threshold > 1 {
		return fmt.Errorf("similarity threshold %v outside [0,1]", o.Threshold)
	}
	switch o.Strategy {
	case StrategyBounded, StrategyComponents, "":
	default:
		return fmt.Errorf("unknown cluster strategy %q", o.Strategy)
	}
	return nil
}

// Build partitions story indices [0,n) into clusters. Every index lands in
// exactly one cluster; a story with no sufficiently similar peer becomes a
// singleton. Clusters are returned largest first, members in input order.
func Build(n int, score ScoreFunc, opts Options) ([][]int, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if n == 0 {
		return [][]int{}, nil
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	strategy := opts.Strategy
	if strategy == "" {
		strategy = StrategyBounded
	}

	var partition [][]int
	switch strategy {
	case StrategyComponents:
		partition = connectedComponents(indices, score, opts.Threshold)
	default:
		partition = growClusters(indices, score, opts.Threshold, opts.MaxSize)
	}

	if opts.MaxSize > 0 {
		partition = splitOversized(partition, score, opts.Threshold+splitThresholdStep, opts.MaxSize)
	}

	sortBySizeDesc(partition)
	return partition, nil
}

// growClusters is the seeded pass: the next unassigned story seeds a
// cluster, then every later unassigned story scoring at or above the
// threshold against that seed joins until the cluster is full.
func growClusters(indices []int, score ScoreFunc, threshold float64, maxSize int) [][]int {
	assigned := make(map[int]struct{}, len(indices))
	clusters := make([][]int, 0, len(indices))

	for i, seed := range indices {
		if _, ok := assigned[seed]; ok {
			continue
		}
		members := []int{seed}
		assigned[seed] = struct{}{}

		for _, candidate := range indices[i+1:] {
			if _, ok := assigned[candidate]; ok {
				continue
			}
			if maxSize > 0 && len(members) >= maxSize {
				break
			}
			if pairScore(score, seed, candidate) >= threshold {
				members = append(members, candidate)
				assigned[candidate] = struct{}{}
			}
		}
		clusters = append(clusters, members)
	}
	return clusters
}

// splitOversized re-runs seeded growth on any cluster above the bound, with
// a raised threshold, recursively, until every fragment fits.
func splitOversized(partition [][]int, score ScoreFunc, threshold float64, maxSize int) [][]int {
	refined := make([][]int, 0, len(partition))
	for _, members := range partition {
		if len(members) <= maxSize {
			refined = append(refined, members)
			continue
		}
		fragments := growClusters(members, score, threshold, maxSize)
		refined = append(refined, splitOversized(fragments, score, threshold+splitThresholdStep, maxSize)...)
	}
	return refined
}

func connectedComponents(indices []int, score ScoreFunc, threshold float64) [][]int {
	uf := newUnionFind(len(indices))
	for i := 0; i < len(indices); i++ {
		for j := i + 1; j < len(indices); j++ {
			if pairScore(score, indices[i], indices[j]) >= threshold {
				uf.union(i, j)
			}
		}
	}

	componentOf := make(map[int][]int)
	order := make([]int, 0, len(indices))
	for i, idx := range indices {
		root := uf.find(i)
		if _, ok := componentOf[root]; !ok {
			order = append(order, root)
		}
		componentOf[root] = append(componentOf[root], idx)
	}

	partition := make([][]int, 0, len(order))
	for _, root := range order {
		partition = append(partition, componentOf[root])
	}
	return partition
}

// pairScore normalizes argument order so ScoreFunc implementations backed by
// a triangular matrix only ever see i < j.
func pairScore(score ScoreFunc, a, b int) float64 {
	if a > b {
		a, b = b, a
	}
	return score(a, b)
}

func sortBySizeDesc(partition [][]int) {
	sort.SliceStable(partition, func(i, j int) bool {
		return len(partition[i]) > len(partition[j])
	})
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}
