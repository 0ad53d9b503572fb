package matching

import (
	"fmt"
	"sort"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Strategy selects how pairwise matches are clustered into groups
type Strategy string

const (
	// StrategyGreedy claims clusters in list order: the first unclaimed client seeds a
	// group with every unclaimed client that matches it directly
	StrategyGreedy Strategy = "greedy"
	// StrategyTransitive groups the connected components of the match graph
	StrategyTransitive Strategy = "transitive"
)

// ParseStrategy converts a configuration value into a Strategy
func ParseStrategy(value string) (Strategy, error) {
	switch Strategy(value) {
	case "", StrategyGreedy:
		return StrategyGreedy, nil
	case StrategyTransitive:
		return StrategyTransitive, nil
	default:
		return "", fmt.Errorf("unknown detection strategy %q", value)
	}
}

// Detector finds duplicate groups in a client list
type Detector struct {
	scorer   *SimilarityScorer
	strategy Strategy
}

// NewDetector creates a new Detector
func NewDetector(scorer *SimilarityScorer, strategy Strategy) *Detector {
	if scorer == nil {
		scorer = NewSimilarityScorer()
	}
	if strategy == "" {
		strategy = StrategyGreedy
	}
	return &Detector{
		scorer:   scorer,
		strategy: strategy,
	}
}

// Strategy returns the clustering strategy in use
func (d *Detector) Strategy() Strategy {
	return d.strategy
}

// Detect scores every pair of clients and returns the duplicate groups ranked by
// confidence tier, then score. No client appears in more than one group.
func (d *Detector) Detect(clients []models.Client) []models.DuplicateGroup {
	normalized := make([]normalizedClient, len(clients))
	for i, c := range clients {
		normalized[i] = d.scorer.normalize(c)
	}

	pair := func(i, j int) models.SimilarityDetail {
		return d.scorer.score(clients[i].ID, clients[j].ID, normalized[i], normalized[j])
	}

	var groups []models.DuplicateGroup
	switch d.strategy {
	case StrategyTransitive:
		groups = detectTransitive(clients, pair)
	default:
		groups = detectGreedy(clients, pair)
	}

	SortGroups(groups)
	return groups
}

func detectGreedy(clients []models.Client, pair func(i, j int) models.SimilarityDetail) []models.DuplicateGroup {
	groups := make([]models.DuplicateGroup, 0)
	claimed := make(map[int]bool, len(clients))

	for i := range clients {
		if claimed[i] {
			continue
		}

		members := []int{i}
		seedDetails := make([]models.SimilarityDetail, 0)
		for j := range clients {
			if j == i || claimed[j] {
				continue
			}
			detail := pair(i, j)
			if !IsDuplicate(detail) {
				continue
			}
			members = append(members, j)
			seedDetails = append(seedDetails, detail)
		}

		if len(members) < 2 {
			continue
		}

		for _, m := range members {
			claimed[m] = true
		}

		known := make(map[[2]int]models.SimilarityDetail, len(seedDetails))
		for k, detail := range seedDetails {
			known[[2]int{i, members[k+1]}] = detail
		}

		groups = append(groups, buildGroup(clients, members, seedDetails, known, pair))
	}

	return groups
}

func detectTransitive(clients []models.Client, pair func(i, j int) models.SimilarityDetail) []models.DuplicateGroup {
	uf := newUnionFind(len(clients))
	// only matching edges are kept; other member pairs are rescored by buildGroup
	known := make(map[[2]int]models.SimilarityDetail)

	for i := range clients {
		for j := i + 1; j < len(clients); j++ {
			detail := pair(i, j)
			if IsDuplicate(detail) {
				known[[2]int{i, j}] = detail
				uf.union(i, j)
			}
		}
	}

	components := make(map[int][]int)
	roots := make([]int, 0)
	for i := range clients {
		root := uf.find(i)
		if _, ok := components[root]; !ok {
			roots = append(roots, root)
		}
		components[root] = append(components[root], i)
	}

	groups := make([]models.DuplicateGroup, 0)
	for _, root := range roots {
		members := components[root]
		if len(members) < 2 {
			continue
		}

		edges := make([]models.SimilarityDetail, 0)
		for a := 0; a < len(members); a++ {
			for b := a + 1; b < len(members); b++ {
				if detail, ok := known[[2]int{members[a], members[b]}]; ok {
					edges = append(edges, detail)
				}
			}
		}

		groups = append(groups, buildGroup(clients, members, edges, known, pair))
	}

	return groups
}

// buildGroup assembles a group from member indexes. Aggregate confidence and score come
// from the highest-scoring matching pair; similarity details cover every pair of members.
func buildGroup(
	clients []models.Client,
	members []int,
	matches []models.SimilarityDetail,
	known map[[2]int]models.SimilarityDetail,
	pair func(i, j int) models.SimilarityDetail,
) models.DuplicateGroup {
	group := models.DuplicateGroup{
		ID:         clients[members[0]].ID,
		Clients:    make([]models.Client, 0, len(members)),
		Confidence: models.ConfidenceLow,
	}

	for _, m := range members {
		group.Clients = append(group.Clients, clients[m])
	}

	if best, ok := highestScoring(matches); ok {
		group.Confidence = best.Confidence
		group.Score = best.Score
	}

	for a := 0; a < len(members); a++ {
		for b := a + 1; b < len(members); b++ {
			detail, ok := known[[2]int{members[a], members[b]}]
			if !ok {
				detail, ok = known[[2]int{members[b], members[a]}]
			}
			if !ok {
				detail = pair(members[a], members[b])
			}
			group.SimilarityDetails = append(group.SimilarityDetails, detail)
		}
	}

	return group
}

// highestScoring picks the match with the top score; equal scores prefer the higher tier
func highestScoring(matches []models.SimilarityDetail) (models.SimilarityDetail, bool) {
	if len(matches) == 0 {
		return models.SimilarityDetail{}, false
	}
	best := matches[0]
	for _, detail := range matches[1:] {
		if detail.Score > best.Score ||
			(detail.Score == best.Score && detail.Confidence.Rank() > best.Confidence.Rank()) {
			best = detail
		}
	}
	return best, true
}

// SortGroups orders groups by confidence tier descending, then score descending.
// Ties keep their detection order.
func SortGroups(groups []models.DuplicateGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		ri, rj := groups[i].Confidence.Rank(), groups[j].Confidence.Rank()
		if ri != rj {
			return ri > rj
		}
		return groups[i].Score > groups[j].Score
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

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = rb
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = ra
	default:
		u.parent[rb] = ra
		u.rank[ra]++
	}
}
