// Package pool implements weighted collections of exercises: a recursive
// tree of definitions and sub-pools with per-item weights, a navigation
// mode, optional random selection and shuffling, and weight-scaled score
// aggregation.
package pool

import (
	"math/rand/v2"
	"slices"

	"github.com/moritz-zoellner/pyrope/internal/exercise"
)

// Navigation is the traversal mode of a pool.
type Navigation string

const (
	// NavigationFree lets clients present the exposed items in any
	// order.
	NavigationFree Navigation = "free"

	// NavigationSequential fixes traversal to child index order.
	NavigationSequential Navigation = "sequential"
)

// Item is one child of a pool: either a definition or a sub-pool.
type Item struct {
	Exercise *exercise.Definition
	Sub      *Pool
}

// IsPool reports whether the item is a sub-pool.
func (it Item) IsPool() bool { return it.Sub != nil }

// Pool is a weighted collection node.
type Pool struct {
	Title string
	Items []Item

	// Weights maps child index to a non-negative weight; unlisted
	// indices weigh 1.
	Weights map[int]float64

	Navigation Navigation

	// Select limits how many children are exposed; 0 exposes all. When
	// fewer than all children are exposed they are chosen by weighted
	// sampling without replacement.
	Select int

	// Shuffle permutes the exposed order. It only applies in free
	// navigation; sequential pools keep index order.
	Shuffle bool
}

// New creates an empty pool with free navigation.
func New(title string) *Pool {
	return &Pool{Title: title, Navigation: NavigationFree}
}

// Add appends an exercise definition.
func (p *Pool) Add(def *exercise.Definition) {
	p.Items = append(p.Items, Item{Exercise: def})
}

// AddPool appends a sub-pool.
func (p *Pool) AddPool(sub *Pool) {
	p.Items = append(p.Items, Item{Sub: sub})
}

// Len returns the number of children.
func (p *Pool) Len() int { return len(p.Items) }

// Weight returns the weight of the child at index i, defaulting to 1.
func (p *Pool) Weight(i int) float64 {
	if w, ok := p.Weights[i]; ok {
		return w
	}
	return 1.0
}

// Validate checks weights and navigation recursively.
func (p *Pool) Validate() error {
	if p.Navigation != NavigationFree && p.Navigation != NavigationSequential {
		return exercise.ConfigErr("pool %q: unknown navigation mode %q", p.Title, p.Navigation)
	}
	for i, w := range p.Weights {
		if i < 0 || i >= len(p.Items) {
			return exercise.ConfigErr("pool %q: weight index %d out of range", p.Title, i)
		}
		if w < 0 {
			return exercise.ConfigErr("pool %q: weight for index %d must be non-negative, got %v", p.Title, i, w)
		}
	}
	if p.Select < 0 || p.Select > len(p.Items) {
		return exercise.ConfigErr("pool %q: select %d out of range", p.Title, p.Select)
	}
	for _, it := range p.Items {
		if it.IsPool() {
			if err := it.Sub.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Exposed returns the child indices a traversal presents. With Select
// set below the child count, children are drawn by weighted sampling
// without replacement; otherwise all indices are exposed. Shuffling
// permutes the order independently of weights, in free navigation only.
// A nil rng uses the shared source.
func (p *Pool) Exposed(rng *rand.Rand) []int {
	var indices []int
	if p.Select > 0 && p.Select < len(p.Items) {
		weights := make([]float64, len(p.Items))
		for i := range p.Items {
			weights[i] = p.Weight(i)
		}
		indices = SampleWithoutReplacement(weights, p.Select, rng)
	} else {
		indices = make([]int, len(p.Items))
		for i := range indices {
			indices[i] = i
		}
	}

	if p.Navigation == NavigationSequential {
		// Sequential traversal keeps index order even for sampled
		// subsets.
		slices.Sort(indices)
		return indices
	}
	if p.Shuffle {
		shuffleInts(indices, rng)
	}
	return indices
}

// SampleWithoutReplacement draws k distinct indices; at each draw the
// probability of index i is weights[i] divided by the sum of the
// remaining weights. Weights need not sum to 1. Zero-weight indices are
// only drawn once all positive weights are exhausted.
func SampleWithoutReplacement(weights []float64, k int, rng *rand.Rand) []int {
	if k > len(weights) {
		k = len(weights)
	}
	remaining := make([]int, len(weights))
	for i := range remaining {
		remaining[i] = i
	}
	picked := make([]int, 0, k)
	for len(picked) < k {
		sum := 0.0
		for _, i := range remaining {
			sum += weights[i]
		}
		var choice int
		if sum <= 0 {
			choice = intN(rng, len(remaining))
		} else {
			r := randFloat(rng) * sum
			choice = len(remaining) - 1
			for j, i := range remaining {
				r -= weights[i]
				if r < 0 {
					choice = j
					break
				}
			}
		}
		picked = append(picked, remaining[choice])
		remaining = append(remaining[:choice], remaining[choice+1:]...)
	}
	return picked
}

func randFloat(rng *rand.Rand) float64 {
	if rng != nil {
		return rng.Float64()
	}
	return rand.Float64()
}

func intN(rng *rand.Rand, n int) int {
	if rng != nil {
		return rng.IntN(n)
	}
	return rand.IntN(n)
}

func shuffleInts(s []int, rng *rand.Rand) {
	swap := func(i, j int) { s[i], s[j] = s[j], s[i] }
	if rng != nil {
		rng.Shuffle(len(s), swap)
	} else {
		rand.Shuffle(len(s), swap)
	}
}

// WeightedExercise is a leaf of the flattened tree with its effective
// weight (the product of the weights along its path).
type WeightedExercise struct {
	Definition *exercise.Definition
	Weight     float64
}

// Flatten lists every leaf definition with its effective weight.
func (p *Pool) Flatten() []WeightedExercise {
	return p.flatten(1.0)
}

func (p *Pool) flatten(base float64) []WeightedExercise {
	var out []WeightedExercise
	for i, it := range p.Items {
		w := p.Weight(i) * base
		if it.IsPool() {
			out = append(out, it.Sub.flatten(w)...)
			continue
		}
		out = append(out, WeightedExercise{Definition: it.Exercise, Weight: w})
	}
	return out
}

// Outcome is one finished attempt's scores, keyed by definition in
// Aggregate.
type Outcome struct {
	Total    float64
	MaxTotal float64
}

// Aggregate computes the weight-scaled total and maximum score over the
// tree, recursively, matching the engine's per-field weighting rule.
// Definitions without an outcome contribute nothing.
func (p *Pool) Aggregate(outcomes map[*exercise.Definition]Outcome) Outcome {
	var agg Outcome
	for i, it := range p.Items {
		w := p.Weight(i)
		if it.IsPool() {
			sub := it.Sub.Aggregate(outcomes)
			agg.Total += w * sub.Total
			agg.MaxTotal += w * sub.MaxTotal
			continue
		}
		if o, ok := outcomes[it.Exercise]; ok {
			agg.Total += w * o.Total
			agg.MaxTotal += w * o.MaxTotal
		}
	}
	return agg
}
