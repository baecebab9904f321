package geo

import (
	"math"
	"math/rand/v2"
	"sort"
	"time"
)

// Source picks seed indexes for KMeans. *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

// EmptyPolicy controls what KMeans does with a cluster that received no
// points in an assignment step.
type EmptyPolicy int

const (
	// EmptyReseed moves the empty cluster onto the point that is farthest
	// from its current centroid, taken from a cluster with more than one member.
	EmptyReseed EmptyPolicy = iota

	// EmptyLegacy leaves the cluster empty and moves its centroid to the
	// centroid of no points, (0, 0). Kept for compatibility with older output.
	EmptyLegacy
)

// String implements fmt.Stringer.
func (p EmptyPolicy) String() string {
	if p == EmptyLegacy {
		return "legacy"
	}

	return "reseed"
}

// Cluster is a group of input points around a centroid.
// Points are pointers into the slice given to KMeans, in input order, and
// are only valid while that slice is.
type Cluster[P LatLng] struct {
	Points   []*P       `json:"points"`
	Centroid Coordinate `json:"centroid"`
}

// Len returns the member count.
func (c Cluster[P]) Len() int { return len(c.Points) }

type options struct {
	source  Source
	epsilon float64
	empty   EmptyPolicy
}

// Option tunes KMeans.
type Option func(*options)

// WithSource sets the random source used to pick the initial centroids.
func WithSource(src Source) Option {
	return func(o *options) { o.source = src }
}

// WithEpsilon stops iterating once no centroid moved more than meters in a
// round. Zero runs every round.
func WithEpsilon(meters float64) Option {
	return func(o *options) { o.epsilon = meters }
}

// WithEmptyClusters selects the empty cluster policy.
func WithEmptyClusters(policy EmptyPolicy) Option {
	return func(o *options) { o.empty = policy }
}

// KMeans partitions points into min(k, len(points)) clusters.
//
// Initial centroids are k points sampled with replacement, so duplicate
// seeds are possible. Each round assigns every point to the nearest centroid
// by geodesic distance (ties go to the lower index) and then recomputes the
// centroids with CentroidRefs. The result is sorted by member count,
// largest first; clusters of equal size keep their index order.
func KMeans[P LatLng](points []P, rounds, k int, opts ...Option) []Cluster[P] {
	n := len(points)
	switch n {
	case 0:
		return nil
	case 1:
		return []Cluster[P]{{
			Centroid: From(points[0]),
			Points:   []*P{&points[0]},
		}}
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.source == nil {
		seed := uint64(time.Now().UnixNano())
		o.source = rand.New(rand.NewPCG(seed, seed>>17))
	}

	k = max(1, min(k, n))
	rounds = max(0, rounds)

	km := &kmeans[P]{
		points:    points,
		centroids: make([]Coordinate, k),
		assigned:  make([]int, n),
		dist:      make([]float64, n),
		policy:    o.empty,
	}
	for c := range km.centroids {
		km.centroids[c] = From(points[o.source.IntN(n)])
	}

	if rounds == 0 {
		km.assign()
	}
	for range rounds {
		km.assign()
		moved := km.update()
		if o.epsilon > 0 && moved < o.epsilon {
			break
		}
	}

	clusters := make([]Cluster[P], k)
	for c := range clusters {
		clusters[c] = Cluster[P]{Centroid: km.centroids[c], Points: km.members[c]}
	}
	sort.SliceStable(clusters, func(i, j int) bool {
		return len(clusters[i].Points) > len(clusters[j].Points)
	})

	return clusters
}

type kmeans[P LatLng] struct {
	points    []P
	centroids []Coordinate
	members   [][]*P
	assigned  []int
	dist      []float64
	policy    EmptyPolicy
}

// assign maps every point to its nearest centroid and regroups members.
func (km *kmeans[P]) assign() {
	for i := range km.points {
		best := -1
		minDist := math.Inf(1)
		for c, centroid := range km.centroids {
			if d := Distance(km.points[i], centroid).Meters; d < minDist {
				minDist = d
				best = c
			}
		}
		// NaN input never wins a comparison
		if best < 0 {
			best = 0
			minDist = 0
		}
		km.assigned[i] = best
		km.dist[i] = minDist
	}

	km.members = make([][]*P, len(km.centroids))
	for i, c := range km.assigned {
		km.members[c] = append(km.members[c], &km.points[i])
	}
}

// update recomputes centroids and returns the largest move in metres.
func (km *kmeans[P]) update() float64 {
	if km.policy == EmptyReseed {
		for c := range km.members {
			if len(km.members[c]) == 0 {
				km.reseed(c)
			}
		}
	}

	var moved float64
	for c, group := range km.members {
		next := CentroidRefs(group)
		moved = max(moved, Distance(km.centroids[c], next).Meters)
		km.centroids[c] = next
	}

	return moved
}

// reseed moves the point farthest from its centroid into empty cluster c.
// Points that are already on their centroid or are the only member of their
// cluster are never taken, so c may stay empty.
func (km *kmeans[P]) reseed(c int) {
	far := -1
	var farDist float64
	for i, d := range km.dist {
		if d > farDist && len(km.members[km.assigned[i]]) > 1 {
			far, farDist = i, d
		}
	}
	if far < 0 {
		return
	}

	from := km.assigned[far]
	ref := &km.points[far]
	group := km.members[from]
	for j, p := range group {
		if p == ref {
			km.members[from] = append(group[:j:j], group[j+1:]...)
			break
		}
	}

	km.members[c] = []*P{ref}
	km.assigned[far] = c
	km.dist[far] = 0
}
