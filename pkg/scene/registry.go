package scene

import (
	"sort"

	"github.com/taigrr/fireball/pkg/math3d"
)

// Entry pairs a pickable marker with its semantic key.
type Entry struct {
	Marker *Node
	Key    int
}

// Hit is one ray intersection with a registered marker.
type Hit struct {
	Entry
	Index    int // position in the registry
	Distance float64
	Point    math3d.Vec3
}

// Registry is the ordered set of pickable markers. Entries and the reverse
// index are only ever changed together by Add.
type Registry struct {
	entries []Entry
	index   map[*Node]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[*Node]int)}
}

// Add registers marker under key. Adding the same marker twice is ignored.
func (r *Registry) Add(marker *Node, key int) {
	if _, ok := r.index[marker]; ok {
		return
	}
	r.index[marker] = len(r.entries)
	r.entries = append(r.entries, Entry{Marker: marker, Key: key})
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	return len(r.entries)
}

// At returns entry i.
func (r *Registry) At(i int) Entry {
	return r.entries[i]
}

// Intersect tests ray against every registered marker, using world
// transforms from the last UpdateWorld, and returns hits nearest first.
// Only registered markers are ever tested; a marker hidden by itself or
// an ancestor is skipped.
func (r *Registry) Intersect(ray math3d.Ray) []Hit {
	var hits []Hit
	for i, e := range r.entries {
		m := e.Marker
		if !m.EffectiveVisible() {
			continue
		}
		var (
			d  float64
			ok bool
		)
		switch m.Kind {
		case KindDisc:
			d, ok = ray.IntersectDisc(m.WorldCenter(), m.WorldNormal(), m.WorldRadius())
		default:
			d, ok = ray.IntersectSphere(m.WorldCenter(), m.WorldRadius())
		}
		if !ok {
			continue
		}
		hits = append(hits, Hit{Entry: e, Index: i, Distance: d, Point: ray.At(d)})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	return hits
}
