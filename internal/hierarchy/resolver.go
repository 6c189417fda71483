package hierarchy

import "catalog/internal/model"

// DefaultMaxDepth bounds the level of any node when the caller does not configure one.
const DefaultMaxDepth = 10

// Entry is the part of an upstream node the resolver and normalizer look at.
type Entry struct {
	ID          model.NodeID
	ParentID    *model.NodeID
	ProductCode string
	Title       string
	OrderNumber int
}

// Placement is the resolved position of one node.
type Placement struct {
	Level    int
	ParentID *model.NodeID // nil for roots
}

type resolver struct {
	index    map[model.NodeID]*Entry
	placed   map[model.NodeID]Placement
	maxDepth int
}

// Resolve computes the level and validated parent of every entry. Entries whose parent is
// missing, out of scope, or part of a cycle become roots at level 1.
// Duplicate ids resolve against the last occurrence.
func Resolve(entries []Entry, maxDepth int) map[model.NodeID]Placement {
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	r := &resolver{
		index:    make(map[model.NodeID]*Entry, len(entries)),
		placed:   make(map[model.NodeID]Placement, len(entries)),
		maxDepth: maxDepth,
	}
	for i := range entries {
		r.index[entries[i].ID] = &entries[i]
	}
	for id := range r.index {
		r.place(id)
	}
	return r.placed
}

// parentOf returns the parent id only if it names another entry of the batch and the
// product scopes are compatible.
func (r *resolver) parentOf(e *Entry) (model.NodeID, bool) {
	if e.ParentID == nil || *e.ParentID == "" {
		return "", false
	}
	parent, ok := r.index[*e.ParentID]
	if !ok {
		return "", false
	}
	if e.ProductCode != "" && parent.ProductCode != "" && e.ProductCode != parent.ProductCode {
		return "", false
	}
	return parent.ID, true
}

// place walks up the parent chain until it reaches a placed node, a root, or a node already
// on the current walk. The walk set is the in-progress marker: hitting it means a cycle,
// and every member of that cycle is placed as a root.
func (r *resolver) place(id model.NodeID) {
	var path []model.NodeID
	onPath := make(map[model.NodeID]int)

	cur := id
	for {
		if _, done := r.placed[cur]; done {
			break
		}
		if pos, seen := onPath[cur]; seen {
			for _, member := range path[pos:] {
				r.placed[member] = Placement{Level: 1}
			}
			path = path[:pos]
			break
		}
		parent, ok := r.parentOf(r.index[cur])
		if !ok {
			r.placed[cur] = Placement{Level: 1}
			break
		}
		onPath[cur] = len(path)
		path = append(path, cur)
		cur = parent
	}

	// Every node left on the path now has a placed parent.
	for i := len(path) - 1; i >= 0; i-- {
		node := path[i]
		parent, _ := r.parentOf(r.index[node])
		level := r.placed[parent].Level + 1
		if level > r.maxDepth {
			level = r.maxDepth
		}
		p := parent
		r.placed[node] = Placement{Level: level, ParentID: &p}
	}
}
