package hierarchy

import (
	"sort"

	"catalog/internal/model"
)

type groupKey struct {
	root   bool
	parent model.NodeID
}

// ParentFunc reports the resolved parent of a node.
type ParentFunc func(id model.NodeID) (model.NodeID, bool)

// ParentsOf adapts a Resolve result to a ParentFunc.
func ParentsOf(placements map[model.NodeID]Placement) ParentFunc {
	return func(id model.NodeID) (model.NodeID, bool) {
		p, ok := placements[id]
		if !ok || p.ParentID == nil {
			return "", false
		}
		return *p.ParentID, true
	}
}

// Normalize returns a copy of entries with a usable OrderNumber on every node. Siblings are
// sorted by (order, title, id); a node whose order is zero or negative takes its 1-based
// position in that sort. Positive orders are kept as supplied, so normalizing twice is a no-op.
func Normalize(entries []Entry, parentOf ParentFunc) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)

	groups := make(map[groupKey][]int)
	var keys []groupKey
	for i := range out {
		key := groupKey{root: true}
		if parent, ok := parentOf(out[i].ID); ok {
			key = groupKey{parent: parent}
		}
		if _, exists := groups[key]; !exists {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], i)
	}

	for _, key := range keys {
		members := groups[key]
		sort.SliceStable(members, func(a, b int) bool {
			ea, eb := out[members[a]], out[members[b]]
			if ea.OrderNumber != eb.OrderNumber {
				return ea.OrderNumber < eb.OrderNumber
			}
			if ea.Title != eb.Title {
				return ea.Title < eb.Title
			}
			return ea.ID < eb.ID
		})
		for pos, idx := range members {
			if out[idx].OrderNumber <= 0 {
				out[idx].OrderNumber = pos + 1
			}
		}
	}
	return out
}
