package hierarchy

import (
	"testing"

	"catalog/internal/model"

	"github.com/stretchr/testify/assert"
)

func orders(entries []Entry) map[string]int {
	out := make(map[string]int, len(entries))
	for _, e := range entries {
		out[string(e.ID)] = e.OrderNumber
	}
	return out
}

func TestNormalizeKeepsPositiveOrders(t *testing.T) {
	entries := []Entry{
		{ID: "a", Title: "Alpha", OrderNumber: 7},
		{ID: "b", Title: "Beta", OrderNumber: 3},
	}
	got := Normalize(entries, ParentsOf(Resolve(entries, 0)))
	assert.Equal(t, map[string]int{"a": 7, "b": 3}, orders(got))
}

func TestNormalizeFillsMissingOrdersPerSiblingGroup(t *testing.T) {
	entries := []Entry{
		{ID: "root-b", Title: "Billing"},
		{ID: "root-a", Title: "Accounts"},
		{ID: "child-2", ParentID: ref("root-a"), Title: "Zeta", OrderNumber: -4},
		{ID: "child-1", ParentID: ref("root-a"), Title: "Eta"},
		{ID: "child-3", ParentID: ref("root-b"), Title: "Only"},
	}
	got := Normalize(entries, ParentsOf(Resolve(entries, 0)))

	assert.Equal(t, map[string]int{
		"root-a":  1,
		"root-b":  2,
		"child-2": 1, // -4 sorts before 0
		"child-1": 2,
		"child-3": 1,
	}, orders(got))
}

func TestNormalizeTitleBreaksTies(t *testing.T) {
	entries := []Entry{
		{ID: "3", Title: "Charlie", OrderNumber: 0},
		{ID: "1", Title: "Alpha", OrderNumber: 0},
		{ID: "2", Title: "Bravo", OrderNumber: 0},
	}
	got := Normalize(entries, ParentsOf(Resolve(entries, 0)))
	assert.Equal(t, map[string]int{"1": 1, "2": 2, "3": 3}, orders(got))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	entries := []Entry{
		{ID: "1", Title: "Dashboard"},
		{ID: "2", Title: "Reports", OrderNumber: 5},
		{ID: "3", ParentID: ref("2"), Title: "Daily", OrderNumber: 0},
		{ID: "4", ParentID: ref("2"), Title: "Monthly", OrderNumber: 2},
		{ID: "5", ParentID: ref("2"), Title: "Annual", OrderNumber: -1},
	}
	parents := ParentsOf(Resolve(entries, 0))

	once := Normalize(entries, parents)
	twice := Normalize(once, parents)
	assert.Equal(t, orders(once), orders(twice))
	for _, e := range once {
		assert.Positive(t, e.OrderNumber, e.ID)
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	entries := []Entry{{ID: "1", Title: "x"}}
	_ = Normalize(entries, ParentsOf(Resolve(entries, 0)))
	assert.Equal(t, 0, entries[0].OrderNumber)
}

func TestNormalizeIsDeterministicAcrossInputOrder(t *testing.T) {
	a := []Entry{{ID: "x", Title: "Same"}, {ID: "y", Title: "Same"}}
	b := []Entry{{ID: "y", Title: "Same"}, {ID: "x", Title: "Same"}}

	got := func(in []Entry) map[string]int {
		return orders(Normalize(in, ParentsOf(Resolve(in, 0))))
	}
	assert.Equal(t, got(a), got(b))
	assert.Equal(t, map[string]int{"x": 1, "y": 2}, got(a))
}

func TestParentsOf(t *testing.T) {
	parents := ParentsOf(map[model.NodeID]Placement{
		"1": {Level: 1},
		"2": {Level: 2, ParentID: ref("1")},
	})
	_, ok := parents("1")
	assert.False(t, ok)
	p, ok := parents("2")
	assert.True(t, ok)
	assert.Equal(t, model.NodeID("1"), p)
	_, ok = parents("missing")
	assert.False(t, ok)
}
