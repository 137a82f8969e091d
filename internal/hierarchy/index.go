// Package hierarchy indexes the five-level organizational hierarchy and
// resolves canonical dotted codes for sub-activities.
package hierarchy

import "github.com/theirongolddev/anggaran/internal/model"

type nodeKey struct {
	level model.Level
	id    string
}

// Index is a read-only lookup over hierarchy nodes of every level.
// It is safe for concurrent reads once built.
type Index struct {
	nodes    map[nodeKey]model.HierarchyNode
	children map[nodeKey][]string
	counts   map[model.Level]int
}

// NewIndex builds an index from nodes of any level. Later duplicates of the
// same (level, id) replace earlier ones; child order follows input order.
func NewIndex(nodes []model.HierarchyNode) *Index {
	idx := &Index{
		nodes:    make(map[nodeKey]model.HierarchyNode, len(nodes)),
		children: make(map[nodeKey][]string),
		counts:   make(map[model.Level]int),
	}

	for _, n := range nodes {
		k := nodeKey{n.Level, n.ID}
		if _, seen := idx.nodes[k]; !seen {
			idx.counts[n.Level]++
			if parent, ok := n.Level.Parent(); ok && n.ParentID != "" {
				pk := nodeKey{parent, n.ParentID}
				idx.children[pk] = append(idx.children[pk], n.ID)
			}
		}
		idx.nodes[k] = n
	}
	return idx
}

// Node returns the node with the given id at the given level.
func (x *Index) Node(level model.Level, id string) (model.HierarchyNode, bool) {
	n, ok := x.nodes[nodeKey{level, id}]
	return n, ok
}

// Parent returns the node one level up, if the link resolves.
func (x *Index) Parent(n model.HierarchyNode) (model.HierarchyNode, bool) {
	level, ok := n.Level.Parent()
	if !ok || n.ParentID == "" {
		return model.HierarchyNode{}, false
	}
	return x.Node(level, n.ParentID)
}

// Children returns the direct children of a node in load order.
func (x *Index) Children(level model.Level, id string) []model.HierarchyNode {
	if level == model.LevelSubActivity {
		return nil
	}
	ids := x.children[nodeKey{level, id}]
	out := make([]model.HierarchyNode, 0, len(ids))
	for _, cid := range ids {
		if n, ok := x.nodes[nodeKey{level + 1, cid}]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Ancestors returns the resolvable ancestors of a sub-activity, Domain first.
// The walk stops at the first broken parent link.
func (x *Index) Ancestors(subActivityID string) []model.HierarchyNode {
	sub, ok := x.Node(model.LevelSubActivity, subActivityID)
	if !ok {
		return nil
	}

	var chain []model.HierarchyNode
	cur := sub
	for {
		parent, ok := x.Parent(cur)
		if !ok {
			break
		}
		chain = append(chain, parent)
		cur = parent
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Count returns how many nodes the index holds at a level.
func (x *Index) Count(level model.Level) int {
	return x.counts[level]
}

// Dangling returns the nodes whose parent link does not resolve.
func (x *Index) Dangling() []model.HierarchyNode {
	var out []model.HierarchyNode
	for _, level := range model.Levels[1:] {
		for k, n := range x.nodes {
			if k.level != level {
				continue
			}
			if _, ok := x.Parent(n); !ok {
				out = append(out, n)
			}
		}
	}
	return out
}
