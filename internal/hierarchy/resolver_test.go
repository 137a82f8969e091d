package hierarchy

import (
	"testing"

	"github.com/theirongolddev/anggaran/internal/model"
)

func node(level model.Level, id, code, parent string) model.HierarchyNode {
	return model.HierarchyNode{ID: id, Code: code, Name: id, ParentID: parent, Level: level}
}

func fullTree() []model.HierarchyNode {
	return []model.HierarchyNode{
		node(model.LevelDomain, "d1", "1", ""),
		node(model.LevelField, "f1", "03", "d1"),
		node(model.LevelProgram, "p1", "02", "f1"),
		node(model.LevelActivity, "a1", "2.01", "p1"),
		node(model.LevelSubActivity, "s1", "01", "a1"),
		node(model.LevelSubActivity, "s2", "02", "a1"),
	}
}

func TestResolveFullCode_FullChain(t *testing.T) {
	r := NewResolver(NewIndex(fullTree()))
	if got := r.ResolveFullCode("s1"); got != "1.03.02.2.01.01" {
		t.Fatalf("ResolveFullCode(s1) = %q", got)
	}
}

func TestResolveFullCode_Idempotent(t *testing.T) {
	r := NewResolver(NewIndex(fullTree()))
	first := r.ResolveFullCode("s2")
	second := r.ResolveFullCode("s2")
	if first != second {
		t.Fatalf("ResolveFullCode not idempotent: %q vs %q", first, second)
	}
}

func TestResolveFullCode_MissingActivity(t *testing.T) {
	nodes := []model.HierarchyNode{
		node(model.LevelDomain, "d1", "1", ""),
		node(model.LevelSubActivity, "S1", "01", "A1"),
	}
	r := NewResolver(NewIndex(nodes))
	if got := r.ResolveFullCode("S1"); got != "01" {
		t.Fatalf("ResolveFullCode(S1) = %q, want 01", got)
	}
}

func TestResolveFullCode_MissingProgram(t *testing.T) {
	nodes := []model.HierarchyNode{
		node(model.LevelActivity, "a1", "2.01", "gone"),
		node(model.LevelSubActivity, "s1", "01", "a1"),
	}
	r := NewResolver(NewIndex(nodes))
	if got := r.ResolveFullCode("s1"); got != "2.01.01" {
		t.Fatalf("ResolveFullCode(s1) = %q, want 2.01.01", got)
	}

	d, ok := r.Describe("s1")
	if !ok || !d.Partial || len(d.Ancestors) != 1 {
		t.Fatalf("Describe = %+v, %v", d, ok)
	}
}

func TestResolveFullCode_UnknownSubActivity(t *testing.T) {
	r := NewResolver(NewIndex(fullTree()))
	if got := r.ResolveFullCode("nope"); got != "" {
		t.Fatalf("ResolveFullCode(nope) = %q, want empty", got)
	}
}

func TestIndex_ChildrenKeepLoadOrder(t *testing.T) {
	idx := NewIndex(fullTree())
	kids := idx.Children(model.LevelActivity, "a1")
	if len(kids) != 2 || kids[0].ID != "s1" || kids[1].ID != "s2" {
		t.Fatalf("Children(a1) = %+v", kids)
	}
	if got := idx.Count(model.LevelSubActivity); got != 2 {
		t.Fatalf("Count(subactivity) = %d", got)
	}
}

func TestIndex_Dangling(t *testing.T) {
	nodes := append(fullTree(), node(model.LevelProgram, "p9", "09", "missing"))
	idx := NewIndex(nodes)
	d := idx.Dangling()
	if len(d) != 1 || d[0].ID != "p9" {
		t.Fatalf("Dangling = %+v", d)
	}
}
