package hierarchy

import (
	"strings"

	"github.com/theirongolddev/anggaran/internal/model"
)

// Resolver builds canonical full codes from an Index.
type Resolver struct {
	idx *Index
}

// NewResolver returns a resolver over idx.
func NewResolver(idx *Index) *Resolver {
	return &Resolver{idx: idx}
}

// ResolveFullCode joins the codes of a sub-activity and its ancestors with
// dots, Domain first. Missing ancestors are omitted, so a sub-activity whose
// parent is gone resolves to its own code. Unknown sub-activities yield "".
func (r *Resolver) ResolveFullCode(subActivityID string) string {
	sub, ok := r.idx.Node(model.LevelSubActivity, subActivityID)
	if !ok {
		return ""
	}

	parts := make([]string, 0, len(model.Levels))
	for _, n := range r.idx.Ancestors(subActivityID) {
		if n.Code != "" {
			parts = append(parts, n.Code)
		}
	}
	parts = append(parts, sub.Code)
	return strings.Join(parts, ".")
}

// Description is a resolved sub-activity with its ancestor names.
type Description struct {
	FullCode    string
	SubActivity model.HierarchyNode
	Ancestors   []model.HierarchyNode
	// Partial is true when fewer than four ancestors resolved.
	Partial bool
}

// Describe resolves a sub-activity along with its ancestry.
func (r *Resolver) Describe(subActivityID string) (Description, bool) {
	sub, ok := r.idx.Node(model.LevelSubActivity, subActivityID)
	if !ok {
		return Description{}, false
	}
	anc := r.idx.Ancestors(subActivityID)
	return Description{
		FullCode:    r.ResolveFullCode(subActivityID),
		SubActivity: sub,
		Ancestors:   anc,
		Partial:     len(anc) < len(model.Levels)-1,
	}, true
}
