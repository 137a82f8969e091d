// Package model defines domain types for budget planning: the organizational
// hierarchy, the chart of accounts, budgets and their allocations, and the
// realization and performance records consumed by reports.
package model

import "fmt"

// Level is one tier of the five-level organizational hierarchy.
type Level int

const (
	LevelDomain Level = iota
	LevelField
	LevelProgram
	LevelActivity
	LevelSubActivity
)

// Levels lists every hierarchy level, Domain first.
var Levels = []Level{LevelDomain, LevelField, LevelProgram, LevelActivity, LevelSubActivity}

// Collection returns the document collection name holding nodes of this level.
func (l Level) Collection() string {
	switch l {
	case LevelDomain:
		return "domains"
	case LevelField:
		return "fields"
	case LevelProgram:
		return "programs"
	case LevelActivity:
		return "activities"
	case LevelSubActivity:
		return "subactivities"
	}
	return ""
}

func (l Level) String() string {
	switch l {
	case LevelDomain:
		return "domain"
	case LevelField:
		return "field"
	case LevelProgram:
		return "program"
	case LevelActivity:
		return "activity"
	case LevelSubActivity:
		return "subactivity"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Parent returns the level one tier up. Domain has no parent.
func (l Level) Parent() (Level, bool) {
	if l <= LevelDomain || l > LevelSubActivity {
		return 0, false
	}
	return l - 1, true
}

// LevelFromCollection maps a collection name back to its level.
func LevelFromCollection(name string) (Level, bool) {
	for _, l := range Levels {
		if l.Collection() == name {
			return l, true
		}
	}
	return 0, false
}

// HierarchyNode is one entry of any hierarchy level. ParentID is empty for
// Domain nodes and must name a node one level up for every other level.
type HierarchyNode struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
	Level    Level  `json:"-"`

	// SubActivity only.
	PerformanceTarget string `json:"performanceTarget,omitempty"`
	Indicator         string `json:"indicator,omitempty"`
	Unit              string `json:"unit,omitempty"`
}
