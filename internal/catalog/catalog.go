// Package catalog holds the chart-of-accounts snapshot and its lookups.
package catalog

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/theirongolddev/anggaran/internal/model"
)

// Lookup is the read-only view of the chart of accounts used by the ledger,
// the reconciler and the report layer.
type Lookup interface {
	FindByID(id string) (model.AccountCode, bool)
	FindByFullCode(code string) (model.AccountCode, bool)
	Search(text string) []model.AccountCode
	All() []model.AccountCode
}

type entry struct {
	code   model.AccountCode
	folded string // code, name and full code, case-folded and joined
}

// Catalog is an immutable snapshot of account codes in load order.
type Catalog struct {
	entries    []entry
	byID       map[string]int
	byFullCode map[string]int
}

// New builds a catalog. Entries without an id are skipped; a repeated id
// keeps its first position and takes the last value.
func New(codes []model.AccountCode) *Catalog {
	c := &Catalog{
		byID:       make(map[string]int, len(codes)),
		byFullCode: make(map[string]int, len(codes)),
	}
	caser := cases.Fold()
	for _, ac := range codes {
		if ac.ID == "" {
			continue
		}
		e := entry{
			code:   ac,
			folded: caser.String(ac.Code + "\x00" + ac.Name + "\x00" + ac.FullCode),
		}
		if i, ok := c.byID[ac.ID]; ok {
			c.entries[i] = e
		} else {
			c.byID[ac.ID] = len(c.entries)
			c.entries = append(c.entries, e)
		}
	}
	for i, e := range c.entries {
		if key := e.code.DisplayCode(); key != "" {
			if _, dup := c.byFullCode[key]; !dup {
				c.byFullCode[key] = i
			}
		}
	}
	return c
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// FindByID returns the entry with the given id.
func (c *Catalog) FindByID(id string) (model.AccountCode, bool) {
	i, ok := c.byID[id]
	if !ok {
		return model.AccountCode{}, false
	}
	return c.entries[i].code, true
}

// FindByFullCode returns the first entry whose display code equals code.
func (c *Catalog) FindByFullCode(code string) (model.AccountCode, bool) {
	i, ok := c.byFullCode[strings.TrimSpace(code)]
	if !ok {
		return model.AccountCode{}, false
	}
	return c.entries[i].code, true
}

// Search returns entries whose code, name or full code contains text,
// case-insensitively, in catalog order. Blank text matches everything.
func (c *Catalog) Search(text string) []model.AccountCode {
	needle := cases.Fold().String(strings.TrimSpace(text))
	var out []model.AccountCode
	for _, e := range c.entries {
		if needle == "" || strings.Contains(e.folded, needle) {
			out = append(out, e.code)
		}
	}
	return out
}

// All returns every entry in catalog order.
func (c *Catalog) All() []model.AccountCode {
	out := make([]model.AccountCode, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.code
	}
	return out
}
