package reconcile

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// Rule is one keyword category used to recover a lost account reference
// from an allocation note. Patterns decide whether the category applies to a
// note; Keywords select catalog entries by name or full code. Prefer and
// Avoid are name terms that break ties between several matching entries.
type Rule struct {
	Category string   `toml:"category"`
	Patterns []string `toml:"patterns"`
	Keywords []string `toml:"keywords"`
	Prefer   []string `toml:"prefer,omitempty"`
	Avoid    []string `toml:"avoid,omitempty"`
}

// DefaultRules is the built-in category table, checked in order.
// Notes mentioning cement resolve to raw materials over building
// maintenance.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category: "semen",
			Patterns: []string{`\b(semen|cement|beton|concrete)\b`},
			Keywords: []string{"semen", "beton"},
			Prefer:   []string{"bahan baku"},
			Avoid:    []string{"pemeliharaan"},
		},
		{
			Category: "besi",
			Patterns: []string{`\b(besi|baja|steel|iron|wiremesh)\b`},
			Keywords: []string{"besi", "baja"},
			Prefer:   []string{"bahan baku"},
		},
		{
			Category: "kayu",
			Patterns: []string{`\b(kayu|papan|balok|wood|timber|triplek)\b`},
			Keywords: []string{"kayu"},
			Prefer:   []string{"bahan baku"},
		},
		{
			Category: "cat",
			Patterns: []string{`\b(cat|paint|coating|pelitur)\b`},
			Keywords: []string{"cat"},
		},
		{
			Category: "keramik",
			Patterns: []string{`\b(keramik|ubin|granit|tile|ceramic)\b`},
			Keywords: []string{"keramik", "ubin"},
		},
		{
			Category: "pipa",
			Patterns: []string{`\b(pipa|pralon|paralon|pvc|pipe)\b`},
			Keywords: []string{"pipa"},
		},
		{
			Category: "listrik",
			Patterns: []string{`\b(listrik|kabel|lampu|electrical|stop ?kontak)\b`},
			Keywords: []string{"listrik"},
		},
		{
			Category: "peralatan",
			Patterns: []string{`\b(alat|peralatan|perkakas|equipment|tools?)\b`},
			Keywords: []string{"peralatan", "alat"},
		},
		{
			Category: "material",
			Patterns: []string{`\b(material|bahan|pasir|batu|kerikil)\b`},
			Keywords: []string{"bahan baku", "material", "bahan"},
		},
		{
			Category: "lain-lain",
			Patterns: []string{`\b(lain-lain|lainnya|dll|lain)\b`},
			Keywords: []string{"lainnya", "lain-lain"},
		},
	}
}

type compiledRule struct {
	Rule
	patterns []*regexp.Regexp
	keywords []string
	prefer   []string
	avoid    []string
}

func compileRules(rules []Rule) ([]compiledRule, error) {
	fold := cases.Fold()
	foldAll := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			s = strings.TrimSpace(fold.String(s))
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	out := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		if strings.TrimSpace(r.Category) == "" {
			return nil, fmt.Errorf("reconcile rule #%d: category is empty", i)
		}
		cr := compiledRule{
			Rule:     r,
			keywords: foldAll(r.Keywords),
			prefer:   foldAll(r.Prefer),
			avoid:    foldAll(r.Avoid),
		}
		for _, p := range r.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("reconcile rule %q: %w", r.Category, err)
			}
			cr.patterns = append(cr.patterns, re)
		}
		if len(cr.patterns) == 0 && len(cr.keywords) == 0 {
			return nil, fmt.Errorf("reconcile rule %q: no patterns or keywords", r.Category)
		}
		out = append(out, cr)
	}
	return out, nil
}

// matches reports whether the folded note triggers the rule. A rule without
// patterns triggers on any of its keywords.
func (r compiledRule) matches(note string) bool {
	if len(r.patterns) == 0 {
		return containsAny(note, r.keywords)
	}
	for _, re := range r.patterns {
		if re.MatchString(note) {
			return true
		}
	}
	return false
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
