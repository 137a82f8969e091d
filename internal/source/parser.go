// Package source discovers and parses JSON collection exports of the
// planning database: hierarchy levels, account codes, budgets, realizations
// and performance records.
package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/theirongolddev/anggaran/internal/config"
	"github.com/theirongolddev/anggaran/internal/model"
)

// ParseResult holds the documents decoded from one collection file.
// Documents that fail to decode or validate are counted in ParseErrors and
// skipped; Err is set only when the file itself cannot be read.
type ParseResult struct {
	Collection   string
	Nodes        []model.HierarchyNode
	Accounts     []model.AccountCode
	Budgets      []model.Budget
	Realizations []model.Realization
	Performances []model.Performance
	Documents    int
	ParseErrors  int
	Err          error
}

// Len returns the number of decoded documents.
func (r ParseResult) Len() int {
	return len(r.Nodes) + len(r.Accounts) + len(r.Budgets) + len(r.Realizations) + len(r.Performances)
}

// ParseFile reads a collection export. Array files are decoded one element
// at a time; line files one document per line, blank lines skipped.
func ParseFile(df DiscoveredFile) ParseResult {
	res := ParseResult{Collection: df.Collection}

	f, err := os.Open(df.Path)
	if err != nil {
		res.Err = err
		return res
	}
	defer func() { _ = f.Close() }()

	handle := func(doc json.RawMessage) {
		res.Documents++
		if err := res.add(df.Collection, doc); err != nil {
			res.ParseErrors++
		}
	}

	if df.Lines {
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 256*1024), 8*1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			handle(append(json.RawMessage(nil), line...))
		}
		if err := scanner.Err(); err != nil {
			res.Err = fmt.Errorf("reading %s: %w", df.Path, err)
		}
		return res
	}

	if err := decodeArray(f, handle); err != nil {
		res.Err = fmt.Errorf("reading %s: %w", df.Path, err)
	}
	return res
}

// decodeArray streams the elements of a top-level JSON array. An empty file
// is an empty collection.
func decodeArray(r io.Reader, fn func(json.RawMessage)) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return fmt.Errorf("expected a JSON array, got %v", tok)
	}
	for dec.More() {
		var doc json.RawMessage
		if err := dec.Decode(&doc); err != nil {
			return err
		}
		fn(doc)
	}
	_, err = dec.Token()
	return err
}

func (r *ParseResult) add(collection string, doc json.RawMessage) error {
	if level, ok := model.LevelFromCollection(collection); ok {
		n, err := decodeNode(level, doc)
		if err != nil {
			return err
		}
		r.Nodes = append(r.Nodes, n)
		return nil
	}

	switch collection {
	case model.CollectionAccounts:
		var raw rawAccount
		if err := json.Unmarshal(doc, &raw); err != nil {
			return err
		}
		id := pickID(raw.ID, raw.AltID)
		if id == "" {
			return errors.New("account code without id")
		}
		r.Accounts = append(r.Accounts, model.AccountCode{
			ID:       id,
			Code:     strings.TrimSpace(raw.Code),
			Name:     strings.TrimSpace(raw.Name),
			FullCode: strings.TrimSpace(raw.FullCode),
		})
	case model.CollectionBudgets:
		b, err := decodeBudget(doc)
		if err != nil {
			return err
		}
		r.Budgets = append(r.Budgets, b)
	case model.CollectionRealizations:
		var raw rawRealization
		if err := json.Unmarshal(doc, &raw); err != nil {
			return err
		}
		id := pickID(raw.ID, raw.AltID)
		if id == "" {
			return errors.New("realization without id")
		}
		r.Realizations = append(r.Realizations, model.Realization{
			ID:                id,
			Period:            periodOf(raw.Period, raw.Year, raw.PeriodStatus),
			BudgetID:          string(raw.BudgetID),
			BudgetAmount:      raw.BudgetAmount.Decimal,
			RealizationAmount: raw.RealizationAmount.Decimal,
		})
	case model.CollectionPerformances:
		var raw rawPerformance
		if err := json.Unmarshal(doc, &raw); err != nil {
			return err
		}
		id := pickID(raw.ID, raw.AltID)
		if id == "" {
			return errors.New("performance without id")
		}
		status, err := model.ParsePerformanceStatus(strings.TrimSpace(raw.Status))
		if err != nil {
			return err
		}
		r.Performances = append(r.Performances, model.Performance{
			ID:          id,
			Period:      periodOf(raw.Period, raw.Year, raw.PeriodStatus),
			BudgetID:    string(raw.BudgetID),
			TargetValue: raw.TargetValue.Decimal,
			ActualValue: raw.ActualValue.Decimal,
			Status:      status,
		})
	default:
		return fmt.Errorf("unknown collection %q", collection)
	}
	return nil
}

func decodeNode(level model.Level, doc json.RawMessage) (model.HierarchyNode, error) {
	var raw rawNode
	if err := json.Unmarshal(doc, &raw); err != nil {
		return model.HierarchyNode{}, err
	}
	id := pickID(raw.ID, raw.AltID)
	if id == "" {
		return model.HierarchyNode{}, fmt.Errorf("%s without id", level)
	}

	parent := raw.ParentID
	switch level {
	case model.LevelField:
		parent = firstID(raw.DomainID, parent)
	case model.LevelProgram:
		parent = firstID(raw.FieldID, parent)
	case model.LevelActivity:
		parent = firstID(raw.ProgramID, parent)
	case model.LevelSubActivity:
		parent = firstID(raw.ActivityID, parent)
	case model.LevelDomain:
		parent = ""
	}

	n := model.HierarchyNode{
		ID:       id,
		Code:     strings.TrimSpace(raw.Code),
		Name:     strings.TrimSpace(raw.Name),
		ParentID: string(parent),
		Level:    level,
	}
	if level == model.LevelSubActivity {
		n.PerformanceTarget = raw.PerformanceTarget
		n.Indicator = raw.Indicator
		n.Unit = raw.Unit
	}
	return n, nil
}

// decodeBudget converts a budget document. The stored total is ignored and
// recomputed from the allocations.
func decodeBudget(doc json.RawMessage) (model.Budget, error) {
	var raw rawBudget
	if err := json.Unmarshal(doc, &raw); err != nil {
		return model.Budget{}, err
	}
	id := pickID(raw.ID, raw.AltID)
	if id == "" {
		return model.Budget{}, errors.New("budget without id")
	}
	status, err := model.ParseBudgetStatus(strings.TrimSpace(raw.Status))
	if err != nil {
		return model.Budget{}, err
	}

	b := model.Budget{
		ID:              id,
		SubActivityID:   string(raw.SubActivityID),
		Period:          periodOf(raw.Period, raw.Year, raw.PeriodStatus),
		FundingSourceID: string(raw.FundingSourceID),
		Description:     raw.Description,
		Status:          status,
		Allocations:     make([]model.Allocation, 0, len(raw.Allocations)),
		CreatedAt:       parseTime(raw.CreatedAt),
		UpdatedAt:       parseTime(raw.UpdatedAt),
	}
	for i, ra := range raw.Allocations {
		if ra.Amount.IsNegative() {
			return model.Budget{}, fmt.Errorf("budget %s allocation #%d: negative amount", id, i)
		}
		b.Allocations = append(b.Allocations, model.Allocation{
			AccountCode: ra.AccountCode,
			Amount:      ra.Amount.Decimal,
			Note:        ra.Note,
			AllocatedBy: ra.AllocatedBy,
		})
	}
	b.Recompute()
	return b, nil
}

func firstID(ids ...flexID) flexID {
	for _, id := range ids {
		if id != "" {
			return id
		}
	}
	return ""
}

// periodOf returns the explicit period, or builds one from a year and a
// period status.
func periodOf(period string, year json.Number, status string) string {
	if p := strings.TrimSpace(period); p != "" {
		return p
	}
	if year == "" {
		return ""
	}
	return config.NormalizePeriod(year.String(), status)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
