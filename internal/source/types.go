package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/anggaran/internal/model"
)

// Collections lists every importable collection in load order: hierarchy
// first, then the catalog, then the records that refer to both.
var Collections = []string{
	model.LevelDomain.Collection(),
	model.LevelField.Collection(),
	model.LevelProgram.Collection(),
	model.LevelActivity.Collection(),
	model.LevelSubActivity.Collection(),
	model.CollectionAccounts,
	model.CollectionBudgets,
	model.CollectionRealizations,
	model.CollectionPerformances,
}

// DiscoveredFile is a collection export found during directory scanning.
type DiscoveredFile struct {
	Path       string
	Collection string
	Lines      bool // one JSON document per line instead of an array
}

// flexID decodes an id that arrives as a string, a number, an extended-JSON
// {"$oid": ...} wrapper, or a populated object carrying _id or id.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(strings.TrimSpace(s))
		return nil
	case '{':
		var obj struct {
			OID string `json:"$oid"`
			ID  flexID `json:"_id"`
			Alt flexID `json:"id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		switch {
		case obj.OID != "":
			*f = flexID(obj.OID)
		case obj.ID != "":
			*f = obj.ID
		default:
			*f = obj.Alt
		}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: unsupported JSON %s", data)
	}
	*f = flexID(n.String())
	return nil
}

// flexDecimal decodes an amount that may be a number, a numeric string, an
// empty string, or null. Empty and null decode to zero.
type flexDecimal struct {
	decimal.Decimal
	Set bool
}

func (f *flexDecimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		*f = flexDecimal{Decimal: decimal.Zero}
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*f = flexDecimal{Decimal: d, Set: true}
	return nil
}

// rawNode is a hierarchy document. Each level names its parent differently.
type rawNode struct {
	ID         flexID `json:"_id"`
	AltID      flexID `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	ParentID   flexID `json:"parentId"`
	DomainID   flexID `json:"domainId"`
	FieldID    flexID `json:"fieldId"`
	ProgramID  flexID `json:"programId"`
	ActivityID flexID `json:"activityId"`

	PerformanceTarget string `json:"performanceTarget"`
	Indicator         string `json:"indicator"`
	Unit              string `json:"unit"`
}

type rawAccount struct {
	ID       flexID `json:"_id"`
	AltID    flexID `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	FullCode string `json:"fullCode"`
}

type rawAllocation struct {
	AccountCode model.Reference `json:"accountCodeId"`
	Amount      flexDecimal     `json:"amount"`
	Note        string          `json:"note"`
	AllocatedBy string          `json:"allocatedBy"`
}

type rawBudget struct {
	ID              flexID          `json:"_id"`
	AltID           flexID          `json:"id"`
	SubActivityID   flexID          `json:"subActivityId"`
	Period          string          `json:"period"`
	Year            json.Number     `json:"year"`
	PeriodStatus    string          `json:"periodStatus"`
	FundingSourceID flexID          `json:"fundingSourceId"`
	Allocations     []rawAllocation `json:"allocations"`
	Description     string          `json:"description"`
	Status          string          `json:"status"`
	TotalAmount     flexDecimal     `json:"totalAmount"`
	CreatedAt       string          `json:"createdAt"`
	UpdatedAt       string          `json:"updatedAt"`
}

type rawRealization struct {
	ID                flexID      `json:"_id"`
	AltID             flexID      `json:"id"`
	Period            string      `json:"period"`
	Year              json.Number `json:"year"`
	PeriodStatus      string      `json:"periodStatus"`
	BudgetID          flexID      `json:"budgetId"`
	BudgetAmount      flexDecimal `json:"budgetAmount"`
	RealizationAmount flexDecimal `json:"realizationAmount"`
}

type rawPerformance struct {
	ID           flexID      `json:"_id"`
	AltID        flexID      `json:"id"`
	Period       string      `json:"period"`
	Year         json.Number `json:"year"`
	PeriodStatus string      `json:"periodStatus"`
	BudgetID     flexID      `json:"budgetId"`
	TargetValue  flexDecimal `json:"targetValue"`
	ActualValue  flexDecimal `json:"actualValue"`
	Status       string      `json:"status"`
}

func pickID(primary, alt flexID) string {
	if primary != "" {
		return string(primary)
	}
	return string(alt)
}
