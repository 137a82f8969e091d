package model

// AccountCode is a chart-of-accounts entry a budget amount is allocated against.
// Identity is by ID only; Code and FullCode are for display and matching.
type AccountCode struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	FullCode string `json:"fullCode,omitempty"`
}

// DisplayCode returns FullCode when present, else Code.
func (a AccountCode) DisplayCode() string {
	if a.FullCode != "" {
		return a.FullCode
	}
	return a.Code
}
