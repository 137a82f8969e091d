package model

// Collection names for the non-hierarchy record kinds. Hierarchy levels
// name their own collections through Level.Collection.
const (
	CollectionAccounts     = "accountcodes"
	CollectionBudgets      = "budgets"
	CollectionRealizations = "realizations"
	CollectionPerformances = "performances"
)
