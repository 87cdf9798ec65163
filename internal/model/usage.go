package model

import "time"

// UsageRecord is an append-only entry written when an engineer issues stock
// from their personal holdings at a site. The item is recorded by name so the
// entry stays readable if the ledger row is later deleted.
type UsageRecord struct {
	ID           int64     `json:"id"`
	EngineerID   int64     `json:"engineer_id"`
	StockName    string    `json:"stock_name"`
	Quantity     int       `json:"quantity"`
	SiteName     string    `json:"site_name,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	ContractType string    `json:"contract_type,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	// Joined fields (not always populated).
	EngineerName string `json:"engineer_name,omitempty"`
}
