package model

import "time"

// Request is an engineer's ask for stock. Exactly one of StockID and
// EmergencyText is set: a reference into the central ledger, or a free-text
// name for an item the ledger doesn't carry yet.
type Request struct {
	ID            int64     `json:"id"`
	EngineerID    int64     `json:"engineer_id"`
	StockID       *int64    `json:"stock_id,omitempty"`
	EmergencyText string    `json:"emergency_text,omitempty"`
	Quantity      int       `json:"quantity"`
	Status        string    `json:"status"`
	DocketNumber  string    `json:"docket_number,omitempty"`
	HODComment    string    `json:"hod_comment,omitempty"`
	Remarks       string    `json:"remarks,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	EngineerName string `json:"engineer_name,omitempty"`
	StockName    string `json:"stock_name,omitempty"`
}

// Request statuses. Transitions: pending -> approved or denied,
// approved -> dispatched, dispatched -> received. Pending and denied
// requests can be cancelled (deleted) by their engineer.
const (
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusDenied     = "denied"
	StatusDispatched = "dispatched"
	StatusReceived   = "received"
)
