package model

import "time"

// Stock is an item in the central (HOD) ledger. Names are unique
// case-insensitively among non-deleted rows. IsEmergency marks items that
// entered the ledger through a free-text request rather than an HOD add.
type Stock struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Quantity    int        `json:"quantity"`
	IsEmergency bool       `json:"is_emergency"`
	PhotoMime   string     `json:"photo_mime,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// PersonalStock is the quantity of a stock item held by one engineer,
// accumulated from received requests and drawn down by usage issuance.
type PersonalStock struct {
	EngineerID int64 `json:"engineer_id"`
	StockID    int64 `json:"stock_id"`
	Quantity   int   `json:"quantity"`

	// Joined fields (not always populated).
	StockName    string `json:"stock_name,omitempty"`
	EngineerName string `json:"engineer_name,omitempty"`
}
