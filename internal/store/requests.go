package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mklavora/fieldstock/internal/model"
)

// CreateRequest records an engineer's ask for stock. Exactly one of stockID
// and emergencyText must be set. For ledger-referenced requests the available
// quantity is pre-checked as a courtesy; it is checked again, atomically, at
// approval time.
func CreateRequest(ctx context.Context, db *sql.DB, engineerID int64, stockID *int64, emergencyText string, quantity int, remarks string) (*model.Request, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}
	if (stockID == nil) == (emergencyText == "") {
		return nil, fmt.Errorf("exactly one of stock_id and emergency_text must be set")
	}

	if stockID != nil {
		stock, err := GetStock(ctx, db, *stockID)
		if err != nil {
			return nil, err
		}
		if stock == nil {
			return nil, ErrNotFound
		}
		if stock.Quantity < quantity {
			return nil, ErrInsufficientStock
		}
	}

	var emergency sql.NullString
	if emergencyText != "" {
		emergency = sql.NullString{String: emergencyText, Valid: true}
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO requests (engineer_id, stock_id, emergency_text, quantity, remarks)
		 VALUES (?, ?, ?, ?, ?)`,
		engineerID, stockID, emergency, quantity, remarks,
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting request id: %w", err)
	}

	return GetRequest(ctx, db, id)
}

const requestColumns = `r.id, r.engineer_id, r.stock_id, r.emergency_text, r.quantity, r.status,
	r.docket_number, r.hod_comment, r.remarks, r.created_at, r.updated_at,
	u.username AS engineer_name, COALESCE(s.name, '') AS stock_name`

const requestJoins = `FROM requests r
	JOIN users u ON u.id = r.engineer_id
	LEFT JOIN stocks s ON s.id = r.stock_id`

// GetRequest returns a request by ID with engineer and item names joined, or
// nil if absent.
func GetRequest(ctx context.Context, db *sql.DB, id int64) (*model.Request, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` `+requestJoins+` WHERE r.id = ?`, id,
	)
	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting request: %w", err)
	}
	return req, nil
}

// ListRequests returns all requests, newest first.
func ListRequests(ctx context.Context, db *sql.DB) ([]model.Request, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+requestColumns+` `+requestJoins+` ORDER BY r.created_at DESC, r.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	defer rows.Close()

	return scanRequests(rows)
}

// ListRequestsByEngineer returns one engineer's requests, newest first.
func ListRequestsByEngineer(ctx context.Context, db *sql.DB, engineerID int64) ([]model.Request, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+requestColumns+` `+requestJoins+`
		 WHERE r.engineer_id = ? ORDER BY r.created_at DESC, r.id DESC`, engineerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	defer rows.Close()

	return scanRequests(rows)
}

// ApproveRequest moves a pending request to approved, decrementing the
// central ledger for ledger-referenced requests in the same transaction. The
// availability check is the decrement itself, so a failed approval leaves
// both the ledger and the request untouched.
func ApproveRequest(ctx context.Context, db *sql.DB, id int64, comment string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stockID, quantity, err := lockRequest(ctx, tx, id, model.StatusPending)
	if err != nil {
		return err
	}

	if stockID != nil {
		if err := decrementStock(ctx, tx, *stockID, quantity); err != nil {
			return err
		}
	}

	if err := setRequestStatus(ctx, tx, id, model.StatusApproved, comment); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing approval: %w", err)
	}
	return nil
}

// DenyRequest moves a pending request to denied. No ledger mutation.
func DenyRequest(ctx context.Context, db *sql.DB, id int64, comment string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, _, err := lockRequest(ctx, tx, id, model.StatusPending); err != nil {
		return err
	}

	if err := setRequestStatus(ctx, tx, id, model.StatusDenied, comment); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing denial: %w", err)
	}
	return nil
}

// DispatchRequest moves an approved request to dispatched, recording the
// courier docket number. The docket is required; handlers validate it before
// calling here.
func DispatchRequest(ctx context.Context, db *sql.DB, id int64, docketNumber, comment string) error {
	if docketNumber == "" {
		return fmt.Errorf("docket number required")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, _, err := lockRequest(ctx, tx, id, model.StatusApproved); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE requests SET status = ?, docket_number = ?, hod_comment = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		model.StatusDispatched, docketNumber, comment, id,
	)
	if err != nil {
		return fmt.Errorf("dispatching request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing dispatch: %w", err)
	}
	return nil
}

// ReceiveRequest moves a dispatched request to received and credits the
// engineer's personal stock. Only the requesting engineer may receive; for
// free-text requests the ledger row is found or created (quantity 0,
// emergency flag set) by case-insensitive name. All of it commits together.
func ReceiveRequest(ctx context.Context, db *sql.DB, id, engineerID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var reqEngineerID int64
	var stockID sql.NullInt64
	var emergencyText sql.NullString
	var quantity int
	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT engineer_id, stock_id, emergency_text, quantity, status
		 FROM requests WHERE id = ?`, id,
	).Scan(&reqEngineerID, &stockID, &emergencyText, &quantity, &status)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("getting request: %w", err)
	}

	// Ownership failures read as absence.
	if reqEngineerID != engineerID {
		return ErrNotFound
	}
	if status != model.StatusDispatched {
		return ErrInvalidTransition
	}

	targetStockID := stockID.Int64
	if !stockID.Valid {
		targetStockID, err = findOrCreateStockByName(ctx, tx, emergencyText.String)
		if err != nil {
			return err
		}
	}

	if err := addPersonalStock(ctx, tx, engineerID, targetStockID, quantity); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE requests SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		model.StatusReceived, id,
	)
	if err != nil {
		return fmt.Errorf("marking request received: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing receipt: %w", err)
	}
	return nil
}

// CancelRequest deletes a pending or denied request. Only the requesting
// engineer may cancel; cancelling an already-removed request returns
// ErrNotFound.
func CancelRequest(ctx context.Context, db *sql.DB, id, engineerID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var reqEngineerID int64
	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT engineer_id, status FROM requests WHERE id = ?`, id,
	).Scan(&reqEngineerID, &status)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("getting request: %w", err)
	}

	if reqEngineerID != engineerID {
		return ErrNotFound
	}
	if status != model.StatusPending && status != model.StatusDenied {
		return ErrInvalidTransition
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM requests WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cancellation: %w", err)
	}
	return nil
}

// lockRequest reads a request inside tx and verifies it is in wantStatus.
// Returns the stock reference (nil for free-text requests) and quantity.
func lockRequest(ctx context.Context, tx *sql.Tx, id int64, wantStatus string) (*int64, int, error) {
	var stockID sql.NullInt64
	var quantity int
	var status string
	err := tx.QueryRowContext(ctx,
		`SELECT stock_id, quantity, status FROM requests WHERE id = ?`, id,
	).Scan(&stockID, &quantity, &status)
	if err == sql.ErrNoRows {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("getting request: %w", err)
	}
	if status != wantStatus {
		return nil, 0, ErrInvalidTransition
	}
	if stockID.Valid {
		return &stockID.Int64, quantity, nil
	}
	return nil, quantity, nil
}

func setRequestStatus(ctx context.Context, tx *sql.Tx, id int64, status, comment string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE requests SET status = ?, hod_comment = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, comment, id,
	)
	if err != nil {
		return fmt.Errorf("updating request status: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*model.Request, error) {
	var req model.Request
	var stockID sql.NullInt64
	var emergencyText, docket, comment, remarks sql.NullString
	err := row.Scan(&req.ID, &req.EngineerID, &stockID, &emergencyText, &req.Quantity, &req.Status,
		&docket, &comment, &remarks, &req.CreatedAt, &req.UpdatedAt,
		&req.EngineerName, &req.StockName)
	if err != nil {
		return nil, err
	}
	if stockID.Valid {
		req.StockID = &stockID.Int64
	}
	req.EmergencyText = emergencyText.String
	req.DocketNumber = docket.String
	req.HODComment = comment.String
	req.Remarks = remarks.String
	return &req, nil
}

func scanRequests(rows *sql.Rows) ([]model.Request, error) {
	var requests []model.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning request: %w", err)
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}
