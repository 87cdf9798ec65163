package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mklavora/fieldstock/internal/model"
)

// IssueStock records an engineer consuming stock at a site: the personal
// holding is decremented and an immutable usage record is appended, in one
// transaction. Fails with ErrInsufficientPersonalStock (nothing written) when
// the holding can't cover the quantity.
func IssueStock(ctx context.Context, db *sql.DB, engineerID, stockID int64, quantity int, siteName, reason, contractType string) (*model.UsageRecord, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := decrementPersonalStock(ctx, tx, engineerID, stockID, quantity); err != nil {
		return nil, err
	}

	// Record by name so the entry outlives ledger deletions.
	var stockName string
	err = tx.QueryRowContext(ctx,
		`SELECT name FROM stocks WHERE id = ?`, stockID,
	).Scan(&stockName)
	if err != nil {
		return nil, fmt.Errorf("getting stock name: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO usage_records (engineer_id, stock_name, quantity, site_name, reason, contract_type)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		engineerID, stockName, quantity, siteName, reason, contractType,
	)
	if err != nil {
		return nil, fmt.Errorf("recording usage: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing issuance: %w", err)
	}

	id, _ := result.LastInsertId()
	return GetUsageRecord(ctx, db, id)
}

// GetUsageRecord returns a usage record by ID, or nil if absent.
func GetUsageRecord(ctx context.Context, db *sql.DB, id int64) (*model.UsageRecord, error) {
	row := db.QueryRowContext(ctx,
		`SELECT ur.id, ur.engineer_id, ur.stock_name, ur.quantity, ur.site_name,
		        ur.reason, ur.contract_type, ur.created_at, u.username AS engineer_name
		 FROM usage_records ur
		 JOIN users u ON u.id = ur.engineer_id
		 WHERE ur.id = ?`, id,
	)
	rec, err := scanUsageRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting usage record: %w", err)
	}
	return rec, nil
}

// ListUsageRecords returns all usage records, newest first.
func ListUsageRecords(ctx context.Context, db *sql.DB) ([]model.UsageRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT ur.id, ur.engineer_id, ur.stock_name, ur.quantity, ur.site_name,
		        ur.reason, ur.contract_type, ur.created_at, u.username AS engineer_name
		 FROM usage_records ur
		 JOIN users u ON u.id = ur.engineer_id
		 ORDER BY ur.created_at DESC, ur.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing usage records: %w", err)
	}
	defer rows.Close()

	return scanUsageRecords(rows)
}

// ListUsageRecordsByEngineer returns one engineer's usage records, newest first.
func ListUsageRecordsByEngineer(ctx context.Context, db *sql.DB, engineerID int64) ([]model.UsageRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT ur.id, ur.engineer_id, ur.stock_name, ur.quantity, ur.site_name,
		        ur.reason, ur.contract_type, ur.created_at, u.username AS engineer_name
		 FROM usage_records ur
		 JOIN users u ON u.id = ur.engineer_id
		 WHERE ur.engineer_id = ?
		 ORDER BY ur.created_at DESC, ur.id DESC`, engineerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing usage records: %w", err)
	}
	defer rows.Close()

	return scanUsageRecords(rows)
}

func scanUsageRecord(row rowScanner) (*model.UsageRecord, error) {
	var rec model.UsageRecord
	var siteName, reason, contractType sql.NullString
	err := row.Scan(&rec.ID, &rec.EngineerID, &rec.StockName, &rec.Quantity,
		&siteName, &reason, &contractType, &rec.CreatedAt, &rec.EngineerName)
	if err != nil {
		return nil, err
	}
	rec.SiteName = siteName.String
	rec.Reason = reason.String
	rec.ContractType = contractType.String
	return &rec, nil
}

func scanUsageRecords(rows *sql.Rows) ([]model.UsageRecord, error) {
	var records []model.UsageRecord
	for rows.Next() {
		rec, err := scanUsageRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning usage record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}
