package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mklavora/fieldstock/internal/model"
)

// AddStock creates a ledger item or, if an active item with this name already
// exists (case-insensitive), adds the quantity to it. Repeated adds
// accumulate. The emergency flag is sticky: once set it stays set.
func AddStock(ctx context.Context, db *sql.DB, name string, quantity int, isEmergency bool) (*model.Stock, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("quantity must not be negative")
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO stocks (name, quantity, is_emergency) VALUES (?, ?, ?)
		 ON CONFLICT (name) WHERE deleted_at IS NULL DO UPDATE SET
		     quantity = quantity + excluded.quantity,
		     is_emergency = is_emergency OR excluded.is_emergency,
		     updated_at = CURRENT_TIMESTAMP`,
		name, quantity, isEmergency,
	)
	if err != nil {
		return nil, fmt.Errorf("adding stock: %w", err)
	}

	return GetStockByName(ctx, db, name)
}

// GetStock returns a non-deleted ledger item by ID, or nil if absent.
func GetStock(ctx context.Context, db *sql.DB, id int64) (*model.Stock, error) {
	s := &model.Stock{}
	var photoMime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, quantity, is_emergency, photo_mime, created_at, updated_at, deleted_at
		 FROM stocks WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&s.ID, &s.Name, &s.Quantity, &s.IsEmergency, &photoMime, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting stock: %w", err)
	}
	s.PhotoMime = photoMime.String
	return s, nil
}

// GetStockByName returns a non-deleted ledger item by case-insensitive name,
// or nil if absent.
func GetStockByName(ctx context.Context, db *sql.DB, name string) (*model.Stock, error) {
	s := &model.Stock{}
	var photoMime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, quantity, is_emergency, photo_mime, created_at, updated_at, deleted_at
		 FROM stocks WHERE name = ? AND deleted_at IS NULL`, name,
	).Scan(&s.ID, &s.Name, &s.Quantity, &s.IsEmergency, &photoMime, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting stock by name: %w", err)
	}
	s.PhotoMime = photoMime.String
	return s, nil
}

// ListStocks returns all non-deleted ledger items ordered by name.
func ListStocks(ctx context.Context, db *sql.DB) ([]model.Stock, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, quantity, is_emergency, photo_mime, created_at, updated_at, deleted_at
		 FROM stocks WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing stocks: %w", err)
	}
	defer rows.Close()

	var stocks []model.Stock
	for rows.Next() {
		var s model.Stock
		var photoMime sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &s.Quantity, &s.IsEmergency, &photoMime, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning stock: %w", err)
		}
		s.PhotoMime = photoMime.String
		stocks = append(stocks, s)
	}
	return stocks, rows.Err()
}

// UpdateStock overwrites a ledger item's name and quantity.
func UpdateStock(ctx context.Context, db *sql.DB, id int64, name string, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("quantity must not be negative")
	}

	result, err := db.ExecContext(ctx,
		`UPDATE stocks SET name = ?, quantity = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		name, quantity, id,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("updating stock: %w", err)
	}
	return requireRowAffected(result)
}

// DeleteStock soft-deletes a ledger item. Requests and usage records that
// reference it keep their references; the name becomes reusable.
func DeleteStock(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE stocks SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting stock: %w", err)
	}
	return requireRowAffected(result)
}

// DecrementStock takes amount units off a ledger item as a single conditional
// update, so concurrent decrements can never drive the quantity negative.
// Returns ErrInsufficientStock (ledger unchanged) when the item cannot cover
// the amount, ErrNotFound when it doesn't exist.
func DecrementStock(ctx context.Context, db *sql.DB, id int64, amount int) error {
	return decrementStock(ctx, db, id, amount)
}

// execer covers *sql.DB and *sql.Tx so ledger mutations can run standalone or
// inside a request transition's transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func decrementStock(ctx context.Context, ex execer, id int64, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	result, err := ex.ExecContext(ctx,
		`UPDATE stocks SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL AND quantity >= ?`,
		amount, id, amount,
	)
	if err != nil {
		return fmt.Errorf("decrementing stock: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}

	// Distinguish a missing item from one that can't cover the amount.
	var exists int
	err = ex.QueryRowContext(ctx,
		`SELECT 1 FROM stocks WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking stock existence: %w", err)
	}
	return ErrInsufficientStock
}

// findOrCreateStockByName resolves a free-text item name to a ledger row,
// creating it with quantity 0 and the emergency flag set when absent. Used
// when an emergency request is marked received.
func findOrCreateStockByName(ctx context.Context, ex execer, name string) (int64, error) {
	var id int64
	err := ex.QueryRowContext(ctx,
		`SELECT id FROM stocks WHERE name = ? AND deleted_at IS NULL`, name,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("looking up stock by name: %w", err)
	}

	result, err := ex.ExecContext(ctx,
		`INSERT INTO stocks (name, quantity, is_emergency) VALUES (?, 0, 1)`, name,
	)
	if err != nil {
		return 0, fmt.Errorf("creating emergency stock: %w", err)
	}
	id, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting stock id: %w", err)
	}
	return id, nil
}

// SetStockPhoto stores a processed photo for a ledger item.
func SetStockPhoto(ctx context.Context, db *sql.DB, id int64, photo []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE stocks SET photo = ?, photo_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		photo, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting stock photo: %w", err)
	}
	return requireRowAffected(result)
}

// GetStockPhoto returns a ledger item's photo data and MIME type. Both are
// zero-valued when no photo is set.
func GetStockPhoto(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var photo []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM stocks WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting stock photo: %w", err)
	}
	return photo, mime.String, nil
}
