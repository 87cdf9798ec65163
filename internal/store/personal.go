package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mklavora/fieldstock/internal/model"
)

// ListPersonalStocks returns one engineer's holdings, ordered by item name.
func ListPersonalStocks(ctx context.Context, db *sql.DB, engineerID int64) ([]model.PersonalStock, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT ps.engineer_id, ps.stock_id, ps.quantity,
		        s.name AS stock_name, u.username AS engineer_name
		 FROM personal_stocks ps
		 JOIN stocks s ON s.id = ps.stock_id
		 JOIN users u ON u.id = ps.engineer_id
		 WHERE ps.engineer_id = ?
		 ORDER BY s.name`, engineerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing personal stocks: %w", err)
	}
	defer rows.Close()

	return scanPersonalStocks(rows)
}

// ListAllPersonalStocks returns every engineer's holdings, for the HOD
// overview, ordered by engineer then item name.
func ListAllPersonalStocks(ctx context.Context, db *sql.DB) ([]model.PersonalStock, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT ps.engineer_id, ps.stock_id, ps.quantity,
		        s.name AS stock_name, u.username AS engineer_name
		 FROM personal_stocks ps
		 JOIN stocks s ON s.id = ps.stock_id
		 JOIN users u ON u.id = ps.engineer_id
		 ORDER BY u.username, s.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing personal stocks: %w", err)
	}
	defer rows.Close()

	return scanPersonalStocks(rows)
}

func scanPersonalStocks(rows *sql.Rows) ([]model.PersonalStock, error) {
	var stocks []model.PersonalStock
	for rows.Next() {
		var ps model.PersonalStock
		if err := rows.Scan(&ps.EngineerID, &ps.StockID, &ps.Quantity, &ps.StockName, &ps.EngineerName); err != nil {
			return nil, fmt.Errorf("scanning personal stock: %w", err)
		}
		stocks = append(stocks, ps)
	}
	return stocks, rows.Err()
}

// addPersonalStock adds quantity to an engineer's holdings of an item,
// creating the row if needed. Runs within the caller's transaction.
func addPersonalStock(ctx context.Context, ex execer, engineerID, stockID int64, quantity int) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO personal_stocks (engineer_id, stock_id, quantity) VALUES (?, ?, ?)
		 ON CONFLICT (engineer_id, stock_id) DO UPDATE SET quantity = quantity + ?`,
		engineerID, stockID, quantity, quantity,
	)
	if err != nil {
		return fmt.Errorf("adding personal stock: %w", err)
	}
	return nil
}

// decrementPersonalStock takes quantity units off an engineer's holdings as a
// single conditional update. Returns ErrInsufficientPersonalStock (holdings
// unchanged) when they can't cover it.
func decrementPersonalStock(ctx context.Context, ex execer, engineerID, stockID int64, quantity int) error {
	result, err := ex.ExecContext(ctx,
		`UPDATE personal_stocks SET quantity = quantity - ?
		 WHERE engineer_id = ? AND stock_id = ? AND quantity >= ?`,
		quantity, engineerID, stockID, quantity,
	)
	if err != nil {
		return fmt.Errorf("decrementing personal stock: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return ErrInsufficientPersonalStock
	}
	return nil
}
