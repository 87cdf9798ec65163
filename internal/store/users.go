package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mklavora/fieldstock/internal/model"
)

// CreateUser creates a new account with the given role.
func CreateUser(ctx context.Context, db *sql.DB, username, fullName, passwordHash, role string) (*model.User, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO users (username, full_name, password_hash, role) VALUES (?, ?, ?, ?)`,
		username, fullName, passwordHash, role,
	)
	if isUniqueViolation(err) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID, or nil if no such user exists.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	u := &model.User{}
	var fullName sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, username, full_name, password_hash, role, created_at, deleted_at
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Username, &fullName, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	u.FullName = fullName.String
	return u, nil
}

// GetUserByUsername returns a user by username (case-insensitive, including
// soft-deleted accounts so login can reject them explicitly). When a deleted
// account shares the name with an active one, the active one wins.
func GetUserByUsername(ctx context.Context, db *sql.DB, username string) (*model.User, error) {
	u := &model.User{}
	var fullName sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, username, full_name, password_hash, role, created_at, deleted_at
		 FROM users WHERE username = ?
		 ORDER BY deleted_at IS NULL DESC, id DESC LIMIT 1`, username,
	).Scan(&u.ID, &u.Username, &fullName, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	u.FullName = fullName.String
	return u, nil
}

// CountUsersByRole returns the number of active accounts with the given role.
func CountUsersByRole(ctx context.Context, db *sql.DB, role string) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = ? AND deleted_at IS NULL`, role,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// ListUsersByRole returns all non-deleted accounts with the given role,
// ordered by username.
func ListUsersByRole(ctx context.Context, db *sql.DB, role string) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, username, full_name, password_hash, role, created_at, deleted_at
		 FROM users WHERE role = ? AND deleted_at IS NULL ORDER BY username`, role,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		var fullName sql.NullString
		if err := rows.Scan(&u.ID, &u.Username, &fullName, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		u.FullName = fullName.String
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUserFullName updates an account's display name.
func UpdateUserFullName(ctx context.Context, db *sql.DB, id int64, fullName string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET full_name = ? WHERE id = ? AND deleted_at IS NULL`,
		fullName, id,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return requireRowAffected(result)
}

// UpdateUserPassword updates an account's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id int64, passwordHash string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return requireRowAffected(result)
}

// DeleteUser soft-deletes an account. The username becomes reusable.
func DeleteUser(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return requireRowAffected(result)
}

// requireRowAffected converts a zero-row write into ErrNotFound.
func requireRowAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
