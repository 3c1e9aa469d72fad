package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const userColumns = `id, email, first_name, last_name, position, role, password_hash, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(r rowScanner) (*User, error) {
	u := &User{}
	var role, createdAt, updatedAt string
	var active int
	if err := r.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Position, &role,
		&u.PasswordHash, &active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	u.Role = Role(role)
	u.IsActive = active == 1
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	u.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return u, nil
}

// CreateUser inserts u with a fresh ID and returns the stored row.
// Email uniqueness is case-insensitive.
func (s *Store) CreateUser(u User) (*User, error) {
	if u.Role == "" {
		u.Role = RoleEmployee
	}
	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339)
	active := 0
	if u.IsActive {
		active = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, strings.TrimSpace(u.Email), u.FirstName, u.LastName, u.Position, string(u.Role),
		u.PasswordHash, active, now, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetUser(id)
}

func (s *Store) GetUser(id string) (*User, error) {
	u, err := scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(email string) (*User, error) {
	u, err := scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, strings.TrimSpace(email),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns every account ordered by last then first name.
func (s *Store) ListUsers() ([]User, error) {
	return s.listUsers(`SELECT ` + userColumns + ` FROM users ORDER BY last_name, first_name`)
}

// ListEmployees returns accounts with the employee role.
func (s *Store) ListEmployees() ([]User, error) {
	return s.listUsers(`SELECT `+userColumns+` FROM users WHERE role = ? ORDER BY last_name, first_name`, string(RoleEmployee))
}

func (s *Store) listUsers(query string, args ...any) ([]User, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *Store) SetUserActive(id string, active bool) error {
	v := 0
	if active {
		v = 1
	}
	return s.updateUser(id, `is_active = ?`, v)
}

func (s *Store) SetUserRole(id string, role Role) error {
	return s.updateUser(id, `role = ?`, string(role))
}

func (s *Store) SetPasswordHash(id, hash string) error {
	return s.updateUser(id, `password_hash = ?`, hash)
}

func (s *Store) updateUser(id, set string, value any) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`UPDATE users SET `+set+`, updated_at = ? WHERE id = ?`, value, now, id)
	if err != nil {
		return fmt.Errorf("update user %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update user %s: %w", id, ErrNotFound)
	}
	return nil
}
