package store

import (
	"database/sql"
	"errors"
	"fmt"
)

const (
	PrefTeleworkDays = "telework_days"
	PrefVoucherDays  = "voucher_days"
)

// GetPreference returns the value stored under key for userID, or
// ErrNotFound.
func (s *Store) GetPreference(userID, key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE user_id = ? AND key = ?`, userID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get preference %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get preference %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetPreference(userID, key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO preferences (user_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, key) DO UPDATE SET value = excluded.value`,
		userID, key, value,
	)
	if err != nil {
		return fmt.Errorf("set preference %q: %w", key, err)
	}
	return nil
}

func (s *Store) ListPreferences(userID string) ([]Preference, error) {
	rows, err := s.db.Query(`SELECT key, value FROM preferences WHERE user_id = ? ORDER BY key`, userID)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	defer rows.Close()

	var prefs []Preference
	for rows.Next() {
		var p Preference
		if err := rows.Scan(&p.Key, &p.Value); err != nil {
			return nil, err
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}
