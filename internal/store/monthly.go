package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// GetMonthlyData returns the days stored for (userID, year, month).
// A month that was never saved reads as an empty, non-nil record.
func (s *Store) GetMonthlyData(userID string, year int, month time.Month) (MonthRecord, error) {
	data, err := getMonth(s.db, userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("get monthly data %s %04d-%02d: %w", userID, year, int(month), err)
	}
	return data, nil
}

// SaveMonthlyData merges days into the stored month: dates present in
// days replace the stored ones whole, other stored dates are kept.
func (s *Store) SaveMonthlyData(userID string, year int, month time.Month, days MonthRecord) error {
	return s.SaveMonths(userID, []MonthPatch{{Year: year, Month: month, Days: days}})
}

// SaveMonths applies several month merges in one transaction.
func (s *Store) SaveMonths(userID string, patches []MonthPatch) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for _, p := range patches {
		if err := mergeMonth(tx, userID, p); err != nil {
			return fmt.Errorf("save monthly data %s %04d-%02d: %w", userID, p.Year, int(p.Month), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func getMonth(q querier, userID string, year int, month time.Month) (MonthRecord, error) {
	var raw string
	err := q.QueryRow(
		`SELECT data FROM monthly_data WHERE user_id = ? AND year = ? AND month = ?`,
		userID, year, int(month),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return MonthRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeMonth(raw)
}

func mergeMonth(q querier, userID string, p MonthPatch) error {
	current, err := getMonth(q, userID, p.Year, p.Month)
	if err != nil {
		return err
	}
	for date, day := range p.Days {
		if day.Activities == nil {
			day.Activities = []Activity{}
		}
		current[date] = day
	}
	raw, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("encode month: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = q.Exec(
		`INSERT INTO monthly_data (user_id, year, month, data, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, year, month) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		userID, p.Year, int(p.Month), string(raw), now,
	)
	return err
}

func decodeMonth(raw string) (MonthRecord, error) {
	data := MonthRecord{}
	if raw == "" {
		return data, nil
	}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("decode month: %w", err)
	}
	return data, nil
}

// ListMonthlyData returns every stored month of one user, oldest first.
func (s *Store) ListMonthlyData(userID string) ([]MonthDocument, error) {
	return s.listMonths(`WHERE user_id = ? ORDER BY year, month`, userID)
}

// ListMonthDocuments returns every stored month of every user.
func (s *Store) ListMonthDocuments() ([]MonthDocument, error) {
	return s.listMonths(`ORDER BY user_id, year, month`)
}

// ListMonthDocumentsFor returns all users' documents for one month.
func (s *Store) ListMonthDocumentsFor(year int, month time.Month) ([]MonthDocument, error) {
	return s.listMonths(`WHERE year = ? AND month = ? ORDER BY user_id`, year, int(month))
}

func (s *Store) listMonths(where string, args ...any) ([]MonthDocument, error) {
	rows, err := s.db.Query(`SELECT user_id, year, month, data, updated_at FROM monthly_data `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list monthly data: %w", err)
	}
	defer rows.Close()

	var docs []MonthDocument
	for rows.Next() {
		var d MonthDocument
		var month int
		var raw, updatedAt string
		if err := rows.Scan(&d.UserID, &d.Year, &month, &raw, &updatedAt); err != nil {
			return nil, err
		}
		d.Month = time.Month(month)
		d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		if d.Data, err = decodeMonth(raw); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
