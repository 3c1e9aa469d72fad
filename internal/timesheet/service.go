package timesheet

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/suivi/internal/store"
)

// Store is the persistence the service needs; *store.Store satisfies it.
type Store interface {
	GetMonthlyData(userID string, year int, month time.Month) (store.MonthRecord, error)
	SaveMonths(userID string, patches []store.MonthPatch) error
	GetPreference(userID, key string) (string, error)
}

type Service struct {
	store   Store
	catalog Catalog
	logger  *zap.Logger
}

func NewService(s Store, cat Catalog, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: s, catalog: cat, logger: logger}
}

func (s *Service) Catalog() Catalog { return s.catalog }

// LoadWeek reads the stored days of the week containing anchor and opens
// an empty draft seeded with the user's default flags.
func (s *Service) LoadWeek(userID string, anchor time.Time) (SessionDraft, error) {
	if userID == "" {
		return SessionDraft{}, ErrUnauthenticated
	}
	week := ComputeWeekBounds(anchor)

	saved := store.MonthRecord{}
	for _, ym := range week.Months() {
		rec, err := s.store.GetMonthlyData(userID, ym.Year, ym.Month)
		if err != nil {
			s.logger.Error("load week", zap.String("user", userID), zap.String("month", ym.String()), zap.Error(err))
			return SessionDraft{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		for k, v := range rec {
			saved[k] = v
		}
	}

	telework := s.weekdayPreference(userID, store.PrefTeleworkDays)
	restaurant := s.weekdayPreference(userID, store.PrefVoucherDays)
	return NewDraft(week, saved, telework, restaurant), nil
}

func (s *Service) weekdayPreference(userID, key string) [7]bool {
	v, err := s.store.GetPreference(userID, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("read preference", zap.String("user", userID), zap.String("key", key), zap.Error(err))
		}
		return [7]bool{}
	}
	return ParseWeekdaySet(v)
}

// SubmitWeek validates the draft and replaces the seven stored days of its
// week in one write. On error the draft is returned unchanged.
func (s *Service) SubmitWeek(userID string, d SessionDraft) (SessionDraft, error) {
	if userID == "" {
		return d, ErrUnauthenticated
	}

	rows := d.Rows()
	for i := range rows {
		rows[i] = s.catalog.Normalize(rows[i])
	}
	days, err := RowsToDayRecords(rows, d.Week.Dates(), d.Telework, d.Restaurant)
	if err != nil {
		return d, err
	}
	if err := s.catalog.CheckRows(rows); err != nil {
		return d, err
	}

	if err := s.store.SaveMonths(userID, splitByMonth(d.Week, days)); err != nil {
		s.logger.Error("submit week", zap.String("user", userID), zap.Int("week", d.Week.Week), zap.Error(err))
		return d, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	s.logger.Info("week submitted",
		zap.String("user", userID),
		zap.Int("year", d.Week.Year),
		zap.Int("week", d.Week.Week),
		zap.Int("rows", len(rows)))
	return d.Submitted(days), nil
}

func splitByMonth(week WeekBounds, days map[string]store.DayRecord) []store.MonthPatch {
	var patches []store.MonthPatch
	for _, ym := range week.Months() {
		p := store.MonthPatch{Year: ym.Year, Month: ym.Month, Days: store.MonthRecord{}}
		for _, date := range week.Dates() {
			if date.Year() != ym.Year || date.Month() != ym.Month {
				continue
			}
			key := date.Format(DateLayout)
			if rec, ok := days[key]; ok {
				p.Days[key] = rec
			}
		}
		patches = append(patches, p)
	}
	return patches
}

// LoadMonth returns the stored days of one month.
func (s *Service) LoadMonth(userID string, year int, month time.Month) (store.MonthRecord, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	rec, err := s.store.GetMonthlyData(userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return rec, nil
}
