package service

import (
	"strings"
	"time"

	"pto-tracker/internal/models"
	"pto-tracker/internal/repository"
	"pto-tracker/pkg/timestamp"

	"github.com/sirupsen/logrus"
)

// LedgerDateFormat is the format the ledger date pickers submit.
const LedgerDateFormat = "02 January 2006"

// LedgerFilter holds the raw query values of the ledger.
type LedgerFilter struct {
	Name          string `form:"name" json:"name"`
	DateFrom      string `form:"date_from" json:"date_from"`
	DateTo        string `form:"date_to" json:"date_to"`
	DateFiledFrom string `form:"date_filed_from" json:"date_filed_from"`
	DateFiledTo   string `form:"date_filed_to" json:"date_filed_to"`
}

type LedgerRow struct {
	Email      string
	FirstName  string
	LastName   string
	Filed      time.Time
	TotalHours int
	Start      time.Time
	End        time.Time
	City       string
	Country    string
	Details    string
}

// Values is the row in export column order.
func (r LedgerRow) Values() []interface{} {
	return []interface{}{
		r.Email,
		r.FirstName,
		r.LastName,
		r.Filed.Format("2006-01-02"),
		r.TotalHours,
		r.Start.Format("2006-01-02"),
		r.End.Format("2006-01-02"),
		r.City,
		r.Country,
		r.Details,
	}
}

// LedgerPage is what the ledger screen needs besides the rows.
type LedgerPage struct {
	Filter         LedgerFilter `json:"filters"`
	FirstDate      *time.Time   `json:"first_date"`
	LastDate       *time.Time   `json:"last_date"`
	FirstFiledDate *time.Time   `json:"first_filed_date"`
	Today          time.Time    `json:"today"`
}

type LedgerService struct {
	store  *repository.Store
	logger *logrus.Logger
}

func NewLedgerService(store *repository.Store) *LedgerService {
	return &LedgerService{store: store, logger: logrus.StandardLogger()}
}

// Page returns the bounds used to seed the ledger date pickers.
func (s *LedgerService) Page(filter LedgerFilter, today time.Time) (*LedgerPage, error) {
	bounds, err := s.store.Entries.GetBounds()
	if err != nil {
		return nil, err
	}
	return &LedgerPage{
		Filter:         filter,
		FirstDate:      bounds.FirstDate,
		LastDate:       bounds.LastDate,
		FirstFiledDate: bounds.FirstFiledDate,
		Today:          today,
	}, nil
}

// Rows returns the finalized entries matching every supplied criterion.
// A date that cannot be parsed matches nothing.
func (s *LedgerService) Rows(filter LedgerFilter) ([]LedgerRow, error) {
	var q repository.EntryFilter

	dates := []struct {
		raw    string
		target **time.Time
		shift  int
	}{
		{filter.DateFrom, &q.EndFrom, 0},
		{filter.DateTo, &q.StartTo, 0},
		{filter.DateFiledFrom, &q.AddedFrom, 0},
		{filter.DateFiledTo, &q.AddedBefore, 1},
	}
	for _, d := range dates {
		if strings.TrimSpace(d.raw) == "" {
			continue
		}
		t, err := timestamp.ParseInputDate(d.raw, LedgerDateFormat)
		if err != nil {
			s.logger.Debugf("ledger filter: %v", err)
			return []LedgerRow{}, nil
		}
		t = t.AddDate(0, 0, d.shift)
		*d.target = &t
	}

	if name := strings.TrimSpace(filter.Name); name != "" {
		ids, err := s.matchingUserIDs(name)
		if err != nil {
			return nil, err
		}
		q.UserIDs = ids
	}

	entries, err := s.store.Entries.GetFinalized(q)
	if err != nil {
		return nil, err
	}
	return s.rows(entries)
}

func (s *LedgerService) matchingUserIDs(name string) ([]uint, error) {
	users, err := s.store.Users.GetAll()
	if err != nil {
		return nil, err
	}
	ids := []uint{}
	for i := range users {
		if MatchesName(&users[i], name) {
			ids = append(ids, users[i].ID)
		}
	}
	return ids, nil
}

// MatchesName reports whether the query is a case-insensitive substring of
// the user's first name, last name, email, "first last" or "last first".
func MatchesName(u *models.User, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	first, last := strings.ToLower(u.FirstName), strings.ToLower(u.LastName)
	for _, candidate := range []string{
		first,
		last,
		strings.ToLower(u.Email),
		first + " " + last,
		last + " " + first,
	} {
		if strings.Contains(candidate, q) {
			return true
		}
	}
	return false
}

func (s *LedgerService) rows(entries []models.Entry) ([]LedgerRow, error) {
	userIDs := make([]uint, 0, len(entries))
	seen := make(map[uint]bool)
	for _, e := range entries {
		if !seen[e.UserID] {
			seen[e.UserID] = true
			userIDs = append(userIDs, e.UserID)
		}
	}
	profiles, err := s.store.Profiles.GetByUserIDs(userIDs)
	if err != nil {
		return nil, err
	}
	byUser := make(map[uint]models.UserProfile, len(profiles))
	for _, p := range profiles {
		byUser[p.UserID] = p
	}

	rows := make([]LedgerRow, 0, len(entries))
	for _, e := range entries {
		p := byUser[e.UserID]
		rows = append(rows, LedgerRow{
			Email:      e.User.Email,
			FirstName:  e.User.FirstName,
			LastName:   e.User.LastName,
			Filed:      e.AddDate,
			TotalHours: *e.TotalHours,
			Start:      e.Start,
			End:        e.End,
			City:       p.City,
			Country:    p.Country,
			Details:    e.Details,
		})
	}
	return rows, nil
}
