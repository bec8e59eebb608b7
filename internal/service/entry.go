package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pto-tracker/internal/config"
	"pto-tracker/internal/directory"
	"pto-tracker/internal/models"
	"pto-tracker/internal/repository"
	"pto-tracker/pkg/weekends"

	"github.com/sirupsen/logrus"
)

// BirthdayValue is the submitted hours value meaning "birthday, full day
// off, zero hours".
const BirthdayValue = -1

// Directory is the part of the people directory the services need.
type Directory interface {
	FetchUserDetails(email string) (*directory.Record, error)
}

type DraftInput struct {
	Start   time.Time
	End     time.Time
	Details string
	Notify  string
}

// HoursDay is one weekday row of the hours form.
type HoursDay struct {
	Date    time.Time `json:"date"`
	Field   string    `json:"field"`
	Label   string    `json:"label"`
	Initial int       `json:"initial"`
	Note    string    `json:"note,omitempty"`
}

type HoursChoice struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

type HoursForm struct {
	Entry      *models.Entry `json:"entry"`
	Days       []HoursDay    `json:"days"`
	Choices    []HoursChoice `json:"choices"`
	TotalHours int           `json:"total_hours"`
	Notify     []string      `json:"notify"`
}

type FinalizeResult struct {
	Entry    *models.Entry
	IsEdit   bool
	Reversal *models.Entry
}

// Recipient is an address that was notified, with its directory record
// when one was found.
type Recipient struct {
	Email  string            `json:"email"`
	Record *directory.Record `json:"record,omitempty"`
}

type EntryService struct {
	store      *repository.Store
	dir        Directory
	workDay    int
	dateFormat string
	blacklist  []string
	logger     *logrus.Logger
}

func NewEntryService(store *repository.Store, dir Directory, cfg *config.Config) *EntryService {
	return &EntryService{
		store:      store,
		dir:        dir,
		workDay:    cfg.WorkDay,
		dateFormat: cfg.DefaultDateFormat,
		blacklist:  cfg.EmailBlacklist,
		logger:     logrus.StandardLogger(),
	}
}

// FieldName is the form key of a day, e.g. "d-20180101".
func FieldName(date time.Time) string {
	return date.Format("d-20060102")
}

// CreateDraftEntry stores a new unfinished entry for the actor and removes
// the actor's other drafts.
func (s *EntryService) CreateDraftEntry(actor *models.User, in DraftInput) (*models.Entry, error) {
	verr := &ValidationError{}
	if in.Start.IsZero() {
		verr.add("start", "This field is required.")
	}
	if in.End.IsZero() {
		verr.add("end", "This field is required.")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	start, end := weekends.Truncate(in.Start), weekends.Truncate(in.End)
	if start.After(end) {
		verr.add("", "Start can't be after end")
	}

	notify, err := ParseNotifyList(in.Notify, s.blacklist)
	if err != nil {
		if nerr, ok := err.(*ValidationError); ok {
			verr.merge(nerr)
		} else {
			return nil, err
		}
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	entry := &models.Entry{
		UserID:      actor.ID,
		Start:       start,
		End:         end,
		Details:     strings.TrimSpace(strings.ReplaceAll(in.Details, "\r\n", "\n")),
		NotifyExtra: JoinNotifyList(notify),
	}

	err = s.store.Transaction(func(tx *repository.Store) error {
		if err := tx.Entries.Create(entry); err != nil {
			return fmt.Errorf("failed to create entry: %w", err)
		}
		_, err := reconcileDrafts(tx, actor.ID, entry.ID, s.logger)
		return err
	})
	if err != nil {
		return nil, err
	}

	entry.User = *actor
	s.logger.Infof("Created draft %s", entry)
	return entry, nil
}

// ReconcileDrafts deletes every draft of the user except keepID.
func (s *EntryService) ReconcileDrafts(userID, keepID uint) (int64, error) {
	return reconcileDrafts(s.store, userID, keepID, s.logger)
}

func reconcileDrafts(store *repository.Store, userID, keepID uint, logger *logrus.Logger) (int64, error) {
	deleted, err := store.Entries.DeleteDraftsByUser(userID, keepID)
	if err != nil {
		return 0, fmt.Errorf("failed to clean unfinished entries: %w", err)
	}
	if deleted > 0 {
		logger.Infof("Removed %d unfinished entries of user %d", deleted, userID)
	}
	return deleted, nil
}

// GetEntry loads an entry the actor may act on.
func (s *EntryService) GetEntry(actor *models.User, id uint) (*models.Entry, error) {
	entry, err := s.store.Entries.GetByID(id)
	if err != nil {
		return nil, translate(err)
	}
	if entry.UserID != actor.ID && !actor.IsPrivileged() {
		return nil, ErrForbidden
	}
	return entry, nil
}

func (s *EntryService) choices() []HoursChoice {
	return []HoursChoice{
		{Value: s.workDay, Label: fmt.Sprintf("Full day (%dh)", s.workDay)},
		{Value: s.workDay / 2, Label: fmt.Sprintf("Half day (%dh)", s.workDay/2)},
		{Value: 0, Label: "0 hrs"},
		{Value: BirthdayValue, Label: "Birthday"},
	}
}

// HoursForm prepares the per-day allocation step of an entry.
func (s *EntryService) HoursForm(actor *models.User, id uint) (*HoursForm, error) {
	entry, err := s.GetEntry(actor, id)
	if err != nil {
		return nil, err
	}

	dates := weekends.WeekdayDates(entry.Start, entry.End)

	existing, err := s.store.Hours.GetByEntry(entry.ID)
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]models.Hours, len(existing))
	for _, h := range existing {
		byDate[FieldName(h.Date)] = h
	}

	logged, err := s.store.Hours.GetByUserOnDates(entry.UserID, dates, entry.ID)
	if err != nil {
		return nil, err
	}
	loggedByDate := make(map[string]int)
	for _, h := range logged {
		loggedByDate[FieldName(h.Date)] += h.Hours
	}

	form := &HoursForm{
		Entry:   entry,
		Choices: s.choices(),
		Notify:  SplitNotifyList(entry.NotifyExtra),
	}

	estimate := 0
	for _, d := range dates {
		field := FieldName(d)
		day := HoursDay{
			Date:    d,
			Field:   field,
			Label:   d.Format(s.dateFormat),
			Initial: s.workDay,
		}
		if h, ok := byDate[field]; ok {
			day.Initial = h.Hours
			if h.Birthday {
				day.Initial = BirthdayValue
			}
			estimate += h.Hours
		} else {
			estimate += s.workDay
		}
		if n, ok := loggedByDate[field]; ok && n != 0 {
			day.Note = fmt.Sprintf("Already logged %d hours on this day", n)
		}
		form.Days = append(form.Days, day)
	}

	if entry.TotalHours != nil {
		form.TotalHours = *entry.TotalHours
	} else {
		form.TotalHours = estimate
	}
	return form, nil
}

// FinalizeHours validates the submitted value of every weekday of the
// entry and, only when all are valid, writes the hours and the total in one
// transaction.
func (s *EntryService) FinalizeHours(actor *models.User, id uint, values map[string]string) (*FinalizeResult, error) {
	entry, err := s.GetEntry(actor, id)
	if err != nil {
		return nil, err
	}

	dates := weekends.WeekdayDates(entry.Start, entry.End)
	parsed, err := s.parseHours(dates, values)
	if err != nil {
		return nil, err
	}

	result := &FinalizeResult{Entry: entry, IsEdit: entry.TotalHours != nil}

	err = s.store.Transaction(func(tx *repository.Store) error {
		total := 0
		for i, d := range dates {
			hours, birthday := parsed[i], false
			if hours == BirthdayValue {
				hours, birthday = 0, true
			}
			row := &models.Hours{EntryID: entry.ID, Date: d, Hours: hours, Birthday: birthday}
			if err := tx.Hours.Upsert(row); err != nil {
				return fmt.Errorf("failed to save hours for %s: %w", d.Format("2006-01-02"), err)
			}
			total += hours
		}

		entry.TotalHours = models.IntPtr(total)
		if err := tx.Entries.Update(entry); err != nil {
			return fmt.Errorf("failed to save entry total: %w", err)
		}

		reversal, err := s.reverseOverlaps(tx, entry, dates)
		if err != nil {
			return err
		}
		result.Reversal = reversal
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"entry":   entry.ID,
		"user":    entry.UserID,
		"total":   *entry.TotalHours,
		"is_edit": result.IsEdit,
	}).Info("PTO hours logged")
	return result, nil
}

func (s *EntryService) parseHours(dates []time.Time, values map[string]string) ([]int, error) {
	verr := &ValidationError{}
	parsed := make([]int, len(dates))

	for i, d := range dates {
		field := FieldName(d)
		raw, ok := values[field]
		if !ok || strings.TrimSpace(raw) == "" {
			verr.add(field, "This field is required.")
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			verr.add(field, "Enter a whole number.")
			continue
		}
		if v < BirthdayValue || v > s.workDay {
			verr.add(field, fmt.Sprintf("Select a value between %d and %d.", BirthdayValue, s.workDay))
			continue
		}
		parsed[i] = v

		if i == 0 && v == 0 {
			verr.add("", "First date can't be 0 hours")
		} else if i == len(dates)-1 && v == 0 {
			verr.add("", "Last date can't be 0 hours")
		}
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return parsed, nil
}

// reverseOverlaps cancels what the user already has on the entry's days
// through other finalized entries, so that re-filing a day does not count
// it twice.
func (s *EntryService) reverseOverlaps(tx *repository.Store, entry *models.Entry, dates []time.Time) (*models.Entry, error) {
	others, err := tx.Hours.GetByUserOnDates(entry.UserID, dates, entry.ID)
	if err != nil {
		return nil, err
	}

	net := make(map[string]int)
	var order []time.Time
	for _, h := range others {
		key := FieldName(h.Date)
		if _, ok := net[key]; !ok {
			order = append(order, weekends.Truncate(h.Date))
		}
		net[key] += h.Hours
	}

	var rows []models.Hours
	total := 0
	for _, d := range order {
		if n := net[FieldName(d)]; n != 0 {
			rows = append(rows, models.Hours{Date: d, Hours: -n})
			total -= n
		}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	reversal := &models.Entry{
		UserID:     entry.UserID,
		Start:      rows[0].Date,
		End:        rows[len(rows)-1].Date,
		TotalHours: models.IntPtr(total),
		Details:    fmt.Sprintf("Reversal of hours re-filed in entry %d", entry.ID),
	}
	if err := tx.Entries.Create(reversal); err != nil {
		return nil, fmt.Errorf("failed to create reversal: %w", err)
	}
	for i := range rows {
		rows[i].EntryID = reversal.ID
		if err := tx.Hours.Create(&rows[i]); err != nil {
			return nil, fmt.Errorf("failed to create reversal hours: %w", err)
		}
	}

	s.logger.Infof("Reversed %d hours over %d days for entry %d", -total, len(rows), entry.ID)
	return reversal, nil
}

// EmailsSent resolves the addresses an entry was sent to.
func (s *EntryService) EmailsSent(actor *models.User, id uint, emails []string) ([]Recipient, error) {
	if _, err := s.GetEntry(actor, id); err != nil {
		return nil, err
	}

	recipients := make([]Recipient, 0, len(emails))
	for _, email := range emails {
		r := Recipient{Email: email}
		if s.dir != nil {
			record, err := s.dir.FetchUserDetails(email)
			if err != nil {
				s.logger.WithError(err).Warnf("directory lookup of %s failed", email)
			}
			r.Record = record
		}
		recipients = append(recipients, r)
	}
	return recipients, nil
}
