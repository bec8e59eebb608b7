package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"pto-tracker/internal/config"
	"pto-tracker/internal/models"
	"pto-tracker/internal/repository"
	"pto-tracker/pkg/timestamp"
	"pto-tracker/pkg/weekends"

	"github.com/sirupsen/logrus"
)

// DefaultMigrationCap is how many legacy rows one run moves unless All is set.
const DefaultMigrationCap = 1000

var errDryRun = errors.New("dry run")

type MigrateOptions struct {
	DryRun bool
	All    bool
}

type MigrateResult struct {
	Migrated int
	Broken   []uint
	Capped   bool
	DryRun   bool
}

// LegacyMigrationService moves rows of the old single-table PTO tool into
// entries and hours.
type LegacyMigrationService struct {
	store   *repository.Store
	workDay int
	logger  *logrus.Logger
}

func NewLegacyMigrationService(store *repository.Store, cfg *config.Config) *LegacyMigrationService {
	return &LegacyMigrationService{store: store, workDay: cfg.WorkDay, logger: logrus.StandardLogger()}
}

// Migrate runs in one transaction. A dry run rolls it back at the end.
func (s *LegacyMigrationService) Migrate(opts MigrateOptions) (*MigrateResult, error) {
	total, err := s.store.LegacyPtos.Count()
	if err != nil {
		return nil, err
	}
	limit := DefaultMigrationCap
	if opts.All {
		limit = int(total)
	}

	result := &MigrateResult{DryRun: opts.DryRun, Capped: int64(limit) < total}
	if result.Capped {
		s.logger.Infof("Capped to the first %d of %d rows", limit, total)
	}

	err = s.store.Transaction(func(tx *repository.Store) error {
		rows, err := tx.LegacyPtos.GetFirst(limit)
		if err != nil {
			return err
		}

		users := make(map[string]*models.User)
		for i := range rows {
			ok, err := s.migrateRow(tx, users, &rows[i])
			if err != nil {
				return fmt.Errorf("failed to migrate legacy row %d: %w", rows[i].ID, err)
			}
			if !ok {
				result.Broken = append(result.Broken, rows[i].ID)
				continue
			}
			result.Migrated++
		}

		if opts.DryRun {
			return errDryRun
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDryRun) {
		return nil, err
	}

	if opts.DryRun {
		s.logger.Infof("Dry run: %d rows would be migrated, rolled back", result.Migrated)
	} else {
		s.logger.Infof("Migrated %d PTO entries", result.Migrated)
	}
	return result, nil
}

// migrateRow returns false for a row whose hours cannot be reconstructed.
func (s *LegacyMigrationService) migrateRow(tx *repository.Store, users map[string]*models.User, row *models.LegacyPto) (bool, error) {
	added := epochDate(row.Added)
	start := epochDate(row.Start)
	end := epochDate(row.End)

	if row.Hours != math.Trunc(row.Hours) {
		s.reportBroken(row, "fractional hours")
		return false, nil
	}
	total := int(row.Hours)

	var daily map[time.Time]int
	if strings.TrimSpace(row.HoursDaily) != "" {
		parsed, err := parseHoursDaily(row.HoursDaily)
		if err != nil {
			s.reportBroken(row, err.Error())
			return false, nil
		}
		sum := 0
		for _, h := range parsed {
			sum += h
		}
		if sum != total {
			s.reportBroken(row, fmt.Sprintf("daily hours add up to %d", sum))
			return false, nil
		}
		daily = parsed
	} else {
		spread, ok := spreadHours(total, start, end, s.workDay)
		if !ok {
			s.reportBroken(row, "hours can't be spread over the dates")
			return false, nil
		}
		daily = spread
	}

	user, err := legacyUser(tx, users, row.Person)
	if err != nil {
		return false, err
	}

	entry := &models.Entry{
		UserID:     user.ID,
		Start:      start,
		End:        end,
		TotalHours: models.IntPtr(total),
		Details:    strings.TrimSpace(row.Details),
		AddDate:    added,
		ModifyDate: added,
	}
	if err := tx.Entries.Create(entry); err != nil {
		return false, err
	}
	for d, h := range daily {
		if err := tx.Hours.Create(&models.Hours{EntryID: entry.ID, Date: d, Hours: h}); err != nil {
			return false, err
		}
	}
	return true, tx.LegacyPtos.Delete(row.ID)
}

func legacyUser(tx *repository.Store, users map[string]*models.User, email string) (*models.User, error) {
	if u, ok := users[email]; ok {
		return u, nil
	}

	u, err := tx.Users.GetByEmail(email)
	if errors.Is(err, repository.ErrNotFound) {
		u = &models.User{Username: strings.SplitN(email, "@", 2)[0], Email: email}
		if err := tx.Users.Create(u); err != nil {
			return nil, err
		}
		if _, err := ensureProfile(tx, u); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	users[email] = u
	return u, nil
}

func (s *LegacyMigrationService) reportBroken(row *models.LegacyPto, reason string) {
	s.logger.WithFields(logrus.Fields{
		"id":     row.ID,
		"person": row.Person,
		"added":  epochDate(row.Added).Format("2006-01-02"),
		"hours":  row.Hours,
		"start":  epochDate(row.Start).Format("2006-01-02"),
		"end":    epochDate(row.End).Format("2006-01-02"),
	}).Warnf("Broken legacy PTO: %s", reason)
}

// parseHoursDaily reads the JSON object of timestamp -> hours. Keys are unix
// epochs or datetime strings.
func parseHoursDaily(raw string) (map[time.Time]int, error) {
	var values map[string]float64
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("invalid hours_daily: %w", err)
	}

	daily := make(map[time.Time]int, len(values))
	for key, v := range values {
		var d time.Time
		if epoch, err := strconv.ParseInt(key, 10, 64); err == nil {
			d = epochDate(epoch)
		} else {
			parsed, err := timestamp.Parse(key)
			if err != nil {
				return nil, err
			}
			d = weekends.Truncate(parsed)
		}
		daily[d] += int(math.Round(v))
	}
	return daily, nil
}

// spreadHours reconstructs daily hours for rows that only kept a total. When
// the total covers every day of [start, end) as a full work day each day gets
// one; otherwise the total is dealt out in 4 hour chunks over the weekdays.
func spreadHours(total int, start, end time.Time, workDay int) (map[time.Time]int, bool) {
	daily := make(map[time.Time]int)
	span := int(end.Sub(start).Hours() / 24)

	if workDay > 0 && total%workDay == 0 && total/workDay == span {
		for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
			daily[d] = workDay
		}
		return daily, true
	}

	if total%4 != 0 {
		return nil, false
	}
	dates := weekends.WeekdayDates(start, end)
	if len(dates) == 0 {
		return nil, false
	}
	for _, d := range dates {
		daily[d] = 0
	}
	for i := 0; total > 0; i++ {
		daily[dates[i%len(dates)]] += 4
		total -= 4
	}
	return daily, true
}

func epochDate(epoch int64) time.Time {
	return weekends.Truncate(time.Unix(epoch, 0).UTC())
}
