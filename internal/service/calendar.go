package service

import (
	"fmt"
	"time"

	"pto-tracker/internal/config"
	"pto-tracker/internal/models"
	"pto-tracker/internal/repository"
	"pto-tracker/pkg/weekends"

	"github.com/sirupsen/logrus"
)

var calendarColors = []string{
	"#EAA228", "#c5b47f", "#579575", "#839557", "#958c12",
	"#953579", "#4b5de4", "#d8b83f", "#ff5800", "#0085cc",
	"#c747a3", "#cddf54", "#FBD178", "#26B4E3", "#bd70c7",
}

// mondayFirstCountries start their calendar week on Monday.
var mondayFirstCountries = map[string]bool{"GB": true, "FR": true, "DE": true}

type CalendarEvent struct {
	ID    uint    `json:"id"`
	Title string  `json:"title"`
	Start string  `json:"start"`
	End   string  `json:"end"`
	Color *string `json:"color"`
}

// Absence is someone on PTO on a given day.
type Absence struct {
	User     models.User `json:"user"`
	EntryID  uint        `json:"entry_id"`
	End      time.Time   `json:"end"`
	DaysLeft int         `json:"days_left"`
	Details  string      `json:"details"`
}

type Dashboard struct {
	FirstDay int       `json:"first_day"`
	OnPTO    []Absence `json:"on_pto"`
}

type CalendarService struct {
	store    *repository.Store
	users    *UserService
	maxDepth int
	logger   *logrus.Logger
}

func NewCalendarService(store *repository.Store, users *UserService, cfg *config.Config) *CalendarService {
	return &CalendarService{
		store:    store,
		users:    users,
		maxDepth: cfg.CalendarMinionDepth,
		logger:   logrus.StandardLogger(),
	}
}

// Events returns the finalized entries of the actor and their minions that
// touch [start, end].
func (s *CalendarService) Events(actor *models.User, start, end time.Time) ([]CalendarEvent, error) {
	minions, err := s.users.GetMinions(actor, s.maxDepth)
	if err != nil {
		return nil, err
	}

	userIDs := []uint{actor.ID}
	colors := map[uint]*string{actor.ID: nil}
	palette := append([]string(nil), calendarColors...)
	for _, m := range minions {
		if len(palette) == 0 {
			palette = append(palette, calendarColors...)
		}
		color := palette[len(palette)-1]
		palette = palette[:len(palette)-1]

		userIDs = append(userIDs, m.ID)
		colors[m.ID] = &color
	}

	entries, err := s.store.Entries.GetFinalizedOverlapping(userIDs, weekends.Truncate(start), weekends.Truncate(end))
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	birthdays, err := s.store.Hours.BirthdayEntryIDs(ids)
	if err != nil {
		return nil, err
	}

	events := make([]CalendarEvent, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		events = append(events, CalendarEvent{
			ID:    e.ID,
			Title: EventTitle(e, actor, birthdays[e.ID]),
			Start: e.Start.Format("2006-01-02"),
			End:   e.End.Format("2006-01-02"),
			Color: colors[e.UserID],
		})
	}
	return events, nil
}

// EventTitle describes an entry on the calendar. Other people's entries are
// prefixed with their name.
func EventTitle(entry *models.Entry, viewer *models.User, hasBirthday bool) string {
	title := ""
	if entry.UserID != viewer.ID {
		if entry.User.FirstName != "" {
			title = fmt.Sprintf("%s %s - ", entry.User.FirstName, entry.User.LastName)
		} else {
			title = entry.User.Username + " - "
		}
	}

	total := 0
	if entry.TotalHours != nil {
		total = *entry.TotalHours
	}

	days := weekends.DaysInclusive(entry.Start, entry.End)
	switch {
	case days > 1:
		title += fmt.Sprintf("%d days", days)
		if hasBirthday {
			title += " (includes birthday)"
		}
	case days == 1 && total == 0 && hasBirthday:
		title += "Birthday!"
	default:
		title += fmt.Sprintf("%d hours", total)
	}

	if entry.Details != "" {
		maxLength := 40
		if days == 1 {
			maxLength = 20
		}
		title += ", " + truncate(entry.Details, maxLength)
	}
	return title
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

// Dashboard lists who is out today and which weekday the actor's calendar
// starts on (0 Sunday, 1 Monday).
func (s *CalendarService) Dashboard(actor *models.User, today time.Time) (*Dashboard, error) {
	today = weekends.Truncate(today)
	d := &Dashboard{}

	profile, err := s.users.EnsureProfile(actor)
	if err != nil {
		return nil, err
	}
	if mondayFirstCountries[profile.Country] {
		d.FirstDay = 1
	}

	d.OnPTO, err = s.OutOn(today)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// OutOn lists everyone with a finalized entry covering the day.
func (s *CalendarService) OutOn(day time.Time) ([]Absence, error) {
	day = weekends.Truncate(day)
	entries, err := s.store.Entries.GetActiveOn(day)
	if err != nil {
		return nil, err
	}

	var out []Absence
	for _, e := range entries {
		out = append(out, Absence{
			User:     e.User,
			EntryID:  e.ID,
			End:      e.End,
			DaysLeft: len(weekends.WeekdayDates(day, e.End)),
			Details:  e.Details,
		})
	}
	return out, nil
}

// WhoIsOut formats the absences of a day as plain text.
func WhoIsOut(absences []Absence) string {
	if len(absences) == 0 {
		return "Nobody is on PTO today."
	}
	text := "On PTO today:\n"
	for _, a := range absences {
		u := a.User
		text += fmt.Sprintf("- %s, back after %s (%d working days left)\n",
			u.DisplayName(), a.End.Format("Mon Jan 2"), a.DaysLeft)
	}
	return text
}
