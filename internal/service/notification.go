package service

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"pto-tracker/internal/config"
	"pto-tracker/internal/directory"
	"pto-tracker/internal/models"
	"pto-tracker/internal/repository"
	"pto-tracker/pkg/mailer"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	calendarFilename    = "event.ics"
	calendarContentType = "text/calendar"
	calendarProductID   = "-//pto-tracker//PTO notification//EN"
)

var bodyTemplate = template.Must(template.New("notification").Parse(
	`{{.User.DisplayName}} ({{.User.Email}}) {{if .IsEdit}}has changed their PTO{{else}}is going on PTO{{end}}.

From:  {{.StartDate}}
To:    {{.EndDate}}
Hours: {{.TotalHours}}
{{- with .Entry.Details}}

{{.}}
{{- end}}

--
{{.Signature}}
`))

// Mailer delivers a composed message.
type Mailer interface {
	Send(msg *mailer.Message) error
}

// Notifier gets a one line summary of every sent notification.
type Notifier interface {
	Notify(text string) error
}

// Notification is what was sent for an entry.
type Notification struct {
	Subject    string
	Body       string
	Summary    string
	Recipients []string
	Sent       bool
}

type subjectData struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
}

type NotificationService struct {
	store    *repository.Store
	dir      Directory
	mailer   Mailer
	notifier Notifier
	cfg      *config.Config
	now      func() time.Time
	logger   *logrus.Logger
}

func NewNotificationService(store *repository.Store, dir Directory, m Mailer, notifier Notifier, cfg *config.Config) *NotificationService {
	return &NotificationService{
		store:    store,
		dir:      dir,
		mailer:   m,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
		logger:   logrus.StandardLogger(),
	}
}

// Send mails the PTO notification of a finalized entry.
func (s *NotificationService) Send(entry *models.Entry, extra []string, isEdit bool) (*Notification, error) {
	if entry.TotalHours == nil {
		return nil, fmt.Errorf("entry %d has no hours yet", entry.ID)
	}
	user, err := s.entryUser(entry)
	if err != nil {
		return nil, err
	}

	subject, err := s.Subject(user, isEdit)
	if err != nil {
		return nil, err
	}
	recipients, err := s.Recipients(user, extra)
	if err != nil {
		return nil, err
	}
	body, err := s.Body(entry, user, isEdit)
	if err != nil {
		return nil, err
	}
	summary, err := s.Summary(entry, user)
	if err != nil {
		return nil, err
	}
	ics, err := s.Calendar(entry, summary)
	if err != nil {
		return nil, err
	}

	msg := &mailer.Message{
		Subject: subject,
		Body:    body,
		From:    user.Email,
		To:      recipients,
		Attachments: []mailer.Attachment{
			{Filename: calendarFilename, ContentType: calendarContentType, Data: ics},
		},
	}
	if user.Email != "" {
		msg.Cc = []string{user.Email}
	}

	n := &Notification{Subject: subject, Body: body, Summary: summary, Recipients: recipients}
	if err := s.mailer.Send(msg); err != nil {
		return n, fmt.Errorf("failed to send notification for entry %d: %w", entry.ID, err)
	}
	n.Sent = true
	s.logger.Infof("Sent %q to %s", subject, strings.Join(recipients, ", "))

	if s.notifier != nil {
		if err := s.notifier.Notify(subject + "\n" + summary); err != nil {
			s.logger.WithError(err).Warn("chat notification failed")
		}
	}
	return n, nil
}

func (s *NotificationService) entryUser(entry *models.Entry) (*models.User, error) {
	if entry.User.ID == entry.UserID && entry.UserID != 0 {
		return &entry.User, nil
	}
	user, err := s.store.Users.GetByID(entry.UserID)
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

// Subject fills the new or edit subject template.
func (s *NotificationService) Subject(user *models.User, isEdit bool) (string, error) {
	source := s.cfg.EmailSubject
	if isEdit {
		source = s.cfg.EmailSubjectEdit
	}
	tmpl, err := template.New("subject").Parse(source)
	if err != nil {
		return "", fmt.Errorf("invalid subject template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, subjectData{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Username:  user.Username,
		Email:     user.Email,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// Recipients is HR, the user's manager and the extra addresses without
// duplicates, or the fallback address when that is empty.
func (s *NotificationService) Recipients(user *models.User, extra []string) ([]string, error) {
	candidates := append([]string(nil), s.cfg.HRManagers...)

	profile, err := s.store.Profiles.GetByUserID(user.ID)
	if err != nil && err != repository.ErrNotFound {
		return nil, err
	}
	if profile != nil && profile.Manager != "" && s.dir != nil {
		manager, err := s.dir.FetchUserDetails(profile.Manager)
		if err != nil {
			s.logger.WithError(err).Warnf("could not look up manager %s", profile.Manager)
		} else if manager != nil && manager.Mail != "" {
			candidates = append(candidates, manager.Mail)
		}
	}
	candidates = append(candidates, extra...)

	seen := make(map[string]bool)
	var recipients []string
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		key := strings.ToLower(c)
		if c == "" || seen[key] {
			continue
		}
		seen[key] = true
		recipients = append(recipients, c)
	}

	if len(recipients) == 0 && s.cfg.FallbackToAddress != "" {
		recipients = []string{s.cfg.FallbackToAddress}
	}
	return recipients, nil
}

func (s *NotificationService) Body(entry *models.Entry, user *models.User, isEdit bool) (string, error) {
	var buf bytes.Buffer
	err := bodyTemplate.Execute(&buf, map[string]interface{}{
		"User":       user,
		"Entry":      entry,
		"IsEdit":     isEdit,
		"StartDate":  entry.Start.Format(s.cfg.DefaultDateFormat),
		"EndDate":    entry.End.Format(s.cfg.DefaultDateFormat),
		"TotalHours": *entry.TotalHours,
		"Signature":  s.cfg.EmailSignature,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// Summary is the calendar event title, e.g. "Peter Bengtsson on PTO (2 days)".
// Full-day entries count the days between start and end, so Mon to Wed is 2.
func (s *NotificationService) Summary(entry *models.Entry, user *models.User) (string, error) {
	var length string
	total := *entry.TotalHours

	if total < s.cfg.WorkDay {
		birthdays, err := s.store.Hours.BirthdayEntryIDs([]uint{entry.ID})
		if err != nil {
			return "", err
		}
		if birthdays[entry.ID] {
			length = "birthday"
		} else {
			length = fmt.Sprintf("%d hours", total)
		}
	} else {
		days := int(entry.End.Sub(entry.Start).Hours() / 24)
		if days == 1 {
			length = "1 day"
		} else {
			length = fmt.Sprintf("%d days", days)
		}
	}

	return fmt.Sprintf("%s on PTO (%s)", user.DisplayName(), length), nil
}

// Calendar renders a single all-day event for the entry.
func (s *NotificationService) Calendar(entry *models.Entry, summary string) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, calendarProductID)
	cal.Props.SetText(ical.PropMethod, "PUBLISH")

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, uuid.NewString())
	event.Props.SetDateTime(ical.PropDateTimeStamp, s.now().UTC())
	event.Props.SetDate(ical.PropDateTimeStart, entry.Start)
	event.Props.SetDate(ical.PropDateTimeEnd, entry.End)
	event.Props.SetText(ical.PropSummary, summary)
	event.Props.SetText(ical.PropDescription, "")
	cal.Children = append(cal.Children, event.Component)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

// ManagerContext is who the notify form says will be told, besides the
// addresses typed in.
type ManagerContext struct {
	Manager     *directory.Record   `json:"manager"`
	HRManagers  []*directory.Record `json:"hr_managers"`
	AllManagers []directory.Record  `json:"all_managers"`
}

// Managers looks up HR and the user's own manager in the directory.
// Addresses the directory doesn't know are left out of AllManagers.
func (s *NotificationService) Managers(user *models.User) (*ManagerContext, error) {
	ctx := &ManagerContext{}
	if s.dir == nil {
		return ctx, nil
	}

	for _, email := range s.cfg.HRManagers {
		record, err := s.dir.FetchUserDetails(email)
		if err != nil {
			return nil, err
		}
		ctx.HRManagers = append(ctx.HRManagers, record)
		if record != nil {
			ctx.AllManagers = append(ctx.AllManagers, *record)
		}
	}

	profile, err := s.store.Profiles.GetByUserID(user.ID)
	if err != nil && err != repository.ErrNotFound {
		return nil, err
	}
	if profile != nil && profile.Manager != "" {
		manager, err := s.dir.FetchUserDetails(profile.Manager)
		if err != nil {
			return nil, err
		}
		if manager != nil {
			ctx.Manager = manager
			ctx.AllManagers = append(ctx.AllManagers, *manager)
		}
	}
	return ctx, nil
}
