package service

import (
	"fmt"
	"sort"
	"strings"

	"pto-tracker/internal/directory"
	"pto-tracker/internal/models"
	"pto-tracker/internal/repository"

	"github.com/sirupsen/logrus"
)

type UserService struct {
	store  *repository.Store
	logger *logrus.Logger
}

func NewUserService(store *repository.Store) *UserService {
	return &UserService{store: store, logger: logrus.StandardLogger()}
}

// CreateUser stores the user and gives them a profile.
func (s *UserService) CreateUser(user *models.User) error {
	return s.store.Transaction(func(tx *repository.Store) error {
		if err := tx.Users.Create(user); err != nil {
			return fmt.Errorf("failed to create user %s: %w", user.Username, err)
		}
		_, err := ensureProfile(tx, user)
		return err
	})
}

// EnsureProfile returns the user's profile, creating an empty one if the
// user has none yet.
func (s *UserService) EnsureProfile(user *models.User) (*models.UserProfile, error) {
	return ensureProfile(s.store, user)
}

func ensureProfile(store *repository.Store, user *models.User) (*models.UserProfile, error) {
	profile, err := store.Profiles.GetByUserID(user.ID)
	if err == nil {
		return profile, nil
	}
	if err != repository.ErrNotFound {
		return nil, err
	}

	profile = &models.UserProfile{UserID: user.ID}
	if err := store.Profiles.Create(profile); err != nil {
		return nil, fmt.Errorf("failed to create profile for user %d: %w", user.ID, err)
	}
	return profile, nil
}

// SaveProfile derives city and country from the office and resolves the
// manager email to a user before saving.
func (s *UserService) SaveProfile(profile *models.UserProfile) (*models.UserProfile, error) {
	profile.ExplodeOffice()

	manager := strings.TrimSpace(profile.Manager)
	switch {
	case manager == "":
		profile.ManagerUserID = nil
	case validEmail(manager):
		users, err := s.store.Users.FindByEmail(manager)
		if err != nil {
			return nil, err
		}
		if len(users) > 0 {
			id := users[len(users)-1].ID
			profile.ManagerUserID = &id
		}
	}

	if err := s.store.Profiles.Save(profile); err != nil {
		return nil, fmt.Errorf("failed to save profile of user %d: %w", profile.UserID, err)
	}
	return profile, nil
}

// SyncFromDirectory finds or creates the local user for a directory record
// and copies the directory attributes onto the user and profile.
func (s *UserService) SyncFromDirectory(record *directory.Record) (*models.User, error) {
	if record == nil || record.Mail == "" {
		return nil, fmt.Errorf("directory record without mail")
	}

	user, err := s.store.Users.GetByEmail(record.Mail)
	if err != nil && err != repository.ErrNotFound {
		return nil, err
	}
	if user == nil {
		user = &models.User{
			Username: usernameFor(record),
			Email:    record.Mail,
		}
	}
	user.FirstName = record.GivenName
	user.LastName = record.Surname

	if user.ID == 0 {
		if err := s.CreateUser(user); err != nil {
			return nil, err
		}
		s.logger.Infof("Created user %s from the directory", user.Username)
	} else if err := s.store.Users.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", user.Username, err)
	}

	profile, err := s.EnsureProfile(user)
	if err != nil {
		return nil, err
	}
	if record.Manager != "" || record.Office != "" {
		profile.Manager = record.Manager
		profile.Office = record.Office
		if _, err := s.SaveProfile(profile); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func usernameFor(record *directory.Record) string {
	if record.UID != "" {
		return record.UID
	}
	return strings.SplitN(record.Mail, "@", 2)[0]
}

func (s *UserService) GetUser(id uint) (*models.User, error) {
	user, err := s.store.Users.GetByID(id)
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func (s *UserService) GetProfile(user *models.User) (*models.UserProfile, error) {
	return s.EnsureProfile(user)
}

// GetMinions walks manager references breadth first, at most maxDepth
// levels down. Direct reports come first, each level ordered by id.
func (s *UserService) GetMinions(user *models.User, maxDepth int) ([]models.User, error) {
	visited := map[uint]bool{user.ID: true}
	managers := []uint{user.ID}
	var minions []models.User

	for depth := 0; depth < maxDepth && len(managers) > 0; depth++ {
		profiles, err := s.store.Profiles.GetByManagerUserIDs(managers)
		if err != nil {
			return nil, err
		}

		var level []models.User
		for _, p := range profiles {
			if visited[p.UserID] {
				continue
			}
			visited[p.UserID] = true
			level = append(level, p.User)
		}
		sort.Slice(level, func(i, j int) bool { return level[i].ID < level[j].ID })

		managers = managers[:0]
		for _, u := range level {
			managers = append(managers, u.ID)
		}
		minions = append(minions, level...)
	}
	return minions, nil
}
