package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"pto-tracker/internal/config"
	"pto-tracker/internal/directory"
	"pto-tracker/internal/models"
	"pto-tracker/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidToken is returned for a bearer token that fails verification.
var ErrInvalidToken = errors.New("service: invalid token")

// Claims is what a verified token says about its holder.
type Claims struct {
	UserID      uint
	IsStaff     bool
	IsSuperuser bool
}

type AuthService struct {
	store  *repository.Store
	users  *UserService
	dir    directory.Directory
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *logrus.Logger
}

// NewAuthService builds the login service. With a nil dir passwords are
// checked against the local bcrypt hashes.
func NewAuthService(store *repository.Store, users *UserService, dir directory.Directory, cfg *config.Config) *AuthService {
	return &AuthService{
		store:  store,
		users:  users,
		dir:    dir,
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.JWTTTL,
		now:    time.Now,
		logger: logrus.StandardLogger(),
	}
}

// Login accepts a username or an email address and returns a signed token.
func (s *AuthService) Login(login, password string) (string, *models.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	var (
		user *models.User
		err  error
	)
	if s.dir != nil {
		user, err = s.directoryLogin(login, password)
	} else {
		user, err = s.localLogin(login, password)
	}
	if err != nil {
		return "", nil, err
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, err
	}
	s.logger.Infof("User %s logged in", user.Username)
	return token, user, nil
}

func (s *AuthService) directoryLogin(login, password string) (*models.User, error) {
	email := login
	if !strings.Contains(login, "@") {
		user, err := s.store.Users.GetByUsername(login)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrInvalidCredentials
			}
			return nil, err
		}
		email = user.Email
	}

	record, err := s.dir.Authenticate(email, password)
	if err != nil {
		if errors.Is(err, directory.ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("directory authentication failed: %w", err)
	}
	return s.users.SyncFromDirectory(record)
}

func (s *AuthService) localLogin(login, password string) (*models.User, error) {
	lookup := s.store.Users.GetByUsername
	if strings.Contains(login, "@") {
		lookup = s.store.Users.GetByEmail
	}
	user, err := lookup(login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id":      user.ID,
		"is_staff":     user.IsStaff,
		"is_superuser": user.IsSuperuser,
		"exp":          now.Add(s.ttl).Unix(),
		"iat":          now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies the signature and expiry of a token.
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	id, ok := mc["user_id"].(float64)
	if !ok || id <= 0 {
		return nil, ErrInvalidToken
	}
	staff, _ := mc["is_staff"].(bool)
	superuser, _ := mc["is_superuser"].(bool)
	return &Claims{UserID: uint(id), IsStaff: staff, IsSuperuser: superuser}, nil
}

// HashPassword returns the bcrypt hash stored on local accounts.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
