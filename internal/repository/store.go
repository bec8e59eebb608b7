package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("repository: not found")

// OpenDatabase connects to the configured database.
func OpenDatabase(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  newGormLogger(logrus.StandardLogger()),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// in-memory databases exist per connection
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			logrus.Warnf("failed to enable foreign keys: %v", err)
		}
	}

	return db, nil
}

// newGormLogger reports slow queries and errors. Misses are expected from
// lookups like Upsert and are not logged.
func newGormLogger(w logger.Writer) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// Store groups the repositories that share one connection or transaction.
type Store struct {
	db *gorm.DB

	Users      UserRepository
	Profiles   ProfileRepository
	Entries    EntryRepository
	Hours      HoursRepository
	LegacyPtos LegacyPtoRepository
}

// NewStore migrates the schema and builds the repositories.
func NewStore(db *gorm.DB) (*Store, error) {
	users, err := NewGormUserRepository(db)
	if err != nil {
		return nil, err
	}
	profiles, err := NewGormProfileRepository(db)
	if err != nil {
		return nil, err
	}
	entries, err := NewGormEntryRepository(db)
	if err != nil {
		return nil, err
	}
	hours, err := NewGormHoursRepository(db)
	if err != nil {
		return nil, err
	}
	legacy, err := NewGormLegacyPtoRepository(db)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:         db,
		Users:      users,
		Profiles:   profiles,
		Entries:    entries,
		Hours:      hours,
		LegacyPtos: legacy,
	}, nil
}

func bind(db *gorm.DB) *Store {
	return &Store{
		db:         db,
		Users:      &GormUserRepository{db: db},
		Profiles:   &GormProfileRepository{db: db},
		Entries:    &GormEntryRepository{db: db},
		Hours:      &GormHoursRepository{db: db},
		LegacyPtos: &GormLegacyPtoRepository{db: db},
	}
}

// Transaction runs fn with repositories bound to one database transaction.
// Returning an error rolls everything back.
func (s *Store) Transaction(fn func(tx *Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(bind(tx))
	})
}

// DB exposes the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
