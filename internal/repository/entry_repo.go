package repository

import (
	"time"

	"pto-tracker/internal/models"

	"gorm.io/gorm"
)

// EntryFilter narrows finalized entries. A nil UserIDs means every user,
// an empty non-nil slice means nobody.
type EntryFilter struct {
	UserIDs     []uint
	EndFrom     *time.Time
	StartTo     *time.Time
	AddedFrom   *time.Time
	AddedBefore *time.Time
}

// DateBounds are the extremes of the ledger, used to seed date pickers.
type DateBounds struct {
	FirstDate      *time.Time
	LastDate       *time.Time
	FirstFiledDate *time.Time
}

type EntryRepository interface {
	Create(entry *models.Entry) error
	Update(entry *models.Entry) error
	GetByID(id uint) (*models.Entry, error)
	Delete(id uint) error
	GetDraftsByUser(userID uint, excludeID uint) ([]models.Entry, error)
	DeleteDraftsByUser(userID uint, excludeID uint) (int64, error)
	GetFinalized(filter EntryFilter) ([]models.Entry, error)
	GetFinalizedOverlapping(userIDs []uint, start, end time.Time) ([]models.Entry, error)
	GetActiveOn(date time.Time) ([]models.Entry, error)
	GetBounds() (DateBounds, error)
}

type GormEntryRepository struct {
	db *gorm.DB
}

func NewGormEntryRepository(db *gorm.DB) (*GormEntryRepository, error) {
	if err := db.AutoMigrate(&models.Entry{}); err != nil {
		return nil, err
	}
	return &GormEntryRepository{db: db}, nil
}

func (r *GormEntryRepository) Create(entry *models.Entry) error {
	return r.db.Omit("User", "Hours").Create(entry).Error
}

func (r *GormEntryRepository) Update(entry *models.Entry) error {
	return r.db.Omit("User", "Hours").Save(entry).Error
}

func (r *GormEntryRepository) GetByID(id uint) (*models.Entry, error) {
	var entry models.Entry
	if err := r.db.Preload("User").First(&entry, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &entry, nil
}

// Delete removes the entry together with its hours.
func (r *GormEntryRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entry_id = ?", id).Delete(&models.Hours{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Entry{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormEntryRepository) GetDraftsByUser(userID uint, excludeID uint) ([]models.Entry, error) {
	var entries []models.Entry
	err := r.db.Where("user_id = ? AND total_hours IS NULL AND id <> ?", userID, excludeID).
		Order("id").
		Find(&entries).Error
	return entries, err
}

// DeleteDraftsByUser deletes every unfinished entry of the user except one.
func (r *GormEntryRepository) DeleteDraftsByUser(userID uint, excludeID uint) (int64, error) {
	drafts, err := r.GetDraftsByUser(userID, excludeID)
	if err != nil || len(drafts) == 0 {
		return 0, err
	}

	ids := make([]uint, 0, len(drafts))
	for _, d := range drafts {
		ids = append(ids, d.ID)
	}

	var deleted int64
	err = r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entry_id IN ?", ids).Delete(&models.Hours{}).Error; err != nil {
			return err
		}
		result := tx.Where("id IN ?", ids).Delete(&models.Entry{})
		deleted = result.RowsAffected
		return result.Error
	})
	return deleted, err
}

func (r *GormEntryRepository) GetFinalized(filter EntryFilter) ([]models.Entry, error) {
	var entries []models.Entry
	if filter.UserIDs != nil && len(filter.UserIDs) == 0 {
		return entries, nil
	}

	q := r.db.Preload("User").Where("total_hours IS NOT NULL")
	if filter.UserIDs != nil {
		q = q.Where("user_id IN ?", filter.UserIDs)
	}
	if filter.EndFrom != nil {
		q = q.Where("end_date >= ?", *filter.EndFrom)
	}
	if filter.StartTo != nil {
		q = q.Where("start_date <= ?", *filter.StartTo)
	}
	if filter.AddedFrom != nil {
		q = q.Where("add_date >= ?", *filter.AddedFrom)
	}
	if filter.AddedBefore != nil {
		q = q.Where("add_date < ?", *filter.AddedBefore)
	}

	err := q.Order("start_date, id").Find(&entries).Error
	return entries, err
}

// GetFinalizedOverlapping returns finalized entries of the users touching
// [start, end].
func (r *GormEntryRepository) GetFinalizedOverlapping(userIDs []uint, start, end time.Time) ([]models.Entry, error) {
	var entries []models.Entry
	if len(userIDs) == 0 {
		return entries, nil
	}
	err := r.db.Preload("User").
		Where("user_id IN ? AND total_hours IS NOT NULL", userIDs).
		Where("end_date >= ? AND start_date <= ?", start, end).
		Order("start_date, id").
		Find(&entries).Error
	return entries, err
}

func (r *GormEntryRepository) GetActiveOn(date time.Time) ([]models.Entry, error) {
	var entries []models.Entry
	err := r.db.Preload("User").
		Where("total_hours IS NOT NULL AND start_date <= ? AND end_date >= ?", date, date).
		Order("end_date, id").
		Find(&entries).Error
	return entries, err
}

func (r *GormEntryRepository) GetBounds() (DateBounds, error) {
	var bounds DateBounds

	var first models.Entry
	err := r.db.Order("start_date").First(&first).Error
	if err != nil {
		if notFound(err) == ErrNotFound {
			return bounds, nil
		}
		return bounds, err
	}
	bounds.FirstDate = &first.Start

	var last models.Entry
	if err := r.db.Order("end_date DESC").First(&last).Error; err != nil {
		return bounds, err
	}
	bounds.LastDate = &last.End

	var filed models.Entry
	if err := r.db.Order("add_date").First(&filed).Error; err != nil {
		return bounds, err
	}
	bounds.FirstFiledDate = &filed.AddDate

	return bounds, nil
}
