package repository

import (
	"time"

	"pto-tracker/internal/models"

	"gorm.io/gorm"
)

type HoursRepository interface {
	Create(hours *models.Hours) error
	Upsert(hours *models.Hours) error
	GetByEntryAndDate(entryID uint, date time.Time) (*models.Hours, error)
	GetByEntry(entryID uint) ([]models.Hours, error)
	GetByUserOnDates(userID uint, dates []time.Time, excludeEntryID uint) ([]models.Hours, error)
	BirthdayEntryIDs(entryIDs []uint) (map[uint]bool, error)
	Count() (int64, error)
}

type GormHoursRepository struct {
	db *gorm.DB
}

func NewGormHoursRepository(db *gorm.DB) (*GormHoursRepository, error) {
	if err := db.AutoMigrate(&models.Hours{}); err != nil {
		return nil, err
	}
	return &GormHoursRepository{db: db}, nil
}

func (r *GormHoursRepository) Create(hours *models.Hours) error {
	return r.db.Create(hours).Error
}

// Upsert updates the row for (entry, date) or inserts it.
func (r *GormHoursRepository) Upsert(hours *models.Hours) error {
	existing, err := r.GetByEntryAndDate(hours.EntryID, hours.Date)
	if err == ErrNotFound {
		return r.db.Create(hours).Error
	}
	if err != nil {
		return err
	}

	hours.ID = existing.ID
	return r.db.Model(existing).Updates(map[string]interface{}{
		"hours":    hours.Hours,
		"birthday": hours.Birthday,
	}).Error
}

func (r *GormHoursRepository) GetByEntryAndDate(entryID uint, date time.Time) (*models.Hours, error) {
	var hours models.Hours
	err := r.db.Where("entry_id = ? AND date = ?", entryID, date).First(&hours).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &hours, nil
}

func (r *GormHoursRepository) GetByEntry(entryID uint) ([]models.Hours, error) {
	var hours []models.Hours
	err := r.db.Where("entry_id = ?", entryID).Order("date").Find(&hours).Error
	return hours, err
}

// GetByUserOnDates returns hours the user logged on the dates through other
// finalized entries.
func (r *GormHoursRepository) GetByUserOnDates(userID uint, dates []time.Time, excludeEntryID uint) ([]models.Hours, error) {
	var hours []models.Hours
	if len(dates) == 0 {
		return hours, nil
	}
	err := r.db.Joins("JOIN entries ON entries.id = hours.entry_id").
		Where("entries.user_id = ? AND entries.total_hours IS NOT NULL AND entries.id <> ?", userID, excludeEntryID).
		Where("hours.date IN ?", dates).
		Order("hours.date, hours.id").
		Find(&hours).Error
	return hours, err
}

func (r *GormHoursRepository) BirthdayEntryIDs(entryIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool)
	if len(entryIDs) == 0 {
		return result, nil
	}

	var ids []uint
	err := r.db.Model(&models.Hours{}).
		Where("entry_id IN ? AND birthday = ?", entryIDs, true).
		Distinct("entry_id").
		Pluck("entry_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

func (r *GormHoursRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Hours{}).Count(&count).Error
	return count, err
}
