package repository

import (
	"pto-tracker/internal/models"

	"gorm.io/gorm"
)

type LegacyPtoRepository interface {
	Count() (int64, error)
	GetFirst(limit int) ([]models.LegacyPto, error)
	Delete(id uint) error
}

type GormLegacyPtoRepository struct {
	db *gorm.DB
}

func NewGormLegacyPtoRepository(db *gorm.DB) (*GormLegacyPtoRepository, error) {
	if err := db.AutoMigrate(&models.LegacyPto{}); err != nil {
		return nil, err
	}
	return &GormLegacyPtoRepository{db: db}, nil
}

func (r *GormLegacyPtoRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.LegacyPto{}).Count(&count).Error
	return count, err
}

func (r *GormLegacyPtoRepository) GetFirst(limit int) ([]models.LegacyPto, error) {
	var rows []models.LegacyPto
	err := r.db.Order("id").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *GormLegacyPtoRepository) Delete(id uint) error {
	return r.db.Delete(&models.LegacyPto{}, id).Error
}
