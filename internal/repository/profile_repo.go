package repository

import (
	"pto-tracker/internal/models"

	"gorm.io/gorm"
)

type ProfileRepository interface {
	Create(profile *models.UserProfile) error
	Save(profile *models.UserProfile) error
	GetByUserID(userID uint) (*models.UserProfile, error)
	GetByUserIDs(userIDs []uint) ([]models.UserProfile, error)
	GetByManagerUserIDs(managerIDs []uint) ([]models.UserProfile, error)
}

type GormProfileRepository struct {
	db *gorm.DB
}

func NewGormProfileRepository(db *gorm.DB) (*GormProfileRepository, error) {
	if err := db.AutoMigrate(&models.UserProfile{}); err != nil {
		return nil, err
	}
	return &GormProfileRepository{db: db}, nil
}

func (r *GormProfileRepository) Create(profile *models.UserProfile) error {
	return r.db.Create(profile).Error
}

func (r *GormProfileRepository) Save(profile *models.UserProfile) error {
	return r.db.Omit("User", "ManagerUser").Save(profile).Error
}

func (r *GormProfileRepository) GetByUserID(userID uint) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := r.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}

func (r *GormProfileRepository) GetByUserIDs(userIDs []uint) ([]models.UserProfile, error) {
	var profiles []models.UserProfile
	if len(userIDs) == 0 {
		return profiles, nil
	}
	err := r.db.Where("user_id IN ?", userIDs).Find(&profiles).Error
	return profiles, err
}

// GetByManagerUserIDs returns the profiles reporting to any of the managers,
// ordered by manager then user.
func (r *GormProfileRepository) GetByManagerUserIDs(managerIDs []uint) ([]models.UserProfile, error) {
	var profiles []models.UserProfile
	if len(managerIDs) == 0 {
		return profiles, nil
	}
	err := r.db.Preload("User").
		Where("manager_user_id IN ?", managerIDs).
		Order("manager_user_id, user_id").
		Find(&profiles).Error
	return profiles, err
}
