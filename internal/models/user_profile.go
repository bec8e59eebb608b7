package models

import "strings"

// OfficeSeparator splits an office string into city and country.
const OfficeSeparator = ":::"

type UserProfile struct {
	ID            uint   `gorm:"primarykey" json:"id"`
	UserID        uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	Manager       string `gorm:"type:varchar(100)" json:"manager"`
	ManagerUserID *uint  `gorm:"index" json:"manager_user_id"`
	Office        string `gorm:"type:varchar(100)" json:"office"`
	Country       string `gorm:"type:varchar(100)" json:"country"`
	City          string `gorm:"type:varchar(100)" json:"city"`
	Notes         string `json:"notes"`

	User        User  `gorm:"foreignKey:UserID" json:"-"`
	ManagerUser *User `gorm:"foreignKey:ManagerUserID" json:"-"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

// ExplodeOffice copies city and country out of an "City:::Country" office.
func (p *UserProfile) ExplodeOffice() {
	if p.Office == "" || !strings.Contains(p.Office, OfficeSeparator) {
		return
	}
	parts := strings.SplitN(p.Office, OfficeSeparator, 2)
	p.City = parts[0]
	p.Country = parts[1]
}
