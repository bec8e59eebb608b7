package models

import (
	"fmt"
	"time"
)

// Entry is one leave request. TotalHours stays nil while the entry is a
// draft waiting for its daily hours.
type Entry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	TotalHours  *int      `gorm:"index" json:"total_hours"`
	Start       time.Time `gorm:"column:start_date;type:date;not null;index" json:"start"`
	End         time.Time `gorm:"column:end_date;type:date;not null;index" json:"end"`
	Details     string    `gorm:"type:text" json:"details"`
	NotifyExtra string    `gorm:"type:text" json:"notify_extra"`
	AddDate     time.Time `gorm:"autoCreateTime;index" json:"add_date"`
	ModifyDate  time.Time `gorm:"autoUpdateTime" json:"modify_date"`

	User  User    `gorm:"foreignKey:UserID" json:"user"`
	Hours []Hours `gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE" json:"hours,omitempty"`
}

func (Entry) TableName() string {
	return "entries"
}

// IsDraft reports whether hours have not been filled in yet.
func (e *Entry) IsDraft() bool {
	return e.TotalHours == nil
}

func (e *Entry) String() string {
	return fmt.Sprintf("<Entry: %d, %s - %s>", e.UserID,
		e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"))
}

// Hours is one day's allocation inside an Entry.
type Hours struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	EntryID  uint      `gorm:"not null;uniqueIndex:idx_hours_entry_date" json:"entry_id"`
	Hours    int       `gorm:"not null" json:"hours"`
	Date     time.Time `gorm:"type:date;not null;uniqueIndex:idx_hours_entry_date;index" json:"date"`
	Birthday bool      `gorm:"not null;default:false" json:"birthday"`
}

func (Hours) TableName() string {
	return "hours"
}

// IntPtr is a helper for building entries with a total.
func IntPtr(v int) *int {
	return &v
}
