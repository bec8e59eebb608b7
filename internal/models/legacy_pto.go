package models

// LegacyPto is a row of the single table kept by the previous PTO tool.
// Timestamps are unix epochs.
type LegacyPto struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	Person     string  `gorm:"type:varchar(384)" json:"person"`
	Added      int64   `json:"added"`
	Hours      float64 `json:"hours"`
	HoursDaily string  `gorm:"type:text" json:"hours_daily"`
	Details    string  `gorm:"type:varchar(765)" json:"details"`
	Start      int64   `json:"start"`
	End        int64   `json:"end"`
}

func (LegacyPto) TableName() string {
	return "pto"
}
