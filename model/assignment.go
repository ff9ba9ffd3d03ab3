package model

import "time"

// Assignment is a standalone upload record. It carries no owner or subject
// linkage.
type Assignment struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"updated"`
	Title          string    `gorm:"type:varchar(250);not null" json:"title"`
	AssignmentName string    `gorm:"type:varchar(250);not null" json:"assignment_name"`
	FileKey        string    `gorm:"type:varchar(500);not null" json:"file_key"` // stored under assignments/
	FileURL        string    `gorm:"type:text" json:"file_url"`
	Filename       string    `gorm:"type:varchar(255)" json:"filename"`
	FileSize       int64     `gorm:"default:0" json:"file_size"`
	PageCount      int       `gorm:"default:0" json:"page_count"`
}

// TableName specifies the table name for Assignment
func (Assignment) TableName() string {
	return "assignments"
}
