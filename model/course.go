package model

import (
	"time"

	"gorm.io/gorm"
)

// Subject groups courses by topic (e.g., "Mathematics", "Programming")
type Subject struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Title     string    `gorm:"type:varchar(200);not null" json:"title"`
	Slug      string    `gorm:"type:varchar(200);uniqueIndex;not null" json:"slug"`

	// Relationships
	Courses []Course `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE" json:"courses,omitempty"`
}

// Course is authored by one owner and holds an ordered sequence of modules
type Course struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"index" json:"created"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	OwnerID   uint           `gorm:"not null;index" json:"owner_id"`
	SubjectID uint           `gorm:"not null;index" json:"subject_id"`
	Title     string         `gorm:"type:varchar(200);not null" json:"title"`
	Slug      string         `gorm:"type:varchar(200);uniqueIndex;not null" json:"slug"`
	Overview  string         `gorm:"type:text" json:"overview"`

	// Relationships
	Owner    *User        `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	Subject  *Subject     `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE" json:"subject,omitempty"`
	Modules  []Module     `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"modules,omitempty"`
	Students []Enrollment `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// Module is a section of a course. Order is not unique per course; clients
// resubmit the full sequence when reordering.
type Module struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CourseID    uint      `gorm:"not null;index" json:"course_id"`
	Title       string    `gorm:"type:varchar(200);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Order       int       `gorm:"column:sort_order;not null;default:0" json:"order"`

	// Relationships
	Course   *Course   `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	Contents []Content `gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE" json:"contents,omitempty"`
}

// CourseWithModuleCount is a course annotated with its module total
type CourseWithModuleCount struct {
	Course
	TotalModules int64 `json:"total_modules"`
}

// SubjectWithCourseCount is a subject annotated with its course total
type SubjectWithCourseCount struct {
	Subject
	TotalCourses int64 `json:"total_courses"`
}
