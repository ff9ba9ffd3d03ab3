package model

import (
	"time"

	"gorm.io/gorm"
)

// Roles a user can hold. Instructors and admins may author courses.
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// User represents a registered account (course owner or student)
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Name         string         `gorm:"not null" json:"name"`
	Role         string         `gorm:"type:varchar(20);default:'student'" json:"role"`
	TokenVersion int            `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens

	// Relationships
	CoursesCreated []Course            `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	Enrollments    []Enrollment        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TokenBlacklist []JWTTokenBlacklist `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// CanAuthor reports whether the user may create and edit courses
func (u *User) CanAuthor() bool {
	return u.Role == RoleInstructor || u.Role == RoleAdmin
}

// Enrollment joins a student to a course
type Enrollment struct {
	UserID     uint  `gorm:"primaryKey" json:"user_id"`
	CourseID   uint  `gorm:"primaryKey" json:"course_id"`
	EnrolledAt int64 `gorm:"autoCreateTime" json:"enrolled_at"`

	// Relationships
	User   *User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Course *Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}
