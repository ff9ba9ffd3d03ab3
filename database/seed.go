package database

import (
	"fmt"
	"log"
	"os"

	"github.com/sahilchouksey/educa-api/model"
	"github.com/sahilchouksey/educa-api/utils/auth"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// RunSeeds seeds the admin account and the default subjects
func RunSeeds(db *gorm.DB) error {
	return NewSeeder(db).SeedAll()
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("Starting database seeding...")

	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedSubjects(); err != nil {
		return fmt.Errorf("failed to seed subjects: %w", err)
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

// SeedAdminUser creates the default admin user from ADMIN_EMAIL / ADMIN_PASSWORD
func (s *Seeder) SeedAdminUser() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Admin user already exists, skipping...")
		return nil
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		log.Println("ADMIN_EMAIL and ADMIN_PASSWORD environment variables not set, skipping admin user creation")
		return nil
	}

	passwordHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.User{
		Email:        adminEmail,
		PasswordHash: passwordHash,
		Name:         "System Administrator",
		Role:         model.RoleAdmin,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("Created admin user: %s\n", admin.Email)
	return nil
}

// DefaultSubjects is the initial subject catalog
var DefaultSubjects = []model.Subject{
	{Title: "Mathematics", Slug: "mathematics"},
	{Title: "Music", Slug: "music"},
	{Title: "Physics", Slug: "physics"},
	{Title: "Programming", Slug: "programming"},
}

// SeedSubjects inserts the default subjects that are not present yet
func (s *Seeder) SeedSubjects() error {
	created := 0
	for _, subject := range DefaultSubjects {
		subject := subject
		result := s.db.Where(model.Subject{Slug: subject.Slug}).FirstOrCreate(&subject)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			created++
		}
	}

	log.Printf("Seeded %d subjects\n", created)
	return nil
}
