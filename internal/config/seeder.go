package config

import (
	"log"

	"knowhub-backend/internal/adapters/persistence/models"
	"knowhub-backend/internal/core/domain"
	"knowhub-backend/internal/pkg/password"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seeder handles database seeding
type Seeder struct {
	db  *gorm.DB
	cfg *Config
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, cfg *Config) *Seeder {
	return &Seeder{db: db, cfg: cfg}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedRoleCatalog(); err != nil {
		return err
	}

	if s.cfg.IsDev() {
		if err := s.seedAdminUser(); err != nil {
			log.Printf("⚠️ Admin seeder skipped: %v", err)
		}
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedRoleCatalog mirrors the fixed role catalog into the roles table.
// Existing rows keep their is_active and is_system_role values.
func (s *Seeder) seedRoleCatalog() error {
	for _, entry := range domain.RoleCatalog {
		role := &models.Role{
			Name:         string(entry.Name),
			DisplayName:  entry.DisplayName,
			Description:  entry.Description,
			Priority:     entry.Priority,
			IsSystemRole: entry.SystemRole,
			IsActive:     true,
		}

		err := s.db.
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"display_name", "description", "priority"}),
			}).
			Create(role).Error
		if err != nil {
			return err
		}
	}

	log.Printf("✅ Role catalog seeded (%d roles)", len(domain.RoleCatalog))
	return nil
}

// seedAdminUser seeds a default admin user
// This is for development/testing only
// In production, create admin through secure process
func (s *Seeder) seedAdminUser() error {
	var count int64
	s.db.Model(&models.User{}).
		Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("roles.name = ?", string(domain.RoleSuperAdmin)).
		Count(&count)
	if count > 0 {
		return nil // Admin already exists
	}

	hashedPassword, err := password.Hash("admin123456")
	if err != nil {
		return err
	}

	admin := &models.User{
		Username: "admin",
		Email:    "admin@knowhub.example.com",
		Password: hashedPassword,
		FullName: "Portal Administrator",
		IsActive: true,
	}

	var superAdmin models.Role
	if err := s.db.Where("name = ?", string(domain.RoleSuperAdmin)).First(&superAdmin).Error; err != nil {
		return err
	}
	admin.Roles = []models.Role{superAdmin}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Username)
	return nil
}
