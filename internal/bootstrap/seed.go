package bootstrap

import (
	"errors"
	"log/slog"

	"anoa.com/akademika/internal/entity"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.PasswordReset{},
		&entity.Course{},
		&entity.Enrollment{},
		&entity.Assignment{},
		&entity.Submission{},
		&entity.AiRecommendation{},
		&entity.GeneratedSyllabus{},
		&entity.Notification{},
	)
}

// SeedAdminUser creates the initial admin account when none exists yet.
func SeedAdminUser(db *gorm.DB, password string) error {
	if password == "" {
		return errors.New("admin seed password is empty")
	}

	var count int64
	if err := db.Model(&entity.User{}).
		Where("role = ?", entity.RoleAdmin).
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		slog.Debug("admin user already exists, skipping seed")
		return nil
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	adminUser := entity.User{
		Username:     "admin",
		Email:        "admin@akademika.local",
		PasswordHash: string(hashedPasswordBytes),
		Role:         entity.RoleAdmin,
		FirstName:    "System",
		LastName:     "Administrator",
	}

	if err := db.Create(&adminUser).Error; err != nil {
		return err
	}

	slog.Info("admin user seeded", "username", adminUser.Username, "email", adminUser.Email)
	return nil
}
