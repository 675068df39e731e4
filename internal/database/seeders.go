package database

import (
	"errors"
	"fmt"

	"cv-talent/config"
	"cv-talent/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SeedRoles makes sure the admin and recruiter roles exist and returns them by name.
func SeedRoles(db *gorm.DB) (map[models.UserRole]models.Role, error) {
	roles := make(map[models.UserRole]models.Role)

	for _, name := range []models.UserRole{models.RoleAdmin, models.RoleRecruiter} {
		role := models.Role{Name: name}
		if err := db.Where(models.Role{Name: name}).FirstOrCreate(&role).Error; err != nil {
			return nil, fmt.Errorf("failed to seed role %s: %w", name, err)
		}
		roles[name] = role
	}

	return roles, nil
}

// SeedData creates the roles, the admin and recruiter accounts and a sample
// vacancy. Existing rows are left untouched.
func SeedData(db *gorm.DB, cfg *config.Config, zapLogger *zap.Logger) error {
	if !cfg.Dev.SeedData {
		return nil
	}

	roles, err := SeedRoles(db)
	if err != nil {
		return err
	}

	accounts := []struct {
		name     string
		email    string
		password string
		role     models.UserRole
	}{
		{"Administrator", cfg.Admin.Email, cfg.Admin.Password, models.RoleAdmin},
		{"Recruiter", cfg.Admin.RecruiterEmail, cfg.Admin.RecruiterPassword, models.RoleRecruiter},
	}

	for _, a := range accounts {
		if a.email == "" {
			continue
		}

		var existing models.User
		err := db.Where("email = ?", a.email).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up %s: %w", a.email, err)
		}

		user := &models.User{
			Name:     a.name,
			Email:    a.email,
			Password: a.password,
			RoleID:   roles[a.role].ID,
			IsActive: true,
		}
		if err := db.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create %s user: %w", a.role, err)
		}
		zapLogger.Info("Seeded user", zap.String("email", a.email), zap.String("role", string(a.role)))
	}

	var vacancies int64
	if err := db.Model(&models.Vacancy{}).Count(&vacancies).Error; err != nil {
		return fmt.Errorf("failed to count vacancies: %w", err)
	}
	if vacancies == 0 {
		sample := &models.Vacancy{
			Title:          "Backend Developer",
			Description:    "Build and operate the services behind our recruitment platform.",
			RequiredSkills: "Go, SQL, REST APIs",
			Salary:         42000,
			Status:         models.VacancyStatusOpen,
		}
		if err := db.Create(sample).Error; err != nil {
			return fmt.Errorf("failed to create sample vacancy: %w", err)
		}
	}

	return nil
}
