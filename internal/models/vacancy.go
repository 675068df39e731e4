package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VacancyStatus string

const (
	VacancyStatusOpen   VacancyStatus = "open"
	VacancyStatusClosed VacancyStatus = "closed"
	VacancyStatusPaused VacancyStatus = "paused"
)

func (s VacancyStatus) Valid() bool {
	switch s {
	case VacancyStatusOpen, VacancyStatusClosed, VacancyStatusPaused:
		return true
	}
	return false
}

// Vacancy is a job requisition candidates are evaluated against.
type Vacancy struct {
	ID             uuid.UUID     `json:"id" gorm:"type:char(36);primary_key"`
	Title          string        `json:"title" gorm:"not null;index"`
	Description    string        `json:"description" gorm:"type:text"`
	RequiredSkills string        `json:"required_skills" gorm:"type:text"`
	Salary         float64       `json:"salary" gorm:"type:decimal(12,2);not null;default:0"`
	Status         VacancyStatus `json:"status" gorm:"not null;default:'closed';size:16;index"`
	CreationDate   time.Time     `json:"creation_date" gorm:"not null"`

	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

func (v *Vacancy) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.Status == "" {
		v.Status = VacancyStatusClosed
	}
	if v.CreationDate.IsZero() {
		v.CreationDate = time.Now().UTC()
	}
	return nil
}

// VacancyWithCount is a vacancy row annotated with its number of applications.
type VacancyWithCount struct {
	Vacancy
	ApplicationCount int64 `json:"application_count"`
}
