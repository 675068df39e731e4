package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "pending"
	ApplicationStatusInterview ApplicationStatus = "interview"
	ApplicationStatusOffered   ApplicationStatus = "offered"
	ApplicationStatusAccepted  ApplicationStatus = "accepted"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusInterview, ApplicationStatusOffered,
		ApplicationStatusAccepted, ApplicationStatusRejected:
		return true
	}
	return false
}

// CanonicalApplicationStatus maps free-form verdicts onto the stored enum.
// "approved" counts as accepted and "not approved" as rejected; anything
// unrecognized falls back to pending.
func CanonicalApplicationStatus(raw string) ApplicationStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)

	switch s {
	case "approved", "approve", "accept", "accepted", "apto", "aprobado":
		return ApplicationStatusAccepted
	case "not approved", "notapproved", "reject", "rejected", "denied", "declined", "no apto", "rechazado":
		return ApplicationStatusRejected
	}

	if st := ApplicationStatus(s); st.Valid() {
		return st
	}
	return ApplicationStatusPending
}

// Application links one candidate to one vacancy. Both references are weak:
// deleting either side nulls the column instead of removing the row.
type Application struct {
	ID              uuid.UUID         `json:"id" gorm:"type:char(36);primary_key"`
	CandidateID     *uuid.UUID        `json:"candidate_id" gorm:"type:char(36);uniqueIndex:idx_applications_candidate_vacancy"`
	VacancyID       *uuid.UUID        `json:"vacancy_id" gorm:"type:char(36);uniqueIndex:idx_applications_candidate_vacancy;index"`
	Status          ApplicationStatus `json:"status" gorm:"not null;default:'pending';size:16;index"`
	AIReason        string            `json:"ai_reason" gorm:"type:text"`
	ApplicationDate time.Time         `json:"application_date" gorm:"not null"`

	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`

	Candidate *Candidate `json:"candidate,omitempty" gorm:"foreignKey:CandidateID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Vacancy   *Vacancy   `json:"vacancy,omitempty" gorm:"foreignKey:VacancyID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
}

func (a *Application) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = ApplicationStatusPending
	}
	if a.ApplicationDate.IsZero() {
		a.ApplicationDate = time.Now().UTC()
	}
	return nil
}

// ApplicationView is an application joined with display names.
type ApplicationView struct {
	ID              uuid.UUID         `json:"id"`
	CandidateID     *uuid.UUID        `json:"candidate_id"`
	VacancyID       *uuid.UUID        `json:"vacancy_id"`
	Status          ApplicationStatus `json:"status"`
	AIReason        string            `json:"ai_reason"`
	ApplicationDate time.Time         `json:"application_date"`
	CandidateName   string            `json:"candidate_name"`
	CandidateEmail  string            `json:"candidate_email"`
	VacancyTitle    string            `json:"vacancy_title"`
}
