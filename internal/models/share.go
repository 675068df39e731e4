package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShareStatus string

const (
	ShareStatusPending  ShareStatus = "pending"
	ShareStatusAccepted ShareStatus = "accepted"
	ShareStatusRejected ShareStatus = "rejected"
)

func (s ShareStatus) Valid() bool {
	return s == ShareStatusPending || s == ShareStatusAccepted || s == ShareStatusRejected
}

// CandidateShare is a recruiter-to-recruiter referral of a candidate.
type CandidateShare struct {
	ID            uuid.UUID   `json:"id" gorm:"type:char(36);primary_key"`
	CandidateID   *uuid.UUID  `json:"candidate_id" gorm:"type:char(36);index"`
	SenderID      *uuid.UUID  `json:"sender_id" gorm:"type:char(36);index"`
	ReceiverID    *uuid.UUID  `json:"receiver_id" gorm:"type:char(36);index"`
	ApplicationID *uuid.UUID  `json:"application_id" gorm:"type:char(36)"`
	Status        ShareStatus `json:"status" gorm:"not null;default:'pending';size:16"`
	Message       string      `json:"message" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"not null;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`

	Candidate   *Candidate   `json:"candidate,omitempty" gorm:"foreignKey:CandidateID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Sender      *User        `json:"sender,omitempty" gorm:"foreignKey:SenderID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Receiver    *User        `json:"receiver,omitempty" gorm:"foreignKey:ReceiverID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Application *Application `json:"application,omitempty" gorm:"foreignKey:ApplicationID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
}

func (s *CandidateShare) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = ShareStatusPending
	}
	return nil
}
