package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// IngestionRun is the stored summary of one CV upload.
type IngestionRun struct {
	ID        uuid.UUID  `json:"id" gorm:"type:char(36);primary_key"`
	UserID    *uuid.UUID `json:"user_id" gorm:"type:char(36);index"`
	VacancyID *uuid.UUID `json:"vacancy_id" gorm:"type:char(36);index"`
	State     string     `json:"state" gorm:"not null;size:32"`

	FilesReceived       int `json:"files_received"`
	FilesExtracted      int `json:"files_extracted"`
	ChunksTotal         int `json:"chunks_total"`
	ChunksFailed        int `json:"chunks_failed"`
	CandidatesCreated   int `json:"candidates_created"`
	CandidatesUpdated   int `json:"candidates_updated"`
	ApplicationsCreated int `json:"applications_created"`
	ApplicationsLinked  int `json:"applications_linked"`
	Dropped             int `json:"dropped"`

	Failures datatypes.JSON `json:"failures"`

	StartedAt  time.Time `json:"started_at" gorm:"not null;index"`
	FinishedAt time.Time `json:"finished_at" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null"`
}

func (r *IngestionRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
