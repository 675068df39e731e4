package ingest

import (
	"context"

	"cv-talent/internal/models"
	"cv-talent/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplicationLinker keeps one application per candidate and vacancy.
type ApplicationLinker struct {
	db *gorm.DB
}

func NewApplicationLinker(db *gorm.DB) *ApplicationLinker {
	return &ApplicationLinker{db: db}
}

// LinkResult is the stored application and whether the call inserted it.
type LinkResult struct {
	Application models.Application
	Created     bool
}

// LinkOrCreate inserts an application for the pair unless one exists, then
// returns the stored row. An existing row keeps its status and reason.
func (l *ApplicationLinker) LinkOrCreate(ctx context.Context, candidateID, vacancyID uuid.UUID, status, aiReason string) (LinkResult, error) {
	db := l.db.WithContext(ctx)
	item := candidateID.String()

	app := models.Application{
		CandidateID: &candidateID,
		VacancyID:   &vacancyID,
		Status:      models.CanonicalApplicationStatus(status),
		AIReason:    aiReason,
	}

	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "candidate_id"}, {Name: "vacancy_id"}},
		DoNothing: true,
	}).Create(&app)
	if res.Error != nil {
		return LinkResult{}, apperr.Persistence(item, res.Error)
	}

	var stored models.Application
	err := db.Where("candidate_id = ? AND vacancy_id = ?", candidateID, vacancyID).First(&stored).Error
	if err != nil {
		return LinkResult{}, apperr.Persistence(item, err)
	}
	return LinkResult{Application: stored, Created: res.RowsAffected == 1}, nil
}
