package ingest

import (
	"context"
	"errors"
	"sort"

	"cv-talent/internal/models"
	"cv-talent/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CandidateStore persists candidate records keyed by email.
type CandidateStore struct {
	db *gorm.DB
}

func NewCandidateStore(db *gorm.DB) *CandidateStore {
	return &CandidateStore{db: db}
}

// UpsertResult is the stored candidate and whether the call inserted it.
type UpsertResult struct {
	Candidate models.Candidate
	Created   bool
}

// Upsert inserts rec or, when a candidate with the same email exists, updates
// only the fields rec carries. Records without an email are always inserted.
func (s *CandidateStore) Upsert(ctx context.Context, rec CandidateRecord) (UpsertResult, error) {
	candidate, columns := rec.model()
	db := s.db.WithContext(ctx)

	if candidate.Email == nil {
		if err := db.Create(&candidate).Error; err != nil {
			return UpsertResult{}, apperr.Persistence(rec.Label(), err)
		}
		return UpsertResult{Candidate: candidate, Created: true}, nil
	}

	candidate.ID = uuid.New()
	updates := make([]string, 0, len(columns)+1)
	for _, col := range columns {
		if col != "email" {
			updates = append(updates, col)
		}
	}
	updates = append(updates, "updated_at")

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns(updates),
	}).Create(&candidate).Error
	if err != nil {
		return UpsertResult{}, apperr.Persistence(rec.Label(), err)
	}

	var stored models.Candidate
	if err := db.Where("email = ?", *candidate.Email).First(&stored).Error; err != nil {
		return UpsertResult{}, apperr.Persistence(rec.Label(), err)
	}
	return UpsertResult{Candidate: stored, Created: stored.ID == candidate.ID}, nil
}

// Create inserts rec as a new candidate. A duplicate email surfaces as
// gorm.ErrDuplicatedKey inside the returned error.
func (s *CandidateStore) Create(ctx context.Context, rec CandidateRecord) (*models.Candidate, error) {
	candidate, _ := rec.model()
	if err := s.db.WithContext(ctx).Create(&candidate).Error; err != nil {
		return nil, apperr.Persistence(rec.Label(), err)
	}
	return &candidate, nil
}

// Update applies the fields rec carries to candidate id.
func (s *CandidateStore) Update(ctx context.Context, id uuid.UUID, rec CandidateRecord) (*models.Candidate, error) {
	db := s.db.WithContext(ctx)

	var candidate models.Candidate
	if err := db.First(&candidate, "id = ?", id).Error; err != nil {
		return nil, err
	}

	changes := rec.assignments()
	if len(changes) > 0 {
		if err := db.Model(&candidate).Updates(changes).Error; err != nil {
			return nil, apperr.Persistence(id.String(), err)
		}
	}

	if err := db.First(&candidate, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &candidate, nil
}

// IsDuplicate reports whether err is a unique-key violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// assignments returns the column values rec carries.
func (r CandidateRecord) assignments() map[string]interface{} {
	out := map[string]interface{}{}
	setString := func(col string, v *string) {
		if v != nil {
			out[col] = *v
		}
	}
	setString("name", r.Name)
	setString("phone", r.Phone)
	setString("date_of_birth", r.DateOfBirth)
	setString("occupation", r.Occupation)
	setString("summary", r.Summary)
	if email := models.NormalizeEmail(r.Email); email != nil {
		out["email"] = *email
	}

	if r.Experience.Present {
		out["experience"] = models.EncodeList(r.Experience.Items)
	}
	if r.Skills.Present {
		out["skills"] = models.EncodeList(r.Skills.Items)
	}
	if r.Languages.Present {
		out["languages"] = models.EncodeList(r.Languages.Items)
	}
	if r.Education.Present {
		out["education"] = models.EncodeList(r.Education.Items)
	}
	return out
}

// model builds an insertable candidate and the sorted list of columns rec
// carries. Absent lists insert as empty.
func (r CandidateRecord) model() (models.Candidate, []string) {
	c := models.Candidate{
		Email:      models.NormalizeEmail(r.Email),
		Experience: models.EncodeList(r.Experience.Items),
		Skills:     models.EncodeList(r.Skills.Items),
		Languages:  models.EncodeList(r.Languages.Items),
		Education:  models.EncodeList(r.Education.Items),
	}
	deref := func(v *string) string {
		if v == nil {
			return ""
		}
		return *v
	}
	c.Name = deref(r.Name)
	c.Phone = deref(r.Phone)
	c.DateOfBirth = deref(r.DateOfBirth)
	c.Occupation = deref(r.Occupation)
	c.Summary = deref(r.Summary)

	assigned := r.assignments()
	columns := make([]string, 0, len(assigned))
	for col := range assigned {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return c, columns
}
