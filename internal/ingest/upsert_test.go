package ingest

import (
	"context"
	"path/filepath"
	"testing"

	"cv-talent/config"
	"cv-talent/internal/database"
	"cv-talent/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: filepath.Join(t.TempDir(), "ingest.db"),
		},
		Log: config.LogConfig{Level: "silent"},
		Dev: config.DevConfig{AutoMigrate: true},
	}
	db, err := database.Connect(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createVacancy(t *testing.T, db *gorm.DB, title string, status models.VacancyStatus) models.Vacancy {
	t.Helper()
	v := models.Vacancy{Title: title, RequiredSkills: "Go, SQL", Status: status}
	require.NoError(t, db.Create(&v).Error)
	return v
}

func str(s string) *string { return &s }

func countCandidates(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Candidate{}).Count(&n).Error)
	return n
}

func TestCandidateStore_UpsertIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	store := NewCandidateStore(db)
	ctx := context.Background()

	rec := CandidateRecord{
		Name:       str("Ana Pérez"),
		Email:      str("ana@example.com"),
		Occupation: str("Engineer"),
		Skills:     Of("Go", "SQL"),
	}

	first, err := store.Upsert(ctx, rec)
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := store.Upsert(ctx, rec)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Candidate.ID, second.Candidate.ID)

	assert.Equal(t, int64(1), countCandidates(t, db))
	assert.Equal(t, []string{"Go", "SQL"}, second.Candidate.SkillList())
}

func TestCandidateStore_PartialUpdate(t *testing.T) {
	db := setupTestDB(t)
	store := NewCandidateStore(db)
	ctx := context.Background()

	_, err := store.Upsert(ctx, CandidateRecord{
		Name:       str("Ana"),
		Email:      str("ana@example.com"),
		Phone:      str("+34 600"),
		Summary:    str("Go engineer"),
		Skills:     Of("Go", "SQL"),
		Languages:  Of(models.Language{Language: "Spanish", Level: "Native"}),
		Experience: Of(models.Experience{Company: "ACME"}),
	})
	require.NoError(t, err)

	// skills absent: stored skills survive
	res, err := store.Upsert(ctx, CandidateRecord{
		Email:      str("ana@example.com"),
		Occupation: str("Staff Engineer"),
	})
	require.NoError(t, err)
	c := res.Candidate
	assert.Equal(t, "Ana", c.Name)
	assert.Equal(t, "+34 600", c.Phone)
	assert.Equal(t, "Staff Engineer", c.Occupation)
	assert.Equal(t, []string{"Go", "SQL"}, c.SkillList())
	assert.Len(t, c.LanguageList(), 1)

	// skills explicitly empty: stored skills cleared
	res, err = store.Upsert(ctx, CandidateRecord{
		Email:   str("ana@example.com"),
		Skills:  Of[string](),
		Summary: str(""),
	})
	require.NoError(t, err)
	c = res.Candidate
	assert.Empty(t, c.SkillList())
	assert.Equal(t, "", c.Summary)
	assert.Len(t, c.ExperienceList(), 1)
	assert.Equal(t, "Staff Engineer", c.Occupation)
}

func TestCandidateStore_NoEmailInserts(t *testing.T) {
	db := setupTestDB(t)
	store := NewCandidateStore(db)
	ctx := context.Background()

	rec := CandidateRecord{Name: str("No Email")}
	a, err := store.Upsert(ctx, rec)
	require.NoError(t, err)
	b, err := store.Upsert(ctx, rec)
	require.NoError(t, err)

	assert.True(t, a.Created)
	assert.True(t, b.Created)
	assert.NotEqual(t, a.Candidate.ID, b.Candidate.ID)
	assert.Equal(t, int64(2), countCandidates(t, db))
	assert.Nil(t, a.Candidate.Email)
}

func TestCandidateStore_CreateDuplicate(t *testing.T) {
	db := setupTestDB(t)
	store := NewCandidateStore(db)
	ctx := context.Background()

	_, err := store.Create(ctx, CandidateRecord{Name: str("A"), Email: str("dup@example.com")})
	require.NoError(t, err)

	_, err = store.Create(ctx, CandidateRecord{Name: str("B"), Email: str("dup@example.com")})
	require.Error(t, err)
	assert.True(t, IsDuplicate(err))
}

func TestCandidateStore_Update(t *testing.T) {
	db := setupTestDB(t)
	store := NewCandidateStore(db)
	ctx := context.Background()

	created, err := store.Create(ctx, CandidateRecord{Name: str("A"), Email: str("a@example.com"), Skills: Of("Go")})
	require.NoError(t, err)

	updated, err := store.Update(ctx, created.ID, CandidateRecord{Occupation: str("DBA")})
	require.NoError(t, err)
	assert.Equal(t, "DBA", updated.Occupation)
	assert.Equal(t, "A", updated.Name)
	assert.Equal(t, []string{"Go"}, updated.SkillList())

	_, err = store.Update(ctx, uuid.New(), CandidateRecord{Name: str("x")})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestApplicationLinker_OnePerPair(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	vacancy := createVacancy(t, db, "Backend Developer", models.VacancyStatusOpen)

	cand, err := NewCandidateStore(db).Upsert(ctx, CandidateRecord{Name: str("A"), Email: str("a@example.com")})
	require.NoError(t, err)

	linker := NewApplicationLinker(db)
	first, err := linker.LinkOrCreate(ctx, cand.Candidate.ID, vacancy.ID, "Approved", "fits")
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, models.ApplicationStatusAccepted, first.Application.Status)
	assert.Equal(t, "fits", first.Application.AIReason)

	second, err := linker.LinkOrCreate(ctx, cand.Candidate.ID, vacancy.ID, "REJECTED", "changed mind")
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Application.ID, second.Application.ID)
	assert.Equal(t, models.ApplicationStatusAccepted, second.Application.Status)

	var n int64
	require.NoError(t, db.Model(&models.Application{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestApplicationLinker_StatusNormalized(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	vacancy := createVacancy(t, db, "QA", models.VacancyStatusOpen)
	linker := NewApplicationLinker(db)

	for raw, want := range map[string]models.ApplicationStatus{
		"INTERVIEW": models.ApplicationStatusInterview,
		"Denied":    models.ApplicationStatusRejected,
		"maybe":     models.ApplicationStatusPending,
	} {
		cand, err := NewCandidateStore(db).Upsert(ctx, CandidateRecord{Name: str(raw), Email: str(raw + "@example.com")})
		require.NoError(t, err)

		res, err := linker.LinkOrCreate(ctx, cand.Candidate.ID, vacancy.ID, raw, "")
		require.NoError(t, err)
		assert.Equal(t, want, res.Application.Status, raw)
	}
}
