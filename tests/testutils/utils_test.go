package testutils

import (
	"context"
	"testing"

	"cv-talent/internal/llm"
	"cv-talent/internal/models"
	"cv-talent/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTestContext(t *testing.T) {
	ctx := SetupTestContext(t)
	defer CleanupTestContext(ctx)

	assert.Len(t, ctx.Roles, 2)

	admin := CreateTestUser(t, ctx.DB, models.RoleAdmin)
	assert.Equal(t, models.RoleAdmin, admin.RoleName())
	assert.True(t, admin.CheckPassword("password123"))

	vacancy := CreateTestVacancy(t, ctx.DB, models.VacancyStatusClosed)
	candidate := CreateTestCandidate(t, ctx.DB)
	CreateTestApplication(t, ctx.DB, candidate.ID, vacancy.ID, models.ApplicationStatusPending)

	AssertRecordCount(t, ctx.DB, &models.Application{}, 1)
	AssertRecordCount(t, ctx.DB, &models.Vacancy{}, 1, "status = ?", models.VacancyStatusClosed)
}

func TestFakeGateway(t *testing.T) {
	g := &FakeGateway{Replies: []string{"[]", ""}}

	out, err := g.Send(context.Background(), "first", llm.ModelConfig{})
	require.NoError(t, err)
	assert.Equal(t, "[]", out)

	_, err = g.Send(context.Background(), "second", llm.ModelConfig{})
	assert.True(t, apperr.Is(err, apperr.KindGateway))

	_, err = g.Send(context.Background(), "third", llm.ModelConfig{})
	assert.Error(t, err)
	assert.Equal(t, 3, g.Calls())
}

func TestFakeExtractor(t *testing.T) {
	ex := FakeExtractor{Fail: map[string]bool{"bad.pdf": true}}

	text, err := ex.Extract(context.Background(), "ok.pdf", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	_, err = ex.Extract(context.Background(), "bad.pdf", nil)
	assert.True(t, apperr.Is(err, apperr.KindExtraction))
}
