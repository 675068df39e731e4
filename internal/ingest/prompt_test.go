package ingest

import (
	"strings"
	"testing"
	"time"

	"cv-talent/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrompt(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	texts := []string{"Ana Pérez\nGo developer", "John Smith\nJava", "Li Wei\nPython"}

	prompt, err := BuildPrompt(texts, "Backend Developer", "Go, PostgreSQL", now)
	require.NoError(t, err)

	for _, field := range []string{
		`"name"`, `"email"`, `"phone"`, `"date_of_birth"`, `"occupation"`, `"summary"`,
		`"experience"`, `"company"`, `"position"`, `"description"`, `"years"`,
		`"skills"`, `"languages"`, `"language"`, `"level"`,
		`"education"`, `"degree"`, `"institution"`, `"status"`, `"ai_reason"`,
	} {
		assert.Contains(t, prompt, field)
	}

	assert.Contains(t, prompt, "2025")
	assert.Contains(t, prompt, "Backend Developer")
	assert.Contains(t, prompt, "Go, PostgreSQL")
	assert.Contains(t, prompt, "Never translate")
	assert.Contains(t, prompt, "Always return an array")
	assert.Contains(t, prompt, "11 months is 0, 12 months is 1")

	assert.Equal(t, len(texts), strings.Count(prompt, CVDelimiter+" "))
	assert.Contains(t, prompt, CVDelimiter+" 3\nLi Wei\nPython")
	assert.Less(t, strings.Index(prompt, "Ana Pérez"), strings.Index(prompt, "John Smith"))
}

func TestBuildPrompt_Defaults(t *testing.T) {
	prompt, err := BuildPrompt([]string{"cv"}, "  ", "", time.Now())
	require.NoError(t, err)
	assert.Contains(t, prompt, `"unspecified"`)
	assert.Contains(t, prompt, "the skills the vacancy title implies")
}

func TestBuildPrompt_NoTexts(t *testing.T) {
	_, err := BuildPrompt(nil, "Backend Developer", "Go", time.Now())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestBuildPrompt_UnknownFieldsAreOmitted(t *testing.T) {
	prompt, err := BuildPrompt([]string{"cv"}, "Backend Developer", "Go", time.Now())
	require.NoError(t, err)
	assert.NotContains(t, prompt, "or empty if")
	assert.Contains(t, prompt, `"date_of_birth": "YYYY-MM-DD; omit when unknown"`)
}
