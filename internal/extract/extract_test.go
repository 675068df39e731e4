package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cv-talent/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses_spaces", "Senior   Go\t\tDeveloper", "Senior Go Developer"},
		{"collapses_blank_lines", "Skills\n\n\n\nGo\n \n\nSQL", "Skills\nGo\nSQL"},
		{"bullets", "• Go\n· SQL\n▪ Docker\n● Kubernetes", "- Go\n- SQL\n- Docker\n- Kubernetes"},
		{"windows_newlines", "Line one\r\n\r\nLine two", "Line one\nLine two"},
		{"trims", "   \n  María López \n\n ", "María López"},
		{"nbsp", "Ana\u00a0\u00a0Pérez", "Ana Pérez"},
		{"unicode_spaces", "Senior\u00a0\u00a0\u00a0Engineer\u2003\u2003Go", "Senior Engineer Go"},
		{"nbsp_around_newline", "Go\u00a0\nSQL", "Go\nSQL"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{
		"  •  Led a team of 5\n\n\n·   Shipped   v2 \r\n\r\n",
		"EXPERIENCE\n \n \nACME Corp   2019 - Present\n\t- Go",
		"plain",
		"Ana\u00a0\u2003 Pérez\u202f\n\u3000Go",
	}

	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once))
	}
}

func TestExtract_RejectsEmptyAndNonPDF(t *testing.T) {
	e := New(zap.NewNop())

	_, err := e.Extract(context.Background(), "empty.pdf", nil)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindExtraction))
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = e.Extract(context.Background(), "notes.txt", []byte("hello world"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotPDF)
	assert.Contains(t, err.Error(), "notes.txt")
}

func TestExtract_CorruptWithoutFallback(t *testing.T) {
	e := New(zap.NewNop()).WithFallback(nil)

	_, err := e.Extract(context.Background(), "broken.pdf", []byte("%PDF-1.4\nthis is not a real pdf body"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindExtraction))
}

func TestExtract_FallbackIsCleaned(t *testing.T) {
	e := New(zap.NewNop()).WithFallback(func(data []byte) (string, error) {
		return "Ana   Pérez\n\n\n• Go\n• SQL", nil
	})

	text, err := e.Extract(context.Background(), "scan.pdf", []byte("%PDF-1.7\ngarbage"))
	require.NoError(t, err)
	assert.Equal(t, "Ana Pérez\n- Go\n- SQL", text)
}

func TestExtract_FallbackFailure(t *testing.T) {
	e := New(zap.NewNop()).WithFallback(func(data []byte) (string, error) {
		return "", errors.New("pdftotext not installed")
	})

	_, err := e.Extract(context.Background(), "cv.pdf", []byte("%PDF-1.7\ngarbage"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindExtraction))
	assert.Contains(t, err.Error(), "pdftotext not installed")
}

func TestExtract_MultiPageWithBlankPage(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "multipage.pdf"))
	require.NoError(t, err)

	e := New(zap.NewNop()).WithFallback(func([]byte) (string, error) {
		t.Fatal("fallback must not run for a readable PDF")
		return "", nil
	})

	text, err := e.Extract(context.Background(), "ana.pdf", data)
	require.NoError(t, err)
	assert.Equal(t, "Ana Perez\nBackend Developer\nSkills: Go, SQL", text)
}

func TestExtract_CancelledContext(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "multipage.pdf"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = New(zap.NewNop()).Extract(ctx, "ana.pdf", data)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindExtraction))
	assert.ErrorIs(t, err, context.Canceled)
}
