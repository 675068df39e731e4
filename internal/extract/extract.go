// Package extract turns uploaded PDF CVs into normalized plain text.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"cv-talent/pkg/apperr"

	"code.sajari.com/docconv"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

var (
	ErrEmptyFile = errors.New("file is empty")
	ErrNotPDF    = errors.New("file is not a PDF document")
)

// FallbackFunc converts a whole PDF when the page reader cannot.
type FallbackFunc func(data []byte) (string, error)

// Extractor reads text page by page with ledongthuc/pdf and falls back to
// docconv (pdftotext) for documents the pure-Go reader rejects.
type Extractor struct {
	logger   *zap.Logger
	fallback FallbackFunc
}

func New(logger *zap.Logger) *Extractor {
	return &Extractor{
		logger:   logger,
		fallback: docconvFallback,
	}
}

// WithFallback replaces the whole-document fallback. Passing nil disables it.
func (e *Extractor) WithFallback(fn FallbackFunc) *Extractor {
	e.fallback = fn
	return e
}

// Extract returns the cleaned text of a PDF. Pages without extractable text
// contribute nothing. Unreadable documents fail with an extraction error.
func (e *Extractor) Extract(ctx context.Context, name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperr.Extraction(name, ErrEmptyFile)
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data[:min(len(data), 1024)], "\x00\t\r\n "), []byte("%PDF")) {
		return "", apperr.Extraction(name, ErrNotPDF)
	}

	text, err := e.readPages(ctx, name, data)
	if err == nil {
		return Clean(text), nil
	}
	if ctx.Err() != nil {
		return "", apperr.Extraction(name, ctx.Err())
	}

	if e.fallback == nil {
		return "", apperr.Extraction(name, err)
	}

	e.logger.Debug("Page reader failed, trying fallback",
		zap.String("file", name),
		zap.Error(err),
	)

	text, fbErr := e.fallback(data)
	if fbErr != nil {
		return "", apperr.Extraction(name, fmt.Errorf("%w (fallback: %v)", err, fbErr))
	}

	return Clean(text), nil
}

func (e *Extractor) readPages(ctx context.Context, name string, data []byte) (text string, err error) {
	// The page reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Debug("Skipping unreadable page",
				zap.String("file", name),
				zap.Int("page", i),
				zap.Error(err),
			)
			continue
		}

		sb.WriteString(pageText)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

func docconvFallback(data []byte) (string, error) {
	res, err := docconv.Convert(bytes.NewReader(data), "application/pdf", false)
	if err != nil {
		return "", err
	}
	return res.Body, nil
}
