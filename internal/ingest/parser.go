package ingest

import (
	"errors"
	"fmt"
	"strings"

	"cv-talent/pkg/apperr"

	"github.com/tidwall/gjson"
)

// ParseResult is the outcome of decoding one model reply.
type ParseResult struct {
	Records []CandidateRecord
	Dropped int
}

// ParseCandidates decodes a model reply into candidate records. The reply may
// be a JSON array, an object wrapping the array under "candidates", or a
// single candidate object, optionally inside markdown code fences. Entries
// with neither a name nor an email are dropped and counted.
func ParseCandidates(raw string) (ParseResult, error) {
	body := StripCodeFences(raw)
	if body == "" {
		return ParseResult{}, apperr.Parse(errors.New("empty response"))
	}
	if !gjson.Valid(body) {
		return ParseResult{}, apperr.Parse(fmt.Errorf("invalid JSON: %.80q", body))
	}

	var entries []gjson.Result
	doc := gjson.Parse(body)
	switch {
	case doc.IsArray():
		entries = doc.Array()
	case doc.IsObject():
		if wrapped := doc.Get("candidates"); wrapped.IsArray() {
			entries = wrapped.Array()
		} else {
			entries = []gjson.Result{doc}
		}
	default:
		return ParseResult{}, apperr.Parse(fmt.Errorf("expected a JSON array or object, got %s", doc.Type))
	}

	result := ParseResult{Records: make([]CandidateRecord, 0, len(entries))}
	for _, entry := range entries {
		if !entry.IsObject() {
			result.Dropped++
			continue
		}
		rec := recordFrom(entry)
		if !rec.Identifiable() {
			result.Dropped++
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}

// StripCodeFences removes a surrounding ``` or ```json fence. A reply that
// is already valid JSON is returned as is, even when a string value in it
// contains a fence.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if gjson.Valid(s) {
		return s
	}
	start := strings.Index(s, "```")
	if start == -1 {
		return s
	}

	body := s[start+3:]
	if nl := strings.IndexByte(body, '\n'); nl != -1 && !strings.ContainsAny(body[:nl], "[{") {
		body = body[nl+1:]
	} else {
		body = strings.TrimPrefix(body, "json")
	}
	if end := strings.LastIndex(body, "```"); end != -1 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}
