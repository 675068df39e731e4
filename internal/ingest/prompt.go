package ingest

import (
	"fmt"
	"strings"
	"time"

	"cv-talent/pkg/apperr"
)

// CVDelimiter separates CV texts inside a prompt.
const CVDelimiter = "---CV---"

const promptHeader = `You extract structured candidate data from CVs.
Each CV below starts with a line "%s" followed by its number.

Return ONLY a JSON array of candidate objects, with no text outside the JSON.
If the response must be a JSON object, return {"candidates": [ ... ]} holding that array.

Schema for each candidate:
{
  "name": "Full name",
  "email": "Email address; omit when unknown",
  "phone": "Phone number",
  "date_of_birth": "YYYY-MM-DD; omit when unknown",
  "occupation": "Current or main profession",
  "summary": "Professional summary",
  "experience": [{"company": "", "position": "", "description": "", "years": 0}],
  "skills": ["Skill"],
  "languages": [{"language": "", "level": ""}],
  "education": [{"degree": "", "institution": "", "years": "YYYY-YYYY"}],
  "status": "accepted | rejected",
  "ai_reason": "One or two sentences justifying the status"
}

Rules:
1. Always return an array, even when there is only one CV.
2. Never translate. Keep every value in the language the CV is written in.
3. A CV may be split across pages. Merge fragments that belong to the same person into one record.
4. experience[].years is a whole number computed from the date range of that position:
   - An open-ended range ("Present", "Actual", "Current", "Actualidad", "Presente") ends in %d.
   - When months are given, count whole months and divide by 12 rounding down: 11 months is 0, 12 months is 1, 23 months is 1.
   - "less than one year" is 0.
   - An explicit duration such as "3 years" is taken as written.
   - Use null only when the CV gives no dates and no duration for that position.
5. Omit a field entirely when the CV has no information for it. Use [] only when the CV states there is nothing to list.
6. status is "accepted" if the candidate fits the vacancy "%s" and shows knowledge of: %s. Otherwise it is "rejected".
7. ai_reason must justify the status clearly in one or two sentences.

CVs:
`

// BuildPrompt renders one extraction prompt for a chunk of cleaned CV texts.
func BuildPrompt(texts []string, vacancyTitle, filter string, now time.Time) (string, error) {
	if len(texts) == 0 {
		return "", apperr.Validation("no CV texts to prompt")
	}

	title := strings.TrimSpace(vacancyTitle)
	if title == "" {
		title = "unspecified"
	}
	requirements := strings.TrimSpace(filter)
	if requirements == "" {
		requirements = "the skills the vacancy title implies"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, promptHeader, CVDelimiter, now.Year(), title, requirements)
	for i, text := range texts {
		fmt.Fprintf(&sb, "%s %d\n%s\n", CVDelimiter, i+1, text)
	}
	return sb.String(), nil
}
