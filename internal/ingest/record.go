package ingest

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"cv-talent/internal/models"

	"github.com/tidwall/gjson"
)

// CandidateRecord is a normalized candidate as produced by the parser or a
// hand-entered request. Nil scalars and non-present lists are absent and
// never overwrite stored values.
type CandidateRecord struct {
	Name        *string
	Email       *string
	Phone       *string
	DateOfBirth *string
	Occupation  *string
	Summary     *string

	Experience List[models.Experience]
	Skills     List[string]
	Languages  List[models.Language]
	Education  List[models.Education]

	Status   models.ApplicationStatus
	AIReason string
}

// Identifiable reports whether the record carries a name or an email.
func (r CandidateRecord) Identifiable() bool {
	return (r.Name != nil && strings.TrimSpace(*r.Name) != "") || r.Email != nil
}

// Label names the record in logs and failure reports.
func (r CandidateRecord) Label() string {
	if r.Email != nil {
		return *r.Email
	}
	if r.Name != nil {
		return *r.Name
	}
	return "unnamed candidate"
}

// CandidateInput is the JSON body for creating or editing a candidate.
type CandidateInput struct {
	Name        *string   `json:"name"`
	Email       *string   `json:"email"`
	Phone       *string   `json:"phone"`
	DateOfBirth *string   `json:"date_of_birth"`
	Occupation  *string   `json:"occupation"`
	Summary     *string   `json:"summary"`
	Experience  ListField `json:"experience" swaggertype:"array,object"`
	Skills      ListField `json:"skills" swaggertype:"array,string"`
	Languages   ListField `json:"languages" swaggertype:"array,object"`
	Education   ListField `json:"education" swaggertype:"array,object"`
}

// Record resolves the input into a CandidateRecord.
func (in CandidateInput) Record() CandidateRecord {
	return CandidateRecord{
		Name:        in.Name,
		Email:       models.NormalizeEmail(in.Email),
		Phone:       in.Phone,
		DateOfBirth: in.DateOfBirth,
		Occupation:  in.Occupation,
		Summary:     in.Summary,
		Experience:  ResolveList(in.Experience, experienceItem),
		Skills:      ResolveList(in.Skills, skillItem),
		Languages:   ResolveList(in.Languages, languageItem),
		Education:   ResolveList(in.Education, educationItem),
	}
}

// recordFrom reads one model-produced candidate object.
func recordFrom(obj gjson.Result) CandidateRecord {
	phone := scalar(obj.Get("phone"))
	if phone == nil {
		phone = scalar(obj.Get("phone_number"))
	}

	rec := CandidateRecord{
		Name:        scalar(obj.Get("name")),
		Email:       models.NormalizeEmail(scalar(obj.Get("email"))),
		Phone:       phone,
		DateOfBirth: scalar(obj.Get("date_of_birth")),
		Occupation:  scalar(obj.Get("occupation")),
		Summary:     scalar(obj.Get("summary")),
		Experience:  ResolveList(ListFieldOf(obj.Get("experience")), experienceItem),
		Skills:      ResolveList(ListFieldOf(obj.Get("skills")), skillItem),
		Languages:   ResolveList(ListFieldOf(obj.Get("languages")), languageItem),
		Education:   ResolveList(ListFieldOf(obj.Get("education")), educationItem),
		Status:      models.CanonicalApplicationStatus(obj.Get("status").String()),
		AIReason:    obj.Get("ai_reason").String(),
	}
	if rec.Name != nil {
		name := strings.TrimSpace(*rec.Name)
		rec.Name = &name
	}
	return rec
}

// scalar returns nil for absent or null values and the text form otherwise.
func scalar(r gjson.Result) *string {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	var s string
	if r.Type == gjson.String {
		s = r.Str
	} else {
		s = r.Raw
	}
	return &s
}

func skillItem(r gjson.Result) (string, bool) {
	var s string
	switch {
	case r.Type == gjson.String:
		s = r.Str
	case r.IsObject():
		s = r.Get("name").String()
		if s == "" {
			s = r.Get("skill").String()
		}
	case r.Type == gjson.Number:
		s = r.Raw
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func experienceItem(r gjson.Result) (models.Experience, bool) {
	if !r.IsObject() {
		return models.Experience{}, false
	}
	e := models.Experience{
		Company:     strings.TrimSpace(r.Get("company").String()),
		Position:    strings.TrimSpace(r.Get("position").String()),
		Description: strings.TrimSpace(r.Get("description").String()),
		Years:       yearsOf(r.Get("years")),
	}
	return e, e.Company != "" || e.Position != "" || e.Description != ""
}

func languageItem(r gjson.Result) (models.Language, bool) {
	var l models.Language
	switch {
	case r.Type == gjson.String:
		l.Language = strings.TrimSpace(r.Str)
	case r.IsObject():
		l.Language = strings.TrimSpace(r.Get("language").String())
		l.Level = strings.TrimSpace(r.Get("level").String())
	}
	return l, l.Language != ""
}

func educationItem(r gjson.Result) (models.Education, bool) {
	if !r.IsObject() {
		return models.Education{}, false
	}
	e := models.Education{
		Degree:      strings.TrimSpace(r.Get("degree").String()),
		Institution: strings.TrimSpace(r.Get("institution").String()),
	}
	if y := r.Get("years"); y.Exists() && y.Type != gjson.Null {
		e.Years = strings.TrimSpace(y.String())
	}
	return e, e.Degree != "" || e.Institution != ""
}

var (
	explicitYears = regexp.MustCompile(`^(\d+)\s*(?:years?|yrs?|años?)?$`)
	yearRange     = regexp.MustCompile(`^(\d{4})\s*-\s*(\d{4})$`)
)

// yearsOf reads a whole number of years. Fractions are floored.
func yearsOf(r gjson.Result) *int {
	switch r.Type {
	case gjson.Number:
		if r.Num < 0 {
			return nil
		}
		y := int(math.Floor(r.Num))
		return &y
	case gjson.String:
		s := strings.ToLower(strings.TrimSpace(r.Str))
		if m := explicitYears.FindStringSubmatch(s); m != nil {
			y, err := strconv.Atoi(m[1])
			if err != nil {
				return nil
			}
			return &y
		}
		if m := yearRange.FindStringSubmatch(s); m != nil {
			start, _ := strconv.Atoi(m[1])
			end, _ := strconv.Atoi(m[2])
			if end < start {
				return nil
			}
			y := end - start
			return &y
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
			y := int(math.Floor(f))
			return &y
		}
	}
	return nil
}
