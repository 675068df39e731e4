package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Experience is one entry of a candidate's work history.
type Experience struct {
	Company     string `json:"company"`
	Position    string `json:"position"`
	Description string `json:"description"`
	Years       *int   `json:"years"`
}

// Language is a spoken language and the declared proficiency.
type Language struct {
	Language string `json:"language"`
	Level    string `json:"level"`
}

// Education is one degree or course of study.
type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Years       string `json:"years"`
}

// Candidate is a person whose CV has been ingested or entered by hand.
// Email is the deduplication key when present.
type Candidate struct {
	ID          uuid.UUID `json:"id" gorm:"type:char(36);primary_key"`
	Name        string    `json:"name" gorm:"not null;default:''"`
	Email       *string   `json:"email" gorm:"uniqueIndex;size:255"`
	Phone       string    `json:"phone"`
	DateOfBirth string    `json:"date_of_birth"`
	Occupation  string    `json:"occupation" gorm:"index"`
	Summary     string    `json:"summary" gorm:"type:text"`

	Experience datatypes.JSON `json:"experience"`
	Skills     datatypes.JSON `json:"skills"`
	Languages  datatypes.JSON `json:"languages"`
	Education  datatypes.JSON `json:"education"`

	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

// BeforeCreate assigns an ID and normalizes the email key.
func (c *Candidate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Email = NormalizeEmail(c.Email)
	return nil
}

// NormalizeEmail lower-cases and trims an email. Blank becomes nil.
func NormalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	e := strings.ToLower(strings.TrimSpace(*email))
	if e == "" {
		return nil
	}
	return &e
}

// EncodeList marshals a list for a JSON column. A nil list encodes as [].
func EncodeList[T any](items []T) datatypes.JSON {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(b)
}

// DecodeList unmarshals a JSON column, returning an empty list for NULL or bad data.
func DecodeList[T any](raw datatypes.JSON) []T {
	out := []T{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return []T{}
	}
	return out
}

func (c *Candidate) SkillList() []string {
	return DecodeList[string](c.Skills)
}

func (c *Candidate) ExperienceList() []Experience {
	return DecodeList[Experience](c.Experience)
}

func (c *Candidate) LanguageList() []Language {
	return DecodeList[Language](c.Languages)
}

func (c *Candidate) EducationList() []Education {
	return DecodeList[Education](c.Education)
}

// EmailValue returns the email or "" when none is stored.
func (c *Candidate) EmailValue() string {
	if c.Email == nil {
		return ""
	}
	return *c.Email
}
