package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

func TestUserModel_HashPassword(t *testing.T) {
	user := &User{}

	t.Run("hashes_valid_password", func(t *testing.T) {
		user.Password = "testpassword123"
		err := user.HashPassword()

		assert.NoError(t, err)
		assert.NotEqual(t, "testpassword123", user.Password)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("testpassword123")))
	})

	t.Run("handles_empty_password", func(t *testing.T) {
		user.Password = ""
		assert.NoError(t, user.HashPassword())
		assert.Equal(t, "", user.Password)
	})
}

func TestUserModel_CheckPassword(t *testing.T) {
	user := &User{Password: "plainpassword"}
	assert.NoError(t, user.HashPassword())

	assert.True(t, user.CheckPassword("plainpassword"))
	assert.False(t, user.CheckPassword("wrongpassword"))
	assert.False(t, user.CheckPassword(""))

	unhashed := &User{Password: "plaintext"}
	assert.False(t, unhashed.CheckPassword("plaintext"))
}

func TestUserModel_ToResponse(t *testing.T) {
	now := time.Now()
	user := &User{
		ID:          uuid.New(),
		Name:        "Rita Recruiter",
		Email:       "rita@example.com",
		Password:    "secret-hash",
		IsActive:    true,
		LastLoginAt: &now,
		Role:        Role{Name: RoleRecruiter},
	}

	resp := user.ToResponse()
	assert.Equal(t, user.ID, resp.ID)
	assert.Equal(t, "rita@example.com", resp.Email)
	assert.Equal(t, RoleRecruiter, resp.Role)
	assert.Equal(t, &now, resp.LastLoginAt)
	assert.False(t, user.IsAdmin())

	user.Role.Name = RoleAdmin
	assert.True(t, user.IsAdmin())
	assert.Equal(t, RoleAdmin, user.RoleName())
}

func TestStatusValidity(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, UserRole("owner").Valid())

	assert.True(t, VacancyStatusPaused.Valid())
	assert.False(t, VacancyStatus("archived").Valid())

	for _, s := range []ApplicationStatus{
		ApplicationStatusPending, ApplicationStatusInterview, ApplicationStatusOffered,
		ApplicationStatusAccepted, ApplicationStatusRejected,
	} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, ApplicationStatus("hired").Valid())

	assert.True(t, ShareStatusAccepted.Valid())
	assert.False(t, ShareStatus("ignored").Valid())
}

func TestCanonicalApplicationStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want ApplicationStatus
	}{
		{"accepted", ApplicationStatusAccepted},
		{"Approved", ApplicationStatusAccepted},
		{" ACCEPT ", ApplicationStatusAccepted},
		{"not approved", ApplicationStatusRejected},
		{"not_approved", ApplicationStatusRejected},
		{"Not-Approved", ApplicationStatusRejected},
		{"denied", ApplicationStatusRejected},
		{"rejected", ApplicationStatusRejected},
		{"interview", ApplicationStatusInterview},
		{"OFFERED", ApplicationStatusOffered},
		{"pending", ApplicationStatusPending},
		{"", ApplicationStatusPending},
		{"maybe later", ApplicationStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalApplicationStatus(tt.raw))
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	str := func(s string) *string { return &s }

	assert.Nil(t, NormalizeEmail(nil))
	assert.Nil(t, NormalizeEmail(str("   ")))
	assert.Equal(t, "ana@example.com", *NormalizeEmail(str("  Ana@Example.COM ")))
}

func TestEncodeDecodeList(t *testing.T) {
	assert.JSONEq(t, `[]`, string(EncodeList[string](nil)))

	langs := []Language{{Language: "German", Level: "B2"}}
	raw := EncodeList(langs)
	assert.Equal(t, langs, DecodeList[Language](raw))

	assert.Equal(t, []string{}, DecodeList[string](nil))
	assert.Equal(t, []string{}, DecodeList[string](datatypes.JSON(`{"not":"a list"}`)))
}

func TestCandidateAccessors(t *testing.T) {
	years := 3
	c := &Candidate{
		Skills:     EncodeList([]string{"Go"}),
		Experience: EncodeList([]Experience{{Company: "Acme", Position: "Dev", Years: &years}}),
		Education:  EncodeList([]Education{{Degree: "BSc", Institution: "UNAM", Years: "2010-2014"}}),
	}

	assert.Equal(t, []string{"Go"}, c.SkillList())
	assert.Equal(t, 3, *c.ExperienceList()[0].Years)
	assert.Equal(t, "UNAM", c.EducationList()[0].Institution)
	assert.Empty(t, c.LanguageList())
	assert.Equal(t, "", c.EmailValue())
}

func TestBeforeCreateDefaults(t *testing.T) {
	email := " Mixed@Case.com "
	c := &Candidate{Email: &email}
	assert.NoError(t, c.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.Equal(t, "mixed@case.com", c.EmailValue())

	v := &Vacancy{}
	assert.NoError(t, v.BeforeCreate(nil))
	assert.Equal(t, VacancyStatusClosed, v.Status)
	assert.False(t, v.CreationDate.IsZero())

	a := &Application{}
	assert.NoError(t, a.BeforeCreate(nil))
	assert.Equal(t, ApplicationStatusPending, a.Status)
	assert.False(t, a.ApplicationDate.IsZero())

	s := &CandidateShare{}
	assert.NoError(t, s.BeforeCreate(nil))
	assert.Equal(t, ShareStatusPending, s.Status)

	r := &IngestionRun{}
	assert.NoError(t, r.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, r.ID)
}
