package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"cv-talent/config"
	"cv-talent/internal/database"
	"cv-talent/internal/llm"
	"cv-talent/internal/models"
	"cv-talent/pkg/apperr"
	"cv-talent/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TestContext holds common test dependencies
type TestContext struct {
	DB         *gorm.DB
	Config     *config.Config
	Logger     *zap.Logger
	JWTService *auth.JWTService
	Roles      map[models.UserRole]models.Role
	TempDir    string
}

// TestConfig returns a configuration backed by a SQLite file under dir.
func TestConfig(dir string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Env: "test",
		},
		Database: config.DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: filepath.Join(dir, "test.db"),
		},
		Log: config.LogConfig{
			Level:  "silent",
			Format: "json",
		},
		JWT: config.JWTConfig{
			Secret:        "test-secret-key-for-jwt-tokens",
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 7 * 24 * time.Hour,
		},
		LLM: config.LLMConfig{
			Provider:        "openai",
			Model:           "test-model",
			MaxOutputTokens: 1000,
		},
		Ingest: config.IngestConfig{
			BatchSize:   5,
			MaxFiles:    50,
			MaxFileSize: 1 << 20,
		},
		Dev: config.DevConfig{
			AutoMigrate: true,
		},
		RateLimit: config.RateLimitConfig{
			Requests:      1000,
			Window:        60,
			IdleTTL:       time.Minute,
			SweepInterval: time.Minute,
		},
	}
}

// SetupTestContext creates a complete test context with database, logger, and JWT service
func SetupTestContext(t *testing.T) *TestContext {
	t.Helper()
	tempDir := t.TempDir()
	cfg := TestConfig(tempDir)

	testLogger := zap.NewNop()

	db, err := database.Connect(cfg, testLogger)
	require.NoError(t, err)
	require.NotNil(t, db)

	roles, err := database.SeedRoles(db)
	require.NoError(t, err)

	return &TestContext{
		DB:         db,
		Config:     cfg,
		Logger:     testLogger,
		JWTService: auth.NewJWTService(cfg),
		Roles:      roles,
		TempDir:    tempDir,
	}
}

// CleanupTestContext cleans up test resources
func CleanupTestContext(ctx *TestContext) {
	if ctx.DB != nil {
		if sqlDB, err := ctx.DB.DB(); err == nil {
			sqlDB.Close()
		}
		database.DB = nil
	}

	if ctx.Config.Database.SQLitePath != "" && ctx.Config.Database.SQLitePath != ":memory:" {
		os.Remove(ctx.Config.Database.SQLitePath)
	}
}

// CreateTestUser creates an active user with the given role. The password is
// "password123".
func CreateTestUser(t *testing.T, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()
	roles, err := database.SeedRoles(db)
	require.NoError(t, err)

	user := &models.User{
		Name:     "Test " + string(role),
		Email:    RandomEmail(),
		Password: "password123",
		RoleID:   roles[role].ID,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Preload("Role").First(user, "id = ?", user.ID).Error)
	return user
}

// CreateTestVacancy creates a vacancy with the given status.
func CreateTestVacancy(t *testing.T, db *gorm.DB, status models.VacancyStatus) *models.Vacancy {
	t.Helper()
	vacancy := &models.Vacancy{
		Title:          "Backend Developer " + RandomString(4),
		Description:    "Test vacancy for automated testing",
		RequiredSkills: "Go, SQL",
		Salary:         50000,
		Status:         status,
	}
	require.NoError(t, db.Create(vacancy).Error)
	return vacancy
}

// CreateTestCandidate creates a candidate with an email and two skills.
func CreateTestCandidate(t *testing.T, db *gorm.DB) *models.Candidate {
	t.Helper()
	email := RandomEmail()
	candidate := &models.Candidate{
		Name:       "Candidate " + RandomString(4),
		Email:      &email,
		Occupation: "Software Engineer",
		Summary:    "Test candidate for automated testing",
		Skills:     models.EncodeList([]string{"Go", "SQL"}),
		Languages:  models.EncodeList([]models.Language{{Language: "English", Level: "C1"}}),
	}
	require.NoError(t, db.Create(candidate).Error)
	return candidate
}

// CreateTestApplication links a candidate to a vacancy.
func CreateTestApplication(t *testing.T, db *gorm.DB, candidateID, vacancyID uuid.UUID, status models.ApplicationStatus) *models.Application {
	t.Helper()
	app := &models.Application{
		CandidateID: &candidateID,
		VacancyID:   &vacancyID,
		Status:      status,
		AIReason:    "Created by test",
	}
	require.NoError(t, db.Create(app).Error)
	return app
}

// GenerateAuthToken generates a JWT token for testing
func GenerateAuthToken(t *testing.T, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()
	tokenPair, err := jwtService.GenerateTokenPair(user)
	require.NoError(t, err)
	return tokenPair.AccessToken
}

// FakeGateway answers prompts from a script. An empty reply is returned as a
// gateway error.
type FakeGateway struct {
	mu      sync.Mutex
	Replies []string
	Prompts []string
}

func (g *FakeGateway) Send(ctx context.Context, prompt string, cfg llm.ModelConfig) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := len(g.Prompts)
	g.Prompts = append(g.Prompts, prompt)
	if n >= len(g.Replies) || g.Replies[n] == "" {
		return "", apperr.Gateway("fake", errors.New("no scripted reply"))
	}
	return g.Replies[n], nil
}

// Calls returns the number of prompts received.
func (g *FakeGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Prompts)
}

// FakeExtractor returns file contents as text and fails for names in Fail.
type FakeExtractor struct {
	Fail map[string]bool
}

func (f FakeExtractor) Extract(ctx context.Context, name string, data []byte) (string, error) {
	if f.Fail[name] {
		return "", apperr.Extraction(name, errors.New("unreadable"))
	}
	return string(data), nil
}

// ParseJSONResponse parses JSON response body into a struct
func ParseJSONResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	err := json.Unmarshal(w.Body.Bytes(), target)
	require.NoError(t, err)
}

// AssertJSONResponse asserts that the response has the expected status and contains expected fields
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedFields map[string]interface{}) {
	t.Helper()
	require.Equal(t, expectedStatus, w.Code, w.Body.String())
	require.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	var response map[string]interface{}
	ParseJSONResponse(t, w, &response)

	for key, expectedValue := range expectedFields {
		require.Contains(t, response, key)
		if expectedValue != nil {
			require.Equal(t, expectedValue, response[key])
		}
	}
}

// AssertErrorResponse asserts that the response is an error with expected message
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedErrorMessage string) {
	t.Helper()
	require.Equal(t, expectedStatus, w.Code, w.Body.String())
	require.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	var response map[string]interface{}
	ParseJSONResponse(t, w, &response)

	require.Contains(t, response, "error")
	if expectedErrorMessage != "" {
		require.Contains(t, response["error"].(string), expectedErrorMessage)
	}
}

// SetupGinTestMode sets up Gin in test mode
func SetupGinTestMode() {
	gin.SetMode(gin.TestMode)
}

// AssertRecordExists verifies that a record exists in the database
func AssertRecordExists(t *testing.T, db *gorm.DB, model interface{}, conditions ...interface{}) {
	t.Helper()
	err := db.First(model, conditions...).Error
	require.NoError(t, err, "Expected record to exist but it was not found")
}

// AssertRecordCount verifies the count of records matching the conditions
func AssertRecordCount(t *testing.T, db *gorm.DB, model interface{}, expectedCount int64, conditions ...interface{}) {
	t.Helper()
	var count int64
	query := db.Model(model)
	if len(conditions) > 0 {
		query = query.Where(conditions[0], conditions[1:]...)
	}
	err := query.Count(&count).Error
	require.NoError(t, err)
	require.Equal(t, expectedCount, count)
}

// TestHTTPClient provides utilities for HTTP testing
type TestHTTPClient struct {
	router http.Handler
}

// NewTestHTTPClient creates a new test HTTP client
func NewTestHTTPClient(router http.Handler) *TestHTTPClient {
	return &TestHTTPClient{router: router}
}

func (c *TestHTTPClient) do(req *http.Request, headers map[string]string) *httptest.ResponseRecorder {
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

// GET performs a GET request
func (c *TestHTTPClient) GET(url string, headers map[string]string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, url, nil), headers)
}

// POST performs a POST request with a JSON body
func (c *TestHTTPClient) POST(url string, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, headers)
}

// PUT performs a PUT request with a JSON body
func (c *TestHTTPClient) PUT(url string, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, headers)
}

// DELETE performs a DELETE request
func (c *TestHTTPClient) DELETE(url string, headers map[string]string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodDelete, url, nil), headers)
}

// UploadFile is one file part of a multipart request.
type UploadFile struct {
	Field string
	Name  string
	Data  []byte
}

// Multipart performs a multipart/form-data POST.
func (c *TestHTTPClient) Multipart(t *testing.T, url string, fields map[string]string, files []UploadFile, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for key, value := range fields {
		require.NoError(t, mw.WriteField(key, value))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.Field, f.Name)
		require.NoError(t, err)
		_, err = part.Write(f.Data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, headers)
}

// WithAuth adds authentication header to the request headers
func WithAuth(token string) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + token,
	}
}

// ValidateUUID checks if a string is a valid UUID
func ValidateUUID(t *testing.T, uuidStr string) {
	t.Helper()
	_, err := uuid.Parse(uuidStr)
	require.NoError(t, err, "Expected valid UUID, got: %s", uuidStr)
}

// RandomEmail generates a random email for testing
func RandomEmail() string {
	return "test-" + uuid.New().String()[:8] + "@example.com"
}

// RandomString generates a random string of specified length
func RandomString(length int) string {
	return uuid.New().String()[:length]
}
