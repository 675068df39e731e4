package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"cv-talent/internal/handlers"
	"cv-talent/internal/ingest"
	"cv-talent/internal/llm"
	"cv-talent/internal/middleware"
	"cv-talent/internal/models"
	"cv-talent/tests/testutils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	tc        *testutils.TestContext
	client    *testutils.TestHTTPClient
	gateway   *testutils.FakeGateway
	admin     *models.User
	recruiter *models.User
	adminAuth map[string]string
	auth      map[string]string
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	testutils.SetupGinTestMode()
	tc := testutils.SetupTestContext(t)
	t.Cleanup(func() { testutils.CleanupTestContext(tc) })

	gateway := &testutils.FakeGateway{}
	orchestrator := ingest.NewOrchestrator(tc.DB, testutils.FakeExtractor{}, gateway, ingest.Options{
		BatchSize: tc.Config.Ingest.BatchSize,
		Model:     llm.ModelConfigFrom(tc.Config.LLM),
	}, tc.Logger)

	authH := handlers.NewAuthHandler(tc.DB, tc.Logger, tc.JWTService)
	userH := handlers.NewUserHandler(tc.DB, tc.Logger)
	candidateH := handlers.NewCandidateHandler(tc.DB, tc.Logger, orchestrator, tc.Config.Ingest)
	vacancyH := handlers.NewVacancyHandler(tc.DB, tc.Logger)
	applicationH := handlers.NewApplicationHandler(tc.DB, tc.Logger)
	shareH := handlers.NewShareHandler(tc.DB, tc.Logger)
	ingestionH := handlers.NewIngestionHandler(tc.DB, tc.Logger)

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	v1 := r.Group("/api/v1")
	v1.POST("/auth/login", authH.Login)
	v1.POST("/auth/refresh", authH.RefreshToken)

	api := v1.Group("", middleware.AuthMiddleware(tc.JWTService, tc.DB))
	api.POST("/auth/logout", authH.Logout)
	api.GET("/auth/me", authH.Me)

	users := api.Group("/users", middleware.RequireAdmin())
	users.GET("", userH.ListUsers)
	users.POST("", userH.CreateUser)
	users.GET("/:id", userH.GetUser)
	users.DELETE("/:id", userH.DeleteUser)

	api.GET("/candidates", candidateH.ListCandidates)
	api.POST("/candidates", candidateH.CreateCandidate)
	api.GET("/candidates/email/:email", candidateH.GetCandidateByEmail)
	api.GET("/candidates/:id", candidateH.GetCandidate)
	api.PUT("/candidates/:id", candidateH.UpdateCandidate)
	api.DELETE("/candidates/:id", candidateH.DeleteCandidate)

	api.GET("/vacancies", vacancyH.ListVacancies)
	api.POST("/vacancies", vacancyH.SaveVacancy)
	api.GET("/vacancies/count", vacancyH.CountApplications)
	api.GET("/vacancies/find", vacancyH.FindVacancies)
	api.GET("/vacancies/:id", vacancyH.GetVacancy)
	api.PUT("/vacancies/:id", vacancyH.UpdateVacancy)
	api.DELETE("/vacancies/:id", vacancyH.DeleteVacancy)

	api.GET("/applications", applicationH.ListApplications)
	api.GET("/applications/:id", applicationH.ListByVacancy)
	api.GET("/applications/:id/:status", applicationH.ListByVacancyAndStatus)
	api.PUT("/applications/:id", applicationH.UpdateApplication)

	api.GET("/shares/:senderId", shareH.ListBySender)
	api.POST("/shares", shareH.CreateShare)
	api.PUT("/shares/:id/status", shareH.UpdateShareStatus)

	api.GET("/ingestions", ingestionH.ListRuns)
	api.GET("/ingestions/:id", ingestionH.GetRun)

	admin := testutils.CreateTestUser(t, tc.DB, models.RoleAdmin)
	recruiter := testutils.CreateTestUser(t, tc.DB, models.RoleRecruiter)

	return &testEnv{
		tc:        tc,
		client:    testutils.NewTestHTTPClient(r),
		gateway:   gateway,
		admin:     admin,
		recruiter: recruiter,
		adminAuth: testutils.WithAuth(testutils.GenerateAuthToken(t, tc.JWTService, admin)),
		auth:      testutils.WithAuth(testutils.GenerateAuthToken(t, tc.JWTService, recruiter)),
	}
}

func TestLogin(t *testing.T) {
	env := setupEnv(t)

	t.Run("valid credentials", func(t *testing.T) {
		body := fmt.Sprintf(`{"email":%q,"password":"password123"}`, env.recruiter.Email)
		w := env.client.POST("/api/v1/auth/login", body, nil)

		testutils.AssertJSONResponse(t, w, http.StatusOK, map[string]interface{}{
			"access_token":  nil,
			"refresh_token": nil,
			"token_type":    "Bearer",
			"expires_at":    nil,
		})

		var resp handlers.AuthResponse
		testutils.ParseJSONResponse(t, w, &resp)
		assert.Equal(t, env.recruiter.Email, resp.User.Email)
		assert.Equal(t, models.RoleRecruiter, resp.User.Role)
		assert.NotNil(t, resp.User.LastLoginAt)

		me := env.client.GET("/api/v1/auth/me", testutils.WithAuth(resp.AccessToken))
		testutils.AssertJSONResponse(t, me, http.StatusOK, map[string]interface{}{
			"email": env.recruiter.Email,
		})
	})

	t.Run("wrong password", func(t *testing.T) {
		body := fmt.Sprintf(`{"email":%q,"password":"nope-nope"}`, env.recruiter.Email)
		w := env.client.POST("/api/v1/auth/login", body, nil)
		testutils.AssertErrorResponse(t, w, http.StatusUnauthorized, "Invalid credentials")
	})

	t.Run("unknown email", func(t *testing.T) {
		w := env.client.POST("/api/v1/auth/login", `{"email":"ghost@example.com","password":"password123"}`, nil)
		testutils.AssertErrorResponse(t, w, http.StatusUnauthorized, "Invalid credentials")
	})

	t.Run("malformed body", func(t *testing.T) {
		w := env.client.POST("/api/v1/auth/login", `{"email":"not-an-email"}`, nil)
		testutils.AssertErrorResponse(t, w, http.StatusBadRequest, "Invalid request data")
	})

	t.Run("inactive user", func(t *testing.T) {
		user := testutils.CreateTestUser(t, env.tc.DB, models.RoleRecruiter)
		require.NoError(t, env.tc.DB.Model(user).Update("is_active", false).Error)

		body := fmt.Sprintf(`{"email":%q,"password":"password123"}`, user.Email)
		w := env.client.POST("/api/v1/auth/login", body, nil)
		testutils.AssertErrorResponse(t, w, http.StatusUnauthorized, "not active")
	})
}

func TestLogout_RevokesToken(t *testing.T) {
	env := setupEnv(t)
	token := testutils.GenerateAuthToken(t, env.tc.JWTService, env.recruiter)

	w := env.client.POST("/api/v1/auth/logout", "", testutils.WithAuth(token))
	require.Equal(t, http.StatusOK, w.Code)

	w = env.client.GET("/api/v1/auth/me", testutils.WithAuth(token))
	testutils.AssertErrorResponse(t, w, http.StatusUnauthorized, "")
}

func TestRefreshToken(t *testing.T) {
	env := setupEnv(t)

	login := func(t *testing.T, email string) handlers.AuthResponse {
		body := fmt.Sprintf(`{"email":%q,"password":"password123"}`, email)
		w := env.client.POST("/api/v1/auth/login", body, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp handlers.AuthResponse
		testutils.ParseJSONResponse(t, w, &resp)
		return resp
	}

	t.Run("rotates the pair", func(t *testing.T) {
		first := login(t, env.recruiter.Email)

		body := fmt.Sprintf(`{"refresh_token":%q}`, first.RefreshToken)
		w := env.client.POST("/api/v1/auth/refresh", body, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp handlers.AuthResponse
		testutils.ParseJSONResponse(t, w, &resp)
		assert.Equal(t, env.recruiter.Email, resp.User.Email)
		assert.NotEqual(t, first.RefreshToken, resp.RefreshToken)

		me := env.client.GET("/api/v1/auth/me", testutils.WithAuth(resp.AccessToken))
		assert.Equal(t, http.StatusOK, me.Code)

		again := env.client.POST("/api/v1/auth/refresh", body, nil)
		testutils.AssertErrorResponse(t, again, http.StatusUnauthorized, "Invalid refresh token")
	})

	t.Run("refresh token is not a bearer token", func(t *testing.T) {
		resp := login(t, env.recruiter.Email)
		w := env.client.GET("/api/v1/auth/me", testutils.WithAuth(resp.RefreshToken))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("access token is rejected", func(t *testing.T) {
		resp := login(t, env.recruiter.Email)
		body := fmt.Sprintf(`{"refresh_token":%q}`, resp.AccessToken)
		w := env.client.POST("/api/v1/auth/refresh", body, nil)
		testutils.AssertErrorResponse(t, w, http.StatusUnauthorized, "Invalid refresh token")
	})

	t.Run("missing token", func(t *testing.T) {
		w := env.client.POST("/api/v1/auth/refresh", `{}`, nil)
		testutils.AssertErrorResponse(t, w, http.StatusBadRequest, "Invalid request data")
	})

	t.Run("deactivated user", func(t *testing.T) {
		user := testutils.CreateTestUser(t, env.tc.DB, models.RoleRecruiter)
		resp := login(t, user.Email)
		require.NoError(t, env.tc.DB.Model(user).Update("is_active", false).Error)

		body := fmt.Sprintf(`{"refresh_token":%q}`, resp.RefreshToken)
		w := env.client.POST("/api/v1/auth/refresh", body, nil)
		testutils.AssertErrorResponse(t, w, http.StatusUnauthorized, "not active")
	})
}

func TestUsers(t *testing.T) {
	env := setupEnv(t)

	t.Run("list", func(t *testing.T) {
		w := env.client.GET("/api/v1/users?page=1&page_size=10", env.adminAuth)
		var resp struct {
			Users      []models.UserResponse `json:"users"`
			Pagination struct {
				Total int64 `json:"total"`
			} `json:"pagination"`
		}
		require.Equal(t, http.StatusOK, w.Code)
		testutils.ParseJSONResponse(t, w, &resp)
		assert.Len(t, resp.Users, 2)
		assert.Equal(t, int64(2), resp.Pagination.Total)
	})

	t.Run("create and fetch", func(t *testing.T) {
		email := testutils.RandomEmail()
		body := fmt.Sprintf(`{"name":"New Recruiter","email":%q,"password":"longpassword","role":"recruiter"}`, email)
		w := env.client.POST("/api/v1/users", body, env.adminAuth)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var created models.UserResponse
		testutils.ParseJSONResponse(t, w, &created)
		assert.Equal(t, models.RoleRecruiter, created.Role)

		w = env.client.GET("/api/v1/users/"+created.ID.String(), env.adminAuth)
		testutils.AssertJSONResponse(t, w, http.StatusOK, map[string]interface{}{"email": email})

		w = env.client.POST("/api/v1/users", body, env.adminAuth)
		testutils.AssertErrorResponse(t, w, http.StatusConflict, "already exists")
	})

	t.Run("invalid role", func(t *testing.T) {
		body := `{"name":"Someone","email":"someone@example.com","password":"longpassword","role":"owner"}`
		w := env.client.POST("/api/v1/users", body, env.adminAuth)
		testutils.AssertErrorResponse(t, w, http.StatusBadRequest, "Invalid role")
	})

	t.Run("delete", func(t *testing.T) {
		other := testutils.CreateTestUser(t, env.tc.DB, models.RoleRecruiter)
		w := env.client.DELETE("/api/v1/users/"+other.ID.String(), env.adminAuth)
		require.Equal(t, http.StatusOK, w.Code)

		w = env.client.DELETE("/api/v1/users/"+other.ID.String(), env.adminAuth)
		testutils.AssertErrorResponse(t, w, http.StatusNotFound, "User not found")
	})

	t.Run("cannot delete self", func(t *testing.T) {
		w := env.client.DELETE("/api/v1/users/"+env.admin.ID.String(), env.adminAuth)
		testutils.AssertErrorResponse(t, w, http.StatusBadRequest, "own account")
	})

	t.Run("invalid id", func(t *testing.T) {
		w := env.client.GET("/api/v1/users/not-a-uuid", env.adminAuth)
		testutils.AssertErrorResponse(t, w, http.StatusBadRequest, "Invalid id")
	})
}
