package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cv-talent/config"
	"cv-talent/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer          = "cv-talent"
	audience        = "cv-talent-api"
	refreshAudience = "cv-talent-refresh"
)

// Claims represents JWT claims
type Claims struct {
	UserID uuid.UUID       `json:"user_id"`
	Email  string          `json:"email"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// JWTService issues and validates bearer tokens
type JWTService struct {
	secretKey  []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	blacklist  *TokenBlacklist
}

func NewJWTService(cfg *config.Config) *JWTService {
	return &JWTService{
		secretKey:  []byte(cfg.JWT.Secret),
		issuer:     issuer,
		accessTTL:  cfg.JWT.AccessExpiry,
		refreshTTL: cfg.JWT.RefreshExpiry,
		blacklist:  NewTokenBlacklist(),
	}
}

// GenerateTokenPair generates access and refresh tokens for a user.
// The user's Role must be loaded.
func (js *JWTService) GenerateTokenPair(user *models.User) (*TokenPair, error) {
	accessToken, err := js.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := js.GenerateRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(js.accessTTL.Seconds()),
		TokenType:    "Bearer",
	}, nil
}

func (js *JWTService) GenerateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.RoleName(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    js.issuer,
			Subject:   user.ID.String(),
			Audience:  []string{audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(js.accessTTL)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(js.secretKey)
}

// GenerateRefreshToken signs a long-lived token that can only be redeemed
// for a new pair, never used as a bearer token.
func (js *JWTService) GenerateRefreshToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Issuer:    js.issuer,
		Subject:   user.ID.String(),
		Audience:  []string{refreshAudience},
		ExpiresAt: jwt.NewNumericDate(now.Add(js.refreshTTL)),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(js.secretKey)
}

func (js *JWTService) parseRefreshToken(tokenString string) (*jwt.RegisteredClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return js.secretKey, nil
	}, jwt.WithIssuer(js.issuer), jwt.WithAudience(refreshAudience))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ValidateRefreshToken returns the user a refresh token was issued to.
func (js *JWTService) ValidateRefreshToken(tokenString string) (uuid.UUID, error) {
	claims, err := js.parseRefreshToken(tokenString)
	if err != nil {
		return uuid.Nil, err
	}
	if js.blacklist.IsBlacklisted(claims.ID) {
		return uuid.Nil, ErrTokenBlacklisted
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}
	return userID, nil
}

// RevokeRefreshToken makes a refresh token single use.
func (js *JWTService) RevokeRefreshToken(tokenString string) error {
	claims, err := js.parseRefreshToken(tokenString)
	if err != nil {
		return err
	}
	js.blacklist.Add(claims.ID, claims.ExpiresAt.Time)
	return nil
}

// ValidateAccessToken validates and parses an access token
func (js *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return js.secretKey, nil
	}, jwt.WithIssuer(js.issuer), jwt.WithAudience(audience))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// ValidateTokenWithBlacklist validates a token and rejects revoked ones
func (js *JWTService) ValidateTokenWithBlacklist(tokenString string) (*Claims, error) {
	claims, err := js.ValidateAccessToken(tokenString)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if js.blacklist.IsBlacklisted(claims.RegisteredClaims.ID) {
		return nil, ErrTokenBlacklisted
	}

	return claims, nil
}

// BlacklistToken revokes a token until its natural expiry
func (js *JWTService) BlacklistToken(tokenString string) error {
	claims, err := js.ValidateAccessToken(tokenString)
	if err != nil {
		return err
	}

	js.blacklist.Add(claims.RegisteredClaims.ID, claims.RegisteredClaims.ExpiresAt.Time)
	return nil
}

// GetAccessTokenExpiry returns the access token lifetime
func (js *JWTService) GetAccessTokenExpiry() time.Duration {
	return js.accessTTL
}

// StartCleanup prunes expired revocations on every interval until ctx is done.
func (js *JWTService) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				js.blacklist.Cleanup()
			}
		}
	}()
}

// ExtractTokenFromBearer extracts token from Bearer authorization header
func ExtractTokenFromBearer(authHeader string) string {
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}

// TokenBlacklist holds revoked token IDs until they expire.
type TokenBlacklist struct {
	mu     sync.Mutex
	tokens map[string]time.Time
}

func NewTokenBlacklist() *TokenBlacklist {
	return &TokenBlacklist{
		tokens: make(map[string]time.Time),
	}
}

func (tb *TokenBlacklist) Add(tokenID string, expiresAt time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.tokens[tokenID] = expiresAt
}

func (tb *TokenBlacklist) IsBlacklisted(tokenID string) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	expiresAt, exists := tb.tokens[tokenID]
	if !exists {
		return false
	}

	if time.Now().After(expiresAt) {
		delete(tb.tokens, tokenID)
		return false
	}

	return true
}

// Cleanup removes expired entries and reports how many were dropped
func (tb *TokenBlacklist) Cleanup() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	removed := 0
	for tokenID, expiresAt := range tb.tokens {
		if now.After(expiresAt) {
			delete(tb.tokens, tokenID)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked revocations.
func (tb *TokenBlacklist) Len() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return len(tb.tokens)
}

// ValidationError represents token validation errors
type ValidationError struct {
	Message string
	Code    string
}

func (e ValidationError) Error() string {
	return e.Message
}

var (
	ErrTokenExpired     = ValidationError{Message: "Token has expired", Code: "TOKEN_EXPIRED"}
	ErrTokenInvalid     = ValidationError{Message: "Invalid token", Code: "TOKEN_INVALID"}
	ErrTokenBlacklisted = ValidationError{Message: "Token has been revoked", Code: "TOKEN_REVOKED"}
)
