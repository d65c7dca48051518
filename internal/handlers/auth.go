package handlers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"localserve/internal/database"
	"localserve/internal/models"
)

const (
	roleUser  = "user"
	roleAdmin = "admin"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type LoginResponseUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// TokenConfig carries the signing secret and lifetimes of issued tokens.
type TokenConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type issuedTokens struct {
	AccessToken    string
	RefreshToken   string
	RefreshTokenID primitive.ObjectID
	ExpiresIn      int64
}

func Register(accounts AccountRepository, refresh TokenRepository, tokens TokenConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/register"
		defer handlePanic(c, route)

		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		name := strings.TrimSpace(req.Name)
		if name == "" {
			respondWithError(c, http.StatusBadRequest, route, "name is required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Println("[AUTH] [ERROR] register password hash failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "password hash failed")
			return
		}

		now := time.Now()
		user := models.User{
			Email:        email,
			PasswordHash: string(hash),
			Name:         name,
			Phone:        strings.TrimSpace(req.Phone),
			Role:         roleUser,
			IsActive:     true,
			Addresses:    []models.Address{},
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		err = accounts.Create(ctx, &user)
		if errors.Is(err, database.ErrDuplicate) {
			log.Println("[AUTH] [ERROR] register email exists:", email)
			respondWithError(c, http.StatusConflict, route, "email already registered")
			return
		}
		if err != nil {
			log.Println("[AUTH] [ERROR] register insert failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		issued, err := issueTokens(ctx, refresh, user, tokens)
		if err != nil {
			log.Println("[AUTH] [ERROR] register token generation failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		log.Println("[AUTH] [INFO] user registered:", email)
		c.JSON(http.StatusCreated, authResponse(issued, user))
	}
}

func Login(accounts AccountRepository, refresh TokenRepository, tokens TokenConfig) gin.HandlerFunc {
	return loginWithRole(accounts, refresh, tokens, "POST /auth/login", "")
}

// AdminLogin accepts only accounts with the admin role.
func AdminLogin(accounts AccountRepository, refresh TokenRepository, tokens TokenConfig) gin.HandlerFunc {
	return loginWithRole(accounts, refresh, tokens, "POST /admin/login", roleAdmin)
}

func loginWithRole(accounts AccountRepository, refresh TokenRepository, tokens TokenConfig, route, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		if email == "" || strings.TrimSpace(req.Password) == "" {
			respondWithError(c, http.StatusBadRequest, route, "email and password are required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, err := accounts.FindByEmail(ctx, email, role)
		if errors.Is(err, database.ErrNotFound) {
			log.Println("[AUTH] [ERROR] login unknown account")
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}
		if err != nil {
			log.Println("[AUTH] [ERROR] login user lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			log.Println("[AUTH] [ERROR] login invalid credentials")
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}
		if !user.IsActive {
			log.Println("[AUTH] [ERROR] user inactive:", email)
			respondWithError(c, http.StatusForbidden, route, "user is inactive")
			return
		}

		issued, err := issueTokens(ctx, refresh, user, tokens)
		if err != nil {
			log.Println("[AUTH] [ERROR] login token generation failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		log.Println("[AUTH] [INFO] login succeeded:", user.Email)
		c.JSON(http.StatusOK, authResponse(issued, user))
	}
}

func GetMe(accounts AccountRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /auth/me"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			log.Println("[AUTH] [ERROR] userId missing in context")
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, err := accounts.FindByID(ctx, userID)
		if errors.Is(err, database.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}
		if err != nil {
			log.Println("[AUTH] [ERROR] get me failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked. Presenting a token that was already rotated revokes every
// token of its user.
func Refresh(accounts AccountRepository, refresh TokenRepository, tokens TokenConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/refresh"
		defer handlePanic(c, route)

		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		token, err := refresh.FindByHash(ctx, hashToken(strings.TrimSpace(req.RefreshToken)))
		if errors.Is(err, database.ErrNotFound) {
			respondWithError(c, http.StatusUnauthorized, route, "invalid refresh token")
			return
		}
		if err != nil {
			log.Println("[AUTH] [ERROR] refresh lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		now := time.Now()
		if token.RevokedAt != nil && token.ReplacedBy != nil {
			log.Println("[AUTH] [WARN] rotated refresh token reused, revoking user tokens:", token.UserID.Hex())
			if err := refresh.RevokeAllForUser(ctx, token.UserID, now); err != nil {
				log.Println("[AUTH] [ERROR] revoke user tokens failed:", err)
			}
		}
		if !token.Usable(now) {
			respondWithError(c, http.StatusUnauthorized, route, "refresh token expired")
			return
		}

		user, err := accounts.FindByID(ctx, token.UserID)
		if errors.Is(err, database.ErrNotFound) {
			respondWithError(c, http.StatusUnauthorized, route, "user not found")
			return
		}
		if err != nil {
			log.Println("[AUTH] [ERROR] refresh user lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if !user.IsActive {
			respondWithError(c, http.StatusForbidden, route, "user is inactive")
			return
		}

		issued, err := issueTokens(ctx, refresh, user, tokens)
		if err != nil {
			log.Println("[AUTH] [ERROR] refresh token generation failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		if err := refresh.Rotate(ctx, token.ID, issued.RefreshTokenID, now); err != nil {
			log.Println("[AUTH] [WARN] refresh rotation lost:", err)
			_ = refresh.Revoke(ctx, issued.RefreshTokenID, now)
			respondWithError(c, http.StatusUnauthorized, route, "invalid refresh token")
			return
		}

		c.JSON(http.StatusOK, authResponse(issued, user))
	}
}

func Logout(refresh TokenRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/logout"
		defer handlePanic(c, route)

		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		err := refresh.RevokeByHash(ctx, hashToken(strings.TrimSpace(req.RefreshToken)), time.Now())
		if errors.Is(err, database.ErrNotFound) {
			respondWithError(c, http.StatusUnauthorized, route, "invalid refresh token")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}

func authResponse(issued *issuedTokens, user models.User) gin.H {
	return gin.H{
		"accessToken":  issued.AccessToken,
		"refreshToken": issued.RefreshToken,
		"expiresIn":    issued.ExpiresIn,
		"user": LoginResponseUser{
			ID:    user.ID.Hex(),
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
	}
}

func signAccessToken(user models.User, secret string, ttl time.Duration, now time.Time) (string, error) {
	role := user.Role
	if role == "" {
		role = roleUser
	}
	claims := jwt.MapClaims{
		"userId": user.ID.Hex(),
		"role":   role,
		"email":  user.Email,
		"iat":    now.Unix(),
		"exp":    now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func issueTokens(ctx context.Context, refresh TokenRepository, user models.User, cfg TokenConfig) (*issuedTokens, error) {
	now := time.Now()
	accessToken, err := signAccessToken(user, cfg.Secret, cfg.AccessTTL, now)
	if err != nil {
		return nil, err
	}

	plainRefresh, err := generateRefreshString()
	if err != nil {
		return nil, err
	}

	token := models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(plainRefresh),
		ExpiresAt: now.Add(cfg.RefreshTTL),
		CreatedAt: now,
	}
	if err := refresh.Insert(ctx, &token); err != nil {
		return nil, err
	}

	return &issuedTokens{
		AccessToken:    accessToken,
		RefreshToken:   plainRefresh,
		RefreshTokenID: token.ID,
		ExpiresIn:      int64(cfg.AccessTTL.Seconds()),
	}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateRefreshString() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
