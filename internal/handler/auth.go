package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"faceattend/internal/auth"
	"faceattend/internal/user"
)

type registerRequest struct {
	Name                 string `json:"name" binding:"required,max=255"`
	Email                string `json:"email" binding:"required,email,max=255"`
	Password             string `json:"password" binding:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required,eqfield=Password"`
	NIK                  string `json:"nik" binding:"required"`
	PhoneNumber          string `json:"phone_number"`
}

// Register creates a user account with a hashed credential.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, fieldErrors(err))
		return
	}

	u, err := h.users.Register(c.Request.Context(), user.RegisterInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		NIK:         req.NIK,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidNIK):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"message": "Validation Failed",
				"errors":  map[string][]string{"nik": {err.Error()}},
			})
		case errors.Is(err, user.ErrInvalidPhone):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"message": "Validation Failed",
				"errors":  map[string][]string{"phone_number": {err.Error()}},
			})
		case errors.Is(err, user.ErrEmailTaken):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"message": "Validation Failed",
				"errors":  map[string][]string{"email": {err.Error()}},
			})
		case errors.Is(err, user.ErrNIKTaken):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"message": "Validation Failed",
				"errors":  map[string][]string{"nik": {err.Error()}},
			})
		default:
			log.Printf("register failed for %s: %v", req.Email, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "registration failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully!",
		"user":    u,
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and issues a token pair. Failures are generic
// on purpose: no caller can tell a missing user from a wrong password.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, fieldErrors(err))
		return
	}

	u, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
			return
		}
		log.Printf("login failed for %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "login failed"})
		return
	}

	pair, err := auth.Issue(u.ID, u.NIK, h.tokens.Issuer, h.tokens.SigningKey, h.tokens.AccessTTL, h.tokens.RefreshTTL)
	if err != nil {
		log.Printf("token issue failed for %s: %v", u.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "token issue failed"})
		return
	}
	if err := h.dir.SaveRefreshToken(c.Request.Context(), u.ID, pair.RefreshToken, pair.RefreshExp); err != nil {
		log.Printf("save refresh token failed for %s: %v", u.ID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Login successful",
		"token":         pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_at":    pair.AccessExp.Unix(),
		"user":          u,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh exchanges a valid refresh token for a new token pair. The presented
// refresh token is revoked, so each one is usable exactly once.
func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, fieldErrors(err))
		return
	}

	claims, err := auth.Parse(req.RefreshToken, h.tokens.SigningKey, h.tokens.Issuer)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid refresh token"})
		return
	}
	valid, err := h.dir.RefreshTokenValid(c.Request.Context(), req.RefreshToken)
	if err != nil {
		log.Printf("refresh token lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "refresh failed"})
		return
	}
	if !valid {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid refresh token"})
		return
	}

	pair, err := auth.Issue(claims.Subject, claims.NIK, h.tokens.Issuer, h.tokens.SigningKey, h.tokens.AccessTTL, h.tokens.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "token issue failed"})
		return
	}

	if err := h.dir.RevokeRefreshToken(c.Request.Context(), req.RefreshToken); err != nil {
		log.Printf("refresh token rotation failed for %s: %v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "refresh failed"})
		return
	}
	if err := h.dir.SaveRefreshToken(c.Request.Context(), claims.Subject, pair.RefreshToken, pair.RefreshExp); err != nil {
		log.Printf("save refresh token failed for %s: %v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "refresh failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":         pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_at":    pair.AccessExp.Unix(),
	})
}

// Logout revokes the presented access token and the user's refresh tokens.
func (h *Handler) Logout(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	if h.denylist != nil {
		ttl := time.Until(claims.ExpiresAt.Time)
		if err := h.denylist.Revoke(c.Request.Context(), claims.ID, ttl); err != nil {
			log.Printf("token revoke failed for %s: %v", claims.Subject, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "logout failed"})
			return
		}
	}
	if err := h.dir.RevokeRefreshTokens(c.Request.Context(), claims.Subject); err != nil {
		log.Printf("refresh token revoke failed for %s: %v", claims.Subject, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}
