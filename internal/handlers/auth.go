package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"messenger-service/internal/config"
	"messenger-service/internal/email"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/token"
)

const verificationTTL = 24 * time.Hour

// AuthHandler manages signup, email verification and session endpoints.
type AuthHandler struct {
	users  repositories.UserRepository
	tokens *token.Manager
	mail   email.Mailer
	cfg    *config.Config
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(users repositories.UserRepository, tokens *token.Manager, mail email.Mailer, cfg *config.Config) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, mail: mail, cfg: cfg}
}

// Signup registers an account and sends the verification email. The
// account cannot log in until the emailed link is visited.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Username string `json:"username" binding:"required,min=3,max=32"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account"})
		return
	}

	verificationToken := uuid.NewString()
	expiresAt := time.Now().Add(verificationTTL)

	created, err := h.users.Create(c.Request.Context(), req.Email, req.Username, string(hash), verificationToken, expiresAt)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrEmailTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "email already registered"})
		case errors.Is(err, repositories.ErrUsernameTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "username already taken"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account"})
		}
		return
	}

	link := h.cfg.AppURL + "/auth/verify?token=" + verificationToken
	if err := h.mail.SendVerificationEmail(created.Email, created.Username, link); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send verification email"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "verification email sent", "userId": created.ID})
}

// VerifyEmail marks the account verified from the emailed token.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	verificationToken := c.Query("token")
	if verificationToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}

	user, err := h.users.GetByVerificationToken(c.Request.Context(), verificationToken)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired verification token"})
		return
	}

	if err := h.users.MarkVerified(c.Request.Context(), user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "email verified"})
}

// Login checks credentials and sets the session cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if !user.IsVerified {
		c.JSON(http.StatusForbidden, gin.H{"error": "email not verified"})
		return
	}

	session, err := h.tokens.Issue(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue session"})
		return
	}

	c.SetCookie("token", session, int(h.cfg.TokenTTL.Seconds()), "/", "", !h.cfg.IsDevelopment(), true)
	c.JSON(http.StatusOK, gin.H{"user": models.UserSummary{ID: user.ID, Username: user.Username, Email: user.Email, IsOnline: user.IsOnline}})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie("token", "", -1, "/", "", !h.cfg.IsDevelopment(), true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Check reports the authenticated user behind the current session.
func (h *AuthHandler) Check(c *gin.Context) {
	userID := c.GetInt64("userID")

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": models.UserSummary{ID: user.ID, Username: user.Username, Email: user.Email, IsOnline: user.IsOnline}})
}

// ForgotPassword issues a reset token and emails the reset link. The
// response does not reveal whether the address exists.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"message": "if the account exists, a reset email was sent"})
		return
	}

	resetToken := uuid.NewString()
	if err := h.users.SetResetToken(c.Request.Context(), user.ID, resetToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create reset token"})
		return
	}

	link := h.cfg.AppURL + "/auth/reset-password?token=" + resetToken
	if err := h.mail.SendPasswordResetEmail(user.Email, user.Username, link); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send reset email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "if the account exists, a reset email was sent"})
}

// ResetPassword sets a new password from a valid reset token.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.GetByResetToken(c.Request.Context(), req.Token)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reset token"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset password"})
		return
	}
	if err := h.users.UpdatePassword(c.Request.Context(), user.ID, string(hash)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
