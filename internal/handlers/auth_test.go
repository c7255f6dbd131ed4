package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"messenger-service/internal/config"
	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/token"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:       "development",
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
		AppURL:    "http://localhost:5173",
	}
}

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/signup", handler.Signup)
	r.GET("/auth/verify", handler.VerifyEmail)
	r.POST("/auth/login", handler.Login)
	r.POST("/auth/forgot-password", handler.ForgotPassword)
	r.POST("/auth/reset-password", handler.ResetPassword)
	return r
}

func TestSignupSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	mailer := new(mocks.MailerMock)
	handler := NewAuthHandler(users, token.NewManager("test-secret", time.Hour), mailer, testConfig())
	router := setupAuthRouter(handler)

	users.On("Create", mock.Anything, "a@b.com", "alice", mock.Anything, mock.Anything, mock.Anything).
		Return(models.User{ID: 1, Email: "a@b.com", Username: "alice"}, nil).Once()
	mailer.On("SendVerificationEmail", "a@b.com", "alice", mock.Anything).Return(nil).Once()

	body := bytes.NewBufferString(`{"email":"a@b.com","username":"alice","password":"supersecret"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	users.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestSignupEmailTaken(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, token.NewManager("test-secret", time.Hour), new(mocks.MailerMock), testConfig())
	router := setupAuthRouter(handler)

	users.On("Create", mock.Anything, "a@b.com", "alice", mock.Anything, mock.Anything, mock.Anything).
		Return(models.User{}, repositories.ErrEmailTaken).Once()

	body := bytes.NewBufferString(`{"email":"a@b.com","username":"alice","password":"supersecret"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignupShortPasswordRejected(t *testing.T) {
	handler := NewAuthHandler(new(mocks.UserRepositoryMock), token.NewManager("test-secret", time.Hour), new(mocks.MailerMock), testConfig())
	router := setupAuthRouter(handler)

	body := bytes.NewBufferString(`{"email":"a@b.com","username":"alice","password":"short"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyEmailSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, token.NewManager("test-secret", time.Hour), new(mocks.MailerMock), testConfig())
	router := setupAuthRouter(handler)

	users.On("GetByVerificationToken", mock.Anything, "tok").Return(models.User{ID: 1}, nil).Once()
	users.On("MarkVerified", mock.Anything, int64(1)).Return(nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/auth/verify?token=tok", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
}

func TestLoginSuccessSetsCookie(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.DefaultCost)
	require.NoError(t, err)

	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, token.NewManager("test-secret", time.Hour), new(mocks.MailerMock), testConfig())
	router := setupAuthRouter(handler)

	users.On("GetByEmail", mock.Anything, "a@b.com").Return(models.User{
		ID: 1, Email: "a@b.com", Username: "alice", PasswordHash: string(hash), IsVerified: true,
	}, nil).Once()

	body := bytes.NewBufferString(`{"email":"a@b.com","password":"supersecret"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "token", cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.DefaultCost)
	require.NoError(t, err)

	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, token.NewManager("test-secret", time.Hour), new(mocks.MailerMock), testConfig())
	router := setupAuthRouter(handler)

	users.On("GetByEmail", mock.Anything, "a@b.com").Return(models.User{
		ID: 1, PasswordHash: string(hash), IsVerified: true,
	}, nil).Once()

	body := bytes.NewBufferString(`{"email":"a@b.com","password":"wrong-password"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginUnverifiedAccount(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.DefaultCost)
	require.NoError(t, err)

	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, token.NewManager("test-secret", time.Hour), new(mocks.MailerMock), testConfig())
	router := setupAuthRouter(handler)

	users.On("GetByEmail", mock.Anything, "a@b.com").Return(models.User{
		ID: 1, PasswordHash: string(hash), IsVerified: false,
	}, nil).Once()

	body := bytes.NewBufferString(`{"email":"a@b.com","password":"supersecret"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestForgotPasswordUnknownEmailStillOK(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, token.NewManager("test-secret", time.Hour), new(mocks.MailerMock), testConfig())
	router := setupAuthRouter(handler)

	users.On("GetByEmail", mock.Anything, "ghost@b.com").Return(models.User{}, repositories.ErrUserNotFound).Once()

	body := bytes.NewBufferString(`{"email":"ghost@b.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/forgot-password", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestResetPasswordSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, token.NewManager("test-secret", time.Hour), new(mocks.MailerMock), testConfig())
	router := setupAuthRouter(handler)

	users.On("GetByResetToken", mock.Anything, "reset-tok").Return(models.User{ID: 1}, nil).Once()
	users.On("UpdatePassword", mock.Anything, int64(1), mock.Anything).Return(nil).Once()

	body := bytes.NewBufferString(`{"token":"reset-tok","password":"newpassword"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/reset-password", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
}

func TestResetPasswordBadToken(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, token.NewManager("test-secret", time.Hour), new(mocks.MailerMock), testConfig())
	router := setupAuthRouter(handler)

	users.On("GetByResetToken", mock.Anything, "bad").Return(models.User{}, repositories.ErrUserNotFound).Once()

	body := bytes.NewBufferString(`{"token":"bad","password":"newpassword"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/reset-password", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
