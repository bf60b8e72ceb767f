package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	auth "github.com/kyraajewelz/storefront/internal/middleware/auth"
	"github.com/kyraajewelz/storefront/internal/models"
)

func InitTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{}, &models.RefreshToken{},
		&models.Category{}, &models.Product{},
		&models.Review{}, &models.Setting{},
		&models.Order{}, &models.OrderItem{},
	); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func newContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func newAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{
		DB:            db,
		JWTSecret:     []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
}

func TestRegister(t *testing.T) {
	db := InitTestDB(t)
	h := newAuthHandler(db)

	c, rec := newContext(t, http.MethodPost, "/register",
		`{"username": "kyra", "email": "kyra@example.com", "password": "secret123"}`)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	require.Equal(t, "kyra", user.Username)
	require.Equal(t, auth.RoleUser, user.Role)

	var stored models.User
	require.NoError(t, db.Where("username = ?", "kyra").First(&stored).Error)
	require.NotEqual(t, "secret123", stored.PasswordHash)
}

func TestRegisterDuplicate(t *testing.T) {
	db := InitTestDB(t)
	h := newAuthHandler(db)

	c, _ := newContext(t, http.MethodPost, "/register", `{"username": "kyra", "password": "secret123"}`)
	require.NoError(t, h.Register(c))

	c, _ = newContext(t, http.MethodPost, "/register", `{"username": "kyra", "password": "other456"}`)
	err := h.Register(c)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusConflict, httpErr.Code)
}

func TestRegisterMissingFields(t *testing.T) {
	db := InitTestDB(t)
	h := newAuthHandler(db)

	c, _ := newContext(t, http.MethodPost, "/register", `{"username": "kyra"}`)
	err := h.Register(c)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestLogin(t *testing.T) {
	db := InitTestDB(t)
	h := newAuthHandler(db)

	c, _ := newContext(t, http.MethodPost, "/register", `{"username": "kyra", "password": "secret123"}`)
	require.NoError(t, h.Register(c))

	c, rec := newContext(t, http.MethodPost, "/login", `{"username": "kyra", "password": "secret123"}`)
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		IsAdmin      bool   `json:"is_admin"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	require.False(t, resp.IsAdmin)

	cookies := rec.Result().Cookies()
	names := make([]string, 0, len(cookies))
	for _, ck := range cookies {
		names = append(names, ck.Name)
	}
	require.Contains(t, names, "accessToken")
	require.Contains(t, names, "refreshToken")

	// refresh token is persisted for rotation
	var count int64
	require.NoError(t, db.Model(&models.RefreshToken{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestLoginWrongPassword(t *testing.T) {
	db := InitTestDB(t)
	h := newAuthHandler(db)

	c, _ := newContext(t, http.MethodPost, "/register", `{"username": "kyra", "password": "secret123"}`)
	require.NoError(t, h.Register(c))

	for _, body := range []string{
		`{"username": "kyra", "password": "wrong"}`,
		`{"username": "nobody", "password": "secret123"}`,
	} {
		c, _ = newContext(t, http.MethodPost, "/login", body)
		err := h.Login(c)
		httpErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		require.Equal(t, http.StatusUnauthorized, httpErr.Code)
	}
}

func registerUser(t *testing.T, db *gorm.DB, h *AuthHandler, username string) models.User {
	t.Helper()
	c, _ := newContext(t, http.MethodPost, "/register",
		`{"username": "`+username+`", "password": "secret123"}`)
	require.NoError(t, h.Register(c))

	var user models.User
	require.NoError(t, db.Where("username = ?", username).First(&user).Error)
	return user
}

func TestGetMe(t *testing.T) {
	db := InitTestDB(t)
	h := newAuthHandler(db)
	user := registerUser(t, db, h, "kyra")

	c, rec := newContext(t, http.MethodGet, "/me", "")
	c.Set("userID", user.ID)
	require.NoError(t, h.GetMe(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var me models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	require.Equal(t, "kyra", me.Username)

	// unauthenticated
	c, _ = newContext(t, http.MethodGet, "/me", "")
	err := h.GetMe(c)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestPatchMe(t *testing.T) {
	db := InitTestDB(t)
	h := newAuthHandler(db)
	user := registerUser(t, db, h, "kyra")

	c, rec := newContext(t, http.MethodPatch, "/me",
		`{"name": "Kyra Jewel", "phone": "555-0100", "address": "1 Main St"}`)
	c.Set("userID", user.ID)
	require.NoError(t, h.PatchMe(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.User
	require.NoError(t, db.First(&updated, user.ID).Error)
	require.Equal(t, "Kyra Jewel", updated.Name)
	require.Equal(t, "555-0100", updated.Phone)
	require.Equal(t, "1 Main St", updated.Address)

	// partial update leaves the rest alone, and email stays untouchable
	c, _ = newContext(t, http.MethodPatch, "/me", `{"phone": "555-0199", "email": "new@example.com"}`)
	c.Set("userID", user.ID)
	require.NoError(t, h.PatchMe(c))

	require.NoError(t, db.First(&updated, user.ID).Error)
	require.Equal(t, "555-0199", updated.Phone)
	require.Equal(t, "Kyra Jewel", updated.Name)
	require.Equal(t, user.Email, updated.Email)
}

func TestDeleteMe(t *testing.T) {
	db := InitTestDB(t)
	h := newAuthHandler(db)
	user := registerUser(t, db, h, "kyra")

	c, rec := newContext(t, http.MethodPost, "/login", `{"username": "kyra", "password": "secret123"}`)
	require.NoError(t, h.Login(c))

	c, rec = newContext(t, http.MethodDelete, "/me", "")
	c.Set("userID", user.ID)
	require.NoError(t, h.DeleteMe(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Count(&count).Error)
	require.Zero(t, count)

	// sessions are revoked with the account
	var live int64
	require.NoError(t, db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", user.ID, false).
		Count(&live).Error)
	require.Zero(t, live)
}

func TestLogOutRevokesRefreshToken(t *testing.T) {
	db := InitTestDB(t)
	h := newAuthHandler(db)

	c, _ := newContext(t, http.MethodPost, "/register", `{"username": "kyra", "password": "secret123"}`)
	require.NoError(t, h.Register(c))

	c, rec := newContext(t, http.MethodPost, "/login", `{"username": "kyra", "password": "secret123"}`)
	require.NoError(t, h.Login(c))

	var resp struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	c, rec = newContext(t, http.MethodPost, "/logout", "")
	c.Request().AddCookie(&http.Cookie{Name: "refreshToken", Value: resp.RefreshToken})
	require.NoError(t, h.LogOut(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.RefreshToken
	require.NoError(t, db.Where("token = ?", resp.RefreshToken).First(&stored).Error)
	require.True(t, stored.Revoked)
}
