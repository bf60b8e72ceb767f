package wishlist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

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

	if err := db.AutoMigrate(&models.Product{}, &models.WishlistItem{}); err != nil {
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
	c := e.NewContext(req, rec)
	c.Set("userID", uint(1))
	return c, rec
}

func seedProduct(t *testing.T, db *gorm.DB, name string, active bool) models.Product {
	p := models.Product{Name: name, Price: 100, CategoryID: 1, Stock: 5, IsActive: active}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestAddToWishlistIdempotent(t *testing.T) {
	db := InitTestDB(t)
	h := &WishlistHandler{DB: db}
	p := seedProduct(t, db, "ring", true)

	body := `{"product_id": ` + strconv.Itoa(int(p.ID)) + `}`
	c, rec := newContext(t, http.MethodPost, "/wishlist", body)
	require.NoError(t, h.AddToWishlist(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = newContext(t, http.MethodPost, "/wishlist", body)
	require.NoError(t, h.AddToWishlist(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	require.NoError(t, db.Model(&models.WishlistItem{}).Where("user_id = ?", 1).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestAddToWishlistUnknownProduct(t *testing.T) {
	db := InitTestDB(t)
	h := &WishlistHandler{DB: db}
	inactive := seedProduct(t, db, "retired ring", false)

	c, _ := newContext(t, http.MethodPost, "/wishlist", `{"product_id": 9999}`)
	err := h.AddToWishlist(c)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, httpErr.Code)

	c, _ = newContext(t, http.MethodPost, "/wishlist", `{"product_id": `+strconv.Itoa(int(inactive.ID))+`}`)
	err = h.AddToWishlist(c)
	httpErr, ok = err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, httpErr.Code)
}

func TestRemoveFromWishlistIdempotent(t *testing.T) {
	db := InitTestDB(t)
	h := &WishlistHandler{DB: db}
	p := seedProduct(t, db, "ring", true)

	require.NoError(t, db.Create(&models.WishlistItem{UserID: 1, ProductID: p.ID}).Error)

	c, rec := newContext(t, http.MethodDelete, "/wishlist/1", "")
	c.SetParamNames("product_id")
	c.SetParamValues(strconv.Itoa(int(p.ID)))
	require.NoError(t, h.RemoveFromWishlist(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	// removing again is still a 204
	c, rec = newContext(t, http.MethodDelete, "/wishlist/1", "")
	c.SetParamNames("product_id")
	c.SetParamValues(strconv.Itoa(int(p.ID)))
	require.NoError(t, h.RemoveFromWishlist(c))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestIsInWishlist(t *testing.T) {
	db := InitTestDB(t)
	h := &WishlistHandler{DB: db}
	p := seedProduct(t, db, "ring", true)

	c, rec := newContext(t, http.MethodGet, "/wishlist/1", "")
	c.SetParamNames("product_id")
	c.SetParamValues(strconv.Itoa(int(p.ID)))
	require.NoError(t, h.IsInWishlist(c))
	require.JSONEq(t, `{"in_wishlist": false}`, rec.Body.String())

	require.NoError(t, db.Create(&models.WishlistItem{UserID: 1, ProductID: p.ID}).Error)

	c, rec = newContext(t, http.MethodGet, "/wishlist/1", "")
	c.SetParamNames("product_id")
	c.SetParamValues(strconv.Itoa(int(p.ID)))
	require.NoError(t, h.IsInWishlist(c))
	require.JSONEq(t, `{"in_wishlist": true}`, rec.Body.String())
}

func TestGetWishlistPrunesStaleRows(t *testing.T) {
	db := InitTestDB(t)
	h := &WishlistHandler{DB: db}
	live := seedProduct(t, db, "ring", true)
	gone := seedProduct(t, db, "retired ring", true)

	require.NoError(t, db.Create(&models.WishlistItem{UserID: 1, ProductID: live.ID}).Error)
	require.NoError(t, db.Create(&models.WishlistItem{UserID: 1, ProductID: gone.ID}).Error)
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", gone.ID).Update("is_active", false).Error)

	c, rec := newContext(t, http.MethodGet, "/wishlist", "")
	require.NoError(t, h.GetWishlist(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var views []wishlistItemView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	require.Equal(t, live.ID, views[0].ProductID)
}

type capturingPublisher struct {
	topics []string
}

func (p *capturingPublisher) PublishEvent(_ context.Context, topic, _ string, _ interface{}) error {
	p.topics = append(p.topics, topic)
	return nil
}

func TestWishlistEventsTopic(t *testing.T) {
	db := InitTestDB(t)
	pub := &capturingPublisher{}
	h := &WishlistHandler{DB: db, Producer: pub}
	p := seedProduct(t, db, "ring", true)

	c, _ := newContext(t, http.MethodPost, "/wishlist", `{"product_id": `+strconv.Itoa(int(p.ID))+`}`)
	require.NoError(t, h.AddToWishlist(c))

	c, _ = newContext(t, http.MethodDelete, "/wishlist/1", "")
	c.SetParamNames("product_id")
	c.SetParamValues(strconv.Itoa(int(p.ID)))
	require.NoError(t, h.RemoveFromWishlist(c))

	require.Len(t, pub.topics, 2)
	for _, topic := range pub.topics {
		require.Equal(t, "wishlist_events", topic)
	}
}

func TestWishlistCount(t *testing.T) {
	db := InitTestDB(t)
	h := &WishlistHandler{DB: db}
	ring := seedProduct(t, db, "ring", true)
	necklace := seedProduct(t, db, "necklace", true)

	require.NoError(t, db.Create(&models.WishlistItem{UserID: 1, ProductID: ring.ID}).Error)
	require.NoError(t, db.Create(&models.WishlistItem{UserID: 1, ProductID: necklace.ID}).Error)
	require.NoError(t, db.Create(&models.WishlistItem{UserID: 2, ProductID: ring.ID}).Error)

	c, rec := newContext(t, http.MethodGet, "/wishlist/count", "")
	require.NoError(t, h.WishlistCount(c))
	require.JSONEq(t, `{"count": 2}`, rec.Body.String())
}
