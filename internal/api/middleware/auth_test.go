package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/castlebay/ledgerlink/internal/db/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T, apiKey string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Setting{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	if apiKey != "" {
		if err := db.Create(&models.Setting{Key: "api_key", Value: apiKey}).Error; err != nil {
			t.Fatalf("seed api key: %v", err)
		}
	}
	return db
}

func doRequest(db *gorm.DB, mutate func(*http.Request)) *httptest.ResponseRecorder {
	handler := APIKeyAuth(db)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/connections", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAPIKeyAuth_RejectsMissingKey(t *testing.T) {
	db := newTestDB(t, "lk-secret")
	rec := doRequest(db, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAPIKeyAuth_AcceptsBearer(t *testing.T) {
	db := newTestDB(t, "lk-secret")
	rec := doRequest(db, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer lk-secret")
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestAPIKeyAuth_AcceptsHeaderKey(t *testing.T) {
	db := newTestDB(t, "lk-secret")
	rec := doRequest(db, func(req *http.Request) {
		req.Header.Set("x-api-key", "lk-secret")
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestAPIKeyAuth_RejectsWrongKey(t *testing.T) {
	db := newTestDB(t, "lk-secret")
	rec := doRequest(db, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer lk-wrong")
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAPIKeyAuth_AllowsAllWhenUnconfigured(t *testing.T) {
	db := newTestDB(t, "")
	rec := doRequest(db, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on first-run scenario, got %d", rec.Code)
	}
}
