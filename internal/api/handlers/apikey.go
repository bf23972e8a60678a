package handlers

import (
	"log"
	"net/http"

	"github.com/castlebay/ledgerlink/internal/db"
	"gorm.io/gorm"
)

// GetAPIKeyHandler returns the current service API key.
func GetAPIKeyHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"api_key": db.GetAPIKey(database),
		})
	}
}

// RegenerateAPIKeyHandler replaces the service API key. The old key stops
// working immediately; callers must switch to the returned one.
func RegenerateAPIKeyHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apiKey := db.RegenerateAPIKey(database)
		log.Printf("🔄 API key regenerated via admin endpoint")
		writeJSON(w, http.StatusOK, map[string]string{
			"api_key": apiKey,
		})
	}
}
