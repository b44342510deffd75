package handlers

import (
	"log"
	"net/http"

	"marquee/config"
)

// BootstrapHandler hands the browser the auth SDK configuration.
type BootstrapHandler struct {
	Firebase config.FirebaseSettings
}

func NewBootstrapHandler(firebase config.FirebaseSettings) *BootstrapHandler {
	return &BootstrapHandler{Firebase: firebase}
}

// GetFirebaseConfig returns the client config, or 500 naming the first
// missing variable.
func (h *BootstrapHandler) GetFirebaseConfig(w http.ResponseWriter, r *http.Request) {
	if missing := h.Firebase.MissingFirebaseVar(); missing != "" {
		log.Printf("[bootstrap] firebase config incomplete: %s not set", missing)
		writeError(w, http.StatusInternalServerError, "Missing required environment variable: "+missing)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"apiKey":            h.Firebase.APIKey,
		"authDomain":        h.Firebase.AuthDomain,
		"projectId":         h.Firebase.ProjectID,
		"storageBucket":     h.Firebase.StorageBucket,
		"messagingSenderId": h.Firebase.MessagingSenderID,
		"appId":             h.Firebase.AppID,
	})
}
