package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pagepulse/pagepulse/internal/database"
	"github.com/pagepulse/pagepulse/internal/graph"
	"log/slog"
)

// SettingsStore is the settings persistence surface the handler needs. The
// database.SettingsRepository satisfies this.
type SettingsStore interface {
	Set(ctx context.Context, key, value string) error
	GetAll(ctx context.Context) (map[string]string, error)
}

// PageVerifier checks that the stored credential is accepted by the
// platform. The graph clients satisfy this.
type PageVerifier interface {
	PageInfo(ctx context.Context) (*graph.PageInfo, error)
}

// SettingsHandler manages the page credential settings.
type SettingsHandler struct {
	repo     SettingsStore
	verifier PageVerifier
	logger   *slog.Logger
}

// NewSettingsHandler creates a new settings handler. verifier may be nil.
func NewSettingsHandler(repo SettingsStore, verifier PageVerifier, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		repo:     repo,
		verifier: verifier,
		logger:   logger,
	}
}

// SettingsRequest updates the page credential. Empty fields are left
// unchanged so the token and page id can be updated independently.
type SettingsRequest struct {
	AccessToken string `json:"access_token"`
	PageID      string `json:"page_id"`
}

// SettingsResponse never includes the full token.
type SettingsResponse struct {
	AccessTokenSet  bool   `json:"access_token_set"`
	AccessTokenTail string `json:"access_token_tail,omitempty"`
	PageID          string `json:"page_id"`
}

// GetSettings handles GET /api/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	all, err := h.repo.GetAll(r.Context())
	if err != nil {
		h.logger.Error("failed to load settings", "error", err)
		http.Error(w, "Failed to load settings", http.StatusInternalServerError)
		return
	}

	token := all[database.SettingAccessToken]
	response := SettingsResponse{
		AccessTokenSet: token != "",
		PageID:         all[database.SettingPageID],
	}
	if n := len(token); n > 4 {
		response.AccessTokenTail = token[n-4:]
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// UpdateSettings handles PUT /api/settings
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.AccessToken = strings.TrimSpace(req.AccessToken)
	req.PageID = strings.TrimSpace(req.PageID)
	if req.AccessToken == "" && req.PageID == "" {
		http.Error(w, "Nothing to update", http.StatusBadRequest)
		return
	}

	if req.AccessToken != "" {
		if err := h.repo.Set(r.Context(), database.SettingAccessToken, req.AccessToken); err != nil {
			h.logger.Error("failed to save access token", "error", err)
			http.Error(w, "Failed to save settings", http.StatusInternalServerError)
			return
		}
	}
	if req.PageID != "" {
		if err := h.repo.Set(r.Context(), database.SettingPageID, req.PageID); err != nil {
			h.logger.Error("failed to save page id", "error", err)
			http.Error(w, "Failed to save settings", http.StatusInternalServerError)
			return
		}
	}

	h.logger.Info("settings updated",
		"token_changed", req.AccessToken != "",
		"page_changed", req.PageID != "",
	)

	// Check the saved credential against the platform. A failure does not
	// roll back the save: the operator may be entering the token and page
	// id in two calls.
	response := map[string]interface{}{
		"success": true,
	}
	if h.verifier != nil {
		if info, err := h.verifier.PageInfo(r.Context()); err != nil {
			h.logger.Warn("saved credential failed verification", "error", err)
			response["verified"] = false
		} else {
			h.logger.Info("credential verified", "page_id", info.ID, "page_name", info.Name)
			response["verified"] = true
			response["page_name"] = info.Name
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
