package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pagepulse/pagepulse/internal/database"
	"github.com/pagepulse/pagepulse/internal/models"
	"log/slog"
)

// RulesHandler manages the per-reel reply rules.
type RulesHandler struct {
	repo   *database.RuleRepository
	logger *slog.Logger
}

// NewRulesHandler creates a new rules handler
func NewRulesHandler(repo *database.RuleRepository, logger *slog.Logger) *RulesHandler {
	return &RulesHandler{
		repo:   repo,
		logger: logger,
	}
}

// ListRules handles GET /api/rules
func (h *RulesHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list rules", "error", err)
		http.Error(w, "Failed to list rules", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"rules": rules,
		"count": len(rules),
	})
}

// UpsertRule handles PUT /api/rules
func (h *RulesHandler) UpsertRule(w http.ResponseWriter, r *http.Request) {
	var rule models.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := rule.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.repo.Upsert(r.Context(), rule); err != nil {
		h.logger.Error("failed to save rule", "target_id", rule.TargetID, "error", err)
		http.Error(w, "Failed to save rule", http.StatusInternalServerError)
		return
	}

	h.logger.Info("rule saved",
		"target_id", rule.TargetID,
		"keywords", len(rule.Keywords),
		"enabled", rule.Enabled,
	)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"rule":    rule,
	})
}

// GetRule handles GET /api/rules/:targetID
func (h *RulesHandler) GetRule(w http.ResponseWriter, r *http.Request) {
	targetID := ruleTargetID(r.URL.Path)
	if targetID == "" {
		http.Error(w, "Target ID required", http.StatusBadRequest)
		return
	}

	rule, err := h.repo.Get(r.Context(), targetID)
	if err != nil {
		h.logger.Error("failed to get rule", "target_id", targetID, "error", err)
		http.Error(w, "Failed to get rule", http.StatusInternalServerError)
		return
	}
	if rule == nil {
		http.Error(w, "Rule not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(rule)
}

// DeleteRule handles DELETE /api/rules/:targetID
func (h *RulesHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	targetID := ruleTargetID(r.URL.Path)
	if targetID == "" {
		http.Error(w, "Target ID required", http.StatusBadRequest)
		return
	}

	if err := h.repo.Delete(r.Context(), targetID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, "Rule not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete rule", "target_id", targetID, "error", err)
		http.Error(w, "Failed to delete rule", http.StatusInternalServerError)
		return
	}

	h.logger.Info("rule deleted", "target_id", targetID)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
	})
}

func ruleTargetID(path string) string {
	return strings.TrimPrefix(path, "/api/rules/")
}
