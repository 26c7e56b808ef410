package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/pagepulse/pagepulse/internal/models"
)

// RuleRepository handles rule database operations.
type RuleRepository struct {
	db *sql.DB
}

// NewRuleRepository creates a new rule repository.
func NewRuleRepository(db *sql.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// LoadRules returns all rules keyed by target content id. The monitoring
// engine calls this at the start of every cycle, so no caching happens here.
func (r *RuleRepository) LoadRules(ctx context.Context) (map[string]models.Rule, error) {
	rules, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	byTarget := make(map[string]models.Rule, len(rules))
	for _, rule := range rules {
		byTarget[rule.TargetID] = rule
	}
	return byTarget, nil
}

// List returns all rules.
func (r *RuleRepository) List(ctx context.Context) ([]models.Rule, error) {
	query := `
		SELECT target_id, keywords, reply_text, private_reply_text, enabled
		FROM rules
		ORDER BY target_id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var rules []models.Rule
	for rows.Next() {
		var rule models.Rule
		var keywords pq.StringArray
		var privateReply sql.NullString

		if err := rows.Scan(&rule.TargetID, &keywords, &rule.ReplyText, &privateReply, &rule.Enabled); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}

		rule.Keywords = []string(keywords)
		if privateReply.Valid {
			rule.PrivateReplyText = privateReply.String
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}

	return rules, nil
}

// Get returns the rule for one target, or nil when none exists.
func (r *RuleRepository) Get(ctx context.Context, targetID string) (*models.Rule, error) {
	query := `
		SELECT target_id, keywords, reply_text, private_reply_text, enabled
		FROM rules
		WHERE target_id = $1
	`

	var rule models.Rule
	var keywords pq.StringArray
	var privateReply sql.NullString

	err := r.db.QueryRowContext(ctx, query, targetID).Scan(&rule.TargetID, &keywords, &rule.ReplyText, &privateReply, &rule.Enabled)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule %s: %w", targetID, err)
	}

	rule.Keywords = []string(keywords)
	if privateReply.Valid {
		rule.PrivateReplyText = privateReply.String
	}
	return &rule, nil
}

// Upsert creates or replaces the rule for its target.
func (r *RuleRepository) Upsert(ctx context.Context, rule models.Rule) error {
	query := `
		INSERT INTO rules (target_id, keywords, reply_text, private_reply_text, enabled, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (target_id) DO UPDATE SET
			keywords = EXCLUDED.keywords,
			reply_text = EXCLUDED.reply_text,
			private_reply_text = EXCLUDED.private_reply_text,
			enabled = EXCLUDED.enabled,
			updated_at = NOW()
	`

	var privateReply sql.NullString
	if rule.PrivateReplyText != "" {
		privateReply = sql.NullString{String: rule.PrivateReplyText, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query, rule.TargetID, pq.Array(rule.Keywords), rule.ReplyText, privateReply, rule.Enabled)
	if err != nil {
		return fmt.Errorf("failed to upsert rule %s: %w", rule.TargetID, err)
	}
	return nil
}

// Delete removes the rule for a target.
func (r *RuleRepository) Delete(ctx context.Context, targetID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rules WHERE target_id = $1`, targetID)
	if err != nil {
		return fmt.Errorf("failed to delete rule %s: %w", targetID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule not found")
	}
	return nil
}
