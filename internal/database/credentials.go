package database

import (
	"context"

	"log/slog"
)

// CredentialStore answers the engine's "is a credential currently usable"
// question from stored settings. It satisfies monitor.CredentialSource.
type CredentialStore struct {
	settings *SettingsRepository
	logger   *slog.Logger
}

// NewCredentialStore creates a settings-backed credential source.
func NewCredentialStore(settings *SettingsRepository, logger *slog.Logger) *CredentialStore {
	return &CredentialStore{settings: settings, logger: logger}
}

// Usable reports whether both a page id and an access token are configured.
// It says nothing about whether the token is still accepted by the platform;
// an expired token surfaces as an auth-class cycle error instead.
func (c *CredentialStore) Usable(ctx context.Context) bool {
	token, err := c.settings.Get(ctx, SettingAccessToken)
	if err != nil {
		c.logger.Error("failed to read access token setting", "error", err)
		return false
	}
	pageID, err := c.settings.Get(ctx, SettingPageID)
	if err != nil {
		c.logger.Error("failed to read page id setting", "error", err)
		return false
	}
	return token != "" && pageID != ""
}

// Current returns the configured access token and page id, empty strings
// when not set. Reading per call means a credential saved through the API
// is picked up by the next request without a restart.
func (c *CredentialStore) Current(ctx context.Context) (string, string) {
	token, err := c.settings.Get(ctx, SettingAccessToken)
	if err != nil {
		c.logger.Error("failed to read access token setting", "error", err)
		return "", ""
	}
	pageID, err := c.settings.Get(ctx, SettingPageID)
	if err != nil {
		c.logger.Error("failed to read page id setting", "error", err)
		return "", ""
	}
	return token, pageID
}

// AccountID returns the configured page id, or "" when not set.
func (c *CredentialStore) AccountID(ctx context.Context) string {
	pageID, err := c.settings.Get(ctx, SettingPageID)
	if err != nil {
		c.logger.Error("failed to read page id setting", "error", err)
		return ""
	}
	return pageID
}
