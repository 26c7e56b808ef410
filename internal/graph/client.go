// Package graph talks to the Facebook Graph API on behalf of one page.
// The engine only depends on the Client interface; the HTTP implementation
// and the in-memory mock are selected by configuration at construction time.
package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/pagepulse/pagepulse/internal/models"
)

// Client is the content API surface the monitoring engine consumes.
//
// ListComments must return every comment with its direct replies already
// populated (the HTTP client does this through a nested field expansion in
// the same request); the engine performs no separate reply fetch.
type Client interface {
	ListReels(ctx context.Context) ([]models.Reel, error)
	ListComments(ctx context.Context, reelID string) ([]models.Comment, error)
	PostReply(ctx context.Context, commentID, message string) error
	// SendPrivateReply sends a one-off private message addressed to a
	// comment. Best-effort: callers treat failure as non-fatal.
	SendPrivateReply(ctx context.Context, commentID, message string) error
	PageInfo(ctx context.Context) (*PageInfo, error)
}

// PageInfo describes the page the client acts as.
type PageInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Error is a decoded Graph API error response. Code and Subcode carry the
// platform's numeric error identifiers; Status is the HTTP status.
type Error struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
	Subcode int    `json:"error_subcode"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("graph API error %d (%s): %s [http %d]", e.Code, e.Type, e.Message, e.Status)
}

// Graph error codes the engine cares about.
const (
	// codeAlreadyReplied is returned by the Private Replies API when the
	// comment was already answered privately. Treated as success.
	codeAlreadyReplied = 10900
)

// IsAuth reports whether the error indicates a bad, expired or missing
// access token.
func (e *Error) IsAuth() bool {
	switch e.Code {
	case 102, 190: // session / OAuth access token errors
		return true
	}
	return e.Type == "OAuthException" || e.Status == 401 || e.Status == 403
}

// IsRateLimit reports whether the platform throttled the call.
func (e *Error) IsRateLimit() bool {
	switch e.Code {
	case 4, 17, 32, 613: // application, user, page and custom rate limits
		return true
	}
	return e.Status == 429
}

func asGraphError(err error, target **Error) bool {
	return errors.As(err, target)
}
