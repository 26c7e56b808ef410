package models

import "time"

// CommentAuthor identifies who wrote a comment. The platform withholds it
// for some users, so it may be absent entirely.
type CommentAuthor struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Comment is a read-only snapshot of a single user comment on a reel,
// fetched fresh each monitoring cycle together with its direct replies.
type Comment struct {
	ID        string         `json:"id"`
	Message   string         `json:"message"`
	From      *CommentAuthor `json:"from,omitempty"`
	CreatedAt time.Time      `json:"created_time"`
	// Replies holds the direct replies the platform returned inline.
	Replies []Comment `json:"replies,omitempty"`
	// ReplyCount is the platform's total reply count for this comment.
	// When it exceeds len(Replies) the inline reply list was truncated.
	ReplyCount int `json:"reply_count"`
}

// RepliesTruncated reports whether the platform shows more replies than it
// delivered inline. Dedup decisions cannot be trusted for such a comment.
func (c Comment) RepliesTruncated() bool {
	return c.ReplyCount > len(c.Replies)
}

// AuthoredBy reports whether the comment itself was written by the given
// account.
func (c Comment) AuthoredBy(accountID string) bool {
	return accountID != "" && c.From != nil && c.From.ID == accountID
}

// Reel is a monitored content item that comments attach to.
type Reel struct {
	ID          string    `json:"id"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_time"`
}
