package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/pagepulse/pagepulse/internal/models"
)

// MockClient is an in-memory Client for development and demos. It serves a
// small fixed set of reels and comments and records posted replies so that
// subsequent fetches show them as nested replies, the way the real platform
// would on the next cycle.
type MockClient struct {
	mu       sync.Mutex
	pageID   string
	pageName string
	reels    []models.Reel
	comments map[string][]models.Comment
	logger   *slog.Logger
}

// NewMockClient creates a mock acting as the given page, pre-seeded with
// sample content.
func NewMockClient(pageID string, logger *slog.Logger) *MockClient {
	now := time.Now()
	return &MockClient{
		pageID:   pageID,
		pageName: "Mock Page",
		reels: []models.Reel{
			{ID: "mock-reel-1", Description: "Product teaser", UpdatedAt: now.Add(-2 * time.Hour)},
			{ID: "mock-reel-2", Description: "Behind the scenes", UpdatedAt: now.Add(-26 * time.Hour)},
		},
		comments: map[string][]models.Comment{
			"mock-reel-1": {
				{
					ID:        "mock-comment-1",
					Message:   "Where can I buy this?",
					From:      &models.CommentAuthor{ID: "user-77", Name: "Sam"},
					CreatedAt: now.Add(-90 * time.Minute),
				},
				{
					ID:        "mock-comment-2",
					Message:   "Thanks for sharing!",
					From:      &models.CommentAuthor{ID: "user-12", Name: "Robin"},
					CreatedAt: now.Add(-30 * time.Minute),
				},
			},
			"mock-reel-2": {
				{
					ID:        "mock-comment-3",
					Message:   "Love it",
					CreatedAt: now.Add(-20 * time.Hour),
				},
			},
		},
		logger: logger,
	}
}

// PageInfo returns the mock page identity.
func (m *MockClient) PageInfo(ctx context.Context) (*PageInfo, error) {
	return &PageInfo{ID: m.pageID, Name: m.pageName}, nil
}

// ListReels returns the seeded reels.
func (m *MockClient) ListReels(ctx context.Context) ([]models.Reel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reels := make([]models.Reel, len(m.reels))
	copy(reels, m.reels)
	return reels, nil
}

// ListComments returns the seeded comments for a reel, including any replies
// posted through PostReply since.
func (m *MockClient) ListComments(ctx context.Context, reelID string) ([]models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	comments, ok := m.comments[reelID]
	if !ok {
		return nil, &Error{Message: fmt.Sprintf("unknown object %s", reelID), Type: "GraphMethodException", Code: 100, Status: 404}
	}

	out := make([]models.Comment, len(comments))
	copy(out, comments)
	return out, nil
}

// PostReply records the reply as a nested reply authored by the page.
func (m *MockClient) PostReply(ctx context.Context, commentID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for reelID, comments := range m.comments {
		for i, comment := range comments {
			if comment.ID != commentID {
				continue
			}
			reply := models.Comment{
				ID:        fmt.Sprintf("%s-reply-%d", commentID, len(comment.Replies)+1),
				Message:   message,
				From:      &models.CommentAuthor{ID: m.pageID, Name: m.pageName},
				CreatedAt: time.Now(),
			}
			comment.Replies = append(comment.Replies, reply)
			comment.ReplyCount = len(comment.Replies)
			m.comments[reelID][i] = comment

			m.logger.Info("mock reply posted", "comment_id", commentID)
			return nil
		}
	}
	return &Error{Message: fmt.Sprintf("unknown comment %s", commentID), Type: "GraphMethodException", Code: 100, Status: 404}
}

// SendPrivateReply logs the message and succeeds.
func (m *MockClient) SendPrivateReply(ctx context.Context, commentID, message string) error {
	m.logger.Info("mock private reply sent", "comment_id", commentID)
	return nil
}
