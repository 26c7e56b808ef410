package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"log/slog"

	"github.com/pagepulse/pagepulse/internal/models"
)

// timeLayout is the timestamp format the Graph API uses (RFC 3339 with a
// zone offset but no colon).
const timeLayout = "2006-01-02T15:04:05-0700"

// HTTPClient calls the real Graph API.
type HTTPClient struct {
	accessToken   string
	pageID        string
	credFn        func(ctx context.Context) (accessToken, pageID string)
	baseURL       string
	reelsLimit    int
	commentsLimit int
	repliesLimit  int
	httpClient    *http.Client
	logger        *slog.Logger
}

// HTTPClientConfig carries the construction parameters for HTTPClient.
type HTTPClientConfig struct {
	AccessToken   string
	PageID        string
	Version       string
	ReelsLimit    int
	CommentsLimit int
	RepliesLimit  int
	Timeout       time.Duration
	// CredentialFunc, when set, is consulted on every request instead of
	// the static AccessToken/PageID pair, so credential updates take
	// effect without a restart.
	CredentialFunc func(ctx context.Context) (accessToken, pageID string)
	// BaseURL overrides the Graph endpoint, for tests.
	BaseURL string
}

// NewHTTPClient creates a Graph API client for one page.
func NewHTTPClient(cfg HTTPClientConfig, logger *slog.Logger) *HTTPClient {
	base := cfg.BaseURL
	if base == "" {
		base = "https://graph.facebook.com"
	}
	version := cfg.Version
	if version == "" {
		version = "v20.0"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPClient{
		accessToken:   cfg.AccessToken,
		pageID:        cfg.PageID,
		credFn:        cfg.CredentialFunc,
		baseURL:       fmt.Sprintf("%s/%s", base, version),
		reelsLimit:    orDefault(cfg.ReelsLimit, 25),
		commentsLimit: orDefault(cfg.CommentsLimit, 100),
		repliesLimit:  orDefault(cfg.RepliesLimit, 100),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func orDefault(n, fallback int) int {
	if n <= 0 {
		return fallback
	}
	return n
}

// credentials returns the access token and page id to use for one request.
func (c *HTTPClient) credentials(ctx context.Context) (string, string) {
	if c.credFn != nil {
		return c.credFn(ctx)
	}
	return c.accessToken, c.pageID
}

// PageInfo fetches the page's identity, which doubles as a credential check.
func (c *HTTPClient) PageInfo(ctx context.Context) (*PageInfo, error) {
	params := url.Values{}
	params.Set("fields", "id,name")

	_, pageID := c.credentials(ctx)

	var info PageInfo
	if err := c.get(ctx, fmt.Sprintf("%s/%s", c.baseURL, pageID), params, &info); err != nil {
		return nil, fmt.Errorf("failed to fetch page info: %w", err)
	}
	return &info, nil
}

// ListReels fetches the page's most recent reels.
func (c *HTTPClient) ListReels(ctx context.Context) ([]models.Reel, error) {
	params := url.Values{}
	params.Set("fields", "id,description,updated_time")
	params.Set("limit", fmt.Sprintf("%d", c.reelsLimit))

	_, pageID := c.credentials(ctx)

	var resp struct {
		Data []wireReel `json:"data"`
	}
	if err := c.get(ctx, fmt.Sprintf("%s/%s/video_reels", c.baseURL, pageID), params, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch reels: %w", err)
	}

	reels := make([]models.Reel, 0, len(resp.Data))
	for _, item := range resp.Data {
		reels = append(reels, item.toModel())
	}

	c.logger.Debug("fetched reels", "count", len(reels))
	return reels, nil
}

// ListComments fetches the comments on a reel together with their direct
// replies, delivered inline through a nested field expansion so no separate
// per-comment reply fetch is needed.
func (c *HTTPClient) ListComments(ctx context.Context, reelID string) ([]models.Comment, error) {
	params := url.Values{}
	params.Set("fields", c.commentFields())
	params.Set("limit", fmt.Sprintf("%d", c.commentsLimit))

	var resp struct {
		Data []wireComment `json:"data"`
	}
	if err := c.get(ctx, fmt.Sprintf("%s/%s/comments", c.baseURL, reelID), params, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch comments for %s: %w", reelID, err)
	}

	comments := make([]models.Comment, 0, len(resp.Data))
	for _, item := range resp.Data {
		comments = append(comments, item.toModel())
	}

	c.logger.Debug("fetched comments", "reel_id", reelID, "count", len(comments))
	return comments, nil
}

// PostReply posts a public reply under a comment.
func (c *HTTPClient) PostReply(ctx context.Context, commentID, message string) error {
	params := url.Values{}
	params.Set("message", message)

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, fmt.Sprintf("%s/%s/comments", c.baseURL, commentID), params, nil, &resp); err != nil {
		return fmt.Errorf("failed to post reply to %s: %w", commentID, err)
	}

	c.logger.Info("posted reply", "comment_id", commentID, "reply_id", resp.ID)
	return nil
}

// SendPrivateReply sends a private message addressed to a comment through
// the Private Replies API. The platform rejects a second private reply to
// the same comment with error code 10900; that is treated as success.
func (c *HTTPClient) SendPrivateReply(ctx context.Context, commentID, message string) error {
	payload := map[string]any{
		"recipient": map[string]string{"comment_id": commentID},
		"message":   map[string]string{"text": message},
	}

	_, pageID := c.credentials(ctx)

	err := c.post(ctx, fmt.Sprintf("%s/%s/messages", c.baseURL, pageID), nil, payload, &struct{}{})
	if err != nil {
		var graphErr *Error
		if asGraphError(err, &graphErr) && graphErr.Code == codeAlreadyReplied {
			c.logger.Debug("private reply already sent", "comment_id", commentID)
			return nil
		}
		return fmt.Errorf("failed to send private reply to %s: %w", commentID, err)
	}

	c.logger.Info("sent private reply", "comment_id", commentID)
	return nil
}

func (c *HTTPClient) commentFields() string {
	return fmt.Sprintf(
		"id,message,from,created_time,comments.limit(%d).summary(true){id,message,from,created_time}",
		c.repliesLimit,
	)
}

func (c *HTTPClient) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	token, _ := c.credentials(ctx)
	params.Set("access_token", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.do(req, out)
}

func (c *HTTPClient) post(ctx context.Context, endpoint string, params url.Values, body any, out any) error {
	if params == nil {
		params = url.Values{}
	}
	token, _ := c.credentials(ctx)
	params.Set("access_token", token)

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?"+params.Encode(), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	var wrapper struct {
		Error *Error `json:"error"`
	}
	if err := json.Unmarshal(raw, &wrapper); err == nil && wrapper.Error != nil {
		wrapper.Error.Status = status
		return wrapper.Error
	}
	return &Error{Message: string(raw), Type: "unknown", Status: status}
}

// wire types mirror the Graph response shapes before conversion to models.

type wireReel struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	UpdatedTime string `json:"updated_time"`
}

func (w wireReel) toModel() models.Reel {
	return models.Reel{
		ID:          w.ID,
		Description: w.Description,
		UpdatedAt:   parseTime(w.UpdatedTime),
	}
}

type wireComment struct {
	ID          string                `json:"id"`
	Message     string                `json:"message"`
	From        *models.CommentAuthor `json:"from"`
	CreatedTime string                `json:"created_time"`
	Comments    *struct {
		Data    []wireComment `json:"data"`
		Summary struct {
			TotalCount int `json:"total_count"`
		} `json:"summary"`
	} `json:"comments"`
}

func (w wireComment) toModel() models.Comment {
	comment := models.Comment{
		ID:        w.ID,
		Message:   w.Message,
		From:      w.From,
		CreatedAt: parseTime(w.CreatedTime),
	}
	if w.Comments != nil {
		comment.ReplyCount = w.Comments.Summary.TotalCount
		comment.Replies = make([]models.Comment, 0, len(w.Comments.Data))
		for _, reply := range w.Comments.Data {
			comment.Replies = append(comment.Replies, reply.toModel())
		}
		if comment.ReplyCount < len(comment.Replies) {
			comment.ReplyCount = len(comment.Replies)
		}
	}
	return comment
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(timeLayout, raw); err == nil {
		return ts
	}
	ts, _ := time.Parse(time.RFC3339, raw)
	return ts
}
