package graph

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pagepulse/pagepulse/internal/logging"
)

func newTestClient(t *testing.T, handler http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewHTTPClient(HTTPClientConfig{
		AccessToken: "test-token",
		PageID:      "page1",
		Version:     "v20.0",
		BaseURL:     server.URL,
	}, logging.Discard())

	return client, server
}

func TestListComments_PopulatesNestedReplies(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v20.0/reel-1/comments" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("access_token"); got != "test-token" {
			t.Errorf("access_token = %q, want test-token", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [
				{
					"id": "c1",
					"message": "Thanks a lot!",
					"from": {"id": "user-9", "name": "Alex"},
					"created_time": "2024-03-01T10:00:00+0000",
					"comments": {
						"data": [
							{"id": "c1-r1", "message": "You're welcome!", "from": {"id": "page1", "name": "The Page"}, "created_time": "2024-03-01T10:05:00+0000"}
						],
						"summary": {"total_count": 1}
					}
				},
				{
					"id": "c2",
					"message": "anonymous comment",
					"created_time": "2024-03-01T11:00:00+0000"
				}
			]
		}`))
	}))

	comments, err := client.ListComments(context.Background(), "reel-1")
	if err != nil {
		t.Fatalf("ListComments returned error: %v", err)
	}

	if len(comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(comments))
	}

	first := comments[0]
	if first.ID != "c1" || first.Message != "Thanks a lot!" {
		t.Errorf("unexpected first comment: %+v", first)
	}
	if first.From == nil || first.From.ID != "user-9" {
		t.Errorf("expected author user-9, got %+v", first.From)
	}
	if len(first.Replies) != 1 || first.Replies[0].From.ID != "page1" {
		t.Errorf("expected one nested page reply, got %+v", first.Replies)
	}
	if first.ReplyCount != 1 {
		t.Errorf("ReplyCount = %d, want 1", first.ReplyCount)
	}
	if first.CreatedAt.IsZero() {
		t.Error("expected created time to be parsed")
	}

	second := comments[1]
	if second.From != nil {
		t.Errorf("expected absent author to stay nil, got %+v", second.From)
	}
	if second.RepliesTruncated() {
		t.Error("comment without a replies block must not look truncated")
	}
}

func TestListComments_TruncatedSummary(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"data": [
				{
					"id": "c1",
					"message": "busy thread",
					"created_time": "2024-03-01T10:00:00+0000",
					"comments": {
						"data": [
							{"id": "c1-r1", "message": "one of many", "created_time": "2024-03-01T10:05:00+0000"}
						],
						"summary": {"total_count": 40}
					}
				}
			]
		}`))
	}))

	comments, err := client.ListComments(context.Background(), "reel-1")
	if err != nil {
		t.Fatalf("ListComments returned error: %v", err)
	}

	if !comments[0].RepliesTruncated() {
		t.Error("expected truncated reply list to be detected")
	}
}

func TestListReels(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v20.0/page1/video_reels" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"data": [{"id": "reel-1", "description": "spring promo", "updated_time": "2024-03-01T09:00:00+0000"}]}`))
	}))

	reels, err := client.ListReels(context.Background())
	if err != nil {
		t.Fatalf("ListReels returned error: %v", err)
	}
	if len(reels) != 1 || reels[0].ID != "reel-1" {
		t.Fatalf("unexpected reels: %+v", reels)
	}
}

func TestPostReply_SendsMessage(t *testing.T) {
	var gotMessage string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v20.0/c1/comments" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotMessage = r.URL.Query().Get("message")
		w.Write([]byte(`{"id": "c1-r9"}`))
	}))

	if err := client.PostReply(context.Background(), "c1", "You're welcome!"); err != nil {
		t.Fatalf("PostReply returned error: %v", err)
	}
	if gotMessage != "You're welcome!" {
		t.Errorf("posted message = %q, want %q", gotMessage, "You're welcome!")
	}
}

func TestGraphErrorDecoding(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "Error validating access token: Session has expired", "type": "OAuthException", "code": 190}}`))
	}))

	_, err := client.ListReels(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var graphErr *Error
	if !errors.As(err, &graphErr) {
		t.Fatalf("expected *graph.Error, got %T: %v", err, err)
	}
	if graphErr.Code != 190 {
		t.Errorf("Code = %d, want 190", graphErr.Code)
	}
	if !graphErr.IsAuth() {
		t.Error("expected code 190 to classify as auth")
	}
	if graphErr.IsRateLimit() {
		t.Error("code 190 must not classify as rate limit")
	}
}

func TestGraphError_RateLimit(t *testing.T) {
	err := &Error{Message: "Application request limit reached", Type: "OAuthException", Code: 4, Status: 400}
	if !err.IsRateLimit() {
		t.Error("expected code 4 to classify as rate limit")
	}

	throttled := &Error{Message: "slow down", Status: 429}
	if !throttled.IsRateLimit() {
		t.Error("expected HTTP 429 to classify as rate limit")
	}
}

func TestSendPrivateReply_AlreadyRepliedIsSuccess(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v20.0/page1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "(#10900) Activity already replied to", "type": "OAuthException", "code": 10900}}`))
	}))

	if err := client.SendPrivateReply(context.Background(), "c1", "check your inbox"); err != nil {
		t.Fatalf("expected already-replied to be tolerated, got %v", err)
	}
}

func TestSendPrivateReply_OtherErrorsPropagate(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": {"message": "not allowed", "type": "OAuthException", "code": 200}}`))
	}))

	if err := client.SendPrivateReply(context.Background(), "c1", "check your inbox"); err == nil {
		t.Fatal("expected error, got nil")
	}
}
