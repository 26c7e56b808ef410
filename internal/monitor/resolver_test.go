package monitor

import (
	"testing"

	"github.com/pagepulse/pagepulse/internal/models"
)

func TestHasAccountReplied(t *testing.T) {
	tests := []struct {
		name      string
		comment   models.Comment
		accountID string
		want      bool
	}{
		{
			name:      "no replies",
			comment:   models.Comment{ID: "c1"},
			accountID: "page1",
			want:      false,
		},
		{
			name: "reply from the account",
			comment: models.Comment{
				ID: "c1",
				Replies: []models.Comment{
					{ID: "r1", From: &models.CommentAuthor{ID: "page1"}},
				},
			},
			accountID: "page1",
			want:      true,
		},
		{
			name: "replies only from other users",
			comment: models.Comment{
				ID: "c1",
				Replies: []models.Comment{
					{ID: "r1", From: &models.CommentAuthor{ID: "user-1"}},
					{ID: "r2", From: &models.CommentAuthor{ID: "user-2"}},
				},
			},
			accountID: "page1",
			want:      false,
		},
		{
			name: "account reply buried among others",
			comment: models.Comment{
				ID: "c1",
				Replies: []models.Comment{
					{ID: "r1", From: &models.CommentAuthor{ID: "user-1"}},
					{ID: "r2", From: &models.CommentAuthor{ID: "page1"}},
					{ID: "r3", From: &models.CommentAuthor{ID: "user-2"}},
				},
			},
			accountID: "page1",
			want:      true,
		},
		{
			name: "reply with withheld author",
			comment: models.Comment{
				ID: "c1",
				Replies: []models.Comment{
					{ID: "r1"},
				},
			},
			accountID: "page1",
			want:      false,
		},
		{
			name: "empty account id never matches",
			comment: models.Comment{
				ID: "c1",
				Replies: []models.Comment{
					{ID: "r1", From: &models.CommentAuthor{ID: ""}},
				},
			},
			accountID: "",
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasAccountReplied(tt.comment, tt.accountID); got != tt.want {
				t.Errorf("HasAccountReplied() = %v, want %v", got, tt.want)
			}
		})
	}
}
