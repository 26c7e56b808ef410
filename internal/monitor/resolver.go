package monitor

import "github.com/pagepulse/pagepulse/internal/models"

// HasAccountReplied reports whether the given account already replied under
// a comment, judged solely from the comment's nested replies as fetched this
// cycle.
//
// This check is the entire deduplication mechanism: the engine keeps no
// local already-replied ledger. The platform is the durable record of what
// was actually posted, so the derived check can never drift the way a local
// ledger would across devices, manual replies or deletions. Two instances
// racing the same fresh comment can both decide to reply; the platform's
// own limits are the backstop for that accepted single-instance-deployment
// race.
func HasAccountReplied(comment models.Comment, accountID string) bool {
	if accountID == "" || len(comment.Replies) == 0 {
		return false
	}

	for _, reply := range comment.Replies {
		if reply.From != nil && reply.From.ID == accountID {
			return true
		}
	}
	return false
}
