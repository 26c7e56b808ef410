package models

import (
	"fmt"
	"strings"
)

// MatchAllKeyword is the sentinel keyword that makes a rule match every
// comment. A rule whose keyword list is empty or exactly [MatchAllKeyword]
// triggers on anything.
const MatchAllKeyword = "."

// Rule binds a set of trigger keywords and reply texts to one monitored
// content item (a reel). Rules are operator-authored and loaded fresh at the
// start of every monitoring cycle so edits take effect on the next tick.
type Rule struct {
	TargetID         string   `json:"target_id"`
	Keywords         []string `json:"keywords"`
	ReplyText        string   `json:"reply_text"`
	PrivateReplyText string   `json:"private_reply_text,omitempty"`
	Enabled          bool     `json:"enabled"`
}

// Matches reports whether the rule triggers on the given comment text.
// An empty keyword list or the single match-all sentinel matches anything;
// otherwise any keyword occurring as a case-insensitive substring matches.
func (r Rule) Matches(text string) bool {
	if len(r.Keywords) == 0 {
		return true
	}
	if len(r.Keywords) == 1 && r.Keywords[0] == MatchAllKeyword {
		return true
	}

	lower := strings.ToLower(text)
	for _, keyword := range r.Keywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// Validate checks that the rule can actually be acted on. Validity is
// advisory: the engine skips invalid rules instead of failing a cycle, but
// callers should refuse to save one.
func (r Rule) Validate() error {
	if r.TargetID == "" {
		return fmt.Errorf("rule target id is required")
	}
	if r.Enabled && strings.TrimSpace(r.ReplyText) == "" {
		return fmt.Errorf("enabled rule for %s has no reply text", r.TargetID)
	}
	return nil
}
