package monitor

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/pagepulse/pagepulse/internal/graph"
	"github.com/pagepulse/pagepulse/internal/metrics"
	"github.com/pagepulse/pagepulse/internal/models"
)

// RuleSource loads the operator's rules. Called at the start of every cycle
// so rule edits take effect on the next tick; implementations must not cache.
type RuleSource interface {
	LoadRules(ctx context.Context) (map[string]models.Rule, error)
}

// CredentialSource answers whether a page credential is currently usable and
// which account the engine is replying as.
type CredentialSource interface {
	Usable(ctx context.Context) bool
	AccountID(ctx context.Context) string
}

// CycleResult summarizes one monitoring pass.
type CycleResult struct {
	CycleID            string
	ReelsProcessed     int
	CommentsScanned    int
	RepliesSent        int
	PrivateRepliesSent int
	ItemErrors         int
	APICalls           int
	Duration           time.Duration
}

// Executor performs one pass of "check everything, reply where due": load
// rules, fetch reels, fetch comments, match and reply, update statistics.
type Executor struct {
	rules     RuleSource
	client    graph.Client
	creds     CredentialSource
	stats     *StatsTracker
	collector *metrics.Collector
	logger    *slog.Logger
}

// NewExecutor creates a cycle executor. collector may be nil.
func NewExecutor(
	rules RuleSource,
	client graph.Client,
	creds CredentialSource,
	stats *StatsTracker,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Executor {
	return &Executor{
		rules:     rules,
		client:    client,
		creds:     creds,
		stats:     stats,
		collector: collector,
		logger:    logger,
	}
}

// RunCycle executes exactly one monitoring cycle.
//
// Failures inside the per-reel and per-comment loops are isolated: one bad
// reel or one rejected reply never aborts the cycle. Failures that prevent
// the cycle from starting meaningfully (no credential, rules unloadable,
// reels unfetchable) abort it; they are recorded through the statistics as
// the last error and returned, never panicked, so the scheduler keeps
// ticking.
func (e *Executor) RunCycle(ctx context.Context) (CycleResult, error) {
	start := time.Now()
	result := CycleResult{CycleID: uuid.New().String()}
	logger := e.logger.With("cycle_id", result.CycleID)

	fail := func(err error) (CycleResult, error) {
		class := Classify(err)
		if class == ErrorClassRateLimit {
			logger.Warn("cycle aborted", "class", class, "error", err)
		} else {
			logger.Error("cycle aborted", "class", class, "error", err)
		}
		e.stats.RecordError(ctx, Describe(err), time.Now())
		if e.collector != nil {
			e.collector.IncCycleError(string(class))
		}
		result.Duration = time.Since(start)
		return result, err
	}

	if !e.creds.Usable(ctx) {
		return fail(ErrNoCredential)
	}
	accountID := e.creds.AccountID(ctx)

	allRules, err := e.rules.LoadRules(ctx)
	if err != nil {
		return fail(fmt.Errorf("failed to load rules: %w", err))
	}

	enabled := make(map[string]models.Rule)
	for targetID, rule := range allRules {
		if !rule.Enabled {
			continue
		}
		if err := rule.Validate(); err != nil {
			logger.Warn("skipping invalid rule", "target_id", targetID, "error", err)
			continue
		}
		enabled[targetID] = rule
	}

	if len(enabled) == 0 {
		logger.Debug("no enabled rules, recording check only")
		e.finish(ctx, logger, &result, start)
		return result, nil
	}

	reels, err := e.client.ListReels(ctx)
	result.APICalls++
	if err != nil {
		return fail(fmt.Errorf("failed to list reels: %w", err))
	}

	for _, reel := range reels {
		rule, ok := enabled[reel.ID]
		if !ok {
			continue
		}
		result.ReelsProcessed++
		e.processReel(ctx, logger, reel, rule, accountID, &result)
	}

	e.finish(ctx, logger, &result, start)
	return result, nil
}

// processReel handles one reel's comments. Errors here are logged and
// counted but never abort the cycle.
func (e *Executor) processReel(ctx context.Context, logger *slog.Logger, reel models.Reel, rule models.Rule, accountID string, result *CycleResult) {
	comments, err := e.client.ListComments(ctx, reel.ID)
	result.APICalls++
	if err != nil {
		logger.Error("failed to fetch comments, continuing with next reel",
			"reel_id", reel.ID,
			"class", Classify(err),
			"error", err)
		result.ItemErrors++
		return
	}

	for _, comment := range comments {
		result.CommentsScanned++

		// The page's own comments are never candidates.
		if comment.AuthoredBy(accountID) {
			continue
		}

		if HasAccountReplied(comment, accountID) {
			continue
		}

		// The dedup check is only trustworthy when the platform delivered
		// every nested reply. A truncated list is a broken collaborator
		// precondition, surfaced as an error rather than treated as
		// "never replied".
		if comment.RepliesTruncated() {
			logger.Error("nested replies truncated, cannot decide reply state",
				"reel_id", reel.ID,
				"comment_id", comment.ID,
				"reply_count", comment.ReplyCount,
				"delivered", len(comment.Replies))
			result.ItemErrors++
			continue
		}

		if !rule.Matches(comment.Message) {
			continue
		}

		result.APICalls++
		if err := e.client.PostReply(ctx, comment.ID, rule.ReplyText); err != nil {
			logger.Error("failed to post reply, continuing with next comment",
				"comment_id", comment.ID,
				"class", Classify(err),
				"error", err)
			result.ItemErrors++
			continue
		}
		result.RepliesSent++
		e.stats.RecordReply(ctx)

		if rule.PrivateReplyText != "" {
			result.APICalls++
			if err := e.client.SendPrivateReply(ctx, comment.ID, rule.PrivateReplyText); err != nil {
				// Best-effort: the public reply already succeeded.
				logger.Warn("failed to send private reply",
					"comment_id", comment.ID,
					"error", err)
			} else {
				result.PrivateRepliesSent++
			}
		}
	}
}

func (e *Executor) finish(ctx context.Context, logger *slog.Logger, result *CycleResult, start time.Time) {
	result.Duration = time.Since(start)
	e.stats.RecordCheck(ctx, time.Now())

	if e.collector != nil {
		e.collector.ObserveCycle(
			result.Duration,
			result.ReelsProcessed,
			result.CommentsScanned,
			result.RepliesSent,
			result.PrivateRepliesSent,
			result.APICalls,
		)
	}

	logger.Info("monitoring cycle complete",
		"reels", result.ReelsProcessed,
		"comments", result.CommentsScanned,
		"replies", result.RepliesSent,
		"private_replies", result.PrivateRepliesSent,
		"item_errors", result.ItemErrors,
		"api_calls", result.APICalls,
		"duration", result.Duration)
}
