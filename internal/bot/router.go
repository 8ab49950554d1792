// Package bot implements the callback action router, the gocron-backed
// scheduler, and the orchestrator tying the Telegram listener and scheduler
// lifecycles together.
package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sync"

	"github.com/go-telegram/bot/models"

	"vazifabot/internal/callback"
	"vazifabot/internal/repo"
	"vazifabot/internal/ui"
)

// maxTrackedAcks bounds the recent-interaction set used for idempotent
// acknowledgment; oldest entries are trimmed past this ceiling.
const maxTrackedAcks = 1000

// Messenger is the outbound message transport consumed by the router and the
// handlers.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string, kb *models.InlineKeyboardMarkup) error
	Edit(ctx context.Context, chatID int64, messageID int, text string, kb *models.InlineKeyboardMarkup) error
	Answer(ctx context.Context, interactionID string, text string) error
}

// Request carries one decoded inbound interaction into a handler.
type Request struct {
	UserID        int64
	ChatID        int64
	MessageID     int
	InteractionID string
	Action        string
	Data          map[string]any
}

// HandlerFunc executes one routed action. A returned error produces the
// generic recoverable-error reply; it never propagates past Dispatch.
type HandlerFunc func(ctx context.Context, req *Request) error

type patternRoute struct {
	re *regexp.Regexp
	fn HandlerFunc
}

// Router decodes callback tokens and dispatches them to registered handlers.
// Exact-string routes always win over patterns; patterns match in
// registration order, which is a contract: later patterns may deliberately be
// broader supersets of earlier ones.
type Router struct {
	logger    *slog.Logger
	codec     *callback.Codec
	repo      *repo.Repository
	messenger Messenger

	exact    map[string]HandlerFunc
	patterns []patternRoute

	ackMu    sync.Mutex
	acked    map[string]struct{}
	ackOrder []string
}

// NewRouter creates a router. Fallback handlers for expired and unknown
// tokens are expected to be registered under callback.ActionExpired and
// callback.ActionUnknown.
func NewRouter(logger *slog.Logger, codec *callback.Codec, r *repo.Repository, messenger Messenger) *Router {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Router{
		logger:    logger.With("component", "router"),
		codec:     codec,
		repo:      r,
		messenger: messenger,
		exact:     make(map[string]HandlerFunc),
		acked:     make(map[string]struct{}),
	}
}

// Handle registers an exact-match route.
func (r *Router) Handle(action string, fn HandlerFunc) {
	r.exact[action] = fn
}

// HandlePattern registers a pattern route. Named capture groups are merged
// into the request data. The pattern must compile; routes are registered at
// startup with literal patterns.
func (r *Router) HandlePattern(pattern string, fn HandlerFunc) {
	r.patterns = append(r.patterns, patternRoute{re: regexp.MustCompile(pattern), fn: fn})
}

// Dispatch decodes the token, routes it, runs the handler, and acknowledges
// the interaction exactly once. It never returns an error and never panics:
// handler failures become a generic recoverable reply.
func (r *Router) Dispatch(ctx context.Context, rawToken string, userID, chatID int64, messageID int, interactionID string) {
	decoded := r.codec.Decode(rawToken)

	req := &Request{
		UserID:        userID,
		ChatID:        chatID,
		MessageID:     messageID,
		InteractionID: interactionID,
		Action:        decoded.Action,
		Data:          decoded.Data,
	}

	fn := r.resolve(req)
	r.repo.EnsureUser(userID)

	if err := r.invoke(ctx, fn, req); err != nil {
		r.logger.ErrorContext(ctx, "Handler failed",
			"action", req.Action, "user_id", userID, "error", err)
		if sendErr := r.messenger.Send(ctx, chatID, ui.MsgGeneralError, ui.RestartKB(r.codec)); sendErr != nil {
			r.logger.ErrorContext(ctx, "Failed to send error reply", "user_id", userID, "error", sendErr)
		}
	}

	r.acknowledge(ctx, interactionID)
}

func (r *Router) resolve(req *Request) HandlerFunc {
	if fn, ok := r.exact[req.Action]; ok {
		return fn
	}

	for _, route := range r.patterns {
		m := route.re.FindStringSubmatch(req.Action)
		if m == nil {
			continue
		}
		for i, name := range route.re.SubexpNames() {
			if i > 0 && name != "" {
				req.Data[name] = m[i]
			}
		}
		return route.fn
	}

	r.logger.Warn("No route for action", "action", req.Action)
	if fn, ok := r.exact[callback.ActionUnknown]; ok {
		return fn
	}
	return func(context.Context, *Request) error { return nil }
}

// invoke runs the handler with panic containment, so a broken handler can
// never take down the dispatch loop.
func (r *Router) invoke(ctx context.Context, fn HandlerFunc, req *Request) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panicked: %v", rec)
		}
	}()
	return fn(ctx, req)
}

// acknowledge answers the callback query once per interaction id, even when
// Telegram redelivers the same interaction. Answer failures (the interaction
// may have expired upstream) are logged and swallowed, never retried.
func (r *Router) acknowledge(ctx context.Context, interactionID string) {
	if interactionID == "" {
		return
	}

	r.ackMu.Lock()
	if _, seen := r.acked[interactionID]; seen {
		r.ackMu.Unlock()
		return
	}
	r.acked[interactionID] = struct{}{}
	r.ackOrder = append(r.ackOrder, interactionID)
	for len(r.ackOrder) > maxTrackedAcks {
		delete(r.acked, r.ackOrder[0])
		r.ackOrder = r.ackOrder[1:]
	}
	r.ackMu.Unlock()

	if err := r.messenger.Answer(ctx, interactionID, ""); err != nil {
		r.logger.Debug("Failed to acknowledge interaction", "interaction_id", interactionID, "error", err)
	}
}
