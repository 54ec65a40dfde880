// Package engine orchestrates conversation turns: it loads the session,
// routes the message into the active flow or the intent classifier,
// advances state, and persists the updated session. The engine itself is
// stateless; everything mutable lives in the session store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/supportflow-dev/supportflow/internal/intent"
	"github.com/supportflow-dev/supportflow/internal/observability"
	"github.com/supportflow-dev/supportflow/internal/responder"
	"github.com/supportflow-dev/supportflow/internal/ticket"
	"github.com/supportflow-dev/supportflow/internal/vpnflow"
	"github.com/supportflow-dev/supportflow/pkg/session"
)

// Responder produces the static reply for intents without a flow.
type Responder func(intent.Intent) string

// Config tunes engine behavior.
type Config struct {
	// HandoffGrace is how long a handed-off flow keeps answering with the
	// escalation notice before the flow context is considered consumed.
	HandoffGrace time.Duration
	// TranscriptTurns is how many recent turns go into the handoff
	// summary's transcript excerpt.
	TranscriptTurns int
	// Ticket identifies the ticketing destination for payload previews.
	Ticket ticket.Options
}

const (
	defaultHandoffGrace    = 5 * time.Minute
	defaultTranscriptTurns = 6

	// Confidence reported when an active flow forces the VPN intent.
	activeFlowConfidence = 0.99
)

// Response is the result of one conversation turn.
type Response struct {
	SessionID  string                  `json:"session_id"`
	Intent     intent.Intent           `json:"intent"`
	Confidence float64                 `json:"confidence"`
	Reply      string                  `json:"reply"`
	Handoff    bool                    `json:"handoff"`
	Summary    *vpnflow.HandoffSummary `json:"handoff_summary,omitempty"`
	Ticket     *ticket.Payload         `json:"ticket_preview,omitempty"`
}

// Engine is the conversation orchestrator.
type Engine struct {
	store   session.Store
	respond Responder
	cfg     Config
	log     *slog.Logger
}

// New creates an engine over a session store. A nil logger falls back to
// slog's default.
func New(store session.Store, cfg Config, log *slog.Logger) *Engine {
	if cfg.HandoffGrace <= 0 {
		cfg.HandoffGrace = defaultHandoffGrace
	}
	if cfg.TranscriptTurns <= 0 {
		cfg.TranscriptTurns = defaultTranscriptTurns
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		store:   store,
		respond: responder.Respond,
		cfg:     cfg,
		log:     log,
	}
}

// SetResponder overrides the static responder collaborator.
func (e *Engine) SetResponder(r Responder) { e.respond = r }

// Handle processes one incoming message for a session. An empty sessionID
// creates a new session. Store failures are returned as errors wrapping
// session.ErrUnavailable; everything else degrades to a reply.
func (e *Engine) Handle(ctx context.Context, sessionID, message string) (*Response, error) {
	start := time.Now()

	sess, created, err := e.loadOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.Append(session.SpeakerUser, message)

	resp := e.route(sess, message)
	resp.SessionID = sess.ID

	sess.Append(session.SpeakerAssistant, resp.Reply)

	if err := e.put(ctx, sess); err != nil {
		return nil, err
	}

	observability.RecordTurn(string(resp.Intent), resp.Handoff, time.Since(start))
	e.log.Info("turn handled",
		"session_id", sess.ID,
		"created", created,
		"intent", resp.Intent,
		"confidence", resp.Confidence,
		"handoff", resp.Handoff,
	)

	return resp, nil
}

// route decides between the active flow and fresh classification, and
// produces the reply. It mutates the session but never touches the store.
func (e *Engine) route(sess *session.Session, message string) *Response {
	// Consume a finished flow after the grace period so later messages
	// start fresh instead of re-entering it.
	if fc := sess.Flow; fc != nil && fc.State == string(vpnflow.StateHandoff) &&
		fc.HandedOffAt != nil && time.Since(*fc.HandedOffAt) > e.cfg.HandoffGrace {
		e.log.Info("handed-off flow consumed", "session_id", sess.ID)
		sess.Flow = nil
	}

	if sess.Flow != nil {
		// A flow is active: bypass classification entirely.
		return e.advanceFlow(sess, message)
	}

	it, conf := intent.Classify(message, intent.Intent(sess.LastIntent))
	sess.LastIntent = string(it)

	if it == intent.VPN {
		// Enter the flow and run one transition in the same turn, so the
		// first question is asked immediately.
		sess.Flow = vpnflow.NewContext()
		resp := e.advanceFlow(sess, message)
		resp.Confidence = conf
		return resp
	}

	return &Response{
		Intent:     it,
		Confidence: conf,
		Reply:      e.respond(it),
	}
}

func (e *Engine) advanceFlow(sess *session.Session, message string) *Response {
	out := vpnflow.Advance(sess.Flow, message)

	if out.StateReset {
		e.log.Warn("unknown flow state, flow restarted",
			"session_id", sess.ID)
	}

	observability.RecordFlowTransition(sess.Flow.State)

	resp := &Response{
		Intent:     intent.VPN,
		Confidence: activeFlowConfidence,
		Reply:      out.Reply,
		Handoff:    out.Handoff,
	}

	if out.Handoff && out.Summary != nil {
		out.Summary.SessionID = sess.ID
		out.Summary.TranscriptExcerpt = transcriptExcerpt(sess, e.cfg.TranscriptTurns)
		resp.Summary = out.Summary
		if e.cfg.Ticket.ProjectKey != "" {
			resp.Ticket = ticket.BuildPayload(e.cfg.Ticket, out.Summary)
		}
	}

	if out.Resolved {
		// The flow terminated successfully; drop its context so the next
		// message is classified fresh.
		sess.Flow = nil
	}

	return resp
}

func transcriptExcerpt(sess *session.Session, n int) []string {
	turns := sess.RecentHistory(n)
	out := make([]string, 0, len(turns))
	for _, t := range turns {
		out = append(out, fmt.Sprintf("%s: %s", t.Speaker, t.Text))
	}
	return out
}

func (e *Engine) loadOrCreate(ctx context.Context, sessionID string) (*session.Session, bool, error) {
	if sessionID == "" {
		return session.New(), true, nil
	}

	start := time.Now()
	sess, err := e.store.Get(ctx, sessionID)
	switch {
	case err == nil:
		observability.RecordStoreOp("get", "ok", time.Since(start))
		return sess, false, nil
	case errors.Is(err, session.ErrNotFound):
		observability.RecordStoreOp("get", "miss", time.Since(start))
		// Expired or never existed: start fresh under the supplied ID.
		sess = session.New()
		sess.ID = sessionID
		return sess, true, nil
	default:
		observability.RecordStoreOp("get", "error", time.Since(start))
		return nil, false, fmt.Errorf("load session: %w", err)
	}
}

func (e *Engine) put(ctx context.Context, sess *session.Session) error {
	start := time.Now()
	if err := e.store.Put(ctx, sess); err != nil {
		observability.RecordStoreOp("put", "error", time.Since(start))
		return fmt.Errorf("save session: %w", err)
	}
	observability.RecordStoreOp("put", "ok", time.Since(start))
	return nil
}
