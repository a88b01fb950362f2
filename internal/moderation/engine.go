// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

// Package moderation orchestrates the full message path: detection,
// trust scoring, punishment decision, persistence, enforcement, audit
// and operator broadcast.
//
// All mutation of a user's profile happens on a single shard goroutine
// chosen by hashing the user ID, so two messages from the same user are
// always judged in order against consistent state. Messages from
// different users proceed in parallel across shards.
package moderation

import (
	"context"
	"errors"
	"hash/fnv"
	"time"

	"github.com/google/uuid"

	"github.com/modsentry/modsentry/internal/action"
	"github.com/modsentry/modsentry/internal/audit"
	"github.com/modsentry/modsentry/internal/detection"
	"github.com/modsentry/modsentry/internal/escalation"
	"github.com/modsentry/modsentry/internal/logging"
	"github.com/modsentry/modsentry/internal/metrics"
	"github.com/modsentry/modsentry/internal/profile"
	"github.com/modsentry/modsentry/internal/trust"
	"github.com/modsentry/modsentry/internal/websocket"
)

// ErrShuttingDown is returned when a message arrives after the engine
// started draining.
var ErrShuttingDown = errors.New("moderation engine shutting down")

const (
	defaultShards     = 8
	defaultQueueDepth = 64
)

// Outcome is the result of moderating one message.
type Outcome struct {
	Message *detection.ChatMessage `json:"message"`

	// Violations found for this message, most severe first.
	Violations []*profile.ViolationRecord `json:"violations,omitempty"`
	Primary    *profile.ViolationRecord   `json:"primary,omitempty"`

	Decision escalation.Decision `json:"decision"`

	TrustScore  float64           `json:"trust_score"`
	RiskLevel   profile.RiskLevel `json:"risk_level"`
	Quarantined bool              `json:"quarantined"`

	// Distress marks a crisis signal. On its own it yields a supportive
	// decision; a punitive primary violation on the same message still
	// escalates as usual.
	Distress bool `json:"distress"`

	// Degraded lists detectors that failed open during evaluation.
	Degraded []string `json:"degraded,omitempty"`

	// Unpersisted marks an outcome computed on a profile that could not
	// be loaded from or saved to the store.
	Unpersisted bool `json:"unpersisted"`

	// ActionError carries an enforcement failure. The decision stands;
	// the failure is surfaced here and in the audit trail, never dropped.
	ActionError error `json:"-"`

	// CorrelationID links this outcome's audit events.
	CorrelationID string `json:"correlation_id"`
}

// Options wires the engine's collaborators. Pipeline, Trust, Escalation
// and Store are required; Executor, Audit and Hub are optional.
type Options struct {
	Pipeline   *detection.Pipeline
	Trust      *trust.Engine
	Escalation *escalation.Engine
	Store      profile.Store
	Executor   action.Executor
	Audit      *audit.Logger
	Hub        *websocket.Hub

	// Shards is the number of per-user worker goroutines.
	Shards int

	// QueueDepth is the per-shard task buffer.
	QueueDepth int
}

type task struct {
	run func()
}

// Engine is the moderation orchestrator.
type Engine struct {
	pipeline   *detection.Pipeline
	trust      *trust.Engine
	escalation *escalation.Engine
	store      profile.Store
	executor   action.Executor
	audit      *audit.Logger
	hub        *websocket.Hub

	shards []chan task
	done   chan struct{}
}

// NewEngine creates a moderation engine. Call RunWithContext to start
// the shard workers before submitting messages.
func NewEngine(opts Options) *Engine {
	shardCount := opts.Shards
	if shardCount <= 0 {
		shardCount = defaultShards
	}
	queueDepth := opts.QueueDepth
	if queueDepth <= 0 {
		queueDepth = defaultQueueDepth
	}

	shards := make([]chan task, shardCount)
	for i := range shards {
		shards[i] = make(chan task, queueDepth)
	}

	return &Engine{
		pipeline:   opts.Pipeline,
		trust:      opts.Trust,
		escalation: opts.Escalation,
		store:      opts.Store,
		executor:   opts.Executor,
		audit:      opts.Audit,
		hub:        opts.Hub,
		shards:     shards,
		done:       make(chan struct{}),
	}
}

// RunWithContext runs the shard workers until the context is canceled.
// Designed for suture supervision.
func (e *Engine) RunWithContext(ctx context.Context) error {
	stop := make(chan struct{})
	for i := range e.shards {
		go e.runShard(e.shards[i], stop)
	}

	<-ctx.Done()
	close(stop)
	close(e.done)

	logging.Info().
		Str("component", "moderation-engine").
		Int("shards", len(e.shards)).
		Msg("moderation engine stopped")
	return ctx.Err()
}

func (e *Engine) runShard(queue chan task, stop chan struct{}) {
	for {
		select {
		case <-stop:
			// Drain tasks already queued so submitted replies are delivered.
			for {
				select {
				case t := <-queue:
					t.run()
				default:
					return
				}
			}
		case t := <-queue:
			t.run()
		}
	}
}

// shardFor maps a user ID to its shard queue. Same user, same shard.
func (e *Engine) shardFor(userID string) chan task {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return e.shards[h.Sum32()%uint32(len(e.shards))]
}

// Process moderates one message. It blocks until the user's shard worker
// has judged the message and returns the full outcome.
func (e *Engine) Process(ctx context.Context, msg *detection.ChatMessage) (*Outcome, error) {
	reply := make(chan *Outcome, 1)

	t := task{run: func() {
		reply <- e.process(ctx, msg)
	}}

	select {
	case e.shardFor(msg.UserID) <- t:
	case <-e.done:
		return nil, ErrShuttingDown
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case out := <-reply:
		return out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// process runs the full moderation flow for one message. Always executed
// on the user's shard goroutine.
func (e *Engine) process(ctx context.Context, msg *detection.ChatMessage) *Outcome {
	start := time.Now()
	defer metrics.ObserveEvaluation(start)

	now := msg.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	out := &Outcome{
		Message:       msg,
		CorrelationID: uuid.NewString(),
	}
	ref := audit.RefID{
		UserID:        msg.UserID,
		GuildID:       msg.GuildID,
		MessageID:     msg.ID,
		CorrelationID: out.CorrelationID,
	}

	prof, persisted := profile.GetOrNew(ctx, e.store, msg.UserID, msg.GuildID, now)
	out.Unpersisted = !persisted

	// Credit violation-free intervals before judging the new message.
	e.trust.Recover(prof, now)

	wasQuarantined := prof.InQuarantine(now)

	prof.LastSeenAt = now
	prof.Aggregates.ObserveMessage(len(msg.Content), msg.ChannelID)

	result := e.pipeline.Evaluate(ctx, msg, prof)
	out.Violations = result.Violations
	out.Primary = result.Primary
	out.Degraded = result.Degraded
	out.Distress = result.Distress

	for _, v := range result.Violations {
		e.trust.ApplyViolation(prof, v)
		if e.audit != nil {
			e.audit.LogViolation(ref, string(v.Type), v.Severity.String(), int(e.trust.Config().Penalty(v.Severity)))
		}
	}

	assessment := e.trust.RiskAssessment(prof, now)
	out.TrustScore = prof.TrustScore
	out.RiskLevel = assessment.Level
	metrics.TrustScoreBucket.WithLabelValues(string(assessment.Level)).Inc()

	decision := e.escalation.Decide(prof, result.Primary, result.Violations, now)
	if result.Primary != nil {
		prof.PunishmentLevel = decision.Level
	}

	out.Quarantined = prof.InQuarantine(now)
	if e.hub != nil && out.Quarantined != wasQuarantined {
		var until time.Time
		if prof.QuarantineUntil != nil {
			until = *prof.QuarantineUntil
		}
		e.hub.BroadcastQuarantine(prof.UserID, prof.GuildID, out.Quarantined, int(prof.TrustScore), until)
	}
	if e.audit != nil && out.Quarantined && !wasQuarantined {
		until := now
		if prof.QuarantineUntil != nil {
			until = *prof.QuarantineUntil
		}
		e.audit.LogQuarantine(ref, true, int(prof.TrustScore), until)
	}

	e.persist(ctx, prof, out, ref)

	// An unpersisted profile means the standing that justified a terminal
	// action may be stale; degrade to the strongest reversible action.
	if out.Unpersisted {
		decision = leastDestructive(decision, e.escalation)
	}
	out.Decision = decision
	metrics.DecisionsIssued.WithLabelValues(string(decision.Action)).Inc()

	if e.audit != nil {
		e.audit.LogDecision(ref, string(decision.Action), decision.Level, int(prof.TrustScore), decision.Rationale)
	}

	e.enforce(ctx, msg, out, ref)

	if e.hub != nil {
		e.hub.BroadcastOutcome(out)
	}

	return out
}

// persist saves the updated profile, marking the outcome unpersisted on
// failure. The moderation result stands either way.
func (e *Engine) persist(ctx context.Context, prof *profile.SecurityProfile, out *Outcome, ref audit.RefID) {
	if out.Unpersisted {
		// Load already failed; saving would race the store's real state.
		metrics.UnpersistedOutcomes.Inc()
		if e.audit != nil {
			e.audit.LogOutcomeUnpersisted(ref, profile.ErrUnavailable)
		}
		return
	}

	if err := e.store.Save(ctx, prof); err != nil {
		out.Unpersisted = true
		metrics.UnpersistedOutcomes.Inc()
		logging.Error().
			Err(err).
			Str("user_id", logging.SanitizeUserID(prof.UserID)).
			Msg("failed to persist moderation outcome")
		if e.audit != nil {
			e.audit.LogOutcomeUnpersisted(ref, err)
		}
	}
}

// leastDestructive caps a decision at a reversible action when profile
// state could not be trusted. Kicks and bans become the longest timeout.
func leastDestructive(d escalation.Decision, eng *escalation.Engine) escalation.Decision {
	if d.Action != escalation.ActionKick && d.Action != escalation.ActionBan {
		return d
	}
	capped := d
	capped.Action = escalation.ActionTimeout
	capped.Duration = eng.Config().TimeoutLevel6
	capped.Rationale = d.Rationale + "; capped to timeout: profile state unpersisted"
	return capped
}

// enforce applies the decision on the platform. Failures are recorded on
// the outcome and in the audit trail.
func (e *Engine) enforce(ctx context.Context, msg *detection.ChatMessage, out *Outcome, ref audit.RefID) {
	if e.executor == nil {
		return
	}

	req := &action.Request{
		Message:       msg,
		Decision:      out.Decision,
		Primary:       out.Primary,
		TrustScore:    out.TrustScore,
		RiskLevel:     out.RiskLevel,
		DeleteMessage: out.Primary != nil && out.Primary.Type != profile.ViolationDistress,
	}

	if err := e.executor.Apply(ctx, req); err != nil {
		out.ActionError = err
		logging.Error().
			Err(err).
			Str("action", string(out.Decision.Action)).
			Str("user_id", logging.SanitizeUserID(msg.UserID)).
			Msg("enforcement action failed")
		if e.audit != nil {
			e.audit.LogActionFailed(ref, string(out.Decision.Action), e.executor.Name(), err)
		}
		return
	}

	if e.audit != nil {
		e.audit.LogActionApplied(ref, string(out.Decision.Action), e.executor.Name())
	}
}

// submit runs fn on the shard owning userID and waits for completion.
// Used by the sweep so profile mutation stays serialized per user.
func (e *Engine) submit(userID string, fn func()) bool {
	done := make(chan struct{})
	t := task{run: func() {
		defer close(done)
		fn()
	}}

	select {
	case e.shardFor(userID) <- t:
	case <-e.done:
		return false
	}

	<-done
	return true
}
