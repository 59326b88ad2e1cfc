package relay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rollhouse/voice-relay/config"
	"github.com/rollhouse/voice-relay/internal/models"
)

var (
	// ErrForbiddenSender means the claimed sender is not the authenticated caller.
	ErrForbiddenSender = errors.New("sender does not match authenticated identity")
	// ErrForbidden means a caller tried to drain a queue that is not their own.
	ErrForbidden = errors.New("may only fetch own pending signals")
	// ErrNotRelated means no friend relationship exists between the pair.
	ErrNotRelated = errors.New("no friend relationship between sender and recipient")
	// ErrSelfSignal means sender and recipient are the same identity.
	ErrSelfSignal = errors.New("cannot signal own identity")
	// ErrInvalidType means the signal type is not one of the defined kinds.
	ErrInvalidType = errors.New("unknown signal type")
)

type (
	// FriendStore answers whether two identities have an accepted friend
	// relationship. The pair is unordered.
	FriendStore interface {
		AreFriends(ctx context.Context, a, b string) (bool, error)
	}

	// AuditLog is an append-only sink for signaling audit records. A failed
	// append fails the whole request; signaling is never acknowledged unaudited.
	AuditLog interface {
		Record(ctx context.Context, entry models.CallLogEntry) error
	}

	// Relay buffers directed signaling messages per recipient and tracks
	// active calls keyed by unordered participant pair. Both collections are
	// in-memory and ephemeral; the periodic sweep bounds their growth.
	Relay struct {
		friends FriendStore
		audit   AuditLog
		cfg     config.RelayConfig
		now     func() time.Time

		queueMu sync.Mutex
		queues  map[string][]models.Signal

		callMu sync.Mutex
		calls  map[string]activeCall
	}

	Config struct {
		Friends FriendStore
		Audit   AuditLog
		Relay   config.RelayConfig
		Now     func() time.Time // defaults to time.Now
	}

	activeCall struct {
		from    string
		to      string
		startMS int64     // caller-supplied, duration basis only
		seenAt  time.Time // relay clock, drives max-age eviction
	}
)

func New(cfg Config) *Relay {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Relay{
		friends: cfg.Friends,
		audit:   cfg.Audit,
		cfg:     cfg.Relay,
		now:     now,
		queues:  make(map[string][]models.Signal),
		calls:   make(map[string]activeCall),
	}
}

// callKey canonicalizes an unordered participant pair. Both argument orders
// must resolve to the same registry entry.
func callKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// Submit authorizes and stores a signal for its recipient. The relay assigns
// the timestamp; any caller-supplied value is ignored. The audit record is
// written before the queue append so no signal is ever delivered unaudited.
func (r *Relay) Submit(ctx context.Context, req models.SubmitSignalRequest, caller string) error {
	if req.From != caller {
		return ErrForbiddenSender
	}
	if !req.Type.Valid() {
		return ErrInvalidType
	}
	if req.From == req.To {
		return ErrSelfSignal
	}

	related, err := r.friends.AreFriends(ctx, req.From, req.To)
	if err != nil {
		return fmt.Errorf("friend lookup: %w", err)
	}
	if !related {
		return ErrNotRelated
	}

	sig := models.Signal{
		ID:        uuid.New().String(),
		Type:      req.Type,
		From:      req.From,
		To:        req.To,
		Offer:     req.Offer,
		Answer:    req.Answer,
		Candidate: req.Candidate,
		Timestamp: r.now(),
	}

	if err := r.audit.Record(ctx, models.CallLogEntry{
		From:       sig.From,
		To:         sig.To,
		SignalType: sig.Type,
		Timestamp:  sig.Timestamp,
	}); err != nil {
		return fmt.Errorf("audit append: %w", err)
	}

	r.queueMu.Lock()
	r.queues[sig.To] = append(r.queues[sig.To], sig)
	r.queueMu.Unlock()
	return nil
}

// FetchPending atomically drains the caller's queue and returns its contents
// in insertion order. Delivery is at-most-once: a second fetch with no new
// signals in between returns an empty slice.
func (r *Relay) FetchPending(identity, caller string) ([]models.Signal, error) {
	if identity != caller {
		return nil, ErrForbidden
	}

	r.queueMu.Lock()
	signals := r.queues[identity]
	delete(r.queues, identity)
	r.queueMu.Unlock()

	if signals == nil {
		signals = []models.Signal{}
	}
	return signals, nil
}

// StartCall registers an active call for the unordered pair. A start for a
// pair that is already active overwrites the prior entry, last writer wins.
// The friend check applies here the same as for Submit.
func (r *Relay) StartCall(ctx context.Context, from, to string, startMS int64, caller string) error {
	if from != caller {
		return ErrForbiddenSender
	}

	related, err := r.friends.AreFriends(ctx, from, to)
	if err != nil {
		return fmt.Errorf("friend lookup: %w", err)
	}
	if !related {
		return ErrNotRelated
	}

	if err := r.audit.Record(ctx, models.CallLogEntry{
		From:       from,
		To:         to,
		SignalType: models.SignalTypeCallStart,
		Timestamp:  r.now(),
	}); err != nil {
		return fmt.Errorf("audit append: %w", err)
	}

	r.callMu.Lock()
	r.calls[callKey(from, to)] = activeCall{
		from:    from,
		to:      to,
		startMS: startMS,
		seenAt:  r.now(),
	}
	r.callMu.Unlock()
	return nil
}

// EndCall ends the active call for the unordered pair, logging its duration.
// Ending a call that was never started, or already ended, is a no-op success
// and emits no audit record. No friend check: teardown must always succeed,
// otherwise a revoked friendship would leak the registry entry.
func (r *Relay) EndCall(ctx context.Context, from, to string, endMS int64, caller string) error {
	if from != caller {
		return ErrForbiddenSender
	}

	key := callKey(from, to)

	r.callMu.Lock()
	call, ok := r.calls[key]
	r.callMu.Unlock()
	if !ok {
		return nil
	}

	duration := endMS - call.startMS
	if duration < 0 {
		// Caller-supplied instants carry no monotonicity guarantee.
		log.Printf("Negative call duration %dms for %s/%s, clamping to 0", duration, from, to)
		duration = 0
	}

	if err := r.audit.Record(ctx, models.CallLogEntry{
		From:       from,
		To:         to,
		SignalType: models.SignalTypeCallEnd,
		Timestamp:  r.now(),
		DurationMS: &duration,
	}); err != nil {
		return fmt.Errorf("audit append: %w", err)
	}

	r.callMu.Lock()
	delete(r.calls, key)
	r.callMu.Unlock()
	return nil
}

// Run executes the staleness sweep on a fixed interval until ctx is
// cancelled. Cancellation stops scheduling further runs; an in-flight sweep
// is not awaited.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Signal sweep stopped")
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Sweep drops pending signals older than the staleness threshold, removes
// queues that become empty, and evicts active calls that never received a
// matching end within the max age.
func (r *Relay) Sweep() {
	signalCutoff := r.now().Add(-r.cfg.SignalTTL)

	r.queueMu.Lock()
	for recipient, signals := range r.queues {
		kept := signals[:0]
		for _, sig := range signals {
			if sig.Timestamp.After(signalCutoff) {
				kept = append(kept, sig)
			}
		}
		if len(kept) == 0 {
			delete(r.queues, recipient)
			continue
		}
		r.queues[recipient] = kept
	}
	r.queueMu.Unlock()

	callCutoff := r.now().Add(-r.cfg.CallMaxAge)

	r.callMu.Lock()
	for key, call := range r.calls {
		if call.seenAt.Before(callCutoff) {
			log.Printf("Evicting abandoned call %s/%s", call.from, call.to)
			delete(r.calls, key)
		}
	}
	r.callMu.Unlock()
}
