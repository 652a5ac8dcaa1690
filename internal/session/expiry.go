package session

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"feedranker/internal/sessionstore"
)

// ExpiryWorker ticks once a minute, merges every session that has gone
// idle past SessionTTLSeconds back into its persistent profile, and
// removes it. A failure on one session is logged and skipped; it must
// never block its siblings, and a corrupt blob is dropped outright rather
// than retried forever.
type ExpiryWorker struct {
	manager  *Manager
	sessions *sessionstore.Store
	ttl      time.Duration
	tick     time.Duration
	log      zerolog.Logger
}

func NewExpiryWorker(manager *Manager, sessions *sessionstore.Store, log zerolog.Logger) *ExpiryWorker {
	return &ExpiryWorker{
		manager:  manager,
		sessions: sessions,
		ttl:      SessionTTLSeconds * time.Second,
		tick:     time.Minute,
		log:      log.With().Str("worker", "session-expiry").Logger(),
	}
}

// Run blocks, sweeping expired sessions every tick until ctx is canceled.
func (w *ExpiryWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-w.ttl).UnixMilli()
	ids, err := w.sessions.ExpiredSessionIDs(ctx, cutoff)
	if err != nil {
		w.log.Warn().Err(err).Msg("expiry sweep: list failed")
		return
	}

	for _, sid := range ids {
		w.expireOne(ctx, sid)
	}
}

func (w *ExpiryWorker) expireOne(ctx context.Context, sessionID string) {
	blob, err := w.sessions.GetSession(ctx, sessionID)
	switch {
	case err != nil && errors.Is(err, sessionstore.ErrCorruptSession):
		w.log.Warn().Err(err).Str("session_id", sessionID).Msg("dropping corrupt session")
		if delErr := w.sessions.DeleteSession(ctx, sessionID); delErr != nil {
			w.log.Warn().Err(delErr).Str("session_id", sessionID).Msg("delete corrupt session failed")
		}
		return
	case err != nil:
		w.log.Warn().Err(err).Str("session_id", sessionID).Msg("expiry sweep: load failed")
		return
	case blob == nil:
		if delErr := w.sessions.RemoveFromLastAccess(ctx, sessionID); delErr != nil {
			w.log.Warn().Err(delErr).Str("session_id", sessionID).Msg("remove missing session from last-access failed")
		}
		return
	}

	if err := w.manager.MergeBack(ctx, sessionID); err != nil {
		if errors.Is(err, ErrUserIDMismatch) {
			w.log.Error().Str("session_id", sessionID).Msg("merge-back refused: userId mismatch, leaving session for manual inspection")
			return
		}
		w.log.Warn().Err(err).Str("session_id", sessionID).Msg("merge-back failed, will retry next sweep")
		return
	}
	if err := w.sessions.DeleteSession(ctx, sessionID); err != nil {
		w.log.Warn().Err(err).Str("session_id", sessionID).Msg("delete merged session failed")
	}
}
