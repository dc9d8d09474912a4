package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/artpar/relay/domain/connectivity"
	"github.com/artpar/relay/domain/dispatch"
	"github.com/artpar/relay/domain/queue"
	"github.com/artpar/relay/ports"
)

// OfflineStage queues requests while connectivity is down instead of
// letting them fail at the transport. Queued requests are replayed in
// enqueue order when connectivity returns; a permanently failing entry is
// dropped and reported without blocking the entries behind it.
type OfflineStage struct {
	store ports.QueueStore
	conn  ports.Connectivity
	codec ports.RequestCodec
	idGen ports.IDGenerator
	clock ports.Clock
	log   zerolog.Logger

	// replay is bound late via BindReplayer since the dispatcher that owns
	// the pipeline containing this stage cannot exist before the stage does.
	replayMu sync.Mutex
	replay   func(ctx context.Context, req dispatch.Request) (any, error)

	// passMu serializes replay passes.
	passMu sync.Mutex
}

var _ ports.Middleware = (*OfflineStage)(nil)

// OfflineStageDeps contains dependencies for OfflineStage.
type OfflineStageDeps struct {
	Store  ports.QueueStore
	Conn   ports.Connectivity
	Codec  ports.RequestCodec
	IDGen  ports.IDGenerator
	Clock  ports.Clock
	Logger zerolog.Logger
}

func NewOfflineStage(deps OfflineStageDeps) *OfflineStage {
	return &OfflineStage{
		store: deps.Store,
		conn:  deps.Conn,
		codec: deps.Codec,
		idGen: deps.IDGen,
		clock: deps.Clock,
		log:   deps.Logger,
	}
}

// BindReplayer wires the dispatcher used for replay after both objects
// exist.
func (s *OfflineStage) BindReplayer(d *Dispatcher) {
	s.replayMu.Lock()
	defer s.replayMu.Unlock()
	s.replay = d.Replay
}

func (s *OfflineStage) Name() string { return "offline" }

func (s *OfflineStage) Execute(ctx context.Context, dctx *dispatch.Context, req dispatch.Request, next ports.Next) (any, error) {
	// Replays and connectivity events must reach the inner stages even
	// while the link state is in flux.
	if dctx.GetBool(dispatch.MetaReplay) || req.Contract() == connectivity.ContractChanged {
		return next(ctx)
	}
	if s.conn.Connected() {
		return next(ctx)
	}

	payload, err := s.codec.Encode(req)
	if err != nil {
		return nil, fmt.Errorf("queue %q: %w", req.Contract(), err)
	}

	entry := queue.Entry{
		ID:         s.idGen.New(),
		Contract:   req.Contract(),
		Payload:    payload,
		EnqueuedAt: s.clock.Now(),
	}
	if err := s.store.Enqueue(ctx, entry); err != nil {
		return nil, fmt.Errorf("queue %q: %w", req.Contract(), err)
	}

	dctx.Set(dispatch.MetaQueued, true)
	s.log.Info().
		Str("contract", req.Contract()).
		Str("trace_id", dctx.TraceID).
		Str("entry_id", entry.ID).
		Msg("disconnected, request queued for replay")

	return dispatch.QueuedResult{EntryID: entry.ID}, dispatch.ErrQueued
}

// ConnectivityHandler returns the event subscriber that triggers replay.
// Subscribe it to the connectivity-changed contract.
func (s *OfflineStage) ConnectivityHandler() ports.Handler {
	return ports.HandlerFunc(func(ctx context.Context, dctx *dispatch.Context, req dispatch.Request) (any, error) {
		evt, ok := req.(connectivity.Changed)
		if !ok {
			if p, pok := req.(*connectivity.Changed); pok {
				evt, ok = *p, true
			}
		}
		if !ok || !evt.Connected {
			return nil, nil
		}
		return nil, s.Replay(ctx)
	})
}

// Replay dispatches queued entries in enqueue order through the full
// pipeline. A retriable failure keeps its entry queued and ends the pass,
// since it usually means the link dropped again. A permanent failure
// removes the entry and the pass continues. Only one pass runs at a time.
func (s *OfflineStage) Replay(ctx context.Context) error {
	s.replayMu.Lock()
	replay := s.replay
	s.replayMu.Unlock()
	if replay == nil {
		return fmt.Errorf("replay: no dispatcher bound")
	}

	s.passMu.Lock()
	defer s.passMu.Unlock()

	entries, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("replay: list queue: %w", err)
	}

	for _, entry := range entries {
		req, err := s.codec.Decode(entry.Contract, entry.Payload)
		if err != nil {
			s.log.Error().
				Str("entry_id", entry.ID).
				Str("contract", entry.Contract).
				Err(err).
				Msg("queued payload undecodable, dropping entry")
			if rerr := s.store.Remove(ctx, entry.ID); rerr != nil {
				return fmt.Errorf("replay: remove %s: %w", entry.ID, rerr)
			}
			continue
		}

		if _, err := replay(ctx, req); err != nil {
			if terr := s.store.Touch(ctx, entry.ID); terr != nil {
				s.log.Warn().Str("entry_id", entry.ID).Err(terr).Msg("attempt count update failed")
			}
			switch queue.Classify(err) {
			case queue.Retriable:
				s.log.Info().
					Str("entry_id", entry.ID).
					Str("contract", entry.Contract).
					Err(err).
					Msg("replay failed, entry kept for next pass")
				return fmt.Errorf("replay %s: %w", entry.ID, err)
			case queue.Permanent:
				s.log.Warn().
					Str("entry_id", entry.ID).
					Str("contract", entry.Contract).
					Err(err).
					Msg("replay failed permanently, dropping entry")
				if rerr := s.store.Remove(ctx, entry.ID); rerr != nil {
					return fmt.Errorf("replay: remove %s: %w", entry.ID, rerr)
				}
			}
			continue
		}

		if err := s.store.Remove(ctx, entry.ID); err != nil {
			return fmt.Errorf("replay: remove %s: %w", entry.ID, err)
		}
		s.log.Info().
			Str("entry_id", entry.ID).
			Str("contract", entry.Contract).
			Msg("queued request replayed")
	}
	return nil
}
