package ble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrSessionState is returned by Start on a session that is not Idle, or that was stopped
	// while its radio was starting.
	ErrSessionState = errors.New("ble: session already started")
	// ErrSessionNotStarted is returned by Stop on a session that was never started.
	ErrSessionNotStarted = errors.New("ble: session not started")
)

const defaultKeepAlive = 10 * time.Second

// Scanner is the radio backend.
//
// Start registers handle and begins delivering advertisements, one at a time. It is one-shot:
// a second Start returns an error. Stop ends delivery and releases the radio; it must be safe
// to call before Start, after a failed Start and more than once, and a Stop that returned nil
// before Start began leaves a later Stop free to release the radio. Err delivers at most one
// error, for a scan that ended on its own; it is never closed.
type Scanner interface {
	Start(ctx context.Context, handle func(Advertisement)) error
	Stop() error
	Err() <-chan error
}

// Sink receives every accepted reading.
type Sink interface {
	Emit(r Reading) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(r Reading) error

func (f SinkFunc) Emit(r Reading) error { return f(r) }

type SessionState int32

const (
	StateIdle SessionState = iota
	StateScanning
	StateStopped
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Stats are the session counters since Start.
type Stats struct {
	Accepted uint64            `json:"accepted"`
	Dropped  map[string]uint64 `json:"dropped"`
	SinkErrs uint64            `json:"sink_errors"`
}

type SessionOptions struct {
	// KeepAlive is the period between liveness checks in Run.
	KeepAlive time.Duration
	Logger    *slog.Logger
}

// Session owns one continuous scan: Idle -> Scanning -> Stopped.
type Session struct {
	scanner   Scanner
	handler   *Handler
	sink      Sink
	logger    *slog.Logger
	keepAlive time.Duration

	// mu is held for reading during a delivery and for writing on state changes,
	// so Stop returns only after an in-flight delivery has finished.
	mu    sync.RWMutex
	state SessionState

	accepted atomic.Uint64
	sinkErrs atomic.Uint64
	dropped  [DropNotAllowlisted + 1]atomic.Uint64
}

// NewSession wires scanner, handler and sink into an Idle session. A zero KeepAlive means 10s.
func NewSession(scanner Scanner, handler *Handler, sink Sink, opts SessionOptions) *Session {
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = defaultKeepAlive
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Session{
		scanner:   scanner,
		handler:   handler,
		sink:      sink,
		logger:    opts.Logger,
		keepAlive: opts.KeepAlive,
	}
}

// Start begins scanning. It may only be called once, on an Idle session.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w (state %s)", ErrSessionState, state)
	}
	s.state = StateScanning
	s.mu.Unlock()

	if err := s.scanner.Start(ctx, s.deliver); err != nil {
		s.mu.Lock()
		s.state = StateStopped
		s.mu.Unlock()
		return fmt.Errorf("ble: start scan: %w", err)
	}

	// A Stop that ran while the radio was starting could not release it.
	if state := s.State(); state != StateScanning {
		stopErr := s.scanner.Stop()
		if stopErr != nil {
			stopErr = fmt.Errorf("ble: stop scan: %w", stopErr)
		}
		return errors.Join(fmt.Errorf("%w (stopped while starting)", ErrSessionState), stopErr)
	}

	s.logger.Info("ble: scanning started", "service", EnvironmentalSensingUUID.String())
	return nil
}

// Stop ends the session. No advertisement is processed after Stop returns.
// Stopping a stopped session is a no-op; stopping an Idle one returns ErrSessionNotStarted.
func (s *Session) Stop() error {
	s.mu.Lock()
	switch s.state {
	case StateIdle:
		s.mu.Unlock()
		return ErrSessionNotStarted
	case StateStopped:
		s.mu.Unlock()
		return nil
	}
	s.state = StateStopped
	s.mu.Unlock()

	if err := s.scanner.Stop(); err != nil {
		return fmt.Errorf("ble: stop scan: %w", err)
	}
	s.logger.Info("ble: scanning stopped", "accepted", s.accepted.Load())
	return nil
}

// Run starts the session and blocks until ctx is done or the scan fails, then stops it.
func (s *Session) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := s.Stop(); err != nil {
				return err
			}
			return ctx.Err()
		case err := <-s.scanner.Err():
			stopErr := s.Stop()
			return errors.Join(fmt.Errorf("ble scan: %w", err), stopErr)
		case <-ticker.C:
			st := s.Stats()
			s.logger.Debug("ble: session alive",
				"accepted", st.Accepted,
				"dropped", st.Dropped,
				"sink_errors", st.SinkErrs,
			)
		}
	}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Stats returns a snapshot of the counters. Dropped has one entry per drop reason.
func (s *Session) Stats() Stats {
	st := Stats{
		Accepted: s.accepted.Load(),
		SinkErrs: s.sinkErrs.Load(),
		Dropped:  make(map[string]uint64, len(s.dropped)-1),
	}
	for reason := DropNoServiceData; reason <= DropNotAllowlisted; reason++ {
		st.Dropped[reason.String()] = s.dropped[reason].Load()
	}
	return st
}

func (s *Session) deliver(adv Advertisement) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateScanning {
		return
	}

	r, reason := s.handler.Process(adv)
	if r == nil {
		s.dropped[reason].Add(1)
		return
	}
	s.accepted.Add(1)

	if err := s.sink.Emit(*r); err != nil {
		s.sinkErrs.Add(1)
		s.logger.Warn("ble: failed to emit reading", "mac", r.Address, "ctr", r.Counter, "error", err)
	}
}
