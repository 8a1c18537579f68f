// Package session implements the device session lifecycle manager. It owns
// the single long-lived driver session: validates it on demand, recovers it
// within bounded retry limits, persists the connection descriptor across
// process restarts, and keeps the session alive in the background.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/devicelab-dev/device-agent/pkg/core"
	"github.com/devicelab-dev/device-agent/pkg/logger"
)

// Defaults for the lifecycle policy when Config leaves them zero.
const (
	DefaultMaxAttempts       = 3
	DefaultSettleDelay       = 2 * time.Second
	DefaultKeepAliveInterval = 5 * time.Minute
)

// Config configures a Manager.
type Config struct {
	// Factory creates driver sessions. Required.
	Factory core.Factory

	// Store persists the connection descriptor. Optional; without it the
	// manager cannot resume after a restart.
	Store Store

	// MaxAttempts bounds the recovery loop. Attempt count is the sole
	// authority on giving up; there is no wall-clock bound.
	MaxAttempts int

	// SettleDelay is the wait between destroying a stale handle and
	// redialing, letting the driver release device resources.
	SettleDelay time.Duration

	// KeepAliveInterval is the background probe period while connected.
	// Zero means the default; negative disables keep-alive.
	KeepAliveInterval time.Duration
}

// Manager owns the session state machine. All mutating operations serialize
// on one mutex, so two concurrent recoveries can never race to create two
// handles. Construct one per device; there is no package-level instance.
type Manager struct {
	mu sync.Mutex

	factory core.Factory
	store   Store

	maxAttempts       int
	settleDelay       time.Duration
	keepAliveInterval time.Duration

	state        core.SessionState
	handle       core.Handle
	desc         *core.Descriptor
	retries      int
	lastActivity time.Time

	// generation is bumped on every connect/disconnect. A recovery attempt
	// that finishes after the generation moved on discards its result
	// instead of resurrecting a superseded session.
	generation uint64

	runCtx        context.Context
	keepAliveDone chan struct{}

	// cancelMu guards runCancel so Disconnect can interrupt an in-flight
	// recovery without waiting for the main mutex.
	cancelMu  sync.Mutex
	runCancel context.CancelFunc

	// statusMu guards the published status snapshot so Status never blocks
	// behind a recovery in progress.
	statusMu sync.RWMutex
	status   core.Status
}

// NewManager creates a manager. If a store is configured and holds a
// descriptor from a previous run, the first Acquire call will transparently
// reconnect with it.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Factory == nil {
		return nil, core.ErrMissingRequired.WithMessage("session manager requires a driver factory")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	if cfg.KeepAliveInterval == 0 {
		cfg.KeepAliveInterval = DefaultKeepAliveInterval
	}

	m := &Manager{
		factory:           cfg.Factory,
		store:             cfg.Store,
		maxAttempts:       cfg.MaxAttempts,
		settleDelay:       cfg.SettleDelay,
		keepAliveInterval: cfg.KeepAliveInterval,
		state:             core.StateDisconnected,
	}

	if m.store != nil {
		desc, err := m.store.Load()
		switch {
		case err != nil:
			logger.Warn("session: could not load stored descriptor: %v", err)
		case desc != nil:
			m.desc = desc
			logger.Info("session: found persisted descriptor for %s", desc.ServerURL)
		}
	}

	m.syncStatusLocked()
	return m, nil
}

// Connect establishes a session with the given descriptor. Any existing
// session is torn down first (best-effort). On success the descriptor is
// persisted and the keep-alive loop starts; on failure the state becomes
// Failed but the descriptor stays persisted so a later connect or restart
// can reuse it.
func (m *Manager) Connect(ctx context.Context, desc *core.Descriptor) error {
	if err := desc.Validate(); err != nil {
		return err
	}

	// Invalidate any in-flight recovery before queueing on the lock.
	m.interruptRun()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectLocked(ctx, desc.Clone())
}

// Disconnect tears the session down. Idempotent and always succeeds from the
// caller's point of view: teardown failures are logged and swallowed. An
// in-flight recovery is interrupted rather than allowed to resurrect the
// session afterwards.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.interruptRun()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.teardownLocked(ctx)
	m.generation++
	if m.store != nil {
		if err := m.store.Clear(); err != nil {
			logger.Warn("session: could not clear stored descriptor: %v", err)
		}
	}
	m.desc = nil
	m.retries = 0
	m.setStateLocked(core.StateDisconnected)
	logger.Info("session: disconnected")
	return nil
}

// Close shuts the manager down without clearing the persisted descriptor,
// so a restarted process can resume the session. Used on process shutdown.
func (m *Manager) Close(ctx context.Context) error {
	m.interruptRun()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.teardownLocked(ctx)
	m.generation++
	m.setStateLocked(core.StateDisconnected)
	return nil
}

// Acquire is the single entry point for every caller that needs a usable
// handle. It validates the current session, transparently reconnects from a
// persisted descriptor after a restart, and recovers a stale session within
// the attempt limit.
func (m *Manager) Acquire(ctx context.Context) (core.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case core.StateFailed:
		// Terminal until an explicit connect; no further driver calls.
		return nil, core.ErrSessionUnrecoverable

	case core.StateDisconnected:
		if m.desc == nil {
			return nil, core.ErrNotConnected
		}
		// Crash-resume: a descriptor from a previous run is still persisted.
		logger.Info("session: resuming from persisted descriptor")
		if err := m.connectLocked(ctx, m.desc); err != nil {
			return nil, err
		}
		return m.handle, nil

	case core.StateConnected:
		if err := m.handle.Probe(ctx); err != nil {
			logger.Warn("session: probe failed, entering recovery: %v", err)
			return m.recoverLocked(ctx)
		}
		m.retries = 0
		m.lastActivity = time.Now()
		m.syncStatusLocked()
		return m.handle, nil

	default:
		// Connecting/Recovering are only held while the mutex is, so no
		// caller can observe them here.
		return nil, core.ErrNotConnected
	}
}

// Status returns the current session status. Pure read; never blocks behind
// a connect or recovery in progress.
func (m *Manager) Status() core.Status {
	m.statusMu.RLock()
	defer m.statusMu.RUnlock()
	return m.status
}

func (m *Manager) connectLocked(ctx context.Context, desc *core.Descriptor) error {
	m.teardownLocked(ctx)

	m.desc = desc
	if m.store != nil {
		if err := m.store.Save(desc); err != nil {
			logger.Warn("session: could not persist descriptor: %v", err)
		}
	}

	m.generation++
	m.retries = 0
	m.setStateLocked(core.StateConnecting)

	handle, err := m.factory.CreateSession(ctx, desc)
	if err != nil {
		m.setStateLocked(core.StateFailed)
		logger.Error("session: connect failed: %v", err)
		return core.ErrDriverCreateFailed.WithCause(err)
	}

	run := m.beginRunLocked()
	m.installHandleLocked(handle)
	m.startKeepAliveLocked(run)
	logger.Info("session: connected, id=%s", handle.ID())
	return nil
}

// recoverLocked replaces a stale handle using the persisted descriptor. It
// is the single recovery path, shared by caller-triggered probe failures and
// keep-alive ticks. The loop is explicit and bounded: the retry counter is
// the sole authority on giving up.
func (m *Manager) recoverLocked(ctx context.Context) (core.Handle, error) {
	run := m.runCtx
	gen := m.generation

	for {
		m.retries++
		if m.retries > m.maxAttempts {
			logger.Error("session: recovery gave up after %d attempts", m.maxAttempts)
			m.interruptRun()
			m.handle = nil
			m.setStateLocked(core.StateFailed)
			return nil, core.ErrSessionUnrecoverable
		}
		m.setStateLocked(core.StateRecovering)
		m.destroyHandleLocked(ctx)

		// Let the driver release device resources before redialing. The
		// wait is interruptible: disconnect or a fresh connect cancels the
		// run context and the recovery abandons its epoch.
		select {
		case <-time.After(m.settleDelay):
		case <-run.Done():
			return nil, core.ErrRecoveryInterrupted
		}

		logger.Info("session: reconnect attempt %d/%d", m.retries, m.maxAttempts)
		handle, err := m.factory.CreateSession(run, m.desc)
		if err != nil {
			logger.Warn("session: reconnect attempt %d failed: %v", m.retries, err)
			continue
		}

		if run.Err() != nil || gen != m.generation {
			// Superseded while dialing. The fresh handle belongs to a dead
			// epoch; destroy it rather than install it.
			if derr := handle.Destroy(context.Background()); derr != nil {
				logger.Warn("session: %v", core.ErrTeardownFailed.WithCause(derr))
			}
			return nil, core.ErrRecoveryInterrupted
		}

		m.installHandleLocked(handle)
		logger.Info("session: recovered, id=%s", handle.ID())
		return handle, nil
	}
}

func (m *Manager) installHandleLocked(handle core.Handle) {
	m.handle = handle
	m.retries = 0
	m.lastActivity = time.Now()
	m.setStateLocked(core.StateConnected)
}

// teardownLocked stops the keep-alive loop and destroys the current handle.
// It leaves state, descriptor, and store untouched; callers decide those.
func (m *Manager) teardownLocked(ctx context.Context) {
	m.interruptRun()
	if m.keepAliveDone != nil {
		<-m.keepAliveDone
		m.keepAliveDone = nil
	}
	m.runCtx = nil
	m.destroyHandleLocked(ctx)
}

func (m *Manager) destroyHandleLocked(ctx context.Context) {
	if m.handle == nil {
		return
	}
	if err := m.handle.Destroy(ctx); err != nil {
		logger.Warn("session: %v", core.ErrTeardownFailed.WithCause(err))
	}
	m.handle = nil
}

func (m *Manager) beginRunLocked() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	m.runCtx = ctx
	m.cancelMu.Lock()
	m.runCancel = cancel
	m.cancelMu.Unlock()
	return ctx
}

// interruptRun cancels the current run context without taking the main
// mutex, so it can cut short a recovery that is holding it.
func (m *Manager) interruptRun() {
	m.cancelMu.Lock()
	if m.runCancel != nil {
		m.runCancel()
	}
	m.cancelMu.Unlock()
}

func (m *Manager) startKeepAliveLocked(run context.Context) {
	if m.keepAliveInterval <= 0 {
		return
	}
	done := make(chan struct{})
	m.keepAliveDone = done
	go m.keepAliveLoop(run, done)
}

func (m *Manager) keepAliveLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.keepAliveTick(ctx)
		}
	}
}

// keepAliveTick probes the session and routes failures into the same
// recovery path callers use. A tick that cannot take the lock is dropped:
// some other operation is already mutating the session, so a parallel
// recovery must not start.
func (m *Manager) keepAliveTick(ctx context.Context) {
	if !m.mu.TryLock() {
		return
	}
	defer m.mu.Unlock()

	if m.state != core.StateConnected {
		return
	}

	if err := m.handle.Probe(ctx); err != nil {
		logger.Warn("session: keep-alive probe failed: %v", err)
		if _, rerr := m.recoverLocked(ctx); rerr != nil {
			logger.Error("session: keep-alive recovery failed: %v", rerr)
		}
		return
	}

	m.retries = 0
	m.lastActivity = time.Now()
	m.syncStatusLocked()
	logger.Debug("session: keep-alive probe ok")
}

func (m *Manager) setStateLocked(state core.SessionState) {
	m.state = state
	m.syncStatusLocked()
}

func (m *Manager) syncStatusLocked() {
	status := core.Status{
		Connected:    m.state == core.StateConnected,
		State:        m.state,
		Descriptor:   m.desc,
		LastActivity: m.lastActivity,
		RetryCount:   m.retries,
	}
	if m.handle != nil {
		status.SessionID = m.handle.ID()
	}

	m.statusMu.Lock()
	m.status = status
	m.statusMu.Unlock()
}
