// Package service provides the core business service that implements
// the dependencies required by the HTTP API: the session registry, the
// per-session detection engines and the score persistence pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	recordqueue "github.com/okian/pugil/internal/adapters/mq/queue"
	workerpool "github.com/okian/pugil/internal/adapters/mq/worker"
	repository "github.com/okian/pugil/internal/adapters/repository"
	"github.com/okian/pugil/internal/domain/engine"
	"github.com/okian/pugil/internal/domain/model"
	"github.com/okian/pugil/internal/domain/scoring"
	"github.com/okian/pugil/pkg/logger"
	"github.com/okian/pugil/pkg/metrics"
)

// Default sizing for the registry and the persistence pipeline.
const (
	defaultQueueSize   = 256
	defaultWorkerCount = 2
	defaultMaxSessions = 64
	defaultStoreTTL    = 30 * time.Minute

	// shutdownTimeout bounds the worker pool drain during Stop.
	shutdownTimeout = 30 * time.Second
	// saveTimeout bounds each synchronous snapshot save.
	saveTimeout = 5 * time.Second
)

// session pairs one detection engine with its score keeper. All steps
// for a session are serialized by its mutex; distinct sessions proceed
// in parallel.
type session struct {
	mu     sync.Mutex
	eng    *engine.Engine
	keeper *scoring.Keeper
	opened time.Time
}

// Service implements the API dependencies for the strike sessions.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	queue    recordqueue.Queue
	pool     *workerpool.Pool
	sessions map[string]*session

	// Configuration
	storePath   string
	storeTTL    time.Duration
	queueSize   int
	workerCount int
	maxSessions int
	tuning      engine.Tuning

	// Counters
	frames  atomic.Int64
	strikes atomic.Int64

	// State
	started    bool
	storeOwned bool
	startedAt  time.Time
	now        func() time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects a prebuilt score store. Start skips store
// construction when one is present, and Stop leaves it open.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithStorePath points the score store at a SQLite file. Empty keeps
// the in-memory store.
func WithStorePath(path string) Option {
	return func(s *Service) {
		s.storePath = path
	}
}

// WithStoreTTL sets the retention window for persisted score records.
func WithStoreTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.storeTTL = ttl
		}
	}
}

// WithQueueSize sets the capacity of the snapshot queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of store worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithMaxSessions caps how many sessions may be open at once.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithTuning replaces the detection tuning applied to new sessions.
func WithTuning(t engine.Tuning) Option {
	return func(s *Service) {
		s.tuning = t
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sessions:    make(map[string]*session),
		storeTTL:    defaultStoreTTL,
		queueSize:   defaultQueueSize,
		workerCount: defaultWorkerCount,
		maxSessions: defaultMaxSessions,
		tuning:      engine.DefaultTuning(),
		now:         time.Now,
		logger:      nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting session service...")

	if s.store == nil {
		st, err := s.openStore(ctx)
		if err != nil {
			return fmt.Errorf("open score store: %w", err)
		}
		s.store = st
		s.storeOwned = true
	}

	s.queue = recordqueue.NewInMemoryQueue(
		recordqueue.WithCapacity(s.queueSize),
	)
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.store)
	s.pool.Start(ctx)

	s.started = true
	s.startedAt = s.now()
	s.logger.Info(ctx, "session service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("max_sessions", s.maxSessions),
	)

	return nil
}

// openStore builds the configured score store: SQLite when a path is
// set, in-memory otherwise.
func (s *Service) openStore(ctx context.Context) (repository.Store, error) {
	opts := []repository.Option{
		repository.WithTTL(s.storeTTL),
		repository.WithClock(s.now),
	}
	if s.storePath == "" {
		s.logger.Info(ctx, "using in-memory score store")
		return repository.NewMemory(opts...), nil
	}
	s.logger.Info(ctx, "using sqlite score store",
		logger.String("path", s.storePath),
	)
	return repository.NewSQLite(s.storePath, opts...)
}

// Stop gracefully shuts down the service. Every open session gets a
// final synchronous snapshot save before the pipeline drains, so warm
// baselines survive a restart.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping session service...")

	s.flushSessionsLocked(ctx)

	// Drain the snapshot queue
	if s.pool != nil {
		drainCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		if err := s.pool.Shutdown(drainCtx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
		}
		cancel()
	}

	// Close the store only if Start built it
	if s.storeOwned && s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(ctx, "score store close", logger.Error(err))
		}
		s.store = nil
		s.storeOwned = false
	}

	s.started = false
	metrics.UpdateActiveSessions(0)
	s.logger.Info(ctx, "session service stopped")
}

// flushSessionsLocked saves a final snapshot for every open session and
// empties the registry. Callers hold s.mu.
func (s *Service) flushSessionsLocked(ctx context.Context) {
	for id, sess := range s.sessions {
		sess.mu.Lock()
		rec := sess.keeper.Snapshot(s.now())
		sess.mu.Unlock()

		saveCtx, cancel := context.WithTimeout(ctx, saveTimeout)
		if err := s.store.Save(saveCtx, rec); err != nil {
			s.logger.Warn(ctx, "final snapshot save failed",
				logger.String("session_id", id),
				logger.Error(err),
			)
		}
		cancel()
		delete(s.sessions, id)
	}
}

// CreateSession opens a new session seeded from the persisted score
// history and returns its id.
func (s *Service) CreateSession(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return "", fmt.Errorf("create session: %w", ErrNotStarted)
	}
	if len(s.sessions) >= s.maxSessions {
		return "", fmt.Errorf("create session: %w", ErrTooManySessions)
	}

	keeper := scoring.NewKeeper(s.seedOptions(ctx)...)
	sess := &session{
		eng: engine.New(
			engine.WithTuning(s.tuning),
			engine.WithScorer(keeper),
		),
		keeper: keeper,
		opened: s.now(),
	}

	id := uuid.NewString()
	s.sessions[id] = sess
	metrics.UpdateActiveSessions(len(s.sessions))

	s.logger.Info(ctx, "session opened",
		logger.String("session_id", id),
		logger.Int("open_sessions", len(s.sessions)),
	)

	return id, nil
}

// seedOptions loads the persisted record for keeper seeding. A missing
// or expired record means a fresh baseline.
func (s *Service) seedOptions(ctx context.Context) []scoring.Option {
	rec, err := s.store.Load(ctx)
	switch {
	case err == nil:
		return []scoring.Option{scoring.WithHistory(rec.Left, rec.Right)}
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrExpired):
		return nil
	default:
		s.logger.Warn(ctx, "score history load failed", logger.Error(err))
		return nil
	}
}

// CloseSession removes the session and saves its final snapshot
// synchronously, so the history survives even when the queue is busy.
func (s *Service) CloseSession(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
		metrics.UpdateActiveSessions(len(s.sessions))
	}
	store := s.store
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("close session: %w", ErrSessionNotFound)
	}

	sess.mu.Lock()
	rec := sess.keeper.Snapshot(s.now())
	sess.mu.Unlock()

	if err := store.Save(ctx, rec); err != nil {
		return fmt.Errorf("close session: save snapshot: %w", err)
	}

	s.logger.Info(ctx, "session closed", logger.String("session_id", id))
	return nil
}

// Step feeds one frame to the session's engine and returns the per-frame
// result. On an accepted strike the updated history is queued for
// persistence; a full queue drops the snapshot, never the strike.
func (s *Service) Step(ctx context.Context, id string, frame model.Frame) (model.StepResult, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	queue := s.queue
	s.mu.RUnlock()

	if !ok {
		return model.StepResult{}, fmt.Errorf("step: %w", ErrSessionNotFound)
	}

	start := time.Now()
	sess.mu.Lock()
	res := sess.eng.Step(frame)
	var rec *model.ScoreRecord
	if res.Strike != nil {
		snap := sess.keeper.Snapshot(s.now())
		rec = &snap
	}
	sess.mu.Unlock()

	s.frames.Add(1)
	metrics.RecordFrameProcessed()
	metrics.RecordStepDuration(float64(time.Since(start).Microseconds()) / 1000.0)
	metrics.UpdateCalibrationPhase(calibrationPhase(res.Calibration))
	recordFrameGate(res)

	if res.Strike != nil {
		s.strikes.Add(1)
		metrics.RecordStrike(string(res.Strike.Side))
		metrics.RecordStrikePower(res.Strike.Power)
		metrics.RecordStrikePercent(float64(res.Strike.Percent))

		if !queue.Enqueue(ctx, *rec) {
			s.logger.Warn(ctx, "snapshot queue full, dropping save",
				logger.String("session_id", id),
			)
		}
	}

	return res, nil
}

// SessionStats returns the session's cumulative stats without advancing
// the engine.
func (s *Service) SessionStats(_ context.Context, id string) (model.StepResult, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return model.StepResult{}, fmt.Errorf("session stats: %w", ErrSessionNotFound)
	}

	sess.mu.Lock()
	res := sess.eng.Snapshot()
	sess.mu.Unlock()

	return res, nil
}

// HasSession reports whether the session id is currently open.
func (s *Service) HasSession(_ context.Context, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.sessions[id]
	return ok
}

// Sessions lists the ids of the currently open sessions, sorted.
func (s *Service) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"worker_count":  s.workerCount,
		"queue_size":    s.queueSize,
		"max_sessions":  s.maxSessions,
		"open_sessions": len(s.sessions),
		"frames_total":  s.frames.Load(),
		"strikes_total": s.strikes.Load(),
	}

	if s.started {
		stats["uptime_seconds"] = s.now().Sub(s.startedAt).Seconds()
		// Len also refreshes the queue gauges as a side effect.
		stats["queue_length"] = s.queue.Len(context.Background())
	}

	return stats
}

// calibrationPhase maps the calibration state onto the gauge scale.
func calibrationPhase(c model.CalibrationState) int {
	switch c {
	case model.CalibrationCollecting:
		return 1
	case model.CalibrationComplete:
		return 2
	default:
		return 0
	}
}

// recordFrameGate counts frames the engine refused to evaluate. Frame
// level reasons land on both limbs; reading the left one is enough.
func recordFrameGate(res model.StepResult) {
	if len(res.LeftDebug.Reasons) == 0 {
		return
	}
	switch res.LeftDebug.Reasons[0] {
	case engine.ReasonShouldersMissing:
		metrics.RecordFrameRejected("shoulders_missing")
	case engine.ReasonLowShoulderConf:
		metrics.RecordFrameRejected("low_shoulder_confidence")
	case engine.ReasonUnstable:
		metrics.RecordFrameUnstable()
	}
}
