package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pborman/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/pquota/internal/observability"
)

const (
	// Retention is how long deletion entries are kept.
	Retention = 24 * time.Hour
	// SweepInterval is the period between retention sweeps.
	SweepInterval = time.Hour
)

type SweeperState int32

const (
	StateIdle SweeperState = iota
	StateRunning
)

func (s SweeperState) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

type pruner interface {
	PruneOlderThan(ctx context.Context, cutoff int64) (int64, error)
}

// Sweeper periodically prunes the deletion log. A failed sweep is skipped until the next tick.
type Sweeper struct {
	log      pruner
	interval time.Duration
	now      func() time.Time

	stateMutex sync.Mutex
	state      SweeperState

	runMutex  sync.Mutex
	started   bool
	runCancel context.CancelFunc
	workersWg sync.WaitGroup
}

func NewSweeper(l pruner) *Sweeper {
	return &Sweeper{
		log:      l,
		interval: SweepInterval,
		now:      time.Now,
	}
}

func (s *Sweeper) Start(ctx context.Context) error {
	s.runMutex.Lock()
	defer s.runMutex.Unlock()
	if s.started {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.runCancel = cancel

	s.workersWg.Add(1)
	go func() {
		defer s.workersWg.Done()
		s.Sweep(runCtx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.Sweep(runCtx)
			}
		}
	}()

	s.started = true
	return nil
}

func (s *Sweeper) Stop(ctx context.Context) error {
	s.runMutex.Lock()
	if !s.started {
		s.runMutex.Unlock()
		return nil
	}
	s.started = false
	cancel := s.runCancel
	s.runMutex.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.workersWg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Sweep runs one retention pass and returns the number of pruned entries.
func (s *Sweeper) Sweep(ctx context.Context) int64 {
	entry := s.getLogEntry().WithFields(log.Fields{
		"method": "Sweep",
		"run_id": uuid.New(),
	})

	s.setState(StateRunning)
	defer s.setState(StateIdle)

	cutoff := s.now().Add(-Retention).UTC().Unix()
	pruned, err := s.log.PruneOlderThan(ctx, cutoff)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			entry.WithError(err).Error("retention sweep failed")
		}
		observability.RecordSweep("failed", 0)
		return 0
	}

	observability.RecordSweep("ok", pruned)
	entry.WithFields(log.Fields{"cutoff": cutoff, "pruned": pruned}).Debug("retention sweep finished")
	return pruned
}

func (s *Sweeper) State() SweeperState {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()
	return s.state
}

func (s *Sweeper) setState(state SweeperState) {
	s.stateMutex.Lock()
	s.state = state
	s.stateMutex.Unlock()
}

func (s *Sweeper) getLogEntry() *log.Entry {
	return log.WithField("object", "Sweeper")
}
