package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chat-core/contract"
	"chat-core/errors"
)

// Supervisor owns a cancellation trigger and a WaitGroup. It runs each
// worker in its own goroutine, recovers panics, restarts crashed
// workers after a delay, and shuts everything down when the parent
// context is canceled. One failing worker never stops the others.
type Supervisor struct {
	cancel          context.CancelFunc
	wg              *sync.WaitGroup
	log             *slog.Logger
	restartInterval time.Duration
	workers         []contract.Worker
}

func NewSupervisor(log *slog.Logger, restartInterval time.Duration) *Supervisor {
	return &Supervisor{wg: &sync.WaitGroup{}, log: log, restartInterval: restartInterval}
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.Supervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Run launches every registered worker under supervision and returns.
// Use Wait to block until all workers have finished.
func (s *Supervisor) Run(ctx context.Context) {
	supervisedCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, worker := range s.workers {
		s.Start(supervisedCtx, worker)
	}
}

// Start runs one worker under supervision. If its Run method panics the
// supervisor recovers and restarts it after restartInterval; a clean
// return retires the worker permanently.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	workerName := contract.GetWorkerName(worker)

	go func() {
		defer s.wg.Done()

		for {
			if ctx.Err() != nil {
				s.log.Info(fmt.Sprintf("Stopping : %s", workerName))
				return
			}

			err := func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
					}
				}()
				return worker.Run(ctx)
			}()

			if err == nil {
				s.log.Info(fmt.Sprintf("Worker finished : %s", workerName))
				return
			}
			if ctx.Err() != nil {
				s.log.Info("Worker stopped (context canceled)", "name", workerName)
				return
			}

			s.log.Warn("Worker crashed, restarting", "name", workerName, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.restartInterval):
			}
		}
	}()
}

// Stop cancels all supervised goroutines.
func (s *Supervisor) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Wait blocks until every supervised goroutine has exited.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}
