// Package runtime wires the ordered broadcast pipeline: accepted
// envelopes flow through a chain of single-goroutine workers so every
// recipient observes events in acceptance order. It orchestrates the
// system without containing domain rules.
package runtime

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"chat-core/contract"
	"chat-core/domain/event"
	"chat-core/moderation"
	"chat-core/runtime/workers"
)

//go:embed censored/*
var censoredFolder embed.FS

type Orchestrator struct {
	mu              sync.Mutex
	log             *slog.Logger
	supervisor      contract.Supervisor
	registry        contract.Registry
	permanentSinks  []contract.EventSink
	rawEvents       chan event.Envelope
	domainEvents    chan event.Envelope
	sinkTimeout     time.Duration
	metricInterval  time.Duration
	charReplacement rune
}

func NewOrchestrator(log *slog.Logger, supervisor contract.Supervisor,
	registry contract.Registry, bufferSize int,
	sinkTimeout, metricInterval time.Duration, charReplacement rune) *Orchestrator {
	return &Orchestrator{
		log:             log,
		supervisor:      supervisor,
		registry:        registry,
		rawEvents:       make(chan event.Envelope, bufferSize),
		domainEvents:    make(chan event.Envelope, bufferSize),
		sinkTimeout:     sinkTimeout,
		metricInterval:  metricInterval,
		charReplacement: charReplacement,
	}
}

// Add registers permanent sinks (history, search index, projections)
// that observe every envelope the fan-out processes.
func (o *Orchestrator) Add(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

// Enqueue accepts an envelope into the pipeline. The send blocks: an
// accepted event is never dropped, so a full buffer applies
// backpressure to the producing connection only.
func (o *Orchestrator) Enqueue(ctx context.Context, env event.Envelope) error {
	select {
	case o.rawEvents <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start prepares all workers and hands them to the supervisor. The
// heavy work (loading dictionaries, building the automaton) happens
// before the short critical section that mutates internal state.
func (o *Orchestrator) Start(ctx context.Context) error {
	moderationWorker, err := o.prepareModeration("censored")
	if err != nil {
		return err
	}
	fanoutWorker := o.prepareFanout()
	telemetryWorker := workers.NewTelemetryWorker(o.log, o.registry, o.metricInterval)

	o.mu.Lock()
	o.supervisor.Add(moderationWorker, fanoutWorker, telemetryWorker)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
	return nil
}

// prepareModeration loads censored words and builds the Aho-Corasick
// automaton feeding the first stage of the pipeline.
func (o *Orchestrator) prepareModeration(path string) (contract.Worker, error) {
	loader := NewCensoredLoader(censoredFolder)
	data, err := loader.LoadAll(path)
	if err != nil {
		return nil, err
	}
	o.log.Info(fmt.Sprintf("%d censored dictionaries loaded [%s]",
		len(data.Languages), strings.Join(data.Languages, ",")))

	moderator, err := moderation.NewModerator(data.Words, o.charReplacement)
	if err != nil {
		return nil, err
	}
	return workers.NewModerationWorker(moderator, o.rawEvents, o.domainEvents, o.log), nil
}

func (o *Orchestrator) prepareFanout() contract.Worker {
	o.mu.Lock()
	sinks := make([]contract.EventSink, len(o.permanentSinks))
	copy(sinks, o.permanentSinks)
	o.mu.Unlock()

	return workers.NewEventFanout(o.log, o.registry, sinks, o.domainEvents, o.sinkTimeout)
}

// Stop cancels the supervision context; workers drain and exit.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
	o.supervisor.Wait()
}
