//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chat-core/domain"
	"chat-core/domain/event"
)

// EventSink receives routed envelopes for one consumer. Implementations
// must not block past the context deadline the router hands them.
type EventSink interface {
	Consume(ctx context.Context, env event.Envelope) error
}

// Member is one registry entry as seen by the router.
type Member struct {
	Session domain.Session
	Sink    EventSink
}

// Registry is the authoritative set of currently-joined sessions.
// All operations are atomic; no caller observes a torn snapshot.
type Registry interface {
	Register(connID domain.ConnectionID, username string, sink EventSink) (domain.Session, error)
	Lookup(connID domain.ConnectionID) (domain.Session, bool)
	Unregister(connID domain.ConnectionID) (domain.Session, bool)
	Count() int
	Snapshot() []Member
}

// Dispatcher accepts envelopes into the ordered broadcast pipeline.
// Enqueue blocks rather than drop: the ordering guarantee forbids
// losing an accepted event, so backpressure lands on the caller.
type Dispatcher interface {
	Enqueue(ctx context.Context, env event.Envelope) error
}

// HistoryProvider is the external durable store of past messages.
// FetchRecent returns oldest first. Both operations are best-effort
// from the core's point of view.
type HistoryProvider interface {
	FetchRecent(limit int) ([]domain.Message, error)
	Append(message domain.Message) error
}

// Searcher answers full-text queries over stored messages.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.Message, error)
}

type WorkerName string

// Worker doesn't protect itself; the supervisor does.
type Worker interface {
	Run(ctx context.Context) error
}

type Supervisor interface {
	Add(worker ...Worker) Supervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
	Wait()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in Worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
