package loopfsm

import (
	"log/slog"
	"sync"
	"time"
)

// TransitionRecord describes one completed transition
type TransitionRecord struct {
	MachineID string    `json:"machine_id" yaml:"machine_id"`
	Seq       uint64    `json:"seq" yaml:"seq"`
	From      string    `json:"from" yaml:"from"` // Empty for the first transition
	To        string    `json:"to" yaml:"to"`
	At        time.Time `json:"at" yaml:"at"`
}

// Observer is notified after every completed transition, once the incoming
// state's Enter hook has returned. Observers run on the dispatching goroutine
// and must not call back into the machine.
type Observer interface {
	OnTransition(rec TransitionRecord)
}

// ObserverFunc adapts a function to the Observer interface
type ObserverFunc func(rec TransitionRecord)

func (f ObserverFunc) OnTransition(rec TransitionRecord) { f(rec) }

// AsyncObserver hands records to another observer on its own goroutine, so
// slow observers (database writes, network publishes) do not stall the
// control loop. When the queue is full new records are dropped.
type AsyncObserver struct {
	next    Observer
	records chan TransitionRecord
	done    chan struct{}
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
}

var _ Observer = (*AsyncObserver)(nil)

// NewAsyncObserver starts forwarding to next with a queue of size records
func NewAsyncObserver(next Observer, size int) *AsyncObserver {
	if size <= 0 {
		size = 1
	}
	a := &AsyncObserver{
		next:    next,
		records: make(chan TransitionRecord, size),
		done:    make(chan struct{}),
		logger:  Logger,
	}
	go a.run()
	return a
}

func (a *AsyncObserver) run() {
	defer close(a.done)
	for rec := range a.records {
		a.next.OnTransition(rec)
	}
}

// OnTransition queues rec without blocking. Records arriving after Close are ignored.
func (a *AsyncObserver) OnTransition(rec TransitionRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	select {
	case a.records <- rec:
	default:
		a.logger.Warn("observer queue full, dropping transition", "machine", rec.MachineID, "seq", rec.Seq, "to", rec.To)
	}
}

// Close stops accepting records and waits until the queued ones are delivered
func (a *AsyncObserver) Close() error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.records)
	}
	a.mu.Unlock()
	<-a.done
	return nil
}
