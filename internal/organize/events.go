package organize

import "sync"

// EventKind identifies what an Event carries.
type EventKind string

const (
	EventProgress EventKind = "progress"
	EventStatus   EventKind = "status"
	EventLog      EventKind = "log"
	EventSummary  EventKind = "summary"
	EventError    EventKind = "error"
)

// Event is one observation from an in-flight run. Progress is meaningful for
// EventProgress, Text for status/log/error, Summary for EventSummary.
// Timestamps are the observer's business.
type Event struct {
	Kind     EventKind
	Progress int
	Text     string
	Summary  *Summary
}

// Observer receives run events in emission order. HandleEvent is called from
// a dedicated dispatch goroutine, never from the run goroutine itself, so a
// slow observer delays delivery but not the run.
type Observer interface {
	HandleEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// HandleEvent calls f(event).
func (f ObserverFunc) HandleEvent(event Event) { f(event) }

// dispatcher decouples event production from observer consumption while
// preserving order. The run goroutine appends; a single drain goroutine
// delivers. close marks the end of the stream and drained unblocks once every
// queued event has been handed to the observer.
type dispatcher struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Event
	closed  bool
	drained chan struct{}
}

func newDispatcher(observer Observer) *dispatcher {
	d := &dispatcher{drained: make(chan struct{})}
	d.cond = sync.NewCond(&d.mu)
	go d.drain(observer)
	return d
}

func (d *dispatcher) publish(event Event) {
	d.mu.Lock()
	if !d.closed {
		d.queue = append(d.queue, event)
		d.cond.Signal()
	}
	d.mu.Unlock()
}

func (d *dispatcher) close() {
	d.mu.Lock()
	d.closed = true
	d.cond.Signal()
	d.mu.Unlock()
}

func (d *dispatcher) drain(observer Observer) {
	defer close(d.drained)
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.queue) == 0 && d.closed {
			d.mu.Unlock()
			return
		}
		event := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()

		if observer != nil {
			observer.HandleEvent(event)
		}
	}
}
