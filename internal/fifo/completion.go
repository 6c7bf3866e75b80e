// Package fifo tracks in-flight pipelined operations in submission order,
// so results read off the wire can be routed back to the caller that
// issued them, per spec.md §3's completion-FIFO design and §9's
// SingleResult/Pipeline tagged-variant resolution.
package fifo

import (
	"container/list"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
)

// Status is a Completion's lifecycle state.
type Status int

const (
	Waiting Status = iota
	Completed
	Cancelled
)

// Kind distinguishes a single queued query from a pipeline batch, whose
// completion only fires once every statement it carries has reported in.
type Kind int

const (
	SingleResultKind Kind = iota
	PipelineKind
)

// Completion is one FIFO entry: either a single statement (SingleResultKind,
// Remaining always 1) or a pipeline batch (PipelineKind, Remaining counting
// down statements as results arrive).
type Completion struct {
	Kind      Kind
	Remaining int

	mu       sync.Mutex
	status   Status
	results  []*pgconn.Result
	draining bool
	done     chan struct{}
}

// NewSingleResult returns a Completion for one query awaiting one result.
func NewSingleResult() *Completion {
	return &Completion{
		Kind:      SingleResultKind,
		Remaining: 1,
		done:      make(chan struct{}),
	}
}

// NewPipeline returns a Completion for a pipeline batch of n statements.
func NewPipeline(n int) *Completion {
	return &Completion{
		Kind:      PipelineKind,
		Remaining: n,
		done:      make(chan struct{}),
	}
}

// Deliver attaches one statement's result to the completion. It reports
// whether the completion is now exhausted (Remaining reached zero), in
// which case the caller should pop it from the queue.
func (c *Completion) Deliver(res *pgconn.Result) (exhausted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.draining {
		c.Remaining--
		return c.Remaining <= 0
	}

	c.results = append(c.results, res)
	c.Remaining--
	if c.Remaining <= 0 {
		c.status = Completed
		close(c.done)
		return true
	}
	return false
}

// Cancel transitions a waiting completion into drain mode: subsequent
// Deliver calls still consume the statements owed to this entry (to keep
// the wire's framing aligned with the FIFO) but discard their payloads,
// per spec.md §9's cancellation-without-corrupting-pipeline-state note.
func (c *Completion) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != Waiting {
		return
	}
	c.status = Cancelled
	c.draining = true
	c.results = nil
	close(c.done)
}

// Complete forces the completion to Completed regardless of Remaining,
// used when the connection itself is torn down mid-flight.
func (c *Completion) Complete() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == Waiting {
		c.status = Completed
		close(c.done)
	}
}

// StatusNow returns the completion's current status.
func (c *Completion) StatusNow() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Results returns the results delivered so far. Safe to call only after
// Done() has fired.
func (c *Completion) Results() []*pgconn.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results
}

// Done reports when the completion has left Waiting.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Queue is a FIFO of in-flight Completions, popped in submission order as
// results are read off the wire.
type Queue struct {
	mu sync.Mutex
	l  *list.List
}

// NewQueue returns an empty completion queue.
func NewQueue() *Queue {
	return &Queue{l: list.New()}
}

// Push appends a completion to the back of the queue.
func (q *Queue) Push(c *Completion) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.l.PushBack(c)
}

// Front returns the completion at the head of the queue without removing
// it, or nil if the queue is empty.
func (q *Queue) Front() *Completion {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.l.Len() == 0 {
		return nil
	}
	return q.l.Front().Value.(*Completion)
}

// Pop removes and returns the completion at the head of the queue, or nil
// if the queue is empty.
func (q *Queue) Pop() *Completion {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.l.Len() == 0 {
		return nil
	}
	e := q.l.Front()
	q.l.Remove(e)
	return e.Value.(*Completion)
}

// Len returns the number of completions currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.l.Len()
}
