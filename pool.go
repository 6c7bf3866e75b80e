package pgpipe

import (
	"container/list"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/jeroenrinzema/pgpipe/xerrors"
)

// Pool bounds concurrent connection leases, hands out scoped leases, and
// returns healthy idle connections to the pool on release, spec.md §3
// Pool / §4.5. Grounded in
// original_source/include/psql/connection_pool.hpp's mutex + condition-
// variable + idle-queue shape, realized here with a
// golang.org/x/sync/semaphore.Weighted in place of the condition variable
// (its Acquire already honors ctx cancellation and wakes waiters in FIFO
// order, per its own documented contract).
type Pool struct {
	conninfo    string
	logger      *slog.Logger
	connOptions []Option

	mu       sync.Mutex
	idle     *list.List // of *Connection
	sem      *semaphore.Weighted
	maxSize  int64
	acquired int64
}

// NewPool constructs a pool against conninfo, establishing connections
// lazily on first acquire.
func NewPool(conninfo string, opts ...PoolOption) *Pool {
	p := &Pool{
		conninfo: conninfo,
		logger:   slog.Default(),
		maxSize:  4,
		idle:     list.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.sem = semaphore.NewWeighted(p.maxSize)
	return p
}

// PooledConnection is a scoped lease on a Connection. Release (or Close)
// returns the connection to the pool iff it is healthy, spec.md §4.5.
type PooledConnection struct {
	pool *Pool // plain pointer: Go's GC makes the weak-pointer dance spec.md §9 describes unnecessary
	conn *Connection

	released atomic.Bool
}

// Conn returns the underlying Connection for the lease's lifetime.
func (l *PooledConnection) Conn() *Connection {
	return l.conn
}

// Release returns the leased connection to the pool if healthy, spec.md
// §3 Pool invariant: "a connection is placed on the idle queue on lease
// release only if its status is OK and its transaction status is IDLE
// (otherwise it is dropped)".
func (l *PooledConnection) Release(ctx context.Context) {
	if !l.released.CompareAndSwap(false, true) {
		return
	}
	l.pool.release(ctx, l.conn)
}

// Acquire yields a pooled connection lease, spec.md §4.5. If acquired <
// max_size a connection is taken from the idle queue or newly
// established; otherwise the caller waits in FIFO order until a lease is
// released, cancellation fires, or the pool is grown. A cancelled
// Acquire completes with xerrors.OperationAborted and leaks no lease.
func (p *Pool) Acquire(ctx context.Context) (*PooledConnection, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, xerrors.Wrap(xerrors.OperationAborted, err)
	}

	p.mu.Lock()
	atomic.AddInt64(&p.acquired, 1)
	var conn *Connection
	if front := p.idle.Front(); front != nil {
		conn = p.idle.Remove(front).(*Connection)
	}
	p.mu.Unlock()

	if conn == nil {
		established, err := Connect(ctx, p.conninfo, p.connOptions...)
		if err != nil {
			p.sem.Release(1)
			atomic.AddInt64(&p.acquired, -1)
			return nil, err
		}
		conn = established
	}

	return &PooledConnection{pool: p, conn: conn}, nil
}

// release implements the lease-destruction half of spec.md §4.5: health
// check, conditional return-to-idle, and always releasing the semaphore
// slot so a waiter (or a resize) can proceed.
func (p *Pool) release(ctx context.Context, conn *Connection) {
	defer p.sem.Release(1)
	defer atomic.AddInt64(&p.acquired, -1)

	if conn.Status() == StatusReady && conn.TransactionStatus() == 'I' {
		p.mu.Lock()
		p.idle.PushBack(conn)
		p.mu.Unlock()
		return
	}

	p.logger.Debug("dropping unhealthy connection instead of returning it to the idle queue",
		slog.String("status", conn.Status().String()))
	_ = conn.Close(ctx)
}

// Resize changes the pool's maximum size at runtime. Reducing max_size
// only changes the value MaxSize reports: the semaphore keeps its old
// capacity, so neither blocked nor new Acquire calls are bounded by the
// smaller size, outstanding leases are not revoked, and no waiter is
// woken or cancelled (semaphore.Weighted has no native shrink — see
// DESIGN.md). Increasing max_size always wakes enough waiters to saturate
// the new limit, since it simply adds capacity to the same semaphore.
func (p *Pool) Resize(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n > p.maxSize {
		p.sem.Release(n - p.maxSize)
	}
	p.maxSize = n
}

// MaxSize returns the pool's current maximum size.
func (p *Pool) MaxSize() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxSize
}

// Acquired returns the current number of outstanding leases.
func (p *Pool) Acquired() int64 {
	return atomic.LoadInt64(&p.acquired)
}

// Close tears down every idle connection. Outstanding leases are
// unaffected; since Close drains but does not poison the idle queue, a
// healthy connection released after Close is still pushed back onto it.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for e := p.idle.Front(); e != nil; e = e.Next() {
		conn := e.Value.(*Connection)
		if err := conn.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.idle.Init()
	return firstErr
}
