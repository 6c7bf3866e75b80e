package pgpipe

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jeroenrinzema/pgpipe/codec"
	"github.com/jeroenrinzema/pgpipe/internal/fifo"
	"github.com/jeroenrinzema/pgpipe/oidmap"
	"github.com/jeroenrinzema/pgpipe/xerrors"
)

// Status is a Connection's lifecycle state, spec.md §3 Connection:
// disconnected -> connecting -> ready -> closed.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusReady
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusReady:
		return "ready"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Connection owns a backend socket (via pgconn.PgConn), the completion
// FIFO, the OID map, and the cooperative single-task discipline spec.md §5
// requires: exactly one user task at a time may initiate a
// query-producing operation, with ReceiveNotification the sole exception.
type Connection struct {
	// op serializes query-producing operations; ReceiveNotification does
	// not take it, so it may run concurrently with an in-flight query, per
	// spec.md §4.1 "Notification channel".
	op sync.Mutex

	mu     sync.Mutex
	status Status

	pg     *pgconn.PgConn
	logger *slog.Logger
	types  *oidmap.Map

	completions *fifo.Queue

	notifications chan *Notification
	notifyWake    chan struct{}
}

// Connect drives pgconn's non-blocking handshake poll, spec.md §4.1
// `connect(conninfo)`. It does not enter pipeline mode: each Query,
// QueryPrepared and ExecPipeline call starts and closes its own pgconn
// pipeline.
func Connect(ctx context.Context, conninfo string, opts ...Option) (*Connection, error) {
	c := &Connection{
		status:        StatusConnecting,
		logger:        slog.Default(),
		types:         oidmap.New(),
		completions:   fifo.NewQueue(),
		notifications: make(chan *Notification, 32),
		notifyWake:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}

	config, err := pgconn.ParseConfig(conninfo)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ConnectionFailed, err)
	}
	config.OnNotification = c.onNotification

	pg, err := pgconn.ConnectConfig(ctx, config)
	if err != nil {
		c.mu.Lock()
		c.status = StatusDisconnected
		c.mu.Unlock()
		return nil, xerrors.Wrap(xerrors.ConnectionFailed, err)
	}

	c.pg = pg
	c.mu.Lock()
	c.status = StatusReady
	c.mu.Unlock()

	c.logger.Debug("connection ready", slog.String("user", config.User), slog.String("database", config.Database))
	return c, nil
}

func (c *Connection) onNotification(_ *pgconn.PgConn, n *pgconn.Notification) {
	note := &Notification{BackendPID: n.PID, Channel: n.Channel, Payload: n.Payload}

	select {
	case c.notifications <- note:
	default:
		c.logger.Warn("dropping notification, receive buffer full", slog.String("channel", note.Channel))
	}

	// Return first, then signal (spec.md §9 Open Question resolution):
	// notifyWake is only signalled after the notification is already
	// queued. ReceiveNotification itself does not read notifyWake; it is
	// woken by the notifications channel send above.
	select {
	case c.notifyWake <- struct{}{}:
	default:
	}
}

// Status reports the connection's current lifecycle state.
func (c *Connection) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// TransactionStatus reports the server's reported transaction status byte
// ('I' idle, 'T' in transaction, 'E' failed transaction), consulted by the
// pool on lease release (spec.md §4.5).
func (c *Connection) TransactionStatus() byte {
	return c.pg.TxStatus()
}

// Close tears the connection down, transitioning it to closed.
func (c *Connection) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == StatusClosed {
		return nil
	}
	c.status = StatusClosed
	return c.pg.Close(ctx)
}

// prepareDiscovery runs type discovery for every unresolved top-level
// composite parameter, shared by Query/QueryPrepared. It does not pack the
// parameters; Pipeline.Query/QueryPrepared do that.
func (c *Connection) prepareDiscovery(ctx context.Context, params []codec.Value) error {
	keys := collectUnregisteredComposites(params)
	names := c.types.Unresolved(keys)
	return c.discoverTypes(ctx, names)
}

// Query executes a single parameterized statement, spec.md §4.1
// `query(sql [, params])`. A single query is framed as a pipeline of one
// (spec.md §4.1 "Single-tuple vs batched rows").
func (c *Connection) Query(ctx context.Context, sql string, params ...codec.Value) (*Result, error) {
	c.op.Lock()
	defer c.op.Unlock()

	if err := c.prepareDiscovery(ctx, params); err != nil {
		return nil, err
	}

	pg := c.pg.StartPipeline(ctx)
	pipeline := &Pipeline{conn: c, pg: pg}
	if _, err := pipeline.Query(sql, params...); err != nil {
		return nil, xerrors.Wrap(xerrors.SendQueryParamsFailed, err)
	}

	results, err := c.runPipeline(ctx, pg, pipeline.Size())
	if err != nil {
		return nil, err
	}
	if len(results) != 1 {
		return nil, xerrors.New(xerrors.ResultStatusUnexpected)
	}
	return results[0], nil
}

// Prepare names a server-side statement, spec.md §4.1 `prepare(name,
// sql)`.
func (c *Connection) Prepare(ctx context.Context, name, sql string, paramOIDs ...uint32) error {
	c.op.Lock()
	defer c.op.Unlock()

	_, err := c.pg.Prepare(ctx, name, sql, paramOIDs)
	if err != nil {
		return xerrors.Wrap(xerrors.SendPrepareFailed, err)
	}
	return nil
}

// QueryPrepared executes a previously named statement, spec.md §4.1
// `query_prepared(name [, params])`.
func (c *Connection) QueryPrepared(ctx context.Context, name string, params ...codec.Value) (*Result, error) {
	c.op.Lock()
	defer c.op.Unlock()

	if err := c.prepareDiscovery(ctx, params); err != nil {
		return nil, err
	}

	pg := c.pg.StartPipeline(ctx)
	pipeline := &Pipeline{conn: c, pg: pg}
	if _, err := pipeline.QueryPrepared(name, params...); err != nil {
		return nil, xerrors.Wrap(xerrors.SendQueryPreparedFailed, err)
	}

	results, err := c.runPipeline(ctx, pg, pipeline.Size())
	if err != nil {
		return nil, err
	}
	if len(results) != 1 {
		return nil, xerrors.New(xerrors.ResultStatusUnexpected)
	}
	return results[0], nil
}

// DescribePrepared fetches a named prepared statement's parameter/result
// metadata, spec.md §4.1 `describe_prepared(name)`.
func (c *Connection) DescribePrepared(ctx context.Context, name string) (*pgconn.StatementDescription, error) {
	c.op.Lock()
	defer c.op.Unlock()

	desc, err := c.pg.Prepare(ctx, name, "", nil)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.SendDescribePreparedFailed, err)
	}
	return desc, nil
}

// DescribePortal fetches a named portal's result metadata, spec.md §4.1
// `describe_portal(name)`.
func (c *Connection) DescribePortal(ctx context.Context, name string) (*pgconn.StatementDescription, error) {
	c.op.Lock()
	defer c.op.Unlock()

	desc, err := c.pg.ReadStatementDescribe(ctx, &pgconn.Describe{Name: name, Kind: 'P'})
	if err != nil {
		return nil, xerrors.Wrap(xerrors.SendDescribePortalFailed, err)
	}
	return desc, nil
}

// ExecPipeline implements spec.md §4.1 `exec_pipeline(builder_fn)` /
// §4.4's staging model: the caller stages queries on the supplied
// Pipeline, and on return the driver flushes them atomically under one
// sync barrier and returns their results in staging order.
//
// If build panics, the driver substitutes the entire staged batch with a
// single ROLLBACK; before flushing and surfaces
// xerrors.ExceptionInPipelineOperation, per spec.md §4.4.
func (c *Connection) ExecPipeline(ctx context.Context, build func(*Pipeline) error) (results []*Result, err error) {
	c.op.Lock()
	defer c.op.Unlock()

	pg := c.pg.StartPipeline(ctx)
	pipeline := &Pipeline{conn: c, pg: pg}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic inside pipeline builder, substituting rollback", slog.Any("panic", r))

			rollback := c.pg.StartPipeline(ctx)
			rollbackPipeline := &Pipeline{conn: c, pg: rollback}
			_, _ = rollbackPipeline.Query("ROLLBACK;")
			_, _ = c.runPipeline(ctx, rollback, rollbackPipeline.Size())

			results = nil
			err = xerrors.Wrap(xerrors.ExceptionInPipelineOperation, toError(r))
		}
	}()

	if buildErr := build(pipeline); buildErr != nil {
		return nil, buildErr
	}

	return c.runPipeline(ctx, pg, pipeline.Size())
}

func toError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &panicValue{r}
}

type panicValue struct{ v any }

func (p *panicValue) Error() string { return "panic in pipeline builder" }

// ReceiveNotification waits for the next asynchronous notification,
// spec.md §4.1 `receive_notification()`. It arms its own read wait via
// pgconn.PgConn.WaitForNotification rather than relying on some other
// concurrent operation to be actively reading the socket, so it works
// standalone with nothing else in flight on the connection. It is still
// composable with a concurrent query on the same connection: it does not
// take c.op, and pgconn's controller gate serializes the two reads of the
// shared socket rather than racing them. Any notification the query's own
// read surfaces in the meantime is picked up without waiting for
// WaitForNotification to acquire the socket itself (spec.md §4.1
// "Notification channel").
func (c *Connection) ReceiveNotification(ctx context.Context) (*Notification, error) {
	select {
	case note := <-c.notifications:
		return note, nil
	default:
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	waitErr := make(chan error, 1)
	go func() { waitErr <- c.pg.WaitForNotification(waitCtx) }()

	select {
	case note := <-c.notifications:
		return note, nil
	case err := <-waitErr:
		if err != nil {
			return nil, xerrors.Wrap(xerrors.OperationAborted, err)
		}
		select {
		case note := <-c.notifications:
			return note, nil
		default:
			return nil, xerrors.New(xerrors.OperationAborted)
		}
	case <-ctx.Done():
		return nil, xerrors.Wrap(xerrors.OperationAborted, ctx.Err())
	}
}
