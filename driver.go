package pgpipe

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq/oid"

	"github.com/jeroenrinzema/pgpipe/codec"
	"github.com/jeroenrinzema/pgpipe/internal/fifo"
	"github.com/jeroenrinzema/pgpipe/xerrors"
)

// resultStatusToError maps a statement's error, grounded in
// original_source/include/psql/connection.hpp's
// result_status_to_error_code: an error carrying a server PgError becomes
// ResultStatusFatalError decorated with its SQLSTATE, and any other error
// becomes ResultStatusUnexpected. It never produces
// ResultStatusBadResponse, ResultStatusEmptyQuery or
// ResultStatusPipelineAborted.
func resultStatusToError(res *pgconn.Result) error {
	if res.Err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if asPgError(res.Err, &pgErr) {
		return xerrors.WithCode(xerrors.Wrap(xerrors.ResultStatusFatalError, res.Err), pgErr.Code)
	}

	return xerrors.Wrap(xerrors.ResultStatusUnexpected, res.Err)
}

func asPgError(err error, target **pgconn.PgError) bool {
	pgErr, ok := err.(*pgconn.PgError)
	if ok {
		*target = pgErr
	}
	return ok
}

// runPipeline drives one pgconn.Pipeline to completion: it emits the sync
// marker, flushes the write side until drained, then reads results,
// dispatching each to completion and stopping at the sync sentinel — the
// framing algorithm of spec.md §4.1 steps 2-5, with one exec_pipeline call
// producing exactly one completion entry (PipelineKind for staged > 1,
// SingleResultKind for staged == 1, per spec.md §3 Pending completion). An
// empty pipeline (staged == 0) is synced and closed without pushing any
// completion.
func (c *Connection) runPipeline(ctx context.Context, pg *pgconn.Pipeline, staged int) ([]*Result, error) {
	if staged == 0 {
		if err := pg.Sync(); err != nil {
			return nil, xerrors.Wrap(xerrors.PipelineSyncFailed, err)
		}
		if err := pg.Close(); err != nil {
			return nil, xerrors.Wrap(xerrors.FlushFailed, err)
		}
		return nil, nil
	}

	var completion *fifo.Completion
	if staged == 1 {
		completion = fifo.NewSingleResult()
	} else {
		completion = fifo.NewPipeline(staged)
	}
	c.completions.Push(completion)

	if err := pg.Sync(); err != nil {
		completion.Complete()
		c.completions.Pop()
		return nil, xerrors.Wrap(xerrors.PipelineSyncFailed, err)
	}

	// Flush/read orchestration (spec.md §4.1): flush until the send buffer
	// drains, then drain results until the PIPELINE_SYNC sentinel. Any
	// error partway through (including ctx cancellation, since pg is bound
	// to ctx via StartPipeline) cancels the completion into drain mode
	// (spec.md §4.1 step 6, §5, §8) instead of abandoning the remaining
	// owed results on the wire: leaving them unread would desync every
	// later completion's FIFO alignment on this same connection.
	results := make([]*Result, 0, staged)
	for {
		item, err := pg.GetResults()
		if err != nil {
			completion.Cancel()
			c.drainCancelled(pg, completion)
			return nil, xerrors.Wrap(xerrors.ConsumeInputFailed, err)
		}
		if item == nil {
			break // PIPELINE_SYNC consumed; batch complete.
		}

		switch v := item.(type) {
		case *pgconn.ResultReader:
			res, readErr := collectResult(v)
			if readErr != nil {
				completion.Cancel()
				c.drainCancelled(pg, completion)
				return nil, xerrors.Wrap(xerrors.ResultStatusBadResponse, readErr)
			}
			if statusErr := resultStatusToError(res); statusErr != nil {
				// A fatal statement error still occupies one FIFO slot;
				// spec.md §7: "when one statement fails, all subsequent
				// staged statements return pipeline_aborted until the
				// sync barrier" is the caller's responsibility to detect
				// via each Result's carried error.
				results = append(results, newResultWithErr(res, statusErr))
			} else {
				results = append(results, newResult(res))
			}

			if exhausted := completion.Deliver(res); exhausted {
				c.completions.Pop()
			}
		case *pgconn.StatementDescription:
			// Describe* responses flow through the same FIFO slot; callers
			// needing the raw description use DescribePrepared/
			// DescribePortal instead of Query/QueryPrepared.
			if exhausted := completion.Deliver(nil); exhausted {
				c.completions.Pop()
			}
		default:
			// Unrecognized pipeline item; treat as a protocol violation,
			// but still drain the remaining owed results rather than
			// leaving them on the wire for the next caller to trip over.
			completion.Cancel()
			c.drainCancelled(pg, completion)
			return nil, xerrors.New(xerrors.ResultStatusUnexpected)
		}
	}

	if err := pg.Close(); err != nil {
		return nil, xerrors.Wrap(xerrors.ExitPipelineModeFailed, err)
	}

	return results, nil
}

// drainCancelled consumes exactly the results still owed to a cancelled
// completion, discarding their payloads, so the next caller's Sync/
// GetResults pass starts from an aligned FIFO boundary instead of reading
// bytes left over from this one (spec.md §4.1 step 6 "drain mode consumes
// exactly the remaining expected results"). It pops the completion off the
// queue once Deliver reports it exhausted, or once the wire itself stops
// producing results (a hard read error or the PIPELINE_SYNC sentinel),
// whichever comes first — a second read failure here means the connection
// is no longer usable, so there is nothing further to drain.
func (c *Connection) drainCancelled(pg *pgconn.Pipeline, completion *fifo.Completion) {
	for {
		item, err := pg.GetResults()
		if err != nil || item == nil {
			completion.Complete()
			c.completions.Pop()
			return
		}

		switch v := item.(type) {
		case *pgconn.ResultReader:
			res, _ := collectResult(v)
			if exhausted := completion.Deliver(res); exhausted {
				c.completions.Pop()
				return
			}
		default:
			if exhausted := completion.Deliver(nil); exhausted {
				c.completions.Pop()
				return
			}
		}
	}
}

// collectResult drains a ResultReader's rows into a self-contained
// *pgconn.Result, copying payloads out of pgconn's reusable read buffer so
// the zero-copy Result/Row/Field views above remain valid after the next
// read (spec.md §3 Result "non-owning views into the parent result").
func collectResult(reader *pgconn.ResultReader) (*pgconn.Result, error) {
	var rows [][][]byte
	for reader.NextRow() {
		values := reader.Values()
		row := make([][]byte, len(values))
		for i, v := range values {
			if v == nil {
				continue
			}
			cp := make([]byte, len(v))
			copy(cp, v)
			row[i] = cp
		}
		rows = append(rows, row)
	}

	fields := reader.FieldDescriptions()
	commandTag, err := reader.Close()

	return &pgconn.Result{
		CommandTag:        commandTag,
		FieldDescriptions: fields,
		Rows:              rows,
		Err:               err,
	}, nil
}

func newResultWithErr(res *pgconn.Result, err error) *Result {
	r := newResult(res)
	r.err = err
	return r
}

// Err returns the SQLSTATE-decorated error attached to this result, if the
// server reported a fatal error for the statement that produced it.
func (r *Result) Err() error { return r.err }

// discoverTypes implements spec.md §4.2 Discovery: for every name not yet
// resolved in the connection's OID map, issue the to_regtype sub-query and
// fold the results back in.
func (c *Connection) discoverTypes(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}

	elems := make([]codec.Value, len(names))
	for i, name := range names {
		elems[i] = codec.String(name)
	}
	textOID, textArrayOID := oid.Oid(25), oid.Oid(1009)
	arr, err := codec.NewArray(textOID, textArrayOID, elems...)
	if err != nil {
		return err
	}

	payload := arr.Encode(make([]byte, 0, arr.SizeOf()))

	result := c.pg.ExecParams(ctx, codec.DiscoveryQuery, [][]byte{payload},
		[]uint32{uint32(textArrayOID)}, []int16{1}, []int16{1}).Read()
	if result.Err != nil {
		return xerrors.Wrap(xerrors.ConsumeInputFailed, result.Err)
	}

	for i, row := range result.Rows {
		if i >= len(names) {
			break
		}
		if row[0] == nil {
			return xerrors.New(xerrors.UserDefinedTypeDoesNotExist)
		}
		scalarOID, err := codec.DecodeUint32(row[0])
		if err != nil {
			return fmt.Errorf("pgpipe: decoding discovered scalar oid: %w", err)
		}
		arrayOID, err := codec.DecodeUint32(row[1])
		if err != nil {
			return fmt.Errorf("pgpipe: decoding discovered array oid: %w", err)
		}
		if oid.Oid(scalarOID) == codec.InvalidOID {
			return xerrors.New(xerrors.UserDefinedTypeDoesNotExist)
		}
		c.types.Resolve(names[i], oid.Oid(scalarOID), oid.Oid(arrayOID))
	}

	return nil
}

// collectUnregisteredComposites walks the top-level shape of params and
// returns the oidmap registration key of every named Composite, resolved
// or not; prepareDiscovery filters out the already-resolved ones through
// oidmap.Map.Unresolved. This is a deliberate simplification of spec.md §4.2's
// "recursively, inside an array or inside a composite" walk: nested
// composites (a composite member, or an array element, that is itself an
// unregistered composite) must be pre-registered by the caller before
// being embedded, since codec.NewComposite/NewArray already encode their
// members eagerly and the original Value tree is not retained.
func collectUnregisteredComposites(params []codec.Value) []any {
	var keys []any
	for _, p := range params {
		if comp, ok := p.(codec.Composite); ok && comp.Key != nil {
			keys = append(keys, comp.Key)
		}
	}
	return keys
}
