package pgpipe

import (
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jeroenrinzema/pgpipe/codec"
)

// Pipeline is a builder owned transiently by one ExecPipeline call,
// spec.md §3 Pipeline / §4.4: it accumulates (query-string, parameter-set)
// pairs, serializing each immediately into the underlying library's send
// queue. Each staged query packs its parameters into its own ParameterSet;
// the connection keeps no shared encoding buffer across calls. It becomes
// committed when the driver emits the pipeline sync marker; using it
// afterwards is a programming error.
type Pipeline struct {
	conn *Connection
	pg   *pgconn.Pipeline

	staged int
}

// Query stages a single parameterized statement, spec.md §4.4
// `push_query(sql [, params]) -> index`. Serializes and submits
// immediately; the result is only available once the owning ExecPipeline
// call returns.
func (p *Pipeline) Query(sql string, params ...codec.Value) (int, error) {
	var packed ParameterSet
	if err := packed.Pack(p.conn.types, params...); err != nil {
		return 0, err
	}

	p.pg.SendQueryParams(sql, packed.Values(), packed.OIDs(), packed.formatCodes(), nil)

	index := p.staged
	p.staged++
	return index, nil
}

// QueryPrepared stages execution of a previously named statement, spec.md
// §4.4 `push_query_prepared(name [, params]) -> index`.
func (p *Pipeline) QueryPrepared(name string, params ...codec.Value) (int, error) {
	var packed ParameterSet
	if err := packed.Pack(p.conn.types, params...); err != nil {
		return 0, err
	}

	p.pg.SendQueryPrepared(name, packed.Values(), packed.formatCodes(), nil)

	index := p.staged
	p.staged++
	return index, nil
}

// Size reports how many statements have been staged so far.
func (p *Pipeline) Size() int {
	return p.staged
}
