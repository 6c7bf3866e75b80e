// Package xerrors defines the driver's error taxonomy: a small enum of
// terminal causes (one per failed underlying-library call or protected
// invariant) plus the SQLSTATE-decorator idiom used to attach a server
// diagnostic code to any error without losing the original cause.
//
// Named xerrors, not errors, so that call sites can still import the
// standard library errors package unshadowed alongside this one — the
// same reason the teacher keeps its decorator in its own errors/ package.
package xerrors

import (
	"errors"
	"fmt"

	"github.com/jeroenrinzema/pgpipe/codes"
)

// Cause enumerates the driver errors from spec.md §4.6: each corresponds to
// one failed underlying-library call or one invariant the driver protects.
type Cause int

const (
	_ Cause = iota
	ConnectionFailed
	StatusFailed
	SetNonBlockingFailed
	FlushFailed
	EnterPipelineModeFailed
	ExitPipelineModeFailed
	SendQueryParamsFailed
	SendPrepareFailed
	SendQueryPreparedFailed
	SendDescribePreparedFailed
	SendDescribePortalFailed
	PipelineSyncFailed
	ConsumeInputFailed
	ResultStatusBadResponse
	ResultStatusEmptyQuery
	ResultStatusFatalError
	ResultStatusPipelineAborted
	ResultStatusUnexpected
	UnexpectedNonNullResult
	ExceptionInPipelineOperation
	UserDefinedTypeDoesNotExist
	OperationAborted
)

func (c Cause) String() string {
	switch c {
	case ConnectionFailed:
		return "connection to database failed"
	case StatusFailed:
		return "connection status check failed, check the error message on the connection"
	case SetNonBlockingFailed:
		return "setting the connection to non-blocking mode failed"
	case FlushFailed:
		return "flushing the outbound buffer failed, check the error message on the connection"
	case EnterPipelineModeFailed:
		return "entering pipeline mode failed"
	case ExitPipelineModeFailed:
		return "exiting pipeline mode failed"
	case SendQueryParamsFailed:
		return "sending a parameterized query failed"
	case SendPrepareFailed:
		return "sending a prepare statement failed"
	case SendQueryPreparedFailed:
		return "sending a prepared statement execution failed"
	case SendDescribePreparedFailed:
		return "sending a describe-prepared-statement request failed"
	case SendDescribePortalFailed:
		return "sending a describe-portal request failed"
	case PipelineSyncFailed:
		return "sending the pipeline sync marker failed"
	case ConsumeInputFailed:
		return "consuming input from the server failed"
	case ResultStatusBadResponse:
		return "the server's response was not understood"
	case ResultStatusEmptyQuery:
		return "the query sent to the server was empty"
	case ResultStatusFatalError:
		return "fatal error in query execution, check the error message on the result"
	case ResultStatusPipelineAborted:
		return "pipeline execution aborted, check the error message on the result"
	case ResultStatusUnexpected:
		return "unexpected status from query result"
	case UnexpectedNonNullResult:
		return "unexpected non-null result"
	case ExceptionInPipelineOperation:
		return "an exception occurred while executing the pipeline operation"
	case UserDefinedTypeDoesNotExist:
		return "no user-defined type with the given name was found on the server"
	case OperationAborted:
		return "operation aborted"
	default:
		return "unknown driver error"
	}
}

// DriverError wraps a terminal Cause with the underlying library error, if
// any, that triggered it.
type DriverError struct {
	Cause Cause
	Err   error
}

func New(cause Cause) error {
	return &DriverError{Cause: cause}
}

func Wrap(cause Cause, err error) error {
	if err == nil {
		return New(cause)
	}
	return &DriverError{Cause: cause, Err: err}
}

func (e *DriverError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Cause, e.Err)
	}
	return e.Cause.String()
}

func (e *DriverError) Unwrap() error { return e.Err }

// Is reports whether err is a DriverError with the given cause.
func Is(err error, cause Cause) bool {
	var de *DriverError
	if errors.As(err, &de) {
		return de.Cause == cause
	}
	return false
}

// WithCode decorates err with a Postgres SQLSTATE code, mirroring the
// teacher's errors.WithCode decorator.
func WithCode(err error, code codes.Code) error {
	if err == nil {
		return nil
	}
	return &withCode{cause: err, code: code}
}

// GetCode returns the SQLSTATE decorating err, walking Unwrap chains. It
// returns codes.Uncategorized if none is found.
func GetCode(err error) codes.Code {
	code := codes.Uncategorized
	var wc *withCode
	if errors.As(err, &wc) {
		return wc.code
	}

	if inner := errors.Unwrap(err); inner != nil {
		return GetCode(inner)
	}

	return code
}

type withCode struct {
	cause error
	code  codes.Code
}

func (w *withCode) Error() string { return w.cause.Error() }
func (w *withCode) Unwrap() error { return w.cause }
