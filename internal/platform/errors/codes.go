// Package errors provides structured error handling with gRPC status interop.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Connection errors
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeConnectFailed   Code = "CONNECT_FAILED"
	CodeNodeUnreachable Code = "NODE_UNREACHABLE"

	// Query errors
	CodeQueryRejected Code = "QUERY_REJECTED"

	// Status errors
	CodeStatusUnavailable Code = "STATUS_UNAVAILABLE"

	// Console session errors
	CodeConsoleSessionNotFound Code = "CONSOLE_SESSION_NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeInvalidArgument, CodeQueryRejected:
		return codes.InvalidArgument

	case CodeConnectFailed, CodeNodeUnreachable, CodeStatusUnavailable:
		return codes.Unavailable

	case CodeConsoleSessionNotFound:
		return codes.NotFound

	default:
		return codes.Internal
	}
}

// FromGRPCCode maps a gRPC status code back to a domain code. It is the
// client-side inverse of GRPCCode for statuses that carry no ErrorInfo.
func FromGRPCCode(c codes.Code) Code {
	switch c {
	case codes.InvalidArgument:
		return CodeQueryRejected
	case codes.Unavailable, codes.DeadlineExceeded:
		return CodeNodeUnreachable
	case codes.NotFound:
		return CodeConsoleSessionNotFound
	default:
		return CodeUnknown
	}
}
