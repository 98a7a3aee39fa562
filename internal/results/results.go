// Package results defines the generic operation result used by application services.
package results

// OperationResult carries either a success or a failure payload from a service
// operation. Handlers translate these payloads into outbound messages; an
// accompanying error signals an infrastructure fault rather than a business
// failure.
type OperationResult[S any, F any] struct {
	Success *S
	Failure *F
	Error   error
}

func (r OperationResult[S, F]) IsSuccess() bool {
	return r.Success != nil
}

func (r OperationResult[S, F]) IsFailure() bool {
	return r.Failure != nil
}

// Ok wraps a success payload.
func Ok[S any, F any](s S) OperationResult[S, F] {
	return OperationResult[S, F]{Success: &s}
}

// Fail wraps a failure payload.
func Fail[S any, F any](f F) OperationResult[S, F] {
	return OperationResult[S, F]{Failure: &f}
}
