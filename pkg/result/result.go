// Package result is the structured outcome returned by every store-backed operation.
package result

// Kind classifies an outcome.
type Kind string

const (
	KindOK               Kind = "ok"
	KindAlreadySatisfied Kind = "already_satisfied"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindValidation       Kind = "validation_failure"
	KindInternal         Kind = "internal"
	// KindDeliveryFailure is recorded by the broadcaster only; writers never see it.
	KindDeliveryFailure Kind = "delivery_failure"
)

// Result carries a success flag, a human-readable message, the outcome kind
// and, on success, the data.
type Result[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Kind    Kind   `json:"kind"`
	Data    T      `json:"data,omitempty"`
}

// None is the data type of results that carry no payload.
type None struct{}

// OK reports a new mutation or a successful read.
func OK[T any](message string, data T) Result[T] {
	return Result[T]{Success: true, Message: message, Kind: KindOK, Data: data}
}

// Satisfied reports an idempotent success that changed nothing.
func Satisfied[T any](message string, data T) Result[T] {
	return Result[T]{Success: true, Message: message, Kind: KindAlreadySatisfied, Data: data}
}

// Fail reports a failure of the given kind.
func Fail[T any](kind Kind, message string) Result[T] {
	return Result[T]{Success: false, Message: message, Kind: kind}
}

// Recast copies a failed result into a result of another data type.
func Recast[T, U any](r Result[U]) Result[T] {
	return Result[T]{Success: r.Success, Message: r.Message, Kind: r.Kind}
}

// Done is a payload-less success.
func Done(message string) Result[None] {
	return OK(message, None{})
}
